// Package metrics records decode, render and diff outcomes as Prometheus
// counters.
//
// Metrics:
//   - ratelens_decode_instructions_total: decoded instructions by template and outcome
//   - ratelens_decode_errors_total: decode failures by error class
//   - ratelens_render_steps_total: rendered steps by template
//   - ratelens_diff_changes_total: change records by kind
//   - ratelens_operation_duration_seconds: wall time of whole-program operations
//
// The CLI is short-lived, so metrics are exported by writing the registry
// to a node-exporter textfile rather than serving /metrics.
package metrics
