package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeReportJSON mirrors DecodeReport without the node union, which has
// no JSON decoder.
type decodeReportJSON struct {
	Steps []struct {
		Step  int        `json:"step"`
		Error *StepError `json:"error"`
	} `json:"steps"`
	Loops       []string    `json:"loops"`
	Unreachable []int       `json:"unreachable"`
	Errors      []StepError `json:"errors"`
}

func TestDecodeText(t *testing.T) {
	out, err := execute(NewDecodeCommand(&RootOptions{Format: "text"}), programPath("auto_v1.json"))
	require.NoError(t, err)

	assert.Contains(t, out, "AUTO_PREMIUM 1: 5 step(s)")
	assert.Regexp(t, `✓\s+1\s+IF\s+if`, out)
	assert.Regexp(t, `✓\s+3\s+Empty\s+jump`, out)
	assert.Regexp(t, `✓\s+5\s+Set Underwriting To Fail\s+set_underwriting_fail`, out)
}

func TestDecodeJSON(t *testing.T) {
	out, err := execute(NewDecodeCommand(&RootOptions{Format: "json"}), programPath("auto_v2.yaml"))
	require.NoError(t, err)

	var report struct {
		Program string `json:"program"`
		Steps   []struct {
			Step int `json:"step"`
			Node struct {
				Kind string         `json:"kind"`
				Node map[string]any `json:"node"`
			} `json:"node"`
		} `json:"steps"`
	}
	resp := decodeResponse(t, out, &report)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "AUTO_PREMIUM", report.Program)
	require.Len(t, report.Steps, 6)
	assert.Equal(t, "if", report.Steps[0].Node.Kind)
	assert.Equal(t, "string_concat", report.Steps[5].Node.Kind)
}

func TestDecodeReportsEveryFailingStep(t *testing.T) {
	out, err := execute(NewDecodeCommand(&RootOptions{Format: "text"}), programPath("broken.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Regexp(t, `✓\s+1\s+IF`, out)
	assert.Regexp(t, `✗\s+2\s+Type 250\s+E201`, out)
	assert.Regexp(t, `✗\s+3\s+IF\s+E202`, out)
	assert.Regexp(t, `✗\s+4\s+Arithmetic\s+E203`, out)
}

func TestDecodeFailureJSON(t *testing.T) {
	out, err := execute(NewDecodeCommand(&RootOptions{Format: "json"}), programPath("broken.json"))
	require.Error(t, err)

	var report decodeReportJSON
	resp := decodeResponse(t, out, &report)
	assert.Equal(t, "error", resp.Status)
	require.Len(t, report.Steps, 4)
	assert.Nil(t, report.Steps[0].Error)
	require.NotNil(t, report.Steps[1].Error)
	assert.Equal(t, ErrCodeUnknownOpcode, report.Steps[1].Error.Code)
	assert.Len(t, report.Errors, 3)
}

func TestDecodeAssemblyFailure(t *testing.T) {
	out, err := execute(NewDecodeCommand(&RootOptions{Format: "text"}), programPath("dangling.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	// Both steps decode; the graph does not assemble.
	assert.Regexp(t, `✓\s+1\s+IF`, out)
	assert.Contains(t, out, "✗ Assembly failed")
	assert.Contains(t, out, "E301")
}

func TestDecodeLoopNotes(t *testing.T) {
	out, err := execute(NewDecodeCommand(&RootOptions{Format: "json"}), programPath("loop.json"))
	require.NoError(t, err)

	var report decodeReportJSON
	decodeResponse(t, out, &report)
	assert.Equal(t, []string{"Loop through steps 1 → 2 → 3 → 1"}, report.Loops)
	assert.Equal(t, []int{4}, report.Unreachable)
}

func TestDecodeRequiresFile(t *testing.T) {
	_, err := execute(NewDecodeCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
}
