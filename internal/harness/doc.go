// Package harness runs conformance scenarios against rating programs.
//
// A scenario names a program file, optionally a second version to compare
// against, and assertions on what the program decodes, renders and how it
// differs. The harness runs the full pipeline: decode, assemble, render,
// store and read back, diff.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	program: ../programs/auto_v1.json
//	compare_to: ../programs/auto_v2.yaml
//	dictionary:
//	  GI_1: Driver age
//	assertions:
//	  - type: step_text
//	    step: 1
//	    text: "**IF**: IF `GI_1` (Driver age) > 18 THEN go to Step 2, ELSE go to Step 4"
//	  - type: node_kind
//	    step: 3
//	    kind: jump
//	  - type: change
//	    path: step=1/conditions[0]/operator
//	    change: changed
//	    old: ">"
//	    new: ">="
//
// Program paths are resolved relative to the scenario file.
//
// # Assertion Types
//
//   - step_text: the rendered text of a step equals text
//   - step_contains: the rendered text of a step contains a substring
//   - node_kind: a step decoded to the given node kind
//   - decode_error: a step failed to decode with the given error class
//   - loop: the steps form a loop
//   - unreachable: exactly these steps are unreachable
//   - change: the diff against compare_to contains a change record
//   - change_count: the diff against compare_to has exactly count records
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory store with sequential ids
// (testutil.SequentialIDs), so results and golden snapshots are identical
// across runs. Rendered text is read back from the store, which makes every
// scenario a store round trip as well.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/auto_premium.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
