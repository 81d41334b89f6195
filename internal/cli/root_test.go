package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ratelens", cmd.Use)
	assert.Contains(t, cmd.Long, "rating-program")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"validate"},
		{"decode"},
		{"explain"},
		{"diff"},
		{"store"},
		{"store", "save"},
		{"store", "list"},
		{"store", "show"},
		{"store", "diff"},
	}

	for _, path := range commands {
		t.Run(filepath.Join(path...), func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"catalog", "templates", "dictionary", "metrics-file"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue, name)
	}
}

func TestExplainCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	explainCmd, _, err := cmd.Find([]string{"explain"})
	require.NoError(t, err)

	stepFlag := explainCmd.Flags().Lookup("step")
	require.NotNil(t, stepFlag)
	assert.Equal(t, "0", stepFlag.DefValue)

	prettyFlag := explainCmd.Flags().Lookup("pretty")
	require.NotNil(t, prettyFlag)
	assert.Equal(t, "false", prettyFlag.DefValue)
}

func TestDiffCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	diffCmd, _, err := cmd.Find([]string{"diff"})
	require.NoError(t, err)

	require.NotNil(t, diffCmd.Flags().Lookup("text"))
	require.NotNil(t, diffCmd.Flags().Lookup("flat"))
}

func TestStoreCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	storeCmd, _, err := cmd.Find([]string{"store"})
	require.NoError(t, err)

	dbFlag := storeCmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	// --db is required, so default is empty
	assert.Equal(t, "", dbFlag.DefValue)
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	_, err := execute(cmd, "--format", "invalid", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratelens.prom")

	cmd := NewRootCommand()
	_, err := execute(cmd, "--metrics-file", path, "explain", programPath("broken.json"))
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `ratelens_decode_errors_total{class="unknown_opcode"} 1`)
	assert.Contains(t, out, `ratelens_decode_errors_total{class="malformed_operand"} 1`)
	assert.Contains(t, out, `ratelens_decode_errors_total{class="arity_mismatch"} 1`)
}

func TestMetricsFileAfterExplain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratelens.prom")

	_, err := execute(NewRootCommand(), "--metrics-file", path, "explain", programPath("auto_v1.json"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ratelens_render_steps_total{template="if"} 1`)
}
