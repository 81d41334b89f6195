package ir

// Version constants for the instruction model and tool.
const (
	// IRVersion is the instruction model version.
	IRVersion = "1"

	// ToolVersion is the ratelens version.
	ToolVersion = "0.1.0"
)
