package ir

// Version constants for the IR wire format and the toolchain.
const (
	// IRVersion is the IR JSON schema version.
	IRVersion = "1"

	// Version is the brutalist toolchain version.
	Version = "0.1.0"
)
