package engine

import _ "embed"

//go:embed flows/knee-pain.json
var kneePainFlow []byte

// DefaultScript returns the built-in knee pain flow used when no script
// file is configured.
func DefaultScript() (Script, error) {
	return ParseScript(kneePainFlow)
}
