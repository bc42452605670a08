//go:build !afcdebug

package assert

// Enabled reports whether assertions are compiled in.
const Enabled = false

// That is a no-op outside afcdebug builds.
func That(bool, string) {}
