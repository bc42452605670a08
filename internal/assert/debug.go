//go:build afcdebug

package assert

// Enabled reports whether assertions are compiled in.
const Enabled = true

// That aborts the process with message when cond is false.
func That(cond bool, message string) {
	if !cond {
		fail(message)
	}
}
