// Package assert is the debug-only precondition hook. Builds with the
// afcdebug tag report a failed condition and abort the process; every
// other build compiles the checks away. Nothing may rely on it for
// correctness.
package assert

import (
	"os"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// exitCode mirrors SIGABRT.
const exitCode = 134

var (
	output = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}
	exit   = os.Exit
)

func fail(message string) {
	logger := zerolog.New(output).With().Timestamp().Logger()
	if message == "" {
		message = "assertion failed"
	}
	logger.Error().
		Bytes("stack", debug.Stack()).
		Msg(message)
	exit(exitCode)
}
