package assert

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func captureFailure(t *testing.T) (*bytes.Buffer, *int) {
	t.Helper()
	var buf bytes.Buffer
	code := -1

	prevOutput, prevExit := output, exit
	output = zerolog.ConsoleWriter{Out: &buf, NoColor: true}
	exit = func(c int) { code = c }
	t.Cleanup(func() {
		output, exit = prevOutput, prevExit
	})
	return &buf, &code
}

func TestFailReportsAndAborts(t *testing.T) {
	buf, code := captureFailure(t)

	fail("size <= capacity")

	assert.Equal(t, exitCode, *code)
	assert.Contains(t, buf.String(), "size <= capacity")
	assert.Contains(t, buf.String(), "stack")
}

func TestFailDefaultMessage(t *testing.T) {
	buf, _ := captureFailure(t)

	fail("")

	assert.Contains(t, buf.String(), "assertion failed")
}

func TestThatPassingCondition(t *testing.T) {
	buf, code := captureFailure(t)

	That(true, "never reported")

	assert.Equal(t, -1, *code)
	assert.Empty(t, buf.String())
}
