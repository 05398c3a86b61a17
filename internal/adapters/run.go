package adapters

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

var commandContext = exec.CommandContext

// maxStderrTail is the maximum size of captured stderr surfaced in error
// details, per §4.3.
const maxStderrTail = 32 * 1024

// runCapture runs name with args, returning combined stdout+stderr output and
// the exec error (nil on success). Output is truncated to the last
// maxStderrTail bytes before being returned, so error details never balloon.
func runCapture(ctx context.Context, name string, args ...string) (string, error) {
	cmd := commandContext(ctx, name, args...) //nolint:gosec
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	return truncateTail(buf.Bytes(), maxStderrTail), err
}

func truncateTail(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[len(b)-max:])
}

func wrapExit(name string, err error, tail string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %s", name, err, tail)
}
