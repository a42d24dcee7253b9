package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	errUtils "github.com/cloudposse/rustdn/errors"
)

func TestProgramName(t *testing.T) {
	tests := []struct {
		argv0 string
		want  string
	}{
		{argv0: "rustdn", want: "rustdn"},
		{argv0: "/home/user/.local/bin/rustdn", want: "rustdn"},
		{argv0: "/usr/bin/cargo", want: "cargo"},
		{argv0: "./cargo-clippy", want: "cargo-clippy"},
		{argv0: `cargo.exe`, want: "cargo"},
		{argv0: "", want: ""},
		{argv0: "/", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.argv0, func(t *testing.T) {
			assert.Equal(t, tt.want, programName(tt.argv0))
		})
	}
}

func TestReport(t *testing.T) {
	assert.Equal(t, 0, report(nil))
	assert.Equal(t, 101, report(errUtils.WithExitCode(errUtils.ErrToolExited, 101)))
	assert.Equal(t, errUtils.ExitCodeInternal, report(errUtils.Internal(errUtils.ErrCacheDir)))
	assert.Equal(t, 1, report(errUtils.ErrInvalidOverride))
}

func TestRun_NoProgramName(t *testing.T) {
	assert.Equal(t, errUtils.ExitCodeInternal, run(nil))
	assert.Equal(t, errUtils.ExitCodeInternal, run([]string{""}))
}
