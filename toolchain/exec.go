package toolchain

import (
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"

	errUtils "github.com/cloudposse/rustdn/errors"
	"github.com/cloudposse/rustdn/pkg/filesystem"
	log "github.com/cloudposse/rustdn/pkg/logger"
)

// execFunc runs binaryPath with args (args[0] is the binary itself) on the
// current stdio and returns the child's exit code.
// Replaced in tests.
var execFunc = func(binaryPath string, args []string, env []string) (int, error) {
	cmd := exec.Command(binaryPath, args[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return childExitCode(exitErr.ExitCode()), nil
	}
	if err != nil {
		return 0, err
	}
	return cmd.ProcessState.ExitCode(), nil
}

// childExitCode maps the "killed by a signal" code (-1) to a failure.
func childExitCode(code int) int {
	if code < 0 {
		return 1
	}
	return code
}

// BinaryPath returns the path of tool inside a resolved toolchain.
func BinaryPath(toolchainPath, tool string) string {
	return filepath.Join(toolchainPath, "bin", tool)
}

// RunTool runs tool from the resolved toolchain with args and returns its
// exit code. Interrupts are left to the child; rustdn only waits for it.
func RunTool(toolchainPath, tool string, args []string) (int, error) {
	binaryPath := BinaryPath(toolchainPath, tool)
	if !filesystem.Exists(binaryPath) {
		return 0, errUtils.Build(errUtils.ErrToolNotFound).
			WithExplanationf("`%s` does not exist", binaryPath).
			WithHint("Add the component that provides it to rust-toolchain.toml").
			WithContext("tool", tool).
			WithContext("toolchain", toolchainPath).
			WithExitCode(errUtils.ExitCodeInternal).
			Err()
	}

	// The terminal delivers SIGINT to the whole process group. Keep rustdn
	// alive so it can report the child's status.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	log.Debug("Starting tool", "path", binaryPath, "args", args)

	code, err := execFunc(binaryPath, append([]string{binaryPath}, args...), os.Environ())
	if err != nil {
		return 0, errUtils.Internal(err)
	}

	log.Debug("Tool finished", "path", binaryPath, "exit_code", code)
	return code, nil
}
