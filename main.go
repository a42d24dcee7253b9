package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/cloudposse/rustdn/cmd"
	errUtils "github.com/cloudposse/rustdn/errors"
	"github.com/cloudposse/rustdn/pkg/config"
	log "github.com/cloudposse/rustdn/pkg/logger"
)

func main() {
	// Use errUtils.OsExit to allow test interception.
	errUtils.OsExit(run(os.Args))
}

// run dispatches on the program name: as rustdn it is the command line,
// under any other name it proxies the tool of that name.
func run(args []string) int {
	if len(args) == 0 {
		return report(errUtils.Internal(errUtils.ErrNoToolName))
	}

	name := programName(args[0])
	if name == "" {
		return report(errUtils.Internal(errUtils.ErrNoToolName))
	}
	if name != config.AppName {
		return runProxy(name, args[1:])
	}

	cmd.RootCmd.SetArgs(args[1:])
	return report(cmd.Execute())
}

func runProxy(tool string, args []string) int {
	code, err := cmd.ExecuteProxy(tool, args)
	if err != nil {
		return report(err)
	}
	return code
}

// report prints err and returns the exit code it carries.
func report(err error) int {
	if err == nil {
		return 0
	}

	exitCode := errUtils.GetExitCode(err)

	// The tool already reported its own failure.
	if !errors.Is(err, errUtils.ErrToolExited) {
		formatted := errUtils.Format(err, errUtils.DefaultFormatterConfig())
		os.Stderr.WriteString(formatted + "\n")
	}

	log.Debug("Exiting with exit code", "code", exitCode)
	return exitCode
}

// programName is the file stem of argv[0]: "cargo" for /usr/bin/cargo or
// cargo.exe.
func programName(argv0 string) string {
	base := filepath.Base(argv0)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
