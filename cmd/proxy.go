package cmd

import (
	"context"

	log "github.com/cloudposse/rustdn/pkg/logger"
	"github.com/cloudposse/rustdn/toolchain"
)

// ExecuteProxy runs tool from the toolchain selected for args, as when the
// binary is invoked as cargo or rustc, and returns the tool's exit code. A
// leading +toolchain argument is consumed; every other argument goes to the
// tool unchanged.
func ExecuteProxy(tool string, args []string) (int, error) {
	loaded, err := loadConfig(nil)
	if err != nil {
		return 0, err
	}
	cfg = loaded

	log.Trace("Proxying tool", "tool", tool, "args", args)

	path, _, rest, err := resolve(context.Background(), args)
	if err != nil {
		return 0, err
	}
	return toolchain.RunTool(path, tool, rest)
}
