package toolchain

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	errUtils "github.com/cloudposse/rustdn/errors"
)

const (
	// PinFileName is the rustup pin file looked up from the working directory.
	PinFileName = "rust-toolchain.toml"

	overridePrefix = "+"
)

// Source tells where a selected override came from.
type Source string

const (
	SourceArgument Source = "argument"
	SourcePinFile  Source = "pin file"
	SourceDefault  Source = "default"
)

// Selection is the override chosen for an invocation.
type Selection struct {
	Override Override
	Source   Source
	// ConsumedArg is set when the first argument was the override and must
	// not be passed on to the tool.
	ConsumedArg bool
}

// ParseOverrideArg parses a "+channel" or "+channel-version" argument. It
// returns false, and no error, for arguments that don't start with "+".
//
// "+stable" asks for the latest stable release and "+stable-1.78" for 1.78.
// "+stable-" names an explicit, empty version.
func ParseOverrideArg(arg string) (Override, bool, error) {
	spec, ok := strings.CutPrefix(arg, overridePrefix)
	if !ok {
		return Override{}, false, nil
	}

	name, version, hasVersion := strings.Cut(spec, "-")
	channel, err := ParseChannel(name)
	if err != nil {
		return Override{}, false, errUtils.Build(errUtils.ErrInvalidOverride).
			WithCause(err).
			WithHint("Use +stable, +beta or +nightly, optionally followed by -<version>").
			WithContext("argument", arg).
			Err()
	}

	if !hasVersion {
		return ChannelOverride(channel), true, nil
	}
	o := VersionOverride(channel, version)
	if err := o.Validate(); err != nil {
		return Override{}, false, err
	}
	return o, true, nil
}

// FindPinFile looks for rust-toolchain.toml in start and each of its
// parents, nearest first.
func FindPinFile(start string) (string, bool, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false, err
	}

	for {
		candidate := filepath.Join(dir, PinFileName)
		_, err := os.Stat(candidate)
		switch {
		case err == nil:
			return candidate, true, nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("%w: %s: %w", errUtils.ErrPinFileRead, candidate, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Select picks the override for an invocation: a "+..." first argument,
// else the nearest pin file above cwd, else the default.
func Select(args []string, cwd string) (Selection, error) {
	if len(args) > 0 {
		o, ok, err := ParseOverrideArg(args[0])
		if err != nil {
			return Selection{}, err
		}
		if ok {
			return Selection{Override: o, Source: SourceArgument, ConsumedArg: true}, nil
		}
	}

	path, found, err := FindPinFile(cwd)
	if err != nil {
		return Selection{}, err
	}
	if found {
		return Selection{Override: FileOverride(path), Source: SourcePinFile}, nil
	}

	return Selection{Override: DefaultOverride(), Source: SourceDefault}, nil
}

// PinFile is the part of rust-toolchain.toml rustdn reports on. The builder
// reads the file itself.
type PinFile struct {
	Toolchain struct {
		Channel    string   `toml:"channel"`
		Components []string `toml:"components"`
		Targets    []string `toml:"targets"`
		Profile    string   `toml:"profile"`
	} `toml:"toolchain"`
}

// ReadPinFile parses the pin file at path.
func ReadPinFile(path string) (*PinFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errUtils.ErrPinFileRead, path, err)
	}

	var pin PinFile
	if err := toml.Unmarshal(data, &pin); err != nil {
		return nil, errUtils.Build(errUtils.ErrPinFileParse).
			WithCause(err).
			WithContext("path", path).
			Err()
	}
	return &pin, nil
}
