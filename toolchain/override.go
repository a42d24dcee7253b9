package toolchain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	errUtils "github.com/cloudposse/rustdn/errors"
)

// Kind discriminates the variants of an Override.
type Kind int

const (
	// KindDefault means nothing was requested explicitly.
	KindDefault Kind = iota
	// KindVersion is an explicit channel, optionally pinned to a version.
	KindVersion
	// KindFile is a toolchain described by a rust-toolchain.toml pin file.
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindVersion:
		return "version"
	case KindFile:
		return "file"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Channel is a Rust release channel.
type Channel int

const (
	Stable Channel = iota
	Beta
	Nightly
)

// Channels lists every channel in display order.
var Channels = []Channel{Stable, Beta, Nightly}

func (c Channel) String() string {
	switch c {
	case Stable:
		return "stable"
	case Beta:
		return "beta"
	case Nightly:
		return "nightly"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// ParseChannel parses "stable", "beta" or "nightly".
func ParseChannel(s string) (Channel, error) {
	for _, c := range Channels {
		if s == c.String() {
			return c, nil
		}
	}
	return Stable, fmt.Errorf("%w: %q (expected stable, beta or nightly)", errUtils.ErrInvalidChannel, s)
}

// Override describes which toolchain is wanted. Exactly one variant is
// active, selected by Kind; the fields of the other variants are zero, so
// two Overrides are equal iff they describe the same toolchain.
type Override struct {
	Kind Kind

	// Path is the pin file path (KindFile), kept as raw bytes.
	Path string

	// Channel and, when HasVersion is set, Version (KindVersion).
	Channel    Channel
	Version    string
	HasVersion bool
}

// DefaultOverride returns the override used when nothing was requested.
func DefaultOverride() Override {
	return Override{Kind: KindDefault}
}

// ChannelOverride requests the latest release of a channel.
func ChannelOverride(c Channel) Override {
	return Override{Kind: KindVersion, Channel: c}
}

// VersionOverride requests an explicit version of a channel. An empty
// version is still an explicit version. The version is not checked here;
// Validate rejects the ones that can't name a cache entry.
func VersionOverride(c Channel, version string) Override {
	return Override{Kind: KindVersion, Channel: c, Version: version, HasVersion: true}
}

// FileOverride requests the toolchain described by the pin file at path.
func FileOverride(path string) Override {
	return Override{Kind: KindFile, Path: path}
}

// Floating reports whether the override names a moving target ("latest"),
// whose cached artifact can never be trusted.
func (o Override) Floating() bool {
	switch o.Kind {
	case KindDefault:
		return true
	case KindVersion:
		return !o.HasVersion
	default:
		return false
	}
}

func (o Override) String() string {
	switch o.Kind {
	case KindFile:
		return "file:" + o.Path
	case KindVersion:
		if o.HasVersion {
			return o.Channel.String() + "-" + o.Version
		}
		return o.Channel.String()
	default:
		return "default"
	}
}

// Validate reports an error matching ErrInvalidOverride when o can't name
// a cache entry.
func (o Override) Validate() error {
	if o.Kind != KindVersion || !o.HasVersion || validVersion(o.Version) {
		return nil
	}
	return errUtils.Build(errUtils.ErrInvalidOverride).
		WithExplanationf("version %q must be valid UTF-8 without '/' or NUL", o.Version).
		WithContext("toolchain", o.String()).
		Err()
}

// validVersion reports whether a version can be part of a cache key, which
// is also a directory name, and be read back from it.
func validVersion(v string) bool {
	return utf8.ValidString(v) && !strings.ContainsAny(v, "/\x00")
}
