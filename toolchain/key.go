package toolchain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Cache keys name one directory per Override under the cache root. The
// mapping is invertible so installed entries can be enumerated from the
// directory names alone:
//
//	default                      DefaultOverride()
//	external-<channel>           ChannelOverride(channel)
//	external-<channel>-<version> VersionOverride(channel, version)
//	file-<escaped path>          FileOverride(path)
//
// In a file key every path byte that is ASCII, other than the escape byte and
// '/', is copied as is. Every other byte is written as the escape byte
// followed by two lowercase hex digits.
const (
	keyDefault        = "default"
	keyExternalPrefix = "external-"
	keyFilePrefix     = "file-"

	escapeByte    byte = 0x10
	separatorByte byte = '/'

	hexDigits = "0123456789abcdef"
)

// Key returns the canonical cache key of the override.
func (o Override) Key() string {
	switch o.Kind {
	case KindFile:
		return keyFilePrefix + escapePath(o.Path)
	case KindVersion:
		if o.HasVersion {
			return fmt.Sprintf("%s%s-%s", keyExternalPrefix, o.Channel, o.Version)
		}
		return keyExternalPrefix + o.Channel.String()
	default:
		return keyDefault
	}
}

// FromKey is the inverse of Key. It returns false for anything Key would not
// have produced, including keys with a malformed or non-canonical escape.
func FromKey(key string) (Override, bool) {
	switch {
	case key == keyDefault:
		return DefaultOverride(), true

	case strings.HasPrefix(key, keyFilePrefix):
		path, ok := unescapePath(strings.TrimPrefix(key, keyFilePrefix))
		if !ok {
			return Override{}, false
		}
		return FileOverride(path), true

	case strings.HasPrefix(key, keyExternalPrefix):
		rest := strings.TrimPrefix(key, keyExternalPrefix)
		name, version, hasVersion := strings.Cut(rest, "-")
		channel, err := ParseChannel(name)
		if err != nil {
			return Override{}, false
		}
		if !hasVersion {
			return ChannelOverride(channel), true
		}
		if !validVersion(version) {
			return Override{}, false
		}
		return VersionOverride(channel, version), true

	default:
		return Override{}, false
	}
}

func needsEscape(b byte) bool {
	return b >= utf8.RuneSelf || b == escapeByte || b == separatorByte
}

func escapePath(path string) string {
	var sb strings.Builder
	sb.Grow(len(path))

	for i := 0; i < len(path); i++ {
		b := path[i]
		if !needsEscape(b) {
			sb.WriteByte(b)
			continue
		}
		sb.WriteByte(escapeByte)
		sb.WriteByte(hexDigits[b>>4])
		sb.WriteByte(hexDigits[b&0x0f])
	}

	return sb.String()
}

// unescapePath decodes an escaped path. An escaped '/' closes the current
// path component, so a key can never smuggle in an unescaped separator.
func unescapePath(escaped string) (string, bool) {
	var sb strings.Builder
	sb.Grow(len(escaped))

	for i := 0; i < len(escaped); {
		b := escaped[i]
		if b != escapeByte {
			// A raw byte that needs escaping can't come from escapePath.
			if needsEscape(b) {
				return "", false
			}
			sb.WriteByte(b)
			i++
			continue
		}

		if i+3 > len(escaped) {
			return "", false
		}
		hi := strings.IndexByte(hexDigits, escaped[i+1])
		lo := strings.IndexByte(hexDigits, escaped[i+2])
		if hi < 0 || lo < 0 {
			return "", false
		}
		decoded := byte(hi<<4 | lo)
		if !needsEscape(decoded) {
			return "", false
		}
		sb.WriteByte(decoded)
		i += 3
	}

	return sb.String(), true
}
