package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorBuilder enriches an error with hints, an explanation, structured
// context and an exit code before it reaches the user.
type ErrorBuilder struct {
	err       error
	hints     []string
	context   map[string]interface{}
	exitCode  *int
	sentinels []error
}

// Build starts from err. When err wraps nothing it is a sentinel, and the
// result keeps matching it with errors.Is whatever is added later.
func Build(err error) *ErrorBuilder {
	b := &ErrorBuilder{err: err}
	if err != nil && errors.UnwrapOnce(err) == nil {
		b.sentinels = append(b.sentinels, err)
	}
	return b
}

// WithCause puts cause underneath the current error.
func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	if cause == nil || b.err == nil {
		return b
	}
	b.sentinels = append(b.sentinels, b.err)
	b.err = errors.Wrap(cause, b.err.Error())
	return b
}

func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.hints = append(b.hints, hint)
	return b
}

func (b *ErrorBuilder) WithHintf(format string, args ...interface{}) *ErrorBuilder {
	return b.WithHint(fmt.Sprintf(format, args...))
}

// WithExplanation attaches multi-line detail, such as a child's stderr.
func (b *ErrorBuilder) WithExplanation(explanation string) *ErrorBuilder {
	if b.err != nil {
		b.err = errors.WithDetail(b.err, explanation)
	}
	return b
}

func (b *ErrorBuilder) WithExplanationf(format string, args ...interface{}) *ErrorBuilder {
	return b.WithExplanation(fmt.Sprintf(format, args...))
}

// WithContext records a key/value pair shown only in verbose output.
func (b *ErrorBuilder) WithContext(key string, value interface{}) *ErrorBuilder {
	if b.context == nil {
		b.context = make(map[string]interface{})
	}
	b.context[key] = value
	return b
}

func (b *ErrorBuilder) WithExitCode(code int) *ErrorBuilder {
	b.exitCode = &code
	return b
}

// Err returns the enriched error, or nil when Build was given nil.
func (b *ErrorBuilder) Err() error {
	if b.err == nil {
		return nil
	}

	err := b.err
	for _, hint := range b.hints {
		err = errors.WithHint(err, hint)
	}
	err = b.attachContext(err)

	// Marks go last so errors.Is sees them on the outermost error.
	for _, sentinel := range b.sentinels {
		err = errors.Mark(err, sentinel)
	}

	if b.exitCode != nil {
		err = WithExitCode(err, *b.exitCode)
	}
	return err
}

func (b *ErrorBuilder) attachContext(err error) error {
	if len(b.context) == 0 {
		return err
	}

	keys := make([]string, 0, len(b.context))
	for k := range b.context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	format := make([]string, len(keys))
	values := make([]interface{}, len(keys))
	for i, k := range keys {
		format[i] = k + "=%s"
		values[i] = errors.Safe(b.context[k])
	}
	return errors.WithSafeDetails(err, strings.Join(format, " "), values...)
}
