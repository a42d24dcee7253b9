package errors

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_SentinelSurvivesEnrichment(t *testing.T) {
	err := Build(ErrBuildFailed).
		WithHint("Run with RUSTDN_LOG=debug for more detail").
		WithContext("key", "external-stable-1.78").
		WithExitCode(3).
		Err()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBuildFailed))
	assert.Equal(t, 3, GetExitCode(err))
	assert.Contains(t, errors.GetAllHints(err), "Run with RUSTDN_LOG=debug for more detail")
}

func TestBuild_WithCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := Build(ErrCacheDir).WithCause(cause).Err()

	assert.True(t, errors.Is(err, ErrCacheDir))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "permission denied")
	assert.Contains(t, err.Error(), ErrCacheDir.Error())
}

func TestBuild_NilError(t *testing.T) {
	assert.NoError(t, Build(nil).WithHint("ignored").Err())
}

func TestBuild_WithExplanation(t *testing.T) {
	err := Build(ErrBuildFailed).WithExplanation("error: attribute 'foo' missing").Err()

	assert.Contains(t, errors.GetAllDetails(err), "error: attribute 'foo' missing")
}

func TestBuild_WithHintf(t *testing.T) {
	err := Build(ErrBuildStart).WithHintf("set %s", "RUSTDN_NIX_BUILD").Err()

	assert.True(t, errors.Is(err, ErrBuildStart))
	assert.Equal(t, []string{"set RUSTDN_NIX_BUILD"}, errors.GetAllHints(err))
}
