package ouroerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	cause := errors.New("yaml: line 3: mapping values are not allowed")
	err := &ParseError{Path: "openapi.yaml", Err: cause}

	assert.ErrorIs(t, err, ErrParse)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "openapi.yaml")

	// Wrapping preserves the sentinel match.
	wrapped := fmt.Errorf("load: %w", err)
	assert.ErrorIs(t, wrapped, ErrParse)
	var perr *ParseError
	require.ErrorAs(t, wrapped, &perr)
	assert.Equal(t, "openapi.yaml", perr.Path)
}

func TestNotFoundAndDuplicate(t *testing.T) {
	nf := NotFound("schema", "User")
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.NotErrorIs(t, nf, ErrDuplicate)
	assert.Equal(t, `schema "User" not found`, nf.Error())

	dup := Duplicate("operation", "GET /users")
	assert.ErrorIs(t, dup, ErrDuplicate)
	assert.NotErrorIs(t, dup, ErrNotFound)
	assert.Equal(t, `operation "GET /users" already exists`, dup.Error())
}

func TestImportError(t *testing.T) {
	err := &ImportError{Issues: []Issue{
		{Location: "openapi", Code: "ERR_VERSION", Message: "unsupported version"},
		{Location: "info", Code: "ERR_INFO", Message: "missing info"},
	}}

	assert.ErrorIs(t, err, ErrImport)
	assert.Equal(t, "import rejected with 2 issue(s)", err.Error())
}
