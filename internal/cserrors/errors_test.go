package cserrors

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	err := New(KindInput, "read source file", fs.ErrNotExist)
	assert.Equal(t, "input: read source file: file does not exist", err.Error())
}

func TestError_WithMethodNamesOffender(t *testing.T) {
	err := New(KindStructural, "RemoveDependency", errors.New("no such edge")).
		WithMethod("int C.foo")
	assert.Equal(t, "structural: RemoveDependency: int C.foo: no such edge", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	err := New(KindInput, "read source file", fs.ErrNotExist)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
