package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndCode(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeTransportError, "Upload failed", cause)

	require.True(t, IsCode(err, CodeTransportError))
	require.False(t, IsCode(err, CodeServerError))
	require.Equal(t, "Upload failed: connection refused", err.Error())
	require.ErrorIs(t, err, cause)
}

func TestCodeOfWrapped(t *testing.T) {
	err := fmt.Errorf("submit: %w", Wrap(CodeInvalidFile, "Please upload a CSV file", nil))

	require.Equal(t, CodeInvalidFile, CodeOf(err))
	require.Equal(t, "Please upload a CSV file", MessageOf(err))
	require.Equal(t, "", CodeOf(errors.New("plain")))
	require.Equal(t, "plain", MessageOf(errors.New("plain")))
	require.Equal(t, "", MessageOf(nil))
}
