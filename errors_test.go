package sud

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError("create", ErrCodeInvalidParameters, "block length must be nonzero")
	require.Contains(t, err.Error(), "create")
	require.Contains(t, err.Error(), "block length must be nonzero")
}

func TestWrapErrorMapsErrno(t *testing.T) {
	err := WrapError("provision", syscall.ENOSPC)
	require.True(t, IsCode(err, ErrCodeNoFreeLUN))
	require.Equal(t, syscall.ENOSPC, err.Errno)
}

func TestWrapErrorPreservesStructuredError(t *testing.T) {
	inner := NewError("transact", ErrCodeTransportCancelled, "cancelled")
	wrapped := WrapError("dispatch", inner)
	require.True(t, IsCode(wrapped, ErrCodeTransportCancelled))
}

func TestWrapErrorNilIsNil(t *testing.T) {
	require.Nil(t, WrapError("op", nil))
}

func TestIsCodeFalseForUnrelatedError(t *testing.T) {
	require.False(t, IsCode(syscall.EINVAL, ErrCodeInvalidParameters))
}
