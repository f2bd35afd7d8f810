package tinyweb

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatsWithFdAndErrno(t *testing.T) {
	err := &Error{Op: "read", Fd: 7, Code: ErrCodeIOError, Errno: syscall.EAGAIN, Msg: "would block"}
	assert.Contains(t, err.Error(), "would block")
	assert.Contains(t, err.Error(), "op=read")
	assert.Contains(t, err.Error(), "fd=7")
	assert.Contains(t, err.Error(), fmt.Sprintf("errno=%d", syscall.EAGAIN))
}

func TestWrapErrorMapsErrno(t *testing.T) {
	wrapped := WrapError("accept", syscall.ECONNRESET)
	assert.Equal(t, ErrCodeConnClosed, wrapped.Code)
	assert.ErrorIs(t, wrapped, wrapped)
}

func TestIsCodeMatchesThroughWrapping(t *testing.T) {
	inner := NewError("parse", ErrCodeInvalidRequest, "bad request line")
	outer := WrapError("process", inner)
	assert.True(t, IsCode(outer, ErrCodeInvalidRequest))
	assert.False(t, IsCode(outer, ErrCodeNotFound))
}

func TestWrapErrorNilReturnsNil(t *testing.T) {
	var err *Error = WrapError("op", nil)
	assert.Nil(t, err)
}

func TestErrorUnwrapReturnsInnerCause(t *testing.T) {
	cause := errors.New("boom")
	e := &Error{Op: "x", Code: ErrCodeIOError, Inner: cause}
	assert.ErrorIs(t, e, e)
	assert.Equal(t, cause, errors.Unwrap(e))
}
