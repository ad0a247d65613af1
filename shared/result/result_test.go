package result

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindBadRequest, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
		{KindUnavailable, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.HTTPStatus())
		})
	}
}

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError(nil))

	forbidden := Forbidden("nope")
	assert.Same(t, forbidden, AsError(forbidden))
	assert.Same(t, forbidden, AsError(fmt.Errorf("wrapped: %w", forbidden)))

	plain := AsError(errors.New("socket closed"))
	require.NotNil(t, plain)
	assert.Equal(t, KindInternal, plain.Kind)
	assert.Equal(t, MsgInternal, plain.Message)
	assert.Equal(t, "socket closed", plain.Detail)
}

func TestIsKind(t *testing.T) {
	assert.True(t, IsKind(Conflict("taken"), KindConflict))
	assert.False(t, IsKind(Conflict("taken"), KindForbidden))
	assert.False(t, IsKind(errors.New("x"), KindInternal))
}

func TestResult_OkEnvelope(t *testing.T) {
	r := From("payload", nil)
	require.True(t, r.IsOk())
	assert.Equal(t, "payload", r.Value())

	env := r.Envelope(http.StatusCreated, "Signup successful")
	assert.Equal(t, Envelope{Success: true, StatusCode: "201", Message: "Signup successful"}, env)
	assert.Equal(t, http.StatusCreated, env.Status())
}

func TestResult_ErrEnvelope(t *testing.T) {
	r := From[*int](nil, Internal(errors.New("connection reset")))
	require.False(t, r.IsOk())
	assert.Nil(t, r.Value())

	env := r.Envelope(http.StatusOK, "ignored")
	assert.False(t, env.Success)
	assert.Equal(t, "500", env.StatusCode)
	assert.Equal(t, MsgInternal, env.Message)
	require.NotNil(t, env.ErrorMessage)
	assert.Equal(t, "connection reset", *env.ErrorMessage)
}

func TestResult_ErrEnvelopeWithoutDetail(t *testing.T) {
	env := Err[string](NotFound(MsgUserNotFound)).Envelope(http.StatusOK, "user found")
	assert.Equal(t, "404", env.StatusCode)
	assert.Equal(t, MsgUserNotFound, env.Message)
	assert.Nil(t, env.ErrorMessage)
}

func TestEnvelope_StatusFallback(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, Envelope{StatusCode: "abc"}.Status())
}

func TestFailure(t *testing.T) {
	slow := Failure(fmt.Errorf("find users: %w", context.DeadlineExceeded))
	assert.Equal(t, KindUnavailable, slow.Kind)
	assert.Equal(t, "503", Err[int](slow).Envelope(http.StatusOK, "").StatusCode)

	broken := Failure(errors.New("connection refused"))
	assert.Equal(t, KindInternal, broken.Kind)
	assert.Equal(t, "connection refused", broken.Detail)
}
