package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{E(CodeInvalidArgument, "op", "bad", nil), http.StatusBadRequest},
		{E(CodeForbidden, "op", "nope", nil), http.StatusForbidden},
		{E(CodeUpstream, "op", "model failed", errors.New("x")), http.StatusBadGateway},
		{fmt.Errorf("wrap: %w", ErrNotFound), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), c.err.Error())
	}
}

func TestPublicMessageHidesCause(t *testing.T) {
	err := E(CodeInternal, "FeedbackService.Create", "failed to save feedback", errors.New("mongo: socket closed"))
	assert.Equal(t, "failed to save feedback", PublicMessage(err))
	assert.Contains(t, err.Error(), "socket closed")
	assert.Equal(t, "internal error", PublicMessage(errors.New("raw")))
}

func TestIsCodeThroughWrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", E(CodeConflict, "op", "busy", nil))
	assert.True(t, IsCode(err, CodeConflict))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.True(t, IsCode(ErrForbidden, CodeForbidden))
}
