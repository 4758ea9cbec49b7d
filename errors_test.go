package finops

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewStatusError(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		code int
		want ErrorCategory
	}{
		{429, ErrorTransient},
		{500, ErrorTransient},
		{529, ErrorTransient},
		{401, ErrorPermanent},
		{403, ErrorPermanent},
		{400, ErrorUserInput},
		{404, ErrorUserInput},
		{422, ErrorUserInput},
		{418, ErrorPermanent},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			err := NewStatusError("request failed", tt.code, 0, cause)
			assert.Equal(t, tt.want, err.Category())
			assert.Equal(t, tt.code, err.StatusCode())
			assert.ErrorIs(t, err, cause)
		})
	}

	t.Run("retry-after makes the error transient", func(t *testing.T) {
		err := NewStatusError("slow down", 400, 3*time.Second, nil)
		assert.Equal(t, ErrorTransient, err.Category())
		assert.Equal(t, 3*time.Second, RetryAfterOf(err))
		assert.Equal(t, "slow down", err.Error())
	})
}

func TestCategoryOf(t *testing.T) {
	err := fmt.Errorf("calling model: %w", NewStatusError("unauthorized", 401, 0, nil))
	assert.Equal(t, ErrorPermanent, CategoryOf(err))

	plain := errors.New("boom")
	assert.Equal(t, ErrorCategory(""), CategoryOf(plain))
	assert.Zero(t, RetryAfterOf(plain))
}

func TestUnmarshalError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := &UnmarshalError{Context: "structured", Content: "{", TargetType: "*nodes.plan", Err: cause}
	assert.Contains(t, err.Error(), "*nodes.plan")
	assert.ErrorIs(t, err, cause)
}
