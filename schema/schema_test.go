package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectBuild(t *testing.T) {
	raw := Object().
		Field("next", String().Enum("change_guide", "end").Desc("다음 단계").Required()).
		Field("email", String().Format("email")).
		Field("tags", Array(String()).MaxItems(3)).
		Field("signer", Bool()).
		Field("count", Int().Min(0)).
		StrictMode().
		MustBuild()

	var s map[string]any
	require.NoError(t, json.Unmarshal(raw, &s))
	assert.Equal(t, "object", s["type"])
	assert.Equal(t, []any{"next"}, s["required"])
	assert.Equal(t, false, s["additionalProperties"])

	props := s["properties"].(map[string]any)
	next := props["next"].(map[string]any)
	assert.Equal(t, []any{"change_guide", "end"}, next["enum"])
	assert.Equal(t, "다음 단계", next["description"])
	assert.Equal(t, "email", props["email"].(map[string]any)["format"])
	assert.Equal(t, float64(3), props["tags"].(map[string]any)["maxItems"])
}

func TestRequiredIsNotDuplicated(t *testing.T) {
	raw := Object().
		Field("a", String().Required()).
		Field("a", String().Required()).
		MustBuild()
	var s map[string]any
	require.NoError(t, json.Unmarshal(raw, &s))
	assert.Equal(t, []any{"a"}, s["required"])
}

func TestBuildErrors(t *testing.T) {
	t.Run("string length range", func(t *testing.T) {
		_, err := String().MinLength(5).MaxLength(1).Build()
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := String().Pattern("[").Build()
		assert.ErrorIs(t, err, ErrInvalidPattern)
	})

	t.Run("nested field names the field", func(t *testing.T) {
		_, err := Object().Field("n", Int().Min(3).Max(1)).Build()
		var be *BuildError
		require.True(t, errors.As(err, &be))
		assert.Equal(t, "n", be.Field)
	})

	t.Run("MustBuild panics", func(t *testing.T) {
		assert.Panics(t, func() { Int().Min(2).Max(1).MustBuild() })
	})

	t.Run("Field rejects non-builders", func(t *testing.T) {
		assert.Panics(t, func() { Object().Field("x", 42) })
	})
}

func TestValidate(t *testing.T) {
	s := Object().
		Field("next", String().Enum("change_guide", "end").Required()).
		Field("email", String().Format("email")).
		MustBuild()

	t.Run("valid document", func(t *testing.T) {
		assert.NoError(t, Validate(s, json.RawMessage(`{"next":"end","email":"kim@example.com"}`)))
	})

	t.Run("optional fields may be absent", func(t *testing.T) {
		assert.NoError(t, Validate(s, json.RawMessage(`{"next":"change_guide"}`)))
	})

	t.Run("enum outside the closed set", func(t *testing.T) {
		err := Validate(s, json.RawMessage(`{"next":"maybe"}`))
		var ve *ViolationError
		require.True(t, errors.As(err, &ve))
		assert.NotEmpty(t, ve.Violations)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := Validate(s, json.RawMessage(`{}`))
		var ve *ViolationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("malformed email", func(t *testing.T) {
		err := Validate(s, json.RawMessage(`{"next":"end","email":"not-an-address"}`))
		var ve *ViolationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("malformed JSON", func(t *testing.T) {
		err := Validate(s, json.RawMessage(`{"next":`))
		require.Error(t, err)
		var ve *ViolationError
		assert.False(t, errors.As(err, &ve))
	})
}
