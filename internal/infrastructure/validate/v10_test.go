package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestStruct(t *testing.T) {
	v := NewValidator()

	assert.Nil(t, v.Struct(&loginPayload{Email: "a@b.com", Password: "secret1"}))

	fields := v.Struct(&loginPayload{Email: "nope", Password: "123"})
	require.Len(t, fields, 2)
	// field names come from the json tags, not the Go identifiers
	assert.Equal(t, "email", fields[0].Domain)
	assert.Equal(t, "password", fields[1].Domain)
	assert.NotEmpty(t, fields[0].Reason)
}

func TestEmpty(t *testing.T) {
	v := NewValidator()
	assert.Nil(t, v.Empty("query", "go"))

	fields := v.Empty("query", "")
	require.Len(t, fields, 1)
	assert.Equal(t, "query is required", fields[0].Reason)
}

func TestAllEmpty(t *testing.T) {
	v := NewValidator()
	assert.Nil(t, v.AllEmpty([]string{"email", "name"}, "", "someone"))
	assert.NotNil(t, v.AllEmpty([]string{"email", "name"}, "", ""))
}
