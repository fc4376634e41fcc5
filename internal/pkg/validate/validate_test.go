package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email  string `json:"email" validate:"required"`
	Method string `json:"otpMethod" validate:"omitempty,oneof=email phone"`
	Code   string `json:"otp,omitempty" validate:"omitempty,len=6,numeric"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Email: "a@b.com", Method: "phone", Code: "123456"}))
}

func TestStruct_UsesJSONNames(t *testing.T) {
	err := Struct(sample{})
	require.Error(t, err)
	assert.Equal(t, "email is required", err.Error())
}

func TestStruct_OneOf(t *testing.T) {
	err := Struct(sample{Email: "a@b.com", Method: "pigeon"})
	require.Error(t, err)
	assert.Equal(t, "otpMethod must be one of: email phone", err.Error())
}

func TestStruct_JoinsMessages(t *testing.T) {
	err := Struct(sample{Code: "12"})
	require.Error(t, err)
	assert.Equal(t, "email is required; otp must be 6 characters long", err.Error())
}

func TestIsRequired(t *testing.T) {
	assert.True(t, IsRequired(Struct(sample{})))
	assert.False(t, IsRequired(Struct(sample{Email: "a@b.com", Method: "pigeon"})))
	assert.False(t, IsRequired(nil))
}
