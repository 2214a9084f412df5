package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email  string   `json:"email" validate:"required,email"`
	Kinds  []string `json:"kinds" validate:"min=1"`
	Action string   `json:"action" validate:"oneof=approve reject"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(sample{Email: "a@example.com", Kinds: []string{"x"}, Action: "approve"}))

	err := Struct(sample{Action: "skip"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "Email is required")
		assert.Contains(t, err.Error(), "Kinds must have at least 1")
		assert.Contains(t, err.Error(), "Action must be one of [approve reject]")
	}
}
