package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envelopeSchema = JSONSchema{
	Type:     "object",
	Required: []string{"params"},
	Properties: map[string]Property{
		"params": {
			Type:     "object",
			Required: []string{"doctorId"},
			Properties: map[string]Property{
				"doctorId": NonEmptyString("doctor id"),
			},
		},
		"document": {Type: "object"},
	},
}

func TestValidator_Valid(t *testing.T) {
	v, err := NewValidator(envelopeSchema)
	require.NoError(t, err)

	res := v.Validate(map[string]interface{}{
		"params":   map[string]interface{}{"doctorId": "d1"},
		"document": map[string]interface{}{"anything": 1},
	})
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidator_MissingNestedField(t *testing.T) {
	res := MustValidator(envelopeSchema).Validate(map[string]interface{}{
		"params": map[string]interface{}{},
	})

	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("params.doctorId"), res.GetErrorMessages())
}

func TestValidator_MissingRoot(t *testing.T) {
	res := ValidateInput(map[string]interface{}{}, envelopeSchema)

	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("params"), res.GetErrorMessages())
	assert.Equal(t, "REQUIRED", res.Errors[0].Code)
}

func TestValidator_EmptyString(t *testing.T) {
	res := ValidateInput(map[string]interface{}{
		"params": map[string]interface{}{"doctorId": ""},
	}, envelopeSchema)

	assert.False(t, res.Valid)
	assert.Len(t, res.GetErrorMessages(), 1)
}
