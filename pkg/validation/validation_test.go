package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sofie/pkg/domain-errors"
)

type sampleRequest struct {
	UserID      string `validate:"required,notblank,max=128"`
	ConsentType string `validate:"required,oneof=wellness_guidance data_processing"`
	Energy      *int   `validate:"omitempty,gte=1,lte=10"`
}

func TestValidate(t *testing.T) {
	t.Run("valid request passes", func(t *testing.T) {
		require.NoError(t, Validate(&sampleRequest{UserID: "u1", ConsentType: "wellness_guidance"}))
	})

	t.Run("blank user id", func(t *testing.T) {
		err := Validate(&sampleRequest{UserID: "   ", ConsentType: "wellness_guidance"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, "user_id must not be blank", err.Error())
	})

	t.Run("unknown consent type", func(t *testing.T) {
		err := Validate(&sampleRequest{UserID: "u1", ConsentType: "marketing"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "consent_type must be one of")
	})

	t.Run("out of range optional field", func(t *testing.T) {
		energy := 11
		err := Validate(&sampleRequest{UserID: "u1", ConsentType: "wellness_guidance", Energy: &energy})
		require.Error(t, err)
		assert.Equal(t, "energy is out of range", err.Error())
	})
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "user_id", toSnakeCase("UserID"))
	assert.Equal(t, "consent_type", toSnakeCase("ConsentType"))
	assert.Equal(t, "query", toSnakeCase("Query"))
}
