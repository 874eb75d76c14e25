package order

import (
	"testing"

	"github.com/corray333/backend-labs/booking/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSchema(t *testing.T) {
	v := validation.MustCompile(CreateSchema)

	t.Run("should accept a complete order", func(t *testing.T) {
		violations, err := v.Validate(ToStorageShape(nestedPayload()))
		require.NoError(t, err)
		assert.Empty(t, violations)
	})

	t.Run("should report every missing leaf", func(t *testing.T) {
		violations, err := v.Validate(ToStorageShape(Payload{}))
		require.NoError(t, err)

		fields := make([]string, 0, len(violations))
		for _, violation := range violations {
			assert.Equal(t, "required", violation.Constraint)
			fields = append(fields, violation.Field)
		}
		assert.Equal(t, []string{
			"address.city",
			"address.country",
			"address.street",
			"address.zip",
			"bookingDate",
			"customer.email",
			"customer.name",
			"customer.phone",
			"title",
		}, fields)
	})
}

func TestUpdateSchema(t *testing.T) {
	v := validation.MustCompile(UpdateSchema)

	violations, err := v.Validate(ToUpdateShape(Payload{"title": "T2"}))
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "bookingDate", violations[0].Field)
	assert.Equal(t, "required", violations[0].Constraint)
}
