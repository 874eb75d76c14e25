package ordersvc

import (
	"fmt"
	"strings"

	"github.com/corray333/backend-labs/booking/internal/validation"
)

// ValidationError is returned when a payload violates its schema.
type ValidationError struct {
	Violations []validation.Violation
}

func (e *ValidationError) Error() string {
	fields := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		fields[i] = v.Field + ": " + v.Constraint
	}

	return fmt.Sprintf("invalid order: %s", strings.Join(fields, ", "))
}
