package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corray333/backend-labs/booking/internal/service/models/order"
	"github.com/corray333/backend-labs/booking/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/booking/internal/validation"
	"github.com/stretchr/testify/assert"
)

func TestWriteServiceError(t *testing.T) {
	testCases := map[string]struct {
		err          error
		expectedBody string
	}{
		"should list violations": {
			err: &ordersvc.ValidationError{Violations: []validation.Violation{
				{Field: "title", Constraint: "required", Message: "title is required"},
			}},
			expectedBody: `[{"field":"title","constraint":"required","message":"title is required"}]`,
		},
		"should report a missing order": {
			err:          fmt.Errorf("lookup: %w", order.ErrNotFound),
			expectedBody: `{"error":"order not found"}`,
		},
		"should report store failures with their detail": {
			err:          errors.New("failed to read orders: permission denied"),
			expectedBody: `{"error":"store error","message":"failed to read orders: permission denied"}`,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			WriteServiceError(rec, tc.err)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.expectedBody, rec.Body.String())
		})
	}
}

func TestWriteInvalidBody(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteInvalidBody(rec, errors.New("unexpected EOF"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid request body","message":"unexpected EOF"}`, rec.Body.String())
}
