package createorder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corray333/backend-labs/booking/internal/service/models/order"
	"github.com/corray333/backend-labs/booking/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/booking/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) CreateOrder(ctx context.Context, payload order.Payload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func TestCreateOrder(t *testing.T) {
	testCases := map[string]struct {
		body           string
		setupMock      func(*mockService)
		expectedStatus int
		expectedBody   string
	}{
		"should return the generated uid": {
			body: `{"title":"Trip","bookingDate":1700000000000}`,
			setupMock: func(m *mockService) {
				m.On("CreateOrder", mock.Anything, order.Payload{
					"title":       "Trip",
					"bookingDate": json.Number("1700000000000"),
				}).Return("0192f1a4-uid", nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `{"message":"order created","uid":"0192f1a4-uid"}`,
		},
		"should list violations": {
			body: `{"title":"Trip"}`,
			setupMock: func(m *mockService) {
				m.On("CreateOrder", mock.Anything, mock.Anything).Return("", &ordersvc.ValidationError{
					Violations: []validation.Violation{
						{Field: "bookingDate", Constraint: "required", Message: "bookingDate is required"},
					},
				})
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `[{"field":"bookingDate","constraint":"required","message":"bookingDate is required"}]`,
		},
		"should report store failures": {
			body: `{"title":"Trip"}`,
			setupMock: func(m *mockService) {
				m.On("CreateOrder", mock.Anything, mock.Anything).Return("", errors.New("failed to insert order: timeout"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"store error","message":"failed to insert order: timeout"}`,
		},
		"should not call the service for a malformed body": {
			body:           `[1,2]`,
			setupMock:      func(m *mockService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			svc := &mockService{}
			tc.setupMock(svc)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tc.body))

			CreateOrder(rec, req, svc)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), "invalid request body")
			}
			svc.AssertExpectations(t)
		})
	}
}
