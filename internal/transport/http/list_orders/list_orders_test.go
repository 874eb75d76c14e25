package listorders

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corray333/backend-labs/booking/internal/service/models/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ListOrders(ctx context.Context) ([]order.Order, error) {
	args := m.Called(ctx)
	if list := args.Get(0); list != nil {
		return list.([]order.Order), args.Error(1)
	}

	return nil, args.Error(1)
}

func TestListOrders(t *testing.T) {
	testCases := map[string]struct {
		setupMock      func(*mockService)
		expectedStatus int
		expectedBody   string
	}{
		"should return every order with its uid": {
			setupMock: func(m *mockService) {
				m.On("ListOrders", mock.Anything).Return([]order.Order{
					{UID: "k1", Title: "Trip", BookingDate: 1},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody: `[{
				"uid": "k1",
				"address": {"city": "", "country": "", "street": "", "zip": ""},
				"bookingDate": 1,
				"customer": {"name": "", "phone": "", "email": ""},
				"title": "Trip"
			}]`,
		},
		"should return an empty list": {
			setupMock: func(m *mockService) {
				m.On("ListOrders", mock.Anything).Return([]order.Order{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		"should report store failures with 400": {
			setupMock: func(m *mockService) {
				m.On("ListOrders", mock.Anything).Return(nil, errors.New("failed to read orders: permission denied"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"store error","message":"failed to read orders: permission denied"}`,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			svc := &mockService{}
			tc.setupMock(svc)

			rec := httptest.NewRecorder()

			ListOrders(rec, httptest.NewRequest(http.MethodGet, "/orders", nil), svc)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.JSONEq(t, tc.expectedBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
