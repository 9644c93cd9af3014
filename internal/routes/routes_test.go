package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tpos/internal/handlers"
	"tpos/internal/lnurl"
	"tpos/internal/middleware"
	"tpos/internal/models"
	"tpos/internal/repositories"
	"tpos/internal/services/auth"
	"tpos/internal/services/gateway"
	"tpos/internal/services/payment"
	"tpos/internal/services/rates"
	"tpos/internal/services/tpos"
	"tpos/internal/utils"
	"tpos/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "test-secret"

type MockTposService struct {
	mock.Mock
}

func (m *MockTposService) List(ctx context.Context, w *models.WalletTypeInfo, allWallets bool) ([]models.Tpos, error) {
	args := m.Called(ctx, w, allWallets)
	return args.Get(0).([]models.Tpos), args.Error(1)
}

func (m *MockTposService) Create(ctx context.Context, w *models.WalletTypeInfo, data models.CreateTposData) (*models.Tpos, error) {
	args := m.Called(ctx, w, data)
	return tposOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTposService) Update(ctx context.Context, w *models.WalletTypeInfo, id string, data models.CreateTposData) (*models.Tpos, error) {
	args := m.Called(ctx, w, id, data)
	return tposOrNil(args.Get(0)), args.Error(1)
}

func (m *MockTposService) Authorize(ctx context.Context, w *models.WalletTypeInfo, id string) error {
	return m.Called(ctx, w, id).Error(0)
}

func (m *MockTposService) Delete(ctx context.Context, w *models.WalletTypeInfo, id string) error {
	return m.Called(ctx, w, id).Error(0)
}

func (m *MockTposService) CreateInvoice(ctx context.Context, id string, sale models.SaleRequest) (*models.Invoice, error) {
	args := m.Called(ctx, id, sale)
	inv, _ := args.Get(0).(*models.Invoice)
	return inv, args.Error(1)
}

func (m *MockTposService) MakeATM(ctx context.Context, id string, amount int64, payLink string) (payment.Outcome, error) {
	args := m.Called(ctx, id, amount, payLink)
	return args.Get(0).(payment.Outcome), args.Error(1)
}

func (m *MockTposService) PayWithLNURLw(ctx context.Context, id, paymentRequest, lnurl string) (payment.Outcome, error) {
	args := m.Called(ctx, id, paymentRequest, lnurl)
	return args.Get(0).(payment.Outcome), args.Error(1)
}

func (m *MockTposService) LatestPayments(ctx context.Context, id string) ([]models.PaymentSummary, error) {
	args := m.Called(ctx, id)
	payments, _ := args.Get(0).([]models.PaymentSummary)
	return payments, args.Error(1)
}

func (m *MockTposService) CheckInvoice(ctx context.Context, id, paymentHash string) (*models.PaymentStatus, error) {
	args := m.Called(ctx, id, paymentHash)
	status, _ := args.Get(0).(*models.PaymentStatus)
	return status, args.Error(1)
}

func tposOrNil(v any) *models.Tpos {
	t, _ := v.(*models.Tpos)
	return t
}

type stubKeys struct{}

func (stubKeys) GetByKey(ctx context.Context, key string) (*models.WalletTypeInfo, error) {
	wallet := &models.Wallet{ID: "W1", UserID: "U1"}
	switch key {
	case "invoice-key":
		return &models.WalletTypeInfo{KeyType: models.KeyTypeInvoice, Wallet: wallet}, nil
	case "admin-key":
		return &models.WalletTypeInfo{KeyType: models.KeyTypeAdmin, Wallet: wallet}, nil
	}
	return nil, repositories.ErrNotFound
}

type stubUsers struct{}

func (stubUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, repositories.ErrNotFound
}

type stubRates struct{}

func (stubRates) SatsPerFiat(ctx context.Context, currency string) (decimal.Decimal, error) {
	if currency == "USD" {
		return decimal.NewFromInt(2000), nil
	}
	return decimal.Zero, rates.ErrUnsupportedCurrency
}

type countingStopper struct {
	calls int
}

func (s *countingStopper) StopAll() int {
	s.calls++
	return 2
}

type testApp struct {
	app     *fiber.App
	service *MockTposService
	stopper *countingStopper
}

func newTestApp() *testApp {
	service := new(MockTposService)
	stopper := &countingStopper{}
	authService := auth.NewService(stubUsers{}, jwtSecret, time.Hour)

	app := fiber.New()
	SetupRoutes(app, Dependencies{
		Tpos:           handlers.NewTposHandler(service),
		Admin:          handlers.NewAdminHandler(stopper),
		Auth:           handlers.NewAuthHandler(authService),
		Rates:          handlers.NewRateHandler(stubRates{}),
		Health:         handlers.NewHealthHandler(map[string]handlers.Pinger{"redis": nil}),
		Keys:           stubKeys{},
		AuthMiddleware: middleware.NewAuthMiddleware(authService),
	})
	return &testApp{app: app, service: service, stopper: stopper}
}

func (a *testApp) do(t *testing.T, method, path, apiKey, body string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if apiKey != "" {
		req.Header.Set(middleware.APIKeyHeader, apiKey)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	return resp, decoded
}

func TestTposs_List(t *testing.T) {
	a := newTestApp()
	a.service.On("List", mock.Anything, mock.Anything, true).
		Return([]models.Tpos{{ID: "T1", Wallet: "W1", Name: "Shop"}}, nil)

	resp, _ := a.do(t, http.MethodGet, "/api/v1/tposs?all_wallets=true", "invoice-key", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = a.do(t, http.MethodGet, "/api/v1/tposs", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	a.service.AssertExpectations(t)
}

func TestTposs_Create(t *testing.T) {
	a := newTestApp()
	a.service.On("Create", mock.Anything, mock.Anything, models.CreateTposData{
		Name: "Shop", Currency: "EUR", TipOptions: []int{5}, Atm: true,
	}).Return(&models.Tpos{ID: "T1", Wallet: "W1", Name: "Shop"}, nil)

	resp, body := a.do(t, http.MethodPost, "/api/v1/tposs", "invoice-key",
		`{"name":"Shop","currency":"EUR","tip_options":[5],"atm":true}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "T1", body["id"])

	resp, body = a.do(t, http.MethodPost, "/api/v1/tposs", "invoice-key", `{"name":"","currency":"EUR"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["detail"], "name")
}

func TestTposs_UpdateDelete(t *testing.T) {
	const (
		validBody   = `{"name":"Renamed","currency":"EUR"}`
		invalidBody = `{"name":"","currency":"E1"}`
		brokenBody  = `{"name":`
	)
	invalid := &validation.Error{Fields: map[string]string{"name": "is required"}}

	tests := []struct {
		name       string
		method     string
		key        string
		body       string
		serviceErr error
		wantStatus int
		wantDetail string
	}{
		{name: "update with invoice key", method: http.MethodPut, key: "invoice-key", body: validBody, wantStatus: http.StatusUnauthorized},
		{name: "update not owned", method: http.MethodPut, key: "admin-key", body: validBody, serviceErr: tpos.ErrNotYourTpos, wantStatus: http.StatusForbidden, wantDetail: "Not your TPoS."},
		{name: "update not owned, invalid body", method: http.MethodPut, key: "admin-key", body: invalidBody, serviceErr: tpos.ErrNotYourTpos, wantStatus: http.StatusForbidden, wantDetail: "Not your TPoS."},
		{name: "update not owned, broken json", method: http.MethodPut, key: "admin-key", body: brokenBody, serviceErr: tpos.ErrNotYourTpos, wantStatus: http.StatusForbidden, wantDetail: "Not your TPoS."},
		{name: "update owned, broken json", method: http.MethodPut, key: "admin-key", body: brokenBody, wantStatus: http.StatusBadRequest},
		{name: "update owned, invalid body", method: http.MethodPut, key: "admin-key", body: invalidBody, serviceErr: invalid, wantStatus: http.StatusUnprocessableEntity, wantDetail: invalid.Error()},
		{name: "update missing", method: http.MethodPut, key: "admin-key", body: validBody, serviceErr: tpos.ErrTposNotFound, wantStatus: http.StatusNotFound, wantDetail: "TPoS does not exist."},
		{name: "update", method: http.MethodPut, key: "admin-key", body: validBody, wantStatus: http.StatusOK},
		{name: "delete with invoice key", method: http.MethodDelete, key: "invoice-key", wantStatus: http.StatusUnauthorized},
		{name: "delete not owned", method: http.MethodDelete, key: "admin-key", serviceErr: tpos.ErrNotYourTpos, wantStatus: http.StatusForbidden, wantDetail: "Not your TPoS."},
		{name: "delete", method: http.MethodDelete, key: "admin-key", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp()
			a.service.On("Update", mock.Anything, mock.Anything, "T1", mock.Anything).
				Return(&models.Tpos{ID: "T1"}, tt.serviceErr).Maybe()
			a.service.On("Authorize", mock.Anything, mock.Anything, "T1").Return(tt.serviceErr).Maybe()
			a.service.On("Delete", mock.Anything, mock.Anything, "T1").Return(tt.serviceErr).Maybe()

			resp, decoded := a.do(t, tt.method, "/api/v1/tposs/T1", tt.key, tt.body)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, decoded["detail"])
			}
		})
	}
}

func TestTposs_CreateInvoice(t *testing.T) {
	a := newTestApp()
	a.service.On("CreateInvoice", mock.Anything, "T1", models.SaleRequest{Amount: 100, Memo: "coffee", TipAmount: 10}).
		Return(&models.Invoice{PaymentHash: "h", PaymentRequest: "lnbc"}, nil)
	a.service.On("CreateInvoice", mock.Anything, "T1", models.SaleRequest{}).
		Return(nil, &validation.Error{Fields: map[string]string{"amount": "must be greater than or equal to 1"}})
	a.service.On("CreateInvoice", mock.Anything, "T2", mock.Anything).
		Return(nil, &gateway.Error{StatusCode: 500, Detail: "backend offline"})
	a.service.On("CreateInvoice", mock.Anything, "nope", mock.Anything).
		Return(nil, tpos.ErrTposNotFound)

	resp, body := a.do(t, http.MethodPost, "/api/v1/tposs/T1/invoices?amount=100&memo=coffee&tipAmount=10", "", "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "h", body["payment_hash"])
	assert.Equal(t, "lnbc", body["payment_request"])

	resp, body = a.do(t, http.MethodPost, "/api/v1/tposs/T1/invoices", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "amount: must be greater than or equal to 1", body["detail"])

	resp, body = a.do(t, http.MethodPost, "/api/v1/tposs/T2/invoices?amount=1", "", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "backend offline", body["detail"])

	resp, body = a.do(t, http.MethodPost, "/api/v1/tposs/nope/invoices?amount=1", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "TPoS does not exist.", body["detail"])
}

func TestTposs_MakeATM(t *testing.T) {
	a := newTestApp()
	a.service.On("MakeATM", mock.Anything, "T1", int64(100), "lnurlp://x/pay").
		Return(payment.Failed(payment.DetailATMNotAllowed), nil)

	resp, body := a.do(t, http.MethodPost, "/api/v1/tposs/T1/atm?amount=100&payLink=lnurlp://x/pay", "", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "ATM mode not allowed", body["detail"])
}

func TestTposs_PayInvoice(t *testing.T) {
	a := newTestApp()
	a.service.On("PayWithLNURLw", mock.Anything, "T1", "lnbc1", "LNURL1OK").
		Return(payment.Succeeded(json.RawMessage(`{"status":"OK"}`), ""), nil)
	a.service.On("PayWithLNURLw", mock.Anything, "T1", "lnbc1", "LNURL1BAD").
		Return(payment.Outcome{}, &lnurl.DecodeError{Input: "LNURL1BAD"})

	resp, body := a.do(t, http.MethodPost, "/api/v1/tposs/T1/invoices/lnbc1/pay", "", `{"lnurl":"LNURL1OK"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"status": "OK"}, body["detail"])

	resp, _ = a.do(t, http.MethodPost, "/api/v1/tposs/T1/invoices/lnbc1/pay", "", `{"lnurl":"LNURL1BAD"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = a.do(t, http.MethodPost, "/api/v1/tposs/T1/invoices/lnbc1/pay", "", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestTposs_InvoicesRead(t *testing.T) {
	a := newTestApp()
	a.service.On("CheckInvoice", mock.Anything, "T1", "h").Return(&models.PaymentStatus{Paid: false}, nil)
	a.service.On("LatestPayments", mock.Anything, "T1").
		Return([]models.PaymentSummary{{CheckingID: "a", Amount: 1000, Time: 1, Pending: true}}, nil)

	resp, body := a.do(t, http.MethodGet, "/api/v1/tposs/T1/invoices/h", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"paid": false}, body)

	resp, _ = a.do(t, http.MethodGet, "/api/v1/tposs/T1/invoices", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminStop(t *testing.T) {
	a := newTestApp()
	token, err := utils.GenerateToken(jwtSecret, time.Hour, &models.UserClaims{UserID: "U1", Role: models.RoleAdmin})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, a.stopper.calls)

	resp, _ = a.do(t, http.MethodDelete, "/api/v1", "admin-key", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, a.stopper.calls)
}

func TestRate(t *testing.T) {
	a := newTestApp()

	_, body := a.do(t, http.MethodGet, "/api/v1/rate/USD", "", "")
	assert.Equal(t, float64(2000), body["rate"])

	_, body = a.do(t, http.MethodGet, "/api/v1/rate/XYZ", "", "")
	assert.Contains(t, body, "rate")
	assert.Nil(t, body["rate"])
}

func TestQRCode(t *testing.T) {
	a := newTestApp()

	resp, _ := a.do(t, http.MethodGet, "/api/v1/qrcode/lnbc1test", "", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
}

func TestHealth(t *testing.T) {
	a := newTestApp()

	resp, body := a.do(t, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
