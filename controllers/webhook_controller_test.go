package controllers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"webhook-service/controllers"
	"webhook-service/middleware"
	"webhook-service/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// ---- concrete mock implementing services.PaymentWebhookService ----

type mockWebhookSvc struct {
	gotToken string
	gotBody  []byte

	id        string
	err       *services.ServiceError
	status    string
	statusErr *services.ServiceError
}

func (m *mockWebhookSvc) HandleWebhook(ctx context.Context, token string, body []byte) (string, *services.ServiceError) {
	m.gotToken = token
	m.gotBody = body
	return m.id, m.err
}

func (m *mockWebhookSvc) PaymentStatus(ctx context.Context, transactionID string) (string, *services.ServiceError) {
	return m.status, m.statusErr
}

func setupRouter(svc services.PaymentWebhookService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	c := controllers.NewWebhookController(svc, zap.NewNop())
	r.POST("/webhook", c.HandleWebhook)
	r.GET("/payments/:transaction_id", c.GetPaymentStatus)
	return r
}

func postWebhook(r *gin.Engine, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.WebhookTokenHeader, token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleWebhook_Success(t *testing.T) {
	svc := &mockWebhookSvc{id: "tx-1"}
	r := setupRouter(svc)

	body := `{"transaction_id":"tx-1","amount":"49.90","currency":"BRL","event":"payment_success","timestamp":"2023-10-01T12:00:00Z"}`
	w := postWebhook(r, "secret", body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"tx-1"`, w.Body.String())
	assert.Equal(t, "secret", svc.gotToken)
	assert.Equal(t, body, string(svc.gotBody))
}

func TestHandleWebhook_CancelledCarriesStatus(t *testing.T) {
	svc := &mockWebhookSvc{err: &services.ServiceError{
		StatusCode: http.StatusBadRequest,
		Message:    services.MsgPaymentMismatch,
		Status:     "cancelled",
	}}
	r := setupRouter(svc)

	w := postWebhook(r, "secret", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"payment data mismatch","status":"cancelled"}`, w.Body.String())
}

func TestHandleWebhook_ErrorWithoutStatus(t *testing.T) {
	svc := &mockWebhookSvc{err: &services.ServiceError{
		StatusCode: http.StatusBadRequest,
		Message:    services.MsgUnauthorized,
	}}
	r := setupRouter(svc)

	w := postWebhook(r, "", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
	assert.Equal(t, "", svc.gotToken)
}

func TestHandleWebhook_OversizedBodyPassedAsEmpty(t *testing.T) {
	svc := &mockWebhookSvc{err: &services.ServiceError{
		StatusCode: http.StatusBadRequest,
		Message:    services.MsgInvalidPayload,
	}}
	r := setupRouter(svc)

	big := bytes.Repeat([]byte("a"), 128<<10)
	w := postWebhook(r, "secret", string(big))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.gotBody)
}

func TestGetPaymentStatus(t *testing.T) {
	svc := &mockWebhookSvc{status: "confirmed"}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments/tx-1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"transaction_id":"tx-1","status":"confirmed"}`, w.Body.String())
}

func TestGetPaymentStatus_NotFound(t *testing.T) {
	svc := &mockWebhookSvc{statusErr: &services.ServiceError{StatusCode: http.StatusNotFound, Message: services.MsgNotFound}}
	r := setupRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payments/tx-404", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"payment not found"}`, w.Body.String())
}
