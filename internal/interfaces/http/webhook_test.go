package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/application/service"
	"github.com/brushline/paintquote/internal/domain/apperr"
	"github.com/brushline/paintquote/internal/domain/entity"
)

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaymentEvent(t *testing.T) {
	const secret = "whsec"
	succeeded := `{"type":"payment.succeeded","reference_id":"pay-dep-1","amount":"1500.00","currency":"USD"}`
	failed := `{"type":"payment.failed","reference_id":"pay-dep-1","reason":"card declined"}`

	tests := []struct {
		name        string
		body        string
		signature   string
		status      int
		wantOutcome string
	}{
		{"succeeded", succeeded, sign(secret, succeeded), http.StatusOK, service.OutcomeApplied},
		{"failed", failed, sign(secret, failed), http.StatusOK, service.OutcomePaymentFailed},
		{"bad signature", succeeded, sign("other", succeeded), http.StatusUnauthorized, ""},
		{"missing signature", succeeded, "", http.StatusUnauthorized, ""},
		{"unknown type", `{"type":"payment.refunded"}`, sign(secret, `{"type":"payment.refunded"}`), http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(secret)
			var reconciled *service.PaymentSucceeded
			ts.payments.reconcileFunc = func(ctx context.Context, evt service.PaymentSucceeded) (*service.ReconcileResult, error) {
				reconciled = &evt
				return &service.ReconcileResult{Outcome: service.OutcomeApplied}, nil
			}
			ts.payments.failedFunc = func(ctx context.Context, notice service.PaymentFailedNotice) (*service.ReconcileResult, error) {
				assert.Equal(t, "card declined", notice.Reason)
				return &service.ReconcileResult{Outcome: service.OutcomePaymentFailed}, nil
			}

			rec := ts.do(http.MethodPost, "/webhooks/payments", tt.body, map[string]string{headerSignature: tt.signature})
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.wantOutcome == "" {
				return
			}
			data := decodeResponse(t, rec)["data"].(map[string]interface{})
			assert.Equal(t, tt.wantOutcome, data["outcome"])
			if tt.wantOutcome == service.OutcomeApplied {
				require.NotNil(t, reconciled)
				assert.Equal(t, "1500.00", reconciled.Amount.StringFixed(2))
			}
		})
	}
}

func TestPaymentEvent_AmountMismatch(t *testing.T) {
	const secret = "whsec"
	body := `{"type":"payment.succeeded","reference_id":"pay-dep-1","amount":"10","currency":"USD"}`
	ts := newTestServer(secret)
	ts.payments.reconcileFunc = func(ctx context.Context, evt service.PaymentSucceeded) (*service.ReconcileResult, error) {
		return nil, &apperr.AmountMismatchError{ReferenceID: evt.ReferenceID}
	}
	rec := ts.do(http.MethodPost, "/webhooks/payments", body, map[string]string{headerSignature: sign(secret, body)})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPaymentEvent_RefusedWithoutSecret(t *testing.T) {
	ts := newTestServer("")
	ts.payments.reconcileFunc = func(ctx context.Context, evt service.PaymentSucceeded) (*service.ReconcileResult, error) {
		t.Fatal("unsigned event must not reach reconciliation")
		return nil, nil
	}
	rec := ts.do(http.MethodPost, "/webhooks/payments",
		`{"type":"payment.succeeded","reference_id":"pay-dep-1","amount":"1500.00","currency":"USD"}`, nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestMercadoPagoWebhook(t *testing.T) {
	const secret = "mp-secret"
	body := `{"action":"payment.updated","type":"payment","data":{"id":"123456"}}`
	validSig := "ts=1704908010,v1=" + sign(secret, "id:123456;request-id:req-1;ts:1704908010;")

	tests := []struct {
		name        string
		status      entity.PaymentStatus
		signature   string
		wantCode    int
		wantOutcome string
	}{
		{"paid reconciles", entity.PaymentPaid, validSig, http.StatusOK, service.OutcomeApplied},
		{"failed records failure", entity.PaymentFailed, validSig, http.StatusOK, service.OutcomePaymentFailed},
		{"pending ignored", entity.PaymentPending, validSig, http.StatusOK, "pending"},
		{"tampered signature", entity.PaymentPaid, "ts=1704908010,v1=" + sign(secret, "id:999;request-id:req-1;ts:1704908010;"), http.StatusUnauthorized, ""},
		{"malformed signature", entity.PaymentPaid, "v1only", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(secret)
			ts.gateway.sessionFunc = func(ctx context.Context, referenceID string) (*port.GatewaySession, error) {
				assert.Equal(t, "123456", referenceID)
				return &port.GatewaySession{
					ReferenceID: referenceID,
					Status:      tt.status,
					Amount:      decimal.RequireFromString("1500"),
					Currency:    "USD",
				}, nil
			}
			var reconciled service.PaymentSucceeded
			ts.payments.reconcileFunc = func(ctx context.Context, evt service.PaymentSucceeded) (*service.ReconcileResult, error) {
				reconciled = evt
				return &service.ReconcileResult{Outcome: service.OutcomeApplied}, nil
			}
			ts.payments.failedFunc = func(ctx context.Context, notice service.PaymentFailedNotice) (*service.ReconcileResult, error) {
				return &service.ReconcileResult{Outcome: service.OutcomePaymentFailed}, nil
			}

			rec := ts.do(http.MethodPost, "/webhooks/mercadopago?data.id=123456&type=payment", body, map[string]string{
				headerSignature: tt.signature,
				headerRequestID: "req-1",
			})
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantOutcome == "" {
				return
			}
			data := decodeResponse(t, rec)["data"].(map[string]interface{})
			assert.Equal(t, tt.wantOutcome, data["outcome"])
			if tt.wantOutcome == service.OutcomeApplied {
				assert.Equal(t, "123456", reconciled.ReferenceID)
				assert.Equal(t, "mercadopago", reconciled.Metadata["gateway"])
			}
		})
	}
}

func TestMercadoPagoWebhook_IgnoresOtherTopics(t *testing.T) {
	ts := newTestServer("")
	ts.gateway.sessionFunc = func(ctx context.Context, referenceID string) (*port.GatewaySession, error) {
		t.Fatal("gateway should not be queried")
		return nil, nil
	}
	rec := ts.do(http.MethodPost, "/webhooks/mercadopago", `{"type":"merchant_order","data":{"id":"1"}}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ignored")
}
