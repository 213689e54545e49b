package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/domain/apperr"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrMissingAccessToken is returned when the gateway is built without credentials
var ErrMissingAccessToken = errors.New("missing mercado pago access token")

// paymentReader is the part of payment.Client the gateway uses
type paymentReader interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// Gateway reads payment status from Mercado Pago. The reference id of a
// payment record is the Mercado Pago payment id.
type Gateway struct {
	client paymentReader
	logger *zap.Logger
}

// NewGateway creates a gateway authenticated with accessToken
func NewGateway(accessToken string, logger *zap.Logger) (*Gateway, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrMissingAccessToken
	}
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create mercado pago config: %w", err)
	}
	logger.Info("Mercado Pago client initialized")
	return &Gateway{client: payment.NewClient(cfg), logger: logger}, nil
}

// SessionStatus fetches the payment and maps it to a gateway session
func (g *Gateway) SessionStatus(ctx context.Context, referenceID string) (*port.GatewaySession, error) {
	id, err := strconv.Atoi(strings.TrimSpace(referenceID))
	if err != nil {
		return nil, apperr.Validation("reference_id", "%q is not a Mercado Pago payment id", referenceID)
	}

	resp, err := g.client.Get(ctx, id)
	if err != nil {
		g.logger.Error("Mercado Pago payment lookup failed",
			zap.String("reference_id", referenceID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get payment %d: %w", id, err)
	}

	session := &port.GatewaySession{
		ReferenceID: referenceID,
		Status:      mapStatus(resp.Status),
		Amount:      decimal.NewFromFloat(resp.TransactionAmount).Round(2),
		Currency:    resp.CurrencyID,
	}
	g.logger.Info("Mercado Pago payment fetched",
		zap.String("reference_id", referenceID),
		zap.String("provider_status", resp.Status),
		zap.String("status", string(session.Status)))
	return session, nil
}

// mapStatus folds Mercado Pago payment statuses onto record statuses
func mapStatus(status string) entity.PaymentStatus {
	switch status {
	case "approved":
		return entity.PaymentPaid
	case "rejected", "cancelled", "refunded", "charged_back":
		return entity.PaymentFailed
	default:
		// pending, authorized, in_process, in_mediation
		return entity.PaymentPending
	}
}
