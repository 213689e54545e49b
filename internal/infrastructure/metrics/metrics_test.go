package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_Counts(t *testing.T) {
	c := NewCollector("paintquote", zap.NewNop())

	c.Transition("quote", "draft", "sent")
	c.Transition("quote", "draft", "sent")
	c.Transition("job", "", "accepted")
	c.ReconcileOutcome(entity.PaymentDeposit, "applied")
	c.ReconcileOutcome(entity.PaymentDeposit, "duplicate")
	c.ReconcileOutcome(entity.PaymentDeposit, "duplicate")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.transitions.WithLabelValues("quote", "draft", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("job", "none", "accepted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.outcomes.WithLabelValues("deposit", "duplicate")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("paintquote", zap.NewNop())
	c.ReconcileOutcome(entity.PaymentFinal, "amount_mismatch")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(),
		`paintquote_payment_reconciliations_total{kind="final",outcome="amount_mismatch"} 1`)
}
