package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/application/service"
	"github.com/brushline/paintquote/internal/domain/apperr"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/brushline/paintquote/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	quotes   service.QuoteService
	jobs     service.JobService
	payments service.PaymentService
	takeoff  AreaImporter
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, logger Logger) *Handlers {
	return &Handlers{
		quotes:   deps.Quotes,
		jobs:     deps.Jobs,
		payments: deps.Payments,
		takeoff:  deps.Takeoff,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// QuoteResponse is a quote with its pricing scheme in envelope form and the
// triggers its current status accepts
type QuoteResponse struct {
	*entity.Quote
	Scheme  json.RawMessage    `json:"scheme,omitempty"`
	Actions []workflow.Trigger `json:"actions"`
}

// JobResponse is a job with the triggers its current status accepts
type JobResponse struct {
	*entity.Job
	Actions []workflow.Trigger `json:"actions"`
}

// AcceptResponse carries the accepted quote and the job created from it
type AcceptResponse struct {
	Quote QuoteResponse `json:"quote"`
	Job   JobResponse   `json:"job"`
}

// CreateQuoteRequest is the body of POST /api/v1/quotes
type CreateQuoteRequest struct {
	CustomerName    string                    `json:"customer_name"`
	CustomerEmail   string                    `json:"customer_email"`
	PropertyAddress string                    `json:"property_address"`
	ZipCode         string                    `json:"zip_code"`
	Scheme          json.RawMessage           `json:"scheme"`
	Strategy        entity.ProductStrategy    `json:"product_strategy"`
	Rates           entity.Rates              `json:"rates"`
	Areas           []entity.Area             `json:"areas"`
	Selections      []entity.ProductSelection `json:"selections"`
	// ReportedTotals are the tier totals the client displayed
	ReportedTotals map[entity.Tier]decimal.Decimal `json:"reported_totals,omitempty"`
}

// DraftRequest is the body of PATCH /api/v1/quotes/:id and revisions.
// Omitted fields are left unchanged.
type DraftRequest struct {
	Scheme     json.RawMessage           `json:"scheme,omitempty"`
	Strategy   entity.ProductStrategy    `json:"product_strategy,omitempty"`
	Rates      *entity.Rates             `json:"rates,omitempty"`
	Areas      []entity.Area             `json:"areas,omitempty"`
	Selections []entity.ProductSelection `json:"selections,omitempty"`

	ReportedTotals map[entity.Tier]decimal.Decimal `json:"reported_totals,omitempty"`
}

// ListQuotesRequest represents query parameters for listing quotes
type ListQuotesRequest struct {
	Status          string `form:"status"`
	IncludeInactive bool   `form:"include_inactive"`
	Limit           int    `form:"limit"`
	Offset          int    `form:"offset"`
}

type acceptRequest struct {
	Tier entity.Tier `json:"tier"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type referenceRequest struct {
	ReferenceID string `json:"reference_id"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ImportTakeoff handles POST /api/v1/takeoff with a multipart "file" workbook
func (h *Handlers) ImportTakeoff(c *gin.Context) {
	if h.takeoff == nil {
		c.JSON(http.StatusNotImplemented, Response{Success: false, Error: "takeoff import is not configured"})
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "missing takeoff file")
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, "unreadable takeoff file")
		return
	}
	defer file.Close()

	areas, err := h.takeoff.Import(file)
	if err != nil {
		writeError(c, h.logger, "takeoff import", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"areas": areas}})
}

// CreateQuote handles POST /api/v1/quotes
func (h *Handlers) CreateQuote(c *gin.Context) {
	var req CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	scheme, err := decodeScheme(req.Scheme)
	if err != nil {
		writeError(c, h.logger, "create quote", err)
		return
	}

	quote, err := h.quotes.CreateQuote(c.Request.Context(), service.CreateQuoteInput{
		TenantID:        tenantOf(c),
		ActorID:         actorOf(c),
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		PropertyAddress: req.PropertyAddress,
		ZipCode:         req.ZipCode,
		Scheme:          scheme,
		Strategy:        req.Strategy,
		Rates:           req.Rates,
		Areas:           req.Areas,
		Selections:      req.Selections,
		ReportedTotals:  req.ReportedTotals,
	})
	if err != nil {
		writeError(c, h.logger, "create quote", err)
		return
	}
	h.respondQuote(c, http.StatusCreated, quote)
}

// ListQuotes handles GET /api/v1/quotes
func (h *Handlers) ListQuotes(c *gin.Context) {
	var req ListQuotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}
	req.Limit, req.Offset = page(req.Limit, req.Offset)

	quotes, err := h.quotes.ListQuotes(c.Request.Context(), tenantOf(c), port.QuoteFilter{
		Status:          entity.QuoteStatus(req.Status),
		IncludeInactive: req.IncludeInactive,
		Limit:           req.Limit,
		Offset:          req.Offset,
	})
	if err != nil {
		writeError(c, h.logger, "list quotes", err)
		return
	}

	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, toQuoteResponse(q))
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// GetQuote handles GET /api/v1/quotes/:id
func (h *Handlers) GetQuote(c *gin.Context) {
	quote, err := h.quotes.GetQuote(c.Request.Context(), tenantOf(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "get quote", err)
		return
	}
	h.respondQuote(c, http.StatusOK, quote)
}

// GetQuoteByNumber handles GET /api/v1/quotes/by-number/:number
func (h *Handlers) GetQuoteByNumber(c *gin.Context) {
	quote, err := h.quotes.GetQuoteByNumber(c.Request.Context(), tenantOf(c), c.Param("number"))
	if err != nil {
		writeError(c, h.logger, "get quote by number", err)
		return
	}
	h.respondQuote(c, http.StatusOK, quote)
}

// UpdateDraft handles PATCH /api/v1/quotes/:id
func (h *Handlers) UpdateDraft(c *gin.Context) {
	changes, ok := h.bindDraft(c, "update quote")
	if !ok {
		return
	}
	quote, err := h.quotes.UpdateDraft(c.Request.Context(), tenantOf(c), c.Param("id"), actorOf(c), changes)
	if err != nil {
		writeError(c, h.logger, "update quote", err)
		return
	}
	h.respondQuote(c, http.StatusOK, quote)
}

// ReviseQuote handles POST /api/v1/quotes/:id/revise
func (h *Handlers) ReviseQuote(c *gin.Context) {
	changes, ok := h.bindDraft(c, "revise quote")
	if !ok {
		return
	}
	quote, err := h.quotes.ReviseQuote(c.Request.Context(), tenantOf(c), c.Param("id"), actorOf(c), changes)
	if err != nil {
		writeError(c, h.logger, "revise quote", err)
		return
	}
	h.respondQuote(c, http.StatusOK, quote)
}

// SendQuote handles POST /api/v1/quotes/:id/send
func (h *Handlers) SendQuote(c *gin.Context) {
	quote, err := h.quotes.SendQuote(c.Request.Context(), tenantOf(c), c.Param("id"), actorOf(c))
	if err != nil {
		writeError(c, h.logger, "send quote", err)
		return
	}
	h.respondQuote(c, http.StatusOK, quote)
}

// RecordView handles POST /api/v1/quotes/:id/view
func (h *Handlers) RecordView(c *gin.Context) {
	quote, err := h.quotes.RecordCustomerView(c.Request.Context(), tenantOf(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "record view", err)
		return
	}
	h.respondQuote(c, http.StatusOK, quote)
}

// AcceptQuote handles POST /api/v1/quotes/:id/accept
func (h *Handlers) AcceptQuote(c *gin.Context) {
	var req acceptRequest
	if !bindOptional(c, &req) {
		return
	}
	quote, job, err := h.quotes.AcceptQuote(c.Request.Context(), tenantOf(c), c.Param("id"), req.Tier, actorOf(c))
	if err != nil {
		writeError(c, h.logger, "accept quote", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: AcceptResponse{Quote: toQuoteResponse(quote), Job: toJobResponse(job)}})
}

// DeclineQuote handles POST /api/v1/quotes/:id/decline
func (h *Handlers) DeclineQuote(c *gin.Context) {
	var req reasonRequest
	if !bindOptional(c, &req) {
		return
	}
	quote, err := h.quotes.DeclineQuote(c.Request.Context(), tenantOf(c), c.Param("id"), actorOf(c), req.Reason)
	if err != nil {
		writeError(c, h.logger, "decline quote", err)
		return
	}
	h.respondQuote(c, http.StatusOK, quote)
}

// ArchiveQuote handles POST /api/v1/quotes/:id/archive
func (h *Handlers) ArchiveQuote(c *gin.Context) {
	quote, err := h.quotes.ArchiveQuote(c.Request.Context(), tenantOf(c), c.Param("id"), actorOf(c))
	if err != nil {
		writeError(c, h.logger, "archive quote", err)
		return
	}
	h.respondQuote(c, http.StatusOK, quote)
}

// DeactivateQuote handles POST /api/v1/quotes/:id/deactivate
func (h *Handlers) DeactivateQuote(c *gin.Context) {
	quote, err := h.quotes.DeactivateQuote(c.Request.Context(), tenantOf(c), c.Param("id"), actorOf(c))
	if err != nil {
		writeError(c, h.logger, "deactivate quote", err)
		return
	}
	h.respondQuote(c, http.StatusOK, quote)
}

// OpenDeposit handles POST /api/v1/quotes/:id/deposit
func (h *Handlers) OpenDeposit(c *gin.Context) {
	var req referenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	record, err := h.payments.OpenDepositPayment(c.Request.Context(), tenantOf(c), c.Param("id"), req.ReferenceID, actorOf(c))
	if err != nil {
		writeError(c, h.logger, "open deposit payment", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: record})
}

// QuoteAudit handles GET /api/v1/quotes/:id/audit
func (h *Handlers) QuoteAudit(c *gin.Context) {
	h.auditTrail(c, entity.EntityQuote)
}

func (h *Handlers) auditTrail(c *gin.Context, entityType entity.EntityType) {
	trail, err := h.jobs.AuditTrail(c.Request.Context(), tenantOf(c), entityType, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "audit trail", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: trail})
}

func (h *Handlers) bindDraft(c *gin.Context, op string) (service.DraftChanges, bool) {
	var req DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return service.DraftChanges{}, false
	}
	changes := service.DraftChanges{
		Strategy:   req.Strategy,
		Rates:      req.Rates,
		Areas:      req.Areas,
		Selections: req.Selections,

		ReportedTotals: req.ReportedTotals,
	}
	if len(req.Scheme) > 0 {
		scheme, err := decodeScheme(req.Scheme)
		if err != nil {
			writeError(c, h.logger, op, err)
			return service.DraftChanges{}, false
		}
		changes.Scheme = scheme
	}
	return changes, true
}

func (h *Handlers) respondQuote(c *gin.Context, status int, quote *entity.Quote) {
	c.JSON(status, Response{Success: true, Data: toQuoteResponse(quote)})
}

func toQuoteResponse(q *entity.Quote) QuoteResponse {
	resp := QuoteResponse{Quote: q, Actions: []workflow.Trigger{}}
	if q == nil {
		return resp
	}
	if q.Scheme != nil {
		if raw, err := entity.EncodeScheme(q.Scheme); err == nil {
			resp.Scheme = raw
		}
	}
	resp.Actions = workflow.QuoteTransitions.PermittedTriggers(q.Status)
	return resp
}

func toJobResponse(j *entity.Job) JobResponse {
	resp := JobResponse{Job: j, Actions: []workflow.Trigger{}}
	if j != nil {
		resp.Actions = workflow.JobTransitions.PermittedTriggers(j.Status)
	}
	return resp
}

func decodeScheme(raw json.RawMessage) (entity.PricingScheme, error) {
	if len(raw) == 0 {
		return nil, apperr.Validation("scheme", "pricing scheme is required")
	}
	scheme, err := entity.DecodeScheme(raw)
	if err != nil {
		return nil, apperr.Validation("scheme", "%v", err)
	}
	return scheme, nil
}

// bindOptional binds a JSON body when one is present
func bindOptional(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body")
		return false
	}
	return true
}

func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
