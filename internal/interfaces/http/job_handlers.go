package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/brushline/paintquote/internal/application/service"
	"github.com/brushline/paintquote/internal/domain/entity"
)

// ListJobsRequest represents query parameters for listing jobs
type ListJobsRequest struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// ScheduleRequest is the body of schedule and reschedule calls
type ScheduleRequest struct {
	Start  time.Time  `json:"start"`
	End    *time.Time `json:"end,omitempty"`
	Crew   []string   `json:"crew"`
	Reason string     `json:"reason,omitempty"`
}

// ProgressRequest is the body of POST /api/v1/jobs/:id/progress
type ProgressRequest struct {
	AreaID string                    `json:"area_id"`
	Status entity.AreaProgressStatus `json:"status"`
}

// SelectionsRequest is the body of POST /api/v1/jobs/:id/selections
type SelectionsRequest struct {
	Selections []entity.CustomerSelection `json:"selections"`
}

// CompleteRequest is the body of POST /api/v1/jobs/:id/complete
type CompleteRequest struct {
	Notes              string           `json:"notes"`
	FinalInvoiceAmount *decimal.Decimal `json:"final_invoice_amount,omitempty"`
}

// ListJobs handles GET /api/v1/jobs
func (h *Handlers) ListJobs(c *gin.Context) {
	var req ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}
	req.Limit, req.Offset = page(req.Limit, req.Offset)

	jobs, err := h.jobs.ListJobs(c.Request.Context(), tenantOf(c), entity.JobStatus(req.Status), req.Limit, req.Offset)
	if err != nil {
		writeError(c, h.logger, "list jobs", err)
		return
	}
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: out})
}

// GetJob handles GET /api/v1/jobs/:id
func (h *Handlers) GetJob(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Request.Context(), tenantOf(c), c.Param("id"))
	h.respondJob(c, "get job", job, err)
}

// ScheduleJob handles POST /api/v1/jobs/:id/schedule
func (h *Handlers) ScheduleJob(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	job, err := h.jobs.ScheduleJob(c.Request.Context(), tenantOf(c), c.Param("id"), actorOf(c), req.Start, req.End, req.Crew)
	h.respondJob(c, "schedule job", job, err)
}

// RescheduleJob handles POST /api/v1/jobs/:id/reschedule
func (h *Handlers) RescheduleJob(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	job, err := h.jobs.RescheduleJob(c.Request.Context(), tenantOf(c), c.Param("id"), actorOf(c), req.Start, req.End, req.Crew, req.Reason)
	h.respondJob(c, "reschedule job", job, err)
}

// StartJob handles POST /api/v1/jobs/:id/start
func (h *Handlers) StartJob(c *gin.Context) {
	job, err := h.jobs.StartJob(c.Request.Context(), tenantOf(c), c.Param("id"), actorOf(c))
	h.respondJob(c, "start job", job, err)
}

// UpdateAreaProgress handles POST /api/v1/jobs/:id/progress
func (h *Handlers) UpdateAreaProgress(c *gin.Context) {
	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	job, err := h.jobs.UpdateAreaProgress(c.Request.Context(), tenantOf(c), c.Param("id"), actorOf(c), req.AreaID, req.Status)
	h.respondJob(c, "update area progress", job, err)
}

// SubmitSelections handles POST /api/v1/jobs/:id/selections
func (h *Handlers) SubmitSelections(c *gin.Context) {
	var req SelectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	job, err := h.jobs.SubmitCustomerSelections(c.Request.Context(), tenantOf(c), c.Param("id"), req.Selections)
	h.respondJob(c, "submit selections", job, err)
}

// CompleteJob handles POST /api/v1/jobs/:id/complete
func (h *Handlers) CompleteJob(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	job, err := h.jobs.CompleteJob(c.Request.Context(), tenantOf(c), c.Param("id"), actorOf(c), service.CompleteJobInput{
		Notes:              req.Notes,
		FinalInvoiceAmount: req.FinalInvoiceAmount,
	})
	h.respondJob(c, "complete job", job, err)
}

// HoldJob handles POST /api/v1/jobs/:id/hold
func (h *Handlers) HoldJob(c *gin.Context) {
	var req reasonRequest
	if !bindOptional(c, &req) {
		return
	}
	job, err := h.jobs.HoldJob(c.Request.Context(), tenantOf(c), c.Param("id"), actorOf(c), req.Reason)
	h.respondJob(c, "hold job", job, err)
}

// PauseJob handles POST /api/v1/jobs/:id/pause
func (h *Handlers) PauseJob(c *gin.Context) {
	var req reasonRequest
	if !bindOptional(c, &req) {
		return
	}
	job, err := h.jobs.PauseJob(c.Request.Context(), tenantOf(c), c.Param("id"), actorOf(c), req.Reason)
	h.respondJob(c, "pause job", job, err)
}

// ResumeJob handles POST /api/v1/jobs/:id/resume
func (h *Handlers) ResumeJob(c *gin.Context) {
	job, err := h.jobs.ResumeJob(c.Request.Context(), tenantOf(c), c.Param("id"), actorOf(c))
	h.respondJob(c, "resume job", job, err)
}

// CancelJob handles POST /api/v1/jobs/:id/cancel
func (h *Handlers) CancelJob(c *gin.Context) {
	var req reasonRequest
	if !bindOptional(c, &req) {
		return
	}
	job, err := h.jobs.CancelJob(c.Request.Context(), tenantOf(c), c.Param("id"), actorOf(c), req.Reason)
	h.respondJob(c, "cancel job", job, err)
}

// OpenFinalPayment handles POST /api/v1/jobs/:id/final-payment
func (h *Handlers) OpenFinalPayment(c *gin.Context) {
	var req referenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	record, err := h.payments.OpenFinalPayment(c.Request.Context(), tenantOf(c), c.Param("id"), req.ReferenceID, actorOf(c))
	if err != nil {
		writeError(c, h.logger, "open final payment", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: record})
}

// ListPayments handles GET /api/v1/jobs/:id/payments
func (h *Handlers) ListPayments(c *gin.Context) {
	records, err := h.payments.ListPayments(c.Request.Context(), tenantOf(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "list payments", err)
		return
	}
	if records == nil {
		records = []*entity.PaymentRecord{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// JobAudit handles GET /api/v1/jobs/:id/audit
func (h *Handlers) JobAudit(c *gin.Context) {
	h.auditTrail(c, entity.EntityJob)
}

func (h *Handlers) respondJob(c *gin.Context, op string, job *entity.Job, err error) {
	if err != nil {
		writeError(c, h.logger, op, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: toJobResponse(job)})
}
