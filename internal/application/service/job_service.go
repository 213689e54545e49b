package service

import (
	"context"
	"strings"
	"time"

	"github.com/brushline/paintquote/internal/domain/apperr"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/brushline/paintquote/internal/domain/event"
	"github.com/brushline/paintquote/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

// CompleteJobInput carries the data recorded when crews finish
type CompleteJobInput struct {
	Notes string
	// FinalInvoiceAmount replaces the job total, e.g. after change orders.
	FinalInvoiceAmount *decimal.Decimal
}

// JobService manages jobs after quote acceptance
type JobService interface {
	GetJob(ctx context.Context, tenantID, jobID string) (*entity.Job, error)
	ListJobs(ctx context.Context, tenantID string, status entity.JobStatus, limit, offset int) ([]*entity.Job, error)
	ScheduleJob(ctx context.Context, tenantID, jobID, actorID string, start time.Time, end *time.Time, crew []string) (*entity.Job, error)
	// RescheduleJob keeps the assigned crew when crew is empty.
	RescheduleJob(ctx context.Context, tenantID, jobID, actorID string, start time.Time, end *time.Time, crew []string, reason string) (*entity.Job, error)
	StartJob(ctx context.Context, tenantID, jobID, actorID string) (*entity.Job, error)
	UpdateAreaProgress(ctx context.Context, tenantID, jobID, actorID, areaID string, status entity.AreaProgressStatus) (*entity.Job, error)
	SubmitCustomerSelections(ctx context.Context, tenantID, jobID string, selections []entity.CustomerSelection) (*entity.Job, error)
	CompleteJob(ctx context.Context, tenantID, jobID, actorID string, in CompleteJobInput) (*entity.Job, error)
	HoldJob(ctx context.Context, tenantID, jobID, actorID, reason string) (*entity.Job, error)
	PauseJob(ctx context.Context, tenantID, jobID, actorID, reason string) (*entity.Job, error)
	ResumeJob(ctx context.Context, tenantID, jobID, actorID string) (*entity.Job, error)
	CancelJob(ctx context.Context, tenantID, jobID, actorID, reason string) (*entity.Job, error)
	AuditTrail(ctx context.Context, tenantID string, entityType entity.EntityType, entityID string) ([]*entity.AuditLogEntry, error)
}

type jobServiceImpl struct {
	Deps
}

// NewJobService creates a new JobService
func NewJobService(deps Deps) JobService {
	return &jobServiceImpl{Deps: deps.withDefaults()}
}

// GetJob retrieves a job
func (s *jobServiceImpl) GetJob(ctx context.Context, tenantID, jobID string) (*entity.Job, error) {
	return s.Jobs.GetByID(ctx, tenantID, jobID)
}

// ListJobs lists a tenant's jobs
func (s *jobServiceImpl) ListJobs(ctx context.Context, tenantID string, status entity.JobStatus, limit, offset int) ([]*entity.Job, error) {
	return s.Jobs.List(ctx, tenantID, status, limit, offset)
}

// mutation is one job change applied inside a transaction. It returns the audit
// change to record; a nil change means the mutation was a no-op.
type mutation func(ctx context.Context, job *entity.Job) (*Change, error)

// mutate loads the job, applies fn, writes it with a version check and records the audit entry
func (s *jobServiceImpl) mutate(ctx context.Context, tenantID, jobID string, fn mutation) (*entity.Job, entity.JobStatus, error) {
	var (
		job  *entity.Job
		from entity.JobStatus
	)
	err := s.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		job, err = s.Jobs.GetByID(txCtx, tenantID, jobID)
		if err != nil {
			return err
		}
		from = job.Status

		change, err := fn(txCtx, job)
		if err != nil || change == nil {
			return err
		}

		job.UpdatedAt = s.Now()
		if err := s.Jobs.Update(txCtx, job); err != nil {
			return err
		}

		change.TenantID = tenantID
		change.EntityType = entity.EntityJob
		change.EntityID = job.ID
		if change.From == "" {
			change.From = string(from)
		}
		if change.To == "" {
			change.To = string(job.Status)
		}
		return s.Audit.Record(txCtx, *change)
	})
	if err != nil {
		s.Logger.Error("Job update failed", "error", err, "job_id", jobID)
		return nil, "", err
	}

	s.transitioned(entity.EntityJob, string(from), string(job.Status))
	return job, from, nil
}

func fireJob(job *entity.Job, trigger workflow.Trigger) error {
	next, err := workflow.JobTransitions.Fire(job.Status, trigger)
	if err != nil {
		return err
	}
	job.Status = next
	return nil
}

func validateWindow(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return apperr.Validation("scheduled_start_date", "is required")
	}
	if end != nil && end.Before(start) {
		return apperr.Validation("scheduled_end_date", "must not be before the start date")
	}
	return nil
}

// ScheduleJob books the crew for a job whose deposit is verified
func (s *jobServiceImpl) ScheduleJob(ctx context.Context, tenantID, jobID, actorID string, start time.Time, end *time.Time, crew []string) (*entity.Job, error) {
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}
	crew = cleanCrew(crew)
	if len(crew) == 0 {
		return nil, apperr.Validation("crew", "at least one crew member is required")
	}

	job, _, err := s.mutate(ctx, tenantID, jobID, func(ctx context.Context, job *entity.Job) (*Change, error) {
		if err := fireJob(job, workflow.TriggerSchedule); err != nil {
			return nil, err
		}
		job.ScheduledStartDate = timeRef(start.UTC())
		job.ScheduledEndDate = utcRef(end)
		job.Crew = crew
		return &Change{Action: entity.ActionJobScheduled, ActorID: actorID, Data: scheduleData(job)}, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.NewEvent(event.TypeJobScheduled, tenantID, job.ID, map[string]interface{}{
		"quote_number": job.QuoteNumber,
		"start_date":   job.ScheduledStartDate.Format(time.RFC3339),
		"crew":         strings.Join(job.Crew, ","),
	}))
	s.Logger.Info("Job scheduled", "job_id", job.ID, "start", job.ScheduledStartDate, "crew_size", len(job.Crew))
	return job, nil
}

// RescheduleJob moves the dates of a scheduled or running job. The reason is audited.
func (s *jobServiceImpl) RescheduleJob(ctx context.Context, tenantID, jobID, actorID string, start time.Time, end *time.Time, crew []string, reason string) (*entity.Job, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.Validation("reason", "is required to reschedule")
	}
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}

	job, _, err := s.mutate(ctx, tenantID, jobID, func(ctx context.Context, job *entity.Job) (*Change, error) {
		if err := fireJob(job, workflow.TriggerReschedule); err != nil {
			return nil, err
		}
		job.ScheduledStartDate = timeRef(start.UTC())
		job.ScheduledEndDate = utcRef(end)
		if crew := cleanCrew(crew); len(crew) > 0 {
			job.Crew = crew
		}
		return &Change{Action: entity.ActionJobRescheduled, ActorID: actorID, Reason: reason, Data: scheduleData(job)}, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.NewEvent(event.TypeJobScheduled, tenantID, job.ID, map[string]interface{}{
		"quote_number": job.QuoteNumber,
		"start_date":   job.ScheduledStartDate.Format(time.RFC3339),
		"crew":         strings.Join(job.Crew, ","),
		"rescheduled":  true,
	}))
	return job, nil
}

// StartJob marks crews on site
func (s *jobServiceImpl) StartJob(ctx context.Context, tenantID, jobID, actorID string) (*entity.Job, error) {
	job, _, err := s.mutate(ctx, tenantID, jobID, func(ctx context.Context, job *entity.Job) (*Change, error) {
		if err := fireJob(job, workflow.TriggerStart); err != nil {
			return nil, err
		}
		job.StartedAt = timeRef(s.Now())
		return &Change{Action: entity.ActionJobStarted, ActorID: actorID}, nil
	})
	return job, err
}

// UpdateAreaProgress sets the progress of one area while the job is scheduled or running
func (s *jobServiceImpl) UpdateAreaProgress(ctx context.Context, tenantID, jobID, actorID, areaID string, status entity.AreaProgressStatus) (*entity.Job, error) {
	if !status.IsValid() {
		return nil, apperr.Validation("status", "unknown area progress %q", status)
	}

	job, _, err := s.mutate(ctx, tenantID, jobID, func(ctx context.Context, job *entity.Job) (*Change, error) {
		if !job.AcceptsProgress() {
			return nil, &apperr.InvalidJobStateError{JobID: job.ID, Status: string(job.Status), Operation: "update area progress"}
		}
		previous, ok := job.AreaProgress[areaID]
		if !ok {
			return nil, apperr.Validation("area_id", "job has no area %q", areaID)
		}
		if previous == status {
			return nil, nil
		}
		job.AreaProgress[areaID] = status
		return &Change{
			Action:  entity.ActionAreaProgressUpdated,
			ActorID: actorID,
			Data:    map[string]string{"area_id": areaID, "from": string(previous), "to": string(status)},
		}, nil
	})
	return job, err
}

// SubmitCustomerSelections stores the homeowner's color and product choices
func (s *jobServiceImpl) SubmitCustomerSelections(ctx context.Context, tenantID, jobID string, selections []entity.CustomerSelection) (*entity.Job, error) {
	if len(selections) == 0 {
		return nil, apperr.Validation("selections", "at least one selection is required")
	}

	job, _, err := s.mutate(ctx, tenantID, jobID, func(ctx context.Context, job *entity.Job) (*Change, error) {
		if !job.AcceptsSelections() {
			return nil, &apperr.InvalidJobStateError{JobID: job.ID, Status: string(job.Status), Operation: "submit selections"}
		}
		for i, sel := range selections {
			if _, ok := job.AreaProgress[sel.AreaID]; !ok {
				return nil, apperr.Validation("selections", "selection %d names unknown area %q", i, sel.AreaID)
			}
		}
		job.Selections = selections
		return &Change{
			Action:  entity.ActionSelectionsSubmitted,
			ActorID: "customer",
			Data:    map[string]int{"count": len(selections)},
		}, nil
	})
	return job, err
}

// CompleteJob finishes the work and computes the balance. A job with nothing
// left to pay closes in the same transaction.
func (s *jobServiceImpl) CompleteJob(ctx context.Context, tenantID, jobID, actorID string, in CompleteJobInput) (*entity.Job, error) {
	if strings.TrimSpace(in.Notes) == "" {
		return nil, apperr.Validation("completion_notes", "are required")
	}
	if in.FinalInvoiceAmount != nil && in.FinalInvoiceAmount.IsNegative() {
		return nil, apperr.Validation("final_invoice_amount", "must not be negative")
	}

	var closed bool
	job, _, err := s.mutate(ctx, tenantID, jobID, func(ctx context.Context, job *entity.Job) (*Change, error) {
		if err := fireJob(job, workflow.TriggerComplete); err != nil {
			return nil, err
		}
		now := s.Now()
		job.CompletedAt = timeRef(now)
		job.CompletionNotes = in.Notes
		if in.FinalInvoiceAmount != nil {
			job.Total = in.FinalInvoiceAmount.Round(2)
		}

		job.BalanceRemaining = job.Total.Sub(job.DepositAmount)
		if job.BalanceRemaining.IsPositive() {
			job.FinalPaymentStatus = entity.FinalPaymentPending
			return &Change{Action: entity.ActionJobCompleted, ActorID: actorID, Data: balanceData(job)}, nil
		}

		job.BalanceRemaining = decimal.Zero
		job.FinalPaymentStatus = entity.FinalPaymentNotRequired
		if err := s.Audit.Record(ctx, Change{
			TenantID:   tenantID,
			EntityType: entity.EntityJob,
			EntityID:   job.ID,
			Action:     entity.ActionJobCompleted,
			From:       string(entity.JobInProgress),
			To:         string(entity.JobCompleted),
			ActorID:    actorID,
			Data:       balanceData(job),
		}); err != nil {
			return nil, err
		}

		if err := fireJob(job, workflow.TriggerClose); err != nil {
			return nil, err
		}
		job.ClosedAt = timeRef(now)
		job.PortalOpen = false
		closed = true
		return &Change{
			Action:  entity.ActionJobClosed,
			From:    string(entity.JobCompleted),
			ActorID: actorID,
			Reason:  "no balance remaining",
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, event.NewEvent(event.TypeJobCompleted, tenantID, job.ID, map[string]interface{}{
		"quote_number":      job.QuoteNumber,
		"balance_remaining": job.BalanceRemaining.StringFixed(2),
		"closed":            closed,
	}))
	s.Logger.Info("Job completed", "job_id", job.ID, "balance", job.BalanceRemaining.StringFixed(2), "closed", closed)
	return job, nil
}

// HoldJob suspends a job, e.g. for weather or material delays
func (s *jobServiceImpl) HoldJob(ctx context.Context, tenantID, jobID, actorID, reason string) (*entity.Job, error) {
	return s.suspend(ctx, tenantID, jobID, actorID, reason, workflow.TriggerHold, entity.ActionJobOnHold)
}

// PauseJob suspends a job at the customer's request
func (s *jobServiceImpl) PauseJob(ctx context.Context, tenantID, jobID, actorID, reason string) (*entity.Job, error) {
	return s.suspend(ctx, tenantID, jobID, actorID, reason, workflow.TriggerPause, entity.ActionJobPaused)
}

func (s *jobServiceImpl) suspend(ctx context.Context, tenantID, jobID, actorID, reason string, trigger workflow.Trigger, action string) (*entity.Job, error) {
	job, _, err := s.mutate(ctx, tenantID, jobID, func(ctx context.Context, job *entity.Job) (*Change, error) {
		from := job.Status
		if err := fireJob(job, trigger); err != nil {
			return nil, err
		}
		job.ResumeStatus = from
		return &Change{Action: action, ActorID: actorID, Reason: reason}, nil
	})
	return job, err
}

// ResumeJob returns a held or paused job to the status it was suspended from
func (s *jobServiceImpl) ResumeJob(ctx context.Context, tenantID, jobID, actorID string) (*entity.Job, error) {
	job, _, err := s.mutate(ctx, tenantID, jobID, func(ctx context.Context, job *entity.Job) (*Change, error) {
		target := job.ResumeStatus
		if target == "" {
			return nil, &apperr.InvalidJobStateError{JobID: job.ID, Status: string(job.Status), Operation: "resume"}
		}
		if err := workflow.JobTransitions.FireTo(job.Status, workflow.TriggerResume, target); err != nil {
			return nil, err
		}
		job.Status = target
		job.ResumeStatus = ""
		return &Change{Action: entity.ActionJobResumed, ActorID: actorID}, nil
	})
	return job, err
}

// CancelJob ends a job permanently
func (s *jobServiceImpl) CancelJob(ctx context.Context, tenantID, jobID, actorID, reason string) (*entity.Job, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.Validation("reason", "is required to cancel")
	}
	job, _, err := s.mutate(ctx, tenantID, jobID, func(ctx context.Context, job *entity.Job) (*Change, error) {
		if err := fireJob(job, workflow.TriggerCancel); err != nil {
			return nil, err
		}
		job.ResumeStatus = ""
		job.PortalOpen = false
		return &Change{Action: entity.ActionJobCanceled, ActorID: actorID, Reason: reason}, nil
	})
	return job, err
}

// AuditTrail returns the ledger of one entity in creation order
func (s *jobServiceImpl) AuditTrail(ctx context.Context, tenantID string, entityType entity.EntityType, entityID string) ([]*entity.AuditLogEntry, error) {
	return s.Audit.Trail(ctx, tenantID, entityType, entityID)
}

func utcRef(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return timeRef(t.UTC())
}

func scheduleData(job *entity.Job) map[string]string {
	data := map[string]string{"start": job.ScheduledStartDate.Format(time.RFC3339)}
	if job.ScheduledEndDate != nil {
		data["end"] = job.ScheduledEndDate.Format(time.RFC3339)
	}
	if len(job.Crew) > 0 {
		data["crew"] = strings.Join(job.Crew, ",")
	}
	return data
}

// cleanCrew trims member ids and drops blanks and repeats
func cleanCrew(crew []string) []string {
	var out []string
	seen := make(map[string]bool, len(crew))
	for _, member := range crew {
		member = strings.TrimSpace(member)
		if member == "" || seen[member] {
			continue
		}
		seen[member] = true
		out = append(out, member)
	}
	return out
}

func balanceData(job *entity.Job) map[string]string {
	return map[string]string{
		"total":             job.Total.StringFixed(2),
		"deposit":           job.DepositAmount.StringFixed(2),
		"balance_remaining": job.BalanceRemaining.StringFixed(2),
	}
}
