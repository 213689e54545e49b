package workflow

import "github.com/brushline/paintquote/internal/domain/entity"

// JobTransitions is the job status table.
var JobTransitions = newJobTable()

// resumable are the statuses a held or paused job can return to.
var resumable = []entity.JobStatus{
	entity.JobAccepted,
	entity.JobDepositPaid,
	entity.JobScheduled,
	entity.JobInProgress,
	entity.JobCompleted,
}

func newJobTable() *Table[entity.JobStatus] {
	b := NewBuilder("job",
		entity.JobAccepted,
		entity.JobDepositPaid,
		entity.JobScheduled,
		entity.JobInProgress,
		entity.JobOnHold,
		entity.JobPaused,
		entity.JobCompleted,
		entity.JobClosed,
		entity.JobCanceled,
	)

	b.Configure(entity.JobAccepted).
		Permit(TriggerVerifyDeposit, entity.JobDepositPaid)

	b.Configure(entity.JobDepositPaid).
		Permit(TriggerSchedule, entity.JobScheduled)

	b.Configure(entity.JobScheduled).
		Permit(TriggerReschedule, entity.JobScheduled).
		Permit(TriggerStart, entity.JobInProgress)

	b.Configure(entity.JobInProgress).
		Permit(TriggerReschedule, entity.JobInProgress).
		Permit(TriggerComplete, entity.JobCompleted)

	b.Configure(entity.JobCompleted).
		Permit(TriggerClose, entity.JobClosed)

	for _, s := range resumable {
		b.Configure(s).
			Permit(TriggerHold, entity.JobOnHold).
			Permit(TriggerPause, entity.JobPaused).
			Permit(TriggerCancel, entity.JobCanceled)
	}

	for _, s := range []entity.JobStatus{entity.JobOnHold, entity.JobPaused} {
		c := b.Configure(s).Permit(TriggerCancel, entity.JobCanceled)
		for _, target := range resumable {
			c.Permit(TriggerResume, target)
		}
	}

	return b.Terminal(entity.JobClosed, entity.JobCanceled).Build()
}
