package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

// Quote triggers
const (
	TriggerSend    Trigger = "send"
	TriggerView    Trigger = "view"
	TriggerAccept  Trigger = "accept"
	TriggerDecline Trigger = "decline"
	TriggerArchive Trigger = "archive"
)

// Job triggers
const (
	TriggerVerifyDeposit Trigger = "verify_deposit"
	TriggerSchedule      Trigger = "schedule"
	TriggerReschedule    Trigger = "reschedule"
	TriggerStart         Trigger = "start"
	TriggerComplete      Trigger = "complete"
	TriggerClose         Trigger = "close"
	TriggerHold          Trigger = "hold"
	TriggerPause         Trigger = "pause"
	TriggerResume        Trigger = "resume"
	TriggerCancel        Trigger = "cancel"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
