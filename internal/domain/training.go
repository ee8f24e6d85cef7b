package domain

// TrainingStatus represents where a training is in its lifecycle.
type TrainingStatus string

const (
	TrainingStatusDraft               TrainingStatus = "draft"
	TrainingStatusRegistrationsOpen   TrainingStatus = "registrations_open"
	TrainingStatusRegistrationsClosed TrainingStatus = "registrations_closed"
	TrainingStatusInProgress          TrainingStatus = "in_progress"
	TrainingStatusCompleted           TrainingStatus = "completed"
	TrainingStatusCancelled           TrainingStatus = "cancelled"
)

// Training is a training definition owned by the catalog.
// It is read-only from the registration flow.
type Training struct {
	ID              string
	Title           string
	Price           Cents
	DepositAmount   Cents // 0 means no deposit option
	MaxParticipants int   // 0 means unlimited
	Status          TrainingStatus
}

// AcceptsRegistrations reports whether new payment transactions may be opened.
func (t *Training) AcceptsRegistrations() bool {
	return t.Status == TrainingStatusRegistrationsOpen
}

// HasDeposit reports whether the deposit payment mode is offered.
func (t *Training) HasDeposit() bool {
	return t.DepositAmount > 0
}

// Unlimited reports whether the training has no seat limit.
func (t *Training) Unlimited() bool {
	return t.MaxParticipants <= 0
}
