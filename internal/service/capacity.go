package service

import (
	"fmt"

	"academy/internal/domain"
)

// CheckCapacity decides whether a new payment transaction may be opened.
// The count is read outside of any transaction, so the check is advisory:
// concurrent intents near the limit can still overbook, and the reconciler
// flags those registrations instead of refusing a paid seat.
func CheckCapacity(training *domain.Training, confirmedCount int) error {
	if !training.AcceptsRegistrations() {
		return fmt.Errorf("%w: status is %s", ErrRegistrationsClosed, training.Status)
	}

	if !training.Unlimited() && confirmedCount >= training.MaxParticipants {
		return fmt.Errorf("%w: %d of %d seats taken", ErrTrainingFull, confirmedCount, training.MaxParticipants)
	}

	return nil
}

// SeatsLeft returns the remaining seats, or -1 for an unlimited training.
func SeatsLeft(training *domain.Training, confirmedCount int) int {
	if training.Unlimited() {
		return -1
	}
	left := training.MaxParticipants - confirmedCount
	if left < 0 {
		return 0
	}
	return left
}
