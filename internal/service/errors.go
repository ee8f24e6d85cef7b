package service

import "errors"

var (
	// ErrInvalidTrainingID is returned when training ID is empty.
	ErrInvalidTrainingID = errors.New("invalid training id")

	// ErrTrainingNotFound is returned when the catalog has no such training.
	ErrTrainingNotFound = errors.New("training not found")

	// ErrRegistrationsClosed is returned when the training does not accept registrations.
	ErrRegistrationsClosed = errors.New("registrations are closed for this training")

	// ErrTrainingFull is returned when every seat of the training is taken.
	ErrTrainingFull = errors.New("training is full")

	// ErrInvalidAmount is returned when the payable amount is not positive.
	ErrInvalidAmount = errors.New("invalid payable amount")

	// ErrInvalidPaymentType is returned when payment type is neither full nor deposit.
	ErrInvalidPaymentType = errors.New("invalid payment type")

	// ErrInvalidTrainee is returned when trainee contact fields are missing or malformed.
	ErrInvalidTrainee = errors.New("invalid trainee information")

	// ErrInvalidTransactionID is returned when transaction ID is empty.
	ErrInvalidTransactionID = errors.New("invalid transaction id")

	// ErrRegistrationNotFound is returned when no registration was materialized
	// for a transaction yet.
	ErrRegistrationNotFound = errors.New("registration not found")

	// ErrProviderUnavailable is returned when the payment provider cannot be
	// reached in time. Nothing was written locally, so the call can be retried.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrInvalidSignature is returned when a webhook delivery is not authentic.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMalformedEvent is returned when a webhook body cannot be decoded.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// IsTerminalWebhookError reports whether a webhook error must not be retried
// by the provider.
func IsTerminalWebhookError(err error) bool {
	return errors.Is(err, ErrInvalidSignature) || errors.Is(err, ErrMalformedEvent)
}
