package domain

import "time"

// PaymentType is the payment mode requested by the trainee.
type PaymentType string

const (
	PaymentTypeFull    PaymentType = "full"
	PaymentTypeDeposit PaymentType = "deposit"
)

// Valid reports whether the payment type is known.
func (p PaymentType) Valid() bool {
	return p == PaymentTypeFull || p == PaymentTypeDeposit
}

// RegistrationPaymentStatus is the payment state recorded on a registration.
type RegistrationPaymentStatus string

const (
	RegistrationPaymentPaid    RegistrationPaymentStatus = "paid"
	RegistrationPaymentPartial RegistrationPaymentStatus = "partial"
)

// Trainee holds the contact fields collected when a payment is opened.
// They travel through the provider metadata and land on the registration verbatim.
type Trainee struct {
	ContactName         string
	ContactEmail        string
	Phone               string
	DepartureCity       string
	DeparturePostalCode string
	DepartureCountry    string
	Carpooling          string
}

// Registration is a confirmed, paid seat on a training.
type Registration struct {
	ID                    string
	TrainingID            string
	Trainee               Trainee
	AmountPaid            Cents
	PaymentAmount         Cents // same as AmountPaid, kept for older consumers
	PaymentStatus         RegistrationPaymentStatus
	ExternalTransactionID string // intent id returned when the transaction was opened
	ProviderPaymentID     string // provider payment that confirmed the seat
	NeedsReview           bool   // overbooked, or paid more than once
	RegisteredAt          time.Time
}

// PaymentStatusFor derives the registration payment status.
// A registration is partial only when a deposit was requested and the
// training actually offers one.
func PaymentStatusFor(paymentType PaymentType, training *Training) RegistrationPaymentStatus {
	if paymentType == PaymentTypeDeposit && training.HasDeposit() {
		return RegistrationPaymentPartial
	}
	return RegistrationPaymentPaid
}
