package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TransactionStatus is the provider-neutral state of a payment transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusSucceeded TransactionStatus = "succeeded"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// Metadata keys written on the provider transaction. They are snake_case
// because the provider normalizes metadata keys to that form.
const (
	MetaIntentID            = "intent_id"
	MetaTrainingID          = "training_id"
	MetaPaymentType         = "payment_type"
	MetaContactName         = "contact_name"
	MetaContactEmail        = "contact_email"
	MetaPhone               = "phone"
	MetaDepartureCity       = "departure_city"
	MetaDeparturePostalCode = "departure_postal_code"
	MetaDepartureCountry    = "departure_country"
	MetaCarpooling          = "carpooling"
)

var (
	// ErrMissingTrainingID is returned when the metadata bag has no training reference.
	// Such a transaction was not opened by this service.
	ErrMissingTrainingID = errors.New("transaction metadata has no training_id")

	// ErrInvalidMetadata is returned when the metadata bag fails validation.
	ErrInvalidMetadata = errors.New("invalid transaction metadata")

	// ErrTransactionNotFound is returned by providers when the transaction
	// does not exist on their side.
	ErrTransactionNotFound = errors.New("provider transaction not found")
)

var metadataValidator = validator.New()

// TransactionMetadata is the typed form of the provider metadata bag.
// It is the only state needed to rebuild a registration. IntentID identifies
// the opened transaction and stays the same across every payment attempt on it.
type TransactionMetadata struct {
	IntentID    string      `validate:"required,max=64"`
	TrainingID  string      `validate:"required"`
	PaymentType PaymentType `validate:"required,oneof=full deposit"`
	Trainee     TraineeMetadata
}

// TraineeMetadata mirrors Trainee with validation rules.
type TraineeMetadata struct {
	ContactName         string `validate:"required,max=255"`
	ContactEmail        string `validate:"required,email"`
	Phone               string `validate:"max=64"`
	DepartureCity       string `validate:"max=255"`
	DeparturePostalCode string `validate:"max=32"`
	DepartureCountry    string `validate:"max=255"`
	Carpooling          string `validate:"max=64"`
}

// NewTransactionMetadata builds validated metadata for a new transaction.
func NewTransactionMetadata(intentID, trainingID string, paymentType PaymentType, trainee Trainee) (TransactionMetadata, error) {
	m := TransactionMetadata{
		IntentID:    intentID,
		TrainingID:  trainingID,
		PaymentType: paymentType,
		Trainee:     TraineeMetadata(trainee),
	}
	if err := m.Validate(); err != nil {
		return TransactionMetadata{}, err
	}
	return m, nil
}

// Validate checks every field of the metadata.
func (m TransactionMetadata) Validate() error {
	if err := metadataValidator.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace()+":"+fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalidMetadata, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	return nil
}

// TraineeValue returns the trainee fields as a domain Trainee.
func (m TransactionMetadata) TraineeValue() Trainee {
	return Trainee(m.Trainee)
}

// ToMap flattens the metadata into the provider bag.
func (m TransactionMetadata) ToMap() map[string]any {
	return map[string]any{
		MetaIntentID:            m.IntentID,
		MetaTrainingID:          m.TrainingID,
		MetaPaymentType:         string(m.PaymentType),
		MetaContactName:         m.Trainee.ContactName,
		MetaContactEmail:        m.Trainee.ContactEmail,
		MetaPhone:               m.Trainee.Phone,
		MetaDepartureCity:       m.Trainee.DepartureCity,
		MetaDeparturePostalCode: m.Trainee.DeparturePostalCode,
		MetaDepartureCountry:    m.Trainee.DepartureCountry,
		MetaCarpooling:          m.Trainee.Carpooling,
	}
}

// ParseTransactionMetadata converts the loosely typed provider bag into
// TransactionMetadata. It returns ErrMissingTrainingID when the bag carries
// no training reference and ErrInvalidMetadata for any other defect.
func ParseTransactionMetadata(bag map[string]any) (TransactionMetadata, error) {
	trainingID := metaString(bag, MetaTrainingID)
	if trainingID == "" {
		return TransactionMetadata{}, ErrMissingTrainingID
	}

	m := TransactionMetadata{
		IntentID:    metaString(bag, MetaIntentID),
		TrainingID:  trainingID,
		PaymentType: PaymentType(metaString(bag, MetaPaymentType)),
		Trainee: TraineeMetadata{
			ContactName:         metaString(bag, MetaContactName),
			ContactEmail:        metaString(bag, MetaContactEmail),
			Phone:               metaString(bag, MetaPhone),
			DepartureCity:       metaString(bag, MetaDepartureCity),
			DeparturePostalCode: metaString(bag, MetaDeparturePostalCode),
			DepartureCountry:    metaString(bag, MetaDepartureCountry),
			Carpooling:          metaString(bag, MetaCarpooling),
		},
	}
	if err := m.Validate(); err != nil {
		return TransactionMetadata{}, err
	}
	return m, nil
}

// metaString reads a string value from the bag. Numbers are accepted for ids
// and postal codes because JSON decoding may have turned them into float64.
func metaString(bag map[string]any, key string) string {
	v, ok := bag[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}

// TransactionRequest is what the gateway asks the provider to create.
type TransactionRequest struct {
	Title        string
	Amount       Cents
	Currency     string
	PaymentTypes []string // allowed payment method families
	PayerEmail   string
	Reference    string // intent id, echoed back by the provider
	Metadata     TransactionMetadata
}

// ProviderTransaction is a transaction as reported by the provider.
type ProviderTransaction struct {
	ID           string
	ClientSecret string
	Status       TransactionStatus
	Amount       Cents // captured amount; zero until the payment is approved
	Currency     string
	Metadata     map[string]any
}
