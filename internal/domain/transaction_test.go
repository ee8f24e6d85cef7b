package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainee() Trainee {
	return Trainee{
		ContactName:         "Ada Lovelace",
		ContactEmail:        "ada@example.com",
		Phone:               "0612345678",
		DepartureCity:       "Lyon",
		DeparturePostalCode: "69001",
		DepartureCountry:    "FR",
		Carpooling:          "passenger",
	}
}

func TestTransactionMetadata_RoundTrip(t *testing.T) {
	meta, err := NewTransactionMetadata("int-1", "tr-1", PaymentTypeDeposit, trainee())
	require.NoError(t, err)

	parsed, err := ParseTransactionMetadata(meta.ToMap())
	require.NoError(t, err)

	assert.Equal(t, meta, parsed)
	assert.Equal(t, trainee(), parsed.TraineeValue())
}

func TestNewTransactionMetadata_Validation(t *testing.T) {
	noEmail := trainee()
	noEmail.ContactEmail = ""
	_, err := NewTransactionMetadata("int-1", "tr-1", PaymentTypeFull, noEmail)
	assert.ErrorIs(t, err, ErrInvalidMetadata)
	assert.Contains(t, err.Error(), "ContactEmail")

	_, err = NewTransactionMetadata("int-1", "tr-1", "monthly", trainee())
	assert.ErrorIs(t, err, ErrInvalidMetadata)

	_, err = NewTransactionMetadata("", "tr-1", PaymentTypeFull, trainee())
	assert.ErrorIs(t, err, ErrInvalidMetadata)
	assert.Contains(t, err.Error(), "IntentID")
}

func TestParseTransactionMetadata(t *testing.T) {
	_, err := ParseTransactionMetadata(nil)
	assert.ErrorIs(t, err, ErrMissingTrainingID)

	_, err = ParseTransactionMetadata(map[string]any{"order_id": "x"})
	assert.ErrorIs(t, err, ErrMissingTrainingID)

	_, err = ParseTransactionMetadata(map[string]any{MetaTrainingID: "tr-1"})
	assert.ErrorIs(t, err, ErrInvalidMetadata)

	_, err = ParseTransactionMetadata(map[string]any{
		MetaTrainingID:   "tr-1",
		MetaPaymentType:  "full",
		MetaContactName:  "Ada",
		MetaContactEmail: "ada@example.com",
	})
	assert.ErrorIs(t, err, ErrInvalidMetadata, "a bag without intent id cannot be tied to an opened transaction")

	meta, err := ParseTransactionMetadata(map[string]any{
		MetaIntentID:            "int-1",
		MetaTrainingID:          "tr-1",
		MetaPaymentType:         "full",
		MetaContactName:         "Ada",
		MetaContactEmail:        "ada@example.com",
		MetaDeparturePostalCode: float64(1000),
		MetaCarpooling:          false,
	})
	require.NoError(t, err)
	assert.Equal(t, "int-1", meta.IntentID)
	assert.Equal(t, "1000", meta.Trainee.DeparturePostalCode)
	assert.Equal(t, "false", meta.Trainee.Carpooling)
}

func TestPaymentStatusFor(t *testing.T) {
	withDeposit := &Training{Price: 45000, DepositAmount: 15000}
	noDeposit := &Training{Price: 45000}

	assert.Equal(t, RegistrationPaymentPartial, PaymentStatusFor(PaymentTypeDeposit, withDeposit))
	assert.Equal(t, RegistrationPaymentPaid, PaymentStatusFor(PaymentTypeDeposit, noDeposit))
	assert.Equal(t, RegistrationPaymentPaid, PaymentStatusFor(PaymentTypeFull, withDeposit))
}
