package service

import (
	"fmt"

	"academy/internal/domain"
)

// PayableAmount returns the amount to charge for a training.
// Deposit mode charges the deposit only when the training offers one;
// every other case charges the full price.
func PayableAmount(training *domain.Training, paymentType domain.PaymentType) (domain.Cents, error) {
	if !paymentType.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPaymentType, paymentType)
	}

	amount := training.Price
	if paymentType == domain.PaymentTypeDeposit && training.HasDeposit() {
		amount = training.DepositAmount
	}

	if amount <= 0 {
		return 0, fmt.Errorf("%w: training %s resolves to %s", ErrInvalidAmount, training.ID, amount)
	}

	return amount, nil
}
