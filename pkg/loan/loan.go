// Package loan defines loan terms, the modifying-event variants, their
// validation, and the canonical version hash used for cache invalidation.
package loan

import (
	"errors"
	"fmt"
	"time"

	"github.com/akarpov/loan-schedule/pkg/constants"
	"github.com/shopspring/decimal"
)

// PaymentType selects the amortization scheme.
type PaymentType string

const (
	// PaymentAnnuity is a fixed total payment per period.
	PaymentAnnuity PaymentType = "ANNUITY"
	// PaymentDifferentiated is a fixed principal slice per period with
	// interest on the declining balance.
	PaymentDifferentiated PaymentType = "DIFFERENTIATED"
)

// AccrualMode selects the day-count convention for interest.
type AccrualMode string

const (
	// AccrualMonthly charges a flat 1/12 of the annual rate per period.
	AccrualMonthly AccrualMode = "MONTHLY"
	// AccrualAct365 charges actual elapsed days over a 365-day year.
	AccrualAct365 AccrualMode = "ACT_365"
)

// Loan holds the immutable terms of one loan. Amounts and rates are
// decimals; the engine never mutates a Loan.
type Loan struct {
	Principal        decimal.Decimal
	CurrentPrincipal decimal.Decimal
	AnnualRate       decimal.Decimal // percent, 0-100
	PaymentType      PaymentType
	TermMonths       int
	FirstPaymentDate time.Time
	IssueDate        *time.Time
	Currency         string
	CalcDate         *time.Time // reference "today"; nil means actual today
	AccrualMode      AccrualMode
	InsuranceMonthly decimal.Decimal
	OneTimeCosts     decimal.Decimal
}

// ErrValidation is the single error kind raised for out-of-bounds loan
// terms. Concrete failures wrap it, so callers can match with errors.Is.
var ErrValidation = errors.New("invalid loan terms")

// Validate checks the loan terms against their documented bounds. It is
// called before any schedule state is built; on failure no partial
// output is ever produced.
func (l *Loan) Validate() error {
	if l.TermMonths < 1 {
		return fmt.Errorf("%w: term_months must be >= 1", ErrValidation)
	}
	if l.TermMonths > constants.MaxTermMonths {
		return fmt.Errorf("%w: term_months must be <= %d", ErrValidation, constants.MaxTermMonths)
	}
	if !l.Principal.IsPositive() {
		return fmt.Errorf("%w: principal must be > 0", ErrValidation)
	}
	if !l.CurrentPrincipal.IsPositive() {
		return fmt.Errorf("%w: current_principal must be > 0", ErrValidation)
	}
	if l.CurrentPrincipal.GreaterThan(l.Principal) {
		return fmt.Errorf("%w: current_principal must be <= principal", ErrValidation)
	}
	if l.AnnualRate.IsNegative() || l.AnnualRate.GreaterThan(decimal.NewFromInt(constants.PercentageMultiplier)) {
		return fmt.Errorf("%w: annual_rate must be in [0, 100]", ErrValidation)
	}
	switch l.AccrualMode {
	case AccrualMonthly, AccrualAct365:
	default:
		return fmt.Errorf("%w: accrual_mode must be %s or %s", ErrValidation, AccrualMonthly, AccrualAct365)
	}
	switch l.PaymentType {
	case PaymentAnnuity, PaymentDifferentiated:
	default:
		return fmt.Errorf("%w: payment_type must be %s or %s", ErrValidation, PaymentAnnuity, PaymentDifferentiated)
	}
	return nil
}

// ResolvedCalcDate returns the reference date for the calculation,
// defaulting to the current day when the loan does not pin one.
func (l *Loan) ResolvedCalcDate() time.Time {
	if l.CalcDate != nil {
		return *l.CalcDate
	}
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
