package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtraMode is the recurrence rule of an extra payment.
type ExtraMode string

const (
	ExtraOneTime  ExtraMode = "ONE_TIME"
	ExtraMonthly  ExtraMode = "MONTHLY"
	ExtraWeekly   ExtraMode = "WEEKLY"
	ExtraBiweekly ExtraMode = "BIWEEKLY"
	ExtraYearly   ExtraMode = "YEARLY"
)

// ExtraStrategy is how an extra payment rebalances the remaining
// schedule.
type ExtraStrategy string

const (
	// ReduceTerm keeps the payment and shortens the payoff.
	ReduceTerm ExtraStrategy = "REDUCE_TERM"
	// ReducePayment recomputes the payment against the lowered balance.
	ReducePayment ExtraStrategy = "REDUCE_PAYMENT"
)

// HolidayType selects how obligations are modified inside a payment
// holiday window.
type HolidayType string

const (
	// HolidayInterestOnly pays interest while the principal stands still.
	HolidayInterestOnly HolidayType = "INTEREST_ONLY"
	// HolidayPauseCapitalize pays nothing and capitalizes accrued
	// interest onto the balance.
	HolidayPauseCapitalize HolidayType = "PAUSE_CAPITALIZE"
)

// Event is the sealed union of the three shapes that modify a schedule:
// ExtraPayment, RateChange, and Holiday. The marker method keeps the set
// closed so the generator can match variants exhaustively.
type Event interface {
	event()
}

// ExtraPayment is an additional principal payment, one-time or
// recurring. The Date anchors the recurrence; EndDate, when set, bounds
// recurring occurrences.
type ExtraPayment struct {
	Date     time.Time
	Amount   decimal.Decimal
	Mode     ExtraMode
	Strategy ExtraStrategy
	EndDate  *time.Time
}

// RateChange switches the annual rate starting from its effective date.
type RateChange struct {
	Date       time.Time
	AnnualRate decimal.Decimal
}

// Holiday suspends or modifies obligations inside the inclusive
// [StartDate, EndDate] window.
type Holiday struct {
	StartDate time.Time
	EndDate   time.Time
	Type      HolidayType
}

func (ExtraPayment) event() {}
func (RateChange) event()   {}
func (Holiday) event()      {}
