package schedule

import (
	"time"

	"github.com/akarpov/loan-schedule/pkg/datetime"
	"github.com/akarpov/loan-schedule/pkg/loan"
)

// occurrences counts how many times an extra payment fires for the
// period ending at paymentDate. Recurring modes count occurrences inside
// the half-open window (prevDate, paymentDate], bounded by the event's
// end date when present. ONE_TIME fires exactly once, on the period
// whose payment date equals the event date.
func occurrences(ex loan.ExtraPayment, prevDate, paymentDate time.Time) int {
	if ex.EndDate != nil && paymentDate.After(*ex.EndDate) {
		return 0
	}

	switch ex.Mode {
	case loan.ExtraOneTime:
		if datetime.SameDate(ex.Date, paymentDate) {
			return 1
		}
		return 0
	case loan.ExtraMonthly:
		// Anchor-day matching compares against the clamped payment date,
		// so anchors near month-end can collide in short months.
		if paymentDate.Before(ex.Date) {
			return 0
		}
		if paymentDate.Day() == ex.Date.Day() {
			return 1
		}
		return 0
	case loan.ExtraYearly:
		if paymentDate.Before(ex.Date) {
			return 0
		}
		if paymentDate.Month() == ex.Date.Month() && paymentDate.Day() == ex.Date.Day() {
			return 1
		}
		return 0
	case loan.ExtraWeekly:
		return steppedOccurrences(ex, prevDate, paymentDate, 7)
	case loan.ExtraBiweekly:
		return steppedOccurrences(ex, prevDate, paymentDate, 14)
	default:
		return 0
	}
}

// steppedOccurrences walks from the anchor date in fixed day steps and
// counts every occurrence landing inside (prevDate, paymentDate].
func steppedOccurrences(ex loan.ExtraPayment, prevDate, paymentDate time.Time, stepDays int) int {
	count := 0
	for t := ex.Date; !t.After(paymentDate); t = t.AddDate(0, 0, stepDays) {
		if ex.EndDate != nil && t.After(*ex.EndDate) {
			break
		}
		if t.After(prevDate) {
			count++
		}
	}
	return count
}
