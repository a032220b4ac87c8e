package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/akarpov/loan-schedule/pkg/constants"
	"github.com/akarpov/loan-schedule/pkg/datetime"
	"github.com/akarpov/loan-schedule/pkg/loan"
	"github.com/akarpov/loan-schedule/pkg/money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Entry is one period of the payment schedule.
type Entry struct {
	Date       time.Time
	Payment    decimal.Decimal
	Interest   decimal.Decimal
	Principal  decimal.Decimal
	Balance    decimal.Decimal
	AnnualRate decimal.Decimal
	Event      string // annotation tag, empty when nothing fired
}

// Summary aggregates the schedule into the figures shown to callers.
type Summary struct {
	Principal           decimal.Decimal
	RemainingBalance    decimal.Decimal // outstanding as of the calc date
	MonthlyPayment      decimal.Decimal
	TotalPaid           decimal.Decimal
	TotalInterest       decimal.Decimal
	TotalPrincipalPaid  decimal.Decimal
	PaidPrincipalToDate decimal.Decimal
	PaymentsCount       int
	PayoffDate          *time.Time
	NextPayment         *Entry
	ScheduleStartDate   time.Time
	InsuranceTotal      decimal.Decimal
	OneTimeCosts        decimal.Decimal
	TotalFutureCost     decimal.Decimal
}

// Result is the full output of one calculation.
type Result struct {
	Summary  Summary
	Schedule []Entry
	Version  int64
	Hash     string
}

// Generator produces amortization schedules. It holds no state between
// calls; concurrent calculations need no coordination.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a generator instance.
func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{logger: logger}
}

// walk carries the mutable state of one schedule computation.
type walk struct {
	loan        *loan.Loan
	extras      []loan.ExtraPayment
	balance     decimal.Decimal
	currentRate decimal.Decimal
	basePayment decimal.Decimal // annuity target
	fixedSlice  decimal.Decimal // differentiated principal portion
	prevDate    time.Time

	schedule      []Entry
	paidTotal     decimal.Decimal
	paidInterest  decimal.Decimal
	paidPrincipal decimal.Decimal
}

// Calculate walks the loan period by period, applying rate changes,
// holidays, and extra payments, and returns the summary, the full
// schedule, and the canonical version token and hash. Identical inputs
// always yield identical outputs; the inputs are never mutated.
func (g *Generator) Calculate(l *loan.Loan, events []loan.Event) (*Result, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	version, hash, err := loan.VersionHash(l, events)
	if err != nil {
		return nil, err
	}

	calcDate := l.ResolvedCalcDate()
	startDate := datetime.NextPaymentDate(l.FirstPaymentDate, calcDate)
	elapsedMonths := datetime.MonthDiff(l.FirstPaymentDate, startDate)
	monthsLeftTotal := l.TermMonths - elapsedMonths
	if monthsLeftTotal < 1 {
		monthsLeftTotal = 1
	}

	var extraEvents []loan.ExtraPayment
	var rateEvents []loan.RateChange
	var holidayEvents []loan.Holiday
	for _, ev := range events {
		switch e := ev.(type) {
		case loan.ExtraPayment:
			extraEvents = append(extraEvents, e)
		case loan.RateChange:
			rateEvents = append(rateEvents, e)
		case loan.Holiday:
			holidayEvents = append(holidayEvents, e)
		}
	}
	sort.SliceStable(rateEvents, func(i, j int) bool {
		return rateEvents[i].Date.Before(rateEvents[j].Date)
	})

	w := &walk{
		loan:          l,
		extras:        extraEvents,
		balance:       money.Round(l.CurrentPrincipal),
		currentRate:   l.AnnualRate,
		paidTotal:     decimal.Zero,
		paidInterest:  decimal.Zero,
		paidPrincipal: decimal.Zero,
	}

	// Rate changes effective on or before the schedule start set the
	// initial rate before the first payment is derived.
	rateIdx := 0
	for rateIdx < len(rateEvents) && !rateEvents[rateIdx].Date.After(startDate) {
		w.currentRate = rateEvents[rateIdx].AnnualRate
		rateIdx++
	}
	w.rederive(monthsLeftTotal)

	// For the first period interest accrues from disbursement when the
	// issue date is known, otherwise from one nominal month before the
	// start. The same date seeds the recurrence window.
	w.prevDate = datetime.AddMonths(startDate, -1)
	if l.IssueDate != nil && l.IssueDate.Before(startDate) && l.IssueDate.After(w.prevDate) {
		w.prevDate = *l.IssueDate
	}

	for monthIdx := 0; monthIdx < constants.MaxSchedulePeriods; monthIdx++ {
		if !w.balance.IsPositive() {
			break
		}

		paymentDate := datetime.AddMonths(startDate, monthIdx)
		monthsLeft := monthsLeftTotal - monthIdx
		if monthsLeft < 1 {
			monthsLeft = 1
		}

		rateChanged := false
		for rateIdx < len(rateEvents) && !rateEvents[rateIdx].Date.After(paymentDate) {
			w.currentRate = rateEvents[rateIdx].AnnualRate
			rateIdx++
			rateChanged = true
		}
		if rateChanged {
			g.logger.Debug(fmt.Sprintf("%s: rate changed to %s%%",
				paymentDate.Format(datetime.DateLayout), w.currentRate),
				zap.String("op", "schedule.Calculate"),
			)
			w.rederive(monthsLeft)
		}

		interest := accrueInterest(l, w.balance, w.currentRate, w.prevDate, paymentDate)

		if holiday, ok := matchHoliday(holidayEvents, paymentDate); ok {
			if holiday.Type == loan.HolidayPauseCapitalize {
				// Nothing is paid; accrued interest joins the balance and
				// the extra-payment pass is skipped for this period.
				w.balance = money.Round(w.balance.Add(interest))
				w.schedule = append(w.schedule, Entry{
					Date:       paymentDate,
					Payment:    decimal.Zero,
					Interest:   interest,
					Principal:  decimal.Zero,
					Balance:    w.balance,
					AnnualRate: money.Round(w.currentRate),
					Event:      "HOLIDAY_PAUSE_CAPITALIZE",
				})
				w.prevDate = paymentDate
				continue
			}
			// INTEREST_ONLY: interest is paid, the principal stands still.
			g.settlePeriod(w, paymentDate, monthsLeft, interest, decimal.Zero, "HOLIDAY_INTEREST_ONLY")
			continue
		}

		var principalPart decimal.Decimal
		if l.PaymentType == loan.PaymentAnnuity {
			principalPart = money.Round(w.basePayment.Sub(interest))
		} else {
			principalPart = w.fixedSlice
		}
		if principalPart.IsNegative() {
			principalPart = decimal.Zero
		}
		if principalPart.GreaterThan(w.balance) {
			principalPart = w.balance
		}
		g.settlePeriod(w, paymentDate, monthsLeft, interest, principalPart, "")
	}

	if len(w.schedule) == constants.MaxSchedulePeriods && w.balance.IsPositive() {
		g.logger.Warn(fmt.Sprintf("schedule truncated at %d periods with balance %s outstanding",
			constants.MaxSchedulePeriods, w.balance.StringFixed(2)),
			zap.String("op", "schedule.Calculate"),
		)
	}

	w.foldResidue()

	return &Result{
		Summary:  buildSummary(l, w, startDate),
		Schedule: w.schedule,
		Version:  version,
		Hash:     hash,
	}, nil
}

// rederive recomputes the forward payment target from the current
// balance, rate, and remaining months.
func (w *walk) rederive(monthsLeft int) {
	if w.loan.PaymentType == loan.PaymentAnnuity {
		w.basePayment = AnnuityPayment(w.balance, w.currentRate, monthsLeft)
	} else {
		w.fixedSlice = differentiatedSlice(w.balance, monthsLeft)
	}
}

// settlePeriod subtracts the scheduled principal, runs the extra-payment
// pass, accumulates the totals, and appends the schedule entry.
func (g *Generator) settlePeriod(w *walk, paymentDate time.Time, monthsLeft int,
	interest, principalPart decimal.Decimal, baseTag string) {

	payment := money.Round(principalPart.Add(interest))
	w.balance = money.Round(w.balance.Sub(principalPart))

	monthExtra := decimal.Zero
	var tags []string
	if baseTag != "" {
		tags = append(tags, baseTag)
	}

	for _, ex := range w.extras {
		count := occurrences(ex, w.prevDate, paymentDate)
		if count == 0 || !ex.Amount.IsPositive() {
			continue
		}
		applied := decimal.Zero
		for n := 0; n < count && w.balance.IsPositive(); n++ {
			amount := money.Round(ex.Amount)
			if amount.GreaterThan(w.balance) {
				g.logger.Debug(fmt.Sprintf("%s: capping extra payment %s to remaining balance %s",
					paymentDate.Format(datetime.DateLayout), amount.StringFixed(2), w.balance.StringFixed(2)),
					zap.String("op", "schedule.Calculate"),
				)
				amount = w.balance
			}
			w.balance = money.Round(w.balance.Sub(amount))
			applied = applied.Add(amount)
		}
		if applied.IsZero() {
			continue
		}
		monthExtra = monthExtra.Add(applied)
		tags = append(tags, fmt.Sprintf("EXTRA_%s_%s", ex.Mode, ex.Strategy))

		// REDUCE_PAYMENT rebalances the forward target against the new
		// balance and one fewer period; REDUCE_TERM leaves the target
		// alone so the payoff shortens instead.
		if ex.Strategy == loan.ReducePayment && w.balance.IsPositive() {
			forward := monthsLeft - 1
			if forward < 1 {
				forward = 1
			}
			if w.loan.PaymentType == loan.PaymentAnnuity {
				w.basePayment = AnnuityPayment(w.balance, w.currentRate, forward)
			} else {
				w.fixedSlice = differentiatedSlice(w.balance, forward)
			}
		}
	}

	w.paidTotal = w.paidTotal.Add(payment).Add(monthExtra)
	w.paidInterest = w.paidInterest.Add(interest)
	w.paidPrincipal = w.paidPrincipal.Add(principalPart).Add(monthExtra)

	w.schedule = append(w.schedule, Entry{
		Date:       paymentDate,
		Payment:    money.Round(payment.Add(monthExtra)),
		Interest:   interest,
		Principal:  money.Round(principalPart.Add(monthExtra)),
		Balance:    w.balance,
		AnnualRate: money.Round(w.currentRate),
		Event:      joinTags(tags),
	})
	w.prevDate = paymentDate
}

// accrueInterest computes one period's interest under the loan's accrual
// mode. ACT_365 is sensitive to actual period length; MONTHLY is not.
func accrueInterest(l *loan.Loan, balance, rate decimal.Decimal, prevDate, paymentDate time.Time) decimal.Decimal {
	if l.AccrualMode == loan.AccrualAct365 {
		days := datetime.DaysBetween(prevDate, paymentDate)
		if days < 1 {
			days = 1
		}
		return money.Round(balance.Mul(rate).
			Div(decimal.NewFromInt(constants.PercentageMultiplier)).
			Mul(decimal.NewFromInt(int64(days))).
			Div(decimal.NewFromInt(constants.DaysPerYear)))
	}
	return money.Round(balance.Mul(rate.Div(ratePeriods)))
}

// foldResidue absorbs a sub-tolerance rounding residue into the final
// entry so a naturally completed schedule reports a balance of exactly
// 0.00.
func (w *walk) foldResidue() {
	if len(w.schedule) == 0 {
		return
	}
	last := &w.schedule[len(w.schedule)-1]
	tolerance := money.MustDecimal(constants.ResidueTolerance)
	if last.Balance.IsPositive() && last.Balance.LessThan(tolerance) {
		tail := last.Balance
		last.Balance = decimal.Zero
		last.Principal = money.Round(last.Principal.Add(tail))
		last.Payment = money.Round(last.Payment.Add(tail))
		w.paidTotal = w.paidTotal.Add(tail)
		w.paidPrincipal = w.paidPrincipal.Add(tail)
	}
}

func buildSummary(l *loan.Loan, w *walk, startDate time.Time) Summary {
	summary := Summary{
		Principal:           money.Round(l.Principal),
		RemainingBalance:    money.Round(l.CurrentPrincipal),
		MonthlyPayment:      decimal.Zero,
		TotalPaid:           money.Round(w.paidTotal),
		TotalInterest:       money.Round(w.paidInterest),
		TotalPrincipalPaid:  money.Round(w.paidPrincipal),
		PaidPrincipalToDate: money.Round(l.Principal.Sub(l.CurrentPrincipal)),
		PaymentsCount:       len(w.schedule),
		ScheduleStartDate:   startDate,
		OneTimeCosts:        money.Round(l.OneTimeCosts),
	}
	if len(w.schedule) > 0 {
		summary.MonthlyPayment = w.schedule[0].Payment
		summary.NextPayment = &w.schedule[0]
		payoff := w.schedule[len(w.schedule)-1].Date
		summary.PayoffDate = &payoff
	}
	summary.InsuranceTotal = money.Round(l.InsuranceMonthly.Mul(decimal.NewFromInt(int64(len(w.schedule)))))
	summary.TotalFutureCost = money.Round(w.paidTotal.Add(summary.InsuranceTotal).Add(l.OneTimeCosts))
	return summary
}

func matchHoliday(holidays []loan.Holiday, paymentDate time.Time) (loan.Holiday, bool) {
	// Only the first matching window applies; overlaps never stack.
	for _, h := range holidays {
		if !paymentDate.Before(h.StartDate) && !paymentDate.After(h.EndDate) {
			return h, true
		}
	}
	return loan.Holiday{}, false
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}
