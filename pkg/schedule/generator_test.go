package schedule

import (
	"errors"
	"strings"
	"testing"

	"github.com/akarpov/loan-schedule/pkg/datetime"
	"github.com/akarpov/loan-schedule/pkg/loan"
	"github.com/akarpov/loan-schedule/pkg/money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func baseLoan() loan.Loan {
	issue := datetime.MustParseDate("2026-02-10")
	calc := datetime.MustParseDate("2026-02-14")
	return loan.Loan{
		Principal:        money.MustDecimal("3500000.00"),
		CurrentPrincipal: money.MustDecimal("3500000.00"),
		AnnualRate:       money.MustDecimal("12.90"),
		PaymentType:      loan.PaymentAnnuity,
		TermMonths:       240,
		FirstPaymentDate: datetime.MustParseDate("2026-03-03"),
		IssueDate:        &issue,
		Currency:         "RUB",
		CalcDate:         &calc,
		AccrualMode:      loan.AccrualMonthly,
		InsuranceMonthly: decimal.Zero,
		OneTimeCosts:     decimal.Zero,
	}
}

func calculate(t *testing.T, l loan.Loan, events []loan.Event) *Result {
	t.Helper()
	result, err := NewGenerator(zap.NewNop()).Calculate(&l, events)
	if err != nil {
		t.Fatalf("Calculate() error: %v", err)
	}
	return result
}

func principalSum(schedule []Entry) decimal.Decimal {
	sum := decimal.Zero
	for _, entry := range schedule {
		sum = sum.Add(entry.Principal)
	}
	return sum
}

func TestAnnuityWithoutEvents(t *testing.T) {
	l := baseLoan()
	result := calculate(t, l, nil)

	if len(result.Schedule) != 240 {
		t.Fatalf("schedule length = %d, expected 240", len(result.Schedule))
	}
	if result.Summary.PaymentsCount != 240 {
		t.Errorf("payments count = %d, expected 240", result.Summary.PaymentsCount)
	}

	final := result.Schedule[len(result.Schedule)-1]
	if final.Balance.StringFixed(2) != "0.00" {
		t.Errorf("final balance = %s, expected 0.00", final.Balance.StringFixed(2))
	}

	sum := principalSum(result.Schedule)
	if !money.WithinTolerance(sum, l.CurrentPrincipal, money.MustDecimal("0.01")) {
		t.Errorf("principal sum %s differs from current principal %s by more than 0.01",
			sum.StringFixed(2), l.CurrentPrincipal.StringFixed(2))
	}

	if result.Summary.ScheduleStartDate.Format(datetime.DateLayout) != "2026-03-03" {
		t.Errorf("schedule start = %s, expected 2026-03-03",
			result.Summary.ScheduleStartDate.Format(datetime.DateLayout))
	}
	if result.Summary.PayoffDate == nil || result.Summary.PayoffDate.Format(datetime.DateLayout) != "2046-02-03" {
		t.Errorf("unexpected payoff date %v", result.Summary.PayoffDate)
	}
	if result.Summary.NextPayment == nil || !result.Summary.NextPayment.Date.Equal(result.Schedule[0].Date) {
		t.Error("next payment should point at the first schedule entry")
	}

	for i := 1; i < len(result.Schedule); i++ {
		if result.Schedule[i].Balance.GreaterThan(result.Schedule[i-1].Balance) {
			t.Fatalf("balance increased at period %d without a capitalizing holiday", i)
		}
	}
}

func TestZeroRate(t *testing.T) {
	l := baseLoan()
	l.AnnualRate = decimal.Zero
	result := calculate(t, l, nil)

	first := result.Schedule[0]
	if first.Interest.StringFixed(2) != "0.00" {
		t.Errorf("period-0 interest = %s, expected 0.00", first.Interest.StringFixed(2))
	}
	if first.Payment.StringFixed(2) != "14583.33" {
		t.Errorf("period-0 payment = %s, expected 14583.33", first.Payment.StringFixed(2))
	}
	if result.Summary.TotalInterest.StringFixed(2) != "0.00" {
		t.Errorf("total interest = %s, expected 0.00", result.Summary.TotalInterest.StringFixed(2))
	}
	for i, entry := range result.Schedule {
		if !entry.Interest.IsZero() {
			t.Fatalf("period %d accrued interest %s at a zero rate", i, entry.Interest)
		}
	}
}

func TestReduceTermBeatsReducePayment(t *testing.T) {
	l := baseLoan()
	extraTerm := []loan.Event{loan.ExtraPayment{
		Date:     datetime.MustParseDate("2026-04-03"),
		Amount:   money.MustDecimal("100000.00"),
		Mode:     loan.ExtraOneTime,
		Strategy: loan.ReduceTerm,
	}}
	extraPayment := []loan.Event{loan.ExtraPayment{
		Date:     datetime.MustParseDate("2026-04-03"),
		Amount:   money.MustDecimal("100000.00"),
		Mode:     loan.ExtraOneTime,
		Strategy: loan.ReducePayment,
	}}

	byTerm := calculate(t, l, extraTerm)
	byPayment := calculate(t, l, extraPayment)

	if byTerm.Summary.PaymentsCount >= byPayment.Summary.PaymentsCount {
		t.Errorf("REDUCE_TERM payments count %d should be strictly below REDUCE_PAYMENT's %d",
			byTerm.Summary.PaymentsCount, byPayment.Summary.PaymentsCount)
	}
	if !byTerm.Summary.TotalInterest.LessThan(byPayment.Summary.TotalInterest) {
		t.Errorf("REDUCE_TERM total interest %s should be strictly below REDUCE_PAYMENT's %s",
			byTerm.Summary.TotalInterest, byPayment.Summary.TotalInterest)
	}

	// The rebalanced payment must drop below the original target from the
	// period after the extra payment onward.
	if !byPayment.Schedule[2].Payment.LessThan(byPayment.Schedule[0].Payment) {
		t.Error("REDUCE_PAYMENT should lower the forward payment")
	}
}

func TestExtraPaymentLargerThanBalance(t *testing.T) {
	l := baseLoan()
	events := []loan.Event{loan.ExtraPayment{
		Date:     datetime.MustParseDate("2026-03-03"),
		Amount:   money.MustDecimal("99999999.00"),
		Mode:     loan.ExtraOneTime,
		Strategy: loan.ReduceTerm,
	}}
	result := calculate(t, l, events)

	if len(result.Schedule) > 2 {
		t.Errorf("schedule has %d periods, expected at most 2", len(result.Schedule))
	}
	final := result.Schedule[len(result.Schedule)-1]
	if final.Balance.StringFixed(2) != "0.00" {
		t.Errorf("final balance = %s, expected 0.00", final.Balance.StringFixed(2))
	}
	if !strings.Contains(result.Schedule[0].Event, "EXTRA_ONE_TIME_REDUCE_TERM") {
		t.Errorf("first entry tag = %q, expected an extra-payment annotation", result.Schedule[0].Event)
	}
}

func TestRateChange(t *testing.T) {
	l := baseLoan()
	baseline := calculate(t, l, nil)
	changed := calculate(t, l, []loan.Event{loan.RateChange{
		Date:       datetime.MustParseDate("2026-09-03"),
		AnnualRate: money.MustDecimal("10.90"),
	}})

	if changed.Summary.TotalInterest.Equal(baseline.Summary.TotalInterest) {
		t.Error("a mid-schedule rate change should move total interest")
	}

	newRate := money.MustDecimal("10.90")
	effective := datetime.MustParseDate("2026-09-03")
	for _, entry := range changed.Schedule {
		if entry.Date.Before(effective) {
			if !entry.AnnualRate.Equal(money.MustDecimal("12.90")) {
				t.Fatalf("%s: rate %s before the change, expected 12.90",
					entry.Date.Format(datetime.DateLayout), entry.AnnualRate)
			}
		} else if !entry.AnnualRate.Equal(newRate) {
			t.Fatalf("%s: rate %s after the change, expected 10.90",
				entry.Date.Format(datetime.DateLayout), entry.AnnualRate)
		}
	}
}

func TestRateChangeBeforeStartSetsInitialRate(t *testing.T) {
	l := baseLoan()
	result := calculate(t, l, []loan.Event{loan.RateChange{
		Date:       datetime.MustParseDate("2026-02-20"),
		AnnualRate: money.MustDecimal("9.90"),
	}})
	if !result.Schedule[0].AnnualRate.Equal(money.MustDecimal("9.90")) {
		t.Errorf("period-0 rate = %s, expected the pre-start change 9.90", result.Schedule[0].AnnualRate)
	}
}

func TestHolidayInterestOnly(t *testing.T) {
	l := baseLoan()
	result := calculate(t, l, []loan.Event{loan.Holiday{
		StartDate: datetime.MustParseDate("2026-06-03"),
		EndDate:   datetime.MustParseDate("2026-08-03"),
		Type:      loan.HolidayInterestOnly,
	}})

	inWindow := 0
	for _, entry := range result.Schedule {
		date := entry.Date.Format(datetime.DateLayout)
		if date >= "2026-06-03" && date <= "2026-08-03" {
			inWindow++
			if entry.Principal.StringFixed(2) != "0.00" {
				t.Errorf("%s: principal %s inside an interest-only holiday", date, entry.Principal)
			}
			if !entry.Interest.IsPositive() {
				t.Errorf("%s: interest should stay positive inside the window", date)
			}
			if entry.Event != "HOLIDAY_INTEREST_ONLY" {
				t.Errorf("%s: tag %q, expected HOLIDAY_INTEREST_ONLY", date, entry.Event)
			}
		}
	}
	if inWindow != 3 {
		t.Errorf("%d periods fell in the holiday window, expected 3", inWindow)
	}
	if !result.Summary.TotalInterest.IsPositive() {
		t.Error("total interest should be positive")
	}
}

func TestHolidayPauseCapitalize(t *testing.T) {
	l := baseLoan()
	result := calculate(t, l, []loan.Event{loan.Holiday{
		StartDate: datetime.MustParseDate("2026-06-03"),
		EndDate:   datetime.MustParseDate("2026-07-03"),
		Type:      loan.HolidayPauseCapitalize,
	}})

	var prevBalance decimal.Decimal
	seen := 0
	for i, entry := range result.Schedule {
		date := entry.Date.Format(datetime.DateLayout)
		if date >= "2026-06-03" && date <= "2026-07-03" {
			seen++
			if entry.Event != "HOLIDAY_PAUSE_CAPITALIZE" {
				t.Errorf("%s: tag %q, expected HOLIDAY_PAUSE_CAPITALIZE", date, entry.Event)
			}
			if entry.Payment.StringFixed(2) != "0.00" {
				t.Errorf("%s: payment %s during a capitalizing pause", date, entry.Payment)
			}
			if i > 0 && !entry.Balance.GreaterThan(prevBalance) {
				t.Errorf("%s: balance did not grow while interest capitalizes", date)
			}
		}
		prevBalance = entry.Balance
	}
	if seen != 2 {
		t.Errorf("%d capitalizing periods, expected 2", seen)
	}

	final := result.Schedule[len(result.Schedule)-1]
	if final.Balance.StringFixed(2) != "0.00" {
		t.Errorf("final balance = %s, expected 0.00 after the pause ends", final.Balance.StringFixed(2))
	}
}

func TestOverlappingHolidaysDoNotStack(t *testing.T) {
	l := baseLoan()
	result := calculate(t, l, []loan.Event{
		loan.Holiday{
			StartDate: datetime.MustParseDate("2026-06-03"),
			EndDate:   datetime.MustParseDate("2026-07-03"),
			Type:      loan.HolidayInterestOnly,
		},
		loan.Holiday{
			StartDate: datetime.MustParseDate("2026-06-03"),
			EndDate:   datetime.MustParseDate("2026-08-03"),
			Type:      loan.HolidayPauseCapitalize,
		},
	})

	for _, entry := range result.Schedule {
		date := entry.Date.Format(datetime.DateLayout)
		if date == "2026-06-03" || date == "2026-07-03" {
			if entry.Event != "HOLIDAY_INTEREST_ONLY" {
				t.Errorf("%s: tag %q, expected the first listed holiday to win", date, entry.Event)
			}
		}
	}
}

func TestDifferentiatedWithoutEvents(t *testing.T) {
	l := baseLoan()
	l.PaymentType = loan.PaymentDifferentiated
	l.Principal = money.MustDecimal("1200000.00")
	l.CurrentPrincipal = money.MustDecimal("1200000.00")
	l.TermMonths = 120
	result := calculate(t, l, nil)

	if len(result.Schedule) != 120 {
		t.Fatalf("schedule length = %d, expected 120", len(result.Schedule))
	}
	final := result.Schedule[len(result.Schedule)-1]
	if final.Balance.StringFixed(2) != "0.00" {
		t.Errorf("final balance = %s, expected 0.00", final.Balance.StringFixed(2))
	}

	sum := principalSum(result.Schedule)
	if !money.WithinTolerance(sum, l.CurrentPrincipal, money.MustDecimal("0.01")) {
		t.Errorf("principal sum %s differs from current principal %s",
			sum.StringFixed(2), l.CurrentPrincipal.StringFixed(2))
	}

	// Total payment declines as interest shrinks on the falling balance.
	if !result.Schedule[1].Payment.LessThan(result.Schedule[0].Payment) {
		t.Error("differentiated payments should decrease over time")
	}
	if result.Schedule[0].Principal.StringFixed(2) != "10000.00" {
		t.Errorf("fixed principal slice = %s, expected 10000.00", result.Schedule[0].Principal)
	}
}

func TestMidLifeLoanUsesElapsedMonths(t *testing.T) {
	calc := datetime.MustParseDate("2026-02-14")
	issue := datetime.MustParseDate("2020-02-10")
	l := loan.Loan{
		Principal:        money.MustDecimal("5000000.00"),
		CurrentPrincipal: money.MustDecimal("3200000.00"),
		AnnualRate:       money.MustDecimal("11.50"),
		PaymentType:      loan.PaymentAnnuity,
		TermMonths:       240,
		FirstPaymentDate: datetime.MustParseDate("2020-03-03"),
		IssueDate:        &issue,
		Currency:         "RUB",
		CalcDate:         &calc,
		AccrualMode:      loan.AccrualMonthly,
	}
	result := calculate(t, l, nil)

	// 72 whole months elapsed between 2020-03-03 and 2026-03-03, so 168
	// planned periods remain.
	if result.Summary.ScheduleStartDate.Format(datetime.DateLayout) != "2026-03-03" {
		t.Errorf("schedule start = %s, expected 2026-03-03",
			result.Summary.ScheduleStartDate.Format(datetime.DateLayout))
	}
	if len(result.Schedule) != 168 {
		t.Errorf("schedule length = %d, expected 168", len(result.Schedule))
	}
	if !result.Summary.MonthlyPayment.IsPositive() {
		t.Error("monthly payment should be positive")
	}
	if result.Summary.RemainingBalance.StringFixed(2) != "3200000.00" {
		t.Errorf("remaining balance = %s, expected the current principal",
			result.Summary.RemainingBalance.StringFixed(2))
	}
	if result.Summary.PaidPrincipalToDate.StringFixed(2) != "1800000.00" {
		t.Errorf("paid principal to date = %s, expected 1800000.00",
			result.Summary.PaidPrincipalToDate.StringFixed(2))
	}
}

func TestAct365AccrualIsPeriodLengthSensitive(t *testing.T) {
	l := baseLoan()
	l.AccrualMode = loan.AccrualAct365
	l.IssueDate = nil
	result := calculate(t, l, nil)

	// First period runs 2026-02-03 .. 2026-03-03: 28 days.
	// 3500000 * 12.90% * 28/365 = 34635.62 after money rounding.
	first := result.Schedule[0]
	expected := money.Round(money.MustDecimal("3500000.00").
		Mul(money.MustDecimal("12.90")).Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromInt(28)).Div(decimal.NewFromInt(365)))
	if !first.Interest.Equal(expected) {
		t.Errorf("first-period interest = %s, expected %s", first.Interest, expected)
	}

	// The 31-day March..April period accrues more per unit of balance
	// than the 28-day February..March period.
	monthly := baseLoan()
	monthly.IssueDate = nil
	flat := calculate(t, monthly, nil)
	if first.Interest.Equal(flat.Schedule[0].Interest) {
		t.Error("ACT_365 interest should differ from flat monthly accrual over a 28-day period")
	}
}

func TestMonthlyRecurringExtraFiresEveryPeriod(t *testing.T) {
	l := baseLoan()
	end := datetime.MustParseDate("2026-08-03")
	result := calculate(t, l, []loan.Event{loan.ExtraPayment{
		Date:     datetime.MustParseDate("2026-04-03"),
		Amount:   money.MustDecimal("50000.00"),
		Mode:     loan.ExtraMonthly,
		Strategy: loan.ReduceTerm,
		EndDate:  &end,
	}})

	tagged := 0
	for _, entry := range result.Schedule {
		if strings.Contains(entry.Event, "EXTRA_MONTHLY_REDUCE_TERM") {
			tagged++
		}
	}
	// 2026-04-03 .. 2026-08-03 inclusive: five firings.
	if tagged != 5 {
		t.Errorf("%d periods carry the recurring extra, expected 5", tagged)
	}

	baseline := calculate(t, l, nil)
	if result.Summary.PaymentsCount >= baseline.Summary.PaymentsCount {
		t.Error("recurring extras under REDUCE_TERM should shorten the schedule")
	}
}

func TestValidationFailsBeforeAnyOutput(t *testing.T) {
	l := baseLoan()
	l.TermMonths = 601
	result, err := NewGenerator(nil).Calculate(&l, nil)
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if !errors.Is(err, loan.ErrValidation) {
		t.Errorf("error %v does not wrap ErrValidation", err)
	}
	if result != nil {
		t.Error("no partial result may be produced on a validation failure")
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	l := baseLoan()
	events := []loan.Event{
		loan.ExtraPayment{
			Date:     datetime.MustParseDate("2026-04-03"),
			Amount:   money.MustDecimal("100000.00"),
			Mode:     loan.ExtraOneTime,
			Strategy: loan.ReducePayment,
		},
		loan.RateChange{
			Date:       datetime.MustParseDate("2027-01-03"),
			AnnualRate: money.MustDecimal("11.00"),
		},
	}

	first := calculate(t, l, events)
	second := calculate(t, l, events)

	if first.Hash != second.Hash || first.Version != second.Version {
		t.Error("identical inputs must produce identical hashes")
	}
	if first.Summary.TotalPaid.Cmp(second.Summary.TotalPaid) != 0 ||
		first.Summary.PaymentsCount != second.Summary.PaymentsCount {
		t.Error("identical inputs must produce identical summaries")
	}
	if len(first.Schedule) != len(second.Schedule) {
		t.Fatal("identical inputs must produce identical schedules")
	}
	for i := range first.Schedule {
		if first.Schedule[i].Balance.Cmp(second.Schedule[i].Balance) != 0 {
			t.Fatalf("schedules diverge at period %d", i)
		}
	}
}

func TestInsuranceAndOneTimeCostsRollIntoFutureCost(t *testing.T) {
	l := baseLoan()
	l.InsuranceMonthly = money.MustDecimal("1500.00")
	l.OneTimeCosts = money.MustDecimal("25000.00")
	result := calculate(t, l, nil)

	expectedInsurance := money.Round(money.MustDecimal("1500.00").
		Mul(decimal.NewFromInt(int64(result.Summary.PaymentsCount))))
	if !result.Summary.InsuranceTotal.Equal(expectedInsurance) {
		t.Errorf("insurance total = %s, expected %s", result.Summary.InsuranceTotal, expectedInsurance)
	}
	expectedFuture := money.Round(result.Summary.TotalPaid.
		Add(expectedInsurance).Add(money.MustDecimal("25000.00")))
	if !result.Summary.TotalFutureCost.Equal(expectedFuture) {
		t.Errorf("total future cost = %s, expected %s", result.Summary.TotalFutureCost, expectedFuture)
	}
}

func TestInputsAreNotMutated(t *testing.T) {
	l := baseLoan()
	original := l
	events := []loan.Event{
		loan.RateChange{Date: datetime.MustParseDate("2027-01-03"), AnnualRate: money.MustDecimal("11.00")},
		loan.RateChange{Date: datetime.MustParseDate("2026-06-03"), AnnualRate: money.MustDecimal("12.00")},
	}
	calculate(t, l, events)

	if !l.AnnualRate.Equal(original.AnnualRate) || !l.CurrentPrincipal.Equal(original.CurrentPrincipal) {
		t.Error("loan terms were mutated")
	}
	// The caller's event order must survive the generator's sorting.
	first, ok := events[0].(loan.RateChange)
	if !ok || first.Date.Format(datetime.DateLayout) != "2027-01-03" {
		t.Error("the caller's event slice was reordered")
	}
}
