package config

import (
	"fmt"
	"time"

	"github.com/akarpov/loan-schedule/pkg/constants"
	"github.com/akarpov/loan-schedule/pkg/loan"
	"github.com/shopspring/decimal"
)

// ToLoan converts the configured loan terms into the engine's loan type,
// parsing decimal strings and calendar dates.
func (conf *Configuration) ToLoan() (*loan.Loan, error) {
	principal, err := parseAmount(conf.Loan.Principal, "loan.principal")
	if err != nil {
		return nil, err
	}
	currentPrincipal, err := parseAmount(conf.Loan.CurrentPrincipal, "loan.currentPrincipal")
	if err != nil {
		return nil, err
	}
	annualRate, err := parseAmount(conf.Loan.AnnualRate, "loan.annualRate")
	if err != nil {
		return nil, err
	}
	insurance, err := parseAmount(conf.Loan.InsuranceMonthly, "loan.insuranceMonthly")
	if err != nil {
		return nil, err
	}
	oneTimeCosts, err := parseAmount(conf.Loan.OneTimeCosts, "loan.oneTimeCosts")
	if err != nil {
		return nil, err
	}
	firstPayment, err := parseDate(conf.Loan.FirstPaymentDate, "loan.firstPaymentDate")
	if err != nil {
		return nil, err
	}
	issueDate, err := parseOptionalDate(conf.Loan.IssueDate, "loan.issueDate")
	if err != nil {
		return nil, err
	}
	calcDate, err := parseOptionalDate(conf.Loan.CalcDate, "loan.calcDate")
	if err != nil {
		return nil, err
	}

	return &loan.Loan{
		Principal:        principal,
		CurrentPrincipal: currentPrincipal,
		AnnualRate:       annualRate,
		PaymentType:      loan.PaymentType(conf.Loan.PaymentType),
		TermMonths:       conf.Loan.TermMonths,
		FirstPaymentDate: firstPayment,
		IssueDate:        issueDate,
		Currency:         conf.Loan.Currency,
		CalcDate:         calcDate,
		AccrualMode:      loan.AccrualMode(conf.Loan.AccrualMode),
		InsuranceMonthly: insurance,
		OneTimeCosts:     oneTimeCosts,
	}, nil
}

// ToEvents converts the configured events into the engine's event union,
// preserving the listed order.
func (conf *Configuration) ToEvents() ([]loan.Event, error) {
	var events []loan.Event
	for i, ec := range conf.Events {
		event, err := convertEvent(ec)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, event)
	}
	return events, nil
}

func convertEvent(ec EventConfig) (loan.Event, error) {
	switch ec.Type {
	case "extraPayment":
		date, err := parseDate(ec.Date, "date")
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(ec.Amount, "amount")
		if err != nil {
			return nil, err
		}
		endDate, err := parseOptionalDate(ec.EndDate, "endDate")
		if err != nil {
			return nil, err
		}
		mode := loan.ExtraMode(ec.Mode)
		switch mode {
		case loan.ExtraOneTime, loan.ExtraMonthly, loan.ExtraWeekly, loan.ExtraBiweekly, loan.ExtraYearly:
		default:
			return nil, fmt.Errorf("unknown extra payment mode %q", ec.Mode)
		}
		strategy := loan.ExtraStrategy(ec.Strategy)
		switch strategy {
		case loan.ReduceTerm, loan.ReducePayment:
		default:
			return nil, fmt.Errorf("unknown extra payment strategy %q", ec.Strategy)
		}
		return loan.ExtraPayment{
			Date:     date,
			Amount:   amount,
			Mode:     mode,
			Strategy: strategy,
			EndDate:  endDate,
		}, nil
	case "rateChange":
		date, err := parseDate(ec.Date, "date")
		if err != nil {
			return nil, err
		}
		rate, err := parseAmount(ec.AnnualRate, "annualRate")
		if err != nil {
			return nil, err
		}
		return loan.RateChange{Date: date, AnnualRate: rate}, nil
	case "holiday":
		start, err := parseDate(ec.StartDate, "startDate")
		if err != nil {
			return nil, err
		}
		end, err := parseDate(ec.EndDate, "endDate")
		if err != nil {
			return nil, err
		}
		holidayType := loan.HolidayType(ec.Holiday)
		switch holidayType {
		case loan.HolidayInterestOnly, loan.HolidayPauseCapitalize:
		default:
			return nil, fmt.Errorf("unknown holiday type %q", ec.Holiday)
		}
		return loan.Holiday{
			StartDate: start,
			EndDate:   end,
			Type:      holidayType,
		}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", ec.Type)
	}
}

func parseAmount(value, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q", field, value)
	}
	return d, nil
}

func parseDate(value, field string) (time.Time, error) {
	t, err := time.Parse(constants.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid date %q, expected %s", field, value, constants.DateLayout)
	}
	return t, nil
}

func parseOptionalDate(value, field string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value, field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
