// Package schedule implements the deterministic loan-amortization engine:
// the annuity formula, extra-payment recurrence counting, and the
// period-by-period schedule generator.
package schedule

import (
	"github.com/akarpov/loan-schedule/pkg/constants"
	"github.com/akarpov/loan-schedule/pkg/money"
	"github.com/shopspring/decimal"
)

var ratePeriods = decimal.NewFromInt(constants.MonthsPerYear * constants.PercentageMultiplier)

// AnnuityPayment computes the fixed total payment that amortizes the
// principal over the given number of months at the given annual rate
// (percent):
//
//	payment = principal * i * (1+i)^n / ((1+i)^n - 1), i = rate/12/100
//
// A non-positive rate degenerates to principal/months. A non-positive
// month count or principal yields zero. The result is money-rounded.
func AnnuityPayment(principal, annualRate decimal.Decimal, months int) decimal.Decimal {
	if months <= 0 || !principal.IsPositive() {
		return decimal.Zero
	}
	if !annualRate.IsPositive() {
		return money.Round(principal.Div(decimal.NewFromInt(int64(months))))
	}
	i := annualRate.Div(ratePeriods)
	factor := decimal.NewFromInt(1).Add(i).Pow(decimal.NewFromInt(int64(months)))
	payment := principal.Mul(i).Mul(factor).Div(factor.Sub(decimal.NewFromInt(1)))
	return money.Round(payment)
}

// differentiatedSlice is the fixed principal portion of a differentiated
// schedule: the balance spread evenly over the remaining months.
func differentiatedSlice(balance decimal.Decimal, months int) decimal.Decimal {
	if months < 1 {
		months = 1
	}
	return money.Round(balance.Div(decimal.NewFromInt(int64(months))))
}
