// Package output provides utilities for formatting and displaying
// calculated schedules.
package output

import (
	"fmt"
	"io"

	"github.com/akarpov/loan-schedule/pkg/constants"
	"github.com/akarpov/loan-schedule/pkg/schedule"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, result *schedule.Result) {
	p := message.NewPrinter(language.English)

	fmt.Fprintf(w, "--- Summary (version %d, hash %s) ---\n", result.Version, result.Hash)
	_, _ = p.Fprintf(w, "Principal:            %.2f\n", toFloat(result.Summary.Principal))
	_, _ = p.Fprintf(w, "Remaining balance:    %.2f\n", toFloat(result.Summary.RemainingBalance))
	_, _ = p.Fprintf(w, "Monthly payment:      %.2f\n", toFloat(result.Summary.MonthlyPayment))
	_, _ = p.Fprintf(w, "Total to be paid:     %.2f\n", toFloat(result.Summary.TotalPaid))
	_, _ = p.Fprintf(w, "Total interest:       %.2f\n", toFloat(result.Summary.TotalInterest))
	_, _ = p.Fprintf(w, "Total future cost:    %.2f\n", toFloat(result.Summary.TotalFutureCost))
	fmt.Fprintf(w, "Payments:             %d\n", result.Summary.PaymentsCount)
	if result.Summary.PayoffDate != nil {
		fmt.Fprintf(w, "Payoff date:          %s\n", result.Summary.PayoffDate.Format(constants.DateLayout))
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "Date       | Payment       | Interest      | Principal     | Balance         | Events\n")
	fmt.Fprintf(w, "____       | _______       | ________      | _________     | _______         | ______\n")
	for _, entry := range result.Schedule {
		_, _ = p.Fprintf(w, "%s | %13.2f | %13.2f | %13.2f | %15.2f | %s\n",
			entry.Date.Format(constants.DateLayout),
			toFloat(entry.Payment),
			toFloat(entry.Interest),
			toFloat(entry.Principal),
			toFloat(entry.Balance),
			entry.Event,
		)
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(w io.Writer, result *schedule.Result) {
	fmt.Fprintf(w, `"date","payment","interest","principal","balance","annual_rate","events"`)
	fmt.Fprintf(w, "\n")
	for _, entry := range result.Schedule {
		fields := []string{
			entry.Date.Format(constants.DateLayout),
			entry.Payment.StringFixed(2),
			entry.Interest.StringFixed(2),
			entry.Principal.StringFixed(2),
			entry.Balance.StringFixed(2),
			entry.AnnualRate.StringFixed(2),
			entry.Event,
		}
		for i, field := range fields {
			if i > 0 {
				fmt.Fprintf(w, ",")
			}
			fmt.Fprintf(w, `"%s"`, field)
		}
		fmt.Fprintf(w, "\n")
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
