package loan

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/akarpov/loan-schedule/pkg/constants"
)

// VersionHash builds the canonical content hash of (loan terms, event
// set). Decimals serialize as exact decimal strings and dates as ISO
// calendar dates; events are sorted by their serialized form so the
// caller's insertion order is irrelevant. The full hex digest is the
// authoritative cache key; the short integer token is parsed from its
// leading digits.
func VersionHash(l *Loan, events []Event) (int64, string, error) {
	sorted := make([]json.RawMessage, 0, len(events))
	for _, ev := range events {
		raw, err := canonicalJSON(eventPayload(ev))
		if err != nil {
			return 0, "", fmt.Errorf("serializing event: %w", err)
		}
		sorted = append(sorted, raw)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i], sorted[j]) < 0
	})

	payload := map[string]any{
		"loan": map[string]any{
			"principal":          l.Principal.String(),
			"current_principal":  l.CurrentPrincipal.String(),
			"annual_rate":        l.AnnualRate.String(),
			"payment_type":       string(l.PaymentType),
			"term_months":        l.TermMonths,
			"first_payment_date": l.FirstPaymentDate.Format(constants.DateLayout),
			"issue_date":         optionalDate(l.IssueDate),
			"currency":           l.Currency,
			"calc_date":          optionalDate(l.CalcDate),
			"accrual_mode":       string(l.AccrualMode),
			"insurance_monthly":  l.InsuranceMonthly.String(),
			"one_time_costs":     l.OneTimeCosts.String(),
		},
		"events": sorted,
	}

	raw, err := canonicalJSON(payload)
	if err != nil {
		return 0, "", fmt.Errorf("serializing loan: %w", err)
	}
	sum := sha256.Sum256(raw)
	digest := hex.EncodeToString(sum[:])
	version, err := strconv.ParseInt(digest[:constants.HashVersionDigits], 16, 64)
	if err != nil {
		return 0, "", fmt.Errorf("parsing version token: %w", err)
	}
	return version, digest, nil
}

func eventPayload(ev Event) map[string]any {
	switch e := ev.(type) {
	case ExtraPayment:
		payload := map[string]any{
			"type":     "EXTRA_PAYMENT",
			"date":     e.Date.Format(constants.DateLayout),
			"amount":   e.Amount.String(),
			"mode":     string(e.Mode),
			"strategy": string(e.Strategy),
			"end_date": optionalDate(e.EndDate),
		}
		return payload
	case RateChange:
		return map[string]any{
			"type":        "RATE_CHANGE",
			"date":        e.Date.Format(constants.DateLayout),
			"annual_rate": e.AnnualRate.String(),
		}
	case Holiday:
		return map[string]any{
			"type":         "HOLIDAY",
			"start_date":   e.StartDate.Format(constants.DateLayout),
			"end_date":     e.EndDate.Format(constants.DateLayout),
			"holiday_type": string(e.Type),
		}
	default:
		// The union is sealed; an unknown variant is a programming error.
		panic(fmt.Sprintf("unknown event type %T", ev))
	}
}

func optionalDate(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format(constants.DateLayout)
}

// canonicalJSON marshals with sorted keys, compact separators, and no
// HTML escaping, producing one deterministic byte form per value.
func canonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
