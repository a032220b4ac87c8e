package loan

import (
	"testing"

	"github.com/akarpov/loan-schedule/pkg/datetime"
	"github.com/akarpov/loan-schedule/pkg/money"
)

func sampleEvents() []Event {
	return []Event{
		ExtraPayment{
			Date:     datetime.MustParseDate("2026-04-03"),
			Amount:   money.MustDecimal("100000.00"),
			Mode:     ExtraOneTime,
			Strategy: ReduceTerm,
		},
		RateChange{
			Date:       datetime.MustParseDate("2026-09-03"),
			AnnualRate: money.MustDecimal("10.90"),
		},
		Holiday{
			StartDate: datetime.MustParseDate("2026-06-03"),
			EndDate:   datetime.MustParseDate("2026-08-03"),
			Type:      HolidayInterestOnly,
		},
	}
}

func TestVersionHashIsDeterministic(t *testing.T) {
	l := validLoan()
	v1, h1, err := VersionHash(&l, sampleEvents())
	if err != nil {
		t.Fatalf("VersionHash() error: %v", err)
	}
	v2, h2, err := VersionHash(&l, sampleEvents())
	if err != nil {
		t.Fatalf("VersionHash() error: %v", err)
	}
	if h1 != h2 || v1 != v2 {
		t.Errorf("identical inputs produced different hashes: %s vs %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("expected a 64-character hex digest, got %d characters", len(h1))
	}
	if v1 <= 0 {
		t.Errorf("version token should be a positive integer, got %d", v1)
	}
}

func TestVersionHashIgnoresEventOrder(t *testing.T) {
	l := validLoan()
	events := sampleEvents()
	reversed := []Event{events[2], events[0], events[1]}

	_, h1, err := VersionHash(&l, events)
	if err != nil {
		t.Fatalf("VersionHash() error: %v", err)
	}
	_, h2, err := VersionHash(&l, reversed)
	if err != nil {
		t.Fatalf("VersionHash() error: %v", err)
	}
	if h1 != h2 {
		t.Errorf("event order changed the hash: %s vs %s", h1, h2)
	}
}

func TestVersionHashChangesOnFieldChange(t *testing.T) {
	base := validLoan()
	_, baseHash, err := VersionHash(&base, sampleEvents())
	if err != nil {
		t.Fatalf("VersionHash() error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Loan)
	}{
		{
			name:   "Rate change",
			mutate: func(l *Loan) { l.AnnualRate = money.MustDecimal("12.91") },
		},
		{
			name:   "Term change",
			mutate: func(l *Loan) { l.TermMonths = 239 },
		},
		{
			name:   "Current principal change",
			mutate: func(l *Loan) { l.CurrentPrincipal = money.MustDecimal("3400000.00") },
		},
		{
			name:   "Currency change",
			mutate: func(l *Loan) { l.Currency = "USD" },
		},
		{
			name:   "Accrual mode change",
			mutate: func(l *Loan) { l.AccrualMode = AccrualAct365 },
		},
		{
			name:   "Insurance change",
			mutate: func(l *Loan) { l.InsuranceMonthly = money.MustDecimal("1500.00") },
		},
		{
			name: "Issue date set",
			mutate: func(l *Loan) {
				d := datetime.MustParseDate("2026-02-10")
				l.IssueDate = &d
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := validLoan()
			tt.mutate(&l)
			_, h, err := VersionHash(&l, sampleEvents())
			if err != nil {
				t.Fatalf("VersionHash() error: %v", err)
			}
			if h == baseHash {
				t.Error("field change did not change the hash")
			}
		})
	}
}

func TestVersionHashChangesOnEventSetChange(t *testing.T) {
	l := validLoan()
	events := sampleEvents()

	_, baseHash, err := VersionHash(&l, events)
	if err != nil {
		t.Fatalf("VersionHash() error: %v", err)
	}

	_, fewer, err := VersionHash(&l, events[:2])
	if err != nil {
		t.Fatalf("VersionHash() error: %v", err)
	}
	if fewer == baseHash {
		t.Error("removing an event did not change the hash")
	}

	modified := sampleEvents()
	modified[0] = ExtraPayment{
		Date:     datetime.MustParseDate("2026-04-03"),
		Amount:   money.MustDecimal("100000.01"),
		Mode:     ExtraOneTime,
		Strategy: ReduceTerm,
	}
	_, changed, err := VersionHash(&l, modified)
	if err != nil {
		t.Fatalf("VersionHash() error: %v", err)
	}
	if changed == baseHash {
		t.Error("modifying an event amount did not change the hash")
	}

	_, none, err := VersionHash(&l, nil)
	if err != nil {
		t.Fatalf("VersionHash() error: %v", err)
	}
	if none == baseHash {
		t.Error("an empty event set should hash differently from a populated one")
	}
}
