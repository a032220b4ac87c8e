// Package constants provides shared constants for the loan-schedule application.
package constants

// DateLayout is the format expected in config files and is also the output
// date format.
const DateLayout = "2006-01-02"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DaysPerYear is the day-count denominator for actual/365 accrual
	DaysPerYear = 365

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100

	// MoneyPlaces is the number of fractional digits kept on monetary values
	MoneyPlaces = 2

	// MaxTermMonths is the longest supported loan term
	MaxTermMonths = 600

	// MaxSchedulePeriods bounds the schedule loop; 100 years of monthly
	// periods, guarding against event configurations that never converge
	MaxSchedulePeriods = 1200

	// ResidueTolerance is the largest rounding residue folded into the
	// final schedule entry so the balance lands on exactly 0.00
	ResidueTolerance = "0.05"

	// HashVersionDigits is how many leading hex digits of the version
	// hash form the short integer version token
	HashVersionDigits = 8
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"
)

// Server defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultCacheTTLSeconds is how long a computed schedule stays cached
	DefaultCacheTTLSeconds = 900

	// DefaultCacheMaxEntries bounds the number of cached schedules
	DefaultCacheMaxEntries = 2048

	// DefaultMaxBodyBytes is the maximum accepted request body size (256 KB)
	DefaultMaxBodyBytes int64 = 256 * 1024
)
