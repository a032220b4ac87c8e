// Package config defines the data structures related to configuration and
// includes functions for loading and converting the config.
package config

import (
	"fmt"

	"github.com/akarpov/loan-schedule/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for loan-schedule.
type Configuration struct {
	Loan    LoanConfig
	Events  []EventConfig
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`
}

// LoanConfig holds the loan terms as written in the config file. Amounts
// and rates stay strings here so they can be parsed into exact decimals.
type LoanConfig struct {
	Principal        string
	CurrentPrincipal string // defaults to Principal
	AnnualRate       string
	PaymentType      string // ANNUITY, DIFFERENTIATED
	TermMonths       int
	FirstPaymentDate string
	IssueDate        string // optional
	Currency         string
	CalcDate         string // optional; defaults to today
	AccrualMode      string // MONTHLY, ACT_365
	InsuranceMonthly string
	OneTimeCosts     string
}

// EventConfig holds one schedule-modifying event. Type selects the
// variant and decides which of the remaining fields apply.
type EventConfig struct {
	Type       string // extraPayment, rateChange, holiday
	Date       string
	Amount     string
	Mode       string // ONE_TIME, MONTHLY, WEEKLY, BIWEEKLY, YEARLY
	Strategy   string // REDUCE_TERM, REDUCE_PAYMENT
	EndDate    string
	AnnualRate string
	StartDate  string
	Holiday    string // INTEREST_ONLY, PAUSE_CAPITALIZE
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// ServerConfig holds the HTTP API options.
type ServerConfig struct {
	Address         string `yaml:"address,omitempty"`
	CacheTTLSeconds int    `yaml:"cacheTtlSeconds,omitempty"`
	CacheMaxEntries int    `yaml:"cacheMaxEntries,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the
// YAML-formatted configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.ApplyDefaults()
	return &configuration, nil
}

// ApplyDefaults fills unset optional fields with their documented
// defaults. LoadConfiguration calls it; callers building a Configuration
// by hand (e.g. from an API request) should call it themselves.
func (conf *Configuration) ApplyDefaults() {
	if conf.Loan.CurrentPrincipal == "" {
		conf.Loan.CurrentPrincipal = conf.Loan.Principal
	}
	if conf.Loan.AccrualMode == "" {
		conf.Loan.AccrualMode = "MONTHLY"
	}
	if conf.Loan.Currency == "" {
		conf.Loan.Currency = "RUB"
	}
	if conf.Loan.InsuranceMonthly == "" {
		conf.Loan.InsuranceMonthly = "0"
	}
	if conf.Loan.OneTimeCosts == "" {
		conf.Loan.OneTimeCosts = "0"
	}
	if conf.Server.Address == "" {
		conf.Server.Address = constants.DefaultServerAddress
	}
	if conf.Server.CacheTTLSeconds == 0 {
		conf.Server.CacheTTLSeconds = constants.DefaultCacheTTLSeconds
	}
	if conf.Server.CacheMaxEntries == 0 {
		conf.Server.CacheMaxEntries = constants.DefaultCacheMaxEntries
	}
}

// ValidateConfiguration checks the configuration for suspicious values
// that are legal but probably unintended, returning human-readable
// warnings.
func (conf *Configuration) ValidateConfiguration() []string {
	var warnings []string

	for i, event := range conf.Events {
		switch event.Type {
		case "extraPayment":
			if event.EndDate != "" && event.EndDate < event.Date {
				warnings = append(warnings,
					fmt.Sprintf("event %d: endDate %s precedes date %s; the payment will never fire",
						i, event.EndDate, event.Date))
			}
			if event.Mode == "ONE_TIME" && event.EndDate != "" {
				warnings = append(warnings,
					fmt.Sprintf("event %d: endDate has no effect on a one-time payment", i))
			}
		case "holiday":
			if event.EndDate < event.StartDate {
				warnings = append(warnings,
					fmt.Sprintf("event %d: holiday window [%s, %s] is empty",
						i, event.StartDate, event.EndDate))
			}
		}
	}

	return warnings
}
