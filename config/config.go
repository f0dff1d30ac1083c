package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/tidepool-org/yearly-summary/errors"
)

type FailurePolicy string

const (
	// FailurePolicyAbort stops the run at the first failed patient. Summaries
	// written before the failure are kept.
	FailurePolicyAbort FailurePolicy = "abort"
	// FailurePolicyContinue records the failure and moves on to the next patient
	FailurePolicyContinue FailurePolicy = "continue"
)

type DuplicatePolicy string

const (
	// DuplicatePolicyAppend always inserts a new summary, re-runs produce duplicates
	DuplicatePolicyAppend DuplicatePolicy = "append"
	// DuplicatePolicySkip leaves existing summaries for the same patient, year and type untouched
	DuplicatePolicySkip DuplicatePolicy = "skip"
	// DuplicatePolicyUpsert replaces the text of an existing summary for the same patient, year and type
	DuplicatePolicyUpsert DuplicatePolicy = "upsert"
)

type Config struct {
	JobName             string          `envconfig:"TIDEPOOL_YEARLY_SUMMARY_JOB_NAME" default:"yearly-summary"`
	BatchSize           int             `envconfig:"TIDEPOOL_YEARLY_SUMMARY_BATCH_SIZE" default:"500"`
	PatientsCollection  string          `envconfig:"TIDEPOOL_YEARLY_SUMMARY_PATIENTS_COLLECTION" default:"patient_records"`
	MetricsCollection   string          `envconfig:"TIDEPOOL_YEARLY_SUMMARY_METRICS_COLLECTION" default:"metrics"`
	SummariesCollection string          `envconfig:"TIDEPOOL_YEARLY_SUMMARY_SUMMARIES_COLLECTION" default:"summaries"`
	FailurePolicy       FailurePolicy   `envconfig:"TIDEPOOL_YEARLY_SUMMARY_FAILURE_POLICY" default:"abort"`
	DuplicatePolicy     DuplicatePolicy `envconfig:"TIDEPOOL_YEARLY_SUMMARY_DUPLICATE_POLICY" default:"append"`
	OutboxEnabled       bool            `envconfig:"TIDEPOOL_YEARLY_SUMMARY_OUTBOX_ENABLED" default:"false"`
	OutboxCollection    string          `envconfig:"TIDEPOOL_YEARLY_SUMMARY_OUTBOX_COLLECTION" default:"outbox"`
	TransactionsEnabled bool            `envconfig:"TIDEPOOL_YEARLY_SUMMARY_TRANSACTIONS_ENABLED" default:"false"`
	PushgatewayURL      string          `envconfig:"TIDEPOOL_YEARLY_SUMMARY_PUSHGATEWAY_URL"`
}

func New() *Config {
	return &Config{}
}

func (c *Config) LoadFromEnv() error {
	if err := envconfig.Process("", c); err != nil {
		return err
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	switch c.FailurePolicy {
	case FailurePolicyAbort, FailurePolicyContinue:
	default:
		return fmt.Errorf("%w: unknown failure policy %q", errors.InvalidConfig, c.FailurePolicy)
	}

	switch c.DuplicatePolicy {
	case DuplicatePolicyAppend, DuplicatePolicySkip, DuplicatePolicyUpsert:
	default:
		return fmt.Errorf("%w: unknown duplicate policy %q", errors.InvalidConfig, c.DuplicatePolicy)
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", errors.InvalidConfig)
	}
	if c.PatientsCollection == "" || c.MetricsCollection == "" || c.SummariesCollection == "" {
		return fmt.Errorf("%w: collection names must not be empty", errors.InvalidConfig)
	}
	if c.OutboxEnabled && c.OutboxCollection == "" {
		return fmt.Errorf("%w: outbox collection name must not be empty", errors.InvalidConfig)
	}

	return nil
}

// NewFromEnv is the fx provider for the job configuration
func NewFromEnv() (*Config, error) {
	cfg := New()
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
