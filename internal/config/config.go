// =============================================================================
// Load Export - Configuration Module
// =============================================================================
//
// This module loads the main YAML configuration. All settings have defaults,
// so a missing config file yields a working offline setup that writes into
// ./output.
//
// SECTIONS:
//   source   : where loads come from (local cache kind, remote service)
//   billing  : rates, invoice numbering, account and item names
//   output   : where documents are delivered
//   http     : address for the serve command
//
// ENVIRONMENT OVERRIDES:
//   LOADEXPORT_DATABASE_URI, LOADEXPORT_REMOTE_ENDPOINT, LOADEXPORT_REMOTE_TOKEN
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/loadexport/internal/normalize"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	Source  SourceConfig  `yaml:"source"`
	Billing BillingConfig `yaml:"billing"`
	Output  OutputConfig  `yaml:"output"`
	HTTP    HTTPConfig    `yaml:"http"`

	// FieldAliases adds raw field names per canonical field, tried after the
	// built-in names. Keys are canonical field names such as "ticketNumber".
	FieldAliases map[string][]string `yaml:"field_aliases"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// SourceConfig selects and configures the local and remote load sources.
type SourceConfig struct {
	// Kind is the local cache backend: "postgres", "csv" or "none".
	// Default: "csv"
	Kind string `yaml:"kind"`

	// DatabaseURI is the Postgres connection string for kind "postgres".
	DatabaseURI string `yaml:"database_uri"`

	// CSVPath is the snapshot file for kind "csv".
	// Default: "./data/loads.csv"
	CSVPath string `yaml:"csv_path"`

	// CSVSettings controls how the snapshot is parsed.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// RemoteEndpoint is the base URL of the remote load service.
	// Empty disables the remote fallback.
	RemoteEndpoint string `yaml:"remote_endpoint"`

	// RemoteToken is sent as a Bearer token when set.
	RemoteToken string `yaml:"remote_token"`

	// RemoteTimeout bounds the remote query.
	// Default: 15s
	RemoteTimeout time.Duration `yaml:"remote_timeout"`

	// Offline forces the connectivity probe to report offline.
	Offline bool `yaml:"offline"`
}

// CSVSettings contains settings for parsing CSV snapshots.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Common values: "," (comma), "|" (pipe), "\t" (tab)
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// DataStartRow is the 1-based row number where data begins; the row
	// before it holds the field names.
	// Default: 2
	DataStartRow int `yaml:"data_start_row"`
}

// BillingConfig holds the constants written on every invoice.
type BillingConfig struct {
	// RatePerTon is the price per resolved ton, as a decimal string.
	// Default: "125.00"
	RatePerTon string `yaml:"rate_per_ton"`

	InvoicePrefix     string `yaml:"invoice_prefix"`
	InvoiceStart      int    `yaml:"invoice_start"`
	DueDays           int    `yaml:"due_days"`
	Terms             string `yaml:"terms"`
	ReceivableAccount string `yaml:"receivable_account"`
	IncomeAccount     string `yaml:"income_account"`
	ServiceItem       string `yaml:"service_item"`
	MemoPrefix        string `yaml:"memo_prefix"`
	ComplianceLabel   string `yaml:"compliance_label"`
	ExportMemo        string `yaml:"export_memo"`

	// TimeZone is the IANA zone used to assign loads to invoice dates.
	// Default: "Local"
	TimeZone string `yaml:"timezone"`
}

// OutputConfig controls where exported documents are delivered.
type OutputConfig struct {
	// Delivery is "file" or "gcs".
	// Default: "file"
	Delivery string `yaml:"delivery"`

	// OutputDir receives documents for file delivery.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// ArchiveDir receives the previous copy when a document is overwritten.
	// Default: "./output_archive"
	ArchiveDir string `yaml:"archive_dir"`

	// GCSBucket is the bucket for gcs delivery.
	GCSBucket string `yaml:"gcs_bucket"`

	// GCSPrefix is prepended to object names for gcs delivery.
	GCSPrefix string `yaml:"gcs_prefix"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	// Address is the listen address.
	// Default: "localhost:8080"
	Address string `yaml:"address"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct. A missing file yields defaults.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&config)
	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

func applyEnvOverrides(config *MainConfig) {
	if v := os.Getenv("LOADEXPORT_DATABASE_URI"); v != "" {
		config.Source.DatabaseURI = v
	}
	if v := os.Getenv("LOADEXPORT_REMOTE_ENDPOINT"); v != "" {
		config.Source.RemoteEndpoint = v
	}
	if v := os.Getenv("LOADEXPORT_REMOTE_TOKEN"); v != "" {
		config.Source.RemoteToken = v
	}
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	src := &config.Source
	if src.Kind == "" {
		src.Kind = "csv"
	}
	if src.CSVPath == "" {
		src.CSVPath = "./data/loads.csv"
	}
	if src.CSVSettings.Delimiter == "" {
		src.CSVSettings.Delimiter = ","
	}
	if src.CSVSettings.DataStartRow == 0 {
		src.CSVSettings.DataStartRow = 2
	}
	if src.RemoteTimeout == 0 {
		src.RemoteTimeout = 15 * time.Second
	}

	b := &config.Billing
	if b.RatePerTon == "" {
		b.RatePerTon = "125.00"
	}
	if b.InvoicePrefix == "" {
		b.InvoicePrefix = "INV-"
	}
	if b.InvoiceStart == 0 {
		b.InvoiceStart = 1001
	}
	if b.DueDays == 0 {
		b.DueDays = 30
	}
	if b.Terms == "" {
		b.Terms = "Net 30"
	}
	if b.ReceivableAccount == "" {
		b.ReceivableAccount = "Accounts Receivable"
	}
	if b.IncomeAccount == "" {
		b.IncomeAccount = "C&D Disposal Income"
	}
	if b.ServiceItem == "" {
		b.ServiceItem = "C&D Disposal"
	}
	if b.MemoPrefix == "" {
		b.MemoPrefix = "C&D disposal loads"
	}
	if b.ComplianceLabel == "" {
		b.ComplianceLabel = "C&D Diversion"
	}
	if b.ExportMemo == "" {
		b.ExportMemo = "Exported by loadexport"
	}
	if b.TimeZone == "" {
		b.TimeZone = "Local"
	}

	o := &config.Output
	if o.Delivery == "" {
		o.Delivery = "file"
	}
	if o.OutputDir == "" {
		o.OutputDir = "./output"
	}
	if o.ArchiveDir == "" {
		o.ArchiveDir = "./output_archive"
	}

	if config.HTTP.Address == "" {
		config.HTTP.Address = "localhost:8080"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch config.Source.Kind {
	case "postgres":
		if config.Source.DatabaseURI == "" {
			return fmt.Errorf("source.database_uri is required for postgres")
		}
	case "csv", "none":
	default:
		return fmt.Errorf("unknown source.kind %q", config.Source.Kind)
	}

	if _, err := config.Billing.Rate(); err != nil {
		return err
	}
	if _, err := config.Billing.Location(); err != nil {
		return err
	}

	switch config.Output.Delivery {
	case "file":
	case "gcs":
		if config.Output.GCSBucket == "" {
			return fmt.Errorf("output.gcs_bucket is required for gcs delivery")
		}
	default:
		return fmt.Errorf("unknown output.delivery %q", config.Output.Delivery)
	}

	for field := range config.FieldAliases {
		if !normalize.KnownField(field) {
			return fmt.Errorf("field_aliases: unknown field %q", field)
		}
	}

	return nil
}

// Rate parses RatePerTon.
func (b BillingConfig) Rate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(b.RatePerTon)
	if err != nil {
		return decimal.Zero, fmt.Errorf("billing.rate_per_ton %q: %w", b.RatePerTon, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("billing.rate_per_ton must not be negative")
	}
	return rate, nil
}

// Location resolves TimeZone.
func (b BillingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(b.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("billing.timezone %q: %w", b.TimeZone, err)
	}
	return loc, nil
}
