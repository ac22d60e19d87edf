package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "shipcheck/0.1").
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// RulesConfig locates the operator rules table.
type RulesConfig struct {
	// Path is a .csv, .xlsx or .yaml file, or an http(s) URL serving CSV.
	Path string `yaml:"path" mapstructure:"path"`

	// TokenSecret names the secrets file holding a bearer token for a
	// remote rules URL. Empty means no Authorization header.
	TokenSecret string `yaml:"token_secret" mapstructure:"token_secret"`
}

// PatternsConfig locates the learned pattern database.
type PatternsConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// SessionConfig bounds the in-memory registry of previewed documents.
type SessionConfig struct {
	MaxDocuments int `yaml:"max_documents" mapstructure:"max_documents"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	MaxUploadMB int64    `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// ConversionBackend identifies the PDF-to-text tool.
type ConversionBackend string

const (
	BackendPdftotext ConversionBackend = "pdftotext"
	BackendContainer ConversionBackend = "container"
)

// ConversionConfig holds settings for PDF text extraction.
type ConversionConfig struct {
	// Backend selects pdftotext on PATH or pdftotext inside a container image.
	Backend ConversionBackend `yaml:"backend" mapstructure:"backend"`

	PdftotextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`

	// Image is the container image providing pdftotext.
	Image string `yaml:"image" mapstructure:"image"`

	// Timeout bounds one conversion.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ReportFormat selects the batch report encoding.
type ReportFormat string

const (
	ReportCSV  ReportFormat = "csv"
	ReportXLSX ReportFormat = "xlsx"
)

// BatchConfig holds settings for ZIP batch runs.
type BatchConfig struct {
	// Concurrency is the number of archives processed at once.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`

	// Limit caps the number of archives per run (0 = all).
	Limit int `yaml:"limit" mapstructure:"limit"`

	// RatePerSec paces document conversions (0 = unpaced).
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`

	ReportFormat ReportFormat `yaml:"report_format" mapstructure:"report_format"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Config groups all settings.
type Config struct {
	Rules      RulesConfig      `yaml:"rules" mapstructure:"rules"`
	Patterns   PatternsConfig   `yaml:"patterns" mapstructure:"patterns"`
	Session    SessionConfig    `yaml:"session" mapstructure:"session"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Conversion ConversionConfig `yaml:"convert" mapstructure:"convert"`
	HTTP       HTTPConfig       `yaml:"http" mapstructure:"http"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}
