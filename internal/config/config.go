package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"framealign/framework"
)

const (
	// DefaultPath is used when neither a flag nor FRAMEALIGN_CONFIG names a file.
	DefaultPath = "framealign.yaml"
	// PathEnv overrides the config file location.
	PathEnv = "FRAMEALIGN_CONFIG"
)

// Config is the on-disk configuration of the framealign tools.
type Config struct {
	Alignment framework.Config `yaml:"alignment"`
	Workbook  WorkbookConfig   `yaml:"workbook"`
	Drift     DriftConfig      `yaml:"drift"`
}

// WorkbookConfig names the sheets and columns of the planning workbook.
type WorkbookConfig struct {
	IndexSheet     string   `yaml:"index_sheet"`
	EpicSheet      string   `yaml:"epic_sheet"`
	TicketSheet    string   `yaml:"ticket_sheet"`
	EpicKeywords   []string `yaml:"epic_keywords"`
	TicketKeywords []string `yaml:"ticket_keywords"`
	// HeaderRow pins the header row; 0 locates it per sheet.
	HeaderRow      int `yaml:"header_row"`
	HeaderScanRows int `yaml:"header_scan_rows"`
	HeaderScanCols int `yaml:"header_scan_cols"`

	NodeColumn       string `yaml:"node_column"`
	SuggestedColumn  string `yaml:"suggested_column"`
	ConfidenceColumn string `yaml:"confidence_column"`
	TopColumn        string `yaml:"top_column"`

	CoverageSheet     string `yaml:"coverage_sheet"`
	EpicReviewSheet   string `yaml:"epic_review_sheet"`
	TicketReviewSheet string `yaml:"ticket_review_sheet"`

	MappedSuffix  string `yaml:"mapped_suffix"`
	AlignedSuffix string `yaml:"aligned_suffix"`
	DropListRows  int    `yaml:"drop_list_rows"`
}

// DriftConfig drives the ticket drift check.
type DriftConfig struct {
	Sheet           string   `yaml:"sheet"`
	RequiredColumns []string `yaml:"required_columns"`
	RealmColumn     string   `yaml:"realm_column"`
	PathColumn      string   `yaml:"path_column"`
	RealmSpecDir    string   `yaml:"realm_spec_dir"`
	ReportPath      string   `yaml:"report_path"`
	BlankValues     []string `yaml:"blank_values"`
}

// Default returns a fully populated configuration.
func Default() Config {
	var cfg Config
	cfg.Alignment = framework.DefaultConfig()
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	c.Alignment.ApplyDefaults()
	c.Workbook.applyDefaults()
	c.Drift.applyDefaults(c.Workbook)
}

func (w *WorkbookConfig) applyDefaults() {
	setDefault(&w.IndexSheet, "Framework_Index")
	setDefault(&w.EpicSheet, "02_Roadmap")
	setDefault(&w.TicketSheet, "04_Tickets")
	if len(w.EpicKeywords) == 0 {
		w.EpicKeywords = []string{"epic", "roadmap"}
	}
	if len(w.TicketKeywords) == 0 {
		w.TicketKeywords = []string{"ticket", "backlog"}
	}
	if w.HeaderScanRows <= 0 {
		w.HeaderScanRows = framework.DefaultHeaderScanRows
	}
	if w.HeaderScanCols <= 0 {
		w.HeaderScanCols = framework.DefaultHeaderScanCols
	}
	setDefault(&w.NodeColumn, "Framework_Node")
	setDefault(&w.SuggestedColumn, "Framework_Suggested")
	setDefault(&w.ConfidenceColumn, "Framework_Confidence")
	setDefault(&w.TopColumn, "Framework_Top3")
	setDefault(&w.CoverageSheet, "Framework_Coverage")
	setDefault(&w.EpicReviewSheet, "Review_Roadmap")
	setDefault(&w.TicketReviewSheet, "Review_Tickets")
	setDefault(&w.MappedSuffix, "_MAPPED")
	setDefault(&w.AlignedSuffix, "_ALIGNED")
	if w.DropListRows <= 0 {
		w.DropListRows = 5000
	}
}

func (d *DriftConfig) applyDefaults(w WorkbookConfig) {
	setDefault(&d.Sheet, w.TicketSheet)
	setDefault(&d.RealmColumn, "Realm")
	setDefault(&d.PathColumn, "Framework_Path")
	if len(d.RequiredColumns) == 0 {
		d.RequiredColumns = []string{d.RealmColumn, d.PathColumn, "Roadmap_Milestone"}
	}
	setDefault(&d.ReportPath, filepath.Join("data", "pm_drift_report.csv"))
	if len(d.BlankValues) == 0 {
		d.BlankValues = []string{"", "nan", "none", "null"}
	}
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

// Validate checks the values ApplyDefaults cannot repair.
func (c Config) Validate() error {
	if err := c.Alignment.Validate(); err != nil {
		return err
	}
	if c.Workbook.HeaderRow < 0 {
		return &framework.ConfigurationError{Reason: fmt.Sprintf("header_row must not be negative, got %d", c.Workbook.HeaderRow)}
	}
	if c.Workbook.EpicSheet == c.Workbook.TicketSheet {
		return &framework.ConfigurationError{Reason: "epic_sheet and ticket_sheet must differ"}
	}
	return nil
}

// ResolvePath picks the config file: explicit path, then FRAMEALIGN_CONFIG,
// then DefaultPath.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv(PathEnv); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads the config file. A missing file yields the defaults. Environment
// overrides are applied after the file.
func Load(path string) (Config, error) {
	path = ResolvePath(path)
	cfg := Config{Alignment: framework.DefaultConfig()}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config atomically.
func Save(path string, cfg Config) error {
	path = ResolvePath(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	cfg.ApplyDefaults()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	a := &cfg.Alignment
	if err := envOverrideFloat(&a.MinConfidence, "FRAMEALIGN_MIN_CONFIDENCE"); err != nil {
		return err
	}
	envOverrideBool(&a.Overwrite, "FRAMEALIGN_OVERWRITE")
	if err := envOverrideInt(&a.Workers, "FRAMEALIGN_WORKERS"); err != nil {
		return err
	}
	if err := envOverrideInt(&a.MaxTextChars, "FRAMEALIGN_MAX_TEXT_CHARS"); err != nil {
		return err
	}
	if err := envOverrideInt(&cfg.Workbook.HeaderRow, "FRAMEALIGN_HEADER_ROW"); err != nil {
		return err
	}
	envOverride(&cfg.Workbook.IndexSheet, "FRAMEALIGN_INDEX_SHEET")
	envOverride(&cfg.Workbook.EpicSheet, "FRAMEALIGN_EPIC_SHEET")
	envOverride(&cfg.Workbook.TicketSheet, "FRAMEALIGN_TICKET_SHEET")
	envOverride(&cfg.Drift.RealmSpecDir, "FRAMEALIGN_REALM_SPEC_DIR")
	envOverride(&cfg.Drift.ReportPath, "FRAMEALIGN_DRIFT_REPORT")
	return nil
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = strings.EqualFold(val, "true") || val == "1"
	}
}

func envOverrideFloat(field *float64, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}
