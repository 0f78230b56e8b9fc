package framework

import (
	"fmt"
	"strings"
)

// Default policy values. They are tuning choices, not structural limits.
const (
	DefaultMinConfidence  = 0.55
	DefaultMaxTextChars   = 1200
	DefaultTopN           = 3
	DefaultCoverageIDCap  = 50
	DefaultCoverageWeight = 0.7
	DefaultFuzzyWeight    = 0.3
	DefaultFuzzyWindow    = 500
	DefaultOutputMarker   = "framework_"
	DefaultTextSeparator  = " | "
)

// Config carries every tunable of an alignment run.
type Config struct {
	MinConfidence  float64  `yaml:"min_confidence" json:"minConfidence"`
	Overwrite      bool     `yaml:"overwrite" json:"overwrite"`
	MaxTextChars   int      `yaml:"max_text_chars" json:"maxTextChars"`
	TopN           int      `yaml:"top_n" json:"topN"`
	CoverageIDCap  int      `yaml:"coverage_id_cap" json:"coverageIdCap"`
	CoverageWeight float64  `yaml:"coverage_weight" json:"coverageWeight"`
	FuzzyWeight    float64  `yaml:"fuzzy_weight" json:"fuzzyWeight"`
	FuzzyWindow    int      `yaml:"fuzzy_window" json:"fuzzyWindow"`
	TextKeywords   []string `yaml:"text_keywords" json:"textKeywords"`
	OutputMarker   string   `yaml:"output_marker" json:"outputMarker"`
	IDColumns      []string `yaml:"id_columns" json:"idColumns"`
	// Workers bounds concurrent row scoring. 1 keeps the run sequential.
	Workers int `yaml:"workers" json:"workers"`
}

// DefaultTextKeywords returns the header keywords that mark free-text columns.
func DefaultTextKeywords() []string {
	return []string{
		"epic", "goal", "title", "summary", "description", "details", "notes",
		"deliverable", "outcome", "scope", "objective", "problem", "solution",
		"task", "ticket", "feature", "story",
	}
}

// DefaultIDColumns returns the header names tried, in order, for row identifiers.
func DefaultIDColumns() []string {
	return []string{"epic id", "ticket id", "id"}
}

// DefaultConfig returns a config with every default applied.
func DefaultConfig() Config {
	cfg := Config{MinConfidence: DefaultMinConfidence}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults populates zero values with sensible defaults. MinConfidence is
// left alone: 0 is a valid threshold that fills every suggestion.
func (c *Config) ApplyDefaults() {
	if c.MaxTextChars <= 0 {
		c.MaxTextChars = DefaultMaxTextChars
	}
	if c.TopN <= 0 {
		c.TopN = DefaultTopN
	}
	if c.CoverageIDCap <= 0 {
		c.CoverageIDCap = DefaultCoverageIDCap
	}
	if c.CoverageWeight == 0 && c.FuzzyWeight == 0 {
		c.CoverageWeight = DefaultCoverageWeight
		c.FuzzyWeight = DefaultFuzzyWeight
	}
	if c.FuzzyWindow <= 0 {
		c.FuzzyWindow = DefaultFuzzyWindow
	}
	if c.TextKeywords == nil {
		c.TextKeywords = DefaultTextKeywords()
	}
	if c.OutputMarker == "" {
		c.OutputMarker = DefaultOutputMarker
	}
	if c.IDColumns == nil {
		c.IDColumns = DefaultIDColumns()
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return &ConfigurationError{Reason: fmt.Sprintf("min_confidence %.3f must be between 0 and 1", c.MinConfidence)}
	}
	if c.CoverageWeight < 0 || c.FuzzyWeight < 0 || c.CoverageWeight+c.FuzzyWeight > 1.000001 {
		return &ConfigurationError{Reason: fmt.Sprintf("score weights %.2f/%.2f must be non-negative and sum to at most 1", c.CoverageWeight, c.FuzzyWeight)}
	}
	return nil
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	out := c
	out.TextKeywords = cloneStrings(c.TextKeywords)
	out.IDColumns = cloneStrings(c.IDColumns)
	return out
}

// Scorer builds the similarity scorer described by the config.
func (c Config) Scorer() Scorer {
	return Scorer{
		CoverageWeight: c.CoverageWeight,
		FuzzyWeight:    c.FuzzyWeight,
		FuzzyWindow:    c.FuzzyWindow,
	}
}

// String summarises the effective policy for logs.
func (c Config) String() string {
	return fmt.Sprintf("min_confidence=%.2f overwrite=%t top_n=%d weights=%.2f/%.2f workers=%d keywords=%s",
		c.MinConfidence, c.Overwrite, c.TopN, c.CoverageWeight, c.FuzzyWeight, c.Workers, strings.Join(c.TextKeywords, ","))
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
