package framework

import (
	"strconv"
	"strings"
)

// SetKind tells the coverage table which counter a record set feeds.
type SetKind string

const (
	// KindEpic marks roadmap/epic record sets.
	KindEpic SetKind = "epic"
	// KindTicket marks ticket/backlog record sets.
	KindTicket SetKind = "ticket"
)

// ValueKind is the storage type of a cell.
type ValueKind int

const (
	KindBlank ValueKind = iota
	KindText
	KindNumber
	KindDate
)

// Value is a raw cell as handed over by the storage collaborator.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
}

// Text wraps a string cell.
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{Kind: KindText, Text: s}
}

// Number wraps a numeric cell.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Number: f}
}

// Date wraps a date cell kept in its ISO text form.
func Date(iso string) Value {
	return Value{Kind: KindDate, Text: iso}
}

// IsBlank reports whether the cell holds nothing.
func (v Value) IsBlank() bool {
	return v.Kind == KindBlank || (v.Kind == KindText && strings.TrimSpace(v.Text) == "")
}

// String renders the cell the way a spreadsheet would show it unformatted.
func (v Value) String() string {
	switch v.Kind {
	case KindText, KindDate:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// TextValue returns the trimmed string content of a text cell and "" for
// anything else.
func (v Value) TextValue() string {
	if v.Kind != KindText {
		return ""
	}
	return strings.TrimSpace(v.Text)
}

// TaxonomyNode is one framework node and the tokens derived from its label.
type TaxonomyNode struct {
	Label  string   `json:"label"`
	Tokens []string `json:"tokens"`
}

// Record is one row of a target record set.
type Record struct {
	// Row is the 1-based row number in the source sheet.
	Row      int
	ID       string
	Assigned string
	Fields   map[string]Value
}

// RecordSet is one logical table to classify.
type RecordSet struct {
	Name    string
	Kind    SetKind
	Columns []string
	// TextColumns overrides free-text column detection when non-empty.
	TextColumns []string
	Records     []Record
}

// Candidate is a ranked taxonomy node for a row.
type Candidate struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// AlignmentResult holds the outcome for a single record.
type AlignmentResult struct {
	Row        int         `json:"row"`
	ID         string      `json:"id,omitempty"`
	Existing   string      `json:"existing,omitempty"`
	Suggested  string      `json:"suggested"`
	Confidence float64     `json:"confidence"`
	Top        []Candidate `json:"top,omitempty"`
	Final      string      `json:"final"`
	Filled     bool        `json:"filled"`
}

// TopString renders the ranked candidates as "label (0.83), label (0.41)".
func (r AlignmentResult) TopString() string {
	return FormatCandidates(r.Top)
}

// SetResult groups the per-row results of one record set.
type SetResult struct {
	Name        string
	Kind        SetKind
	TextColumns []string
	Results     []AlignmentResult
	Review      []ReviewEntry
	Err         error
}

// Filled counts rows whose assignment was written by this run.
func (s SetResult) Filled() int {
	n := 0
	for _, r := range s.Results {
		if r.Filled {
			n++
		}
	}
	return n
}

// CoverageEntry tallies the records finally assigned to one node.
type CoverageEntry struct {
	Label       string   `json:"label"`
	EpicCount   int      `json:"epicCount"`
	TicketCount int      `json:"ticketCount"`
	EpicIDs     []string `json:"epicIds,omitempty"`
	TicketIDs   []string `json:"ticketIds,omitempty"`
}

// ReviewEntry is a row that needs a human decision.
type ReviewEntry struct {
	Row        int     `json:"row"`
	ID         string  `json:"id,omitempty"`
	Assigned   string  `json:"assigned"`
	Suggested  string  `json:"suggested"`
	Confidence float64 `json:"confidence"`
	Top3       string  `json:"top3"`
}

// Report is the full output of one engine run.
type Report struct {
	Nodes    []TaxonomyNode
	Sets     []SetResult
	Coverage []CoverageEntry
	// Unmapped counts final assignments that match no taxonomy label.
	Unmapped map[string]int
}
