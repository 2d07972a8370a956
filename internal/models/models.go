package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Fact is one reported number of a filing in long form.
type Fact struct {
	Adsh     string              `json:"adsh" csv:"adsh"`
	Coreg    string              `json:"coreg" csv:"coreg"`
	Report   int                 `json:"report" csv:"report"`
	Tag      string              `json:"tag" csv:"tag"`
	Version  string              `json:"version" csv:"version"`
	Date     int                 `json:"ddate" csv:"ddate"`
	Unit     string              `json:"uom" csv:"uom"`
	Value    decimal.NullDecimal `json:"value" csv:"value"`
	Line     int                 `json:"line" csv:"line"`
	Negating bool                `json:"negating" csv:"negating"`
	Stmt     string              `json:"stmt,omitempty" csv:"stmt"`
}

// NewFact creates a fact with a present value
func NewFact(adsh, coreg string, report int, tag string, date int, value decimal.Decimal) *Fact {
	return &Fact{
		Adsh:   adsh,
		Coreg:  coreg,
		Report: report,
		Tag:    tag,
		Date:   date,
		Unit:   "USD",
		Value:  Present(value),
	}
}

// Validate performs basic validation on the Fact
func (f *Fact) Validate() error {
	if strings.TrimSpace(f.Adsh) == "" {
		return fmt.Errorf("filing id cannot be empty")
	}
	if strings.TrimSpace(f.Tag) == "" {
		return fmt.Errorf("tag cannot be empty")
	}
	if err := ValidateDate(f.Date); err != nil {
		return err
	}
	return nil
}

// Clone returns a copy that can be modified without touching f
func (f *Fact) Clone() *Fact {
	c := *f
	return &c
}

// GroupKey returns the key of the wide row this fact belongs to
func (f *Fact) GroupKey(withUnit bool) GroupKey {
	key := GroupKey{Adsh: f.Adsh, Coreg: f.Coreg, Report: f.Report, Date: f.Date}
	if withUnit {
		key.Unit = f.Unit
	}
	return key
}

// FactKey identifies exact duplicates
type FactKey struct {
	Adsh    string
	Coreg   string
	Report  int
	Unit    string
	Tag     string
	Version string
	Date    int
	Value   string
}

// DuplicateKey returns the key under which exact duplicates collapse
func (f *Fact) DuplicateKey() FactKey {
	return FactKey{
		Adsh:    f.Adsh,
		Coreg:   f.Coreg,
		Report:  f.Report,
		Unit:    f.Unit,
		Tag:     f.Tag,
		Version: f.Version,
		Date:    f.Date,
		Value:   FormatValue(f.Value),
	}
}

// String returns a string representation of the Fact
func (f *Fact) String() string {
	return fmt.Sprintf("Fact{%s/%s report %d %s@%d = %s %s}",
		f.Adsh, f.Coreg, f.Report, f.Tag, f.Date, FormatValue(f.Value), f.Unit)
}

// MarshalJSON renders the value as a decimal string or null
func (f *Fact) MarshalJSON() ([]byte, error) {
	type Alias Fact
	var value *string
	if f.Value.Valid {
		s := f.Value.Decimal.String()
		value = &s
	}
	return json.Marshal(&struct {
		Value *string `json:"value"`
		*Alias
	}{
		Value: value,
		Alias: (*Alias)(f),
	})
}

// Present wraps a decimal as a present value
func Present(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Missing returns the missing value
func Missing() decimal.NullDecimal {
	return decimal.NullDecimal{}
}

// FormatValue renders a nullable value, using the empty string for missing
func FormatValue(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}

// ParseValue parses a nullable decimal. Empty strings and NaN markers are missing.
func ParseValue(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "none":
		return Missing(), nil
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Missing(), fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}
	return Present(d), nil
}

// ParseDate parses an integer YYYYMMDD date
func ParseDate(s string) (int, error) {
	d, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid date '%s': %w", s, err)
	}
	if err := ValidateDate(d); err != nil {
		return 0, err
	}
	return d, nil
}

// ValidateDate checks that d looks like YYYYMMDD
func ValidateDate(d int) error {
	month := d / 100 % 100
	day := d % 100
	if d < 19000101 || d > 29991231 || month < 1 || month > 12 || day < 1 || day > 31 {
		return fmt.Errorf("date %d is not a valid YYYYMMDD value", d)
	}
	return nil
}

// ParseBool accepts the flag spellings found in extracted fact files
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "f", "no", "n":
		return false, nil
	case "1", "true", "t", "yes", "y":
		return true, nil
	default:
		return false, fmt.Errorf("invalid flag '%s'", s)
	}
}

// DeduplicateFacts drops exact duplicates, keeping the first occurrence.
// The dropped facts are returned so that callers can report them.
func DeduplicateFacts(facts []*Fact) (kept, dropped []*Fact) {
	seen := make(map[FactKey]bool, len(facts))
	kept = make([]*Fact, 0, len(facts))
	for _, f := range facts {
		key := f.DuplicateKey()
		if seen[key] {
			dropped = append(dropped, f)
			continue
		}
		seen[key] = true
		kept = append(kept, f)
	}
	return kept, dropped
}
