package validation

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pipeline-entry/internal/models"
)

// Kind is the kind of value a form field holds. Parsing and validation rules
// hang off the kind rather than the individual field.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindEnum
	KindDate
	KindFile
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumeric:
		return "numeric"
	case KindEnum:
		return "enumerated"
	case KindDate:
		return "date"
	case KindFile:
		return "file"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

var (
	ErrNotNumber = errors.New("not a number")
	ErrNegative  = errors.New("negative number")
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ErrorSet maps a field key to a human-readable message
type ErrorSet map[string]string

// Has reports whether field has a recorded error
func (e ErrorSet) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Empty reports whether there are no errors
func (e ErrorSet) Empty() bool {
	return len(e) == 0
}

// Clone returns an independent copy
func (e ErrorSet) Clone() ErrorSet {
	out := make(ErrorSet, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// List returns the errors sorted by field key
func (e ErrorSet) List() []ValidationError {
	list := make([]ValidationError, 0, len(e))
	for field, msg := range e {
		list = append(list, ValidationError{Field: field, Message: msg})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Field < list[j].Field })
	return list
}

// Field describes one editable field of the record form
type Field struct {
	Key      string
	Label    string
	Kind     Kind
	Required bool
	Options  []string
}

// Check validates a raw value against the field's rule. It returns an empty
// string when the value is acceptable.
func (f Field) Check(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if f.Required {
			return fmt.Sprintf("%s is required", f.Label)
		}
		return ""
	}

	switch f.Kind {
	case KindNumeric:
		if _, err := ParseNumber(trimmed); err != nil {
			return fmt.Sprintf("%s must be a non-negative number", f.Label)
		}
	case KindDate:
		if _, err := ParseDate(trimmed); err != nil {
			return "Date must be a valid calendar date in YYYY-MM-DD format"
		}
	case KindEnum:
		if !contains(f.Options, trimmed) {
			return fmt.Sprintf("%s must be one of: %s", f.Label, strings.Join(f.Options, ", "))
		}
	}
	return ""
}

// PipelineFields is the ordered catalogue of record form fields
var PipelineFields = []Field{
	{Key: models.FieldSiteName, Label: "Site name", Kind: KindText, Required: true},
	{Key: models.FieldCity, Label: "City", Kind: KindText, Required: true},
	{Key: models.FieldArea, Label: "Area", Kind: KindText, Required: true},
	{Key: models.FieldStationOrLand, Label: "Station or land", Kind: KindEnum, Required: true, Options: models.StationOrLandOptions},
	{Key: models.FieldRevenueType, Label: "Revenue type", Kind: KindEnum, Required: true, Options: models.RevenueTypeOptions},
	{Key: models.FieldLocationCoordinates, Label: "Location coordinates", Kind: KindText, Required: true},
	{Key: models.FieldDateSiteAdded, Label: "Date site added", Kind: KindDate, Required: true},
	{Key: models.FieldSiteAddedBy, Label: "Site added by", Kind: KindText, Required: true},
	{Key: models.FieldProjectType, Label: "Project type", Kind: KindText, Required: true},
	{Key: models.FieldRealEstateTeam, Label: "Real estate team", Kind: KindText, Required: true},
	{Key: models.FieldTrafficCount, Label: "Traffic count", Kind: KindNumeric, Required: true},
	{Key: models.FieldGasolineSales, Label: "Expected gasoline sales", Kind: KindNumeric, Required: true},
	{Key: models.FieldDieselSales, Label: "Expected diesel sales", Kind: KindNumeric, Required: true},
	{Key: models.FieldRealEstateRevenue, Label: "Real estate revenue", Kind: KindNumeric, Required: true},
	{Key: models.FieldRentalDemand, Label: "Rental demand", Kind: KindNumeric, Required: true},
	{Key: models.FieldLeaseTenure, Label: "Lease tenure", Kind: KindNumeric, Required: true},
	{Key: models.FieldStage, Label: "Stage", Kind: KindText, Required: true},
	{Key: models.FieldApprovalStatus, Label: "Approval status", Kind: KindEnum, Options: models.ApprovalStatusOptions},
	{Key: models.FieldInitialComments, Label: "Initial comments", Kind: KindText},
	{Key: models.FieldPhoto, Label: "Photo", Kind: KindFile},
	{Key: models.FieldDocument, Label: "Document", Kind: KindFile},
	{Key: models.FieldCompetitions, Label: "Competition stations", Kind: KindGroup},
}

// Validator checks record values against a field catalogue
type Validator struct {
	fields []Field
	index  map[string]Field
}

// NewValidator creates a validator for the pipeline record catalogue
func NewValidator() *Validator {
	index := make(map[string]Field, len(PipelineFields))
	for _, f := range PipelineFields {
		index[f.Key] = f
	}
	return &Validator{fields: PipelineFields, index: index}
}

// Fields returns the catalogue in display order
func (v *Validator) Fields() []Field {
	return v.fields
}

// Field looks up a field by key
func (v *Validator) Field(key string) (Field, bool) {
	f, ok := v.index[key]
	return f, ok
}

// ValidateRecord validates every scalar field and every competition entry and
// returns the complete set of violations.
func (v *Validator) ValidateRecord(values map[string]string, competitions []models.CompetitionStation) ErrorSet {
	errs := make(ErrorSet)

	for _, f := range v.fields {
		if f.Kind == KindGroup || f.Kind == KindFile {
			continue
		}
		if msg := f.Check(values[f.Key]); msg != "" {
			errs[f.Key] = msg
		}
	}

	for field, msg := range ValidateCompetitions(competitions) {
		errs[field] = msg
	}

	return errs
}

// ValidateCompetitions requires a company name on every entry that has any
// data and rejects negative sales figures. Entirely blank entries are ignored.
// Sales values that are not numbers are not errors; they are sent as 0.
func ValidateCompetitions(entries []models.CompetitionStation) ErrorSet {
	errs := make(ErrorSet)
	for i, entry := range entries {
		if IsBlankCompetition(entry) {
			continue
		}
		if strings.TrimSpace(entry.CompanyName) == "" {
			errs[CompetitionKey(i, models.CompetitionCompanyName)] = "Company name is required"
		}
		for _, sales := range []struct{ key, value string }{
			{models.CompetitionStationSales, entry.StationSales},
			{models.CompetitionDieselSales, entry.DieselSales},
			{models.CompetitionGasolineSales, entry.GasolineSales},
		} {
			if _, err := ParseNumber(sales.value); errors.Is(err, ErrNegative) {
				errs[CompetitionKey(i, sales.key)] = "Sales must not be negative"
			}
		}
	}
	return errs
}

// MinPasswordLength is the shortest password accepted before a login attempt
const MinPasswordLength = 6

// ValidateCredentials checks login input before any request is made
func ValidateCredentials(username, password string) ErrorSet {
	errs := make(ErrorSet)
	if strings.TrimSpace(username) == "" {
		errs["username"] = "Username is required"
	}
	switch {
	case password == "":
		errs["password"] = "Password is required"
	case len([]rune(password)) < MinPasswordLength:
		errs["password"] = fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	}
	return errs
}

// CompetitionKey is the error-set key of a competition entry field
func CompetitionKey(index int, field string) string {
	return fmt.Sprintf("%s[%d].%s", models.FieldCompetitions, index, field)
}

// IsBlankCompetition reports whether every field of the entry is blank
func IsBlankCompetition(c models.CompetitionStation) bool {
	for _, s := range []string{c.CompanyName, c.StationSales, c.DieselSales, c.GasolineSales, c.Comments} {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// ParseNumber parses a numeric field value. The value must be a finite
// number >= 0.
func ParseNumber(s string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%q: %w", s, ErrNotNumber)
	}
	if n < 0 {
		return 0, fmt.Errorf("%q: %w", s, ErrNegative)
	}
	return n, nil
}

// ParseNumberOrZero parses a numeric value, defaulting to 0 on failure
func ParseNumberOrZero(s string) float64 {
	n, err := ParseNumber(s)
	if err != nil {
		return 0
	}
	return n
}

// ParseDate parses an ISO calendar date. Out-of-range months and days fail.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(models.DateLayout, strings.TrimSpace(s))
}

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
