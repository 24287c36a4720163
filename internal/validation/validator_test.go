package validation

import (
	"errors"
	"testing"

	"github.com/pipeline-entry/internal/models"
)

func validValues() map[string]string {
	return map[string]string{
		models.FieldSiteName:            "North Ring Road",
		models.FieldCity:                "Riyadh",
		models.FieldArea:                "Al Malqa",
		models.FieldStationOrLand:       "Land",
		models.FieldRevenueType:         "Fuel",
		models.FieldLocationCoordinates: "24.8136,46.6218",
		models.FieldDateSiteAdded:       "2024-06-01",
		models.FieldSiteAddedBy:         "agent",
		models.FieldProjectType:         "New Build",
		models.FieldRealEstateTeam:      "Central",
		models.FieldTrafficCount:        "120",
		models.FieldGasolineSales:       "15000",
		models.FieldDieselSales:         "4000.5",
		models.FieldRealEstateRevenue:   "350000",
		models.FieldRentalDemand:        "0",
		models.FieldLeaseTenure:         "15",
		models.FieldStage:               "Survey",
	}
}

func TestValidateRecord(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name       string
		mutate     func(map[string]string)
		wantErrors int
		wantFields []string
	}{
		{
			name:       "valid record with all required fields",
			mutate:     func(map[string]string) {},
			wantErrors: 0,
		},
		{
			name:       "missing site name - required field",
			mutate:     func(v map[string]string) { delete(v, models.FieldSiteName) },
			wantErrors: 1,
			wantFields: []string{models.FieldSiteName},
		},
		{
			name:       "whitespace-only city counts as empty",
			mutate:     func(v map[string]string) { v[models.FieldCity] = "   \t" },
			wantErrors: 1,
			wantFields: []string{models.FieldCity},
		},
		{
			name:       "non-numeric traffic count",
			mutate:     func(v map[string]string) { v[models.FieldTrafficCount] = "lots" },
			wantErrors: 1,
			wantFields: []string{models.FieldTrafficCount},
		},
		{
			name:       "negative lease tenure",
			mutate:     func(v map[string]string) { v[models.FieldLeaseTenure] = "-1" },
			wantErrors: 1,
			wantFields: []string{models.FieldLeaseTenure},
		},
		{
			name:       "zero is a valid number",
			mutate:     func(v map[string]string) { v[models.FieldTrafficCount] = "0" },
			wantErrors: 0,
		},
		{
			name:       "impossible calendar date",
			mutate:     func(v map[string]string) { v[models.FieldDateSiteAdded] = "2024-13-40" },
			wantErrors: 1,
			wantFields: []string{models.FieldDateSiteAdded},
		},
		{
			name:       "date in wrong shape",
			mutate:     func(v map[string]string) { v[models.FieldDateSiteAdded] = "01/06/2024" },
			wantErrors: 1,
			wantFields: []string{models.FieldDateSiteAdded},
		},
		{
			name:       "unknown picker value",
			mutate:     func(v map[string]string) { v[models.FieldStationOrLand] = "Warehouse" },
			wantErrors: 1,
			wantFields: []string{models.FieldStationOrLand},
		},
		{
			name:       "optional approval status left empty",
			mutate:     func(v map[string]string) { v[models.FieldApprovalStatus] = "" },
			wantErrors: 0,
		},
		{
			name: "multiple validation errors",
			mutate: func(v map[string]string) {
				delete(v, models.FieldSiteName)
				v[models.FieldRentalDemand] = "NaN"
				v[models.FieldGasolineSales] = "Inf"
				v[models.FieldDateSiteAdded] = ""
			},
			wantErrors: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := validValues()
			tt.mutate(values)

			errors := validator.ValidateRecord(values, nil)
			if len(errors) != tt.wantErrors {
				t.Errorf("ValidateRecord() got %d errors, want %d. Errors: %v", len(errors), tt.wantErrors, errors)
			}

			for _, wantField := range tt.wantFields {
				if !errors.Has(wantField) {
					t.Errorf("Expected error for field '%s' but not found", wantField)
				}
			}
		})
	}
}

func TestValidateRecord_AllRequiredEmpty(t *testing.T) {
	validator := NewValidator()
	errors := validator.ValidateRecord(map[string]string{}, nil)

	for _, f := range validator.Fields() {
		if f.Required && !errors.Has(f.Key) {
			t.Errorf("Expected required field '%s' to be reported", f.Key)
		}
		if !f.Required && errors.Has(f.Key) {
			t.Errorf("Optional field '%s' should not be reported", f.Key)
		}
	}
}

func TestValidateCompetitions(t *testing.T) {
	tests := []struct {
		name       string
		entries    []models.CompetitionStation
		wantFields []string
	}{
		{
			name:    "empty list is valid",
			entries: nil,
		},
		{
			name:    "blank slot is ignored",
			entries: []models.CompetitionStation{{}},
		},
		{
			name: "named entry with blank sales is valid",
			entries: []models.CompetitionStation{
				{CompanyName: "Aldrees"},
			},
		},
		{
			name: "entry with data but no company name",
			entries: []models.CompetitionStation{
				{CompanyName: "Sasco", DieselSales: "100"},
				{DieselSales: "200"},
			},
			wantFields: []string{"competitions[1].company_name"},
		},
		{
			name: "negative sales are rejected",
			entries: []models.CompetitionStation{
				{CompanyName: "Sahel", DieselSales: "-500", GasolineSales: "-1"},
			},
			wantFields: []string{"competitions[0].diesel_sales", "competitions[0].gasoline_sales"},
		},
		{
			name: "unparseable sales are allowed",
			entries: []models.CompetitionStation{
				{CompanyName: "Sahel", StationSales: "n/a"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := ValidateCompetitions(tt.entries)
			if len(errors) != len(tt.wantFields) {
				t.Fatalf("got %d errors, want %d: %v", len(errors), len(tt.wantFields), errors)
			}
			for _, field := range tt.wantFields {
				if !errors.Has(field) {
					t.Errorf("Expected error for '%s'", field)
				}
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr error
	}{
		{"0", 0, nil},
		{"42", 42, nil},
		{" 3.5 ", 3.5, nil},
		{"1e3", 1000, nil},
		{"-0.1", 0, ErrNegative},
		{"abc", 0, ErrNotNumber},
		{"", 0, ErrNotNumber},
		{"NaN", 0, ErrNotNumber},
		{"+Inf", 0, ErrNotNumber},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseNumber(tt.input)
			if !errors.Is(err, tt.wantErr) || (err == nil) != (tt.wantErr == nil) {
				t.Fatalf("ParseNumber(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if ParseNumberOrZero("n/a") != 0 {
		t.Error("ParseNumberOrZero should default to 0")
	}
}

func TestErrorSetList(t *testing.T) {
	errs := ErrorSet{"b": "second", "a": "first"}
	list := errs.List()
	if len(list) != 2 || list[0].Field != "a" || list[1].Field != "b" {
		t.Errorf("List() not sorted by field: %v", list)
	}

	clone := errs.Clone()
	delete(clone, "a")
	if !errs.Has("a") {
		t.Error("Clone() should not share storage")
	}
}

func TestCheck_EnumIgnoresSurroundingWhitespace(t *testing.T) {
	v := NewValidator()
	field, _ := v.Field(models.FieldStationOrLand)

	if msg := field.Check(" Station "); msg != "" {
		t.Errorf("Expected padded option to be accepted, got %q", msg)
	}
	if msg := field.Check(" station"); msg == "" {
		t.Error("Expected option matching to stay case-sensitive")
	}
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		want     map[string]string
	}{
		{"valid", "agent", "agent123", nil},
		{"both missing", "", "", map[string]string{"username": "Username is required", "password": "Password is required"}},
		{"blank username", "   ", "secret1", map[string]string{"username": "Username is required"}},
		{"short password", "agent", "short", map[string]string{"password": "Password must be at least 6 characters"}},
		{"six characters", "agent", "sixsix", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateCredentials(tt.username, tt.password)
			if len(errs) != len(tt.want) {
				t.Fatalf("ValidateCredentials() = %v, want %v", errs, tt.want)
			}
			for field, msg := range tt.want {
				if errs[field] != msg {
					t.Errorf("errs[%s] = %q, want %q", field, errs[field], msg)
				}
			}
		})
	}
}
