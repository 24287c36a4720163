package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Field keys of a pipeline record. They double as the backend wire names.
const (
	FieldSiteName            = "site_name"
	FieldCity                = "city"
	FieldArea                = "area"
	FieldStationOrLand       = "station_or_land"
	FieldRevenueType         = "revenue_type"
	FieldLocationCoordinates = "location_coordinates"
	FieldDateSiteAdded       = "date_site_added"
	FieldSiteAddedBy         = "site_added_by"
	FieldProjectType         = "project_type"
	FieldRealEstateTeam      = "real_estate_team"
	FieldTrafficCount        = "traffic_count_5_min"
	FieldGasolineSales       = "expected_gasoline_sales_liters_day"
	FieldDieselSales         = "expected_diesel_sales_liters_day"
	FieldRealEstateRevenue   = "real_estate_revenue_expected_sar_yr"
	FieldRentalDemand        = "rental_demand"
	FieldLeaseTenure         = "lease_tenure"
	FieldStage               = "stage"
	FieldApprovalStatus      = "approval_status_by_development_team"
	FieldInitialComments     = "initial_comments"
	FieldPhoto               = "photo"
	FieldDocument            = "document"
	FieldCompetitions        = "competitions"
)

// Competition entry keys
const (
	CompetitionCompanyName   = "company_name"
	CompetitionStationSales  = "station_sales"
	CompetitionDieselSales   = "diesel_sales"
	CompetitionGasolineSales = "gasoline_sales"
	CompetitionComments      = "comments"
)

// Picker values, sent to the backend unchanged
var (
	StationOrLandOptions  = []string{"Station", "Land"}
	RevenueTypeOptions    = []string{"Fuel", "Non-Fuel", "Fuel & Non-Fuel"}
	ApprovalStatusOptions = []string{"Pending", "Approved", "Rejected"}
)

// DateLayout is the ISO-8601 calendar date shape used on the wire
const DateLayout = "2006-01-02"

// AttachmentKind identifies which upload endpoint an attachment goes to
type AttachmentKind string

const (
	AttachmentPhoto    AttachmentKind = "photo"
	AttachmentDocument AttachmentKind = "document"
)

// Valid reports whether k is a known attachment kind
func (k AttachmentKind) Valid() bool {
	return k == AttachmentPhoto || k == AttachmentDocument
}

// CompetitionStation is the editable shape of a competing station. Sales
// figures are held as typed text until submission.
type CompetitionStation struct {
	CompanyName   string `json:"company_name" yaml:"company_name"`
	StationSales  string `json:"station_sales" yaml:"station_sales"`
	DieselSales   string `json:"diesel_sales" yaml:"diesel_sales"`
	GasolineSales string `json:"gasoline_sales" yaml:"gasoline_sales"`
	Comments      string `json:"comments" yaml:"comments"`
}

// CompetitionPayload is the transport shape of a competing station
type CompetitionPayload struct {
	CompanyName   string  `json:"company_name" binding:"required"`
	StationSales  float64 `json:"station_sales" binding:"gte=0"`
	DieselSales   float64 `json:"diesel_sales" binding:"gte=0"`
	GasolineSales float64 `json:"gasoline_sales" binding:"gte=0"`
	Comments      string  `json:"comments"`
}

// PipelinePayload is the JSON body of a record creation call
type PipelinePayload struct {
	SiteName            string               `json:"site_name" binding:"required"`
	City                string               `json:"city" binding:"required"`
	Area                string               `json:"area" binding:"required"`
	StationOrLand       string               `json:"station_or_land" binding:"required"`
	RevenueType         string               `json:"revenue_type" binding:"required"`
	LocationCoordinates string               `json:"location_coordinates" binding:"required"`
	DateSiteAdded       string               `json:"date_site_added" binding:"required,datetime=2006-01-02"`
	SiteAddedBy         string               `json:"site_added_by" binding:"required"`
	ProjectType         string               `json:"project_type" binding:"required"`
	RealEstateTeam      string               `json:"real_estate_team" binding:"required"`
	TrafficCount5Min    float64              `json:"traffic_count_5_min" binding:"gte=0"`
	GasolineSales       float64              `json:"expected_gasoline_sales_liters_day" binding:"gte=0"`
	DieselSales         float64              `json:"expected_diesel_sales_liters_day" binding:"gte=0"`
	RealEstateRevenue   float64              `json:"real_estate_revenue_expected_sar_yr" binding:"gte=0"`
	RentalDemand        float64              `json:"rental_demand" binding:"gte=0"`
	LeaseTenure         float64              `json:"lease_tenure" binding:"gte=0"`
	Stage               string               `json:"stage" binding:"required"`
	ApprovalStatus      string               `json:"approval_status_by_development_team,omitempty"`
	InitialComments     string               `json:"initial_comments"`
	Competitions        []CompetitionPayload `json:"competitions" binding:"dive"`
}

// Attachment describes a file stored against a record
type Attachment struct {
	ObjectName  string    `json:"object_name"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// PipelineRecord is a created record as the backend reports it
type PipelineRecord struct {
	ID int64 `json:"id"`
	PipelinePayload
	Images    []Attachment `json:"images"`
	Documents []Attachment `json:"documents"`
	CreatedBy string       `json:"created_by,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// FlexibleID accepts identifiers encoded either as JSON numbers or strings.
// Any other JSON value decodes to the empty identifier.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*id = ""
	if len(data) == 0 {
		return nil
	}
	switch c := data[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
	case c == '-' || (c >= '0' && c <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		*id = FlexibleID(n.String())
	}
	return nil
}

// String returns the identifier text
func (id FlexibleID) String() string {
	return string(id)
}

// CreateRecordResponse is the part of a creation response the client relies on
type CreateRecordResponse struct {
	ID FlexibleID `json:"id"`
}
