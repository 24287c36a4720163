package models

// OptionKind identifies a dashboard feature independently of how it is drawn.
// The presentation layer resolves each kind to its own icon or glyph.
type OptionKind string

const (
	OptionPipelineEntry     OptionKind = "pipeline_entry"
	OptionPipelineReview    OptionKind = "pipeline_review"
	OptionUserManagement    OptionKind = "user_management"
	OptionStatusOverview    OptionKind = "status_overview"
	OptionAuditLogs         OptionKind = "audit_logs"
	OptionApprovePromote    OptionKind = "approve_promote"
	OptionDataValidation    OptionKind = "data_validation"
	OptionStationOverview   OptionKind = "station_overview"
	OptionMySubmissions     OptionKind = "my_submissions"
	OptionScheduleVisits    OptionKind = "schedule_visits"
	OptionStationLocator    OptionKind = "station_locator"
	OptionPipelineDashboard OptionKind = "pipeline_dashboard"
	OptionStationListings   OptionKind = "station_listings"
	OptionReportsArchive    OptionKind = "reports_archive"
	OptionAnalytics         OptionKind = "analytics"
)

// MenuOption is one dashboard tile
type MenuOption struct {
	ID       int        `json:"id"`
	Kind     OptionKind `json:"kind"`
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle"`
	Enabled  bool       `json:"enabled"`
	Color    string     `json:"color"`
}

// OpensForm reports whether activating the option mounts the record form
func (o MenuOption) OpensForm() bool {
	return o.Kind == OptionPipelineEntry || o.Kind == OptionPipelineReview
}
