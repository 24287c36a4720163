package menu

import (
	"fmt"

	"github.com/pipeline-entry/internal/models"
)

// Action is what the presentation layer should do after an option is activated
type Action int

const (
	// ActionNotice shows the notice and changes nothing else
	ActionNotice Action = iota
	// ActionOpenForm mounts the record form
	ActionOpenForm
)

// Activation is the result of activating a menu option
type Activation struct {
	Action Action
	Notice *models.Notice
}

var superAdminOptions = []models.MenuOption{
	{ID: 1, Kind: models.OptionPipelineEntry, Title: "Add/Edit Pipeline", Subtitle: "Create and manage pipeline data", Enabled: true, Color: "#DC2626"},
	{ID: 2, Kind: models.OptionUserManagement, Title: "User Management", Subtitle: "Add or remove admins/agents", Enabled: false, Color: "#1D4ED8"},
	{ID: 3, Kind: models.OptionStatusOverview, Title: "Pipeline Status Overview", Subtitle: "Track status of all pipelines", Enabled: false, Color: "#059669"},
	{ID: 4, Kind: models.OptionAuditLogs, Title: "Audit Logs", Subtitle: "Track changes and user activity", Enabled: false, Color: "#F59E0B"},
}

var adminOptions = []models.MenuOption{
	{ID: 1, Kind: models.OptionPipelineReview, Title: "Review Pipeline Entries", Subtitle: "View & update submitted data", Enabled: true, Color: "#DC2626"},
	{ID: 2, Kind: models.OptionApprovePromote, Title: "Approve & Promote", Subtitle: "Move pipelines to active status", Enabled: true, Color: "#4F46E5"},
	{ID: 3, Kind: models.OptionDataValidation, Title: "Data Validation", Subtitle: "Verify information collected by agents", Enabled: false, Color: "#16A34A"},
	{ID: 4, Kind: models.OptionStationOverview, Title: "Station Overview", Subtitle: "Real estate and fuel station details", Enabled: false, Color: "#F97316"},
}

var agentOptions = []models.MenuOption{
	{ID: 1, Kind: models.OptionPipelineEntry, Title: "Submit New Pipeline", Subtitle: "Add on-site station data", Enabled: true, Color: "#DC2626"},
	{ID: 2, Kind: models.OptionMySubmissions, Title: "My Submissions", Subtitle: "Track your submitted entries", Enabled: true, Color: "#10B981"},
	{ID: 3, Kind: models.OptionScheduleVisits, Title: "Schedule Visits", Subtitle: "Plan future station visits", Enabled: false, Color: "#3B82F6"},
	{ID: 4, Kind: models.OptionStationLocator, Title: "Station Locator", Subtitle: "Navigate to assigned stations", Enabled: false, Color: "#F59E0B"},
}

var viewerOptions = []models.MenuOption{
	{ID: 1, Kind: models.OptionPipelineDashboard, Title: "View Pipeline Dashboard", Subtitle: "Track live pipeline status", Enabled: false, Color: "#6D28D9"},
	{ID: 2, Kind: models.OptionStationListings, Title: "Station Listings", Subtitle: "Explore fuel station & land data", Enabled: true, Color: "#10B981"},
	{ID: 3, Kind: models.OptionReportsArchive, Title: "Reports Archive", Subtitle: "Access downloadable reports", Enabled: false, Color: "#F59E0B"},
	{ID: 4, Kind: models.OptionAnalytics, Title: "Analytics View", Subtitle: "Fuel & real estate performance", Enabled: false, Color: "#2563EB"},
}

// OptionsFor returns the dashboard options of a role in display order. An
// unrecognised role gets no options. The returned slice is a fresh copy.
func OptionsFor(role models.Role) []models.MenuOption {
	var src []models.MenuOption
	switch role {
	case models.RoleSuperAdmin:
		src = superAdminOptions
	case models.RoleAdmin:
		src = adminOptions
	case models.RoleAgent:
		src = agentOptions
	case models.RoleViewer:
		src = viewerOptions
	default:
		return []models.MenuOption{}
	}
	return append([]models.MenuOption(nil), src...)
}

// Activate decides what activating an option does. Disabled options only
// produce a "coming soon" notice.
func Activate(option models.MenuOption) Activation {
	if !option.Enabled {
		return Activation{
			Action: ActionNotice,
			Notice: &models.Notice{
				Level:   models.NoticeInfo,
				Title:   "Coming Soon",
				Message: fmt.Sprintf("%s feature will be available soon!", option.Title),
			},
		}
	}
	if option.OpensForm() {
		return Activation{Action: ActionOpenForm}
	}
	return Activation{
		Action: ActionNotice,
		Notice: &models.Notice{
			Level:   models.NoticeInfo,
			Title:   "Feature Clicked",
			Message: fmt.Sprintf("%s tapped.", option.Title),
		},
	}
}

// Find returns the option with the given id from a role's options
func Find(role models.Role, id int) (models.MenuOption, bool) {
	for _, o := range OptionsFor(role) {
		if o.ID == id {
			return o, true
		}
	}
	return models.MenuOption{}, false
}

// FormOption returns the role's option that mounts the record form, if enabled
func FormOption(role models.Role) (models.MenuOption, bool) {
	for _, o := range OptionsFor(role) {
		if o.Enabled && o.OpensForm() {
			return o, true
		}
	}
	return models.MenuOption{}, false
}
