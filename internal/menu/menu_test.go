package menu

import (
	"testing"

	"github.com/pipeline-entry/internal/models"
)

func TestOptionsFor(t *testing.T) {
	tests := []struct {
		role        models.Role
		wantCount   int
		wantEnabled []int
	}{
		{models.RoleSuperAdmin, 4, []int{1}},
		{models.RoleAdmin, 4, []int{1, 2}},
		{models.RoleAgent, 4, []int{1, 2}},
		{models.RoleViewer, 4, []int{2}},
		{models.Role("Janitor"), 0, nil},
		{models.Role(""), 0, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			options := OptionsFor(tt.role)
			if len(options) != tt.wantCount {
				t.Fatalf("OptionsFor(%q) got %d options, want %d", tt.role, len(options), tt.wantCount)
			}

			var enabled []int
			for i, o := range options {
				if o.ID != i+1 {
					t.Errorf("option %d has id %d, want stable ordering", i, o.ID)
				}
				if o.Enabled {
					enabled = append(enabled, o.ID)
				}
			}
			if len(enabled) != len(tt.wantEnabled) {
				t.Fatalf("enabled ids = %v, want %v", enabled, tt.wantEnabled)
			}
			for i := range enabled {
				if enabled[i] != tt.wantEnabled[i] {
					t.Errorf("enabled ids = %v, want %v", enabled, tt.wantEnabled)
				}
			}
		})
	}
}

func TestOptionsFor_ReturnsCopy(t *testing.T) {
	options := OptionsFor(models.RoleAgent)
	options[0].Enabled = false

	if !OptionsFor(models.RoleAgent)[0].Enabled {
		t.Error("mutating the returned slice must not change the table")
	}
}

func TestActivate(t *testing.T) {
	t.Run("disabled option shows coming soon", func(t *testing.T) {
		option, _ := Find(models.RoleAgent, 3)
		act := Activate(option)
		if act.Action != ActionNotice {
			t.Errorf("Expected ActionNotice, got %v", act.Action)
		}
		if act.Notice == nil || act.Notice.Title != "Coming Soon" {
			t.Errorf("Expected coming soon notice, got %+v", act.Notice)
		}
		if act.Notice.Message != "Schedule Visits feature will be available soon!" {
			t.Errorf("unexpected message %q", act.Notice.Message)
		}
	})

	t.Run("first tile opens the form", func(t *testing.T) {
		for _, role := range []models.Role{models.RoleSuperAdmin, models.RoleAdmin, models.RoleAgent} {
			option, _ := Find(role, 1)
			if act := Activate(option); act.Action != ActionOpenForm {
				t.Errorf("%s: expected form to open, got %v", role, act.Action)
			}
		}
	})

	t.Run("other enabled tile shows feature notice", func(t *testing.T) {
		option, _ := Find(models.RoleViewer, 2)
		act := Activate(option)
		if act.Action != ActionNotice || act.Notice.Title != "Feature Clicked" {
			t.Errorf("unexpected activation %+v", act)
		}
	})
}

func TestFormOption(t *testing.T) {
	if _, ok := FormOption(models.RoleViewer); ok {
		t.Error("viewers should not be able to open the form")
	}
	option, ok := FormOption(models.RoleAgent)
	if !ok || option.Kind != models.OptionPipelineEntry {
		t.Errorf("agent form option = %+v, %v", option, ok)
	}
}
