package board

import (
	"testing"

	"corkboard/api/internal/remote"
)

func TestNewWorkspaceFillsDefaults(t *testing.T) {
	ws := NewWorkspace(remote.WorkspaceProperties{Name: "Sprint 1"})
	if ws.Properties.Name != "Sprint 1" {
		t.Errorf("expected caller name kept, got %q", ws.Properties.Name)
	}
	if ws.Properties.BackgroundColor == "" {
		t.Error("expected default background color")
	}
	if ws.Columns == nil {
		t.Error("expected non-nil column list")
	}
}

func TestNewWorkspaceKeepsCallerColor(t *testing.T) {
	ws := NewWorkspace(remote.WorkspaceProperties{Name: "Sprint 1", BackgroundColor: "#123456"})
	if ws.Properties.BackgroundColor != "#123456" {
		t.Errorf("caller color clobbered: %q", ws.Properties.BackgroundColor)
	}
}

func TestNewChangeLeavesTimestampUnset(t *testing.T) {
	change := NewChange(remote.ColumnCreate, "Todo", "user-1", "Avery")
	if !change.Timestamp.IsZero() {
		t.Error("timestamp must be assigned by the remote store, not the factory")
	}
	if change.UserUID != "user-1" || change.UserName != "Avery" {
		t.Errorf("identity not bound: %+v", change)
	}
}
