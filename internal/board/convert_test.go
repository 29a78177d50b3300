package board

import (
	"reflect"
	"testing"

	"corkboard/api/internal/remote"
)

func TestColumnsRoundTrip(t *testing.T) {
	original := map[string]remote.ColumnBody{
		"col-a": {
			Properties: remote.ColumnProperties{Name: "Todo", Order: 2},
			Cards: map[string]remote.CardBody{
				"card-1": {Properties: remote.CardProperties{Name: "Task one", Order: 1}},
				"card-2": {Properties: remote.CardProperties{Name: "Task two", Order: 0, Description: "notes"}},
			},
		},
		"col-b": {
			Properties: remote.ColumnProperties{Name: "Done", Order: 1},
		},
	}

	roundTripped := ColumnsToRemote(ColumnsToClient(original))
	if !reflect.DeepEqual(roundTripped, original) {
		t.Fatalf("round trip mismatch:\n got  %#v\n want %#v", roundTripped, original)
	}
}

func TestWorkspacesToClientConvertsNestedLevels(t *testing.T) {
	tree := map[string]remote.WorkspaceBody{
		"ws-1": {
			Properties: remote.WorkspaceProperties{Name: "Sprint 1"},
			Columns: map[string]remote.ColumnBody{
				"col-1": {
					Properties: remote.ColumnProperties{Name: "Todo"},
					Cards: map[string]remote.CardBody{
						"card-1": {Properties: remote.CardProperties{Name: "Task"}},
					},
				},
			},
		},
	}

	workspaces := WorkspacesToClient(tree)
	if len(workspaces) != 1 {
		t.Fatalf("expected 1 workspace, got %d", len(workspaces))
	}
	ws := workspaces[0]
	if ws.UID != "ws-1" || ws.Properties.Name != "Sprint 1" {
		t.Errorf("unexpected workspace: %+v", ws)
	}
	if len(ws.Columns) != 1 || ws.Columns[0].UID != "col-1" {
		t.Fatalf("expected nested column conversion, got %+v", ws.Columns)
	}
	if len(ws.Columns[0].Cards) != 1 || ws.Columns[0].Cards[0].UID != "card-1" {
		t.Fatalf("expected nested card conversion, got %+v", ws.Columns[0].Cards)
	}
}

func TestToClientHandlesNilMaps(t *testing.T) {
	if got := WorkspacesToClient(nil); len(got) != 0 {
		t.Errorf("expected empty workspace list, got %v", got)
	}
	if got := ColumnsToClient(nil); len(got) != 0 {
		t.Errorf("expected empty column list, got %v", got)
	}
	if got := CardsToClient(nil); len(got) != 0 {
		t.Errorf("expected empty card list, got %v", got)
	}
}

func TestToClientBaselineOrderIsDeterministic(t *testing.T) {
	cards := map[string]remote.CardBody{
		"card-c": {Properties: remote.CardProperties{Name: "C"}},
		"card-a": {Properties: remote.CardProperties{Name: "A"}},
		"card-b": {Properties: remote.CardProperties{Name: "B"}},
	}
	first := CardsToClient(cards)
	for i := 0; i < 20; i++ {
		again := CardsToClient(cards)
		if !reflect.DeepEqual(again, first) {
			t.Fatalf("conversion order not deterministic: %v vs %v", again, first)
		}
	}
	if first[0].UID != "card-a" || first[1].UID != "card-b" || first[2].UID != "card-c" {
		t.Errorf("expected uid-sorted baseline order, got %v", []string{first[0].UID, first[1].UID, first[2].UID})
	}
}
