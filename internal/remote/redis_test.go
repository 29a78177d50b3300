package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func setupTestStore(t *testing.T) *RedisStore {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewRedisStore(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestCreateAndReadWorkspaceTree(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.CreateWorkspace(ctx, "user-1", "ws-1", WorkspaceProperties{Name: "Sprint 1", BackgroundColor: "#aabbcc"}); err != nil {
		t.Fatalf("CreateWorkspace failed: %v", err)
	}
	if err := store.CreateColumn(ctx, "user-1", "ws-1", "col-1", ColumnProperties{Name: "Todo", Order: 0}); err != nil {
		t.Fatalf("CreateColumn failed: %v", err)
	}
	if err := store.CreateCard(ctx, "user-1", "ws-1", "col-1", "card-1", CardProperties{Name: "Write spec", Order: 1}); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	tree, err := store.WorkspaceTree(ctx, "user-1")
	if err != nil {
		t.Fatalf("WorkspaceTree failed: %v", err)
	}
	ws, ok := tree["ws-1"]
	if !ok {
		t.Fatalf("expected ws-1 in tree, got %v", tree)
	}
	if ws.Properties.Name != "Sprint 1" {
		t.Errorf("expected workspace name Sprint 1, got %q", ws.Properties.Name)
	}
	col, ok := ws.Columns["col-1"]
	if !ok {
		t.Fatalf("expected col-1 in workspace, got %v", ws.Columns)
	}
	if col.Properties.Name != "Todo" {
		t.Errorf("expected column name Todo, got %q", col.Properties.Name)
	}
	card, ok := col.Cards["card-1"]
	if !ok {
		t.Fatalf("expected card-1 in column, got %v", col.Cards)
	}
	if card.Properties.Name != "Write spec" || card.Properties.Order != 1 {
		t.Errorf("unexpected card properties: %+v", card.Properties)
	}
}

func TestWorkspaceNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Workspace(context.Background(), "user-1", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRequiresExistingEntity(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.UpdateWorkspaceProperties(ctx, "user-1", "missing", WorkspaceProperties{Name: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for workspace update, got %v", err)
	}
	err = store.UpdateColumnProperties(ctx, "user-1", "ws-1", "missing", ColumnProperties{Name: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for column update, got %v", err)
	}
	err = store.UpdateCardProperties(ctx, "user-1", "ws-1", "col-1", "missing", CardProperties{Name: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for card update, got %v", err)
	}
}

func TestUpdateOverwritesProperties(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.CreateCard(ctx, "user-1", "ws-1", "col-1", "card-1", CardProperties{Name: "Draft", Order: 2, Description: "old"}); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	if err := store.UpdateCardProperties(ctx, "user-1", "ws-1", "col-1", "card-1", CardProperties{Name: "Draft", Order: 2}); err != nil {
		t.Fatalf("UpdateCardProperties failed: %v", err)
	}

	cards, err := store.readCards(ctx, "user-1", "ws-1", "col-1")
	if err != nil {
		t.Fatalf("readCards failed: %v", err)
	}
	if cards["card-1"].Properties.Description != "" {
		t.Errorf("expected cleared description, got %q", cards["card-1"].Properties.Description)
	}
}

func TestRemoveWorkspaceClearsSubtree(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.CreateWorkspace(ctx, "user-1", "ws-1", WorkspaceProperties{Name: "Board"}); err != nil {
		t.Fatalf("CreateWorkspace failed: %v", err)
	}
	if err := store.CreateColumn(ctx, "user-1", "ws-1", "col-1", ColumnProperties{Name: "Todo"}); err != nil {
		t.Fatalf("CreateColumn failed: %v", err)
	}
	if err := store.CreateCard(ctx, "user-1", "ws-1", "col-1", "card-1", CardProperties{Name: "Task"}); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	if err := store.AppendChange(ctx, "user-1", "ws-1", ChangeBody{Action: ColumnCreate, Value: "Todo"}); err != nil {
		t.Fatalf("AppendChange failed: %v", err)
	}

	if err := store.RemoveWorkspace(ctx, "user-1", "ws-1"); err != nil {
		t.Fatalf("RemoveWorkspace failed: %v", err)
	}

	tree, err := store.WorkspaceTree(ctx, "user-1")
	if err != nil {
		t.Fatalf("WorkspaceTree failed: %v", err)
	}
	if len(tree) != 0 {
		t.Errorf("expected empty tree after removal, got %v", tree)
	}
	changes, err := store.ListChanges(ctx, "user-1", "ws-1")
	if err != nil {
		t.Fatalf("ListChanges failed: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("expected change list cleared, got %d entries", len(changes))
	}

	// Removing again is a no-op, not an error.
	if err := store.RemoveWorkspace(ctx, "user-1", "ws-1"); err != nil {
		t.Errorf("second RemoveWorkspace failed: %v", err)
	}
}

func TestCurrentWorkspacePointer(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	uid, err := store.CurrentWorkspaceUID(ctx, "user-1")
	if err != nil {
		t.Fatalf("CurrentWorkspaceUID failed: %v", err)
	}
	if uid != "" {
		t.Errorf("expected empty pointer, got %q", uid)
	}

	if err := store.SetCurrentWorkspaceUID(ctx, "user-1", "ws-1"); err != nil {
		t.Fatalf("SetCurrentWorkspaceUID failed: %v", err)
	}
	uid, err = store.CurrentWorkspaceUID(ctx, "user-1")
	if err != nil {
		t.Fatalf("CurrentWorkspaceUID failed: %v", err)
	}
	if uid != "ws-1" {
		t.Errorf("expected ws-1, got %q", uid)
	}

	if err := store.ClearCurrentWorkspaceUID(ctx, "user-1"); err != nil {
		t.Fatalf("ClearCurrentWorkspaceUID failed: %v", err)
	}
	uid, err = store.CurrentWorkspaceUID(ctx, "user-1")
	if err != nil {
		t.Fatalf("CurrentWorkspaceUID failed: %v", err)
	}
	if uid != "" {
		t.Errorf("expected cleared pointer, got %q", uid)
	}
}

func TestAppendAndListChangesKeepOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entries := []ChangeBody{
		{Action: ColumnCreate, Value: "Todo", UserUID: "user-1", UserName: "Avery"},
		{Action: CardCreate, Value: CardCreateValue{ColumnUID: "col-1", Name: "Task", ColumnName: "Todo"}, UserUID: "user-1", UserName: "Avery"},
		{Action: ColumnRemove, Value: ColumnRemoveValue{Index: 0, Name: "Todo"}, UserUID: "user-1", UserName: "Avery"},
	}
	for _, entry := range entries {
		if err := store.AppendChange(ctx, "user-1", "ws-1", entry); err != nil {
			t.Fatalf("AppendChange failed: %v", err)
		}
	}

	changes, err := store.ListChanges(ctx, "user-1", "ws-1")
	if err != nil {
		t.Fatalf("ListChanges failed: %v", err)
	}
	if len(changes) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(changes))
	}
	for i, entry := range entries {
		if changes[i].Action != entry.Action {
			t.Errorf("change %d: expected action %s, got %s", i, entry.Action, changes[i].Action)
		}
		if changes[i].Timestamp.IsZero() {
			t.Errorf("change %d: expected store-assigned timestamp", i)
		}
	}
}

func TestSetColumnsReplacesWholeSet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.CreateColumn(ctx, "user-1", "ws-1", "col-old", ColumnProperties{Name: "Old", Order: 0}); err != nil {
		t.Fatalf("CreateColumn failed: %v", err)
	}
	if err := store.CreateCard(ctx, "user-1", "ws-1", "col-old", "card-old", CardProperties{Name: "Stale"}); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	err := store.SetColumns(ctx, "user-1", "ws-1", map[string]ColumnBody{
		"col-new": {
			Properties: ColumnProperties{Name: "New", Order: 0},
			Cards: map[string]CardBody{
				"card-new": {Properties: CardProperties{Name: "Fresh", Order: 0}},
			},
		},
	})
	if err != nil {
		t.Fatalf("SetColumns failed: %v", err)
	}

	columns, err := store.readColumns(ctx, "user-1", "ws-1")
	if err != nil {
		t.Fatalf("readColumns failed: %v", err)
	}
	if _, ok := columns["col-old"]; ok {
		t.Error("expected col-old replaced")
	}
	newCol, ok := columns["col-new"]
	if !ok {
		t.Fatalf("expected col-new present, got %v", columns)
	}
	if _, ok := newCol.Cards["card-new"]; !ok {
		t.Errorf("expected card-new under col-new, got %v", newCol.Cards)
	}

	// Stale card set for the replaced column must be gone too.
	cards, err := store.readCards(ctx, "user-1", "ws-1", "col-old")
	if err != nil {
		t.Fatalf("readCards failed: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("expected no cards for replaced column, got %v", cards)
	}
}
