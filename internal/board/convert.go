package board

import (
	"sort"

	"corkboard/api/internal/remote"
)

// Conversion between the remote store's uid-keyed maps and the client's
// ordered lists, one function per hierarchy level. Map iteration is
// normalized by sorting uids so equal-order entries always materialize in
// the same baseline order; the ordering policy's stable sort then keeps
// that relative position for ties. A nil remote map converts to an empty
// list, never an error.

func WorkspacesToClient(tree map[string]remote.WorkspaceBody) []*Workspace {
	workspaces := make([]*Workspace, 0, len(tree))
	for _, uid := range sortedKeys(tree) {
		body := tree[uid]
		workspaces = append(workspaces, &Workspace{
			UID:        uid,
			Properties: body.Properties,
			Columns:    ColumnsToClient(body.Columns),
		})
	}
	return workspaces
}

func ColumnsToClient(columns map[string]remote.ColumnBody) []*Column {
	list := make([]*Column, 0, len(columns))
	for _, uid := range sortedKeys(columns) {
		body := columns[uid]
		list = append(list, &Column{
			UID:        uid,
			Properties: body.Properties,
			Cards:      CardsToClient(body.Cards),
		})
	}
	return list
}

func CardsToClient(cards map[string]remote.CardBody) []*Card {
	list := make([]*Card, 0, len(cards))
	for _, uid := range sortedKeys(cards) {
		list = append(list, &Card{UID: uid, Properties: cards[uid].Properties})
	}
	return list
}

// ColumnsToRemote inverts ColumnsToClient, cards included. Used when a
// bulk reorder overwrites a workspace's whole column set in one write.
func ColumnsToRemote(columns []*Column) map[string]remote.ColumnBody {
	bodies := make(map[string]remote.ColumnBody, len(columns))
	for _, column := range columns {
		bodies[column.UID] = remote.ColumnBody{
			Properties: column.Properties,
			Cards:      CardsToRemote(column.Cards),
		}
	}
	return bodies
}

func CardsToRemote(cards []*Card) map[string]remote.CardBody {
	if len(cards) == 0 {
		return nil
	}
	bodies := make(map[string]remote.CardBody, len(cards))
	for _, card := range cards {
		bodies[card.UID] = remote.CardBody{Properties: card.Properties}
	}
	return bodies
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
