// Package board holds the in-memory mirror of a user's boards: the full
// workspace list and the one workspace installed as current, shaped as
// ordered lists instead of the remote store's uid-keyed maps.
package board

import "corkboard/api/internal/remote"

// Workspace is the client shape of a workspace. Columns are ordered; the
// remote map shape carries no order of its own.
type Workspace struct {
	UID        string                     `json:"uid"`
	Properties remote.WorkspaceProperties `json:"properties"`
	Columns    []*Column                  `json:"columns"`
}

type Column struct {
	UID        string                  `json:"uid"`
	Properties remote.ColumnProperties `json:"properties"`
	Cards      []*Card                 `json:"cards"`
}

type Card struct {
	UID        string                `json:"uid"`
	Properties remote.CardProperties `json:"properties"`
}
