// Package remote implements the authoritative backing store for boards: a
// per-user tree of workspaces, columns, cards and an append-only change
// list, addressed by entity uids. Two backends exist, Redis and Postgres;
// both expose the same typed operations over the same logical paths:
//
//	{user}/currentWorkspace
//	{user}/workspaces/{ws}/properties
//	{user}/workspaces/{ws}/columns/{col}/properties
//	{user}/workspaces/{ws}/columns/{col}/cards/{card}/properties
//	{user}/workspaces/{ws}/changes
package remote

import "time"

// WorkspaceProperties is the remote shape of a workspace's own fields.
// Legacy records may omit any of them; readers fill defaults on install.
type WorkspaceProperties struct {
	Name            string           `json:"name"`
	BackgroundColor string           `json:"backgroundColor,omitempty"`
	BackgroundImage *BackgroundImage `json:"backgroundImage,omitempty"`
	Order           float64          `json:"order,omitempty"`
}

type BackgroundImage struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type ColumnProperties struct {
	Name  string  `json:"name"`
	Order float64 `json:"order"`
}

type CardProperties struct {
	Name        string  `json:"name"`
	Order       float64 `json:"order"`
	Description string  `json:"description,omitempty"`
}

// WorkspaceBody is a full workspace subtree as stored remotely: properties
// plus an unordered uid-keyed map of columns. Ordering is a client concern.
type WorkspaceBody struct {
	Properties WorkspaceProperties   `json:"properties"`
	Columns    map[string]ColumnBody `json:"columns,omitempty"`
}

type ColumnBody struct {
	Properties ColumnProperties    `json:"properties"`
	Cards      map[string]CardBody `json:"cards,omitempty"`
}

type CardBody struct {
	Properties CardProperties `json:"properties"`
}

// ChangeAction classifies an audit entry.
type ChangeAction string

const (
	ColumnCreate          ChangeAction = "COLUMN_CREATE"
	ColumnRemove          ChangeAction = "COLUMN_REMOVE"
	ColumnRename          ChangeAction = "COLUMN_RENAME"
	CardCreate            ChangeAction = "CARD_CREATE"
	CardRename            ChangeAction = "CARD_RENAME"
	CardRemove            ChangeAction = "CARD_REMOVE"
	CardChangeDescription ChangeAction = "CARD_CHANGE_DESCRIPTION"
	CardRemoveDescription ChangeAction = "CARD_REMOVE_DESCRIPTION"
)

// ChangeBody is one append-only audit entry. Timestamp is assigned by the
// store at append time, never by the caller.
type ChangeBody struct {
	Action    ChangeAction `json:"action"`
	Value     any          `json:"value"`
	UserUID   string       `json:"userUid"`
	UserName  string       `json:"userName"`
	Timestamp time.Time    `json:"timestamp"`
}

// Action-specific change payloads. COLUMN_CREATE carries the plain column
// name instead of a struct.

type ColumnRemoveValue struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

type ColumnRenameValue struct {
	ColumnUID string `json:"columnUid"`
	NewName   string `json:"newName"`
	OldName   string `json:"oldName"`
}

type CardCreateValue struct {
	ColumnUID  string `json:"columnUid"`
	Name       string `json:"name"`
	ColumnName string `json:"columnName"`
}

type CardRenameValue struct {
	ColumnUID   string `json:"columnUid"`
	ColumnName  string `json:"columnName"`
	NewCardName string `json:"newCardName"`
	OldCardName string `json:"oldCardName"`
}

type CardDescriptionValue struct {
	ColumnUID   string `json:"columnUid"`
	ColumnName  string `json:"columnName"`
	CardName    string `json:"cardName"`
	Description string `json:"description,omitempty"`
}

type CardRemoveValue struct {
	ColumnUID  string `json:"columnUid"`
	CardUID    string `json:"cardUid"`
	CardName   string `json:"cardName"`
	ColumnName string `json:"columnName"`
}
