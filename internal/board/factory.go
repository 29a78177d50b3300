package board

import "corkboard/api/internal/remote"

// Entity constructors. Caller-supplied properties are laid over a fixed
// default skeleton; zero-valued fields keep the default so partially
// filled inputs never clobber expected structure. Uids are bound by the
// caller once minted.

const defaultBackgroundColor = "#8394a5"

func NewWorkspace(props remote.WorkspaceProperties) *Workspace {
	if props.BackgroundColor == "" {
		props.BackgroundColor = defaultBackgroundColor
	}
	return &Workspace{
		Properties: props,
		Columns:    []*Column{},
	}
}

func NewColumn(props remote.ColumnProperties) *Column {
	return &Column{
		Properties: props,
		Cards:      []*Card{},
	}
}

func NewCard(props remote.CardProperties) *Card {
	return &Card{Properties: props}
}

// NewChange builds an audit entry bound to the acting user. The timestamp
// stays zero; the remote store assigns it at append time.
func NewChange(action remote.ChangeAction, value any, userUID, userName string) remote.ChangeBody {
	return remote.ChangeBody{
		Action:   action,
		Value:    value,
		UserUID:  userUID,
		UserName: userName,
	}
}
