package app

import (
	"time"

	"corkboard/api/internal/board"
)

// Identity is the resolved acting user.
type Identity struct {
	UID  string `json:"userUid"`
	Name string `json:"userName"`
}

// Navigator is the routing collaborator: it tracks which board a session
// is looking at and is told where to go when the current workspace
// changes. The default implementation just records the location; a UI
// embedding the core supplies its own.
type Navigator interface {
	Location() (userUID, workspaceUID string)
	GoToWorkspace(userUID, workspaceUID string)
	GoToDashboard()
}

type routeNavigator struct {
	userUID      string
	workspaceUID string
}

func (n *routeNavigator) Location() (string, string) {
	return n.userUID, n.workspaceUID
}

func (n *routeNavigator) GoToWorkspace(userUID, workspaceUID string) {
	n.userUID = userUID
	n.workspaceUID = workspaceUID
}

func (n *routeNavigator) GoToDashboard() {
	n.workspaceUID = ""
}

// Session is the per-user context every operation receives explicitly:
// the resolved identity, the session's own board mirror, and its
// navigator. Nothing is shared between sessions, so tests construct
// isolated instances directly.
type Session struct {
	Identity Identity
	Board    *board.Store
	Nav      Navigator
	lastSeen time.Time
}

func NewSession(identity Identity) *Session {
	return &Session{
		Identity: identity,
		Board:    board.NewStore(),
		Nav:      &routeNavigator{userUID: identity.UID},
	}
}

// ownerUID is the uid whose tree column and card writes address: the
// owner of the board the session is looking at, which differs from the
// session's own identity when viewing an external workspace.
func (sess *Session) ownerUID() string {
	userUID, _ := sess.Nav.Location()
	if userUID == "" {
		return sess.Identity.UID
	}
	return userUID
}
