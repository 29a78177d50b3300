// Package app orchestrates board actions: each user gesture resolves the
// acting identity, writes to the remote store, and only then mutates the
// session's local mirror, so local state never runs ahead of the
// authoritative tree (with one deliberate exception, removing the current
// workspace).
package app

import (
	"context"
	"log"
	"sync"
	"time"

	"corkboard/api/internal/auth"
	"corkboard/api/internal/board"
	"corkboard/api/internal/config"
	"corkboard/api/internal/remote"
	"corkboard/api/internal/search"
	"corkboard/api/internal/util"
)

// RemoteStore is the authoritative tree, satisfied by both remote.RedisStore
// and remote.PostgresStore.
type RemoteStore interface {
	CurrentWorkspaceUID(ctx context.Context, userUID string) (string, error)
	SetCurrentWorkspaceUID(ctx context.Context, userUID, workspaceUID string) error
	ClearCurrentWorkspaceUID(ctx context.Context, userUID string) error
	WorkspaceTree(ctx context.Context, userUID string) (map[string]remote.WorkspaceBody, error)
	Workspace(ctx context.Context, userUID, workspaceUID string) (remote.WorkspaceBody, error)
	CreateWorkspace(ctx context.Context, userUID, workspaceUID string, props remote.WorkspaceProperties) error
	UpdateWorkspaceProperties(ctx context.Context, userUID, workspaceUID string, props remote.WorkspaceProperties) error
	RemoveWorkspace(ctx context.Context, userUID, workspaceUID string) error
	CreateColumn(ctx context.Context, userUID, workspaceUID, columnUID string, props remote.ColumnProperties) error
	UpdateColumnProperties(ctx context.Context, userUID, workspaceUID, columnUID string, props remote.ColumnProperties) error
	RemoveColumn(ctx context.Context, userUID, workspaceUID, columnUID string) error
	SetColumns(ctx context.Context, userUID, workspaceUID string, columns map[string]remote.ColumnBody) error
	CreateCard(ctx context.Context, userUID, workspaceUID, columnUID, cardUID string, props remote.CardProperties) error
	UpdateCardProperties(ctx context.Context, userUID, workspaceUID, columnUID, cardUID string, props remote.CardProperties) error
	RemoveCard(ctx context.Context, userUID, workspaceUID, columnUID, cardUID string) error
	SetCards(ctx context.Context, userUID, workspaceUID, columnUID string, cards map[string]remote.CardBody) error
	AppendChange(ctx context.Context, userUID, workspaceUID string, change remote.ChangeBody) error
	ListChanges(ctx context.Context, userUID, workspaceUID string) ([]remote.ChangeBody, error)
	Ping(ctx context.Context) error
}

type Service struct {
	cfg    config.Config
	store  RemoteStore
	search *search.Service

	newID    func(prefix string) string
	newColor func() string

	sessionTTL time.Duration
	mu         sync.Mutex
	sessions   map[string]*Session
}

func New(cfg config.Config, store RemoteStore, searchService *search.Service) *Service {
	sessionTTL := cfg.SessionTTL
	if sessionTTL == 0 {
		sessionTTL = time.Hour
	}
	return &Service{
		cfg:        cfg,
		store:      store,
		search:     searchService,
		newID:      util.NewID,
		newColor:   util.RandomColor,
		sessionTTL: sessionTTL,
		sessions:   make(map[string]*Session),
	}
}

// Session returns the per-user session, creating it on first use. The
// board mirror inside survives between requests until the TTL expires.
func (s *Service) Session(identity Identity) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for uid, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.sessionTTL {
			delete(s.sessions, uid)
		}
	}

	sess := s.sessions[identity.UID]
	if sess == nil {
		sess = NewSession(identity)
		s.sessions[identity.UID] = sess
	}
	sess.Identity = identity
	sess.lastSeen = now
	return sess
}

type LoginResult struct {
	Token     string    `json:"token"`
	UserUID   string    `json:"userUid"`
	UserName  string    `json:"userName"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login mints an identity for a display name and issues a bearer token
// for it. There are no accounts; a token is the identity.
func (s *Service) Login(ctx context.Context, name string) (LoginResult, error) {
	userUID := s.newID("user")
	expiresAt := time.Now().Add(s.cfg.AccessTTL)
	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:  userUID,
		Name: name,
		JTI:  s.newID("jti"),
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, UserUID: userUID, UserName: name, ExpiresAt: expiresAt}, nil
}

// IdentityFromToken resolves the acting user from a bearer token.
func (s *Service) IdentityFromToken(ctx context.Context, token string) (Identity, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UID: claims.Sub, Name: claims.Name}, nil
}

// txn makes each action's local-mutation policy explicit. optimistic runs
// before the remote write and rollback undoes it on remote failure;
// commit runs only after the remote store acknowledges. Most actions are
// write-then-commit and leave optimistic nil.
type txn struct {
	optimistic func() error
	rollback   func()
	commit     func() error
}

func runTxn(ctx context.Context, t txn, remoteOp func(context.Context) error) error {
	if t.optimistic != nil {
		if err := t.optimistic(); err != nil {
			return err
		}
	}
	if err := remoteOp(ctx); err != nil {
		if t.rollback != nil {
			t.rollback()
		}
		return err
	}
	if t.commit != nil {
		return t.commit()
	}
	return nil
}

// installCurrent resolves and installs a workspace as the session's
// current one, normalizing and ordering it, then points the navigator at
// it. An empty workspaceUID clears current and sends the session back to
// the dashboard.
func (s *Service) installCurrent(sess *Session, workspace *board.Workspace, userUID, workspaceUID string) error {
	if workspaceUID == "" {
		sess.Board.ClearCurrent()
		sess.Nav.GoToDashboard()
		return nil
	}

	target := workspace
	if target == nil {
		found, err := sess.Board.Find(workspaceUID)
		if err != nil {
			return err
		}
		target = found
	}
	sess.Board.SetCurrent(target)

	locationUser, locationWorkspace := sess.Nav.Location()
	if locationUser != userUID || locationWorkspace != workspaceUID {
		sess.Nav.GoToWorkspace(userUID, workspaceUID)
	}
	return nil
}

// FetchWorkspaceList reads the user's whole tree and replaces the local
// list wholesale.
func (s *Service) FetchWorkspaceList(ctx context.Context, sess *Session) ([]*board.Workspace, error) {
	tree, err := s.store.WorkspaceTree(ctx, sess.Identity.UID)
	if err != nil {
		return nil, err
	}
	list := board.WorkspacesToClient(tree)
	sess.Board.ReplaceList(list)
	return list, nil
}

// CreateWorkspace creates a workspace with a generated background color,
// refreshes the list, and makes the new workspace current.
func (s *Service) CreateWorkspace(ctx context.Context, sess *Session, name string) (*board.Workspace, error) {
	workspace := board.NewWorkspace(remote.WorkspaceProperties{
		Name:            name,
		BackgroundColor: s.newColor(),
	})
	workspace.UID = s.newID("ws")

	if err := s.store.CreateWorkspace(ctx, sess.Identity.UID, workspace.UID, workspace.Properties); err != nil {
		return nil, err
	}
	if _, err := s.FetchWorkspaceList(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.SetCurrentWorkspace(ctx, sess, workspace.UID); err != nil {
		return nil, err
	}
	return sess.Board.Current(), nil
}

// SetCurrentWorkspace persists the current-workspace pointer and installs
// the workspace locally. Empty uid clears the pointer.
func (s *Service) SetCurrentWorkspace(ctx context.Context, sess *Session, workspaceUID string) error {
	t := txn{
		commit: func() error {
			return s.installCurrent(sess, nil, sess.Identity.UID, workspaceUID)
		},
	}
	return runTxn(ctx, t, func(ctx context.Context) error {
		if workspaceUID == "" {
			return s.store.ClearCurrentWorkspaceUID(ctx, sess.Identity.UID)
		}
		return s.store.SetCurrentWorkspaceUID(ctx, sess.Identity.UID, workspaceUID)
	})
}

// GetCurrentWorkspace reads the persisted pointer and installs the
// referenced workspace if the local list has it. A pointer to a workspace
// missing from the list yields nil, not an error; the list may simply be
// stale.
func (s *Service) GetCurrentWorkspace(ctx context.Context, sess *Session) (*board.Workspace, error) {
	workspaceUID, err := s.store.CurrentWorkspaceUID(ctx, sess.Identity.UID)
	if err != nil {
		return nil, err
	}
	if workspaceUID == "" {
		return nil, nil
	}
	workspace, err := sess.Board.Find(workspaceUID)
	if err != nil {
		return nil, nil
	}
	if err := s.installCurrent(sess, nil, sess.Identity.UID, workspaceUID); err != nil {
		return nil, err
	}
	return workspace, nil
}

// GetExternalWorkspace fetches another user's workspace and installs it
// as the session's current workspace for read-only viewing. It is not
// added to the session's own list.
func (s *Service) GetExternalWorkspace(ctx context.Context, sess *Session, ownerUID, workspaceUID string) (*board.Workspace, error) {
	body, err := s.store.Workspace(ctx, ownerUID, workspaceUID)
	if err != nil {
		return nil, err
	}
	workspace := &board.Workspace{
		UID:        workspaceUID,
		Properties: body.Properties,
		Columns:    board.ColumnsToClient(body.Columns),
	}
	if err := s.installCurrent(sess, workspace, ownerUID, workspaceUID); err != nil {
		return nil, err
	}
	return workspace, nil
}

// ChangeWorkspace updates the current workspace's properties.
func (s *Service) ChangeWorkspace(ctx context.Context, sess *Session, props remote.WorkspaceProperties) error {
	current := sess.Board.Current()
	if current == nil {
		return board.ErrNoCurrentWorkspace
	}

	t := txn{
		commit: func() error { return sess.Board.SetWorkspaceProperties(props) },
	}
	return runTxn(ctx, t, func(ctx context.Context) error {
		return s.store.UpdateWorkspaceProperties(ctx, sess.Identity.UID, current.UID, props)
	})
}

// RemoveCurrentWorkspace deletes the current workspace. This is the one
// optimistic action in the system: the session switches to a sibling (or
// to no workspace) before the remote remove, because the UI must not keep
// showing a board that is about to disappear. A failed remote remove
// restores the original current pointer.
func (s *Service) RemoveCurrentWorkspace(ctx context.Context, sess *Session) error {
	current := sess.Board.Current()
	if current == nil {
		return board.ErrNoCurrentWorkspace
	}
	sibling := sess.Board.NextSibling(current.UID)

	t := txn{
		optimistic: func() error {
			if sibling != nil {
				if err := s.installCurrent(sess, sibling, sess.Identity.UID, sibling.UID); err != nil {
					return err
				}
				if err := s.store.SetCurrentWorkspaceUID(ctx, sess.Identity.UID, sibling.UID); err != nil {
					log.Printf("workspace remove: update current pointer: %v", err)
				}
			} else {
				if err := s.installCurrent(sess, nil, sess.Identity.UID, ""); err != nil {
					return err
				}
				if err := s.store.ClearCurrentWorkspaceUID(ctx, sess.Identity.UID); err != nil {
					log.Printf("workspace remove: clear current pointer: %v", err)
				}
			}
			_, err := sess.Board.RemoveFromList(current.UID)
			return err
		},
		rollback: func() {
			sess.Board.Restore(current)
			sess.Nav.GoToWorkspace(sess.Identity.UID, current.UID)
		},
	}
	return runTxn(ctx, t, func(ctx context.Context) error {
		return s.store.RemoveWorkspace(ctx, sess.Identity.UID, current.UID)
	})
}

// Read accessors over the session's current workspace.

func (s *Service) CurrentWorkspace(sess *Session) *board.Workspace {
	return sess.Board.Current()
}

func (s *Service) CurrentWorkspaceProperties(sess *Session) remote.WorkspaceProperties {
	current := sess.Board.Current()
	if current == nil {
		return remote.WorkspaceProperties{}
	}
	return current.Properties
}

func (s *Service) CurrentWorkspaceHasImage(sess *Session) bool {
	current := sess.Board.Current()
	if current == nil {
		return false
	}
	image := current.Properties.BackgroundImage
	return image != nil && image.Name != ""
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
