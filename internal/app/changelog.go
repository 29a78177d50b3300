package app

import (
	"context"
	"log"

	"corkboard/api/internal/board"
	"corkboard/api/internal/remote"
)

// recordChange appends an entry to the current workspace's change log.
// Logging is best effort: the action it describes has already been
// acknowledged by the store, so a failed append is logged and swallowed
// rather than surfaced as an action failure.
func (s *Service) recordChange(ctx context.Context, sess *Session, action remote.ChangeAction, value any) {
	current := sess.Board.Current()
	if current == nil {
		return
	}
	name := sess.Identity.Name
	if name == "" {
		name = "Anonymous"
	}
	change := board.NewChange(action, value, sess.Identity.UID, name)
	if err := s.store.AppendChange(ctx, sess.ownerUID(), current.UID, change); err != nil {
		log.Printf("change log: append %s: %v", action, err)
	}
}

// ListChanges returns the current workspace's change log, oldest first.
func (s *Service) ListChanges(ctx context.Context, sess *Session) ([]remote.ChangeBody, error) {
	current := sess.Board.Current()
	if current == nil {
		return nil, board.ErrNoCurrentWorkspace
	}
	return s.store.ListChanges(ctx, sess.ownerUID(), current.UID)
}
