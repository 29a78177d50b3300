package app

import (
	"context"

	"corkboard/api/internal/board"
	"corkboard/api/internal/remote"
	"corkboard/api/internal/search"
)

// Column and card actions write to the tree of the workspace's owner, not
// necessarily the session's own tree: a session viewing an external
// workspace edits the owner's data.

// CreateColumn adds a column to the current workspace and logs the
// creation. A nil order appends after the existing columns.
func (s *Service) CreateColumn(ctx context.Context, sess *Session, name string, order *float64) (*board.Column, error) {
	current := sess.Board.Current()
	if current == nil {
		return nil, board.ErrNoCurrentWorkspace
	}
	ownerUID := sess.ownerUID()

	position := float64(len(current.Columns))
	if order != nil {
		position = *order
	}
	column := board.NewColumn(remote.ColumnProperties{
		Name:  name,
		Order: position,
	})
	column.UID = s.newID("col")

	t := txn{
		commit: func() error { return sess.Board.AddColumn(column) },
	}
	err := runTxn(ctx, t, func(ctx context.Context) error {
		return s.store.CreateColumn(ctx, ownerUID, current.UID, column.UID, column.Properties)
	})
	if err != nil {
		return nil, err
	}

	s.recordChange(ctx, sess, remote.ColumnCreate, name)
	return column, nil
}

// RenameColumn sets a column's name, keeping its position.
func (s *Service) RenameColumn(ctx context.Context, sess *Session, columnUID, newName string) error {
	current := sess.Board.Current()
	if current == nil {
		return board.ErrNoCurrentWorkspace
	}
	column, err := sess.Board.FindColumn(columnUID)
	if err != nil {
		return err
	}
	oldName := column.Properties.Name

	props := column.Properties
	props.Name = newName

	t := txn{
		commit: func() error { return sess.Board.SetColumnProperties(columnUID, props) },
	}
	err = runTxn(ctx, t, func(ctx context.Context) error {
		return s.store.UpdateColumnProperties(ctx, sess.ownerUID(), current.UID, columnUID, props)
	})
	if err != nil {
		return err
	}

	s.recordChange(ctx, sess, remote.ColumnRename, remote.ColumnRenameValue{
		ColumnUID: columnUID,
		NewName:   newName,
		OldName:   oldName,
	})
	return nil
}

// RemoveColumn deletes a column together with its cards and logs the
// removal with the position the column held.
func (s *Service) RemoveColumn(ctx context.Context, sess *Session, columnUID string) error {
	current := sess.Board.Current()
	if current == nil {
		return board.ErrNoCurrentWorkspace
	}
	column, err := sess.Board.FindColumn(columnUID)
	if err != nil {
		return err
	}
	index, err := sess.Board.ColumnIndex(columnUID)
	if err != nil {
		return err
	}
	cards := column.Cards

	t := txn{
		commit: func() error { return sess.Board.RemoveColumn(columnUID) },
	}
	err = runTxn(ctx, t, func(ctx context.Context) error {
		return s.store.RemoveColumn(ctx, sess.ownerUID(), current.UID, columnUID)
	})
	if err != nil {
		return err
	}

	s.recordChange(ctx, sess, remote.ColumnRemove, remote.ColumnRemoveValue{
		Index: index,
		Name:  column.Properties.Name,
	})
	if s.search != nil {
		for _, card := range cards {
			s.search.DeleteCard(card.UID)
		}
	}
	return nil
}

// UpdateColumns replaces the whole column set of the current workspace,
// used for reordering. Reorders are not logged.
func (s *Service) UpdateColumns(ctx context.Context, sess *Session, columns []*board.Column) error {
	current := sess.Board.Current()
	if current == nil {
		return board.ErrNoCurrentWorkspace
	}

	t := txn{
		commit: func() error { return sess.Board.SetColumns(columns) },
	}
	return runTxn(ctx, t, func(ctx context.Context) error {
		return s.store.SetColumns(ctx, sess.ownerUID(), current.UID, board.ColumnsToRemote(columns))
	})
}

// CreateCard adds a card to a column and logs the creation. A nil order
// appends after the column's existing cards.
func (s *Service) CreateCard(ctx context.Context, sess *Session, columnUID, name string, order *float64) (*board.Card, error) {
	current := sess.Board.Current()
	if current == nil {
		return nil, board.ErrNoCurrentWorkspace
	}
	column, err := sess.Board.FindColumn(columnUID)
	if err != nil {
		return nil, err
	}

	position := float64(len(column.Cards))
	if order != nil {
		position = *order
	}
	card := board.NewCard(remote.CardProperties{
		Name:  name,
		Order: position,
	})
	card.UID = s.newID("card")

	t := txn{
		commit: func() error { return sess.Board.AddCard(columnUID, card) },
	}
	err = runTxn(ctx, t, func(ctx context.Context) error {
		return s.store.CreateCard(ctx, sess.ownerUID(), current.UID, columnUID, card.UID, card.Properties)
	})
	if err != nil {
		return nil, err
	}

	s.recordChange(ctx, sess, remote.CardCreate, remote.CardCreateValue{
		ColumnUID:  columnUID,
		Name:       name,
		ColumnName: column.Properties.Name,
	})
	s.indexCard(current.UID, column, card)
	return card, nil
}

// ChangeCard overwrites a card's properties. What gets logged depends on
// what actually changed: a new name logs a rename, a new non-empty
// description logs a description change, and clearing a description logs
// its removal. Pure reorders produce no log entry.
func (s *Service) ChangeCard(ctx context.Context, sess *Session, columnUID, cardUID string, props remote.CardProperties) error {
	current := sess.Board.Current()
	if current == nil {
		return board.ErrNoCurrentWorkspace
	}
	column, err := sess.Board.FindColumn(columnUID)
	if err != nil {
		return err
	}
	card, err := sess.Board.FindCard(columnUID, cardUID)
	if err != nil {
		return err
	}
	oldProps := card.Properties

	t := txn{
		commit: func() error { return sess.Board.SetCardProperties(columnUID, cardUID, props) },
	}
	err = runTxn(ctx, t, func(ctx context.Context) error {
		return s.store.UpdateCardProperties(ctx, sess.ownerUID(), current.UID, columnUID, cardUID, props)
	})
	if err != nil {
		return err
	}

	if props.Name != oldProps.Name {
		s.recordChange(ctx, sess, remote.CardRename, remote.CardRenameValue{
			ColumnUID:   columnUID,
			ColumnName:  column.Properties.Name,
			NewCardName: props.Name,
			OldCardName: oldProps.Name,
		})
	}
	if props.Description != oldProps.Description {
		if props.Description != "" {
			s.recordChange(ctx, sess, remote.CardChangeDescription, remote.CardDescriptionValue{
				ColumnUID:   columnUID,
				ColumnName:  column.Properties.Name,
				CardName:    props.Name,
				Description: props.Description,
			})
		} else {
			s.recordChange(ctx, sess, remote.CardRemoveDescription, remote.CardDescriptionValue{
				ColumnUID:  columnUID,
				ColumnName: column.Properties.Name,
				CardName:   props.Name,
			})
		}
	}
	s.indexCard(current.UID, column, card)
	return nil
}

// UpdateCards replaces the whole card set of a column, used for
// reordering within a column and for moving cards between columns.
func (s *Service) UpdateCards(ctx context.Context, sess *Session, columnUID string, cards []*board.Card) error {
	current := sess.Board.Current()
	if current == nil {
		return board.ErrNoCurrentWorkspace
	}
	if _, err := sess.Board.FindColumn(columnUID); err != nil {
		return err
	}

	t := txn{
		commit: func() error { return sess.Board.SetCards(columnUID, cards) },
	}
	return runTxn(ctx, t, func(ctx context.Context) error {
		return s.store.SetCards(ctx, sess.ownerUID(), current.UID, columnUID, board.CardsToRemote(cards))
	})
}

// RemoveCard deletes a card and logs the removal.
func (s *Service) RemoveCard(ctx context.Context, sess *Session, columnUID, cardUID string) error {
	current := sess.Board.Current()
	if current == nil {
		return board.ErrNoCurrentWorkspace
	}
	column, err := sess.Board.FindColumn(columnUID)
	if err != nil {
		return err
	}
	card, err := sess.Board.FindCard(columnUID, cardUID)
	if err != nil {
		return err
	}

	t := txn{
		commit: func() error { return sess.Board.RemoveCard(columnUID, cardUID) },
	}
	err = runTxn(ctx, t, func(ctx context.Context) error {
		return s.store.RemoveCard(ctx, sess.ownerUID(), current.UID, columnUID, cardUID)
	})
	if err != nil {
		return err
	}

	s.recordChange(ctx, sess, remote.CardRemove, remote.CardRemoveValue{
		ColumnUID:  columnUID,
		CardUID:    cardUID,
		CardName:   card.Properties.Name,
		ColumnName: column.Properties.Name,
	})
	if s.search != nil {
		s.search.DeleteCard(cardUID)
	}
	return nil
}

func (s *Service) indexCard(workspaceUID string, column *board.Column, card *board.Card) {
	if s.search == nil {
		return
	}
	s.search.IndexCard(search.CardRecord{
		ID:           card.UID,
		WorkspaceUID: workspaceUID,
		ColumnUID:    column.UID,
		ColumnName:   column.Properties.Name,
		Name:         card.Properties.Name,
		Description:  card.Properties.Description,
	})
}
