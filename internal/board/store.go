package board

import (
	"errors"
	"sort"

	"corkboard/api/internal/remote"
)

var (
	ErrNoCurrentWorkspace = errors.New("no current workspace")
	ErrWorkspaceNotFound  = errors.New("workspace not found")
	ErrColumnNotFound     = errors.New("column not found")
	ErrCardNotFound       = errors.New("card not found")
)

// Store is the local mirror for one user session: the workspace list and
// the current-workspace pointer. Current is a pointer into the list (or an
// externally fetched workspace for the read-only view), never a copy, so
// column and card mutations are visible through both paths. Mutations are
// synchronous and in-memory; callers serialize access per session.
type Store struct {
	current *Workspace
	list    []*Workspace
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Current() *Workspace {
	return s.current
}

func (s *Store) List() []*Workspace {
	return s.list
}

// ReplaceList swaps in a freshly fetched workspace list wholesale.
func (s *Store) ReplaceList(list []*Workspace) {
	s.list = list
}

func (s *Store) Find(uid string) (*Workspace, error) {
	for _, workspace := range s.list {
		if workspace.UID == uid {
			return workspace, nil
		}
	}
	return nil, ErrWorkspaceNotFound
}

// SetCurrent installs a workspace as current: the record is normalized
// onto the default skeleton so legacy remote records missing fields still
// come out fully shaped, then columns and cards are ordered.
func (s *Store) SetCurrent(workspace *Workspace) {
	normalize(workspace)
	sortColumns(workspace)
	s.current = workspace
}

// Restore puts back a previously installed workspace pointer without
// re-normalizing. Used to roll back an optimistic switch.
func (s *Store) Restore(workspace *Workspace) {
	s.current = workspace
}

func (s *Store) ClearCurrent() {
	s.current = nil
}

// NextSibling picks the replacement for a workspace about to be removed:
// the next one by list position, else the previous, else nil.
func (s *Store) NextSibling(uid string) *Workspace {
	for i, workspace := range s.list {
		if workspace.UID != uid {
			continue
		}
		if i+1 < len(s.list) {
			return s.list[i+1]
		}
		if i > 0 {
			return s.list[i-1]
		}
		return nil
	}
	return nil
}

// RemoveFromList splices a workspace out of the list, returning its prior
// index. The current pointer is untouched; callers install a replacement
// first.
func (s *Store) RemoveFromList(uid string) (int, error) {
	for i, workspace := range s.list {
		if workspace.UID == uid {
			s.list = append(s.list[:i], s.list[i+1:]...)
			return i, nil
		}
	}
	return 0, ErrWorkspaceNotFound
}

// SetWorkspaceProperties replaces the current workspace's properties.
func (s *Store) SetWorkspaceProperties(props remote.WorkspaceProperties) error {
	if s.current == nil {
		return ErrNoCurrentWorkspace
	}
	s.current.Properties = props
	return nil
}

func (s *Store) AddColumn(column *Column) error {
	if s.current == nil {
		return ErrNoCurrentWorkspace
	}
	s.current.Columns = append(s.current.Columns, column)
	return nil
}

func (s *Store) FindColumn(uid string) (*Column, error) {
	if s.current == nil {
		return nil, ErrNoCurrentWorkspace
	}
	for _, column := range s.current.Columns {
		if column.UID == uid {
			return column, nil
		}
	}
	return nil, ErrColumnNotFound
}

// ColumnIndex reports a column's current list position, for audit entries
// that record where a removed column sat.
func (s *Store) ColumnIndex(uid string) (int, error) {
	if s.current == nil {
		return 0, ErrNoCurrentWorkspace
	}
	for i, column := range s.current.Columns {
		if column.UID == uid {
			return i, nil
		}
	}
	return 0, ErrColumnNotFound
}

func (s *Store) SetColumnProperties(uid string, props remote.ColumnProperties) error {
	column, err := s.FindColumn(uid)
	if err != nil {
		return err
	}
	column.Properties = props
	return nil
}

func (s *Store) RemoveColumn(uid string) error {
	if s.current == nil {
		return ErrNoCurrentWorkspace
	}
	for i, column := range s.current.Columns {
		if column.UID == uid {
			s.current.Columns = append(s.current.Columns[:i], s.current.Columns[i+1:]...)
			return nil
		}
	}
	return ErrColumnNotFound
}

// SetColumns replaces the current workspace's column list wholesale. The
// caller's ordering is trusted; no re-sort until the next install.
func (s *Store) SetColumns(columns []*Column) error {
	if s.current == nil {
		return ErrNoCurrentWorkspace
	}
	s.current.Columns = columns
	return nil
}

func (s *Store) AddCard(columnUID string, card *Card) error {
	column, err := s.FindColumn(columnUID)
	if err != nil {
		return err
	}
	column.Cards = append(column.Cards, card)
	return nil
}

func (s *Store) FindCard(columnUID, cardUID string) (*Card, error) {
	column, err := s.FindColumn(columnUID)
	if err != nil {
		return nil, err
	}
	for _, card := range column.Cards {
		if card.UID == cardUID {
			return card, nil
		}
	}
	return nil, ErrCardNotFound
}

func (s *Store) SetCardProperties(columnUID, cardUID string, props remote.CardProperties) error {
	card, err := s.FindCard(columnUID, cardUID)
	if err != nil {
		return err
	}
	card.Properties = props
	return nil
}

func (s *Store) SetCards(columnUID string, cards []*Card) error {
	column, err := s.FindColumn(columnUID)
	if err != nil {
		return err
	}
	column.Cards = cards
	return nil
}

func (s *Store) RemoveCard(columnUID, cardUID string) error {
	column, err := s.FindColumn(columnUID)
	if err != nil {
		return err
	}
	for i, card := range column.Cards {
		if card.UID == cardUID {
			column.Cards = append(column.Cards[:i], column.Cards[i+1:]...)
			return nil
		}
	}
	return ErrCardNotFound
}

// normalize fills structure a legacy or partial remote record may lack.
func normalize(workspace *Workspace) {
	if workspace.Properties.BackgroundColor == "" {
		workspace.Properties.BackgroundColor = defaultBackgroundColor
	}
	if workspace.Columns == nil {
		workspace.Columns = []*Column{}
	}
	for _, column := range workspace.Columns {
		if column.Cards == nil {
			column.Cards = []*Card{}
		}
	}
}

// Ordering policy: ascending by the numeric order property, missing order
// treated as zero, ties keeping their prior relative position.
func sortColumns(workspace *Workspace) {
	sort.SliceStable(workspace.Columns, func(i, j int) bool {
		return workspace.Columns[i].Properties.Order < workspace.Columns[j].Properties.Order
	})
	for _, column := range workspace.Columns {
		sort.SliceStable(column.Cards, func(i, j int) bool {
			return column.Cards[i].Properties.Order < column.Cards[j].Properties.Order
		})
	}
}
