package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PostgresStore keeps the board tree in Postgres, one table per hierarchy
// level with properties as JSONB. It implements the same operations as
// RedisStore.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) CurrentWorkspaceUID(ctx context.Context, userUID string) (string, error) {
	var uid string
	err := s.db.QueryRowContext(ctx,
		`SELECT workspace_uid FROM current_workspace WHERE user_id=$1`, userUID).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read current workspace: %w", err)
	}
	return uid, nil
}

func (s *PostgresStore) SetCurrentWorkspaceUID(ctx context.Context, userUID, workspaceUID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO current_workspace (user_id, workspace_uid)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET workspace_uid=EXCLUDED.workspace_uid
	`, userUID, workspaceUID)
	if err != nil {
		return fmt.Errorf("set current workspace: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClearCurrentWorkspaceUID(ctx context.Context, userUID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM current_workspace WHERE user_id=$1`, userUID); err != nil {
		return fmt.Errorf("clear current workspace: %w", err)
	}
	return nil
}

func (s *PostgresStore) WorkspaceTree(ctx context.Context, userUID string) (map[string]WorkspaceBody, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uid, properties FROM workspaces WHERE user_id=$1`, userUID)
	if err != nil {
		return nil, fmt.Errorf("read workspaces: %w", err)
	}
	defer rows.Close()

	tree := make(map[string]WorkspaceBody)
	for rows.Next() {
		var uid string
		var blob []byte
		if err := rows.Scan(&uid, &blob); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		var props WorkspaceProperties
		if err := json.Unmarshal(blob, &props); err != nil {
			return nil, fmt.Errorf("unmarshal workspace %s: %w", uid, err)
		}
		tree[uid] = WorkspaceBody{Properties: props}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read workspaces: %w", err)
	}

	for uid, body := range tree {
		columns, err := s.readColumns(ctx, userUID, uid)
		if err != nil {
			return nil, err
		}
		body.Columns = columns
		tree[uid] = body
	}
	return tree, nil
}

func (s *PostgresStore) Workspace(ctx context.Context, userUID, workspaceUID string) (WorkspaceBody, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT properties FROM workspaces WHERE user_id=$1 AND uid=$2`,
		userUID, workspaceUID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return WorkspaceBody{}, fmt.Errorf("workspace %s: %w", workspaceUID, ErrNotFound)
	}
	if err != nil {
		return WorkspaceBody{}, fmt.Errorf("read workspace: %w", err)
	}

	var props WorkspaceProperties
	if err := json.Unmarshal(blob, &props); err != nil {
		return WorkspaceBody{}, fmt.Errorf("unmarshal workspace %s: %w", workspaceUID, err)
	}
	columns, err := s.readColumns(ctx, userUID, workspaceUID)
	if err != nil {
		return WorkspaceBody{}, err
	}
	return WorkspaceBody{Properties: props, Columns: columns}, nil
}

func (s *PostgresStore) readColumns(ctx context.Context, userUID, workspaceUID string) (map[string]ColumnBody, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uid, properties FROM board_columns WHERE user_id=$1 AND workspace_uid=$2`,
		userUID, workspaceUID)
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]ColumnBody)
	for rows.Next() {
		var uid string
		var blob []byte
		if err := rows.Scan(&uid, &blob); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		var props ColumnProperties
		if err := json.Unmarshal(blob, &props); err != nil {
			return nil, fmt.Errorf("unmarshal column %s: %w", uid, err)
		}
		columns[uid] = ColumnBody{Properties: props}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, nil
	}

	for uid, body := range columns {
		cards, err := s.readCards(ctx, userUID, workspaceUID, uid)
		if err != nil {
			return nil, err
		}
		body.Cards = cards
		columns[uid] = body
	}
	return columns, nil
}

func (s *PostgresStore) readCards(ctx context.Context, userUID, workspaceUID, columnUID string) (map[string]CardBody, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uid, properties FROM cards WHERE user_id=$1 AND workspace_uid=$2 AND column_uid=$3`,
		userUID, workspaceUID, columnUID)
	if err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}
	defer rows.Close()

	cards := make(map[string]CardBody)
	for rows.Next() {
		var uid string
		var blob []byte
		if err := rows.Scan(&uid, &blob); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		var props CardProperties
		if err := json.Unmarshal(blob, &props); err != nil {
			return nil, fmt.Errorf("unmarshal card %s: %w", uid, err)
		}
		cards[uid] = CardBody{Properties: props}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}
	if len(cards) == 0 {
		return nil, nil
	}
	return cards, nil
}

func (s *PostgresStore) CreateWorkspace(ctx context.Context, userUID, workspaceUID string, props WorkspaceProperties) error {
	blob, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshal workspace properties: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workspaces (user_id, uid, properties)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, uid) DO UPDATE SET properties=EXCLUDED.properties
	`, userUID, workspaceUID, blob)
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateWorkspaceProperties(ctx context.Context, userUID, workspaceUID string, props WorkspaceProperties) error {
	blob, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshal workspace properties: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE workspaces SET properties=$3 WHERE user_id=$1 AND uid=$2`,
		userUID, workspaceUID, blob)
	if err != nil {
		return fmt.Errorf("update workspace properties: %w", err)
	}
	return requireAffected(result, "workspace", workspaceUID)
}

func (s *PostgresStore) RemoveWorkspace(ctx context.Context, userUID, workspaceUID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove workspace: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM cards WHERE user_id=$1 AND workspace_uid=$2`,
		`DELETE FROM board_columns WHERE user_id=$1 AND workspace_uid=$2`,
		`DELETE FROM changes WHERE user_id=$1 AND workspace_uid=$2`,
		`DELETE FROM workspaces WHERE user_id=$1 AND uid=$2`,
	}
	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement, userUID, workspaceUID); err != nil {
			return fmt.Errorf("remove workspace: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remove workspace: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateColumn(ctx context.Context, userUID, workspaceUID, columnUID string, props ColumnProperties) error {
	blob, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshal column properties: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO board_columns (user_id, workspace_uid, uid, properties)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, workspace_uid, uid) DO UPDATE SET properties=EXCLUDED.properties
	`, userUID, workspaceUID, columnUID, blob)
	if err != nil {
		return fmt.Errorf("create column: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateColumnProperties(ctx context.Context, userUID, workspaceUID, columnUID string, props ColumnProperties) error {
	blob, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshal column properties: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE board_columns SET properties=$4 WHERE user_id=$1 AND workspace_uid=$2 AND uid=$3`,
		userUID, workspaceUID, columnUID, blob)
	if err != nil {
		return fmt.Errorf("update column properties: %w", err)
	}
	return requireAffected(result, "column", columnUID)
}

func (s *PostgresStore) RemoveColumn(ctx context.Context, userUID, workspaceUID, columnUID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove column: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cards WHERE user_id=$1 AND workspace_uid=$2 AND column_uid=$3`,
		userUID, workspaceUID, columnUID); err != nil {
		return fmt.Errorf("remove column cards: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM board_columns WHERE user_id=$1 AND workspace_uid=$2 AND uid=$3`,
		userUID, workspaceUID, columnUID); err != nil {
		return fmt.Errorf("remove column: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remove column: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetColumns(ctx context.Context, userUID, workspaceUID string, columns map[string]ColumnBody) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set columns: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cards WHERE user_id=$1 AND workspace_uid=$2`,
		userUID, workspaceUID); err != nil {
		return fmt.Errorf("clear cards: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM board_columns WHERE user_id=$1 AND workspace_uid=$2`,
		userUID, workspaceUID); err != nil {
		return fmt.Errorf("clear columns: %w", err)
	}

	for columnUID, body := range columns {
		blob, err := json.Marshal(body.Properties)
		if err != nil {
			return fmt.Errorf("marshal column properties: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO board_columns (user_id, workspace_uid, uid, properties)
			VALUES ($1, $2, $3, $4)
		`, userUID, workspaceUID, columnUID, blob); err != nil {
			return fmt.Errorf("insert column: %w", err)
		}
		for cardUID, card := range body.Cards {
			cardBlob, err := json.Marshal(card.Properties)
			if err != nil {
				return fmt.Errorf("marshal card properties: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO cards (user_id, workspace_uid, column_uid, uid, properties)
				VALUES ($1, $2, $3, $4, $5)
			`, userUID, workspaceUID, columnUID, cardUID, cardBlob); err != nil {
				return fmt.Errorf("insert card: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set columns: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateCard(ctx context.Context, userUID, workspaceUID, columnUID, cardUID string, props CardProperties) error {
	blob, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshal card properties: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cards (user_id, workspace_uid, column_uid, uid, properties)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, workspace_uid, column_uid, uid) DO UPDATE SET properties=EXCLUDED.properties
	`, userUID, workspaceUID, columnUID, cardUID, blob)
	if err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateCardProperties(ctx context.Context, userUID, workspaceUID, columnUID, cardUID string, props CardProperties) error {
	blob, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshal card properties: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE cards SET properties=$5 WHERE user_id=$1 AND workspace_uid=$2 AND column_uid=$3 AND uid=$4`,
		userUID, workspaceUID, columnUID, cardUID, blob)
	if err != nil {
		return fmt.Errorf("update card properties: %w", err)
	}
	return requireAffected(result, "card", cardUID)
}

func (s *PostgresStore) RemoveCard(ctx context.Context, userUID, workspaceUID, columnUID, cardUID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM cards WHERE user_id=$1 AND workspace_uid=$2 AND column_uid=$3 AND uid=$4`,
		userUID, workspaceUID, columnUID, cardUID); err != nil {
		return fmt.Errorf("remove card: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetCards(ctx context.Context, userUID, workspaceUID, columnUID string, cards map[string]CardBody) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set cards: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cards WHERE user_id=$1 AND workspace_uid=$2 AND column_uid=$3`,
		userUID, workspaceUID, columnUID); err != nil {
		return fmt.Errorf("clear cards: %w", err)
	}
	for cardUID, card := range cards {
		blob, err := json.Marshal(card.Properties)
		if err != nil {
			return fmt.Errorf("marshal card properties: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cards (user_id, workspace_uid, column_uid, uid, properties)
			VALUES ($1, $2, $3, $4, $5)
		`, userUID, workspaceUID, columnUID, cardUID, blob); err != nil {
			return fmt.Errorf("insert card: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set cards: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendChange(ctx context.Context, userUID, workspaceUID string, change ChangeBody) error {
	change.Timestamp = time.Now().UTC()
	blob, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO changes (user_id, workspace_uid, body)
		VALUES ($1, $2, $3)
	`, userUID, workspaceUID, blob); err != nil {
		return fmt.Errorf("append change: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListChanges(ctx context.Context, userUID, workspaceUID string) ([]ChangeBody, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM changes WHERE user_id=$1 AND workspace_uid=$2 ORDER BY id`,
		userUID, workspaceUID)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer rows.Close()

	var changes []ChangeBody
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		var change ChangeBody
		if err := json.Unmarshal(blob, &change); err != nil {
			return nil, fmt.Errorf("unmarshal change: %w", err)
		}
		changes = append(changes, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	return changes, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func requireAffected(result sql.Result, kind, uid string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s update: %w", kind, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", kind, uid, ErrNotFound)
	}
	return nil
}
