package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the board tree in Redis: one hash per collection
// (workspaces, a workspace's columns, a column's cards), JSON property
// blobs as hash values, a list per workspace for changes and a plain key
// for the current-workspace pointer.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "cb:"}, nil
}

// NewRedisStoreWithClient wraps an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "cb:"}
}

func (s *RedisStore) currentKey(userUID string) string {
	return s.prefix + userUID + ":current"
}

func (s *RedisStore) workspacesKey(userUID string) string {
	return s.prefix + userUID + ":ws"
}

func (s *RedisStore) columnsKey(userUID, workspaceUID string) string {
	return s.prefix + userUID + ":ws:" + workspaceUID + ":cols"
}

func (s *RedisStore) cardsKey(userUID, workspaceUID, columnUID string) string {
	return s.prefix + userUID + ":ws:" + workspaceUID + ":col:" + columnUID + ":cards"
}

func (s *RedisStore) changesKey(userUID, workspaceUID string) string {
	return s.prefix + userUID + ":ws:" + workspaceUID + ":changes"
}

// CurrentWorkspaceUID reads the current-workspace pointer; empty string
// when unset.
func (s *RedisStore) CurrentWorkspaceUID(ctx context.Context, userUID string) (string, error) {
	uid, err := s.client.Get(ctx, s.currentKey(userUID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read current workspace: %w", err)
	}
	return uid, nil
}

func (s *RedisStore) SetCurrentWorkspaceUID(ctx context.Context, userUID, workspaceUID string) error {
	if err := s.client.Set(ctx, s.currentKey(userUID), workspaceUID, 0).Err(); err != nil {
		return fmt.Errorf("set current workspace: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearCurrentWorkspaceUID(ctx context.Context, userUID string) error {
	if err := s.client.Del(ctx, s.currentKey(userUID)).Err(); err != nil {
		return fmt.Errorf("clear current workspace: %w", err)
	}
	return nil
}

// WorkspaceTree reads the user's whole board tree: every workspace with
// its columns and cards, as unordered uid-keyed maps.
func (s *RedisStore) WorkspaceTree(ctx context.Context, userUID string) (map[string]WorkspaceBody, error) {
	raw, err := s.client.HGetAll(ctx, s.workspacesKey(userUID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read workspaces: %w", err)
	}

	tree := make(map[string]WorkspaceBody, len(raw))
	for uid, blob := range raw {
		var props WorkspaceProperties
		if err := json.Unmarshal([]byte(blob), &props); err != nil {
			return nil, fmt.Errorf("unmarshal workspace %s: %w", uid, err)
		}
		columns, err := s.readColumns(ctx, userUID, uid)
		if err != nil {
			return nil, err
		}
		tree[uid] = WorkspaceBody{Properties: props, Columns: columns}
	}
	return tree, nil
}

// Workspace reads a single workspace subtree, ErrNotFound when absent.
func (s *RedisStore) Workspace(ctx context.Context, userUID, workspaceUID string) (WorkspaceBody, error) {
	blob, err := s.client.HGet(ctx, s.workspacesKey(userUID), workspaceUID).Result()
	if err == redis.Nil {
		return WorkspaceBody{}, fmt.Errorf("workspace %s: %w", workspaceUID, ErrNotFound)
	}
	if err != nil {
		return WorkspaceBody{}, fmt.Errorf("read workspace: %w", err)
	}

	var props WorkspaceProperties
	if err := json.Unmarshal([]byte(blob), &props); err != nil {
		return WorkspaceBody{}, fmt.Errorf("unmarshal workspace %s: %w", workspaceUID, err)
	}
	columns, err := s.readColumns(ctx, userUID, workspaceUID)
	if err != nil {
		return WorkspaceBody{}, err
	}
	return WorkspaceBody{Properties: props, Columns: columns}, nil
}

func (s *RedisStore) readColumns(ctx context.Context, userUID, workspaceUID string) (map[string]ColumnBody, error) {
	raw, err := s.client.HGetAll(ctx, s.columnsKey(userUID, workspaceUID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	columns := make(map[string]ColumnBody, len(raw))
	for uid, blob := range raw {
		var props ColumnProperties
		if err := json.Unmarshal([]byte(blob), &props); err != nil {
			return nil, fmt.Errorf("unmarshal column %s: %w", uid, err)
		}
		cards, err := s.readCards(ctx, userUID, workspaceUID, uid)
		if err != nil {
			return nil, err
		}
		columns[uid] = ColumnBody{Properties: props, Cards: cards}
	}
	return columns, nil
}

func (s *RedisStore) readCards(ctx context.Context, userUID, workspaceUID, columnUID string) (map[string]CardBody, error) {
	raw, err := s.client.HGetAll(ctx, s.cardsKey(userUID, workspaceUID, columnUID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	cards := make(map[string]CardBody, len(raw))
	for uid, blob := range raw {
		var props CardProperties
		if err := json.Unmarshal([]byte(blob), &props); err != nil {
			return nil, fmt.Errorf("unmarshal card %s: %w", uid, err)
		}
		cards[uid] = CardBody{Properties: props}
	}
	return cards, nil
}

func (s *RedisStore) CreateWorkspace(ctx context.Context, userUID, workspaceUID string, props WorkspaceProperties) error {
	return s.writeProperties(ctx, s.workspacesKey(userUID), workspaceUID, props, "workspace")
}

func (s *RedisStore) UpdateWorkspaceProperties(ctx context.Context, userUID, workspaceUID string, props WorkspaceProperties) error {
	if err := s.requireField(ctx, s.workspacesKey(userUID), workspaceUID, "workspace"); err != nil {
		return err
	}
	return s.writeProperties(ctx, s.workspacesKey(userUID), workspaceUID, props, "workspace")
}

// RemoveWorkspace deletes the workspace and everything under it: columns,
// their cards, and the change list. Idempotent.
func (s *RedisStore) RemoveWorkspace(ctx context.Context, userUID, workspaceUID string) error {
	columnUIDs, err := s.client.HKeys(ctx, s.columnsKey(userUID, workspaceUID)).Result()
	if err != nil {
		return fmt.Errorf("list columns: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, s.workspacesKey(userUID), workspaceUID)
	for _, columnUID := range columnUIDs {
		pipe.Del(ctx, s.cardsKey(userUID, workspaceUID, columnUID))
	}
	pipe.Del(ctx, s.columnsKey(userUID, workspaceUID))
	pipe.Del(ctx, s.changesKey(userUID, workspaceUID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	return nil
}

func (s *RedisStore) CreateColumn(ctx context.Context, userUID, workspaceUID, columnUID string, props ColumnProperties) error {
	return s.writeProperties(ctx, s.columnsKey(userUID, workspaceUID), columnUID, props, "column")
}

func (s *RedisStore) UpdateColumnProperties(ctx context.Context, userUID, workspaceUID, columnUID string, props ColumnProperties) error {
	if err := s.requireField(ctx, s.columnsKey(userUID, workspaceUID), columnUID, "column"); err != nil {
		return err
	}
	return s.writeProperties(ctx, s.columnsKey(userUID, workspaceUID), columnUID, props, "column")
}

func (s *RedisStore) RemoveColumn(ctx context.Context, userUID, workspaceUID, columnUID string) error {
	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, s.columnsKey(userUID, workspaceUID), columnUID)
	pipe.Del(ctx, s.cardsKey(userUID, workspaceUID, columnUID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove column: %w", err)
	}
	return nil
}

// SetColumns replaces a workspace's whole column set in one write, cards
// included. Used by bulk reorders.
func (s *RedisStore) SetColumns(ctx context.Context, userUID, workspaceUID string, columns map[string]ColumnBody) error {
	oldColumnUIDs, err := s.client.HKeys(ctx, s.columnsKey(userUID, workspaceUID)).Result()
	if err != nil {
		return fmt.Errorf("list columns: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, columnUID := range oldColumnUIDs {
		pipe.Del(ctx, s.cardsKey(userUID, workspaceUID, columnUID))
	}
	pipe.Del(ctx, s.columnsKey(userUID, workspaceUID))
	for columnUID, body := range columns {
		blob, err := json.Marshal(body.Properties)
		if err != nil {
			return fmt.Errorf("marshal column properties: %w", err)
		}
		pipe.HSet(ctx, s.columnsKey(userUID, workspaceUID), columnUID, blob)
		for cardUID, card := range body.Cards {
			cardBlob, err := json.Marshal(card.Properties)
			if err != nil {
				return fmt.Errorf("marshal card properties: %w", err)
			}
			pipe.HSet(ctx, s.cardsKey(userUID, workspaceUID, columnUID), cardUID, cardBlob)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set columns: %w", err)
	}
	return nil
}

func (s *RedisStore) CreateCard(ctx context.Context, userUID, workspaceUID, columnUID, cardUID string, props CardProperties) error {
	return s.writeProperties(ctx, s.cardsKey(userUID, workspaceUID, columnUID), cardUID, props, "card")
}

func (s *RedisStore) UpdateCardProperties(ctx context.Context, userUID, workspaceUID, columnUID, cardUID string, props CardProperties) error {
	if err := s.requireField(ctx, s.cardsKey(userUID, workspaceUID, columnUID), cardUID, "card"); err != nil {
		return err
	}
	return s.writeProperties(ctx, s.cardsKey(userUID, workspaceUID, columnUID), cardUID, props, "card")
}

func (s *RedisStore) RemoveCard(ctx context.Context, userUID, workspaceUID, columnUID, cardUID string) error {
	if err := s.client.HDel(ctx, s.cardsKey(userUID, workspaceUID, columnUID), cardUID).Err(); err != nil {
		return fmt.Errorf("remove card: %w", err)
	}
	return nil
}

// SetCards replaces a column's whole card set in one write.
func (s *RedisStore) SetCards(ctx context.Context, userUID, workspaceUID, columnUID string, cards map[string]CardBody) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.cardsKey(userUID, workspaceUID, columnUID))
	for cardUID, card := range cards {
		blob, err := json.Marshal(card.Properties)
		if err != nil {
			return fmt.Errorf("marshal card properties: %w", err)
		}
		pipe.HSet(ctx, s.cardsKey(userUID, workspaceUID, columnUID), cardUID, blob)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set cards: %w", err)
	}
	return nil
}

// AppendChange appends an audit entry, stamping it with the store's clock.
func (s *RedisStore) AppendChange(ctx context.Context, userUID, workspaceUID string, change ChangeBody) error {
	change.Timestamp = time.Now().UTC()
	blob, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := s.client.RPush(ctx, s.changesKey(userUID, workspaceUID), blob).Err(); err != nil {
		return fmt.Errorf("append change: %w", err)
	}
	return nil
}

// ListChanges returns a workspace's audit entries in append order.
func (s *RedisStore) ListChanges(ctx context.Context, userUID, workspaceUID string) ([]ChangeBody, error) {
	blobs, err := s.client.LRange(ctx, s.changesKey(userUID, workspaceUID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}

	changes := make([]ChangeBody, 0, len(blobs))
	for _, blob := range blobs {
		var change ChangeBody
		if err := json.Unmarshal([]byte(blob), &change); err != nil {
			return nil, fmt.Errorf("unmarshal change: %w", err)
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func (s *RedisStore) writeProperties(ctx context.Context, key, field string, props any, kind string) error {
	blob, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshal %s properties: %w", kind, err)
	}
	if err := s.client.HSet(ctx, key, field, blob).Err(); err != nil {
		return fmt.Errorf("write %s properties: %w", kind, err)
	}
	return nil
}

func (s *RedisStore) requireField(ctx context.Context, key, field, kind string) error {
	exists, err := s.client.HExists(ctx, key, field).Result()
	if err != nil {
		return fmt.Errorf("check %s: %w", kind, err)
	}
	if !exists {
		return fmt.Errorf("%s %s: %w", kind, field, ErrNotFound)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
