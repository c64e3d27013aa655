package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix       = "ds:"
	userKeyPrefix   = keyPrefix + "user:"   // ds:user:{id} -> user JSON
	emailKeyPrefix  = keyPrefix + "email:"  // ds:email:{email} -> user id
	canvasKeyPrefix = keyPrefix + "canvas:" // ds:canvas:{id} -> canvas JSON
)

// Redis keeps every record as JSON under ds:* keys.
type Redis struct {
	client *redis.Client
}

// NewRedis connects using a redis:// URL.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisFromClient(client), nil
}

func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func userKey(id string) string            { return userKeyPrefix + id }
func userCanvasesKey(id string) string    { return userKeyPrefix + id + ":canvases" }
func emailKey(email string) string        { return emailKeyPrefix + strings.ToLower(email) }
func canvasKey(id string) string          { return canvasKeyPrefix + id }
func membersKey(canvasID string) string   { return canvasKeyPrefix + canvasID + ":members" }
func snapshotsKey(canvasID string) string { return canvasKeyPrefix + canvasID + ":snapshots" }
func versionsKey(canvasID string) string  { return canvasKeyPrefix + canvasID + ":versions" }

func (r *Redis) CreateUser(ctx context.Context, u User) error {
	exists, err := r.client.Exists(ctx, userKey(u.ID)).Result()
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("user %s: %w", u.ID, ErrConflict)
	}

	ok, err := r.client.SetNX(ctx, emailKey(u.Email), u.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("reserve email: %w", err)
	}
	if !ok {
		return fmt.Errorf("email %s: %w", u.Email, ErrConflict)
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.Email = strings.ToLower(u.Email)
	if err := r.setJSON(ctx, userKey(u.ID), u); err != nil {
		r.client.Del(ctx, emailKey(u.Email))
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Redis) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	if err := r.getJSON(ctx, userKey(id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Redis) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	id, err := r.client.Get(ctx, emailKey(email)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	return r.GetUser(ctx, id)
}

func (r *Redis) CreateCanvas(ctx context.Context, c Canvas) error {
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal canvas: %w", err)
	}
	ok, err := r.client.SetNX(ctx, canvasKey(c.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create canvas: %w", err)
	}
	if !ok {
		return fmt.Errorf("canvas %s: %w", c.ID, ErrConflict)
	}
	return nil
}

func (r *Redis) GetCanvas(ctx context.Context, id string) (*Canvas, error) {
	var c Canvas
	if err := r.getJSON(ctx, canvasKey(id), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Redis) ListCanvases(ctx context.Context, userID string) ([]Canvas, error) {
	ids, err := r.client.SMembers(ctx, userCanvasesKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list canvases: %w", err)
	}
	out := make([]Canvas, 0, len(ids))
	for _, id := range ids {
		c, err := r.GetCanvas(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Redis) DeleteCanvas(ctx context.Context, id string) error {
	members, err := r.client.HKeys(ctx, membersKey(id)).Result()
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	pipe := r.client.TxPipeline()
	deleted := pipe.Del(ctx, canvasKey(id))
	pipe.Del(ctx, membersKey(id), snapshotsKey(id), versionsKey(id))
	for _, userID := range members {
		pipe.SRem(ctx, userCanvasesKey(userID), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete canvas: %w", err)
	}
	if deleted.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) AddMember(ctx context.Context, canvasID, userID, role string) error {
	if _, err := r.GetCanvas(ctx, canvasID); err != nil {
		return err
	}
	ok, err := r.client.HSetNX(ctx, membersKey(canvasID), userID, role).Result()
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if !ok {
		return fmt.Errorf("member %s: %w", userID, ErrConflict)
	}
	if err := r.client.SAdd(ctx, userCanvasesKey(userID), canvasID).Err(); err != nil {
		return fmt.Errorf("index member: %w", err)
	}
	return nil
}

func (r *Redis) GetMember(ctx context.Context, canvasID, userID string) (*Member, error) {
	role, err := r.client.HGet(ctx, membersKey(canvasID), userID).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return r.member(ctx, canvasID, userID, role), nil
}

func (r *Redis) ListMembers(ctx context.Context, canvasID string) ([]Member, error) {
	roles, err := r.client.HGetAll(ctx, membersKey(canvasID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]Member, 0, len(roles))
	for userID, role := range roles {
		out = append(out, *r.member(ctx, canvasID, userID, role))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *Redis) member(ctx context.Context, canvasID, userID, role string) *Member {
	m := &Member{CanvasID: canvasID, UserID: userID, Role: role}
	if u, err := r.GetUser(ctx, userID); err == nil {
		m.DisplayName = u.DisplayName
		m.Email = u.Email
	}
	return m
}

func (r *Redis) RemoveMember(ctx context.Context, canvasID, userID string) error {
	n, err := r.client.HDel(ctx, membersKey(canvasID), userID).Result()
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return r.client.SRem(ctx, userCanvasesKey(userID), canvasID).Err()
}

func (r *Redis) SaveSnapshot(ctx context.Context, s Snapshot) error {
	c, err := r.GetCanvas(ctx, s.CanvasID)
	if err != nil {
		return err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	version := strconv.Itoa(s.Version)
	ok, err := r.client.HSetNX(ctx, snapshotsKey(s.CanvasID), version, data).Result()
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if !ok {
		return fmt.Errorf("snapshot version %d: %w", s.Version, ErrConflict)
	}

	c.UpdatedAt = s.CreatedAt
	pipe := r.client.Pipeline()
	pipe.ZAdd(ctx, versionsKey(s.CanvasID), redis.Z{Score: float64(s.Version), Member: version})
	if canvasData, err := json.Marshal(c); err == nil {
		pipe.Set(ctx, canvasKey(c.ID), canvasData, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index snapshot: %w", err)
	}
	return nil
}

func (r *Redis) LatestSnapshot(ctx context.Context, canvasID string) (*Snapshot, error) {
	versions, err := r.client.ZRevRange(ctx, versionsKey(canvasID), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("latest version: %w", err)
	}
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	data, err := r.client.HGet(ctx, snapshotsKey(canvasID), versions[0]).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &s, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, 0).Err()
}

func (r *Redis) getJSON(ctx context.Context, key string, v any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}
