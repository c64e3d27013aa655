package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
create table if not exists users (
	id            text primary key,
	email         text not null unique,
	display_name  text not null,
	password_hash text not null,
	created_at    timestamptz not null default now()
);

create table if not exists canvases (
	id         text primary key,
	name       text not null,
	owner_id   text not null references users(id),
	created_at timestamptz not null default now(),
	updated_at timestamptz not null default now()
);

create table if not exists canvas_members (
	canvas_id text not null references canvases(id) on delete cascade,
	user_id   text not null references users(id) on delete cascade,
	role      text not null,
	primary key (canvas_id, user_id)
);

create table if not exists snapshots (
	id         text primary key,
	canvas_id  text not null references canvases(id) on delete cascade,
	version    integer not null,
	document   jsonb not null,
	created_at timestamptz not null default now(),
	unique (canvas_id, version)
);
`

// Postgres stores everything in a Postgres database through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects and creates the schema when missing.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) CreateUser(ctx context.Context, u User) error {
	const q = `insert into users (id, email, display_name, password_hash) values ($1, lower($2), $3, $4)`
	if _, err := p.pool.Exec(ctx, q, u.ID, u.Email, u.DisplayName, u.PasswordHash); err != nil {
		return wrapWriteErr("create user", err)
	}
	return nil
}

func (p *Postgres) GetUser(ctx context.Context, id string) (*User, error) {
	const q = `select id, email, display_name, password_hash, created_at from users where id = $1`
	return p.scanUser(p.pool.QueryRow(ctx, q, id))
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	const q = `select id, email, display_name, password_hash, created_at from users where email = lower($1)`
	return p.scanUser(p.pool.QueryRow(ctx, q, email))
}

func (p *Postgres) scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, wrapReadErr("get user", err)
	}
	return &u, nil
}

func (p *Postgres) CreateCanvas(ctx context.Context, c Canvas) error {
	const q = `insert into canvases (id, name, owner_id) values ($1, $2, $3)`
	if _, err := p.pool.Exec(ctx, q, c.ID, c.Name, c.OwnerID); err != nil {
		return wrapWriteErr("create canvas", err)
	}
	return nil
}

func (p *Postgres) GetCanvas(ctx context.Context, id string) (*Canvas, error) {
	const q = `select id, name, owner_id, created_at, updated_at from canvases where id = $1`
	var c Canvas
	err := p.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, wrapReadErr("get canvas", err)
	}
	return &c, nil
}

func (p *Postgres) ListCanvases(ctx context.Context, userID string) ([]Canvas, error) {
	const q = `
select c.id, c.name, c.owner_id, c.created_at, c.updated_at
from canvases c
join canvas_members m on m.canvas_id = c.id
where m.user_id = $1
order by c.created_at desc`
	rows, err := p.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list canvases: %w", err)
	}
	defer rows.Close()

	out := make([]Canvas, 0, 16)
	for rows.Next() {
		var c Canvas
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan canvas: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteCanvas(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `delete from canvases where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete canvas: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) AddMember(ctx context.Context, canvasID, userID, role string) error {
	const q = `insert into canvas_members (canvas_id, user_id, role) values ($1, $2, $3)`
	if _, err := p.pool.Exec(ctx, q, canvasID, userID, role); err != nil {
		return wrapWriteErr("add member", err)
	}
	return nil
}

const memberColumns = `m.canvas_id, m.user_id, m.role, u.display_name, u.email
from canvas_members m
join users u on u.id = m.user_id`

func (p *Postgres) GetMember(ctx context.Context, canvasID, userID string) (*Member, error) {
	q := `select ` + memberColumns + ` where m.canvas_id = $1 and m.user_id = $2`
	var m Member
	err := p.pool.QueryRow(ctx, q, canvasID, userID).Scan(&m.CanvasID, &m.UserID, &m.Role, &m.DisplayName, &m.Email)
	if err != nil {
		return nil, wrapReadErr("get member", err)
	}
	return &m, nil
}

func (p *Postgres) ListMembers(ctx context.Context, canvasID string) ([]Member, error) {
	q := `select ` + memberColumns + ` where m.canvas_id = $1 order by m.user_id`
	rows, err := p.pool.Query(ctx, q, canvasID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.CanvasID, &m.UserID, &m.Role, &m.DisplayName, &m.Email); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (p *Postgres) RemoveMember(ctx context.Context, canvasID, userID string) error {
	tag, err := p.pool.Exec(ctx, `delete from canvas_members where canvas_id = $1 and user_id = $2`, canvasID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SaveSnapshot(ctx context.Context, s Snapshot) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const insert = `insert into snapshots (id, canvas_id, version, document) values ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, insert, s.ID, s.CanvasID, s.Version, []byte(s.Document)); err != nil {
		return wrapWriteErr("save snapshot", err)
	}
	if _, err := tx.Exec(ctx, `update canvases set updated_at = $2 where id = $1`, s.CanvasID, time.Now()); err != nil {
		return fmt.Errorf("touch canvas: %w", err)
	}
	return tx.Commit(ctx)
}

func (p *Postgres) LatestSnapshot(ctx context.Context, canvasID string) (*Snapshot, error) {
	const q = `
select id, canvas_id, version, document, created_at
from snapshots
where canvas_id = $1
order by version desc
limit 1`
	var s Snapshot
	var doc []byte
	err := p.pool.QueryRow(ctx, q, canvasID).Scan(&s.ID, &s.CanvasID, &s.Version, &doc, &s.CreatedAt)
	if err != nil {
		return nil, wrapReadErr("latest snapshot", err)
	}
	s.Document = doc
	return &s, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func wrapReadErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func wrapWriteErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", op, ErrConflict)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
