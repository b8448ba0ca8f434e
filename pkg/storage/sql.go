package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/platinummonkey/catalog/pkg/auth"
)

// Supported SQL drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// SQLStore implements Store on database/sql (SQLite or PostgreSQL)
type SQLStore struct {
	db     *sql.DB
	driver string
}

// OpenSQL opens a database, checks the connection and applies the schema
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// in-memory databases are per connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	s := NewSQLStore(db, driver)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// DB returns the underlying database handle
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		full_name TEXT NOT NULL DEFAULT '',
		sysadmin BOOLEAN NOT NULL DEFAULT FALSE,
		state TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		is_organization BOOLEAN NOT NULL DEFAULT FALSE,
		state TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS group_extras (
		group_id TEXT NOT NULL REFERENCES catalog_groups(id),
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (group_id, key)
	)`,
	`CREATE TABLE IF NOT EXISTS packages (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		owner_org TEXT NOT NULL DEFAULT '',
		private BOOLEAN NOT NULL DEFAULT FALSE,
		creator_user_id TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT 'active'
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		user_id TEXT NOT NULL REFERENCES users(id),
		group_id TEXT NOT NULL REFERENCES catalog_groups(id),
		capacity TEXT NOT NULL,
		PRIMARY KEY (user_id, group_id)
	)`,
}

// Migrate creates the schema if it does not exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CreateUser implements Writer
func (s *SQLStore) CreateUser(ctx context.Context, u *auth.User) error {
	if u.Name == "" {
		return fmt.Errorf("user name is required")
	}
	prepareUser(u)
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO users (id, name, email, full_name, sysadmin, state, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.Name, u.Email, u.FullName, u.Sysadmin, u.State, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", u.Name, err)
	}
	return nil
}

// CreateGroup implements Writer
func (s *SQLStore) CreateGroup(ctx context.Context, g *auth.Group) error {
	if g.Name == "" {
		return fmt.Errorf("group name is required")
	}
	prepareGroup(g)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO catalog_groups (id, name, title, type, is_organization, state, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		g.ID, g.Name, g.Title, g.Type, g.IsOrganization, g.State, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create group %s: %w", g.Name, err)
	}
	if err := s.writeExtras(ctx, tx, g.ID, g.Extras); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateGroupExtras implements Writer
func (s *SQLStore) UpdateGroupExtras(ctx context.Context, groupID string, extras map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT id FROM catalog_groups WHERE id = ?`), groupID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("group %q: %w", groupID, auth.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to query group %s: %w", groupID, err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM group_extras WHERE group_id = ?`), groupID); err != nil {
		return fmt.Errorf("failed to clear extras of group %s: %w", groupID, err)
	}
	if err := s.writeExtras(ctx, tx, groupID, extras); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) writeExtras(ctx context.Context, tx *sql.Tx, groupID string, extras map[string]string) error {
	for k, v := range extras {
		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO group_extras (group_id, key, value) VALUES (?, ?, ?)`), groupID, k, v); err != nil {
			return fmt.Errorf("failed to write extra %s of group %s: %w", k, groupID, err)
		}
	}
	return nil
}

// CreatePackage implements Writer
func (s *SQLStore) CreatePackage(ctx context.Context, p *auth.Package) error {
	if p.Name == "" {
		return fmt.Errorf("dataset name is required")
	}
	preparePackage(p)
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO packages (id, name, type, owner_org, private, creator_user_id, state) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.Name, p.Type, p.OwnerOrg, p.Private, p.CreatorUserID, p.State)
	if err != nil {
		return fmt.Errorf("failed to create dataset %s: %w", p.Name, err)
	}
	return nil
}

// AddMember implements Writer
func (s *SQLStore) AddMember(ctx context.Context, m auth.Member) error {
	query := `INSERT INTO members (user_id, group_id, capacity) VALUES (?, ?, ?)
		ON CONFLICT (user_id, group_id) DO UPDATE SET capacity = excluded.capacity`
	if _, err := s.db.ExecContext(ctx, s.rebind(query), m.UserID, m.GroupID, m.Capacity); err != nil {
		return fmt.Errorf("failed to add member %s to %s: %w", m.UserID, m.GroupID, err)
	}
	return nil
}

// RemoveMember implements Writer
func (s *SQLStore) RemoveMember(ctx context.Context, userID, groupID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM members WHERE user_id = ? AND group_id = ?`), userID, groupID)
	if err != nil {
		return fmt.Errorf("failed to remove member %s from %s: %w", userID, groupID, err)
	}
	return nil
}

// UserByName implements auth.Model
func (s *SQLStore) UserByName(ctx context.Context, name string) (*auth.User, error) {
	var u auth.User
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, name, email, full_name, sysadmin, state, created_at FROM users WHERE name = ? OR id = ?`),
		name, name).Scan(&u.ID, &u.Name, &u.Email, &u.FullName, &u.Sysadmin, &u.State, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user %s: %w", name, err)
	}
	return &u, nil
}

// PackageByID implements auth.Model
func (s *SQLStore) PackageByID(ctx context.Context, id string) (*auth.Package, error) {
	var p auth.Package
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, name, type, owner_org, private, creator_user_id, state FROM packages WHERE id = ? OR name = ?`),
		id, id).Scan(&p.ID, &p.Name, &p.Type, &p.OwnerOrg, &p.Private, &p.CreatorUserID, &p.State)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset %s: %w", id, err)
	}
	return &p, nil
}

// GroupByID implements auth.Model
func (s *SQLStore) GroupByID(ctx context.Context, id string) (*auth.Group, error) {
	var g auth.Group
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, name, title, type, is_organization, state, created_at FROM catalog_groups WHERE id = ? OR name = ?`),
		id, id).Scan(&g.ID, &g.Name, &g.Title, &g.Type, &g.IsOrganization, &g.State, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query group %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT key, value FROM group_extras WHERE group_id = ?`), g.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query extras of group %s: %w", g.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan extra: %w", err)
		}
		if g.Extras == nil {
			g.Extras = make(map[string]string)
		}
		g.Extras[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extras: %w", err)
	}
	return &g, nil
}

// Capacity implements auth.Model
func (s *SQLStore) Capacity(ctx context.Context, userID, groupID string) (string, error) {
	var capacity string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT capacity FROM members WHERE user_id = ? AND group_id = ?`), userID, groupID).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query membership: %w", err)
	}
	return capacity, nil
}

// GroupsOfUser implements auth.Model
func (s *SQLStore) GroupsOfUser(ctx context.Context, userID string, organizations bool) ([]auth.Member, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT m.user_id, m.group_id, m.capacity FROM members m
		JOIN catalog_groups g ON g.id = m.group_id
		WHERE m.user_id = ? AND g.is_organization = ? AND g.state = 'active'
		ORDER BY g.name`), userID, organizations)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var out []auth.Member
	for rows.Next() {
		var m auth.Member
		if err := rows.Scan(&m.UserID, &m.GroupID, &m.Capacity); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// HealthCheck pings the database
func (s *SQLStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}
