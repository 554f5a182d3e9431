package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"auth-api/internal/domain"
)

// sqliteTimeLayout tiene ancho fijo para que el orden lexicográfico sea cronológico.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

const createSQLiteUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT NOT NULL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL COLLATE NOCASE UNIQUE,
	verified INTEGER NOT NULL DEFAULT 0,
	password TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'moderator', 'user')),
	photo TEXT NOT NULL DEFAULT 'default.png',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS users_created_at_idx ON users (created_at);
`

const sqliteUserColumns = `id, name, email, password, role, photo, verified, created_at, updated_at`

// OpenSQLite abre (o crea) la base sqlite y asegura que exista el directorio.
func OpenSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// una sola conexión: sqlite serializa escrituras y :memory: es por conexión
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return db, nil
}

// SQLiteUserRepository implementa UserRepository sobre modernc.org/sqlite.
type SQLiteUserRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db, now: time.Now}
}

func (r *SQLiteUserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSQLiteUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *SQLiteUserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sqliteUserColumns+` FROM users WHERE email = ?`,
		strings.TrimSpace(email))
	return scanSQLiteUser(row)
}

func (r *SQLiteUserRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sqliteUserColumns+` FROM users WHERE id = ?`,
		id.String())
	return scanSQLiteUser(row)
}

func (r *SQLiteUserRepository) Insert(ctx context.Context, user domain.NewUser) (domain.User, error) {
	role := user.Role
	if role == "" {
		role = domain.RoleUser
	}
	id := uuid.New()
	now := r.now().UTC().Format(sqliteTimeLayout)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, name, email, password, role, photo, verified, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		id.String(),
		user.Name,
		strings.ToLower(strings.TrimSpace(user.Email)),
		user.PasswordHash,
		string(role),
		domain.DefaultPhoto,
		now,
		now,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *SQLiteUserRepository) List(ctx context.Context, page, limit int) ([]domain.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	offset, ok := pageOffset(page, limit)
	if !ok {
		return []domain.User{}, total, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sqliteUserColumns+` FROM users ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (r *SQLiteUserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password = ?, updated_at = ? WHERE id = ?`,
		hash, r.now().UTC().Format(sqliteTimeLayout), id.String())
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), r.now().UTC().Format(sqliteTimeLayout), id.String())
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSQLiteUser(row interface {
	Scan(dest ...any) error
}) (domain.User, error) {
	var (
		u                    domain.User
		id, role             string
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&id,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.Photo,
		&u.Verified,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("parse user id %q: %w", id, err)
	}
	u.ID = parsedID

	parsedRole, ok := domain.ParseRole(role)
	if !ok {
		return domain.User{}, fmt.Errorf("unknown role %q for user %s", role, id)
	}
	u.Role = parsedRole

	created, err := time.Parse(sqliteTimeLayout, createdAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("parse created_at: %w", err)
	}
	updated, err := time.Parse(sqliteTimeLayout, updatedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("parse updated_at: %w", err)
	}
	u.CreatedAt = &created
	u.UpdatedAt = &updated
	return u, nil
}

// isSQLiteUniqueViolation detecta violaciones UNIQUE por el texto del error.
func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
