package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/devportal/user-registry/internal/core/domain"
	"github.com/devportal/user-registry/internal/core/ports"
)

const uniqueViolation = "23505"

// Partial unique index names declared in the migrations; the constraint name
// reported on SQLSTATE 23505 identifies which field collided.
const (
	usernameIndex = "users_username_active_key"
	taxCodeIndex  = "users_tax_code_active_key"
)

const userColumns = "id, username, email, tax_code, given_name, family_name, status, roles, created_at, created_by, updated_at, updated_by"

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user row. A partial-unique-index violation is
// translated into *domain.DuplicateResourceError naming the colliding field,
// so racing creators observe the advisory check's error shape.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	roles, err := json.Marshal(u.Roles)
	if err != nil {
		return fmt.Errorf("marshal roles: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID, u.Username, u.Email, u.TaxCode, u.GivenName, u.FamilyName,
		u.Status, roles, u.CreatedAt, u.CreatedBy, u.UpdatedAt, u.UpdatedBy,
	)
	if err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

// GetByID retrieves a user by id. DELETED rows are invisible unless
// includeDeleted is set.
func (r *UserRepository) GetByID(ctx context.Context, id string, includeDeleted bool) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if !includeDeleted {
		query += ` AND status <> 'DELETED'`
	}

	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// List returns one page of users matching filter plus the total match count.
func (r *UserRepository) List(ctx context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	where, args := buildListWhere(filter)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	order := "created_at DESC"
	switch {
	case filter.SortBy == "username" && filter.SortAsc:
		order = "lower(username) ASC"
	case filter.SortBy == "username":
		order = "lower(username) DESC"
	case filter.SortAsc:
		order = "created_at ASC"
	}

	query := fmt.Sprintf(`SELECT `+userColumns+` FROM users%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		where, order, len(args)+1, len(args)+2)
	args = append(args, filter.Size, filter.Page*filter.Size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, total, nil
}

// Update writes all mutable fields of a non-deleted user. Like Create, it
// translates a unique-index violation into the domain's duplicate error.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	roles, err := json.Marshal(u.Roles)
	if err != nil {
		return fmt.Errorf("marshal roles: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET username = $2, email = $3, tax_code = $4, given_name = $5,
		    family_name = $6, roles = $7, updated_at = $8, updated_by = $9
		WHERE id = $1 AND status <> 'DELETED'`,
		u.ID, u.Username, u.Email, u.TaxCode, u.GivenName, u.FamilyName,
		roles, u.UpdatedAt, u.UpdatedBy,
	)
	if err != nil {
		return translateUniqueViolation(err)
	}
	return requireRow(res)
}

// SetStatus persists a status transition together with the audit actor.
// The WHERE guard keeps DELETED terminal at the commit: a writer holding a
// stale snapshot cannot overwrite a concurrently committed deletion, it
// observes zero rows and reports not found instead.
func (r *UserRepository) SetStatus(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET status = $2, updated_at = $3, updated_by = $4
		WHERE id = $1 AND status <> 'DELETED'`,
		u.ID, u.Status, u.UpdatedAt, u.UpdatedBy,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// FindConflict is the advisory pre-check: it reports which identifier is
// already taken by a non-deleted user other than excludeID.
func (r *UserRepository) FindConflict(ctx context.Context, username, taxCode, excludeID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var gotUsername, gotTaxCode string
	err := r.db.QueryRowContext(ctx, `
		SELECT username, tax_code FROM users
		WHERE status <> 'DELETED'
		  AND id <> $3
		  AND (lower(username) = lower($1) OR ($2 <> '' AND tax_code = $2))
		LIMIT 1`,
		username, taxCode, excludeID,
	).Scan(&gotUsername, &gotTaxCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("find conflict: %w", err)
	}

	if strings.EqualFold(gotUsername, username) {
		return "username", nil
	}
	return "tax_code", nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var roles []byte
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.TaxCode, &u.GivenName, &u.FamilyName,
		&u.Status, &roles, &u.CreatedAt, &u.CreatedBy, &u.UpdatedAt, &u.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(roles, &u.Roles); err != nil {
		return nil, fmt.Errorf("unmarshal roles: %w", err)
	}
	return &u, nil
}

func buildListWhere(filter ports.ListUsersFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	} else {
		conds = append(conds, "status <> 'DELETED'")
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(username ILIKE $%d OR email ILIKE $%d OR given_name ILIKE $%d OR family_name ILIKE $%d)",
			n, n, n, n))
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// translateUniqueViolation maps SQLSTATE 23505 on one of the partial unique
// indexes to the domain's duplicate error; anything else passes through as
// an infrastructure error.
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case usernameIndex:
		return &domain.DuplicateResourceError{Field: "username"}
	case taxCodeIndex:
		return &domain.DuplicateResourceError{Field: "tax_code"}
	}
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
