package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/osdops/sdutrack/core"
	"github.com/osdops/sdutrack/core/user"
)

const userCols = `id, name, username, email, org_id, is_active, roles, password_hash, created_at, updated_at, last_login`

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) scanUser(row rowScanner) (user.User, error) {
	var usr user.User
	var username, email, orgID null.String
	var isActive bool
	var roles []byte
	var lastLogin null.Time
	err := row.Scan(&usr.ID, &usr.Name, &username, &email, &orgID, &isActive, &roles,
		&usr.PasswordHash, &usr.CreatedAt, &usr.UpdatedAt, &lastLogin)
	if err != nil {
		return user.User{}, err
	}
	usr.Username = username.String
	usr.Email = email.String
	usr.OrgID = orgID.String
	usr.SetActive(isActive)
	usr.LastLogin = lastLogin.Time
	if err = unmarshalJSON(roles, &usr.Roles); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo userRepository) exists(ctx context.Context, column, value string, exclIDs []string) (bool, error) {
	if value == "" {
		return false, nil
	}
	query := `SELECT EXISTS (SELECT 1 FROM app_user WHERE ` + column + ` = ?`
	args := []interface{}{value}
	if len(exclIDs) > 0 {
		query += ` AND id NOT IN (?)`
	}
	query += `)`

	var err error
	if len(exclIDs) > 0 {
		if query, args, err = sqlx.In(query, value, exclIDs); err != nil {
			return false, errors.Wrap(err, "expanding IN clause")
		}
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var exists bool
	err = repo.exec.QueryRowContext(ctx, query, args...).Scan(&exists)
	return exists, errors.Wrap(err, "checking user uniqueness")
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]string, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		exclIDs = append(exclIDs, u.ID)
	}

	if exists, err := repo.exists(ctx, "username", username, exclIDs); err != nil {
		return err
	} else if exists {
		return user.ErrUsernameExists
	}
	if exists, err := repo.exists(ctx, "email", email, exclIDs); err != nil {
		return err
	} else if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	roles, err := marshalJSON(usr.Roles)
	if err != nil {
		return user.User{}, err
	}
	query := `INSERT INTO app_user (` + userCols + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = repo.exec.ExecContext(ctx, query,
		usr.ID, usr.Name,
		null.NewString(usr.Username, usr.Username != ""),
		null.NewString(usr.Email, usr.Email != ""),
		null.NewString(usr.OrgID, usr.OrgID != ""),
		usr.IsActive != nil && *usr.IsActive,
		roles, usr.PasswordHash, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
		null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()))
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	query := `SELECT ` + userCols + ` FROM app_user ORDER BY created_at`
	rows, err := repo.exec.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	defer func() { _ = rows.Close() }()

	users := make([]user.User, 0)
	for rows.Next() {
		usr, err := repo.scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning user")
		}
		users = append(users, usr)
	}
	return users, errors.Wrap(rows.Err(), "querying users")
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	if filter.IsEmpty() {
		return user.User{}, user.ErrNotFound
	}

	var row *sql.Row
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		row = repo.exec.QueryRowContext(ctx, `SELECT `+userCols+` FROM app_user WHERE id = $1`, filter.ID)
	case filter.Username != "":
		row = repo.exec.QueryRowContext(ctx, `SELECT `+userCols+` FROM app_user WHERE username = $1`, filter.Username)
	case filter.Email != "":
		row = repo.exec.QueryRowContext(ctx, `SELECT `+userCols+` FROM app_user WHERE email = $1`, filter.Email)
	default:
		uname := filter.UsernameOrEmail[0]
		email := uname
		if len(filter.UsernameOrEmail) == 2 && filter.UsernameOrEmail[1] != "" {
			email = filter.UsernameOrEmail[1]
		}
		row = repo.exec.QueryRowContext(ctx,
			`SELECT `+userCols+` FROM app_user WHERE username = $1 OR email = $2`, uname, email)
	}

	usr, err := repo.scanUser(row)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return usr, nil
}

// UpdateUser only overwrites set fields; empty strings and nil slices
// leave the stored values alone.
func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	var roles []byte
	if usr.Roles != nil {
		var err error
		if roles, err = marshalJSON(usr.Roles); err != nil {
			return user.User{}, err
		}
	}
	query := `UPDATE app_user SET
			name = COALESCE(NULLIF($2, ''), name),
			username = COALESCE(NULLIF($3, ''), username),
			email = COALESCE(NULLIF($4, ''), email),
			roles = COALESCE($5, roles),
			password_hash = COALESCE($6, password_hash),
			is_active = COALESCE($7, is_active),
			updated_at = $8,
			last_login = COALESCE($9, last_login)
		WHERE id = $1
		RETURNING ` + userCols
	row := repo.exec.QueryRowContext(ctx, query,
		usr.ID, usr.Name, usr.Username, usr.Email, roles, usr.PasswordHash,
		null.BoolFromPtr(isActive), usr.UpdatedAt.UTC(),
		null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()))

	updated, err := repo.scanUser(row)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "updating user")
	}
	return updated, nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	return repo.UpdateUser(ctx, usr, nil)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM app_user WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "expanding IN clause")
	}
	if _, err = repo.exec.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
