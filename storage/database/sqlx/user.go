package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core/user"
)

const userColumns = "id, tenant_id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login"

type userRepository struct {
	exec sqlx.ExtContext
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec sqlx.ExtContext) user.Repository {
	return &userRepository{exec: exec}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	q := "SELECT username, email FROM users WHERE (username = ? OR email = ?)"
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q += " AND id NOT IN (?)"
		args = append(args, ids)
	}
	q, args, err := sqlx.In(q+" LIMIT 1", args...)
	if err != nil {
		return errors.Wrap(err, "expanding excluded ids")
	}

	var found struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err = sqlx.GetContext(ctx, repo.exec, &found, repo.exec.Rebind(q), args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return nil
		}
		return errors.Wrap(err, "checking username uniqueness")
	}
	if found.Username == username {
		return user.ErrUsernameExists
	}
	return user.ErrEmailExists
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	cols := strings.Split(userColumns, ", ")
	q := "INSERT INTO users (" + userColumns + ") VALUES (:" + strings.Join(cols, ", :") + ")"
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, usr); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) getOne(ctx context.Context, where string, args ...interface{}) (user.User, error) {
	var usr user.User
	q := repo.exec.Rebind("SELECT " + userColumns + " FROM users WHERE " + where + " LIMIT 1")
	if err := sqlx.GetContext(ctx, repo.exec, &usr, q, args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getOne(ctx, "id = ?", id)
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getOne(ctx, "username = ? OR email = ?", username, username)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET name = :name, username = :username, email = :email, is_active = :is_active,
		roles = :roles, password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting affected rows")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
