package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/documind/documind/internal/model"
	"github.com/documind/documind/internal/pkg/dbutil"
	"github.com/documind/documind/internal/pkg/errs"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	data := map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"password": user.Password,
		"ctime":    user.Ctime,
	}
	query, args, err := builder.BuildInsert("users", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	query, args = dbutil.Finalize(query, args)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if dbutil.IsConflict(err) {
			return errs.ErrConflict
		}
		return err
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const query = `SELECT id, username, email, password, ctime FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	const query = `SELECT id, username, email, password, ctime FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepo) scanOne(row *sql.Row) (*model.User, error) {
	var user model.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
