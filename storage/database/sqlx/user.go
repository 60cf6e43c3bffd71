package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/jvaldes/premios/core"
	"github.com/jvaldes/premios/core/user"
)

const userTable = "staff_user"

var userColumns = []string{
	"id", "name", "username", "email", "is_active", "roles",
	"password_hash", "created_at", "updated_at", "last_login",
}

type userRow struct {
	ID           string         `db:"id"`
	Name         null.String    `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash null.Bytes     `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) fromRow(r userRow) user.User {
	active := r.IsActive
	return user.User{
		ID:           r.ID,
		Name:         r.Name.String,
		Username:     r.Username.String,
		Email:        r.Email.String,
		IsActive:     &active,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func (repo userRepository) fromRows(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, repo.fromRow(r))
	}
	return users
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) exists(ctx context.Context, cond sq.Sqlizer, excluded []user.User) (bool, error) {
	b := psql.Select("COUNT(*)").From(userTable).Where(cond)
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, u := range excluded {
			ids = append(ids, u.ID)
		}
		b = b.Where(sq.NotEq{"id": ids})
	}

	q, args, err := b.ToSql()
	if err != nil {
		return false, err
	}
	var cnt int
	if err = repo.db.GetContext(ctx, &cnt, q, args...); err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	if username != "" {
		taken, err := repo.exists(ctx, sq.Eq{"username": username}, excludedUsers)
		if err != nil {
			return errors.Wrap(err, "checking username uniqueness")
		}
		if taken {
			return user.ErrUsernameExists
		}
	}
	if email != "" {
		taken, err := repo.exists(ctx, sq.Eq{"email": email}, excludedUsers)
		if err != nil {
			return errors.Wrap(err, "checking email uniqueness")
		}
		if taken {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	active := usr.IsActive == nil || *usr.IsActive

	q, args, err := psql.Insert(userTable).
		Columns(userColumns...).
		Values(
			usr.ID,
			null.NewString(usr.Name, usr.Name != ""),
			null.NewString(usr.Username, usr.Username != ""),
			null.NewString(usr.Email, usr.Email != ""),
			active,
			pq.StringArray(usr.Roles),
			null.BytesFrom(usr.PasswordHash),
			usr.CreatedAt.UTC(),
			usr.UpdatedAt.UTC(),
			null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
		).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	b := psql.Select(userColumns...).From(userTable)

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			b = b.Where(sq.Or{
				sq.ILike{"name": val},
				sq.ILike{"username": val},
				sq.ILike{"email": val},
			})
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			or := make(sq.Or, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				or = append(or, sq.Expr(
					"id IN (SELECT id FROM "+userTable+", UNNEST(roles) user_role WHERE user_role ILIKE ?)",
					role+"%"))
			}
			b = b.Where(or)
		}
		if filter.IsActive != nil {
			b = b.Where(sq.Eq{"is_active": *filter.IsActive})
		}
		if !filter.CreatedFrom.IsZero() {
			b = b.Where(sq.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
		}
		if !filter.CreatedTo.IsZero() {
			b = b.Where(sq.LtOrEq{"created_at": filter.CreatedTo.UTC()})
		}
	}

	for _, ord := range ordering {
		b = b.OrderBy(ord.String())
	}

	q, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	var rows []userRow
	if err = repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.fromRows(rows), nil
}

func (repo userRepository) getUser(ctx context.Context, cond sq.Sqlizer, msg string) (user.User, error) {
	q, args, err := psql.Select(userColumns...).From(userTable).Where(cond).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, msg)
	}
	var r userRow
	if err = repo.db.GetContext(ctx, &r, q, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, msg)
	}
	return repo.fromRow(r), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.getUser(ctx, sq.Eq{"id": id}, "finding user by ID")
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, sq.Eq{"username": username}, "finding user by username")
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, sq.Eq{"email": email}, "finding user by email")
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	cond := sq.Or{sq.Eq{"username": username}, sq.Eq{"email": username}}
	return repo.getUser(ctx, cond, "finding user")
}

// UpdateUser only saves set fields; zero fields keep their stored value.
func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	b := psql.Update(userTable).Where(sq.Eq{"id": usr.ID})
	if usr.Name != "" {
		b = b.Set("name", usr.Name)
	}
	if usr.Username != "" {
		b = b.Set("username", usr.Username)
	}
	if usr.Email != "" {
		b = b.Set("email", usr.Email)
	}
	if usr.Roles != nil {
		b = b.Set("roles", pq.StringArray(usr.Roles))
	}
	if usr.PasswordHash != nil {
		b = b.Set("password_hash", usr.PasswordHash)
	}
	if isActive != nil {
		b = b.Set("is_active", *isActive)
	}
	if !usr.UpdatedAt.IsZero() {
		b = b.Set("updated_at", usr.UpdatedAt.UTC())
	}
	if !usr.LastLogin.IsZero() {
		b = b.Set("last_login", usr.LastLogin.UTC())
	}

	q, args, err := b.Suffix("RETURNING " + strings.Join(userColumns, ", ")).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	var r userRow
	if err = repo.db.GetContext(ctx, &r, q, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "updating user")
	}
	return repo.fromRow(r), nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	q, args, err := psql.Delete(userTable).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "deleting users")
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
