package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"cabshare/internal/domain"
	"cabshare/internal/lib/sl"
	"cabshare/internal/repository"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB, log *slog.Logger) *UserRepository {
	return &UserRepository{db: db, log: log}
}

// LoadUsers retrieves all users. Rows with an unknown role are skipped.
func (r *UserRepository) LoadUsers(ctx context.Context) ([]*domain.User, error) {
	const op = "postgres.LoadUsers"

	query := `SELECT name, username, password, role, phone FROM users ORDER BY username`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		var role string
		if err := rows.Scan(&user.Name, &user.Username, &user.Password, &role, &user.Phone); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		user.Role, err = domain.ParseRole(role)
		if err != nil {
			r.log.Warn("skipping user row", slog.String("op", op), slog.String("username", user.Username), sl.Err(err))
			continue
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// SaveUsers replaces the users table in one transaction.
func (r *UserRepository) SaveUsers(ctx context.Context, users []*domain.User) error {
	const op = "postgres.SaveUsers"

	err := rewrite(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
			return err
		}

		query := `INSERT INTO users (username, name, password, role, phone) VALUES ($1, $2, $3, $4, $5)`
		for _, u := range users {
			if _, err := tx.ExecContext(ctx, query, u.Username, u.Name, u.Password, string(u.Role), u.Phone); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
