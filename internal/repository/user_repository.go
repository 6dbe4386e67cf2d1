package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"eventia/internal/model"
	"eventia/internal/utils"
)

// UserRepo provides access to the users and managed_events tables.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user with a bcrypt-hashed password and returns its ID.
func (r *UserRepo) Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES (?,?,?,?)",
		name, email, hash, role)
	if err != nil {
		// 1062 = ER_DUP_ENTRY on the email UNIQUE key
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,role,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id, including the managed-events set for admins.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,role,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	if err != nil {
		return u, err
	}
	if u.Role == model.RoleAdmin {
		ids, err := r.ManagedEventIDs(ctx, u.ID)
		if err != nil {
			return u, err
		}
		u.ManagedEvents = ids
	}
	return u, nil
}

// Update applies the provided optional fields to a user.  A nil field is
// left untouched.  Password is re-hashed when set.
func (r *UserRepo) Update(ctx context.Context, id uint64, name, email, password *string, cost int) error {
	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if name != nil {
		sets = append(sets, "name=?")
		args = append(args, strings.TrimSpace(*name))
	}
	if email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*email)))
	}
	if password != nil {
		hash, err := utils.HashPassword(*password, cost)
		if err != nil {
			return err
		}
		sets = append(sets, "password_hash=?")
		args = append(args, hash)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ",")+" WHERE id=?", args...)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Zero rows can also mean a no-op update; verify existence.
		var exists int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=?", id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
	}
	return nil
}

// ManagedEventIDs returns the set of event IDs an admin may mutate.
func (r *UserRepo) ManagedEventIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT event_id FROM managed_events WHERE user_id=? ORDER BY event_id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ManagesEvent reports whether the admin has the given event in their
// managed set.  This is the authorization capability behind every
// organizer mutation: admin A may mutate event E iff E ∈ A.managedEvents.
func (r *UserRepo) ManagesEvent(ctx context.Context, userID, eventID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM managed_events WHERE user_id=? AND event_id=? LIMIT 1",
		userID, eventID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// AddManagedEvent grants an admin management of an event.  Inserting an
// existing pair is a no-op.
func (r *UserRepo) AddManagedEvent(ctx context.Context, userID, eventID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO managed_events (user_id, event_id) VALUES (?,?)",
		userID, eventID)
	return err
}

// ReplaceManagedEvents swaps an admin's managed set for the given IDs.
func (r *UserRepo) ReplaceManagedEvents(ctx context.Context, userID uint64, eventIDs []uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM managed_events WHERE user_id=?", userID); err != nil {
		return err
	}
	for _, eid := range eventIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO managed_events (user_id, event_id) VALUES (?,?)", userID, eid); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
