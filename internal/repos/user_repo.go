package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"milkpoint/internal/domain"
)

type userRow struct {
	ID        string `db:"id"`
	Email     string `db:"email"`
	FullName  string `db:"full_name"`
	Phone     string `db:"phone"`
	AvatarURL string `db:"avatar_url"`
	Role      string `db:"role"`
	Hash      string `db:"password_hash"`
	CreatedAt string `db:"created_at"`
}

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := r.DB.SelectContext(ctx, &rows, `
	  SELECT id, email, full_name, phone, avatar_url, role, password_hash, created_at
	  FROM users ORDER BY LOWER(email)
	`); err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		created, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.User{
			ID:        row.ID,
			Email:     row.Email,
			FullName:  row.FullName,
			Phone:     row.Phone,
			AvatarURL: row.AvatarURL,
			Role:      domain.Role(row.Role),
			Hash:      row.Hash,
			CreatedAt: created,
		})
	}
	return out, nil
}

func upsertUser(ctx context.Context, tx *sqlx.Tx, u domain.User) error {
	_, err := tx.NamedExecContext(ctx, `
	  INSERT INTO users(id, email, full_name, phone, avatar_url, role, password_hash, created_at)
	  VALUES(:id, :email, :full_name, :phone, :avatar_url, :role, :password_hash, :created_at)
	  ON CONFLICT(id) DO UPDATE SET
	    email=excluded.email, full_name=excluded.full_name, phone=excluded.phone,
	    avatar_url=excluded.avatar_url, role=excluded.role, password_hash=excluded.password_hash
	`, userRow{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		AvatarURL: u.AvatarURL,
		Role:      string(u.Role),
		Hash:      u.Hash,
		CreatedAt: formatTime(u.CreatedAt),
	})
	return err
}

func (r *UserRepo) BindSession(sid, userID string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

// SessionUserID returns the user bound to sid, or domain.ErrNotFound.
func (r *UserRepo) SessionUserID(sid string) (string, error) {
	var uid sql.NullString
	err := r.DB.Get(&uid, `SELECT user_id FROM sessions WHERE id=?`, sid)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !uid.Valid) {
		return "", fmt.Errorf("%w: session", domain.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	_, _ = r.DB.Exec(`UPDATE sessions SET last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return uid.String, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}
