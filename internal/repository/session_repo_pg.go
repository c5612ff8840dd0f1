package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/legalbook/legalbook/internal/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpiredBefore(ctx context.Context, deadline time.Time) (int64, error)
}

type PGSessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) SessionRepository {
	return &PGSessionRepository{db: db}
}

func (r *PGSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	return r.db.QueryRow(ctx, `INSERT INTO sessions (id, access_token, refresh_token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`, session.ID, session.AccessToken, session.RefreshToken, session.ExpiresAt).
		Scan(&session.CreatedAt)
}

func (r *PGSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRow(ctx, `SELECT id, access_token, refresh_token, created_at, expires_at FROM sessions WHERE id=$1`, id)
	var s domain.Session
	if err := row.Scan(&s.ID, &s.AccessToken, &s.RefreshToken, &s.CreatedAt, &s.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGSessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id=$1`, id)
	return err
}

func (r *PGSessionRepository) DeleteExpiredBefore(ctx context.Context, deadline time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, deadline)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

var _ SessionRepository = (*PGSessionRepository)(nil)
