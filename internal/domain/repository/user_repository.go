package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"normal_oj/internal/common"
	"normal_oj/internal/domain/model"
)

type UserRepository interface {
	Create(ctx context.Context, tx *sql.Tx, user *model.User) error
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByPid(ctx context.Context, pid string) (*model.User, error)
	FindByAPIKey(ctx context.Context, apiKey string) (*model.User, error)
	FindByEmail(ctx context.Context, tx *sql.Tx, email string) (*model.User, error)
	FindByUsername(ctx context.Context, tx *sql.Tx, username string) (*model.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*model.User, error)
	FindByResetToken(ctx context.Context, token string) (*model.User, error)

	SetEmailVerification(ctx context.Context, user *model.User, token string, sentAt time.Time) error
	SetResetToken(ctx context.Context, user *model.User, token string, sentAt time.Time) error
	MarkVerified(ctx context.Context, tx *sql.Tx, user *model.User, at time.Time) error
	UpdatePassword(ctx context.Context, user *model.User, hashedPassword string) error
	UpdateDisplayedName(ctx context.Context, tx *sql.Tx, user *model.User, displayedName *string) error
}

const userColumns = `id, pid, username, email, hashed_password, api_key, role,
	reset_token, reset_sent_at, email_verification_token, email_verification_sent_at,
	email_verified_at, displayed_name, bio, created_at, updated_at`

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, tx *sql.Tx, user *model.User) error {
	query := `INSERT INTO users (pid, username, email, hashed_password, api_key, role, displayed_name, bio)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id, created_at, updated_at`
	err := pick(r.db, tx).QueryRowContext(ctx, query,
		user.Pid, user.Username, user.Email, user.HashedPassword, user.APIKey,
		int(user.Role), user.DisplayedName, user.Bio,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findBy(ctx, nil, "id = $1", id)
}

func (r *pgUserRepository) FindByPid(ctx context.Context, pid string) (*model.User, error) {
	return r.findBy(ctx, nil, "pid = $1", pid)
}

func (r *pgUserRepository) FindByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	return r.findBy(ctx, nil, "api_key = $1", apiKey)
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, tx *sql.Tx, email string) (*model.User, error) {
	return r.findBy(ctx, tx, "email = $1", email)
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, tx *sql.Tx, username string) (*model.User, error) {
	return r.findBy(ctx, tx, "username = $1", username)
}

func (r *pgUserRepository) FindByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	return r.findBy(ctx, nil, "email_verification_token = $1", token)
}

func (r *pgUserRepository) FindByResetToken(ctx context.Context, token string) (*model.User, error) {
	return r.findBy(ctx, nil, "reset_token = $1", token)
}

func (r *pgUserRepository) findBy(ctx context.Context, tx *sql.Tx, cond string, arg any) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + cond
	user := &model.User{}
	var role int
	err := pick(r.db, tx).QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Pid, &user.Username, &user.Email, &user.HashedPassword,
		&user.APIKey, &role, &user.ResetToken, &user.ResetSentAt,
		&user.EmailVerificationToken, &user.EmailVerificationSentAt,
		&user.EmailVerifiedAt, &user.DisplayedName, &user.Bio,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.findBy %s: %w", cond, err)
	}
	user.Role = model.Role(role)
	return user, nil
}

func (r *pgUserRepository) SetEmailVerification(ctx context.Context, user *model.User, token string, sentAt time.Time) error {
	query := `UPDATE users SET email_verification_token = $1, email_verification_sent_at = $2,
	          updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, token, sentAt, user.ID); err != nil {
		return fmt.Errorf("pgUserRepository.SetEmailVerification: %w", err)
	}
	user.EmailVerificationToken = &token
	user.EmailVerificationSentAt = &sentAt
	return nil
}

func (r *pgUserRepository) SetResetToken(ctx context.Context, user *model.User, token string, sentAt time.Time) error {
	query := `UPDATE users SET reset_token = $1, reset_sent_at = $2,
	          updated_at = CURRENT_TIMESTAMP WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, token, sentAt, user.ID); err != nil {
		return fmt.Errorf("pgUserRepository.SetResetToken: %w", err)
	}
	user.ResetToken = &token
	user.ResetSentAt = &sentAt
	return nil
}

func (r *pgUserRepository) MarkVerified(ctx context.Context, tx *sql.Tx, user *model.User, at time.Time) error {
	query := `UPDATE users SET email_verified_at = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	if _, err := pick(r.db, tx).ExecContext(ctx, query, at, user.ID); err != nil {
		return fmt.Errorf("pgUserRepository.MarkVerified: %w", err)
	}
	user.EmailVerifiedAt = &at
	return nil
}

func (r *pgUserRepository) UpdatePassword(ctx context.Context, user *model.User, hashedPassword string) error {
	// any outstanding reset token dies with the old password
	query := `UPDATE users SET hashed_password = $1, reset_token = NULL, reset_sent_at = NULL,
	          updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, hashedPassword, user.ID); err != nil {
		return fmt.Errorf("pgUserRepository.UpdatePassword: %w", err)
	}
	user.HashedPassword = hashedPassword
	user.ResetToken = nil
	user.ResetSentAt = nil
	return nil
}

func (r *pgUserRepository) UpdateDisplayedName(ctx context.Context, tx *sql.Tx, user *model.User, displayedName *string) error {
	query := `UPDATE users SET displayed_name = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	if _, err := pick(r.db, tx).ExecContext(ctx, query, displayedName, user.ID); err != nil {
		return fmt.Errorf("pgUserRepository.UpdateDisplayedName: %w", err)
	}
	user.DisplayedName = displayedName
	return nil
}
