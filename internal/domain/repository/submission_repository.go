package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"normal_oj/internal/common"
	"normal_oj/internal/domain/model"
)

// ListSubmissionsFilter is a conjunctive filter; nil fields are ignored.
type ListSubmissionsFilter struct {
	ProblemID *int64
	UserID    *int64
	Status    *model.SubmissionStatus
	Language  *model.Language
}

type SubmissionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	FindByID(ctx context.Context, id int64) (*model.Submission, error)
	List(ctx context.Context, filter ListSubmissionsFilter) ([]model.Submission, error)
	UpdateResult(ctx context.Context, id int64, status model.SubmissionStatus, score, execTime, memoryUsage int) error
	UpdateCode(ctx context.Context, id int64, code string) error
}

const submissionColumns = `id, user_id, problem_id, language, timestamp, status,
	score, exec_time, memory_usage, code, last_send, created_at, updated_at`

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) Create(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	query := `INSERT INTO submissions (user_id, problem_id, language, timestamp, status, score, exec_time, memory_usage, code)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id, last_send, created_at, updated_at`
	err := pick(r.db, tx).QueryRowContext(ctx, query,
		sub.UserID, sub.ProblemID, int(sub.Language), sub.Timestamp,
		string(sub.Status), sub.Score, sub.ExecTime, sub.MemoryUsage, sub.Code,
	).Scan(&sub.ID, &sub.LastSend, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) FindByID(ctx context.Context, id int64) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	sub, err := scanSubmission(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.FindByID: %w", err)
	}
	return sub, nil
}

func scanSubmission(scan func(...any) error) (*model.Submission, error) {
	sub := &model.Submission{}
	var language int
	var status string
	err := scan(
		&sub.ID, &sub.UserID, &sub.ProblemID, &language, &sub.Timestamp, &status,
		&sub.Score, &sub.ExecTime, &sub.MemoryUsage, &sub.Code, &sub.LastSend,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.Language = model.Language(language)
	sub.Status = model.SubmissionStatus(status)
	return sub, nil
}

func (r *pgSubmissionRepository) List(ctx context.Context, filter ListSubmissionsFilter) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions`
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf("%s = $%d", cond, len(args)))
	}
	if filter.ProblemID != nil {
		add("problem_id", *filter.ProblemID)
	}
	if filter.UserID != nil {
		add("user_id", *filter.UserID)
	}
	if filter.Status != nil {
		add("status", string(*filter.Status))
	}
	if filter.Language != nil {
		add("language", int(*filter.Language))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.List: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.List scan: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.List rows: %w", err)
	}
	return subs, nil
}

func (r *pgSubmissionRepository) UpdateResult(ctx context.Context, id int64, status model.SubmissionStatus, score, execTime, memoryUsage int) error {
	// status and numbers flip in one statement so a submission never holds
	// grader numbers while still Pending
	query := `UPDATE submissions SET status = $1, score = $2, exec_time = $3, memory_usage = $4,
	          updated_at = CURRENT_TIMESTAMP WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, string(status), score, execTime, memoryUsage, id)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.UpdateResult: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgSubmissionRepository) UpdateCode(ctx context.Context, id int64, code string) error {
	query := `UPDATE submissions SET code = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, code, id)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.UpdateCode: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}
