package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"normal_oj/internal/common"
	"normal_oj/internal/domain/model"
)

// ListProblemsFilter narrows the problem listing. Nil fields are ignored.
type ListProblemsFilter struct {
	Name *string
}

type ProblemRepository interface {
	CreateDescription(ctx context.Context, tx *sql.Tx, desc *model.ProblemDescription) error
	CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	CreateTasks(ctx context.Context, tx *sql.Tx, problemID int64, tasks []model.ProblemTask) ([]model.ProblemTask, error)

	FindByID(ctx context.Context, id int64) (*model.Problem, error)
	FindByName(ctx context.Context, name string) (*model.Problem, error)
	List(ctx context.Context, filter ListProblemsFilter) ([]model.Problem, error)
	TasksByProblemID(ctx context.Context, problemID int64) ([]model.ProblemTask, error)
	DescriptionByID(ctx context.Context, id int64) (*model.ProblemDescription, error)

	UpdateTestCaseID(ctx context.Context, problemID int64, testCaseID string) error
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) CreateDescription(ctx context.Context, tx *sql.Tx, desc *model.ProblemDescription) error {
	sampleIn, err := json.Marshal(desc.SampleInput)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.CreateDescription marshal: %w", err)
	}
	sampleOut, err := json.Marshal(desc.SampleOutput)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.CreateDescription marshal: %w", err)
	}

	query := `INSERT INTO problem_descriptions (description, input, output, hint, sample_input, sample_output)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err = pick(r.db, tx).QueryRowContext(ctx, query,
		desc.Description, desc.Input, desc.Output, desc.Hint, sampleIn, sampleOut,
	).Scan(&desc.ID)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.CreateDescription: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) CreateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `INSERT INTO problems (name, owner_id, type, status, description_id, allowed_language, quota)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at, updated_at`
	err := pick(r.db, tx).QueryRowContext(ctx, query,
		p.Name, p.OwnerID, int(p.Type), int(p.Status), p.DescriptionID, p.AllowedLanguage, p.Quota,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("problem with this name already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) CreateTasks(ctx context.Context, tx *sql.Tx, problemID int64, tasks []model.ProblemTask) ([]model.ProblemTask, error) {
	if len(tasks) == 0 {
		return nil, nil
	}
	// inserted one at a time so serial ids preserve the caller-supplied order
	query := `INSERT INTO problem_tasks (problem_id, test_case_count, score, time_limit, memory_limit)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	created := make([]model.ProblemTask, 0, len(tasks))
	for _, t := range tasks {
		t.ProblemID = problemID
		err := pick(r.db, tx).QueryRowContext(ctx, query,
			problemID, t.TestCaseCount, t.Score, t.TimeLimit, t.MemoryLimit,
		).Scan(&t.ID)
		if err != nil {
			return nil, fmt.Errorf("pgProblemRepository.CreateTasks: %w", err)
		}
		created = append(created, t)
	}
	return created, nil
}

const problemColumns = `id, name, owner_id, type, status, description_id, allowed_language, quota, test_case_id, created_at, updated_at`

func (r *pgProblemRepository) FindByID(ctx context.Context, id int64) (*model.Problem, error) {
	return r.findBy(ctx, "id = $1", id)
}

func (r *pgProblemRepository) FindByName(ctx context.Context, name string) (*model.Problem, error) {
	return r.findBy(ctx, "name = $1", name)
}

func (r *pgProblemRepository) findBy(ctx context.Context, cond string, arg any) (*model.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems WHERE ` + cond
	row := r.db.QueryRowContext(ctx, query, arg)
	p, err := scanProblem(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.findBy %s: %w", cond, err)
	}
	return p, nil
}

func scanProblem(scan func(...any) error) (*model.Problem, error) {
	p := &model.Problem{}
	var typ, status int
	err := scan(
		&p.ID, &p.Name, &p.OwnerID, &typ, &status, &p.DescriptionID,
		&p.AllowedLanguage, &p.Quota, &p.TestCaseID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Type = model.ProblemType(typ)
	p.Status = model.Visibility(status)
	return p, nil
}

func (r *pgProblemRepository) List(ctx context.Context, filter ListProblemsFilter) ([]model.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems`
	var args []any
	if filter.Name != nil {
		query += ` WHERE name = $1`
		args = append(args, *filter.Name)
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.List: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		p, err := scanProblem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("pgProblemRepository.List scan: %w", err)
		}
		problems = append(problems, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.List rows: %w", err)
	}
	return problems, nil
}

func (r *pgProblemRepository) TasksByProblemID(ctx context.Context, problemID int64) ([]model.ProblemTask, error) {
	query := `SELECT id, problem_id, test_case_count, score, time_limit, memory_limit
	          FROM problem_tasks WHERE problem_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.TasksByProblemID: %w", err)
	}
	defer rows.Close()

	tasks := []model.ProblemTask{}
	for rows.Next() {
		var t model.ProblemTask
		if err := rows.Scan(&t.ID, &t.ProblemID, &t.TestCaseCount, &t.Score, &t.TimeLimit, &t.MemoryLimit); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.TasksByProblemID scan: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.TasksByProblemID rows: %w", err)
	}
	return tasks, nil
}

func (r *pgProblemRepository) DescriptionByID(ctx context.Context, id int64) (*model.ProblemDescription, error) {
	query := `SELECT id, description, input, output, hint, sample_input, sample_output
	          FROM problem_descriptions WHERE id = $1`
	desc := &model.ProblemDescription{}
	var sampleIn, sampleOut []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&desc.ID, &desc.Description, &desc.Input, &desc.Output, &desc.Hint, &sampleIn, &sampleOut,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.DescriptionByID: %w", err)
	}
	if err := json.Unmarshal(sampleIn, &desc.SampleInput); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.DescriptionByID sample_input: %w", err)
	}
	if err := json.Unmarshal(sampleOut, &desc.SampleOutput); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.DescriptionByID sample_output: %w", err)
	}
	return desc, nil
}

func (r *pgProblemRepository) UpdateTestCaseID(ctx context.Context, problemID int64, testCaseID string) error {
	query := `UPDATE problems SET test_case_id = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, testCaseID, problemID)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.UpdateTestCaseID: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}
