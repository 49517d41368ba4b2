package service

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"normal_oj/internal/common"
	"normal_oj/internal/domain/model"
	"normal_oj/internal/domain/repository"
	"normal_oj/internal/platform/storage"
)

// maxTestCaseIndex bounds task and per-task case counts: the archive naming
// scheme uses two-digit zero-padded indices, so anything above 100 cannot
// be represented and is rejected outright.
const maxTestCaseIndex = 100

// ProblemService owns problem creation, listing and the test-case archive
// lifecycle.
type ProblemService struct {
	problemRepo repository.ProblemRepository
	store       storage.Store
	inTx        TxFunc
}

func NewProblemService(problemRepo repository.ProblemRepository, store storage.Store, inTx TxFunc) *ProblemService {
	return &ProblemService{problemRepo: problemRepo, store: store, inTx: inTx}
}

type AddTaskRequest struct {
	TestCaseCount int `json:"test_case_count"`
	Score         int `json:"score"`
	TimeLimit     int `json:"time_limit"`
	MemoryLimit   int `json:"memory_limit"`
}

type AddDescriptionRequest struct {
	Description  string   `json:"description"`
	Input        string   `json:"input"`
	Output       string   `json:"output"`
	Hint         string   `json:"hint"`
	SampleInput  []string `json:"sample_input"`
	SampleOutput []string `json:"sample_output"`
}

type CreateProblemRequest struct {
	Name            string                `json:"name"`
	Status          *model.Visibility     `json:"status,omitempty"`
	Type            *model.ProblemType    `json:"type,omitempty"`
	AllowedLanguage *int                  `json:"allowed_language,omitempty"`
	Quota           *int                  `json:"quota,omitempty"`
	Description     AddDescriptionRequest `json:"description"`
	Tasks           []AddTaskRequest      `json:"tasks"`
}

func validateCreateProblem(req CreateProblemRequest) error {
	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "must not be empty"
	}
	if req.Status != nil && !req.Status.Valid() {
		fields["status"] = "invalid visibility"
	}
	if req.Type != nil && !req.Type.Valid() {
		fields["type"] = "invalid problem type"
	}
	for i, t := range req.Tasks {
		if t.TestCaseCount < 0 {
			fields[fmt.Sprintf("tasks[%d].test_case_count", i)] = "must not be negative"
		}
	}
	if len(fields) > 0 {
		return &common.ValidationError{Fields: fields}
	}
	return nil
}

// Create inserts a problem, its description and its tasks in one
// transaction; nothing is visible unless every row committed.
func (s *ProblemService) Create(ctx context.Context, owner *model.User, req CreateProblemRequest) (*model.Problem, error) {
	if err := requireRole(owner, model.RoleTeacher, model.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateCreateProblem(req); err != nil {
		return nil, err
	}

	problem := &model.Problem{
		Name:            req.Name,
		OwnerID:         owner.ID,
		Type:            model.ProblemTypeNormal,
		Status:          model.VisibilityShow,
		AllowedLanguage: model.AllLanguages,
		Quota:           model.UnlimitedQuota,
	}
	if req.Type != nil {
		problem.Type = *req.Type
	}
	if req.Status != nil {
		problem.Status = *req.Status
	}
	if req.AllowedLanguage != nil {
		problem.AllowedLanguage = *req.AllowedLanguage
	}
	if req.Quota != nil {
		problem.Quota = *req.Quota
	}

	desc := &model.ProblemDescription{
		Description:  req.Description.Description,
		Input:        req.Description.Input,
		Output:       req.Description.Output,
		Hint:         req.Description.Hint,
		SampleInput:  req.Description.SampleInput,
		SampleOutput: req.Description.SampleOutput,
	}

	tasks := make([]model.ProblemTask, len(req.Tasks))
	for i, t := range req.Tasks {
		tasks[i] = model.ProblemTask{
			TestCaseCount: t.TestCaseCount,
			Score:         t.Score,
			TimeLimit:     t.TimeLimit,
			MemoryLimit:   t.MemoryLimit,
		}
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.problemRepo.CreateDescription(ctx, tx, desc); err != nil {
			return err
		}
		problem.DescriptionID = desc.ID
		if err := s.problemRepo.CreateProblem(ctx, tx, problem); err != nil {
			return err
		}
		created, err := s.problemRepo.CreateTasks(ctx, tx, problem.ID, tasks)
		if err != nil {
			return err
		}
		tasks = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	problem.Description = desc
	problem.Tasks = tasks
	return problem, nil
}

// canView closes the visibility gap deliberately: admins see everything,
// owners see their own problems, everyone else only Show.
func canView(viewer *model.User, p *model.Problem) bool {
	if viewer != nil && (viewer.Role == model.RoleAdmin || viewer.ID == p.OwnerID) {
		return true
	}
	return p.Status == model.VisibilityShow
}

type ListProblemsRequest struct {
	Name   *string
	Offset int
	// Count limits the window; negative means no limit.
	Count int
}

func (s *ProblemService) List(ctx context.Context, viewer *model.User, req ListProblemsRequest) ([]model.Problem, error) {
	problems, err := s.problemRepo.List(ctx, repository.ListProblemsFilter{Name: req.Name})
	if err != nil {
		return nil, err
	}

	visible := make([]model.Problem, 0, len(problems))
	for _, p := range problems {
		if canView(viewer, &p) {
			visible = append(visible, p)
		}
	}

	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(visible) {
		return []model.Problem{}, nil
	}
	visible = visible[offset:]
	if req.Count >= 0 && req.Count < len(visible) {
		visible = visible[:req.Count]
	}
	return visible, nil
}

// Get returns a problem with its description and tasks attached. Problems
// the viewer may not see are reported as not found.
func (s *ProblemService) Get(ctx context.Context, viewer *model.User, id int64) (*model.Problem, error) {
	problem, err := s.problemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(viewer, problem) {
		return nil, common.ErrNotFound
	}
	desc, err := s.problemRepo.DescriptionByID(ctx, problem.DescriptionID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.problemRepo.TasksByProblemID(ctx, problem.ID)
	if err != nil {
		return nil, err
	}
	problem.Description = desc
	problem.Tasks = tasks
	return problem, nil
}

// expectedTestCaseFiles derives the file set an archive must contain: for
// task index i and case index j, test-case/{ii}{jj}/STDIN and STDOUT.
func expectedTestCaseFiles(tasks []model.ProblemTask) (map[string]struct{}, error) {
	if len(tasks) > maxTestCaseIndex {
		return nil, &common.BadTestCaseError{
			Reason: fmt.Sprintf("problem has %d tasks, more than the %d the archive naming supports", len(tasks), maxTestCaseIndex),
		}
	}
	expected := make(map[string]struct{})
	for i, t := range tasks {
		if t.TestCaseCount > maxTestCaseIndex {
			return nil, &common.BadTestCaseError{
				Reason: fmt.Sprintf("task %d has %d test cases, more than the %d the archive naming supports", i, t.TestCaseCount, maxTestCaseIndex),
			}
		}
		for j := 0; j < t.TestCaseCount; j++ {
			expected[fmt.Sprintf("test-case/%02d%02d/STDIN", i, j)] = struct{}{}
			expected[fmt.Sprintf("test-case/%02d%02d/STDOUT", i, j)] = struct{}{}
		}
	}
	return expected, nil
}

// ValidateTestCase checks an uploaded archive against the problem's current
// task list. It never mutates stored state.
func (s *ProblemService) ValidateTestCase(ctx context.Context, problem *model.Problem, archive []byte) error {
	tasks, err := s.problemRepo.TasksByProblemID(ctx, problem.ID)
	if err != nil {
		return err
	}
	expected, err := expectedTestCaseFiles(tasks)
	if err != nil {
		return err
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return &common.BadTestCaseError{Reason: fmt.Sprintf("error reading zip file: %v", err)}
	}

	for _, f := range zr.File {
		if f.Mode()&fs.ModeSymlink != 0 {
			return &common.BadTestCaseError{Reason: "symlink is not allowed: " + f.Name}
		}
		if f.FileInfo().IsDir() {
			continue
		}
		name := f.Name
		if !utf8.ValidString(name) {
			return &common.BadTestCaseError{Reason: "invalid path found in zip file (maybe non-UTF8 path?): " + name}
		}
		if strings.Contains(name, `\`) || !filepath.IsLocal(name) {
			return &common.BadTestCaseError{Reason: "invalid path found in zip file: " + name}
		}
		if _, ok := expected[name]; !ok {
			return &common.BadTestCaseError{Reason: "duplicated or extra file found: " + name}
		}
		delete(expected, name)
	}

	if len(expected) > 0 {
		missing := make([]string, 0, len(expected))
		for name := range expected {
			missing = append(missing, name)
		}
		sort.Strings(missing)
		return &common.BadTestCaseError{Reason: "missing files: " + strings.Join(missing, ",")}
	}
	return nil
}

// UploadTestCase validates the archive, writes it to the artifact store
// under a fresh identifier, and only then points the problem at it. The two
// phases are deliberately non-atomic: a crash in between leaves an orphaned
// blob and an unchanged problem. Previous archives are kept.
func (s *ProblemService) UploadTestCase(ctx context.Context, actor *model.User, problemID int64, archive []byte) (*model.Problem, error) {
	if err := requireRole(actor, model.RoleTeacher, model.RoleAdmin); err != nil {
		return nil, err
	}
	problem, err := s.problemRepo.FindByID(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleAdmin && problem.OwnerID != actor.ID {
		return nil, fmt.Errorf("only the owner may replace test cases: %w", common.ErrForbidden)
	}

	if err := s.ValidateTestCase(ctx, problem, archive); err != nil {
		return nil, err
	}

	archiveID := uuid.NewString()
	if err := s.store.Put(storage.TestCasePath(archiveID), archive); err != nil {
		return nil, fmt.Errorf("failed to store test case archive: %w", err)
	}
	if err := s.problemRepo.UpdateTestCaseID(ctx, problem.ID, archiveID); err != nil {
		return nil, err
	}
	problem.TestCaseID = &archiveID
	slog.Info("test case archive replaced", "problem", problem.ID, "archive", archiveID)
	return problem, nil
}
