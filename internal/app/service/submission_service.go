package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"normal_oj/internal/common"
	"normal_oj/internal/domain/model"
	"normal_oj/internal/domain/repository"
)

// SubmissionService drives the submission state machine: creation in
// Pending, result recording, and code attachment.
type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
}

func NewSubmissionService(submissionRepo repository.SubmissionRepository, problemRepo repository.ProblemRepository) *SubmissionService {
	return &SubmissionService{submissionRepo: submissionRepo, problemRepo: problemRepo}
}

type CreateSubmissionRequest struct {
	ProblemID int64          `json:"problem_id"`
	Language  model.Language `json:"language"`
	Code      string         `json:"code"`
}

// Create records a new submission in the Pending state with zeroed grading
// numbers. The problem must exist and allow the chosen language.
func (s *SubmissionService) Create(ctx context.Context, submitter *model.User, req CreateSubmissionRequest) (*model.Submission, error) {
	problem, err := s.problemRepo.FindByID(ctx, req.ProblemID)
	if err != nil {
		return nil, err
	}
	if !req.Language.Valid() {
		return nil, fmt.Errorf("unknown language %d: %w", int(req.Language), common.ErrBadRequest)
	}
	if !problem.AllowsLanguage(req.Language) {
		return nil, fmt.Errorf("language %s is not allowed for this problem: %w", req.Language, common.ErrBadRequest)
	}

	sub := &model.Submission{
		UserID:    submitter.ID,
		ProblemID: problem.ID,
		Language:  req.Language,
		Timestamp: time.Now(),
		Status:    model.StatusPending,
		Code:      req.Code,
	}
	if err := s.submissionRepo.Create(ctx, nil, sub); err != nil {
		return nil, err
	}
	slog.Info("submission created", "id", sub.ID, "problem", problem.ID, "user", submitter.ID)
	return sub, nil
}

func (s *SubmissionService) Get(ctx context.Context, id int64) (*model.Submission, error) {
	return s.submissionRepo.FindByID(ctx, id)
}

type ListSubmissionsRequest struct {
	ProblemID *int64
	UserID    *int64
	Status    *model.SubmissionStatus
	Language  *model.Language
	Offset    int
	// Count limits the window; negative means no limit.
	Count int
}

func (s *SubmissionService) List(ctx context.Context, req ListSubmissionsRequest) ([]model.Submission, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", string(*req.Status), common.ErrBadRequest)
	}
	if req.Language != nil && !req.Language.Valid() {
		return nil, fmt.Errorf("unknown language %d: %w", int(*req.Language), common.ErrBadRequest)
	}

	subs, err := s.submissionRepo.List(ctx, repository.ListSubmissionsFilter{
		ProblemID: req.ProblemID,
		UserID:    req.UserID,
		Status:    req.Status,
		Language:  req.Language,
	})
	if err != nil {
		return nil, err
	}

	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(subs) {
		return []model.Submission{}, nil
	}
	subs = subs[offset:]
	if req.Count >= 0 && req.Count < len(subs) {
		subs = subs[:req.Count]
	}
	return subs, nil
}

type RecordResultRequest struct {
	Status      model.SubmissionStatus `json:"status"`
	Score       int                    `json:"score"`
	ExecTime    int                    `json:"exec_time"`
	MemoryUsage int                    `json:"memory_usage"`
}

// RecordResult writes a grading outcome onto a submission. The status moves
// together with the numbers in one update.
func (s *SubmissionService) RecordResult(ctx context.Context, id int64, req RecordResultRequest) (*model.Submission, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", string(req.Status), common.ErrBadRequest)
	}
	if err := s.submissionRepo.UpdateResult(ctx, id, req.Status, req.Score, req.ExecTime, req.MemoryUsage); err != nil {
		return nil, err
	}
	slog.Info("submission result recorded", "id", id, "status", req.Status)
	return s.submissionRepo.FindByID(ctx, id)
}

// UpdateCode attaches source code to an existing submission.
func (s *SubmissionService) UpdateCode(ctx context.Context, id int64, code string) (*model.Submission, error) {
	if err := s.submissionRepo.UpdateCode(ctx, id, code); err != nil {
		return nil, err
	}
	return s.submissionRepo.FindByID(ctx, id)
}
