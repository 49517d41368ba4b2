package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"normal_oj/internal/common"
	"normal_oj/internal/domain/model"
	"normal_oj/internal/domain/repository"
)

// passthroughTx satisfies TxFunc without a database; the fakes below ignore
// the transaction handle entirely.
func passthroughTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  []*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1}
}

func (r *fakeUserRepo) Create(ctx context.Context, tx *sql.Tx, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
		}
	}
	user.ID = r.nextID
	r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	r.users = append(r.users, &clone)
	return nil
}

func (r *fakeUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) FindByPid(ctx context.Context, pid string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Pid == pid })
}

func (r *fakeUserRepo) FindByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.APIKey == apiKey })
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, tx *sql.Tx, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, tx *sql.Tx, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func (r *fakeUserRepo) FindByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	return r.find(func(u *model.User) bool {
		return u.EmailVerificationToken != nil && *u.EmailVerificationToken == token
	})
}

func (r *fakeUserRepo) FindByResetToken(ctx context.Context, token string) (*model.User, error) {
	return r.find(func(u *model.User) bool {
		return u.ResetToken != nil && *u.ResetToken == token
	})
}

func (r *fakeUserRepo) update(user *model.User, apply func(*model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == user.ID {
			apply(u)
			u.UpdatedAt = time.Now()
			*user = *u
			return nil
		}
	}
	return common.ErrNotFound
}

func (r *fakeUserRepo) SetEmailVerification(ctx context.Context, user *model.User, token string, sentAt time.Time) error {
	return r.update(user, func(u *model.User) {
		u.EmailVerificationToken = &token
		u.EmailVerificationSentAt = &sentAt
	})
}

func (r *fakeUserRepo) SetResetToken(ctx context.Context, user *model.User, token string, sentAt time.Time) error {
	return r.update(user, func(u *model.User) {
		u.ResetToken = &token
		u.ResetSentAt = &sentAt
	})
}

func (r *fakeUserRepo) MarkVerified(ctx context.Context, tx *sql.Tx, user *model.User, at time.Time) error {
	return r.update(user, func(u *model.User) {
		u.EmailVerifiedAt = &at
	})
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, user *model.User, hashedPassword string) error {
	return r.update(user, func(u *model.User) {
		u.HashedPassword = hashedPassword
		u.ResetToken = nil
		u.ResetSentAt = nil
	})
}

func (r *fakeUserRepo) UpdateDisplayedName(ctx context.Context, tx *sql.Tx, user *model.User, displayedName *string) error {
	return r.update(user, func(u *model.User) {
		u.DisplayedName = displayedName
	})
}

type fakeCourseRepo struct {
	nextID  int64
	courses []*model.Course
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{nextID: 1}
}

func (r *fakeCourseRepo) Create(ctx context.Context, tx *sql.Tx, course *model.Course) error {
	for _, c := range r.courses {
		if c.Name == course.Name {
			return fmt.Errorf("course with this name already exists: %w", common.ErrConflict)
		}
	}
	course.ID = r.nextID
	r.nextID++
	clone := *course
	r.courses = append(r.courses, &clone)
	return nil
}

func (r *fakeCourseRepo) FindByName(ctx context.Context, name string) (*model.Course, error) {
	for _, c := range r.courses {
		if c.Name == name {
			clone := *c
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeCourseRepo) FindByID(ctx context.Context, id int64) (*model.Course, error) {
	for _, c := range r.courses {
		if c.ID == id {
			clone := *c
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeCourseRepo) List(ctx context.Context) ([]model.Course, error) {
	out := make([]model.Course, 0, len(r.courses))
	for _, c := range r.courses {
		out = append(out, *c)
	}
	return out, nil
}

type fakeProblemRepo struct {
	nextProblemID int64
	nextDescID    int64
	nextTaskID    int64
	problems      []*model.Problem
	descs         map[int64]*model.ProblemDescription
	tasks         map[int64][]model.ProblemTask
}

func newFakeProblemRepo() *fakeProblemRepo {
	return &fakeProblemRepo{
		nextProblemID: 1,
		nextDescID:    1,
		nextTaskID:    1,
		descs:         map[int64]*model.ProblemDescription{},
		tasks:         map[int64][]model.ProblemTask{},
	}
}

func (r *fakeProblemRepo) CreateDescription(ctx context.Context, tx *sql.Tx, desc *model.ProblemDescription) error {
	desc.ID = r.nextDescID
	r.nextDescID++
	clone := *desc
	r.descs[desc.ID] = &clone
	return nil
}

func (r *fakeProblemRepo) CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error {
	for _, p := range r.problems {
		if p.Name == problem.Name {
			return fmt.Errorf("problem with this name already exists: %w", common.ErrConflict)
		}
	}
	problem.ID = r.nextProblemID
	r.nextProblemID++
	now := time.Now()
	problem.CreatedAt = now
	problem.UpdatedAt = now
	clone := *problem
	clone.Description = nil
	clone.Tasks = nil
	r.problems = append(r.problems, &clone)
	return nil
}

func (r *fakeProblemRepo) CreateTasks(ctx context.Context, tx *sql.Tx, problemID int64, tasks []model.ProblemTask) ([]model.ProblemTask, error) {
	created := make([]model.ProblemTask, 0, len(tasks))
	for _, t := range tasks {
		t.ID = r.nextTaskID
		r.nextTaskID++
		t.ProblemID = problemID
		created = append(created, t)
	}
	r.tasks[problemID] = append(r.tasks[problemID], created...)
	return created, nil
}

func (r *fakeProblemRepo) FindByID(ctx context.Context, id int64) (*model.Problem, error) {
	for _, p := range r.problems {
		if p.ID == id {
			clone := *p
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeProblemRepo) FindByName(ctx context.Context, name string) (*model.Problem, error) {
	for _, p := range r.problems {
		if p.Name == name {
			clone := *p
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeProblemRepo) List(ctx context.Context, filter repository.ListProblemsFilter) ([]model.Problem, error) {
	out := []model.Problem{}
	for _, p := range r.problems {
		if filter.Name != nil && p.Name != *filter.Name {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeProblemRepo) TasksByProblemID(ctx context.Context, problemID int64) ([]model.ProblemTask, error) {
	return append([]model.ProblemTask{}, r.tasks[problemID]...), nil
}

func (r *fakeProblemRepo) DescriptionByID(ctx context.Context, id int64) (*model.ProblemDescription, error) {
	desc, ok := r.descs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *desc
	return &clone, nil
}

func (r *fakeProblemRepo) UpdateTestCaseID(ctx context.Context, problemID int64, testCaseID string) error {
	for _, p := range r.problems {
		if p.ID == problemID {
			id := testCaseID
			p.TestCaseID = &id
			return nil
		}
	}
	return common.ErrNotFound
}

type fakeSubmissionRepo struct {
	nextID int64
	subs   []*model.Submission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{nextID: 1}
}

func (r *fakeSubmissionRepo) Create(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	sub.ID = r.nextID
	r.nextID++
	now := time.Now()
	sub.LastSend = now
	sub.CreatedAt = now
	sub.UpdatedAt = now
	clone := *sub
	r.subs = append(r.subs, &clone)
	return nil
}

func (r *fakeSubmissionRepo) FindByID(ctx context.Context, id int64) (*model.Submission, error) {
	for _, s := range r.subs {
		if s.ID == id {
			clone := *s
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeSubmissionRepo) List(ctx context.Context, filter repository.ListSubmissionsFilter) ([]model.Submission, error) {
	out := []model.Submission{}
	for _, s := range r.subs {
		if filter.ProblemID != nil && s.ProblemID != *filter.ProblemID {
			continue
		}
		if filter.UserID != nil && s.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && s.Status != *filter.Status {
			continue
		}
		if filter.Language != nil && s.Language != *filter.Language {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeSubmissionRepo) UpdateResult(ctx context.Context, id int64, status model.SubmissionStatus, score, execTime, memoryUsage int) error {
	for _, s := range r.subs {
		if s.ID == id {
			s.Status = status
			s.Score = score
			s.ExecTime = execTime
			s.MemoryUsage = memoryUsage
			s.UpdatedAt = time.Now()
			return nil
		}
	}
	return common.ErrNotFound
}

func (r *fakeSubmissionRepo) UpdateCode(ctx context.Context, id int64, code string) error {
	for _, s := range r.subs {
		if s.ID == id {
			s.Code = code
			s.UpdatedAt = time.Now()
			return nil
		}
	}
	return common.ErrNotFound
}

type fakeMailer struct {
	welcomes []string
	forgots  []string
	fail     bool
}

func (m *fakeMailer) SendWelcome(ctx context.Context, user *model.User) error {
	if m.fail {
		return errors.New("mail queue unavailable")
	}
	m.welcomes = append(m.welcomes, user.Email)
	return nil
}

func (m *fakeMailer) SendForgotPassword(ctx context.Context, user *model.User) error {
	if m.fail {
		return errors.New("mail queue unavailable")
	}
	m.forgots = append(m.forgots, user.Email)
	return nil
}
