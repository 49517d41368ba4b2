package service

import (
	"context"
	"errors"
	"testing"

	"normal_oj/internal/common"
	"normal_oj/internal/domain/model"
)

func newSubmissionHarness(t *testing.T) (*SubmissionService, *model.Problem) {
	t.Helper()
	problemRepo := newFakeProblemRepo()
	problemSvc := NewProblemService(problemRepo, nil, passthroughTx)
	p := createProblem(t, problemSvc, teacherUser(), CreateProblemRequest{Name: "sum"})
	return NewSubmissionService(newFakeSubmissionRepo(), problemRepo), p
}

func TestCreateSubmissionStartsPending(t *testing.T) {
	svc, p := newSubmissionHarness(t)

	sub, err := svc.Create(context.Background(), studentUser(), CreateSubmissionRequest{
		ProblemID: p.ID,
		Language:  model.LanguagePython,
		Code:      "print(sum(map(int, input().split())))",
	})
	if err != nil {
		t.Fatalf("Create = %v", err)
	}
	if sub.Status != model.StatusPending {
		t.Errorf("status = %v, want Pending", sub.Status)
	}
	if sub.Score != 0 || sub.ExecTime != 0 || sub.MemoryUsage != 0 {
		t.Errorf("grading numbers = %d/%d/%d, want zeros", sub.Score, sub.ExecTime, sub.MemoryUsage)
	}
	if sub.ID == 0 || sub.LastSend.IsZero() {
		t.Errorf("submission not persisted: %+v", sub)
	}
}

func TestCreateSubmissionRejectsBadInput(t *testing.T) {
	svc, p := newSubmissionHarness(t)

	_, err := svc.Create(context.Background(), studentUser(), CreateSubmissionRequest{
		ProblemID: 9999,
		Language:  model.LanguageC,
	})
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("unknown problem = %v, want ErrNotFound", err)
	}

	_, err = svc.Create(context.Background(), studentUser(), CreateSubmissionRequest{
		ProblemID: p.ID,
		Language:  model.Language(42),
	})
	if !errors.Is(err, common.ErrBadRequest) {
		t.Errorf("unknown language = %v, want ErrBadRequest", err)
	}
}

func TestCreateSubmissionHonorsLanguageMask(t *testing.T) {
	problemRepo := newFakeProblemRepo()
	problemSvc := NewProblemService(problemRepo, nil, passthroughTx)
	cOnly := model.LanguageC.Bit()
	p := createProblem(t, problemSvc, teacherUser(), CreateProblemRequest{
		Name:            "c-only",
		AllowedLanguage: &cOnly,
	})
	svc := NewSubmissionService(newFakeSubmissionRepo(), problemRepo)

	if _, err := svc.Create(context.Background(), studentUser(), CreateSubmissionRequest{
		ProblemID: p.ID, Language: model.LanguageC,
	}); err != nil {
		t.Fatalf("allowed language = %v", err)
	}
	_, err := svc.Create(context.Background(), studentUser(), CreateSubmissionRequest{
		ProblemID: p.ID, Language: model.LanguagePython,
	})
	if !errors.Is(err, common.ErrBadRequest) {
		t.Fatalf("disallowed language = %v, want ErrBadRequest", err)
	}
}

func TestRecordResult(t *testing.T) {
	svc, p := newSubmissionHarness(t)
	sub, err := svc.Create(context.Background(), studentUser(), CreateSubmissionRequest{
		ProblemID: p.ID, Language: model.LanguageCpp,
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.RecordResult(context.Background(), sub.ID, RecordResultRequest{
		Status:      model.StatusAccepted,
		Score:       87,
		ExecTime:    120,
		MemoryUsage: 2048,
	})
	if err != nil {
		t.Fatalf("RecordResult = %v", err)
	}
	if updated.Status != model.StatusAccepted || updated.Score != 87 ||
		updated.ExecTime != 120 || updated.MemoryUsage != 2048 {
		t.Fatalf("result not reflected: %+v", updated)
	}

	_, err = svc.RecordResult(context.Background(), sub.ID, RecordResultRequest{Status: "Unheard-of"})
	if !errors.Is(err, common.ErrBadRequest) {
		t.Fatalf("invalid status = %v, want ErrBadRequest", err)
	}
	_, err = svc.RecordResult(context.Background(), 9999, RecordResultRequest{Status: model.StatusWrongAnswer})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("unknown submission = %v, want ErrNotFound", err)
	}
}

func TestListSubmissionsFiltersAndWindows(t *testing.T) {
	svc, p := newSubmissionHarness(t)
	student := studentUser()
	langs := []model.Language{model.LanguageC, model.LanguageCpp, model.LanguagePython}
	ids := make([]int64, 0, len(langs))
	for _, lang := range langs {
		sub, err := svc.Create(context.Background(), student, CreateSubmissionRequest{ProblemID: p.ID, Language: lang})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, sub.ID)
	}
	if _, err := svc.RecordResult(context.Background(), ids[0], RecordResultRequest{
		Status: model.StatusAccepted, Score: 100,
	}); err != nil {
		t.Fatal(err)
	}

	all, err := svc.List(context.Background(), ListSubmissionsRequest{Count: -1})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("all = %d, want 3", len(all))
	}

	accepted := model.StatusAccepted
	done, err := svc.List(context.Background(), ListSubmissionsRequest{Status: &accepted, Count: -1})
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != 1 || done[0].ID != ids[0] {
		t.Fatalf("accepted = %+v, want submission %d", done, ids[0])
	}

	cpp := model.LanguageCpp
	byLang, err := svc.List(context.Background(), ListSubmissionsRequest{Language: &cpp, Count: -1})
	if err != nil {
		t.Fatal(err)
	}
	if len(byLang) != 1 || byLang[0].ID != ids[1] {
		t.Fatalf("cpp = %+v, want submission %d", byLang, ids[1])
	}

	window, err := svc.List(context.Background(), ListSubmissionsRequest{Offset: 1, Count: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(window) != 1 || window[0].ID != ids[1] {
		t.Fatalf("window = %+v, want submission %d", window, ids[1])
	}

	bogus := model.SubmissionStatus("Bogus")
	if _, err := svc.List(context.Background(), ListSubmissionsRequest{Status: &bogus}); !errors.Is(err, common.ErrBadRequest) {
		t.Fatalf("bogus status filter = %v, want ErrBadRequest", err)
	}
}

func TestUpdateCode(t *testing.T) {
	svc, p := newSubmissionHarness(t)
	sub, err := svc.Create(context.Background(), studentUser(), CreateSubmissionRequest{
		ProblemID: p.ID, Language: model.LanguageC,
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.UpdateCode(context.Background(), sub.ID, "int main() { return 0; }")
	if err != nil {
		t.Fatalf("UpdateCode = %v", err)
	}
	if updated.Code != "int main() { return 0; }" {
		t.Fatalf("code = %q", updated.Code)
	}
}
