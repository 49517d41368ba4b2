package service

import (
	"context"
	"errors"
	"testing"

	"normal_oj/internal/common"
	"normal_oj/internal/domain/model"
)

func adminUser() *model.User {
	return &model.User{ID: 99, Pid: "admin-pid", Username: "root", Role: model.RoleAdmin}
}

func studentUser() *model.User {
	return &model.User{ID: 100, Pid: "student-pid", Username: "stu", Role: model.RoleStudent}
}

func TestParseBatchSignup(t *testing.T) {
	items, err := ParseBatchSignup("username,email,password,displayed_name,role\n" +
		"alice,alice@example.com,alicepass1,Alice A,1\n" +
		"bob,bob@example.com,bobpass123,,\n")
	if err != nil {
		t.Fatalf("ParseBatchSignup = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Username != "alice" || items[0].DisplayedName == nil || *items[0].DisplayedName != "Alice A" {
		t.Errorf("row 0 parsed wrong: %+v", items[0])
	}
	if items[0].Role == nil || *items[0].Role != model.RoleTeacher {
		t.Errorf("row 0 role = %v, want teacher", items[0].Role)
	}
	if items[1].DisplayedName != nil || items[1].Role != nil {
		t.Errorf("row 1 optional fields should be empty: %+v", items[1])
	}
}

func TestParseBatchSignupShortHeader(t *testing.T) {
	items, err := ParseBatchSignup("username,email,password\ncarol,carol@example.com,carolpass1\n")
	if err != nil {
		t.Fatalf("ParseBatchSignup = %v", err)
	}
	if len(items) != 1 || items[0].Username != "carol" {
		t.Fatalf("items = %+v", items)
	}
}

func TestParseBatchSignupRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"wrong column order": "email,username,password\na@example.com,a,apass12345\n",
		"invalid role":       "username,email,password,displayed_name,role\nd,d@example.com,dpass12345,,9\n",
		"non-numeric role":   "username,email,password,displayed_name,role\ne,e@example.com,epass12345,,admin\n",
		"too many columns":   "username,email,password,displayed_name,role,extra\nf,f@example.com,fpass12345,,0,x\n",
	}
	for name, data := range cases {
		if _, err := ParseBatchSignup(data); !errors.Is(err, common.ErrBadRequest) {
			t.Errorf("%s: ParseBatchSignup = %v, want ErrBadRequest", name, err)
		}
	}
}

func TestBatchSignupCreatesVerifiedUsers(t *testing.T) {
	userRepo := newFakeUserRepo()
	courseRepo := newFakeCourseRepo()
	svc := NewUserService(userRepo, courseRepo, passthroughTx)

	name := "Alice A"
	role := model.RoleTeacher
	users, err := svc.BatchSignup(context.Background(), adminUser(), []BatchSignupItem{
		{Username: "alice", Email: "alice@example.com", Password: "alicepass1", DisplayedName: &name, Role: &role},
		{Username: "bob", Email: "bob@example.com", Password: "bobpass123"},
	}, nil)
	if err != nil {
		t.Fatalf("BatchSignup = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}
	if !users[0].Verified() || !users[1].Verified() {
		t.Fatal("batch-created users must be verified")
	}
	if users[0].Role != model.RoleTeacher || users[1].Role != model.RoleStudent {
		t.Fatalf("roles = %v, %v", users[0].Role, users[1].Role)
	}
	if users[0].DisplayedName == nil || *users[0].DisplayedName != "Alice A" {
		t.Fatalf("displayed name = %v", users[0].DisplayedName)
	}
}

func TestBatchSignupReusesExistingAccounts(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewUserService(userRepo, newFakeCourseRepo(), passthroughTx)

	first, err := svc.BatchSignup(context.Background(), adminUser(), []BatchSignupItem{
		{Username: "carol", Email: "carol@example.com", Password: "carolpass1"},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.BatchSignup(context.Background(), adminUser(), []BatchSignupItem{
		{Username: "carol", Email: "other@example.com", Password: "otherpass1"},
		{Username: "someone", Email: "carol@example.com", Password: "somepass12"},
	}, nil)
	if err != nil {
		t.Fatalf("BatchSignup with existing rows = %v", err)
	}
	if second[0].ID != first[0].ID || second[1].ID != first[0].ID {
		t.Fatalf("existing account not reused: %v, %v, want id %d", second[0].ID, second[1].ID, first[0].ID)
	}
}

func TestBatchSignupUnknownCourseAborts(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), newFakeCourseRepo(), passthroughTx)

	course := "algorithms-101"
	_, err := svc.BatchSignup(context.Background(), adminUser(), []BatchSignupItem{
		{Username: "dave", Email: "dave@example.com", Password: "davepass12"},
	}, &course)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("BatchSignup with unknown course = %v, want ErrNotFound", err)
	}
}

func TestBatchSignupRequiresAdmin(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), newFakeCourseRepo(), passthroughTx)

	_, err := svc.BatchSignup(context.Background(), studentUser(), nil, nil)
	if !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("BatchSignup as student = %v, want ErrForbidden", err)
	}
}

func TestAdminCreateIsVerifiedAndDisclosesConflicts(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewUserService(userRepo, newFakeCourseRepo(), passthroughTx)

	user, err := svc.Create(context.Background(), adminUser(), RegisterRequest{
		Username: "erin",
		Email:    "erin@example.com",
		Password: "erinpass12",
	})
	if err != nil {
		t.Fatalf("Create = %v", err)
	}
	if !user.Verified() {
		t.Fatal("admin-created user must be verified")
	}

	// unlike self-registration, the conflict is reported
	_, err = svc.Create(context.Background(), adminUser(), RegisterRequest{
		Username: "erin",
		Email:    "erin@example.com",
		Password: "erinpass12",
	})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("duplicate Create = %v, want ErrConflict", err)
	}

	if _, err := svc.Create(context.Background(), studentUser(), RegisterRequest{
		Username: "frank",
		Email:    "frank@example.com",
		Password: "frankpass1",
	}); !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("Create as student = %v, want ErrForbidden", err)
	}
}

func TestEditUpdatesNameAndPassword(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewUserService(userRepo, newFakeCourseRepo(), passthroughTx)

	user, err := svc.Create(context.Background(), adminUser(), RegisterRequest{
		Username: "grace",
		Email:    "grace@example.com",
		Password: "gracepass1",
	})
	if err != nil {
		t.Fatal(err)
	}

	name := "Grace H"
	pw := "newgracepw1"
	edited, err := svc.Edit(context.Background(), adminUser(), user.ID, EditUserRequest{
		DisplayedName: &name,
		Password:      &pw,
	})
	if err != nil {
		t.Fatalf("Edit = %v", err)
	}
	if edited.DisplayedName == nil || *edited.DisplayedName != "Grace H" {
		t.Fatalf("displayed name = %v", edited.DisplayedName)
	}
	if edited.HashedPassword == "" || edited.HashedPassword == user.HashedPassword {
		t.Fatal("password hash not updated")
	}
}
