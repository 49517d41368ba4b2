package model

import "testing"

func TestRoleFromInt(t *testing.T) {
	cases := []struct {
		in   int
		want Role
		ok   bool
	}{
		{0, RoleAdmin, true},
		{1, RoleTeacher, true},
		{2, RoleStudent, true},
		{3, 0, false},
		{-1, 0, false},
	}
	for _, c := range cases {
		got, err := RoleFromInt(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("RoleFromInt(%d) = %v, %v; want %v", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Errorf("RoleFromInt(%d) succeeded, want error", c.in)
		}
	}
}

func TestLanguageBitmask(t *testing.T) {
	p := Problem{AllowedLanguage: AllLanguages}
	for _, l := range []Language{LanguageC, LanguageCpp, LanguagePython} {
		if !p.AllowsLanguage(l) {
			t.Errorf("AllLanguages should allow %v", l)
		}
	}

	p.AllowedLanguage = LanguageC.Bit() | LanguagePython.Bit()
	if p.AllowsLanguage(LanguageCpp) {
		t.Error("mask without cpp bit should not allow cpp")
	}
	if !p.AllowsLanguage(LanguagePython) {
		t.Error("mask with python bit should allow python")
	}

	if _, err := LanguageFromInt(3); err == nil {
		t.Error("LanguageFromInt(3) should fail")
	}
}

func TestSubmissionStatusCodec(t *testing.T) {
	for i, want := range []SubmissionStatus{
		StatusPending, StatusAccepted, StatusWrongAnswer, StatusCompileError,
		StatusTimeLimitExceeded, StatusMemoryLimitExceeded, StatusRuntimeError,
		StatusJudgeError, StatusOutputLimitExceeded,
	} {
		got, err := SubmissionStatusFromInt(i)
		if err != nil || got != want {
			t.Errorf("SubmissionStatusFromInt(%d) = %v, %v; want %v", i, got, err, want)
		}
		back, ok := got.Int()
		if !ok || back != i {
			t.Errorf("%v.Int() = %d, %v; want %d", got, back, ok, i)
		}
	}
	if _, err := SubmissionStatusFromInt(9); err == nil {
		t.Error("SubmissionStatusFromInt(9) should fail")
	}
	if SubmissionStatus("InQueue").Valid() {
		t.Error("unknown status should not be valid")
	}
}

func TestVisibilityAndTypeFromInt(t *testing.T) {
	if v, err := VisibilityFromInt(1); err != nil || v != VisibilityHidden {
		t.Errorf("VisibilityFromInt(1) = %v, %v", v, err)
	}
	if _, err := VisibilityFromInt(2); err == nil {
		t.Error("VisibilityFromInt(2) should fail")
	}
	if ty, err := ProblemTypeFromInt(2); err != nil || ty != ProblemTypeHandwritten {
		t.Errorf("ProblemTypeFromInt(2) = %v, %v", ty, err)
	}
	if _, err := ProblemTypeFromInt(5); err == nil {
		t.Error("ProblemTypeFromInt(5) should fail")
	}
}
