package model

import (
	"fmt"
	"time"
)

// SubmissionStatus is the submission state machine. Pending is the only
// initial state; every other status is reached exclusively through a grader
// result report, and nothing transitions back to Pending.
type SubmissionStatus string

const (
	StatusPending             SubmissionStatus = "Pending"
	StatusAccepted            SubmissionStatus = "Accepted"
	StatusWrongAnswer         SubmissionStatus = "WrongAnswer"
	StatusCompileError        SubmissionStatus = "CompileError"
	StatusTimeLimitExceeded   SubmissionStatus = "TimeLimitExceeded"
	StatusMemoryLimitExceeded SubmissionStatus = "MemoryLimitExceeded"
	StatusRuntimeError        SubmissionStatus = "RuntimeError"
	StatusJudgeError          SubmissionStatus = "JudgeError"
	StatusOutputLimitExceeded SubmissionStatus = "OutputLimitExceeded"
)

// submissionStatuses fixes the wire encoding: the index is the integer code.
var submissionStatuses = []SubmissionStatus{
	StatusPending,
	StatusAccepted,
	StatusWrongAnswer,
	StatusCompileError,
	StatusTimeLimitExceeded,
	StatusMemoryLimitExceeded,
	StatusRuntimeError,
	StatusJudgeError,
	StatusOutputLimitExceeded,
}

func SubmissionStatusFromInt(i int) (SubmissionStatus, error) {
	if i < 0 || i >= len(submissionStatuses) {
		return "", fmt.Errorf("invalid submission status: %d", i)
	}
	return submissionStatuses[i], nil
}

func (s SubmissionStatus) Int() (int, bool) {
	for i, st := range submissionStatuses {
		if st == s {
			return i, true
		}
	}
	return 0, false
}

func (s SubmissionStatus) Valid() bool {
	_, ok := s.Int()
	return ok
}

type Submission struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"user_id"`
	ProblemID   int64            `json:"problem_id"`
	Language    Language         `json:"language"`
	Timestamp   time.Time        `json:"timestamp"`
	Status      SubmissionStatus `json:"status"`
	Score       int              `json:"score"`
	ExecTime    int              `json:"exec_time"`
	MemoryUsage int              `json:"memory_usage"`
	Code        string           `json:"code,omitempty"`
	LastSend    time.Time        `json:"last_send"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
