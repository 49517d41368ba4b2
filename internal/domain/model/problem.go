package model

import (
	"fmt"
	"time"
)

type Visibility int

const (
	VisibilityShow   Visibility = 0
	VisibilityHidden Visibility = 1
)

func VisibilityFromInt(i int) (Visibility, error) {
	switch v := Visibility(i); v {
	case VisibilityShow, VisibilityHidden:
		return v, nil
	default:
		return 0, fmt.Errorf("invalid visibility: %d", i)
	}
}

func (v Visibility) Valid() bool {
	return v == VisibilityShow || v == VisibilityHidden
}

type ProblemType int

const (
	ProblemTypeNormal         ProblemType = 0
	ProblemTypeFillInTemplate ProblemType = 1
	ProblemTypeHandwritten    ProblemType = 2
)

func ProblemTypeFromInt(i int) (ProblemType, error) {
	switch t := ProblemType(i); t {
	case ProblemTypeNormal, ProblemTypeFillInTemplate, ProblemTypeHandwritten:
		return t, nil
	default:
		return 0, fmt.Errorf("invalid problem type: %d", i)
	}
}

func (t ProblemType) Valid() bool {
	return t >= ProblemTypeNormal && t <= ProblemTypeHandwritten
}

// UnlimitedQuota is the sentinel for problems without a submission quota.
const UnlimitedQuota = -1

type Problem struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name"`
	OwnerID         int64       `json:"owner_id"`
	Type            ProblemType `json:"type"`
	Status          Visibility  `json:"status"`
	DescriptionID   int64       `json:"description_id"`
	AllowedLanguage int         `json:"allowed_language"`
	Quota           int         `json:"quota"`
	TestCaseID      *string     `json:"-"` // archive identifier in the artifact store
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	Description *ProblemDescription `json:"description,omitempty"`
	Tasks       []ProblemTask       `json:"tasks,omitempty"`
}

// AllowsLanguage reports whether the problem's bitmask permits l.
func (p *Problem) AllowsLanguage(l Language) bool {
	return p.AllowedLanguage&l.Bit() != 0
}

type ProblemDescription struct {
	ID           int64    `json:"id"`
	Description  string   `json:"description"`
	Input        string   `json:"input"`
	Output       string   `json:"output"`
	Hint         string   `json:"hint"`
	SampleInput  []string `json:"sample_input"`
	SampleOutput []string `json:"sample_output"`
}

// ProblemTask is one scored group of test cases. Task order (by id) drives
// the expected file naming inside the test-case archive.
type ProblemTask struct {
	ID            int64 `json:"id"`
	ProblemID     int64 `json:"problem_id"`
	TestCaseCount int   `json:"test_case_count"`
	Score         int   `json:"score"`
	TimeLimit     int   `json:"time_limit"`
	MemoryLimit   int   `json:"memory_limit"`
}
