package model

import "time"

// Course is a reference entity owned by a teacher.
type Course struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	TeacherID int64     `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
