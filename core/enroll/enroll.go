// Package enroll owns entitlement grants: the durable records marking a
// user's permanent access to a course. Granting is idempotent and always
// paired with cart cleanup in the same unit of work.
package enroll

import "time"

type Enrollment struct {
	UserID    string    `json:"userId" db:"user_id"`
	CourseID  string    `json:"courseId" db:"course_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
