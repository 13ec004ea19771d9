package cart

import "time"

// Item is a pending course selection: an intent to purchase, not an
// entitlement. The (user_id, course_id) uniqueness constraint is the
// backstop against duplicate rows; the surrogate id lets removals target
// exactly one row.
type Item struct {
	ID        string    `json:"-" db:"item_id"`
	UserID    string    `json:"-" db:"user_id"`
	CourseID  string    `json:"courseId" db:"course_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
