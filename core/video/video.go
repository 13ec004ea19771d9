package video

import "time"

type Video struct {
	ID           string    `json:"id" db:"video_id"`
	CourseID     string    `json:"courseId" db:"course_id"`
	Index        int       `json:"index" db:"index"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	URL          string    `json:"url" db:"url"`
	ThumbnailURL string    `json:"thumbnailUrl" db:"thumbnail_url"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type VideoNew struct {
	CourseID     string `json:"courseId" validate:"required,uuid4"`
	Index        int    `json:"index" validate:"gte=0"`
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description" validate:"required"`
	URL          string `json:"url" validate:"required,url"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"omitempty,url"`
}
