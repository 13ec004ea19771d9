package course

import "time"

type Course struct {
	ID           string    `json:"id" db:"course_id"`
	Slug         string    `json:"slug" db:"slug"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	Price        int       `json:"price" db:"price"`
	Launched     bool      `json:"launched" db:"launched"`
	ThumbnailURL string    `json:"thumbnailUrl" db:"thumbnail_url"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type CourseNew struct {
	Slug         string `json:"slug" validate:"required,slug"`
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description" validate:"required"`
	Price        *int   `json:"price" validate:"required,gte=0"`
	Launched     bool   `json:"launched"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"omitempty,url"`
}

// Summary is the narrow course shape embedded in cart, payment and
// video responses.
type Summary struct {
	ID           string `json:"id" db:"course_id"`
	Slug         string `json:"slug" db:"slug"`
	Title        string `json:"title" db:"title"`
	Price        int    `json:"price" db:"price"`
	ThumbnailURL string `json:"thumbnailUrl" db:"thumbnail_url"`
}

func (c Course) Summary() Summary {
	return Summary{
		ID:           c.ID,
		Slug:         c.Slug,
		Title:        c.Title,
		Price:        c.Price,
		ThumbnailURL: c.ThumbnailURL,
	}
}
