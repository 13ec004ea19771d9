package video

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coursemart/coursemart/api/web"
	"github.com/coursemart/coursemart/api/weberr"
	"github.com/coursemart/coursemart/core/claims"
	"github.com/coursemart/coursemart/core/course"
	"github.com/coursemart/coursemart/core/enroll"
	"github.com/coursemart/coursemart/database"
	"github.com/coursemart/coursemart/validate"
	"github.com/jmoiron/sqlx"
)

// guard resolves the course by slug and checks the caller's entitlement.
// It runs on every request: entitlements can be granted mid-session, so
// authorization decisions are never cached.
func guard(ctx context.Context, db *sqlx.DB, userID string, slug string) (course.Course, error) {
	c, err := course.FetchBySlug(ctx, db, slug)
	if err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return course.Course{}, weberr.NotFound(err, "course not found")
		}
		return course.Course{}, fmt.Errorf("fetching course by slug[%s]: %w", slug, err)
	}

	granted, err := enroll.Granted(ctx, db, userID, c.ID)
	if err != nil {
		return course.Course{}, fmt.Errorf("checking entitlement: %w", err)
	}
	if !granted {
		err := errors.New("user does not own the course")
		return course.Course{}, weberr.Forbidden(err, "you must purchase this course to access its content")
	}

	return c, nil
}

// HandleListByCourse serves the full ordered video list of a purchased
// course.
func HandleListByCourse(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		c, err := guard(ctx, db, clm.UserID, web.Param(r, "slug"))
		if err != nil {
			return err
		}

		videos, err := FetchByCourse(ctx, db, c.ID)
		if err != nil {
			return fmt.Errorf("fetching videos: %w", err)
		}

		data := struct {
			Course course.Course `json:"course"`
			Videos []Video       `json:"videos"`
		}{Course: c, Videos: videos}

		return web.Respond(ctx, w, "videos fetched successfully", data, http.StatusOK)
	}
}

// HandleShow serves a single video, checking both the entitlement and
// that the video actually belongs to the course named in the path.
func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		videoID := web.Param(r, "video_id")
		if err := validate.CheckID(videoID); err != nil {
			return weberr.NotFound(err, "video not found")
		}

		c, err := guard(ctx, db, clm.UserID, web.Param(r, "slug"))
		if err != nil {
			return err
		}

		v, err := Fetch(ctx, db, videoID)
		if err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err, "video not found")
			}
			return fmt.Errorf("fetching video[%s]: %w", videoID, err)
		}

		if v.CourseID != c.ID {
			err := errors.New("video does not belong to the course")
			return weberr.NotFound(err, "video not found")
		}

		data := struct {
			Video  Video          `json:"video"`
			Course course.Summary `json:"course"`
		}{Video: v, Course: c.Summary()}

		return web.Respond(ctx, w, "video fetched successfully", data, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var vn VideoNew
		if err := web.Decode(w, r, &vn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding video body: %w", err), "courseId, title, description and url are required")
		}

		if err := validate.Check(vn); err != nil {
			return weberr.BadRequest(err, err.Error())
		}

		if _, err := course.Fetch(ctx, db, vn.CourseID); err != nil {
			if errors.Is(err, database.ErrDBNotFound) {
				return weberr.NotFound(err, "course not found")
			}
			return fmt.Errorf("fetching course[%s]: %w", vn.CourseID, err)
		}

		now := time.Now().UTC()
		v := Video{
			ID:           validate.GenerateID(),
			CourseID:     vn.CourseID,
			Index:        vn.Index,
			Title:        vn.Title,
			Description:  vn.Description,
			URL:          vn.URL,
			ThumbnailURL: vn.ThumbnailURL,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := Create(ctx, db, v); err != nil {
			if database.IsUniqueViolation(err) {
				return weberr.Conflict(err, "a video already exists at this index")
			}
			return fmt.Errorf("creating video: %w", err)
		}

		data := struct {
			ID string `json:"id"`
		}{ID: v.ID}

		return web.Respond(ctx, w, "video created successfully", data, http.StatusOK)
	}
}
