package test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/coursemart/coursemart/core/course"
	"github.com/coursemart/coursemart/core/video"
	"github.com/google/go-cmp/cmp"
)

func TestVideoAccessGuard(t *testing.T) {
	env, err := NewTestEnv(t, "video_access_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &courseTest{env}

	c := ct.createCourseOK(t, 100)
	other := ct.createCourseOK(t, 50)

	// Created out of order on purpose: the list must come back sorted
	// by index.
	v2 := ct.createVideoOK(t, c.ID, 2)
	v0 := ct.createVideoOK(t, c.ID, 0)
	v1 := ct.createVideoOK(t, c.ID, 1)
	foreign := ct.createVideoOK(t, other.ID, 0)

	if err := env.Login(env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}
	defer env.Logout()

	// No entitlement yet: the guard rejects the listing.
	code, _, err := env.request(http.MethodGet, "/course/"+c.Slug+"/videos", nil)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusForbidden {
		t.Fatalf("expected 403 without entitlement, got %d", code)
	}

	// Unknown course: 404 wins over 403.
	code, _, err = env.request(http.MethodGet, "/course/no-such-slug/videos", nil)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown course, got %d", code)
	}

	// Purchasing flips the same request to success. The guard is
	// re-evaluated per request, so no restart or re-login is needed.
	code, _, err = env.request(http.MethodPost, "/cart/purchase", map[string]string{"courseId": c.ID})
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("can't purchase course: status %d", code)
	}

	code, listEnv, err := env.request(http.MethodGet, "/course/"+c.Slug+"/videos", nil)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("can't list videos after purchase: status %d (%q)", code, listEnv.Message)
	}

	var listed struct {
		Course course.Course `json:"course"`
		Videos []video.Video `json:"videos"`
	}
	if err := json.Unmarshal(listEnv.Data, &listed); err != nil {
		t.Fatal(err)
	}

	wantOrder := []string{v0.ID, v1.ID, v2.ID}
	gotOrder := make([]string, 0, len(listed.Videos))
	for _, v := range listed.Videos {
		gotOrder = append(gotOrder, v.ID)
	}
	if diff := cmp.Diff(wantOrder, gotOrder); diff != "" {
		t.Fatalf("video order mismatch (-want +got):\n%s", diff)
	}

	// Single video of the owned course.
	code, showEnv, err := env.request(http.MethodGet, "/course/"+c.Slug+"/videos/"+v1.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("can't fetch video: status %d (%q)", code, showEnv.Message)
	}

	var shown struct {
		Video  video.Video    `json:"video"`
		Course course.Summary `json:"course"`
	}
	if err := json.Unmarshal(showEnv.Data, &shown); err != nil {
		t.Fatal(err)
	}
	if shown.Video.ID != v1.ID || shown.Course.ID != c.ID {
		t.Fatalf("wrong video or course returned: %+v", shown)
	}

	// A video of a different course must not resolve under this slug,
	// even though the caller owns the slug's course.
	code, _, err = env.request(http.MethodGet, "/course/"+c.Slug+"/videos/"+foreign.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign video, got %d", code)
	}
}
