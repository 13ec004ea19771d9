package test

import (
	"context"
	"sync"
	"testing"

	"github.com/coursemart/coursemart/core/enroll"
	"github.com/coursemart/coursemart/database"
	"github.com/jmoiron/sqlx"
)

type enrollTest struct {
	*TestEnv
}

func (et *enrollTest) userID(t *testing.T, email string) string {
	t.Helper()

	var id string
	if err := et.DB.Get(&id, "SELECT user_id FROM users WHERE email = $1", email); err != nil {
		t.Fatalf("fetching user id: %v", err)
	}
	return id
}

func (et *enrollTest) grantCount(t *testing.T, userID, courseID string) int {
	t.Helper()

	var n int
	q := "SELECT COUNT(*) FROM course_users WHERE user_id = $1 AND course_id = $2"
	if err := et.DB.Get(&n, q, userID, courseID); err != nil {
		t.Fatalf("counting grants: %v", err)
	}
	return n
}

func TestGrantIdempotent(t *testing.T) {
	env, err := NewTestEnv(t, "enroll_grant_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &courseTest{env}
	et := &enrollTest{env}

	c := ct.createCourseOK(t, 100)
	userID := et.userID(t, env.UserEmail)

	ctx := context.Background()
	grant := func() error {
		return database.Transaction(env.DB, func(tx sqlx.ExtContext) error {
			return enroll.Grant(ctx, tx, userID, c.ID)
		})
	}

	// Granting twice in a row is a no-op the second time.
	if err := grant(); err != nil {
		t.Fatalf("first grant: %v", err)
	}
	if err := grant(); err != nil {
		t.Fatalf("repeated grant: %v", err)
	}
	if n := et.grantCount(t, userID, c.ID); n != 1 {
		t.Fatalf("expected one grant row, got %d", n)
	}

	// Concurrent grants of a second course must all succeed and still
	// leave a single row.
	c2 := ct.createCourseOK(t, 50)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- database.Transaction(env.DB, func(tx sqlx.ExtContext) error {
				return enroll.Grant(ctx, tx, userID, c2.ID)
			})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent grant: %v", err)
		}
	}
	if n := et.grantCount(t, userID, c2.ID); n != 1 {
		t.Fatalf("expected one grant row after concurrent grants, got %d", n)
	}
}
