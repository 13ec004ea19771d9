package test

import (
	"encoding/json"
	"net/http"
	"sort"
	"testing"

	"github.com/coursemart/coursemart/core/course"
	"github.com/coursemart/coursemart/core/payment"
	"github.com/coursemart/coursemart/validate"
	"github.com/google/go-cmp/cmp"
)

type paymentTest struct {
	*TestEnv
}

type initiateData struct {
	PaymentSession struct {
		ID         string `json:"id"`
		Amount     int    `json:"amount"`
		CourseID   string `json:"courseId"`
		CourseName string `json:"courseName"`
	} `json:"paymentSession"`
	Course course.Summary `json:"course"`
}

func (pt *paymentTest) initiateOK(t *testing.T, courseID string) initiateData {
	t.Helper()

	code, env, err := pt.request(http.MethodPost, "/payment/initiate", map[string]string{"courseId": courseID})
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("can't initiate payment: status %d, message %q", code, env.Message)
	}

	var data initiateData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decoding payment session: %v", err)
	}

	return data
}

func (pt *paymentTest) fetchPayments(t *testing.T, transactionID string) []payment.Payment {
	t.Helper()

	payments := []payment.Payment{}
	const q = `SELECT * FROM payments WHERE transaction_id = $1 ORDER BY created_at`
	if err := pt.DB.Select(&payments, q, transactionID); err != nil {
		t.Fatalf("fetching payments: %v", err)
	}
	return payments
}

func TestPaymentSingle(t *testing.T) {
	env, err := NewTestEnv(t, "payment_single_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	pt := &paymentTest{env}
	ct := &courseTest{env}
	rt := &cartTest{env}

	c := ct.createCourseOK(t, 100)

	if err := env.Login(env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}
	defer env.Logout()

	rt.addItemOK(t, c.ID)

	data := pt.initiateOK(t, c.ID)
	if data.PaymentSession.Amount != 100 {
		t.Fatalf("expected session amount 100, got %d", data.PaymentSession.Amount)
	}
	if data.PaymentSession.CourseID != c.ID {
		t.Fatalf("session bound to wrong course: %s", data.PaymentSession.CourseID)
	}

	// The amount is snapshotted at initiation: a later price edit must
	// not leak into the pending record.
	if _, err := env.DB.Exec(`UPDATE courses SET price = 999 WHERE course_id = $1`, c.ID); err != nil {
		t.Fatal(err)
	}

	recs := pt.fetchPayments(t, data.PaymentSession.ID)
	if len(recs) != 1 {
		t.Fatalf("expected one payment record, got %d", len(recs))
	}
	if recs[0].Amount != 100 {
		t.Fatalf("snapshot violated: record amount %d", recs[0].Amount)
	}
	if recs[0].Status != payment.Pending {
		t.Fatalf("expected pending record, got %s", recs[0].Status)
	}

	body := map[string]string{"transactionId": data.PaymentSession.ID, "paymentMethod": "card"}
	code, cmpl, err := env.request(http.MethodPost, "/payment/complete", body)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("can't complete payment: status %d (%q)", code, cmpl.Message)
	}

	var completed struct {
		Course course.Summary `json:"course"`
	}
	if err := json.Unmarshal(cmpl.Data, &completed); err != nil {
		t.Fatal(err)
	}
	if completed.Course.ID != c.ID || completed.Course.Slug != c.Slug {
		t.Fatalf("completion reported wrong course: %+v", completed.Course)
	}

	// Amount still untouched after completion, method recorded.
	recs = pt.fetchPayments(t, data.PaymentSession.ID)
	if recs[0].Amount != 100 {
		t.Fatalf("completed record amount changed: %d", recs[0].Amount)
	}
	if recs[0].Status != payment.Completed {
		t.Fatalf("expected completed record, got %s", recs[0].Status)
	}
	if recs[0].PaymentMethod == nil || *recs[0].PaymentMethod != "card" {
		t.Fatalf("payment method not recorded: %v", recs[0].PaymentMethod)
	}

	// Entitlement granted, cart entry gone.
	if diff := cmp.Diff([]string{c.ID}, ownedIDs(ct.listOwnedOK(t))); diff != "" {
		t.Fatalf("owned courses mismatch (-want +got):\n%s", diff)
	}
	if got := rt.listOK(t); len(got) != 0 {
		t.Fatalf("cart still holds %d items after completion", len(got))
	}

	// A second completion is rejected and grants nothing new.
	code, second, err := env.request(http.MethodPost, "/payment/complete", body)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for repeated completion, got %d (%q)", code, second.Message)
	}

	var grants int
	if err := env.DB.Get(&grants, `SELECT COUNT(*) FROM course_users WHERE course_id = $1`, c.ID); err != nil {
		t.Fatal(err)
	}
	if grants != 1 {
		t.Fatalf("expected exactly one grant, found %d", grants)
	}
}

func TestPaymentWrongOwner(t *testing.T) {
	env, err := NewTestEnv(t, "payment_owner_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	pt := &paymentTest{env}
	ct := &courseTest{env}

	c := ct.createCourseOK(t, 100)

	if err := env.Login(env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}
	data := pt.initiateOK(t, c.ID)
	if err := env.Logout(); err != nil {
		t.Fatal(err)
	}

	// A different user cannot complete someone else's session. The
	// admin has no entitlement here, it is just a second account.
	if err := env.Login(env.AdminEmail, env.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer env.Logout()

	body := map[string]string{"transactionId": data.PaymentSession.ID}
	code, msg, err := env.request(http.MethodPost, "/payment/complete", body)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusForbidden {
		t.Fatalf("expected 403 completing another user's payment, got %d (%q)", code, msg.Message)
	}

	// No mutation happened: the record is still pending and no grant
	// exists for either user.
	recs := pt.fetchPayments(t, data.PaymentSession.ID)
	if recs[0].Status != payment.Pending {
		t.Fatalf("foreign completion mutated the record: %s", recs[0].Status)
	}

	var grants int
	if err := env.DB.Get(&grants, `SELECT COUNT(*) FROM course_users WHERE course_id = $1`, c.ID); err != nil {
		t.Fatal(err)
	}
	if grants != 0 {
		t.Fatalf("foreign completion created %d grants", grants)
	}
}

func TestPaymentInitiateRejectsOwned(t *testing.T) {
	env, err := NewTestEnv(t, "payment_owned_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &courseTest{env}
	c := ct.createCourseOK(t, 100)

	if err := env.Login(env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}
	defer env.Logout()

	code, _, err := env.request(http.MethodPost, "/cart/purchase", map[string]string{"courseId": c.ID})
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("can't purchase course: status %d", code)
	}

	code, msg, err := env.request(http.MethodPost, "/payment/initiate", map[string]string{"courseId": c.ID})
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 initiating for an owned course, got %d (%q)", code, msg.Message)
	}
}

func TestPaymentBulk(t *testing.T) {
	env, err := NewTestEnv(t, "payment_bulk_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	pt := &paymentTest{env}
	ct := &courseTest{env}
	rt := &cartTest{env}

	a := ct.createCourseOK(t, 100)
	b := ct.createCourseOK(t, 200)

	if err := env.Login(env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}
	defer env.Logout()

	rt.addItemOK(t, a.ID)
	rt.addItemOK(t, b.ID)

	// An invalid id invalidates the whole batch: no records persist.
	bogus := validate.GenerateID()
	body := map[string]any{"cartItems": []string{a.ID, b.ID, bogus}}
	code, msg, err := env.request(http.MethodPost, "/payment/bulk/initiate", body)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid bulk batch, got %d (%q)", code, msg.Message)
	}

	var count int
	if err := env.DB.Get(&count, `SELECT COUNT(*) FROM payments`); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("invalid bulk initiation persisted %d records", count)
	}

	// An empty list is rejected too.
	code, _, err = env.request(http.MethodPost, "/payment/bulk/initiate", map[string]any{"cartItems": []string{}})
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty bulk batch, got %d", code)
	}

	// Valid batch: one shared transaction id, summed amount.
	var bulk struct {
		PaymentSession struct {
			ID      string           `json:"id"`
			Amount  int              `json:"amount"`
			Courses []course.Summary `json:"courses"`
		} `json:"paymentSession"`
	}
	code, env2, err := env.request(http.MethodPost, "/payment/bulk/initiate", map[string]any{"cartItems": []string{a.ID, b.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("can't initiate bulk payment: status %d (%q)", code, env2.Message)
	}
	if err := json.Unmarshal(env2.Data, &bulk); err != nil {
		t.Fatal(err)
	}

	if bulk.PaymentSession.Amount != 300 {
		t.Fatalf("expected total 300, got %d", bulk.PaymentSession.Amount)
	}

	recs := pt.fetchPayments(t, bulk.PaymentSession.ID)
	if len(recs) != 2 {
		t.Fatalf("expected two payment records, got %d", len(recs))
	}
	for _, p := range recs {
		if p.Status != payment.Pending {
			t.Fatalf("expected pending record, got %s", p.Status)
		}
	}

	// Completion grants both and clears both cart entries.
	cbody := map[string]string{"transactionId": bulk.PaymentSession.ID, "paymentMethod": "card"}
	code, done, err := env.request(http.MethodPost, "/payment/bulk/complete", cbody)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("can't complete bulk payment: status %d (%q)", code, done.Message)
	}

	var completed struct {
		Courses []course.Summary `json:"courses"`
		Failed  []struct {
			CourseID string `json:"courseId"`
			Reason   string `json:"reason"`
		} `json:"failed"`
	}
	if err := json.Unmarshal(done.Data, &completed); err != nil {
		t.Fatal(err)
	}
	if len(completed.Failed) != 0 {
		t.Fatalf("unexpected per-course failures: %+v", completed.Failed)
	}

	got := cartIDs(completed.Courses)
	want := []string{a.ID, b.ID}
	sort.Strings(got)
	sort.Strings(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("completed courses mismatch (-want +got):\n%s", diff)
	}

	owned := ownedIDs(ct.listOwnedOK(t))
	sort.Strings(owned)
	if diff := cmp.Diff(want, owned); diff != "" {
		t.Fatalf("owned courses mismatch (-want +got):\n%s", diff)
	}
	if gotCart := rt.listOK(t); len(gotCart) != 0 {
		t.Fatalf("cart still holds %d items after bulk completion", len(gotCart))
	}

	// A second bulk completion finds nothing pending.
	code, _, err = env.request(http.MethodPost, "/payment/bulk/complete", cbody)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for exhausted bulk session, got %d", code)
	}
}
