// Package payment tracks intents to pay. A record is created pending
// with an amount snapshotted from the catalog and transitions to
// completed exactly once; records are never deleted, so a completed
// payment is a durable receipt independent of later catalog edits.
package payment

import "time"

type Status string

const (
	Pending   Status = "pending"
	Completed Status = "completed"
)

type Payment struct {
	ID            string    `json:"id" db:"payment_id"`
	TransactionID string    `json:"transactionId" db:"transaction_id"`
	UserID        string    `json:"userId" db:"user_id"`
	CourseID      string    `json:"courseId" db:"course_id"`
	Amount        int       `json:"amount" db:"amount"`
	Status        Status    `json:"status" db:"status"`
	PaymentMethod *string   `json:"paymentMethod" db:"payment_method"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// StatusUp flips a single pending record to completed.
type StatusUp struct {
	ID            string    `db:"payment_id"`
	Status        Status    `db:"status"`
	PaymentMethod string    `db:"payment_method"`
	UpdatedAt     time.Time `db:"updated_at"`
}
