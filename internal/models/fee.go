package models

import "time"

// FeeStatus is the lifecycle state of a fee record.
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "PENDING"
	FeeStatusPartial FeeStatus = "PARTIAL"
	FeeStatusPaid    FeeStatus = "PAID"
	FeeStatusOverdue FeeStatus = "OVERDUE"
	FeeStatusWaived  FeeStatus = "WAIVED"
)

// Fee represents a payable charge assigned to a student.
type Fee struct {
	ID            string     `db:"id" json:"id"`
	StudentID     string     `db:"student_id" json:"student_id"`
	Type          string     `db:"type" json:"type"`
	Amount        float64    `db:"amount" json:"amount"`
	LateFee       float64    `db:"late_fee" json:"late_fee"`
	PaidAmount    float64    `db:"paid_amount" json:"paid_amount"`
	DueDate       time.Time  `db:"due_date" json:"due_date"`
	Status        FeeStatus  `db:"status" json:"status"`
	PaymentMethod *string    `db:"payment_method" json:"payment_method,omitempty"`
	ReceiptNumber *string    `db:"receipt_number" json:"receipt_number,omitempty"`
	PaidAt        *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// CreateFeeRequest assigns a new fee to a student.
type CreateFeeRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	Type      string    `json:"type" validate:"required"`
	Amount    float64   `json:"amount" validate:"required,gt=0"`
	DueDate   time.Time `json:"due_date" validate:"required"`
}

// UpdateFeeRequest carries partial updates; nil fields stay untouched.
type UpdateFeeRequest struct {
	Type    *string    `json:"type"`
	Amount  *float64   `json:"amount" validate:"omitempty,gt=0"`
	DueDate *time.Time `json:"due_date"`
}

// RecordPaymentRequest records a payment against a fee.
type RecordPaymentRequest struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"required"`
}

// ApplyLateFeeRequest adds a late fee charge to a pending fee.
type ApplyLateFeeRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// FeeFilter encapsulates allowed search parameters for listing fees.
type FeeFilter struct {
	StudentID string
	Status    *FeeStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
