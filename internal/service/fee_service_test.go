package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/records-api/internal/models"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/export"
	"github.com/campushq/records-api/pkg/mailer"
)

type feeStore struct {
	items  map[string]*models.Fee
	nextID int
}

func newFeeStore(fees ...*models.Fee) *feeStore {
	s := &feeStore{items: make(map[string]*models.Fee)}
	for _, f := range fees {
		s.items[f.ID] = f
	}
	return s
}

func (s *feeStore) List(ctx context.Context, filter models.FeeFilter) ([]models.Fee, int, error) {
	var out []models.Fee
	for _, f := range s.items {
		out = append(out, *f)
	}
	return out, len(out), nil
}

func (s *feeStore) FindByID(ctx context.Context, id string) (*models.Fee, error) {
	f, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *f
	return &clone, nil
}

func (s *feeStore) Create(ctx context.Context, fee *models.Fee) error {
	if fee.ID == "" {
		s.nextID++
		fee.ID = fmt.Sprintf("fee-%d", s.nextID)
	}
	s.items[fee.ID] = fee
	return nil
}

func (s *feeStore) Update(ctx context.Context, fee *models.Fee) error {
	if _, ok := s.items[fee.ID]; !ok {
		return sql.ErrNoRows
	}
	s.items[fee.ID] = fee
	return nil
}

func (s *feeStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

func feeTestStudent() *models.StudentDetail {
	return &models.StudentDetail{
		Student: models.Student{
			ID:                 "stu-1",
			UserID:             "u1",
			RegistrationNumber: "REG-2026-abc123",
			Batch:              "2026",
		},
		Email:    "student@example.com",
		FullName: "Test Student",
		Active:   true,
	}
}

func newFeeService(store *feeStore, notifier Notifier) *FeeService {
	return NewFeeService(store, newStudentStore(feeTestStudent()), export.NewReceiptRenderer("Campus Records"), notifier, nil, nil)
}

func TestFeeServiceCreate(t *testing.T) {
	store := newFeeStore()
	svc := newFeeService(store, nil)

	fee, err := svc.Create(context.Background(), models.CreateFeeRequest{
		StudentID: "stu-1",
		Type:      "TUITION",
		Amount:    1200,
		DueDate:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusPending, fee.Status)
	assert.Zero(t, fee.PaidAmount)
}

func TestFeeServiceCreateUnknownStudent(t *testing.T) {
	svc := newFeeService(newFeeStore(), nil)

	_, err := svc.Create(context.Background(), models.CreateFeeRequest{
		StudentID: "ghost",
		Type:      "TUITION",
		Amount:    1200,
		DueDate:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFeeServicePartialPayment(t *testing.T) {
	store := newFeeStore(&models.Fee{ID: "fee-1", StudentID: "stu-1", Amount: 1000, Status: models.FeeStatusPending})
	notifier := &recordingNotifier{}
	svc := newFeeService(store, notifier)

	fee, err := svc.RecordPayment(context.Background(), "fee-1", models.RecordPaymentRequest{Amount: 400, PaymentMethod: "CARD"})
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusPartial, fee.Status)
	assert.Equal(t, 400.0, fee.PaidAmount)
	assert.Nil(t, fee.ReceiptNumber)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, mailer.EventFeePayment, notifier.events[0])
	assert.Equal(t, "student@example.com", notifier.recipients[0])
}

func TestFeeServiceSettlingPaymentMintsReceipt(t *testing.T) {
	store := newFeeStore(&models.Fee{ID: "fee-1", StudentID: "stu-1", Amount: 1000, LateFee: 50, PaidAmount: 400, Status: models.FeeStatusPartial})
	svc := newFeeService(store, nil)

	fee, err := svc.RecordPayment(context.Background(), "fee-1", models.RecordPaymentRequest{Amount: 650, PaymentMethod: "CASH"})
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusPaid, fee.Status)
	require.NotNil(t, fee.ReceiptNumber)
	assert.True(t, strings.HasPrefix(*fee.ReceiptNumber, "RCPT-"))
	assert.NotNil(t, fee.PaidAt)

	// A settled fee accepts no further payments.
	_, err = svc.RecordPayment(context.Background(), "fee-1", models.RecordPaymentRequest{Amount: 10, PaymentMethod: "CASH"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestFeeServiceLateFeeOnlyWhilePending(t *testing.T) {
	store := newFeeStore(
		&models.Fee{ID: "pending", StudentID: "stu-1", Amount: 1000, Status: models.FeeStatusPending},
		&models.Fee{ID: "partial", StudentID: "stu-1", Amount: 1000, PaidAmount: 200, Status: models.FeeStatusPartial},
	)
	svc := newFeeService(store, nil)

	fee, err := svc.ApplyLateFee(context.Background(), "pending", models.ApplyLateFeeRequest{Amount: 75})
	require.NoError(t, err)
	assert.Equal(t, 75.0, fee.LateFee)

	_, err = svc.ApplyLateFee(context.Background(), "partial", models.ApplyLateFeeRequest{Amount: 75})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestFeeServiceWaive(t *testing.T) {
	store := newFeeStore(
		&models.Fee{ID: "overdue", StudentID: "stu-1", Amount: 1000, Status: models.FeeStatusOverdue},
		&models.Fee{ID: "paid", StudentID: "stu-1", Amount: 1000, PaidAmount: 1000, Status: models.FeeStatusPaid},
	)
	svc := newFeeService(store, nil)

	fee, err := svc.Waive(context.Background(), "overdue")
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusWaived, fee.Status)

	_, err = svc.Waive(context.Background(), "paid")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestFeeServiceMarkOverdue(t *testing.T) {
	store := newFeeStore(
		&models.Fee{ID: "pending", StudentID: "stu-1", Amount: 1000, Status: models.FeeStatusPending},
		&models.Fee{ID: "waived", StudentID: "stu-1", Amount: 1000, Status: models.FeeStatusWaived},
	)
	svc := newFeeService(store, nil)

	fee, err := svc.MarkOverdue(context.Background(), "pending")
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusOverdue, fee.Status)

	_, err = svc.MarkOverdue(context.Background(), "waived")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestFeeServiceDeleteOnlyUntouchedFees(t *testing.T) {
	store := newFeeStore(
		&models.Fee{ID: "pending", StudentID: "stu-1", Amount: 1000, Status: models.FeeStatusPending},
		&models.Fee{ID: "partial", StudentID: "stu-1", Amount: 1000, PaidAmount: 100, Status: models.FeeStatusPartial},
	)
	svc := newFeeService(store, nil)

	err := svc.Delete(context.Background(), "partial")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), "pending"))
	assert.NotContains(t, store.items, "pending")
}

func TestFeeServiceReceipt(t *testing.T) {
	receiptNo := "RCPT-42"
	method := "CARD"
	paidAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	store := newFeeStore(
		&models.Fee{
			ID: "paid", StudentID: "stu-1", Type: "TUITION",
			Amount: 1000, PaidAmount: 1000, Status: models.FeeStatusPaid,
			ReceiptNumber: &receiptNo, PaymentMethod: &method, PaidAt: &paidAt,
		},
		&models.Fee{ID: "pending", StudentID: "stu-1", Amount: 1000, Status: models.FeeStatusPending},
	)
	svc := newFeeService(store, nil)

	pdf, err := svc.Receipt(context.Background(), "paid")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))

	_, err = svc.Receipt(context.Background(), "pending")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
