package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/records-api/internal/models"
	appErrors "github.com/campushq/records-api/pkg/errors"
	"github.com/campushq/records-api/pkg/export"
	"github.com/campushq/records-api/pkg/mailer"
)

type feeRepository interface {
	List(ctx context.Context, filter models.FeeFilter) ([]models.Fee, int, error)
	FindByID(ctx context.Context, id string) (*models.Fee, error)
	Create(ctx context.Context, fee *models.Fee) error
	Update(ctx context.Context, fee *models.Fee) error
	Delete(ctx context.Context, id string) error
}

type feeStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// FeeService provides fee and payment use cases.
type FeeService struct {
	fees      feeRepository
	students  feeStudentRepository
	receipts  *export.ReceiptRenderer
	notifier  Notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeService constructs a FeeService.
func NewFeeService(fees feeRepository, students feeStudentRepository, receipts *export.ReceiptRenderer, notifier Notifier, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if receipts == nil {
		receipts = export.NewReceiptRenderer("")
	}
	return &FeeService{fees: fees, students: students, receipts: receipts, notifier: notifier, validator: validate, logger: logger}
}

// List returns fees matching the filter.
func (s *FeeService) List(ctx context.Context, filter models.FeeFilter) ([]models.Fee, *models.Pagination, error) {
	fees, total, err := s.fees.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fees")
	}
	return fees, paginationOf(filter.Page, filter.PageSize, total), nil
}

// Get returns one fee by ID.
func (s *FeeService) Get(ctx context.Context, id string) (*models.Fee, error) {
	fee, err := s.fees.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee")
	}
	return fee, nil
}

// Create assigns a new fee to a student in PENDING state.
func (s *FeeService) Create(ctx context.Context, req models.CreateFeeRequest) (*models.Fee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	fee := &models.Fee{
		StudentID: req.StudentID,
		Type:      req.Type,
		Amount:    req.Amount,
		DueDate:   req.DueDate,
		Status:    models.FeeStatusPending,
	}
	if err := s.fees.Create(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee")
	}
	return fee, nil
}

// Update edits fee details while no payment has been recorded.
func (s *FeeService) Update(ctx context.Context, id string, req models.UpdateFeeRequest) (*models.Fee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}

	fee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fee.Status != models.FeeStatusPending && fee.Status != models.FeeStatusOverdue {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot edit a %s fee", fee.Status))
	}

	if req.Type != nil {
		fee.Type = *req.Type
	}
	if req.Amount != nil {
		fee.Amount = *req.Amount
	}
	if req.DueDate != nil {
		fee.DueDate = *req.DueDate
	}

	if err := s.fees.Update(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee")
	}
	return fee, nil
}

// RecordPayment records a payment. Covering amount plus late fee settles the
// fee and mints a receipt number; anything less leaves it PARTIAL.
func (s *FeeService) RecordPayment(ctx context.Context, id string, req models.RecordPaymentRequest) (*models.Fee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	fee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch fee.Status {
	case models.FeeStatusPending, models.FeeStatusPartial, models.FeeStatusOverdue:
	default:
		return nil, appErrors.InvalidTransition("fee", string(fee.Status), "payment")
	}

	fee.PaidAmount += req.Amount
	fee.PaymentMethod = &req.PaymentMethod

	if fee.PaidAmount >= fee.Amount+fee.LateFee {
		now := time.Now().UTC()
		receiptNo := fmt.Sprintf("RCPT-%d", now.UnixNano())
		fee.Status = models.FeeStatusPaid
		fee.ReceiptNumber = &receiptNo
		fee.PaidAt = &now
	} else {
		fee.Status = models.FeeStatusPartial
	}

	if err := s.fees.Update(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	if student, err := s.students.FindByID(ctx, fee.StudentID); err == nil {
		s.notifier.Notify(mailer.EventFeePayment, student.Email, map[string]string{
			"amount": fmt.Sprintf("%.2f", req.Amount),
			"status": string(fee.Status),
		})
	}

	return fee, nil
}

// ApplyLateFee adds a late fee charge. Only pending fees accrue late fees.
func (s *FeeService) ApplyLateFee(ctx context.Context, id string, req models.ApplyLateFeeRequest) (*models.Fee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid late fee payload")
	}

	fee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fee.Status != models.FeeStatusPending {
		return nil, appErrors.InvalidTransition("fee", string(fee.Status), "late fee")
	}

	fee.LateFee += req.Amount
	if err := s.fees.Update(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply late fee")
	}
	return fee, nil
}

// Waive cancels an unsettled fee.
func (s *FeeService) Waive(ctx context.Context, id string) (*models.Fee, error) {
	fee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch fee.Status {
	case models.FeeStatusPending, models.FeeStatusPartial, models.FeeStatusOverdue:
	default:
		return nil, appErrors.InvalidTransition("fee", string(fee.Status), string(models.FeeStatusWaived))
	}

	fee.Status = models.FeeStatusWaived
	if err := s.fees.Update(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to waive fee")
	}
	return fee, nil
}

// MarkOverdue flags an unpaid fee past its due date. The move is an explicit
// administrative action, not a background job.
func (s *FeeService) MarkOverdue(ctx context.Context, id string) (*models.Fee, error) {
	fee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fee.Status != models.FeeStatusPending && fee.Status != models.FeeStatusPartial {
		return nil, appErrors.InvalidTransition("fee", string(fee.Status), string(models.FeeStatusOverdue))
	}

	fee.Status = models.FeeStatusOverdue
	if err := s.fees.Update(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark fee overdue")
	}
	return fee, nil
}

// Delete removes a fee that has seen no payment activity.
func (s *FeeService) Delete(ctx context.Context, id string) error {
	fee, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if fee.Status != models.FeeStatusPending {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot delete a %s fee", fee.Status))
	}
	if err := s.fees.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fee")
	}
	return nil
}

// Receipt renders the payment receipt PDF for a settled fee.
func (s *FeeService) Receipt(ctx context.Context, id string) ([]byte, error) {
	fee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fee.Status != models.FeeStatusPaid || fee.ReceiptNumber == nil || fee.PaidAt == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "receipt is only available for paid fees")
	}

	student, err := s.students.FindByID(ctx, fee.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	method := ""
	if fee.PaymentMethod != nil {
		method = *fee.PaymentMethod
	}
	pdf, err := s.receipts.Render(export.Receipt{
		ReceiptNumber: *fee.ReceiptNumber,
		StudentName:   student.FullName,
		Registration:  student.RegistrationNumber,
		FeeType:       fee.Type,
		Amount:        fee.Amount,
		LateFee:       fee.LateFee,
		PaidAmount:    fee.PaidAmount,
		PaymentMethod: method,
		PaidAt:        *fee.PaidAt,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return pdf, nil
}
