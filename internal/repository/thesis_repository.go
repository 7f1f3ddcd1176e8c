package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/records-api/internal/models"
)

// ThesisRepository manages persistence for thesis records.
type ThesisRepository struct {
	db *sqlx.DB
}

// NewThesisRepository constructs a ThesisRepository.
func NewThesisRepository(db *sqlx.DB) *ThesisRepository {
	return &ThesisRepository{db: db}
}

const thesisColumns = `id, title, abstract, student_id, supervisor_id, status, decision_note, documents, submitted_at, created_at, updated_at`

// List returns theses matching the provided filters.
func (r *ThesisRepository) List(ctx context.Context, filter models.ThesisFilter) ([]models.Thesis, int, error) {
	base := "FROM theses WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.SupervisorID != "" {
		conditions = append(conditions, fmt.Sprintf("supervisor_id = $%d", len(args)+1))
		args = append(args, filter.SupervisorID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]bool{
		"title":      true,
		"created_at": true,
		"updated_at": true,
	}
	sortBy := filter.SortBy
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	_, pageSize, offset := clampPage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", thesisColumns, base, sortBy, order, pageSize, offset)

	var theses []models.Thesis
	if err := r.db.SelectContext(ctx, &theses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list theses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count theses: %w", err)
	}
	return theses, total, nil
}

// FindByID fetches a thesis by ID.
func (r *ThesisRepository) FindByID(ctx context.Context, id string) (*models.Thesis, error) {
	query := fmt.Sprintf("SELECT %s FROM theses WHERE id = $1", thesisColumns)
	var thesis models.Thesis
	if err := r.db.GetContext(ctx, &thesis, query, id); err != nil {
		return nil, err
	}
	return &thesis, nil
}

// Create inserts a new thesis record.
func (r *ThesisRepository) Create(ctx context.Context, thesis *models.Thesis) error {
	if thesis.ID == "" {
		thesis.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if thesis.CreatedAt.IsZero() {
		thesis.CreatedAt = now
	}
	thesis.UpdatedAt = now
	const query = `INSERT INTO theses (id, title, abstract, student_id, supervisor_id, status, decision_note, documents, submitted_at, created_at, updated_at)
        VALUES (:id, :title, :abstract, :student_id, :supervisor_id, :status, :decision_note, :documents, :submitted_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, thesis); err != nil {
		return fmt.Errorf("create thesis: %w", err)
	}
	return nil
}

// Update modifies an existing thesis.
func (r *ThesisRepository) Update(ctx context.Context, thesis *models.Thesis) error {
	thesis.UpdatedAt = time.Now().UTC()
	const query = `UPDATE theses SET title = :title, abstract = :abstract, supervisor_id = :supervisor_id, status = :status, decision_note = :decision_note, documents = :documents, submitted_at = :submitted_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, thesis); err != nil {
		return fmt.Errorf("update thesis: %w", err)
	}
	return nil
}

// Delete removes a thesis row.
func (r *ThesisRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM theses WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete thesis: %w", err)
	}
	return nil
}
