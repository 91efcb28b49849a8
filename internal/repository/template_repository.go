package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopops/payment-reaper/internal/database"
	"github.com/shopops/payment-reaper/internal/models"
	"github.com/shopops/payment-reaper/pkg/logger"
)

// TemplateRepository handles notification template lookups
type TemplateRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewTemplateRepository creates a new TemplateRepository
func NewTemplateRepository(db *database.Database, logger logger.Logger) *TemplateRepository {
	return &TemplateRepository{
		db:     db,
		logger: logger,
	}
}

// GetActiveByName retrieves an active template by its lookup name. Inactive
// and missing templates both return ErrNotFound, so callers fall back the
// same way for either.
func (r *TemplateRepository) GetActiveByName(ctx context.Context, name string) (*models.NotificationTemplate, error) {
	query := `
		SELECT id, name, subject, body_html, body_text, is_active, created_at, updated_at
		FROM notification_templates
		WHERE name = $1 AND is_active = TRUE
	`

	var tmpl models.NotificationTemplate
	err := r.db.DB.GetContext(ctx, &tmpl, query, name)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get notification template", "error", err, "name", name)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &tmpl, nil
}
