package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pendencias/backend/internal/domain/pendency"
	"github.com/pendencias/backend/internal/infrastructure/persistence/models"
)

const (
	defaultAuditPageSize = 20
	maxAuditPageSize     = 100
)

// SearchAuditRepository implements pendency.AuditRepository with GORM
type SearchAuditRepository struct {
	db            *gorm.DB
	fingerprinter *Fingerprinter
}

// NewSearchAuditRepository creates a new search audit repository
func NewSearchAuditRepository(db *gorm.DB, fingerprinter *Fingerprinter) *SearchAuditRepository {
	return &SearchAuditRepository{db: db, fingerprinter: fingerprinter}
}

// Save persists an audit. The clear tax id only contributes its fingerprint.
func (r *SearchAuditRepository) Save(ctx context.Context, audit *pendency.SearchAudit) error {
	fingerprint := ""
	if !audit.TaxID.IsZero() {
		fingerprint = r.fingerprinter.Fingerprint(audit.TaxID)
	}
	model := models.SearchAuditModelFromDomain(audit, fingerprint)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save search audit: %w", err)
	}
	audit.ID = model.ID
	return nil
}

// FindByID returns one audit
func (r *SearchAuditRepository) FindByID(ctx context.Context, id uuid.UUID) (*pendency.SearchAudit, error) {
	var model models.SearchAuditModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pendency.ErrAuditNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of audits matching filter, newest first by
// default, and the total number of matches
func (r *SearchAuditRepository) FindAll(ctx context.Context, filter pendency.AuditFilter) ([]pendency.SearchAudit, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SearchAuditModel{})

	if filter.ClientID != "" {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if !filter.TaxID.IsZero() {
		query = query.Where("tax_id_fingerprint = ?", r.fingerprinter.Fingerprint(filter.TaxID))
	}
	if filter.Kind != "" {
		query = query.Where("tax_id_kind = ?", string(filter.Kind))
	}
	if filter.From != nil {
		query = query.Where("searched_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("searched_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultAuditPageSize
	}
	if pageSize > maxAuditPageSize {
		pageSize = maxAuditPageSize
	}

	sortField := ValidateSortField(filter.SortBy, AuditSortFields, "searched_at")
	sortOrder := ValidateSortOrder(filter.SortOrder)

	var rows []models.SearchAuditModel
	err := query.
		Order(sortField + " " + sortOrder).
		Order("id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	audits := make([]pendency.SearchAudit, len(rows))
	for i := range rows {
		audits[i] = *rows[i].ToDomain()
	}
	return audits, total, nil
}

// DeleteBefore removes audits searched strictly before cutoff and returns
// how many were deleted
func (r *SearchAuditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("searched_at < ?", cutoff).Delete(&models.SearchAuditModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge search audits: %w", res.Error)
	}
	return res.RowsAffected, nil
}

var _ pendency.AuditRepository = (*SearchAuditRepository)(nil)
