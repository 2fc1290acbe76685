package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pushp314/shortlink-backend/internal/models"
)

// LinkRepository handles database operations for links
type LinkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) Create(ctx context.Context, link *models.Link) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

// GetByShortCode returns nil without error when no link matches.
func (r *LinkRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.Link, error) {
	var link models.Link
	if err := r.db.WithContext(ctx).Where("short_code = ?", shortCode).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return &link, nil
}

// CodeTaken reports whether a code is in use as either a short code or a
// custom alias. Both columns count: generated codes and aliases share one
// namespace.
func (r *LinkRepository) CodeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Link{}).
		Where("short_code = ? OR custom_alias = ?", code, code).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check code: %w", err)
	}
	return count > 0, nil
}

// RecordVisit bumps the click counter and the last-accessed timestamp in a
// single UPDATE so concurrent redirects never lose a count.
func (r *LinkRepository) RecordVisit(ctx context.Context, shortCode string, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Link{}).
		Where("short_code = ?", shortCode).
		UpdateColumns(map[string]interface{}{
			"clicks":           gorm.Expr("clicks + ?", 1),
			"last_accessed_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record visit: %w", err)
	}
	return nil
}

// Update persists the caller-mutable fields. Only those columns are written:
// a full-row save here could overwrite a click increment that landed after
// the caller read the link.
func (r *LinkRepository) Update(ctx context.Context, link *models.Link) error {
	err := r.db.WithContext(ctx).Model(&models.Link{}).
		Where("short_code = ?", link.ShortCode).
		Select("original_url", "is_active", "expires_at").
		Updates(map[string]interface{}{
			"original_url": link.OriginalURL,
			"is_active":    link.IsActive,
			"expires_at":   link.ExpiresAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}
	return nil
}

// Delete removes a link and reports whether a row was actually deleted.
func (r *LinkRepository) Delete(ctx context.Context, shortCode string) (bool, error) {
	res := r.db.WithContext(ctx).Where("short_code = ?", shortCode).Delete(&models.Link{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete link: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SearchByOriginalURL narrows candidates with LIKE. The service re-checks the
// match in Go because LIKE collation is backend-dependent.
func (r *LinkRepository) SearchByOriginalURL(ctx context.Context, substr string) ([]models.Link, error) {
	pattern := "%" + escapeLike(substr) + "%"
	var links []models.Link
	err := r.db.WithContext(ctx).
		Where("original_url LIKE ? ESCAPE '\\'", pattern).
		Order("created_at DESC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search links: %w", err)
	}
	return links, nil
}

// DeleteExpired removes every link whose expiry is at or before now.
func (r *LinkRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&models.Link{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired links: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
