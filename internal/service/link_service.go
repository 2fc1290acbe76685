package service

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pushp314/shortlink-backend/internal/models"
	"github.com/pushp314/shortlink-backend/internal/repository"
	"github.com/pushp314/shortlink-backend/pkg/apperrors"
	"github.com/pushp314/shortlink-backend/pkg/logger"
	"github.com/pushp314/shortlink-backend/pkg/shortcode"
)

// Custom aliases are stricter than generated codes: 4-32 chars, alphanumeric
// plus hyphen and underscore.
var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{4,32}$`)

var timeNow = time.Now

// linkStore is the slice of the repository the service depends on.
type linkStore interface {
	Create(ctx context.Context, link *models.Link) error
	GetByShortCode(ctx context.Context, shortCode string) (*models.Link, error)
	CodeTaken(ctx context.Context, code string) (bool, error)
	RecordVisit(ctx context.Context, shortCode string, now time.Time) error
	Update(ctx context.Context, link *models.Link) error
	Delete(ctx context.Context, shortCode string) (bool, error)
	SearchByOriginalURL(ctx context.Context, substr string) ([]models.Link, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// LinkService creates, resolves and manages short links.
type LinkService struct {
	links linkStore
}

func NewLinkService(links *repository.LinkRepository) *LinkService {
	return &LinkService{links: links}
}

// UpdateFields carries the partial update applied to a link. Nil fields are
// left untouched.
type UpdateFields struct {
	OriginalURL *string
	IsActive    *bool
	ExpiresAt   *time.Time
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return apperrors.BadRequest("Invalid URL: must be absolute http or https")
	}
	return nil
}

// Create stores a new link under a custom alias or a freshly generated code.
func (s *LinkService) Create(ctx context.Context, originalURL string, customAlias *string, expiresAt *time.Time, ownerID *uint) (*models.Link, error) {
	if err := validateURL(originalURL); err != nil {
		return nil, err
	}

	if customAlias != nil && *customAlias == "" {
		customAlias = nil
	}
	if customAlias != nil && !aliasPattern.MatchString(*customAlias) {
		return nil, apperrors.BadRequest("Custom alias must be 4-32 characters of letters, digits, hyphen or underscore")
	}

	// The unique index is the source of truth: a concurrent request can claim
	// a code between the availability check and the insert. A duplicate on a
	// custom alias is the caller's conflict; on a generated code we just
	// allocate again.
	for {
		code := ""
		if customAlias != nil {
			taken, err := s.links.CodeTaken(ctx, *customAlias)
			if err != nil {
				return nil, apperrors.Internal("Failed to check alias")
			}
			if taken {
				return nil, apperrors.Conflict("Custom alias already exists")
			}
			code = *customAlias
		} else {
			var err error
			code, err = shortcode.AllocateUnique(ctx, s.links.CodeTaken)
			if err != nil {
				logger.Error().Err(err).Msg("Failed to allocate short code")
				return nil, apperrors.Internal("Failed to allocate short code")
			}
		}

		link := &models.Link{
			OriginalURL: originalURL,
			ShortCode:   code,
			CustomAlias: customAlias,
			ExpiresAt:   expiresAt,
			UserID:      ownerID,
			IsActive:    true,
		}

		err := s.links.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if errors.Is(err, repository.ErrDuplicate) {
			if customAlias != nil {
				return nil, apperrors.Conflict("Custom alias already exists")
			}
			logger.Warn().Str("short_code", code).Msg("Lost short code race, retrying")
			continue
		}
		return nil, apperrors.Internal("Failed to create link")
	}
}

// Resolve returns the link for a redirect and counts the visit. Inactive and
// expired links are not resolvable.
func (s *LinkService) Resolve(ctx context.Context, shortCode string) (*models.Link, error) {
	link, err := s.links.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, apperrors.Internal("Failed to get link")
	}
	now := timeNow()
	if link == nil || !link.IsActive || link.Expired(now) {
		return nil, apperrors.NotFound("Link not found or inactive")
	}

	// Every served redirect must be counted. One retry covers transient
	// store hiccups; a second failure fails the resolve rather than serving
	// an uncounted redirect.
	if err := s.links.RecordVisit(ctx, shortCode, now); err != nil {
		logger.Warn().Err(err).Str("short_code", shortCode).Msg("Failed to record visit, retrying")
		if err := s.links.RecordVisit(ctx, shortCode, now); err != nil {
			logger.Error().Err(err).Str("short_code", shortCode).Msg("Failed to record visit")
			return nil, apperrors.Internal("Failed to record visit")
		}
	}
	return link, nil
}

// Stats reports usage for a link without counting a visit.
func (s *LinkService) Stats(ctx context.Context, shortCode string) (*models.LinkStats, error) {
	link, err := s.links.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, apperrors.Internal("Failed to get link")
	}
	if link == nil {
		return nil, apperrors.NotFound("Link not found")
	}
	return &models.LinkStats{
		OriginalURL:    link.OriginalURL,
		ShortCode:      link.ShortCode,
		CreatedAt:      link.CreatedAt,
		LastAccessedAt: link.LastAccessedAt,
		Clicks:         link.Clicks,
		ExpiresAt:      link.ExpiresAt,
		IsActive:       link.IsActive,
	}, nil
}

// Get fetches a link without side effects.
func (s *LinkService) Get(ctx context.Context, shortCode string) (*models.Link, error) {
	link, err := s.links.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, apperrors.Internal("Failed to get link")
	}
	if link == nil {
		return nil, apperrors.NotFound("Link not found")
	}
	return link, nil
}

// Update applies a partial update. Ownership is enforced by the caller.
func (s *LinkService) Update(ctx context.Context, shortCode string, upd UpdateFields) (*models.Link, error) {
	link, err := s.Get(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	if upd.OriginalURL != nil {
		if err := validateURL(*upd.OriginalURL); err != nil {
			return nil, err
		}
		link.OriginalURL = *upd.OriginalURL
	}
	if upd.IsActive != nil {
		link.IsActive = *upd.IsActive
	}
	if upd.ExpiresAt != nil {
		link.ExpiresAt = upd.ExpiresAt
	}

	if err := s.links.Update(ctx, link); err != nil {
		return nil, apperrors.Internal("Failed to update link")
	}
	return link, nil
}

// Delete removes a link and reports whether it existed.
func (s *LinkService) Delete(ctx context.Context, shortCode string) (bool, error) {
	deleted, err := s.links.Delete(ctx, shortCode)
	if err != nil {
		return false, apperrors.Internal("Failed to delete link")
	}
	return deleted, nil
}

// Search returns links whose original URL contains substr, case-sensitive.
func (s *LinkService) Search(ctx context.Context, substr string) ([]models.LinkSearchResult, error) {
	if len(substr) < 3 {
		return nil, apperrors.BadRequest("Search term must be at least 3 characters")
	}

	candidates, err := s.links.SearchByOriginalURL(ctx, substr)
	if err != nil {
		return nil, apperrors.Internal("Failed to search links")
	}

	// SQLite's LIKE ignores ASCII case; re-check the match here so the
	// contract is case-sensitive on every backend.
	results := make([]models.LinkSearchResult, 0, len(candidates))
	for _, link := range candidates {
		if !strings.Contains(link.OriginalURL, substr) {
			continue
		}
		results = append(results, models.LinkSearchResult{
			OriginalURL: link.OriginalURL,
			ShortCode:   link.ShortCode,
			CreatedAt:   link.CreatedAt,
			ExpiresAt:   link.ExpiresAt,
		})
	}
	return results, nil
}

// SweepExpired deletes every link past its expiration and returns the count.
func (s *LinkService) SweepExpired(ctx context.Context) (int64, error) {
	count, err := s.links.DeleteExpired(ctx, timeNow())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.Info().Int64("removed", count).Msg("Swept expired links")
	}
	return count, nil
}
