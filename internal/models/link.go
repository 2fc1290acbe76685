package models

import "time"

type Link struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	OriginalURL    string     `gorm:"index;not null" json:"original_url"`
	ShortCode      string     `gorm:"uniqueIndex;not null" json:"short_code"`
	CustomAlias    *string    `gorm:"uniqueIndex" json:"custom_alias,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at"`
	Clicks         int64      `gorm:"default:0" json:"clicks"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	ExpiresAt      *time.Time `json:"expires_at"`
	UserID         *uint      `json:"user_id"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

// Expired reports whether the link's expiration timestamp has passed.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

// LinkStats is the read-only view served by the stats endpoint.
type LinkStats struct {
	OriginalURL    string     `json:"original_url"`
	ShortCode      string     `json:"short_code"`
	CreatedAt      time.Time  `json:"created_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at"`
	Clicks         int64      `json:"clicks"`
	ExpiresAt      *time.Time `json:"expires_at"`
	IsActive       bool       `json:"is_active"`
}

// LinkSearchResult is the trimmed projection returned by search.
type LinkSearchResult struct {
	OriginalURL string     `json:"original_url"`
	ShortCode   string     `json:"short_code"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
}
