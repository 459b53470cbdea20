package domain

import "time"

// ArtworkLike is a per-user like row, counted at query time.
type ArtworkLike struct {
	ArtworkID string    `gorm:"type:text;primaryKey" json:"artwork_id"`
	UserID    string    `gorm:"type:text;primaryKey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ArtworkLike) TableName() string {
	return "artwork_likes"
}

// ArtworkSave is a per-user save/bookmark row.
type ArtworkSave struct {
	ArtworkID string    `gorm:"type:text;primaryKey" json:"artwork_id"`
	UserID    string    `gorm:"type:text;primaryKey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ArtworkSave) TableName() string {
	return "artwork_saves"
}

// ArtworkDownload records one download event. Unlike likes and saves the
// same user may download repeatedly, so rows are keyed by their own id.
type ArtworkDownload struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	ArtworkID string    `gorm:"type:text;not null;index:idx_artwork_downloads_artwork" json:"artwork_id"`
	UserID    string    `gorm:"type:text" json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (ArtworkDownload) TableName() string {
	return "artwork_downloads"
}
