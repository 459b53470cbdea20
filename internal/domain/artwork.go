package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ArtworkVisibility represents the moderation/visibility state of an artwork.
// Values include ArtworkVisible and ArtworkHidden.
type ArtworkVisibility string

const (
	ArtworkVisible ArtworkVisibility = "visible"
	ArtworkHidden  ArtworkVisibility = "hidden"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// User holds the public profile fields joined into enriched artwork results.
// Account management itself lives outside this service.
type User struct {
	ID        string `gorm:"type:text;primaryKey" json:"id"`
	Username  string `gorm:"type:text;not null" json:"username"`
	AvatarURL string `gorm:"type:text" json:"avatar_url,omitempty"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "users"
}

// Artwork represents a generated image record in the gallery.
// The ID is assigned once at creation and doubles as the vector index
// point id, joining the two stores.
type Artwork struct {
	ID          string            `gorm:"type:text;primaryKey" json:"id"`
	Title       string            `gorm:"type:text;not null" json:"title"`
	Description string            `gorm:"type:text;not null" json:"description"`
	Prompt      string            `gorm:"type:text;not null" json:"prompt"`
	Tags        StringArray       `gorm:"type:text" json:"tags"`
	OwnerID     string            `gorm:"type:text;not null;index:idx_artworks_owner" json:"owner_id"`
	Owner       *User             `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	FileKey     string            `gorm:"type:text" json:"file_key,omitempty"`
	FileURL     string            `gorm:"type:text" json:"file_url"`
	Visibility  ArtworkVisibility `gorm:"type:text;index:idx_artworks_visibility;default:visible" json:"visibility"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TableName returns the database table name for Artwork.
func (Artwork) TableName() string {
	return "artworks"
}

// ArtworkResult is an enriched artwork built fresh per query.
// Score is nil for results that did not come from a similarity search
// (random discovery); callers must not read it as zero.
type ArtworkResult struct {
	Artwork
	LikesCount     int64    `json:"likes_count"`
	SavesCount     int64    `json:"saves_count"`
	DownloadsCount int64    `json:"downloads_count"`
	IsLiked        bool     `json:"is_liked"`
	IsSaved        bool     `json:"is_saved"`
	Score          *float32 `json:"score,omitempty"`
}
