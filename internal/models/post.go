package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// PostStatus represents the lifecycle state of a scheduled post
type PostStatus string

const (
	PostStatusPending   PostStatus = "pending"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
	PostStatusCancelled PostStatus = "cancelled"
)

// MediaType represents the kind of media attached to a post
type MediaType string

const (
	MediaTypeImage    MediaType = "image"
	MediaTypeVideo    MediaType = "video"
	MediaTypeDocument MediaType = "document"
)

// StringSlice is a custom type for storing string arrays in JSON
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return nil
}

// JSON is a custom type for storing arbitrary JSON data
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	}
	return nil
}

// ScheduledPost represents a unit of content awaiting delivery to one or more
// social platforms. Status transitions are monotone: a pending post reaches
// published/failed through the processor or cancelled through the operator;
// a finished post is never reopened (recurrence creates a new instance).
type ScheduledPost struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Platforms   StringSlice `gorm:"type:json;not null" json:"platforms"`
	Content     string      `gorm:"type:text;not null" json:"content"`
	MediaURL    string      `json:"media_url"`
	MediaType   MediaType   `json:"media_type"`
	PublishAt   time.Time   `gorm:"index:idx_status_publish_at,priority:2;not null" json:"publish_at"`
	Timezone    string      `gorm:"default:'UTC'" json:"timezone"`
	Priority    int         `gorm:"default:5" json:"priority"`
	Metadata    JSON        `gorm:"type:json" json:"metadata"`
	Status      PostStatus  `gorm:"index:idx_status_publish_at,priority:1;default:'pending'" json:"status"`
	PublishedAt *time.Time  `json:"published_at"`
	Result      JSON        `gorm:"type:json" json:"result"`
	Error       string      `gorm:"type:text" json:"error"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasMedia reports whether the post carries a media attachment
func (p *ScheduledPost) HasMedia() bool {
	return p.MediaURL != ""
}

// IsTerminal reports whether the post can no longer change state
func (p *ScheduledPost) IsTerminal() bool {
	return p.Status != PostStatusPending
}
