package models

import (
	"time"

	"github.com/buger/jsonparser"
)

// Scrape record statuses
const (
	StatusOK   = "OK"
	StatusFail = "FAIL"
	StatusHit  = "HIT"
	StatusMiss = "MISS"
)

// Kind names a persisted entity type
type Kind string

const (
	KindRecord Kind = "scrape_record"
	KindPost   Kind = "post"
	KindUser   Kind = "user"
	KindTag    Kind = "tag"
)

// ScrapeRecord is a fingerprinted log of one scrape attempt
type ScrapeRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Ident      string    `gorm:"column:ident;index" json:"ident"`
	Network    string    `gorm:"column:network;index:idx_scrape_records_request,priority:1" json:"network"`
	Repository string    `gorm:"column:repository;index:idx_scrape_records_request,priority:2" json:"repository"`
	Method     string    `gorm:"column:method;index:idx_scrape_records_request,priority:3" json:"method"`
	Filters    string    `gorm:"column:filters;type:text;index:idx_scrape_records_request,priority:4" json:"filters"`
	Status     string    `gorm:"column:status;index" json:"status"`
	Message    string    `gorm:"column:message;type:text" json:"message,omitempty"`
	Origin     string    `gorm:"column:origin" json:"origin,omitempty"`
	ScrapeID   string    `gorm:"column:scrape_id" json:"scrape_id"`
	LogDate    time.Time `gorm:"column:log_date;index" json:"log_date"`
}

func (ScrapeRecord) TableName() string { return "scrape_records" }

// Persisted reports whether the record was loaded from or saved to the store
func (r *ScrapeRecord) Persisted() bool {
	return r.ID != 0
}

// ExpiresAt is the end of the record's freshness window
func (r *ScrapeRecord) ExpiresAt(window time.Duration) time.Time {
	return r.LogDate.Add(window)
}

// MarkFailed tags the record with a failure status and the error text
func (r *ScrapeRecord) MarkFailed(err error) {
	r.Status = StatusFail
	if err != nil {
		r.Message = err.Error()
	}
}

// Post is a Media (Instagram) or Tweet (Twitter)
type Post struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Network     string    `gorm:"column:network;not null;uniqueIndex:idx_posts_natural_key,priority:1" json:"network"`
	ExternalID  string    `gorm:"column:external_id;not null;uniqueIndex:idx_posts_natural_key,priority:2" json:"external_id"`
	CreatedDate time.Time `gorm:"column:created_date;index" json:"created_date"`
	ImportDate  time.Time `gorm:"column:import_date" json:"import_date"`
	Text        string    `gorm:"column:text;type:text" json:"text"`
	Image       string    `gorm:"column:image" json:"image,omitempty"`
	MediaType   string    `gorm:"column:media_type" json:"media_type,omitempty"`
	UserID      uint      `gorm:"column:user_id;index" json:"user_id"`
	Tags        []string  `gorm:"column:tags;serializer:json" json:"tags"`
	RawData     string    `gorm:"column:raw_data;type:text" json:"-"`
	Active      bool      `gorm:"column:active" json:"active"`

	// User is filled by the reconciler, it is not a gorm association
	User *User `gorm:"-" json:"user,omitempty"`
}

func (Post) TableName() string { return "posts" }

// RawString reads a string from the stored API payload, "" when absent
func (p *Post) RawString(keys ...string) string {
	v, err := jsonparser.GetString([]byte(p.RawData), keys...)
	if err != nil {
		return ""
	}
	return v
}

// User is the author of a post
type User struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Network     string    `gorm:"column:network;not null;uniqueIndex:idx_users_natural_key,priority:1" json:"network"`
	ExternalID  string    `gorm:"column:external_id;not null;uniqueIndex:idx_users_natural_key,priority:2" json:"external_id"`
	Handle      string    `gorm:"column:handle" json:"handle"`
	Name        string    `gorm:"column:name" json:"name"`
	Avatar      string    `gorm:"column:avatar" json:"avatar,omitempty"`
	CreatedDate time.Time `gorm:"column:created_date" json:"created_date,omitempty"`
	ImportDate  time.Time `gorm:"column:import_date" json:"import_date"`
	Active      bool      `gorm:"column:active" json:"active"`
}

func (User) TableName() string { return "users" }

// Tag is a hashtag; its external id is the lowercased text
type Tag struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Network    string    `gorm:"column:network;not null;uniqueIndex:idx_tags_natural_key,priority:1" json:"network"`
	ExternalID string    `gorm:"column:external_id;not null;uniqueIndex:idx_tags_natural_key,priority:2" json:"external_id"`
	ImportDate time.Time `gorm:"column:import_date" json:"import_date"`
	Active     bool      `gorm:"column:active" json:"active"`
}

func (Tag) TableName() string { return "tags" }
