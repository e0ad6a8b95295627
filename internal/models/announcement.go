package models

import "time"

// Announcement represents a persisted announcement row.
type Announcement struct {
	ID           string     `db:"id" json:"id"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description"`
	Category     string     `db:"category" json:"category"`
	Image        string     `db:"image" json:"image"`
	Venue        string     `db:"venue" json:"venue"`
	StartTime    string     `db:"start_time" json:"start_time"`
	EndTime      string     `db:"end_time" json:"end_time"`
	Date         *time.Time `db:"date" json:"date,omitempty"`
	RegisterLink string     `db:"register_link" json:"register_link"`
	PostedBy     string     `db:"posted_by" json:"posted_by"`
	PostedByName string     `db:"posted_by_name" json:"posted_by_name"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// AnnouncementFilter allows listing announcements.
type AnnouncementFilter struct {
	Category  string
	SortOrder string
	Page      int
	PageSize  int
}
