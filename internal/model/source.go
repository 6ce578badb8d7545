package model

import "time"

// Source is the logical origin of documents, usually a feed. Name is not unique.
type Source struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;index" json:"name"`
	URL       string    `gorm:"size:1000" json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
