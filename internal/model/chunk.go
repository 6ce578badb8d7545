package model

import "time"

// Chunk is a bounded slice of a document's content. Its ordinal position is
// not stored; chunks of a document are ordered by ID.
type Chunk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index" json:"document_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	VectorID   string    `gorm:"size:64;not null;uniqueIndex" json:"vector_id"`
	CreatedAt  time.Time `json:"created_at"`
}
