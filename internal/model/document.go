package model

import "time"

const (
	IndexStatePersisted = "persisted"
	IndexStateIndexed   = "indexed"
)

// Document is one ingested article. IndexState tracks whether its chunks
// reached the vector store after the relational commit.
type Document struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	SourceID   uint       `gorm:"not null;index" json:"source_id"`
	Title      string     `gorm:"size:500;not null" json:"title"`
	URL        string     `gorm:"size:768;index" json:"url"`
	Content    string     `gorm:"type:longtext" json:"-"`
	IndexState string     `gorm:"size:16;not null;default:persisted;index" json:"index_state"`
	IndexedAt  *time.Time `json:"indexed_at,omitempty"`
	CreatedAt  time.Time  `gorm:"<-:create" json:"created_at"`
}

func (d *Document) Indexed() bool {
	return d.IndexState == IndexStateIndexed
}
