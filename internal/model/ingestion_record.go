package model

import "time"

// IngestionRecord is one ledger row: how many chunks a source contributed in
// a single ingestion call.
type IngestionRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Source     string    `gorm:"size:512;not null;index" json:"source"`
	Kind       string    `gorm:"size:16;not null" json:"type"`
	Chunks     int       `gorm:"not null" json:"chunks"`
	Collection string    `gorm:"size:128;not null" json:"collection"`
	IngestedAt time.Time `gorm:"not null;index" json:"ingested_at"`
	CreatedAt  time.Time `json:"created_at"`
}
