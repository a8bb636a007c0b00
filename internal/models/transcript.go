package models

import "time"

// TranscriptSession is one answering-service session seen by this client.
// Rows are written when the first message of the session is journaled.
type TranscriptSession struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"size:128;not null;uniqueIndex"`
	BaseURL   string `gorm:"size:256"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Entries []TranscriptEntry `gorm:"foreignKey:TranscriptSessionID"`
}

// TranscriptEntry stores a single message appended to a conversation log, in
// the order it was appended.
type TranscriptEntry struct {
	ID                  uint   `gorm:"primaryKey;autoIncrement"`
	TranscriptSessionID uint   `gorm:"not null;index:idx_session_seq"`
	Sequence            int    `gorm:"not null;index:idx_session_seq"`
	Role                string `gorm:"size:16;not null"` // "user", "assistant", "system"
	Content             string `gorm:"type:text;not null"`
	CreatedAt           time.Time
}
