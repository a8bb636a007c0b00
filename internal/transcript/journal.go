package transcript

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/priyanshu2307/Newschat/internal/models"
	"gorm.io/gorm"
)

// ErrUnknownSession is returned by Entries for a session with no journal.
var ErrUnknownSession = errors.New("transcript: unknown session")

// JournalOpts holds parameters for creating a Journal.
type JournalOpts struct {
	DB      *gorm.DB // required
	BaseURL string   // the service the sessions belong to
}

// Journal appends conversation messages to the database.
type Journal struct {
	db      *gorm.DB
	baseURL string
}

// NewJournal creates a Journal.
func NewJournal(opts JournalOpts) (*Journal, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("transcript: db is required")
	}
	return &Journal{db: opts.DB, baseURL: opts.BaseURL}, nil
}

// Record appends msg to the journal of sessionID, creating the session row
// on first use.
func (j *Journal) Record(ctx context.Context, sessionID string, msg models.Message) error {
	if sessionID == "" {
		return fmt.Errorf("transcript: record: session id is empty")
	}
	if !msg.Role.Valid() {
		return fmt.Errorf("transcript: record: invalid role %q", msg.Role)
	}

	return j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sess := models.TranscriptSession{SessionID: sessionID}
		if err := tx.Where(models.TranscriptSession{SessionID: sessionID}).
			Attrs(models.TranscriptSession{BaseURL: j.baseURL}).
			FirstOrCreate(&sess).Error; err != nil {
			return fmt.Errorf("transcript: record session %s: %w", sessionID, err)
		}

		var maxSeq int
		if err := tx.Model(&models.TranscriptEntry{}).
			Where("transcript_session_id = ?", sess.ID).
			Select("COALESCE(MAX(sequence), 0)").Scan(&maxSeq).Error; err != nil {
			return fmt.Errorf("transcript: next sequence: %w", err)
		}

		entry := models.TranscriptEntry{
			TranscriptSessionID: sess.ID,
			Sequence:            maxSeq + 1,
			Role:                string(msg.Role),
			Content:             msg.Content,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("transcript: record entry: %w", err)
		}
		if err := tx.Model(&sess).Update("updated_at", time.Now()).Error; err != nil {
			return fmt.Errorf("transcript: touch session: %w", err)
		}
		return nil
	})
}

// SessionSummary describes one journaled session.
type SessionSummary struct {
	SessionID string
	BaseURL   string
	Entries   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sessions lists journaled sessions, most recently active first. A limit of
// zero or less returns all of them.
func (j *Journal) Sessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	q := j.db.WithContext(ctx).Order("updated_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.TranscriptSession
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("transcript: list sessions: %w", err)
	}

	out := make([]SessionSummary, 0, len(rows))
	for _, r := range rows {
		var n int64
		if err := j.db.WithContext(ctx).Model(&models.TranscriptEntry{}).
			Where("transcript_session_id = ?", r.ID).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("transcript: count entries for %s: %w", r.SessionID, err)
		}
		out = append(out, SessionSummary{
			SessionID: r.SessionID,
			BaseURL:   r.BaseURL,
			Entries:   n,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return out, nil
}

// Entries returns the journaled messages of a session in append order.
func (j *Journal) Entries(ctx context.Context, sessionID string) ([]models.TranscriptEntry, error) {
	var sess models.TranscriptSession
	err := j.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("transcript: load session %s: %w", sessionID, err)
	}

	var entries []models.TranscriptEntry
	if err := j.db.WithContext(ctx).Where("transcript_session_id = ?", sess.ID).
		Order("sequence").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("transcript: load entries for %s: %w", sessionID, err)
	}
	return entries, nil
}
