package transcript

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/priyanshu2307/Newschat/internal/config"
	"github.com/priyanshu2307/Newschat/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(config.TranscriptConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := NewJournal(JournalOpts{DB: openTestDB(t), BaseURL: "http://localhost:8000"})
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	return j
}

// ---------------------------------------------------------------------------
// DSN / Open
// ---------------------------------------------------------------------------

func TestDSN(t *testing.T) {
	got := DSN(config.MySQLConfig{Host: "127.0.0.1", Port: 3306, User: "root", Database: "newschat"})
	want := "root@tcp(127.0.0.1:3306)/newschat?parseTime=true"
	if got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestDSN_Password(t *testing.T) {
	got := DSN(config.MySQLConfig{Host: "db", Port: 3307, User: "news", Password: "s3cret", Database: "chat"})
	if !strings.HasPrefix(got, "news:s3cret@tcp(db:3307)/chat?") {
		t.Errorf("DSN() = %q", got)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(config.TranscriptConfig{Driver: "postgres"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	db, err := Open(config.TranscriptConfig{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !db.Migrator().HasTable(&models.TranscriptEntry{}) {
		t.Error("expected transcript_entries table")
	}
}

// ---------------------------------------------------------------------------
// Journal
// ---------------------------------------------------------------------------

func TestNewJournal_NilDB(t *testing.T) {
	if _, err := NewJournal(JournalOpts{}); err == nil {
		t.Fatal("expected error for nil DB")
	}
}

func TestRecord_SequencesPerSession(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	msgs := []struct {
		session string
		msg     models.Message
	}{
		{"abc", models.UserMessage("hello")},
		{"abc", models.AssistantMessage("hi")},
		{"xyz", models.UserMessage("other")},
		{"abc", models.UserMessage("again")},
		{"abc", models.SystemMessage("Sorry")},
	}
	for _, m := range msgs {
		if err := j.Record(ctx, m.session, m.msg); err != nil {
			t.Fatalf("Record(%s): %v", m.session, err)
		}
	}

	entries, err := j.Entries(ctx, "abc")
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	wantRoles := []string{"user", "assistant", "user", "system"}
	for i, e := range entries {
		if e.Sequence != i+1 {
			t.Errorf("entries[%d].Sequence = %d, want %d", i, e.Sequence, i+1)
		}
		if e.Role != wantRoles[i] {
			t.Errorf("entries[%d].Role = %q, want %q", i, e.Role, wantRoles[i])
		}
	}
	if entries[2].Content != "again" {
		t.Errorf("entries[2].Content = %q, want %q", entries[2].Content, "again")
	}

	other, err := j.Entries(ctx, "xyz")
	if err != nil {
		t.Fatalf("Entries(xyz): %v", err)
	}
	if len(other) != 1 || other[0].Sequence != 1 {
		t.Errorf("xyz entries = %+v, want one entry with sequence 1", other)
	}
}

func TestRecord_RejectsBadInput(t *testing.T) {
	j := newTestJournal(t)
	if err := j.Record(context.Background(), "", models.UserMessage("x")); err == nil {
		t.Error("expected error for empty session id")
	}
	if err := j.Record(context.Background(), "abc", models.Message{Role: "robot", Content: "x"}); err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestEntries_UnknownSession(t *testing.T) {
	j := newTestJournal(t)
	_, err := j.Entries(context.Background(), "nope")
	if !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("err = %v, want ErrUnknownSession", err)
	}
}

func TestSessions_ListsWithCounts(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	_ = j.Record(ctx, "abc", models.UserMessage("1"))
	_ = j.Record(ctx, "abc", models.AssistantMessage("2"))
	_ = j.Record(ctx, "xyz", models.UserMessage("3"))

	sessions, err := j.Sessions(ctx, 0)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	counts := map[string]int64{}
	for _, s := range sessions {
		counts[s.SessionID] = s.Entries
		if s.BaseURL != "http://localhost:8000" {
			t.Errorf("BaseURL = %q, want %q", s.BaseURL, "http://localhost:8000")
		}
	}
	if counts["abc"] != 2 || counts["xyz"] != 1 {
		t.Errorf("counts = %v, want abc:2 xyz:1", counts)
	}

	limited, err := j.Sessions(ctx, 1)
	if err != nil {
		t.Fatalf("Sessions(1): %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("got %d sessions, want 1", len(limited))
	}
}
