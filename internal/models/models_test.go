package models

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

func TestTranscriptSession_Fields(t *testing.T) {
	typ := reflect.TypeOf(TranscriptSession{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "SessionID", "uniqueIndex")
	assertGormTag(t, typ, "SessionID", "not null")
	assertGormTag(t, typ, "BaseURL", "size:256")
	assertGormTag(t, typ, "Entries", "foreignKey:TranscriptSessionID")
}

func TestTranscriptEntry_Fields(t *testing.T) {
	typ := reflect.TypeOf(TranscriptEntry{})

	assertGormTag(t, typ, "TranscriptSessionID", "index:idx_session_seq")
	assertGormTag(t, typ, "Sequence", "index:idx_session_seq")
	assertGormTag(t, typ, "Role", "size:16")
	assertGormTag(t, typ, "Content", "type:text")
}

func TestRole_Valid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleUser, true},
		{RoleAssistant, true},
		{RoleSystem, true},
		{"", false},
		{"bot", false},
		{"User", false},
	}
	for _, tt := range tests {
		if got := tt.role.Valid(); got != tt.want {
			t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestMessageConstructors(t *testing.T) {
	if m := UserMessage("hi"); m.Role != RoleUser || m.Content != "hi" {
		t.Errorf("UserMessage = %+v", m)
	}
	if m := AssistantMessage("hello"); m.Role != RoleAssistant || m.Content != "hello" {
		t.Errorf("AssistantMessage = %+v", m)
	}
	if m := SystemMessage("oops"); m.Role != RoleSystem || m.Content != "oops" {
		t.Errorf("SystemMessage = %+v", m)
	}
}

func TestMessage_WireShape(t *testing.T) {
	var m Message
	if err := json.Unmarshal([]byte(`{"role":"assistant","content":"**News**"}`), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m != AssistantMessage("**News**") {
		t.Errorf("Message = %+v, want assistant **News**", m)
	}
}

func TestStatusReport_Online(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"online", true},
		{"offline", false},
		{"Online", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := (StatusReport{Status: tt.status}).Online(); got != tt.want {
			t.Errorf("StatusReport{%q}.Online() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestOffline_IsNotReady(t *testing.T) {
	if Offline.Ready {
		t.Error("Offline.Ready = true, want false")
	}
	if Offline.ArticleCount != 0 {
		t.Errorf("Offline.ArticleCount = %d, want 0", Offline.ArticleCount)
	}
}
