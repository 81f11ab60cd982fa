package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDeriveSlug(t *testing.T) {
	cases := []struct {
		username string
		want     string
	}{
		{"JaneDoe42", "janedoe42"},
		{"  spaced name ", "spaced-name"},
		{"under_score", "under-score"},
		{"mixed-Case-9", "mixed-case-9"},
		{"dots.and!chars", "dotsandchars"},
	}
	for _, tc := range cases {
		if got := DeriveSlug(tc.username); got != tc.want {
			t.Fatalf("DeriveSlug(%q) = %q, want %q", tc.username, got, tc.want)
		}
	}
}

func TestAdminPasswordNeverSerialized(t *testing.T) {
	admin := Admin{ID: "id-1", Email: "a@b.com", Password: "$2a$12$hash"}
	raw, err := json.Marshal(admin)
	if err != nil {
		t.Fatalf("marshal admin: %v", err)
	}
	if strings.Contains(string(raw), "hash") || strings.Contains(string(raw), "password") {
		t.Fatalf("password leaked into JSON: %s", raw)
	}
}
