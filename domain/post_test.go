package domain

import "testing"

func TestAuthorName_FallsBackToHandle(t *testing.T) {
	if got := (Author{Handle: "user", DisplayName: "User Name"}).Name(); got != "User Name" {
		t.Fatalf("unexpected name: %q", got)
	}
	if got := (Author{Handle: "user"}).Name(); got != "user" {
		t.Fatalf("expected handle fallback, got %q", got)
	}
}

func TestPostHasMedia(t *testing.T) {
	if (Post{}).HasMedia() {
		t.Fatalf("empty post must not report media")
	}
	if !(Post{Media: []Media{{ID: "m1"}}}).HasMedia() {
		t.Fatalf("expected media")
	}
}
