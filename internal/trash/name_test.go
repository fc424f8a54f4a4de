package trash

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCandidateName(t *testing.T) {
	tests := []struct {
		base    string
		attempt int
		want    string
	}{
		{"doc.txt", 0, "doc.txt"},
		{"doc.txt", 1, "doc.txt.1"},
		{"doc.txt", 2, "doc.txt.2"},
		{"noext", 1, "noext.1"},
		{".hidden", 3, ".hidden.3"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := candidateName(tt.base, tt.attempt)
			if got != tt.want {
				t.Errorf("candidateName(%q, %d) = %q, want %q", tt.base, tt.attempt, got, tt.want)
			}
		})
	}
}

func TestClaimNameFirstFree(t *testing.T) {
	root := newTestRoot(t)
	info := Info{Path: "/home/u/doc.txt", DeletionDate: time.Now()}

	name, err := claimName(root, "doc.txt", info)
	if err != nil {
		t.Fatalf("claimName failed: %v", err)
	}
	if name != "doc.txt" {
		t.Errorf("Expected first claim to keep the base name, got %q", name)
	}
	if _, err := os.Stat(infoPath(root, name)); err != nil {
		t.Errorf("Expected info file to be claimed: %v", err)
	}
}

func TestClaimNameDisambiguates(t *testing.T) {
	root := newTestRoot(t)
	info := Info{Path: "/home/u/doc.txt", DeletionDate: time.Now()}

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		name, err := claimName(root, "doc.txt", info)
		if err != nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
		if seen[name] {
			t.Fatalf("claim %d reused name %q", i, name)
		}
		seen[name] = true
	}

	for _, want := range []string{"doc.txt", "doc.txt.1", "doc.txt.2"} {
		if !seen[want] {
			t.Errorf("Expected name %q to be claimed, got %v", want, seen)
		}
	}
}

func TestClaimNameSkipsOccupiedPayload(t *testing.T) {
	root := newTestRoot(t)
	info := Info{Path: "/home/u/doc.txt", DeletionDate: time.Now()}

	// A payload without metadata (left by some other tool) still blocks
	// the name.
	if err := os.WriteFile(filepath.Join(root.FilesDir(), "doc.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("Failed to plant payload: %v", err)
	}

	name, err := claimName(root, "doc.txt", info)
	if err != nil {
		t.Fatalf("claimName failed: %v", err)
	}
	if name != "doc.txt.1" {
		t.Errorf("Expected doc.txt.1, got %q", name)
	}
}

func TestClaimNameExhausted(t *testing.T) {
	root := newTestRoot(t)
	info := Info{Path: "/home/u/doc.txt", DeletionDate: time.Now()}

	for i := 0; i < maxNameAttempts; i++ {
		path := infoPath(root, candidateName("doc.txt", i))
		if err := os.WriteFile(path, []byte("[Trash Info]\n"), 0o600); err != nil {
			t.Fatalf("Failed to occupy name: %v", err)
		}
	}

	_, err := claimName(root, "doc.txt", info)
	if !IsNameExhausted(err) {
		t.Fatalf("Expected ErrNameExhausted, got %v", err)
	}
}
