package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/thoreinstein/rsnap/internal/errors"
)

var day = time.Date(2026, 10, 16, 3, 15, 0, 0, time.UTC)

func TestName(t *testing.T) {
	tests := []struct {
		suffix int
		want   string
	}{
		{0, "2026-10-16"},
		{1, "2026-10-16_1"},
		{12, "2026-10-16_12"},
	}
	for _, tt := range tests {
		if got := Name(day, tt.suffix); got != tt.want {
			t.Errorf("Name(day, %d) = %q, want %q", tt.suffix, got, tt.want)
		}
	}
}

func TestNextPath_PureUntilCreated(t *testing.T) {
	root := t.TempDir()

	first, err := NextPath(root, day)
	if err != nil {
		t.Fatalf("NextPath() error = %v", err)
	}
	again, err := NextPath(root, day)
	if err != nil {
		t.Fatalf("NextPath() error = %v", err)
	}
	if first != again {
		t.Errorf("NextPath() not stable without creation: %q != %q", first, again)
	}
	if want := filepath.Join(root, "2026-10-16"); first != want {
		t.Errorf("NextPath() = %q, want %q", first, want)
	}

	if err := os.Mkdir(first, 0o755); err != nil {
		t.Fatal(err)
	}
	second, err := NextPath(root, day)
	if err != nil {
		t.Fatalf("NextPath() error = %v", err)
	}
	if want := filepath.Join(root, "2026-10-16_1"); second != want {
		t.Errorf("NextPath() after create = %q, want %q", second, want)
	}

	if err := os.Mkdir(second, 0o755); err != nil {
		t.Fatal(err)
	}
	third, err := NextPath(root, day)
	if err != nil {
		t.Fatalf("NextPath() error = %v", err)
	}
	if want := filepath.Join(root, "2026-10-16_2"); third != want {
		t.Errorf("NextPath() = %q, want %q", third, want)
	}
}

func TestNextPath_FillsGaps(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"2026-10-16", "2026-10-16_2"} {
		if err := os.Mkdir(filepath.Join(root, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	got, err := NextPath(root, day)
	if err != nil {
		t.Fatalf("NextPath() error = %v", err)
	}
	if want := filepath.Join(root, "2026-10-16_1"); got != want {
		t.Errorf("NextPath() = %q, want %q", got, want)
	}
}

func TestNextPath_OtherDaysIgnored(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "2026-10-15"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := NextPath(root, day)
	if err != nil {
		t.Fatalf("NextPath() error = %v", err)
	}
	if want := filepath.Join(root, "2026-10-16"); got != want {
		t.Errorf("NextPath() = %q, want %q", got, want)
	}
}

func TestAllocate(t *testing.T) {
	root := filepath.Join(t.TempDir(), "snapshots")

	first, err := Allocate(root, day)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	second, err := Allocate(root, day)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	if filepath.Base(first) != "2026-10-16" || filepath.Base(second) != "2026-10-16_1" {
		t.Errorf("Allocate() = %q, %q; want 2026-10-16 and 2026-10-16_1", first, second)
	}
	for _, p := range []string{root, first, second} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if info.Mode().Perm() != 0o755 {
			t.Errorf("%s perm = %o, want 755", p, info.Mode().Perm())
		}
	}
}

func TestEnsureRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mnt", "snapshots")

	created, err := EnsureRoot(root)
	if err != nil {
		t.Fatalf("EnsureRoot() error = %v", err)
	}
	if !created {
		t.Error("EnsureRoot() created = false on first call")
	}

	created, err = EnsureRoot(root)
	if err != nil {
		t.Fatalf("EnsureRoot() error = %v", err)
	}
	if created {
		t.Error("EnsureRoot() created = true on second call")
	}
}

func TestSegments(t *testing.T) {
	tests := []struct {
		source string
		want   int
	}{
		{"/etc", 1},
		{"/home/alex", 2},
		{"/home/alex/", 2},
		{"//srv//data", 2},
		{"/", 0},
	}
	for _, tt := range tests {
		if got := Segments(tt.source); got != tt.want {
			t.Errorf("Segments(%q) = %d, want %d", tt.source, got, tt.want)
		}
	}
}

func TestLinkReference(t *testing.T) {
	tests := []struct {
		source  string
		lastDir string
		want    string
	}{
		{"/home/alex", "last", "../../../last/home/alex"},
		{"/etc", "last", "../../last/etc"},
		{"/var/lib/postgres/data", "latest", "../../../../../latest/var/lib/postgres/data"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := LinkReference(tt.source, tt.lastDir); got != tt.want {
				t.Errorf("LinkReference(%q, %q) = %q, want %q", tt.source, tt.lastDir, got, tt.want)
			}
		})
	}
}

// The link reference, resolved from the destination directory, must land on
// the same source inside the last snapshot.
func TestLinkReference_ResolvesIntoLast(t *testing.T) {
	root := "/mnt/backup/snapshots"
	snap := filepath.Join(root, "2026-10-16")
	for _, source := range []string{"/etc", "/home/alex", "/srv/a/b/c"} {
		dest := Destination(snap, source)
		got := filepath.Clean(filepath.Join(dest, LinkReference(source, "last")))
		want := filepath.Join(root, "last", source)
		if got != want {
			t.Errorf("%s: link reference resolves to %q, want %q", source, got, want)
		}
	}
}

func TestDestination(t *testing.T) {
	if got := Destination("/mnt/s/2026-10-16", "/home/alex/"); got != "/mnt/s/2026-10-16/home/alex" {
		t.Errorf("Destination() = %q", got)
	}
}

func TestRepublishLast(t *testing.T) {
	root := t.TempDir()
	last := filepath.Join(root, "last")
	older := filepath.Join(root, "2026-10-15")
	newer := filepath.Join(root, "2026-10-16")
	for _, dir := range []string{older, newer} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("creates link when absent", func(t *testing.T) {
		if err := RepublishLast(older, last); err != nil {
			t.Fatalf("RepublishLast() error = %v", err)
		}
		target, err := os.Readlink(last)
		if err != nil {
			t.Fatal(err)
		}
		if target != "2026-10-15" {
			t.Errorf("last -> %q, want relative 2026-10-15", target)
		}
	})

	t.Run("replaces existing link", func(t *testing.T) {
		if err := RepublishLast(newer, last); err != nil {
			t.Fatalf("RepublishLast() error = %v", err)
		}
		got, ok, err := LastTarget(last)
		if err != nil || !ok {
			t.Fatalf("LastTarget() = %q, %v, %v", got, ok, err)
		}
		if got != newer {
			t.Errorf("LastTarget() = %q, want %q", got, newer)
		}
	})

	t.Run("removal failure is reported", func(t *testing.T) {
		// A non-empty directory in place of the link cannot be removed.
		blocked := filepath.Join(root, "blocked")
		if err := os.MkdirAll(filepath.Join(blocked, "child"), 0o755); err != nil {
			t.Fatal(err)
		}
		err := RepublishLast(newer, blocked)
		if err == nil {
			t.Fatal("RepublishLast() should fail when the entry cannot be removed")
		}
		if !errors.Is(err, errors.ErrSymlinkRemoval) {
			t.Errorf("RepublishLast() error = %v, want ErrSymlinkRemoval", err)
		}
	})
}

func TestLastTarget_Missing(t *testing.T) {
	_, ok, err := LastTarget(filepath.Join(t.TempDir(), "last"))
	if err != nil || ok {
		t.Errorf("LastTarget(missing) ok = %v, err = %v; want false, nil", ok, err)
	}
}
