package datasets

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name string, mtime time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("patient_id,adherence\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverOrdersByModTimeDescending(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeFile(t, dir, "oldest.csv", base)
	writeFile(t, dir, "middle.csv", base.Add(10*time.Minute))
	writeFile(t, dir, "newest.csv", base.Add(20*time.Minute))

	got, err := Discover(dir, ".csv")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"newest.csv", "middle.csv", "oldest.csv"}
	if len(got) != len(want) {
		t.Fatalf("Discover() returned %d candidates, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("candidate[%d] = %s, want %s", i, got[i].Name, name)
		}
	}
}

func TestDiscoverCapsAtFive(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 8; i++ {
		writeFile(t, dir, filepath.Base(filepath.Join(dir, "data"+string(rune('a'+i))+".csv")), base.Add(time.Duration(i)*time.Minute))
	}

	got, err := Discover(dir, ".csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != MaxCandidates {
		t.Errorf("Discover() returned %d candidates, want %d", len(got), MaxCandidates)
	}
	// The newest file must survive the cap.
	if got[0].Name != "datah.csv" {
		t.Errorf("candidate[0] = %s, want datah.csv", got[0].Name)
	}
}

func TestDiscoverFiltersExtension(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeFile(t, dir, "adherence.csv", now)
	writeFile(t, dir, "notes.txt", now)
	writeFile(t, dir, "upper.CSV", now)

	got, err := Discover(dir, ".csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Discover() returned %d candidates, want 2", len(got))
	}
	for _, c := range got {
		if c.Name == "notes.txt" {
			t.Error("Discover() included non-csv file")
		}
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	got, err := Discover(filepath.Join(t.TempDir(), "nope"), ".csv")
	if err != nil {
		t.Fatalf("Discover() on missing dir returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Discover() on missing dir returned %d candidates", len(got))
	}
}
