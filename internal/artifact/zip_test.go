package artifact

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestZipFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "patient_handler.py")
	content := []byte("def lambda_handler(event, context):\n    return {}\n")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := ZipFile(src, "patient_handler.py")
	if err != nil {
		t.Fatal(err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("output is not a valid zip: %v", err)
	}
	if len(zr.File) != 1 {
		t.Fatalf("zip contains %d entries, want 1", len(zr.File))
	}
	if zr.File[0].Name != "patient_handler.py" {
		t.Errorf("entry name = %s, want patient_handler.py", zr.File[0].Name)
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Error("zip entry content does not match source")
	}
}

func TestZipFileMissingSource(t *testing.T) {
	if _, err := ZipFile(filepath.Join(t.TempDir(), "missing.py"), "missing.py"); err == nil {
		t.Error("expected error for missing source file")
	}
}
