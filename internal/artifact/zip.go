// Package artifact builds the zip payloads used for Lambda code updates.
// Each handler ships as a single source file, so artifacts are built in
// memory and discarded after the update call.
package artifact

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
)

// ZipFile returns a zip archive containing src as a single entry named
// entryName (the filename Lambda expects, e.g. "patient_handler.py").
func ZipFile(src, entryName string) ([]byte, error) {
	content, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create(entryName)
	if err != nil {
		return nil, fmt.Errorf("failed to create zip entry: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		return nil, fmt.Errorf("failed to write zip entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize zip: %w", err)
	}

	return buf.Bytes(), nil
}
