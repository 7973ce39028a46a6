// Package archive extracts and builds the zip archives moved around by the map
// upload pipeline and the featured-mod deployment task.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ExtractionLimit caps the total decompressed size of one archive.
const ExtractionLimit = 512 * 1024 * 1024

// Extract unpacks the zip file at src into the directory dest. Entry names are
// normalized and must stay below dest.
func Extract(src, dest string) error {
	reader, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("cannot open archive %s: %w", src, err)
	}
	defer reader.Close()

	var total int64
	for _, file := range reader.File {
		cleaned, err := cleanEntryName(file.Name)
		if err != nil {
			return err
		}

		target := filepath.Join(dest, filepath.FromSlash(cleaned))
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0700); err != nil {
				return err
			}
			continue
		}

		total += int64(file.UncompressedSize64)
		if total > ExtractionLimit {
			return fmt.Errorf("archive exceeds extraction limit")
		}

		if err := extractFile(file, target, ExtractionLimit-total+int64(file.UncompressedSize64)); err != nil {
			return err
		}
	}

	return nil
}

func cleanEntryName(name string) (string, error) {
	normalized := strings.ReplaceAll(name, "\\", "/")
	cleaned := path.Clean(normalized)
	if path.IsAbs(cleaned) || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("archive contains unsafe entry path %q", name)
	}

	return cleaned, nil
}

func extractFile(file *zip.File, target string, budget int64) error {
	if err := os.MkdirAll(filepath.Dir(target), 0700); err != nil {
		return err
	}

	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	written, err := io.Copy(out, io.LimitReader(rc, budget+1))
	if err != nil {
		return err
	}
	if written > budget {
		return fmt.Errorf("archive exceeds extraction limit")
	}

	return nil
}
