package archive

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Compress writes the contents of srcDir into the given writer as a zip
// archive. Entry names are relative to the parent of srcDir, so extracting the
// result reproduces the directory itself.
func Compress(srcDir string, w io.Writer) error {
	zw := zip.NewWriter(w)
	base := filepath.Dir(srcDir)

	err := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}

		entry, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		in, err := os.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()

		_, err = io.Copy(entry, in)
		return err
	})
	if err != nil {
		zw.Close()
		return err
	}

	return zw.Close()
}
