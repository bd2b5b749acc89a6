package util

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CreateCBZ packs files into a CBZ archive at output, in the order given.
// Entries are renamed 001.ext, 002.ext, ... so readers page through them
// in that order. The archive is written next to output first and renamed
// into place when complete.
func CreateCBZ(files []string, output string) (err error) {
	if len(files) == 0 {
		return fmt.Errorf("cbz: no files for %s", output)
	}

	tmp := output + PartialSuffix
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("cbz: %w", err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	z := zip.NewWriter(out)
	for i, file := range files {
		name := fmt.Sprintf("%03d%s", i+1, strings.ToLower(filepath.Ext(file)))
		if err = addFileToZip(z, file, name); err != nil {
			_ = z.Close()
			_ = out.Close()
			return fmt.Errorf("cbz: add %s: %w", file, err)
		}
	}

	if err = z.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("cbz: finalize: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("cbz: close: %w", err)
	}

	return os.Rename(tmp, output)
}

func addFileToZip(z *zip.Writer, file, name string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = name
	header.Method = zip.Deflate

	w, err := z.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, f)
	return err
}
