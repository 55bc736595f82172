// Package zip packs analysis outputs into a single archive.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
)

type Entry struct {
	Name    string
	Data    []byte
	ModTime time.Time
}

// storedExt lists formats that are already compressed and are stored as-is.
var storedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

// Archive writes entries in order. Text entries are deflated with the
// klauspost encoder; images are stored.
func Archive(entries []Entry) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	for _, entry := range entries {
		name := strings.TrimLeft(path.Clean(strings.ReplaceAll(entry.Name, "\\", "/")), "/")
		if name == "" || name == "." || strings.HasPrefix(name, "../") {
			return nil, fmt.Errorf("zip: invalid entry name %q", entry.Name)
		}
		header := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if storedExt[strings.ToLower(path.Ext(name))] {
			header.Method = zip.Store
		}
		if !entry.ModTime.IsZero() {
			header.Modified = entry.ModTime
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", name, err)
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: finalize: %w", err)
	}
	return buf.Bytes(), nil
}
