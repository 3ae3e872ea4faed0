package archive

import (
	"bytes"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	dasherr "github.com/tristendillon/dashc/core/errors"
	"github.com/tristendillon/dashc/core/models"
)

// ModTime is stamped on every container member so identical trees give
// identical archives. It is the earliest time a zip header can hold.
var ModTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Container zips members in the given order with deflate at best compression.
// Each directory gets an explicit entry ahead of its first member so that
// zipimport can resolve namespace packages.
func Container(members []models.Member) ([]byte, error) {
	if len(members) == 0 {
		return nil, dasherr.New(dasherr.EmptySource, "", "nothing to archive")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	seen := make(map[string]struct{}, len(members))
	dirs := make(map[string]struct{})
	for _, m := range members {
		if _, dup := seen[m.Path]; dup {
			return nil, dasherr.New(dasherr.NameCollision, m.Path, "member added twice")
		}
		seen[m.Path] = struct{}{}

		if err := writeParents(zw, m.Path, dirs); err != nil {
			return nil, err
		}

		header := &zip.FileHeader{
			Name:     m.Path,
			Method:   zip.Deflate,
			Modified: ModTime,
		}
		header.SetMode(0644)

		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, dasherr.Wrap(dasherr.EncodingError, m.Path, "failed to write header", err)
		}
		if _, err := w.Write(m.Data); err != nil {
			return nil, dasherr.Wrap(dasherr.EncodingError, m.Path, "failed to write content", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, dasherr.Wrap(dasherr.EncodingError, "", "failed to finalize container", err)
	}
	return buf.Bytes(), nil
}

func writeParents(zw *zip.Writer, memberPath string, written map[string]struct{}) error {
	parts := strings.Split(memberPath, "/")
	for i := 1; i < len(parts); i++ {
		dir := strings.Join(parts[:i], "/") + "/"
		if _, ok := written[dir]; ok {
			continue
		}
		written[dir] = struct{}{}

		header := &zip.FileHeader{
			Name:     dir,
			Method:   zip.Store,
			Modified: ModTime,
		}
		header.SetMode(fs.ModeDir | 0755)
		if _, err := zw.CreateHeader(header); err != nil {
			return dasherr.Wrap(dasherr.EncodingError, dir, "failed to write directory entry", err)
		}
	}
	return nil
}

// ReadContainer returns the file members of a container in archive order
func ReadContainer(data []byte) ([]models.Member, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, dasherr.Wrap(dasherr.EncodingError, "", "failed to open container", err)
	}

	members := make([]models.Member, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, dasherr.Wrap(dasherr.EncodingError, f.Name, "failed to open member", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, dasherr.Wrap(dasherr.EncodingError, f.Name, "failed to read member", err)
		}
		members = append(members, models.Member{Path: f.Name, Data: content})
	}
	return members, nil
}
