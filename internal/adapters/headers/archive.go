package headers

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
	"go.trai.ch/zerr"
)

// extractArchive unpacks a header bundle tarball into dest, stripping the
// single top-level directory the dist server wraps bundles in. Supported
// compressions: gzip, xz, zstd, or none.
func extractArchive(archivePath, dest string) error {
	f, err := os.Open(archivePath) //nolint:gosec // Path is our own temp file
	if err != nil {
		return zerr.Wrap(err, "failed to open bundle archive")
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	var r io.Reader = f
	switch {
	case strings.HasSuffix(archivePath, ".tar.gz") || strings.HasSuffix(archivePath, ".tgz"):
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return zerr.Wrap(err, "failed to create gzip reader")
		}
		defer gz.Close() //nolint:errcheck // Best effort close in defer
		r = gz
	case strings.HasSuffix(archivePath, ".tar.xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			return zerr.Wrap(err, "failed to create xz reader")
		}
		r = xr
	case strings.HasSuffix(archivePath, ".tar.zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return zerr.Wrap(err, "failed to create zstd reader")
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(archivePath, ".tar"):
		// No compression.
	default:
		return zerr.With(zerr.New("unsupported bundle archive format"), "path", archivePath)
	}

	absDest, err := filepath.Abs(dest)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve bundle destination")
	}
	if err := os.MkdirAll(absDest, dirPerm); err != nil {
		return zerr.Wrap(err, "failed to create bundle destination")
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return zerr.Wrap(err, "failed to read bundle archive")
		}

		name := stripTopDir(hdr.Name)
		if name == "" {
			continue
		}

		path := filepath.Join(absDest, name) //nolint:gosec // Checked below
		// Prevent path traversal out of the destination.
		if !strings.HasPrefix(path, absDest+string(os.PathSeparator)) {
			return zerr.With(zerr.New("illegal path in bundle archive"), "entry", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(path, dirPerm); err != nil {
				return zerr.Wrap(err, "failed to create bundle directory")
			}
		case tar.TypeReg:
			if err := writeEntry(tr, path, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			_ = os.Remove(path)
			if err := os.Symlink(hdr.Linkname, path); err != nil {
				return zerr.Wrap(err, "failed to create bundle symlink")
			}
		default:
			// PAX headers and other special entries carry no payload we need.
		}
	}
}

// stripTopDir removes the first path component of a tar entry name.
func stripTopDir(name string) string {
	name = strings.TrimPrefix(name, "./")
	idx := strings.IndexByte(name, '/')
	if idx < 0 {
		return ""
	}
	return name[idx+1:]
}

func writeEntry(tr io.Reader, path string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return zerr.Wrap(err, "failed to create bundle directory")
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode) //nolint:gosec // Path checked against dest
	if err != nil {
		return zerr.Wrap(err, "failed to create bundle file")
	}
	if _, err := io.Copy(out, tr); err != nil { //nolint:gosec // Bundle comes from the verified archive
		_ = out.Close()
		return zerr.Wrap(err, "failed to write bundle file")
	}
	if err := out.Close(); err != nil {
		return zerr.Wrap(err, "failed to close bundle file")
	}
	return nil
}
