// Package headers provisions the runtime header bundles native builds
// compile against.
package headers

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.trai.ch/rebuild/internal/core/domain"
	"go.trai.ch/rebuild/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
	"lukechampine.com/blake3"
)

// DefaultBaseURL is the dist server header bundles are fetched from unless
// overridden by options.
const DefaultBaseURL = "https://electronjs.org/headers"

const (
	dirPerm  = 0o755
	filePerm = 0o644

	// markerName holds the blake3 hex of the extracted bundle's archive and
	// marks a bundle directory as complete. Its absence means the directory
	// contents must not be trusted.
	markerName = ".ok"
)

var _ ports.HeaderProvisioner = (*Provisioner)(nil)

// Provisioner implements ports.HeaderProvisioner against an HTTP dist
// server. Bundles are cached under one directory per version-arch pair;
// first-time provisioning is serialized with a file lock so concurrent
// builds never observe a partial bundle.
type Provisioner struct {
	baseURL      string
	cacheDir     string
	client       *http.Client
	logger       ports.Logger
	showProgress bool
}

// NewProvisioner creates a Provisioner caching bundles under cacheDir.
func NewProvisioner(cacheDir string, logger ports.Logger, showProgress bool) *Provisioner {
	return &Provisioner{
		baseURL:  DefaultBaseURL,
		cacheDir: cacheDir,
		client: &http.Client{
			Timeout: 300 * time.Second, // generous total timeout for large bundles
		},
		logger:       logger,
		showProgress: showProgress,
	}
}

// SetBaseURL overrides the dist server base URL. Called once at bootstrap,
// before any Ensure.
func (p *Provisioner) SetBaseURL(url string) {
	p.baseURL = strings.TrimSuffix(url, "/")
}

// bundleDir returns the local directory for a target's bundle. Debug and
// compiler selection do not change the headers themselves, so the key is
// version plus arch only.
func (p *Provisioner) bundleDir(target domain.TargetIdentity) string {
	return filepath.Join(p.cacheDir, target.Version+"-"+string(target.Arch))
}

// Ensure makes the bundle for target available locally and returns its
// directory.
func (p *Provisioner) Ensure(ctx context.Context, target domain.TargetIdentity) (string, error) {
	dir := p.bundleDir(target)
	marker := filepath.Join(dir, markerName)

	// Fast path: the cache is read-mostly once provisioned.
	if _, err := os.Stat(marker); err == nil {
		return dir, nil
	}

	if err := os.MkdirAll(p.cacheDir, dirPerm); err != nil {
		return "", p.unavailable(err, target)
	}

	// Serialize first-time provisioning of this bundle across processes and
	// across concurrent module builds in this process.
	lockPath := dir + ".lock"
	lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, filePerm) //nolint:gosec // Lock lives in our cache dir
	if err != nil {
		return "", p.unavailable(err, target)
	}
	defer lock.Close() //nolint:errcheck // Best effort close in defer

	if err := unix.Flock(int(lock.Fd()), unix.LOCK_EX); err != nil {
		return "", p.unavailable(err, target)
	}
	defer unix.Flock(int(lock.Fd()), unix.LOCK_UN) //nolint:errcheck // Unlock also happens on close

	// Another holder may have completed the bundle while we waited.
	if _, err := os.Stat(marker); err == nil {
		return dir, nil
	}

	if err := p.provision(ctx, target, dir); err != nil {
		return "", p.unavailable(err, target)
	}
	return dir, nil
}

// provision downloads, verifies and extracts the bundle into dir.
// It must be called with the bundle lock held.
func (p *Provisioner) provision(ctx context.Context, target domain.TargetIdentity, dir string) error {
	name := fmt.Sprintf("node-v%s-headers.tar.gz", target.Version)
	url := fmt.Sprintf("%s/v%s/%s", p.baseURL, target.Version, name)

	p.logger.Info("fetching header bundle " + url)

	archivePath, archiveHash, err := p.download(ctx, url, name)
	if err != nil {
		return err
	}
	defer os.Remove(archivePath) //nolint:errcheck // Best effort temp cleanup

	if err := p.verifyUpstream(ctx, target, name, archivePath); err != nil {
		return err
	}

	// Extract next to the final location, then rename: a crash mid-extract
	// leaves only a .partial directory, never a half-populated bundle.
	partial := dir + ".partial"
	if err := os.RemoveAll(partial); err != nil {
		return zerr.Wrap(err, "failed to clear partial bundle dir")
	}
	if err := extractArchive(archivePath, partial); err != nil {
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		return zerr.Wrap(err, "failed to clear stale bundle dir")
	}
	if err := os.Rename(partial, dir); err != nil {
		return zerr.Wrap(err, "failed to move bundle into place")
	}

	if err := os.WriteFile(filepath.Join(dir, markerName), []byte(archiveHash+"\n"), filePerm); err != nil {
		return zerr.Wrap(err, "failed to write bundle marker")
	}
	return nil
}

// download fetches url to a temp file in the cache dir, returning the file
// path and the blake3 hex of its content. The temp file keeps the bundle's
// archive extension so extraction can pick the right decompressor.
func (p *Provisioner) download(ctx context.Context, url, name string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", zerr.Wrap(err, "failed to build bundle request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", zerr.Wrap(err, "failed to fetch bundle")
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	if resp.StatusCode != http.StatusOK {
		return "", "", zerr.With(zerr.New("unexpected dist server status"), "status", resp.StatusCode)
	}

	ext := ".tar.gz"
	if idx := strings.Index(name, ".tar"); idx >= 0 {
		ext = name[idx:]
	}
	tmp, err := os.CreateTemp(p.cacheDir, "bundle-*"+ext)
	if err != nil {
		return "", "", zerr.Wrap(err, "failed to create bundle temp file")
	}

	hasher := blake3.New(32, nil)
	var out io.Writer = io.MultiWriter(tmp, hasher)
	if p.showProgress {
		bar := progressbar.DefaultBytes(resp.ContentLength, "headers")
		out = io.MultiWriter(out, bar)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", "", zerr.Wrap(err, "failed to write bundle")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", "", zerr.Wrap(err, "failed to close bundle temp file")
	}

	return tmp.Name(), hex.EncodeToString(hasher.Sum(nil)), nil
}

// verifyUpstream checks the archive against the dist server's published
// SHASUMS256 list. A missing list is tolerated (older dist layouts); a
// present list with a mismatching digest is fatal.
func (p *Provisioner) verifyUpstream(ctx context.Context, target domain.TargetIdentity, name, archivePath string) error {
	url := fmt.Sprintf("%s/v%s/SHASUMS256.txt", p.baseURL, target.Version)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return zerr.Wrap(err, "failed to build checksum request")
	}

	resp, err := p.client.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		if resp != nil {
			_ = resp.Body.Close()
		}
		p.logger.Warn("checksum list unavailable for " + url + "; skipping upstream verification")
		return nil
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	want, err := findShasum(resp.Body, name)
	if err != nil {
		return err
	}
	if want == "" {
		p.logger.Warn("no checksum entry for " + name + "; skipping upstream verification")
		return nil
	}

	got, err := sha256File(archivePath)
	if err != nil {
		return err
	}
	if got != want {
		err := zerr.With(zerr.New("bundle checksum mismatch"), "want", want)
		return zerr.With(err, "got", got)
	}
	return nil
}

// findShasum scans a SHASUMS256 list ("<hex>  <filename>" per line) for the
// entry matching name.
func findShasum(r io.Reader, name string) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		if strings.TrimPrefix(fields[1], "*") == name {
			return strings.ToLower(fields[0]), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", zerr.Wrap(err, "failed to read checksum list")
	}
	return "", nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // Path is our own temp file
	if err != nil {
		return "", zerr.Wrap(err, "failed to open bundle for verification")
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", zerr.Wrap(err, "failed to hash bundle")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (p *Provisioner) unavailable(err error, target domain.TargetIdentity) error {
	werr := zerr.With(domain.ErrHeadersUnavailable, "cause", err.Error())
	return zerr.With(werr, "target", target.String())
}
