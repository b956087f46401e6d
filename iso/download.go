package iso

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/projecteru2/core/log"

	"github.com/circuitsable/win2go/progress"
	downloadProgress "github.com/circuitsable/win2go/progress/download"
	"github.com/circuitsable/win2go/utils"
)

const (
	// downloadTimeout bounds a whole ISO download.
	downloadTimeout = 4 * time.Hour

	// maxDownloadBytes is the maximum allowed download size (20 GiB),
	// applied to both the transferred and the decompressed stream.
	maxDownloadBytes int64 = 20 << 30

	// report every 1 MiB
	progressInterval = 1 << 20

	defaultFileName = "windows.iso"
)

// Result describes a finished download.
type Result struct {
	Path   string
	SHA256 string // of the transferred bytes
	Size   int64  // of the written file
	// Reused is true when the target file already existed and nothing was
	// fetched.
	Reused bool
}

// Download fetches rawURL into dir. Compressed payloads (.gz, .zst, .bz2)
// are decoded on the fly. The file appears at its final path only once
// complete.
func Download(ctx context.Context, rawURL, dir string, tracker progress.Tracker) (*Result, error) {
	logger := log.WithFunc("iso.Download")
	tracker = progress.OrNop(tracker)

	name, codec, err := targetName(rawURL)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureDirs(dir); err != nil {
		return nil, err
	}
	dst := filepath.Join(dir, name)
	if utils.ValidFile(dst) {
		logger.Infof(ctx, "%s already exists, skipping download", dst)
		info, _ := os.Stat(dst)
		return &Result{Path: dst, Size: info.Size(), Reused: true}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP GET %s: status %s", rawURL, resp.Status)
	}
	if resp.ContentLength > maxDownloadBytes {
		return nil, fmt.Errorf("download %s: size %d exceeds max (%d bytes)", rawURL, resp.ContentLength, maxDownloadBytes)
	}

	tracker.OnEvent(downloadProgress.Event{
		Phase:      downloadProgress.PhaseStart,
		BytesTotal: resp.ContentLength,
		Path:       dst,
	})

	out, err := utils.CreateAtomic(dst)
	if err != nil {
		return nil, err
	}
	defer out.Abort()

	h := sha256.New()
	pr := &progressReader{
		r:       io.TeeReader(io.LimitReader(resp.Body, maxDownloadBytes+1), h),
		total:   resp.ContentLength,
		path:    dst,
		tracker: tracker,
	}

	var payload io.Reader = pr
	if codec != "" {
		tracker.OnEvent(downloadProgress.Event{Phase: downloadProgress.PhaseDecompress, BytesTotal: resp.ContentLength, Path: dst})
		dec, err := newDecoder(codec, pr)
		if err != nil {
			return nil, fmt.Errorf("open %s stream: %w", codec, err)
		}
		defer dec.Close() //nolint:errcheck
		payload = dec
	}

	written, err := io.Copy(out, io.LimitReader(payload, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	if codec != "" {
		// Decoders may stop at the end of the last frame.
		if _, err := io.Copy(io.Discard, pr); err != nil {
			return nil, fmt.Errorf("download %s: %w", rawURL, err)
		}
	}
	if written > maxDownloadBytes || pr.read > maxDownloadBytes {
		return nil, fmt.Errorf("download %s: exceeded max size (%d bytes)", rawURL, maxDownloadBytes)
	}
	if resp.ContentLength > 0 && pr.read != resp.ContentLength {
		return nil, fmt.Errorf("download %s: short body: got %d of %d bytes", rawURL, pr.read, resp.ContentLength)
	}
	if err := out.Commit(0o644); err != nil { //nolint:gosec
		return nil, err
	}

	digest := hex.EncodeToString(h.Sum(nil))
	tracker.OnEvent(downloadProgress.Event{
		Phase:      downloadProgress.PhaseDone,
		BytesTotal: resp.ContentLength,
		BytesDone:  pr.read,
		Path:       dst,
	})
	logger.Infof(ctx, "downloaded %s -> %s (sha256:%s)", rawURL, dst, digest)
	return &Result{Path: dst, SHA256: digest, Size: written}, nil
}

// targetName derives the local file name and compression codec from the
// URL path.
func targetName(rawURL string) (name, codec string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	name = path.Base(u.Path)
	for ext, c := range map[string]string{".gz": "gzip", ".zst": "zstd", ".bz2": "bzip2"} {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			name, codec = name[:len(name)-len(ext)], c
			break
		}
	}
	if name == "" || name == "." || name == "/" {
		name = defaultFileName
	}
	if !strings.EqualFold(filepath.Ext(name), ".iso") {
		name += ".iso"
	}
	return name, codec, nil
}

func newDecoder(codec string, r io.Reader) (io.ReadCloser, error) {
	switch codec {
	case "gzip":
		return gzip.NewReader(r)
	case "zstd":
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case "bzip2":
		return bzip2.NewReader(r, nil)
	default:
		return nil, fmt.Errorf("unknown codec %q", codec)
	}
}

// progressReader counts transferred bytes and periodically emits events.
type progressReader struct {
	r          io.Reader
	read       int64
	total      int64
	path       string
	tracker    progress.Tracker
	lastReport int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.read += int64(n)
	if pr.read-pr.lastReport >= progressInterval {
		pr.lastReport = pr.read
		pr.tracker.OnEvent(downloadProgress.Event{
			Phase:      downloadProgress.PhaseProgress,
			BytesTotal: pr.total,
			BytesDone:  pr.read,
			Path:       pr.path,
		})
	}
	return n, err
}
