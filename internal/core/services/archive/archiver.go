// Package archive turns closed, rotated log segments into compressed archives.
//
// The archiver owns a rotated segment from the moment it is handed over. It
// writes "<segment>.<ext>" and removes the plain segment only after the
// compressed copy is fully written, synced and (optionally) verified. If
// compression fails the plain segment stays on disk so no log data is lost.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	fsadapter "github.com/iamNilotpal/gzlog/internal/adapters/fs"
	"github.com/iamNilotpal/gzlog/internal/adapters/metrics"
	"github.com/iamNilotpal/gzlog/internal/core/ports"
	"github.com/iamNilotpal/gzlog/pkg/checksum"
	logerrors "github.com/iamNilotpal/gzlog/pkg/errors"
)

// ErrVerifyMismatch is returned when a freshly written archive does not
// decompress to the bytes of its source.
var ErrVerifyMismatch = errors.New("archive content does not match source")

// Options configures an Archiver.
type Options struct {
	// Compressor writes the archive. Required.
	Compressor ports.Compressor

	// FS performs all file operations. Defaults to the local filesystem.
	FS ports.FileSystem

	// Verify decompresses every archive after writing it and compares
	// checksums before the source is deleted.
	Verify bool

	Metrics *metrics.Metrics
	Logger  *zap.SugaredLogger
}

// Archiver compresses rotated segments. It is safe for concurrent use; two
// Archive calls for the same path are serialized.
type Archiver struct {
	fs         ports.FileSystem
	compressor ports.Compressor
	verify     bool
	metrics    *metrics.Metrics
	logger     *zap.SugaredLogger

	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

// New creates an Archiver.
func New(opts Options) (*Archiver, error) {
	if opts.Compressor == nil {
		return nil, logerrors.NewValidationError("compressor", nil, fmt.Errorf("compressor is required"))
	}
	if opts.FS == nil {
		opts.FS = fsadapter.NewLocalFileSystem()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	return &Archiver{
		fs:         opts.FS,
		verify:     opts.Verify,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		compressor: opts.Compressor,
		locks:      make(map[string]*pathLock),
	}, nil
}

// Extension returns the archive suffix without the leading dot.
func (a *Archiver) Extension() string {
	return a.compressor.Extension()
}

// ArchivePath returns the archive path for a rotated segment.
func (a *Archiver) ArchivePath(path string) string {
	return path + "." + a.compressor.Extension()
}

// Archive compresses path into ArchivePath(path) and removes path.
//
// A path that does not exist is a no-op. An existing archive twin (left by an
// earlier attempt whose cleanup failed) is overwritten. Errors are
// *errors.LogError values with category compression or cleanup.
func (a *Archiver) Archive(ctx context.Context, path string) error {
	unlock := a.lockPath(path)
	defer unlock()

	if exists, err := a.fs.Exists(path); err != nil {
		a.metrics.Archive(metrics.ResultFailed)
		return logerrors.NewLogError(logerrors.ErrorCompression, "stat", path, err)
	} else if !exists {
		return nil
	}

	// Hold an advisory lock on the rotated file for the whole task so no other
	// archiver, in this process or another, works on it concurrently. The file
	// is opened read-only and never created.
	fileLock := flock.New(path, flock.SetFlag(os.O_RDONLY))
	locked, err := fileLock.TryLockContext(ctx, DefaultLockRetryDelay)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		a.metrics.Archive(metrics.ResultFailed)
		return logerrors.NewLogError(logerrors.ErrorCompression, "lock", path, err)
	}
	if !locked {
		a.metrics.Archive(metrics.ResultFailed)
		return logerrors.NewLogError(logerrors.ErrorCompression, "lock", path, fmt.Errorf("file is locked"))
	}
	defer fileLock.Unlock()

	dest := a.ArchivePath(path)
	sum, size, err := a.compress(ctx, path, dest)
	if err != nil {
		// The partial archive is not trusted; the plain segment is kept.
		if rmErr := a.fs.Remove(dest); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			a.logger.Warnw("failed to remove partial archive", "path", dest, "error", rmErr)
		}
		a.metrics.Archive(metrics.ResultFailed)
		return logerrors.NewLogError(logerrors.ErrorCompression, "compress", path, err)
	}

	if a.verify {
		if err := a.verifyArchive(dest, sum, size); err != nil {
			if rmErr := a.fs.Remove(dest); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				a.logger.Warnw("failed to remove unverified archive", "path", dest, "error", rmErr)
			}
			a.metrics.Archive(metrics.ResultFailed)
			return logerrors.NewLogError(logerrors.ErrorCompression, "verify", path, err)
		}
	}

	if err := a.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		a.metrics.Archive(metrics.ResultCleanup)
		return logerrors.NewLogError(logerrors.ErrorCleanup, "remove", path, err)
	}

	a.metrics.Archive(metrics.ResultOK)
	a.logger.Debugw("segment archived", "source", path, "archive", dest, "bytes", size)
	return nil
}

// compress streams src through the codec into dest and returns the CRC-32 and
// length of the uncompressed bytes. dest is synced before returning.
func (a *Archiver) compress(ctx context.Context, src, dest string) (uint32, int64, error) {
	in, err := a.fs.Open(src)
	if err != nil {
		return 0, 0, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := a.fs.Create(dest)
	if err != nil {
		return 0, 0, fmt.Errorf("create archive: %w", err)
	}

	codec, err := a.compressor.NewWriter(out)
	if err != nil {
		out.Close()
		return 0, 0, fmt.Errorf("create codec: %w", err)
	}

	hash := checksum.New()
	reader := io.TeeReader(&contextReader{ctx: ctx, r: in}, hash)
	buf := make([]byte, DefaultCopyBufferSize)

	n, err := io.CopyBuffer(codec, reader, buf)
	if err != nil {
		codec.Close()
		out.Close()
		return 0, n, fmt.Errorf("write archive: %w", err)
	}

	if err := codec.Close(); err != nil {
		out.Close()
		return 0, n, fmt.Errorf("finish archive: %w", err)
	}

	if err := out.Sync(); err != nil {
		out.Close()
		return 0, n, fmt.Errorf("sync archive: %w", err)
	}

	if err := out.Close(); err != nil {
		return 0, n, fmt.Errorf("close archive: %w", err)
	}

	return hash.Sum32(), n, nil
}

func (a *Archiver) verifyArchive(dest string, want uint32, wantSize int64) error {
	in, err := a.fs.Open(dest)
	if err != nil {
		return err
	}
	defer in.Close()

	r, err := a.compressor.NewReader(in)
	if err != nil {
		return err
	}
	defer r.Close()

	got, size, err := checksum.Reader(r)
	if err != nil {
		return err
	}
	if got != want || size != wantSize {
		return ErrVerifyMismatch
	}
	return nil
}

func (a *Archiver) lockPath(path string) func() {
	a.mu.Lock()
	l, ok := a.locks[path]
	if !ok {
		l = &pathLock{}
		a.locks[path] = l
	}
	l.refs++
	a.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		a.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(a.locks, path)
		}
		a.mu.Unlock()
	}
}

// contextReader stops a long copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
