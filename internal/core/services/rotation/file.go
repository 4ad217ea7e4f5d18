// Package rotation owns the active log segment of a lineage: it appends
// formatted records, decides when to rotate, renames the active file to its
// rotation name and hands the rotated segment to an archiver.
package rotation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	fsadapter "github.com/iamNilotpal/gzlog/internal/adapters/fs"
	"github.com/iamNilotpal/gzlog/internal/adapters/metrics"
	"github.com/iamNilotpal/gzlog/internal/core/domain"
	"github.com/iamNilotpal/gzlog/internal/core/ports"
	logerrors "github.com/iamNilotpal/gzlog/pkg/errors"
)

var (
	// ErrClosed is returned by writes and manual rotations after Close.
	ErrClosed = errors.New("log file is closed")

	// maxDisambiguation bounds the search for a free rotation name.
	maxDisambiguation = 10000
)

// Options configures an active segment.
type Options struct {
	// Path of the active file. Required.
	Path string

	// Trigger decides when to rotate. Nil never rotates automatically.
	Trigger Trigger

	// Archiver receives every rotated segment. Nil keeps rotated segments
	// uncompressed.
	Archiver ports.Archiver

	// AsyncArchive runs archival on a background goroutine. Close waits
	// for pending archives.
	AsyncArchive bool

	// BackupCount is the number of archives retained after each
	// archival. Zero keeps all of them.
	BackupCount int

	// RecoverPending archives rotated segments left uncompressed by an
	// earlier run when the file is opened.
	RecoverPending bool

	// ErrorHandler receives rotation, archival and retention failures.
	ErrorHandler func(error)

	FS      ports.FileSystem
	Metrics *metrics.Metrics
	Clock   func() time.Time
}

// File is the active segment of one lineage. It implements
// zapcore.WriteSyncer. Writes and rotations are serialized by a single mutex
// held across the whole write-and-possibly-rotate sequence, so no writer can
// observe the active path missing.
type File struct {
	path    string
	label   string
	trigger Trigger
	archive ports.Archiver
	async   bool
	backups int

	fs      ports.FileSystem
	metrics *metrics.Metrics
	onError func(error)
	now     func() time.Time

	mu           sync.Mutex
	file         *os.File
	size         int64
	createdAt    time.Time
	rotations    uint64
	lastRotation time.Time
	closed       bool

	pruneMu sync.Mutex
	pending errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc
}

// Open opens (or creates) the active file at opts.Path, creating its
// directory if needed.
func Open(opts Options) (*File, error) {
	if opts.Path == "" {
		return nil, logerrors.NewValidationError("path", opts.Path, fmt.Errorf("path is required"))
	}
	if opts.BackupCount < 0 {
		return nil, logerrors.NewValidationError("backup_count", opts.BackupCount, fmt.Errorf("must not be negative"))
	}
	if opts.FS == nil {
		opts.FS = fsadapter.NewLocalFileSystem()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.ErrorHandler == nil {
		opts.ErrorHandler = func(error) {}
	}

	path, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("error resolving log path : %w", err)
	}

	if err := opts.FS.MkdirAll(filepath.Dir(path), DefaultDirPermission); err != nil {
		return nil, fmt.Errorf("error creating log directory : %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &File{
		ctx:     ctx,
		path:    path,
		cancel:  cancel,
		fs:      opts.FS,
		now:     opts.Clock,
		async:   opts.AsyncArchive,
		label:   filepath.Base(path),
		trigger: opts.Trigger,
		archive: opts.Archiver,
		backups: opts.BackupCount,
		metrics: opts.Metrics,
		onError: opts.ErrorHandler,
	}

	if err := f.openLocked(false); err != nil {
		cancel()
		return nil, err
	}

	if opts.RecoverPending && f.archive != nil {
		f.recoverPending()
	}

	return f, nil
}

// Path returns the canonical active path.
func (f *File) Path() string {
	return f.path
}

// Info returns a snapshot of the active segment.
func (f *File) Info() domain.SegmentInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.infoLocked()
}

// Write appends p to the active segment. The rotation condition is evaluated
// before the write (overdue time rollovers and retries of a failed rotation)
// and after it (size threshold). Rotation and archival failures are reported
// to the error handler and never returned here.
func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrClosed
	}

	f.maybeRotateLocked()

	n, err := f.file.Write(p)
	f.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("failed to write log file : %w", err)
	}

	f.maybeRotateLocked()
	return n, nil
}

// Sync commits the active file to stable storage. It is a no-op after Close.
func (f *File) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	return f.file.Sync()
}

// Rotate retires the active segment immediately, regardless of the trigger.
// Unlike automatic rotation it returns the rename failure, if any.
func (f *File) Rotate() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	return f.rotateLocked(f.now())
}

// Close syncs and closes the active file, then waits for background
// archival to finish.
func (f *File) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true

	err := multierr.Combine(f.file.Sync(), f.file.Close())
	f.mu.Unlock()

	f.pending.Wait()
	f.cancel()
	return err
}

func (f *File) infoLocked() domain.SegmentInfo {
	return domain.SegmentInfo{
		Path:         f.path,
		Size:         f.size,
		CreatedAt:    f.createdAt,
		Rotations:    f.rotations,
		LastRotation: f.lastRotation,
	}
}

func (f *File) maybeRotateLocked() {
	if f.trigger == nil {
		return
	}

	now := f.now()
	if f.trigger.ShouldRotate(f.infoLocked(), now) {
		if err := f.rotateLocked(now); err != nil {
			f.onError(err)
		}
	}
}

// openLocked opens the active path for appending. A pre-existing file keeps
// its size and its modification time as the segment start, unless fresh is
// set (the file was just created by a rotation).
func (f *File) openLocked(fresh bool) error {
	file, err := f.fs.OpenAppend(f.path, DefaultFilePermission)
	if err != nil {
		return fmt.Errorf("error opening log file : %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		return multierr.Append(fmt.Errorf("error getting file stats : %w", err), file.Close())
	}

	now := f.now()
	f.file = file
	f.size = stat.Size()
	f.createdAt = now
	if !fresh && stat.Size() > 0 {
		f.createdAt = stat.ModTime()
	}

	if f.trigger != nil {
		f.trigger.Reset(f.infoLocked(), now)
	}
	return nil
}

// rotateLocked performs one rotation:
//  1. picks a destination that collides with neither a rotated segment nor an archive
//  2. renames the active file in a single rename(2)
//  3. opens a fresh file at the active path
//  4. hands the destination to the archiver
//
// If the rename fails the active file is left untouched and keeps receiving
// writes; the next trigger evaluation retries.
func (f *File) rotateLocked(now time.Time) error {
	if err := f.file.Sync(); err != nil {
		f.metrics.Rotation(f.label, metrics.ResultFailed)
		return logerrors.NewLogError(logerrors.ErrorRotation, "sync", f.path, err)
	}

	dest, err := f.destination(now)
	if err != nil {
		f.metrics.Rotation(f.label, metrics.ResultFailed)
		return logerrors.NewLogError(logerrors.ErrorRotation, "name", f.path, err)
	}

	if err := f.fs.Rename(f.path, dest); err != nil {
		f.metrics.Rotation(f.label, metrics.ResultFailed)
		return logerrors.NewLogError(logerrors.ErrorRotation, "rename", f.path, err)
	}

	retired := f.file
	if err := f.openLocked(true); err != nil {
		// Put the old segment back so the active path exists again and the
		// still-open handle keeps pointing at it.
		if rbErr := f.fs.Rename(dest, f.path); rbErr != nil {
			err = multierr.Append(err, rbErr)
		}
		f.file = retired
		f.metrics.Rotation(f.label, metrics.ResultFailed)
		return logerrors.NewLogError(logerrors.ErrorRotation, "reopen", f.path, err)
	}

	if err := retired.Close(); err != nil {
		f.onError(logerrors.NewLogError(logerrors.ErrorStorage, "close", dest, err))
	}

	f.rotations++
	f.lastRotation = now
	f.metrics.Rotation(f.label, metrics.ResultOK)

	f.handOff(dest)
	return nil
}

// destination returns "<active>.<token>", adding a ".N" suffix when that
// name or its archive already exists.
func (f *File) destination(now time.Time) (string, error) {
	token := f.path + "." + f.triggerToken(now)

	candidate := token
	for n := 1; n <= maxDisambiguation; n++ {
		taken, err := f.taken(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = token + "." + strconv.Itoa(n)
	}

	return "", fmt.Errorf("no free rotation name for %s", token)
}

func (f *File) triggerToken(now time.Time) string {
	if f.trigger == nil {
		return strconv.FormatInt(now.Unix(), 10)
	}
	return f.trigger.Token(now)
}

func (f *File) taken(candidate string) (bool, error) {
	exists, err := f.fs.Exists(candidate)
	if err != nil || exists {
		return exists, err
	}
	if f.archive == nil {
		return false, nil
	}
	return f.fs.Exists(candidate + "." + f.archive.Extension())
}

// handOff passes a rotated segment to the archiver, in line or on the
// background group. Without an archiver only retention runs.
func (f *File) handOff(rotated string) {
	task := func() error {
		if f.archive != nil {
			if err := f.archive.Archive(f.ctx, rotated); err != nil {
				f.onError(err)
				return nil
			}
		}
		f.prune()
		return nil
	}

	if f.async {
		f.pending.Go(task)
		return
	}
	task()
}

// recoverPending archives rotated segments that an earlier run left behind.
func (f *File) recoverPending() {
	matches, err := f.fs.Glob(f.path + ".*")
	if err != nil {
		f.onError(logerrors.NewLogError(logerrors.ErrorCompression, "recover", f.path, err))
		return
	}

	// Archives of any codec are done; only plain rotated segments are pending.
	for _, match := range matches {
		if ext, ok := f.rotatedName(match); ok && ext == "" {
			f.handOff(match)
		}
	}
}
