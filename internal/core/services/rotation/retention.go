package rotation

import (
	"errors"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/iamNilotpal/gzlog/internal/adapters/compression"
	logerrors "github.com/iamNilotpal/gzlog/pkg/errors"
)

// rotatedToken matches what follows "<active>." in a rotation name: unix
// seconds with an optional counter, or a time policy date, each with an
// optional ".N" disambiguator.
var rotatedToken = regexp.MustCompile(`^(\d+(-\d+)?|\d{4}-\d{2}-\d{2}(_\d{2}(-\d{2}){0,2})?)(\.\d+)?$`)

type backup struct {
	path    string
	modTime time.Time
}

// prune removes the oldest archives of this lineage so that at most
// BackupCount remain. Uncompressed rotated segments are never pruned while an
// archiver is configured: they are either still being archived or were kept
// after a failed compression.
func (f *File) prune() {
	if f.backups <= 0 {
		return
	}

	f.pruneMu.Lock()
	defer f.pruneMu.Unlock()

	backups, err := f.listBackups()
	if err != nil {
		f.onError(logerrors.NewLogError(logerrors.ErrorRetention, "list", f.path, err))
		return
	}

	if len(backups) <= f.backups {
		return
	}

	removed := 0
	for _, b := range backups[:len(backups)-f.backups] {
		if err := f.fs.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			f.onError(logerrors.NewLogError(logerrors.ErrorRetention, "remove", b.path, err))
			continue
		}
		removed++
	}
	f.metrics.Pruned(removed)
}

// listBackups returns this lineage's backups, oldest first.
func (f *File) listBackups() ([]backup, error) {
	matches, err := f.fs.Glob(f.path + ".*")
	if err != nil {
		return nil, err
	}

	want := ""
	if f.archive != nil {
		want = f.archive.Extension()
	}

	backups := make([]backup, 0, len(matches))
	for _, match := range matches {
		ext, ok := f.rotatedName(match)
		if !ok || ext != want {
			continue
		}

		stat, err := f.fs.Stat(match)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if !stat.Mode().IsRegular() {
			continue
		}
		backups = append(backups, backup{path: match, modTime: stat.ModTime()})
	}

	sort.Slice(backups, func(i, j int) bool {
		if backups[i].modTime.Equal(backups[j].modTime) {
			return backups[i].path < backups[j].path
		}
		return backups[i].modTime.Before(backups[j].modTime)
	})

	return backups, nil
}

// rotatedName reports whether match was produced by rotating this lineage and
// returns its archive extension, empty for a plain segment. Files of other
// streams sharing the prefix ("main.log.log" next to "main.log") never match.
func (f *File) rotatedName(match string) (ext string, ok bool) {
	if filepath.Dir(match) != filepath.Dir(f.path) {
		return "", false
	}

	name, found := strings.CutPrefix(match, f.path+".")
	if !found {
		return "", false
	}

	if _, archived := compression.ForPath(name); archived {
		ext = strings.TrimPrefix(filepath.Ext(name), ".")
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	return ext, rotatedToken.MatchString(name)
}
