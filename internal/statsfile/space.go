package statsfile

import (
	"os"
	"path"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/hellominers/statsupdater/internal/errors"
)

// backupSpaceBuffer is kept free on the backup volume on top of the estimate.
const backupSpaceBuffer = 16 * 1024 * 1024

// MatchingSize returns the combined size of the files in dir whose names match pattern.
func MatchingSize(dir, pattern string) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "size-stats-dir").
			Context("dir", dir).
			Build()
	}

	var total int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := path.Match(pattern, e.Name()); !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed since the listing
			continue
		}
		total += info.Size()
	}
	return total, nil
}

// EnsureBackupSpace fails when the volume holding dir has less than need
// bytes plus a small buffer free. dir does not have to exist yet; its
// nearest existing parent is checked.
func EnsureBackupSpace(dir string, need uint64) error {
	probe := existingParent(dir)
	usage, err := disk.Usage(probe)
	if err != nil {
		return errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "check-backup-space").
			Context("dir", probe).
			Build()
	}

	required := need + backupSpaceBuffer
	if usage.Free < required {
		return errors.Newf("not enough disk space for backups: need %s, have %s",
			humanize.Bytes(required), humanize.Bytes(usage.Free)).
			Category(errors.CategoryBackup).
			Context("dir", probe).
			Build()
	}
	return nil
}

func existingParent(dir string) string {
	p, err := filepath.Abs(dir)
	if err != nil {
		p = filepath.Clean(dir)
	}
	for {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			return p
		}
		p = parent
	}
}
