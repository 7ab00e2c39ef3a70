package statsfile

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/hellominers/statsupdater/internal/errors"
)

// BackupSuffix is appended to the document name inside the backup directory.
const BackupSuffix = ".zst"

// Backup stores zstd-compressed copies of legacy documents before they are
// overwritten.
type Backup struct {
	dir string

	once    sync.Once
	encoder *zstd.Encoder
	initErr error
}

// NewBackup returns a Backup writing into dir. The directory is created on first use.
func NewBackup(dir string) *Backup {
	return &Backup{dir: dir}
}

func (b *Backup) init() error {
	b.once.Do(func() {
		if err := os.MkdirAll(b.dir, 0o750); err != nil {
			b.initErr = err
			return
		}
		b.encoder, b.initErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	})
	return b.initErr
}

// Save writes the compressed original bytes of h to <dir>/<name>.zst.
func (b *Backup) Save(h Handle, original []byte) error {
	if err := b.init(); err != nil {
		return errors.New(err).
			Category(errors.CategoryBackup).
			Context("operation", "init-backup").
			Context("dir", b.dir).
			Build()
	}

	compressed := b.encoder.EncodeAll(original, make([]byte, 0, len(original)/2))
	if err := writeFileAtomic(b.PathFor(h), compressed, 0o600); err != nil {
		return errors.New(err).
			Category(errors.CategoryBackup).
			Context("operation", "write-backup").
			FileContext(h.Path, int64(len(compressed))).
			Build()
	}
	return nil
}

// PathFor returns where the backup of h is stored.
func (b *Backup) PathFor(h Handle) string {
	return filepath.Join(b.dir, h.Name+BackupSuffix)
}

// Close releases the encoder.
func (b *Backup) Close() error {
	if b.encoder != nil {
		return b.encoder.Close()
	}
	return nil
}

// ReadBackup decompresses a backup written by Save.
func ReadBackup(path string) ([]byte, error) {
	compressed, err := os.ReadFile(path) //nolint:gosec // path built from backup dir
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "read-backup").
			Build()
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryBackup).Build()
	}
	defer decoder.Close()

	data, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryBackup).
			Context("operation", "decode-backup").
			Build()
	}
	return data, nil
}
