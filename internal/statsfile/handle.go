// Package statsfile locates, reads and rewrites per-player statistics documents.
package statsfile

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Handle identifies one stats document on disk. It carries no state; whether
// the file exists or is readable is only discovered when it is read.
type Handle struct {
	Path string
	Name string
}

// NewHandle returns a Handle for path
func NewHandle(path string) Handle {
	return Handle{Path: path, Name: filepath.Base(path)}
}

// PlayerID parses the file stem as a player UUID. Servers name stats files
// after the player's UUID; anything else reports false.
func (h Handle) PlayerID() (uuid.UUID, bool) {
	stem := strings.TrimSuffix(h.Name, filepath.Ext(h.Name))
	id, err := uuid.Parse(stem)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (h Handle) String() string {
	return h.Path
}
