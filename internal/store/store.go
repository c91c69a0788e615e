package store

import (
	"os"
	"path/filepath"
	"strings"
)

const sqliteFileName = "mailtasks.sqlite"

// Store is the local state directory: config.json, the sqlite database
// (session credential, activity log) and the TUI state file.
type Store struct {
	Dir string
}

// Open returns the store rooted at the config dir.
func Open() (Store, error) {
	dir, err := ConfigDir()
	if err != nil {
		return Store{}, err
	}
	return Store{Dir: dir}, nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o700)
}

func (s Store) sqlitePath() string {
	return filepath.Join(filepath.Clean(s.Dir), sqliteFileName)
}

func (s Store) valid() bool {
	return strings.TrimSpace(s.Dir) != ""
}
