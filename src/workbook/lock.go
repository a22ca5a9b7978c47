package workbook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var ErrFileLocked = errors.New("workbook: file is open in another program")

// ownerFile is the marker spreadsheet programs create next to a workbook they
// have open.
func ownerFile(path string) string {
	return filepath.Join(filepath.Dir(path), "~$"+filepath.Base(path))
}

func checkLocked(path string) error {
	if _, err := os.Stat(ownerFile(path)); err == nil {
		return fmt.Errorf("checkLocked: %w: %s", ErrFileLocked, path)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil && isLockError(err):
		return fmt.Errorf("checkLocked: %w: %s", ErrFileLocked, path)
	case err != nil:
		return fmt.Errorf("checkLocked: %w", err)
	}

	return f.Close()
}

func isLockError(err error) bool {
	return errors.Is(err, fs.ErrPermission) || isSharingViolation(err)
}
