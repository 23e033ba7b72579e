package core

import (
	"errors"
	"io/fs"
	"os"
)

// ErrOutputLocked reports that the destination workbook is held open by another process.
var ErrOutputLocked = errors.New("output workbook is locked by another process")

// IsOutputLocked reports whether saving to path failed because the existing
// workbook there cannot be overwritten, rather than a general I/O failure.
func IsOutputLocked(err error, path string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrOutputLocked) || isSharingViolation(err) {
		return true
	}
	if !errors.Is(err, fs.ErrPermission) {
		return false
	}
	// denied creation of a new file is a directory problem, not a lock
	info, statErr := os.Stat(path)
	return statErr == nil && !info.IsDir()
}

// LockedMessage is the remediation text shown to the operator.
func LockedMessage(path string) string {
	return "output workbook " + path + " cannot be overwritten: it is open in another program or read-only; close it and try again"
}
