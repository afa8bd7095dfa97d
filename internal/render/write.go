package render

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hpungsan/shard/internal/errors"
)

// WriteFile writes data to path via a temp file and rename, so a failed export
// never clobbers an existing file with a partial one.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}

	// Close before rename (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink destination.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}

	if err := os.Rename(tempPath, path); err != nil {
		return errors.NewInternal(fmt.Errorf("finalize export: %w", err))
	}

	success = true
	return nil
}

// DefaultPath builds the default export path under baseDir:
// <baseDir>/exports/<title>-<timestamp>.<ext>
func DefaultPath(baseDir, title string, f Format, now time.Time) string {
	timestamp := now.Format("2006-01-02T150405")
	filename := fmt.Sprintf("%s-%s.%s", sanitizeForFilename(title), timestamp, f.Ext())
	return filepath.Join(baseDir, "exports", filename)
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// sanitizeForFilename lowercases the title and collapses anything that is not
// filename-safe, so titles can never inject path components.
func sanitizeForFilename(title string) string {
	name := strings.ToLower(strings.TrimSpace(title))
	name = unsafeFilenameChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		return "untitled"
	}
	return name
}
