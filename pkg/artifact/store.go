package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mailexport/pkg/errors"
	"mailexport/pkg/mailbox"
)

// Store writes artifact records under a single output directory. File
// names are deterministic per message, so reprocessing an item after a
// crash overwrites its own file instead of leaving a duplicate.
type Store struct {
	dir string
}

// NewStore creates an artifact store rooted at dir. The directory is
// created on the first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the output directory
func (s *Store) Dir() string {
	return s.dir
}

// Filename returns the artifact file name for a message: the message
// date plus a short hash of the identifier, so two messages with the
// same timestamp never collide.
func (s *Store) Filename(id string, date time.Time) string {
	sum := sha256.Sum256([]byte(id))
	return fmt.Sprintf("context-%s-%s.json",
		date.Format("20060102150405"), hex.EncodeToString(sum[:])[:8])
}

// Write persists a record atomically and returns its path
func (s *Store) Write(rec *Record, msg *mailbox.Message) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrorTypeProcessing,
			"failed to create output directory", err)
	}

	path := filepath.Join(s.dir, s.Filename(rec.MessageID, msg.Envelope.Date))

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeProcessing,
			"failed to encode artifact", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".artifact-*.tmp")
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeProcessing,
			"failed to create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", errors.Wrap(errors.ErrorTypeProcessing,
			"failed to write artifact", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", errors.Wrap(errors.ErrorTypeProcessing,
			"failed to sync artifact", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", errors.Wrap(errors.ErrorTypeProcessing,
			"failed to close artifact", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", errors.Wrap(errors.ErrorTypeProcessing,
			"failed to finalize artifact", err)
	}
	return path, nil
}
