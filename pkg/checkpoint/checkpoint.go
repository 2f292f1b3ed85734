package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"mailexport/pkg/errors"
	"mailexport/pkg/logger"
)

const recordVersion = 1

// Record is the durable progress of one export job, keyed by
// (account, filter signature). ProcessedIDs maps message identifiers
// to the artifact filename they were exported as; FailedIDs maps
// identifiers to the last failure reason and never blocks progress.
type Record struct {
	Account         string            `json:"account"`
	FilterSignature string            `json:"filter_signature"`
	Cursor          string            `json:"cursor"`
	ProcessedIDs    map[string]string `json:"processed_ids"`
	FailedIDs       map[string]string `json:"failed_ids"`
	TotalExported   int               `json:"total_exported"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Version         int               `json:"version"`
}

// NewRecord creates an empty initialized record for a job
func NewRecord(account, signature string) *Record {
	now := time.Now()
	return &Record{
		Account:         account,
		FilterSignature: signature,
		ProcessedIDs:    make(map[string]string),
		FailedIDs:       make(map[string]string),
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         recordVersion,
	}
}

// IsProcessed checks if a message has already been durably exported
func (r *Record) IsProcessed(id string) bool {
	_, ok := r.ProcessedIDs[id]
	return ok
}

// MarkProcessed records a successfully exported message. A previously
// recorded failure for the same identifier is cleared.
func (r *Record) MarkProcessed(id, artifact string) {
	if _, ok := r.ProcessedIDs[id]; !ok {
		r.TotalExported++
	}
	r.ProcessedIDs[id] = artifact
	delete(r.FailedIDs, id)
}

// MarkFailed records the last failure reason for a message
func (r *Record) MarkFailed(id, reason string) {
	r.FailedIDs[id] = reason
}

// validate performs the structural checks required before a loaded
// record may be trusted. A record that fails here must surface an
// error, never be treated as empty.
func (r *Record) validate(account, signature string) error {
	if r.Version != recordVersion {
		return errors.Newf(errors.ErrorTypeCheckpoint,
			"unsupported checkpoint version %d", r.Version)
	}
	if r.Account != account || r.FilterSignature != signature {
		return errors.Newf(errors.ErrorTypeCheckpoint,
			"checkpoint belongs to job (%s, %s), expected (%s, %s)",
			r.Account, r.FilterSignature, account, signature)
	}
	if r.ProcessedIDs == nil || r.FailedIDs == nil {
		return errors.New(errors.ErrorTypeCheckpoint,
			"checkpoint record is missing its identifier maps")
	}
	return nil
}

// Store persists one checkpoint file per (account, filter signature)
type Store struct {
	dir    string
	logger logger.Logger
}

// NewStore creates a checkpoint store rooted at dir
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger.GetLogger(),
	}, nil
}

// NewDefaultStore creates a store under the platform data directory
func NewDefaultStore() (*Store, error) {
	dataDir, err := dataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}
	return NewStore(filepath.Join(dataDir, "checkpoints"))
}

// Load returns the record for a job, or an empty initialized record if
// none exists. A file that cannot be decoded or fails structural
// validation yields a checkpoint-type error.
func (s *Store) Load(account, signature string) (*Record, error) {
	path := s.path(account, signature)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRecord(account, signature), nil
		}
		return nil, errors.Wrap(errors.ErrorTypeCheckpoint,
			"failed to open checkpoint file", err)
	}
	defer file.Close()

	var record Record
	if err := json.NewDecoder(file).Decode(&record); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeCheckpoint,
			fmt.Sprintf("failed to decode checkpoint %s", path), err)
	}
	if err := record.validate(account, signature); err != nil {
		return nil, err
	}

	s.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"account":        account,
		"signature":      signature,
		"total_exported": record.TotalExported,
		"cursor":         record.Cursor,
		"updated_at":     record.UpdatedAt,
	})

	return &record, nil
}

// Save writes the record to disk atomically: the data is written to a
// temporary file, synced, and renamed over the old record, so a crash
// mid-save leaves either the old or the new record readable. Saving
// the same record twice produces the same durable state.
func (s *Store) Save(record *Record) error {
	if now := time.Now(); now.After(record.UpdatedAt) {
		record.UpdatedAt = now
	}

	path := s.path(record.Account, record.FilterSignature)
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeCheckpoint,
			"failed to create temporary checkpoint file", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(record); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errors.Wrap(errors.ErrorTypeCheckpoint,
			"failed to encode checkpoint", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errors.Wrap(errors.ErrorTypeCheckpoint,
			"failed to sync checkpoint file", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Wrap(errors.ErrorTypeCheckpoint,
			"failed to close checkpoint file", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Wrap(errors.ErrorTypeCheckpoint,
			"failed to replace checkpoint file", err)
	}

	s.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"account":        record.Account,
		"signature":      record.FilterSignature,
		"total_exported": record.TotalExported,
		"cursor":         record.Cursor,
	})

	return nil
}

// Clear removes the record for a job. Absence is not an error.
func (s *Store) Clear(account, signature string) error {
	path := s.path(account, signature)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrorTypeCheckpoint,
			"failed to delete checkpoint", err)
	}

	s.logger.InfoWithFields("Checkpoint cleared", map[string]interface{}{
		"account":   account,
		"signature": signature,
	})
	return nil
}

// Exists checks if a checkpoint file exists for a job
func (s *Store) Exists(account, signature string) bool {
	_, err := os.Stat(s.path(account, signature))
	return err == nil
}

func (s *Store) path(account, signature string) string {
	name := fmt.Sprintf("%s-%s.checkpoint.json", sanitize(account), signature)
	return filepath.Join(s.dir, name)
}

// sanitize makes an account identifier safe for use in a filename
func sanitize(account string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, account)
}

// dataDirectory returns the appropriate data directory for the current OS
func dataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "mailexport")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "mailexport")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "mailexport")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "mailexport")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
