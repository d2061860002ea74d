package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/fernet/fernet-go"

	"github.com/ndewijer/Trading-Ledger-Backend/internal/apperrors"
)

// FileStore persists snapshots as a single JSON file.
//
// Save writes the whole state to a temporary file in the same directory and
// renames it over the ledger file, so a crash mid-write leaves the previous
// snapshot in place. When an encryption key is configured the file holds a
// Fernet token wrapping the JSON document instead of the JSON itself.
type FileStore struct {
	path string
	key  *fernet.Key
}

// NewFileStore creates a FileStore for path. encryptionKey is an optional
// base64 Fernet key; empty means the file is stored as plain JSON.
func NewFileStore(path, encryptionKey string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger file path is required")
	}
	store := &FileStore{path: path}
	if encryptionKey != "" {
		key, err := fernet.DecodeKey(encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decode encryption key: %w", err)
		}
		store.key = key
	}
	return store, nil
}

// Name returns the ledger file path.
func (f *FileStore) Name() string {
	return f.path
}

// Load reads the ledger file. A missing file yields an empty snapshot;
// an unreadable or undecodable file is an error wrapping apperrors.ErrCorruptState.
func (f *FileStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}

	if f.key != nil {
		data = fernet.VerifyAndDecrypt(bytes.TrimSpace(data), -1, []*fernet.Key{f.key})
		if data == nil {
			return nil, fmt.Errorf("%w: ledger file could not be decrypted", apperrors.ErrCorruptState)
		}
	}

	snapshot, err := decodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	snapshot.normalize()

	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// decodeSnapshot parses a ledger document strictly. The document must be a
// JSON object with at least one of the ledger keys and no other keys.
func decodeSnapshot(data []byte) (*Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCorruptState, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: ledger file holds no document", apperrors.ErrCorruptState)
	}
	if !slices.ContainsFunc(ledgerKeys, func(key string) bool { _, ok := fields[key]; return ok }) {
		return nil, fmt.Errorf("%w: ledger file has none of %v", apperrors.ErrCorruptState, ledgerKeys)
	}

	snapshot := NewSnapshot()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCorruptState, err)
	}
	return snapshot, nil
}

var ledgerKeys = []string{"cash", "holdings", "orders"}

// Save overwrites the ledger file with the full snapshot.
func (f *FileStore) Save(s *Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	if f.key != nil {
		data, err = fernet.EncryptAndSign(data, f.key)
		if err != nil {
			return fmt.Errorf("failed to encrypt ledger: %w", err)
		}
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary ledger file: %w", err)
	}
	tmpName := tmp.Name()
	// Removing after a successful rename is a no-op error, ignored.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write ledger file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close ledger file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("failed to set ledger file permissions: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Save.
func (f *FileStore) Close() error {
	return nil
}
