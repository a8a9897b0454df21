package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"

	"github.com/sdkassist/sdkassist/internal/domain"
)

const (
	// SessionSchemaVersion defines the current schema version for session files
	SessionSchemaVersion = "1.0.0"
	// SessionFilePermissions defines the permissions for session files
	SessionFilePermissions = 0600
	// SessionDirPermissions defines the permissions for the history directory
	SessionDirPermissions = 0700
	// LockTimeout defines the maximum time to wait for a lock
	LockTimeout = 30 * time.Second
	// LockRetryInterval defines the interval between lock retry attempts
	LockRetryInterval = 100 * time.Millisecond
)

// ErrSessionNotFound is returned when no session file exists for an ID.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore defines the interface for persisting tracked sessions.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session) error
	Load(ctx context.Context, sessionID string) (*domain.Session, error)
	LoadLatest(ctx context.Context) (*domain.Session, error)
	List(ctx context.Context) ([]domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// SessionMetadata contains metadata about the session file
type SessionMetadata struct {
	SchemaVersion string    `json:"schema_version"`
	Checksum      string    `json:"checksum"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SessionWrapper wraps the session with metadata
type SessionWrapper struct {
	Metadata SessionMetadata `json:"metadata"`
	Session  *domain.Session `json:"session"`
}

// JSONSessionStore implements SessionStore using JSON file storage
type JSONSessionStore struct {
	fs         afero.Fs
	historyDir string
	mu         sync.RWMutex
}

// NewJSONSessionStore creates a new JSON-backed session store
func NewJSONSessionStore(fs afero.Fs, historyDir string) SessionStore {
	if historyDir == "" {
		historyDir = ".sdk-sessions"
	}
	return &JSONSessionStore{
		fs:         fs,
		historyDir: historyDir,
	}
}

// Save persists the session to a JSON file with proper locking
func (r *JSONSessionStore) Save(ctx context.Context, session *domain.Session) error {
	if err := r.ensureHistoryDir(); err != nil {
		return fmt.Errorf("failed to ensure history directory: %w", err)
	}
	filename := r.getSessionFilename(session.ID)
	lockFile := r.getLockFilename(session.ID)
	lock := flock.New(lockFile)
	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()
	locked, err := r.acquireLockWithContext(lockCtx, lock)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("could not acquire lock within timeout")
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to unlock file: %v\n", unlockErr)
		}
	}()
	wrapper := SessionWrapper{
		Metadata: SessionMetadata{
			SchemaVersion: SessionSchemaVersion,
			CreatedAt:     session.StartedAt,
			UpdatedAt:     time.Now(),
		},
		Session: session,
	}
	sessionData, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session for checksum: %w", err)
	}
	wrapper.Metadata.Checksum = r.calculateChecksum(sessionData)
	data, err := json.MarshalIndent(wrapper, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session wrapper: %w", err)
	}
	// Write atomically using temp file
	tempFile := filename + ".tmp"
	if err := afero.WriteFile(r.fs, tempFile, data, SessionFilePermissions); err != nil {
		return fmt.Errorf("failed to write temp session file: %w", err)
	}
	if err := r.fs.Rename(tempFile, filename); err != nil {
		if removeErr := r.fs.Remove(tempFile); removeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to remove temp file: %v\n", removeErr)
		}
		return fmt.Errorf("failed to rename session file: %w", err)
	}
	if err := r.updateLatestLink(filename); err != nil {
		return fmt.Errorf("failed to update latest link: %w", err)
	}
	return nil
}

// Load retrieves a specific session by ID with checksum validation
func (r *JSONSessionStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	filename := r.getSessionFilename(sessionID)
	// Check the file before locking: taking a lock creates the lock
	// file, which fails with ENOENT when the history directory does
	// not exist yet and would mask the not-found sentinel.
	if _, err := r.fs.Stat(filename); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to check session file: %w", err)
	}
	lockFile := r.getLockFilename(sessionID)
	lock := flock.New(lockFile)
	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()
	locked, err := r.acquireSharedLockWithContext(lockCtx, lock)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire shared lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire shared lock within timeout")
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to unlock file: %v\n", unlockErr)
		}
	}()
	data, err := afero.ReadFile(r.fs, filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var wrapper SessionWrapper
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session wrapper: %w", err)
	}
	if wrapper.Metadata.SchemaVersion != SessionSchemaVersion {
		return nil, fmt.Errorf("incompatible schema version: expected %s, got %s",
			SessionSchemaVersion, wrapper.Metadata.SchemaVersion)
	}
	sessionData, err := json.Marshal(wrapper.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session for checksum validation: %w", err)
	}
	if wrapper.Metadata.Checksum != r.calculateChecksum(sessionData) {
		return nil, fmt.Errorf("session checksum mismatch: data may be corrupted")
	}
	return wrapper.Session, nil
}

// LoadLatest retrieves the most recently saved session
func (r *JSONSessionStore) LoadLatest(ctx context.Context) (*domain.Session, error) {
	latestLink := r.getLatestLink()
	r.mu.RLock()
	data, err := afero.ReadFile(r.fs, latestLink)
	r.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no sessions recorded", ErrSessionNotFound)
		}
		return nil, fmt.Errorf("failed to read latest link: %w", err)
	}
	sessionID := r.extractSessionID(string(data))
	if sessionID == "" {
		return nil, fmt.Errorf("invalid latest link target: %s", string(data))
	}
	return r.Load(ctx, sessionID)
}

// List returns all stored sessions ordered by start time, newest first.
func (r *JSONSessionStore) List(ctx context.Context) ([]domain.Session, error) {
	entries, err := afero.ReadDir(r.fs, r.historyDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}
	var sessions []domain.Session
	for _, entry := range entries {
		id := r.extractSessionID(entry.Name())
		if id == "" {
			continue
		}
		session, err := r.Load(ctx, id)
		if err != nil {
			// Skip corrupt or partially written entries
			continue
		}
		sessions = append(sessions, *session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
	return sessions, nil
}

// Delete removes a stored session. Deleting a session that does not
// exist is a no-op.
func (r *JSONSessionStore) Delete(ctx context.Context, sessionID string) error {
	filename := r.getSessionFilename(sessionID)
	if _, err := r.fs.Stat(filename); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to check session file: %w", err)
	}
	lockFile := r.getLockFilename(sessionID)
	lock := flock.New(lockFile)
	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()
	locked, err := r.acquireLockWithContext(lockCtx, lock)
	if err != nil {
		return fmt.Errorf("failed to acquire lock for deletion: %w", err)
	}
	if !locked {
		return fmt.Errorf("could not acquire lock within timeout")
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to unlock file: %v\n", unlockErr)
		}
	}()
	if err := r.fs.Remove(filename); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	if removeErr := r.fs.Remove(lockFile); removeErr != nil && !os.IsNotExist(removeErr) {
		fmt.Fprintf(os.Stderr, "warning: failed to remove lock file: %v\n", removeErr)
	}
	return nil
}

// Exists checks if a session file exists
func (r *JSONSessionStore) Exists(_ context.Context, sessionID string) (bool, error) {
	filename := r.getSessionFilename(sessionID)
	_, err := r.fs.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check session file: %w", err)
	}
	return true, nil
}

// acquireLockWithContext attempts to acquire an exclusive lock with context support
func (r *JSONSessionStore) acquireLockWithContext(ctx context.Context, lock *flock.Flock) (bool, error) {
	ticker := time.NewTicker(LockRetryInterval)
	defer ticker.Stop()
	for {
		locked, err := lock.TryLock()
		if err != nil {
			return false, err
		}
		if locked {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// acquireSharedLockWithContext attempts to acquire a shared lock with context support
func (r *JSONSessionStore) acquireSharedLockWithContext(ctx context.Context, lock *flock.Flock) (bool, error) {
	ticker := time.NewTicker(LockRetryInterval)
	defer ticker.Stop()
	for {
		locked, err := lock.TryRLock()
		if err != nil {
			return false, err
		}
		if locked {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// calculateChecksum calculates SHA-256 checksum of data
func (r *JSONSessionStore) calculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func (r *JSONSessionStore) ensureHistoryDir() error {
	return r.fs.MkdirAll(r.historyDir, SessionDirPermissions)
}

func (r *JSONSessionStore) getSessionFilename(sessionID string) string {
	return filepath.Join(r.historyDir, fmt.Sprintf("session-%s.json", sessionID))
}

func (r *JSONSessionStore) getLockFilename(sessionID string) string {
	return filepath.Join(r.historyDir, fmt.Sprintf(".session-%s.lock", sessionID))
}

func (r *JSONSessionStore) getLatestLink() string {
	return filepath.Join(r.historyDir, "latest.txt")
}

// updateLatestLink updates the pointer to the most recent session file
func (r *JSONSessionStore) updateLatestLink(target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	link := r.getLatestLink()
	tempLink := link + ".tmp"
	if err := afero.WriteFile(r.fs, tempLink, []byte(target), SessionFilePermissions); err != nil {
		return fmt.Errorf("failed to write temp latest link: %w", err)
	}
	if err := r.fs.Rename(tempLink, link); err != nil {
		return fmt.Errorf("failed to rename latest link: %w", err)
	}
	return nil
}

// extractSessionID pulls the session ID out of a session filename or path
func (r *JSONSessionStore) extractSessionID(target string) string {
	base := filepath.Base(target)
	if !strings.HasPrefix(base, "session-") || !strings.HasSuffix(base, ".json") {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(base, "session-"), ".json")
}
