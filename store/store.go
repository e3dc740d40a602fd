package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
)

// Stable record keys. Renaming any of these breaks restore of data written by
// an earlier process.
const (
	KeySessionUser  = "session.user"
	KeySessionToken = "session.token"
	KeyDirectory    = "directory.users"
)

var (
	// ErrStoreRead reports a backend failure while reading a record. Corrupt
	// records are not read failures; they read as absent.
	ErrStoreRead = errors.New("credential store read failed")
	// ErrStoreWrite reports a backend failure while replacing or clearing a
	// record.
	ErrStoreWrite = errors.New("credential store write failed")
)

// Store is the only component that touches durable storage.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// NewStore wraps backend. A nil logger falls back to slog.Default.
func NewStore(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend: backend,
		logger:  logger.With("component", "credential_store"),
	}
}

// LoadDirectory returns the registered users. A never-written or corrupt
// record yields an empty directory.
func (s *Store) LoadDirectory(ctx context.Context) (Directory, error) {
	raw, ok, err := s.backend.Get(ctx, KeyDirectory)
	if err != nil {
		return Directory{}, readFailure(KeyDirectory, err)
	}
	if !ok || raw == "" {
		return Directory{}, nil
	}

	var dir Directory
	if err := json.Unmarshal([]byte(raw), &dir); err != nil {
		s.logger.WarnContext(ctx, "corrupt directory record treated as empty", "key", KeyDirectory, "error", err)
		return Directory{}, nil
	}
	if dir == nil {
		dir = Directory{}
	}
	return dir, nil
}

// SaveDirectory replaces the whole directory record.
func (s *Store) SaveDirectory(ctx context.Context, dir Directory) error {
	if dir == nil {
		dir = Directory{}
	}
	data, err := json.Marshal(dir)
	if err != nil {
		return writeFailure("save_directory", []string{KeyDirectory}, err)
	}
	if err := s.backend.SetMany(ctx, map[string]string{KeyDirectory: string(data)}); err != nil {
		return writeFailure("save_directory", []string{KeyDirectory}, err)
	}
	return nil
}

// ResetDirectory drops every registered user. Not reachable from the session
// manager; intended for tests and operator tooling.
func (s *Store) ResetDirectory(ctx context.Context) error {
	if err := s.backend.DeleteMany(ctx, KeyDirectory); err != nil {
		return writeFailure("reset_directory", []string{KeyDirectory}, err)
	}
	return nil
}

// LoadSession returns the persisted session. ok is false unless both halves
// are present and the user record parses.
func (s *Store) LoadSession(ctx context.Context) (SessionRecord, bool, error) {
	rawUser, userOK, err := s.backend.Get(ctx, KeySessionUser)
	if err != nil {
		return SessionRecord{}, false, readFailure(KeySessionUser, err)
	}
	token, tokenOK, err := s.backend.Get(ctx, KeySessionToken)
	if err != nil {
		return SessionRecord{}, false, readFailure(KeySessionToken, err)
	}
	if !userOK || !tokenOK || rawUser == "" || token == "" {
		return SessionRecord{}, false, nil
	}

	var user PublicUser
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.logger.WarnContext(ctx, "corrupt session user record treated as absent", "key", KeySessionUser, "error", err)
		return SessionRecord{}, false, nil
	}
	return SessionRecord{User: user, Token: token}, true, nil
}

// SaveSession writes the user and token in one backend operation.
func (s *Store) SaveSession(ctx context.Context, rec SessionRecord) error {
	keys := []string{KeySessionUser, KeySessionToken}
	data, err := json.Marshal(rec.User)
	if err != nil {
		return writeFailure("save_session", keys, err)
	}
	err = s.backend.SetMany(ctx, map[string]string{
		KeySessionUser:  string(data),
		KeySessionToken: rec.Token,
	})
	if err != nil {
		return writeFailure("save_session", keys, err)
	}
	return nil
}

// ClearSession removes both halves of the session. Clearing an absent session
// succeeds.
func (s *Store) ClearSession(ctx context.Context) error {
	keys := []string{KeySessionUser, KeySessionToken}
	if err := s.backend.DeleteMany(ctx, keys...); err != nil {
		return writeFailure("clear_session", keys, err)
	}
	return nil
}

func readFailure(key string, err error) error {
	return oops.
		In("credential_store").
		Code("STORE_READ_FAILED").
		With("key", key).
		Wrap(fmt.Errorf("%w: %w", ErrStoreRead, err))
}

func writeFailure(op string, keys []string, err error) error {
	return oops.
		In("credential_store").
		Code("STORE_WRITE_FAILED").
		With("op", op).
		With("keys", keys).
		Wrap(fmt.Errorf("%w: %w", ErrStoreWrite, err))
}
