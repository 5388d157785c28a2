package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/keyxmakerx/qollect/internal/apperror"
)

const (
	// keyBytes is the number of random bytes in a generated key.
	keyBytes = 32

	// keyPrefixLen is the number of characters stored in clear for lookup.
	keyPrefixLen = 8

	// rawKeyPrefix marks generated keys. It is not part of the lookup prefix.
	rawKeyPrefix = "qk_"

	// createAttempts bounds retries when a generated prefix collides.
	createAttempts = 3
)

// KeyService handles API key business logic.
type KeyService interface {
	// CreateKey generates a new key. The plaintext is only in the result.
	CreateKey(ctx context.Context, name string, role Role) (*CreateKeyResult, error)

	// ListKeys returns every key without hashes.
	ListKeys(ctx context.Context) ([]APIKey, error)

	// DeactivateKey disables a key permanently for authentication.
	DeactivateKey(ctx context.Context, id int) error

	// AuthenticateKey verifies a raw key and returns its record.
	AuthenticateKey(ctx context.Context, rawKey string) (*APIKey, error)

	// EnsureBootstrapKey stores rawKey as an admin key unless it is
	// already registered.
	EnsureBootstrapKey(ctx context.Context, rawKey string) error

	// TouchLastUsed records that a key was just used.
	TouchLastUsed(ctx context.Context, id int) error
}

// keyService implements KeyService.
type keyService struct {
	repo KeyRepository

	// generate returns a new raw key. Replaced in tests.
	generate func() (string, error)
}

// NewKeyService creates a new API key service.
func NewKeyService(repo KeyRepository) KeyService {
	return &keyService{repo: repo, generate: generateRawKey}
}

// generateRawKey returns "qk_" followed by 64 hex characters.
func generateRawKey() (string, error) {
	raw := make([]byte, keyBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return rawKeyPrefix + hex.EncodeToString(raw), nil
}

// lookupPrefix returns the stored prefix for a raw key: the first eight
// characters after the optional "qk_" marker.
func lookupPrefix(rawKey string) (string, bool) {
	body := strings.TrimPrefix(rawKey, rawKeyPrefix)
	if len(body) < keyPrefixLen {
		return "", false
	}
	return body[:keyPrefixLen], true
}

// CreateKey validates the request, generates a key and stores its hash.
func (s *keyService) CreateKey(ctx context.Context, name string, role Role) (*CreateKeyResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.NewBadRequest("key name is required")
	}
	if len(name) > 100 {
		return nil, apperror.NewBadRequest("key name must be at most 100 characters")
	}
	if role == "" {
		role = RoleReporter
	}
	if !role.Valid() {
		return nil, apperror.NewBadRequest(fmt.Sprintf("invalid role: %s", role))
	}

	for attempt := 1; ; attempt++ {
		rawKey, err := s.generate()
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("generating key: %w", err))
		}
		key, err := s.store(ctx, rawKey, name, role)
		if err == nil {
			slog.Info("api key created",
				slog.String("prefix", key.KeyPrefix),
				slog.String("role", string(role)),
			)
			return &CreateKeyResult{Key: key, RawKey: rawKey}, nil
		}
		if apperror.SafeCode(err) != http.StatusConflict || attempt == createAttempts {
			return nil, err
		}
	}
}

// store hashes rawKey and inserts it.
func (s *keyService) store(ctx context.Context, rawKey, name string, role Role) (*APIKey, error) {
	prefix, ok := lookupPrefix(rawKey)
	if !ok {
		return nil, apperror.NewBadRequest("api key is too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing key: %w", err))
	}

	key := &APIKey{KeyPrefix: prefix, KeyHash: string(hash), Name: name, Role: role}
	if err := s.repo.Create(ctx, key); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.NewInternal(err)
	}
	return key, nil
}

// ListKeys returns every key.
func (s *keyService) ListKeys(ctx context.Context) ([]APIKey, error) {
	keys, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return keys, nil
}

// DeactivateKey disables a key.
func (s *keyService) DeactivateKey(ctx context.Context, id int) error {
	if err := s.repo.UpdateActive(ctx, id, false); err != nil {
		return err
	}
	slog.Info("api key deactivated", slog.Int("id", id))
	return nil
}

// AuthenticateKey looks the key up by prefix and verifies it with bcrypt.
// Every failure is reported as the same 401 so callers cannot probe which
// prefixes exist.
func (s *keyService) AuthenticateKey(ctx context.Context, rawKey string) (*APIKey, error) {
	invalid := apperror.NewUnauthorized("invalid api key")

	prefix, ok := lookupPrefix(rawKey)
	if !ok {
		return nil, invalid
	}
	key, err := s.repo.FindByPrefix(ctx, prefix)
	if err != nil {
		if !apperror.IsNotFound(err) {
			slog.Error("api key lookup failed", slog.Any("error", err))
		}
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(rawKey)); err != nil {
		return nil, invalid
	}
	if !key.IsActive {
		return nil, invalid
	}
	return key, nil
}

// EnsureBootstrapKey registers rawKey as the "bootstrap" admin key. It is
// a no-op when the same key is already stored, and fails when a different
// key owns the same prefix.
func (s *keyService) EnsureBootstrapKey(ctx context.Context, rawKey string) error {
	prefix, ok := lookupPrefix(rawKey)
	if !ok {
		return fmt.Errorf("bootstrap key is too short")
	}

	existing, err := s.repo.FindByPrefix(ctx, prefix)
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(existing.KeyHash), []byte(rawKey)) != nil {
			return fmt.Errorf("bootstrap key prefix %q belongs to another key", prefix)
		}
		return nil
	case !apperror.IsNotFound(err):
		return fmt.Errorf("looking up bootstrap key: %w", err)
	}

	if _, err := s.store(ctx, rawKey, "bootstrap", RoleAdmin); err != nil {
		return fmt.Errorf("storing bootstrap key: %w", err)
	}
	slog.Info("bootstrap admin key registered", slog.String("prefix", prefix))
	return nil
}

// TouchLastUsed records key usage.
func (s *keyService) TouchLastUsed(ctx context.Context, id int) error {
	return s.repo.UpdateLastUsed(ctx, id)
}
