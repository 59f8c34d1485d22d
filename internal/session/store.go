package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"liirat-news/pkg/common"

	"github.com/google/uuid"
)

const anonymousPrefix = "anon_"

// Store is the session slot bound to one token.
type Store struct {
	token   string
	storage Storage
	bus     *Bus
	ttl     time.Duration
}

// Token returns the opaque token this store is bound to.
func (s *Store) Token() string {
	return s.token
}

func (s *Store) key() string {
	return common.SessionKeyPrefix + ":" + s.token
}

// Load returns the stored session, or nil when there is none.
// A record that does not decode or lacks id/email is removed and treated as absent.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	raw, ok, err := s.storage.Get(ctx, s.key())
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || !sess.Valid() {
		if delErr := s.storage.Delete(ctx, s.key()); delErr != nil {
			return nil, fmt.Errorf("failed to clear corrupt session: %w", delErr)
		}
		return nil, nil
	}
	return &sess, nil
}

// Save writes sess, or removes the record when sess is nil, then publishes AuthChanged.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		if err := s.storage.Delete(ctx, s.key()); err != nil {
			return fmt.Errorf("failed to remove session: %w", err)
		}
	} else {
		if !sess.Valid() {
			return fmt.Errorf("session requires id and email")
		}
		data, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}
		ttl := s.ttl
		if sess.RememberMe {
			ttl = 0
		}
		if err := s.storage.Set(ctx, s.key(), string(data), ttl); err != nil {
			return fmt.Errorf("failed to write session: %w", err)
		}
	}

	s.bus.Publish(AuthChanged{Token: s.token, Session: sess})
	return nil
}

// Manager hands out stores for tokens and owns the shared bus.
type Manager struct {
	storage Storage
	bus     *Bus
	ttl     time.Duration
}

// NewManager creates a Manager. ttl applies to sessions without remember-me; zero means no expiry.
func NewManager(storage Storage, bus *Bus, ttl time.Duration) *Manager {
	return &Manager{storage: storage, bus: bus, ttl: ttl}
}

func (m *Manager) Bus() *Bus {
	return m.bus
}

// Store returns the store bound to token.
func (m *Manager) Store(token string) *Store {
	return &Store{token: token, storage: m.storage, bus: m.bus, ttl: m.ttl}
}

// NewToken issues a fresh random token.
func (m *Manager) NewToken() string {
	return uuid.NewString()
}

// AnonymousID returns clientID when it was issued earlier, otherwise a new anon_ identity.
func (m *Manager) AnonymousID(ctx context.Context, clientID string) (string, error) {
	if strings.HasPrefix(clientID, anonymousPrefix) {
		_, ok, err := m.storage.Get(ctx, common.AnonymousUserKeyPrefix+":"+clientID)
		if err != nil {
			return "", fmt.Errorf("failed to read anonymous id: %w", err)
		}
		if ok {
			return clientID, nil
		}
	}

	id := anonymousPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := m.storage.Set(ctx, common.AnonymousUserKeyPrefix+":"+id, time.Now().UTC().Format(time.RFC3339), 0); err != nil {
		return "", fmt.Errorf("failed to store anonymous id: %w", err)
	}
	return id, nil
}
