// Package identity keeps the signed-in session in the system keyring and
// makes sure every signed-in person has a user record.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/99designs/keyring"
	"github.com/google/uuid"

	"github.com/nhle/worktrack/internal/docstore"
	"github.com/nhle/worktrack/internal/model"
)

const (
	serviceName = "worktrack"
	sessionKey  = "session"
)

var (
	ErrNoSession    = errors.New("not signed in")
	ErrInvalidEmail = errors.New("invalid email address")
)

// Session is the signed-in user. UserID is stable for an email address.
type Session struct {
	UserID    string
	Email     string
	Admin     bool
	StartedAt time.Time
}

type storedSession struct {
	Email     string    `json:"email"`
	StartedAt time.Time `json:"startedAt"`
}

// SubjectID derives the user id for an email address.
func SubjectID(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String()
}

// Provider signs users in and out.
type Provider struct {
	ring   keyring.Keyring
	admins map[string]bool
	clock  func() time.Time
}

// Open returns a Provider backed by the system keyring, falling back to an
// encrypted file under cfg.KeyringDir.
func Open(cfg model.IdentityConfig) (*Provider, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  cfg.KeyringDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("worktrack-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewProvider(ring, cfg.AdminEmails), nil
}

// NewProvider wraps an open keyring. admins is the static admin allow-list.
func NewProvider(ring keyring.Keyring, admins []string) *Provider {
	p := &Provider{ring: ring, admins: map[string]bool{}, clock: time.Now}
	for _, a := range admins {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			p.admins[a] = true
		}
	}
	return p
}

// IsAdmin reports whether email is on the allow-list, ignoring case.
func (p *Provider) IsAdmin(email string) bool {
	return p.admins[strings.ToLower(strings.TrimSpace(email))]
}

// SignIn starts a session for email and persists it.
func (p *Provider) SignIn(email string) (Session, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return Session{}, fmt.Errorf("signing in %q: %w", email, ErrInvalidEmail)
	}
	stored := storedSession{Email: strings.ToLower(addr.Address), StartedAt: p.clock().UTC()}

	data, err := json.Marshal(stored)
	if err != nil {
		return Session{}, fmt.Errorf("encoding session: %w", err)
	}
	if err := p.ring.Set(keyring.Item{Key: sessionKey, Data: data, Label: "worktrack session"}); err != nil {
		return Session{}, fmt.Errorf("storing session: %w", err)
	}
	return p.session(stored), nil
}

// Current returns the persisted session, or ErrNoSession.
func (p *Provider) Current() (Session, error) {
	item, err := p.ring.Get(sessionKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("reading session: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(item.Data, &stored); err != nil || stored.Email == "" {
		return Session{}, ErrNoSession
	}
	return p.session(stored), nil
}

// SignOut forgets the persisted session. Signing out twice is not an error.
func (p *Provider) SignOut() error {
	err := p.ring.Remove(sessionKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

func (p *Provider) session(s storedSession) Session {
	return Session{
		UserID:    SubjectID(s.Email),
		Email:     s.Email,
		Admin:     p.IsAdmin(s.Email),
		StartedAt: s.StartedAt,
	}
}

// UserRecord returns the user document written for a new session.
func UserRecord(s Session) model.User {
	name, _, _ := strings.Cut(s.Email, "@")
	role := model.RoleUser
	if s.Admin {
		role = model.RoleAdmin
	}
	return model.User{ID: s.UserID, Email: s.Email, DisplayName: name, Role: role}
}

// EnsureUserRecord creates the session's user document unless it already
// exists. It reports whether a document was created.
func EnsureUserRecord(ctx context.Context, w docstore.Writer, s Session) (bool, error) {
	_, err := w.Create(ctx, model.CollectionUsers, s.UserID, UserRecord(s).Fields())
	switch {
	case errors.Is(err, docstore.ErrAlreadyExists):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("creating user record for %s: %w", s.Email, err)
	}
	return true, nil
}
