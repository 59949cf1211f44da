// Package store implements the community data layer: account management
// and per-category feeds, persisted as JSON blobs through a key-value
// store.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/moddi-tech/community/internal/domain"
	"github.com/moddi-tech/community/internal/kvstore"
	"github.com/moddi-tech/community/internal/metrics"
)

// AccountStore manages the user roster and the single active session.
// All state lives in memory; every mutation is written through to the
// key-value store. A failed write-through keeps the in-memory change
// and surfaces a storage error to the caller.
type AccountStore struct {
	mu      sync.RWMutex
	kv      kvstore.Store
	logger  zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	seed    []SeedUser
	roster  []*domain.User
	session *domain.Session
}

// AccountOption configures an AccountStore.
type AccountOption func(*AccountStore)

// WithSeedUsers replaces the default first-run accounts.
func WithSeedUsers(users []SeedUser) AccountOption {
	return func(s *AccountStore) { s.seed = users }
}

// WithoutSeed disables first-run seeding; the roster starts empty.
func WithoutSeed() AccountOption {
	return func(s *AccountStore) { s.seed = nil }
}

// WithAccountMetrics enables operation metrics.
func WithAccountMetrics(m *metrics.Metrics) AccountOption {
	return func(s *AccountStore) { s.metrics = m }
}

// WithAccountClock overrides the time source. Used in tests.
func WithAccountClock(now func() time.Time) AccountOption {
	return func(s *AccountStore) { s.now = now }
}

// NewAccountStore loads the roster and session from the key-value store.
// A missing or unreadable roster blob degrades to the seed accounts;
// construction never fails.
func NewAccountStore(ctx context.Context, kv kvstore.Store, logger zerolog.Logger, opts ...AccountOption) *AccountStore {
	s := &AccountStore{
		kv:     kv,
		logger: logger.With().Str("store", "account").Logger(),
		now:    time.Now,
		seed:   DefaultUsers(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load(ctx)
	return s
}

func (s *AccountStore) load(ctx context.Context) {
	data, err := s.kv.Get(ctx, kvstore.KeyUsers)
	switch {
	case err == nil:
		var roster []*domain.User
		if jsonErr := json.Unmarshal(data, &roster); jsonErr != nil {
			s.logger.Warn().Err(jsonErr).Msg("user roster blob is corrupt, reseeding")
			s.installSeed(ctx)
		} else {
			s.roster = roster
		}
	case errors.Is(err, kvstore.ErrKeyNotFound):
		s.installSeed(ctx)
	default:
		s.logger.Warn().Err(err).Msg("failed to read user roster, starting from seed")
		s.installSeed(ctx)
	}

	data, err = s.kv.Get(ctx, kvstore.KeySession)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			s.logger.Warn().Err(err).Msg("failed to read session")
		}
		return
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		s.logger.Warn().Err(err).Msg("session blob is corrupt, discarding")
		return
	}
	s.session = &session
}

func (s *AccountStore) installSeed(ctx context.Context) {
	s.roster = make([]*domain.User, 0, len(s.seed))
	for _, seed := range s.seed {
		user := seed.User
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error().Err(err).Str("email", user.Email).Msg("failed to hash seed password, skipping account")
			continue
		}
		user.PasswordHash = string(hash)
		if user.Avatar == "" {
			user.Avatar = domain.AvatarForRole(user.Role)
		}
		if user.Bio == "" {
			user.Bio = domain.DefaultBio
		}
		s.roster = append(s.roster, &user)
	}
	if len(s.roster) == 0 {
		return
	}
	if err := s.persistRoster(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist seed roster")
	}
	s.logger.Info().Int("users", len(s.roster)).Msg("seeded user roster")
}

func (s *AccountStore) persistRoster(ctx context.Context) error {
	data, err := json.Marshal(s.roster)
	if err != nil {
		return domain.NewDomainError(domain.ErrStorage, err.Error(), kvstore.KeyUsers)
	}
	if err := s.kv.Set(ctx, kvstore.KeyUsers, data); err != nil {
		return domain.NewDomainError(domain.ErrStorage, err.Error(), kvstore.KeyUsers)
	}
	return nil
}

func (s *AccountStore) persistSession(ctx context.Context) error {
	if s.session == nil {
		if err := s.kv.Remove(ctx, kvstore.KeySession); err != nil {
			return domain.NewDomainError(domain.ErrStorage, err.Error(), kvstore.KeySession)
		}
		return nil
	}
	data, err := json.Marshal(s.session)
	if err != nil {
		return domain.NewDomainError(domain.ErrStorage, err.Error(), kvstore.KeySession)
	}
	if err := s.kv.Set(ctx, kvstore.KeySession, data); err != nil {
		return domain.NewDomainError(domain.ErrStorage, err.Error(), kvstore.KeySession)
	}
	return nil
}

func (s *AccountStore) observe(op string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveOp("account", op, err, time.Since(start))
	}
}

// RegisterInput carries the fields of a registration request. Role
// defaults are not applied; a blank role is rejected.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// Register validates the input, creates the account, and persists the
// roster. The new account does not become the active session.
func (s *AccountStore) Register(ctx context.Context, input RegisterInput) (user *domain.User, err error) {
	start := s.now()
	defer func() { s.observe("register", start, err) }()

	email := strings.TrimSpace(input.Email)
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	role := domain.Role(strings.TrimSpace(strings.ToLower(input.Role)))

	if email == "" || strings.TrimSpace(input.Password) == "" || firstName == "" || role == "" {
		return nil, domain.ErrFieldsRequired
	}
	if !domain.ValidEmail(email) {
		return nil, domain.ErrInvalidEmail
	}
	if utf8.RuneCountInString(input.Password) < domain.MinPasswordLength {
		return nil, domain.ErrPasswordTooShort
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lookupByEmail(email) != nil {
		return nil, domain.ErrUserAlreadyExists
	}

	hash, hashErr := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if hashErr != nil {
		return nil, fmt.Errorf("%w: hash password: %v", domain.ErrStorage, hashErr)
	}

	now := s.now()
	created := domain.NewUser(email, string(hash), firstName, lastName, role, now)
	created.ID = s.nextID(now)
	s.roster = append(s.roster, created)

	s.logger.Info().Int64("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")

	if persistErr := s.persistRoster(ctx); persistErr != nil {
		return copyUser(created), persistErr
	}
	return copyUser(created), nil
}

// nextID derives a millisecond-timestamp identifier, bumping past any
// collision with an existing account.
func (s *AccountStore) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	for s.lookupByID(id) != nil {
		id++
	}
	return id
}

// Login verifies the credentials and makes the account the active
// session. Unknown email and wrong password are indistinguishable to
// the caller.
func (s *AccountStore) Login(ctx context.Context, email, password string) (user *domain.User, err error) {
	start := s.now()
	defer func() { s.observe("login", start, err) }()

	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, domain.ErrCredentialsRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found := s.lookupByEmail(email)
	if found == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	s.session = domain.NewSession(found.ID, s.now())
	s.logger.Info().Int64("user_id", found.ID).Msg("user logged in")

	if persistErr := s.persistSession(ctx); persistErr != nil {
		return copyUser(found), persistErr
	}
	return copyUser(found), nil
}

// Logout clears the active session. Logging out with no session is not
// an error.
func (s *AccountStore) Logout(ctx context.Context) (err error) {
	start := s.now()
	defer func() { s.observe("logout", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	return s.persistSession(ctx)
}

// CurrentUser returns the account of the active session, or nil when no
// one is logged in. A session pointing at a deleted account counts as
// logged out.
func (s *AccountStore) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil
	}
	return copyUser(s.lookupByID(s.session.UserID))
}

// SessionToken returns the token of the active session, or "".
func (s *AccountStore) SessionToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return ""
	}
	return s.session.Token
}

// FindByToken resolves a session token to its account. It returns nil
// when the token does not match the active session.
func (s *AccountStore) FindByToken(token string) *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if token == "" || s.session == nil || s.session.Token != token {
		return nil
	}
	return copyUser(s.lookupByID(s.session.UserID))
}

// ListOthers returns every account except the active session's, in
// roster order. With no session it returns the whole roster.
func (s *AccountStore) ListOthers() []*domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var currentID int64
	if s.session != nil {
		currentID = s.session.UserID
	}
	out := make([]*domain.User, 0, len(s.roster))
	for _, u := range s.roster {
		if u.ID == currentID {
			continue
		}
		out = append(out, copyUser(u))
	}
	return out
}

// Search returns accounts whose name, role, or bio contains the term,
// case-insensitively. A blank term matches everyone.
func (s *AccountStore) Search(term string) []*domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.User, 0, len(s.roster))
	for _, u := range s.roster {
		if u.MatchesSearch(term) {
			out = append(out, copyUser(u))
		}
	}
	return out
}

// FindByID returns the account with the given id.
func (s *AccountStore) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := s.lookupByID(id)
	if found == nil {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(found), nil
}

// FindByEmail returns the account with the given email.
func (s *AccountStore) FindByEmail(email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := s.lookupByEmail(strings.TrimSpace(email))
	if found == nil {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(found), nil
}

// UpdateProfile applies a partial update to an account and persists the
// roster. Email, password, id, and join date are not patchable.
func (s *AccountStore) UpdateProfile(ctx context.Context, id int64, patch domain.UserPatch) (user *domain.User, err error) {
	start := s.now()
	defer func() { s.observe("update_profile", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	found := s.lookupByID(id)
	if found == nil {
		return nil, domain.ErrUserNotFound
	}
	patch.Apply(found)

	if persistErr := s.persistRoster(ctx); persistErr != nil {
		return copyUser(found), persistErr
	}
	return copyUser(found), nil
}

// Count returns the roster size.
func (s *AccountStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.roster)
}

// All returns the full roster sorted by join order. Used by the admin
// CLI.
func (s *AccountStore) All() []*domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.User, 0, len(s.roster))
	for _, u := range s.roster {
		out = append(out, copyUser(u))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *AccountStore) lookupByEmail(email string) *domain.User {
	for _, u := range s.roster {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (s *AccountStore) lookupByID(id int64) *domain.User {
	for _, u := range s.roster {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
