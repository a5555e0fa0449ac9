// Package auth implements the local sign in stub.
//
// Any password is accepted. The signed in user is kept in local storage under
// localstore.KeySession, independently of the record store, and every session
// handed out carries a freshly signed HS256 token.
package auth

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/imserv/voltage/internal/errors"
	"github.com/imserv/voltage/internal/localstore"
	"github.com/imserv/voltage/internal/mockdb"
	"github.com/imserv/voltage/internal/models"
)

// Pages the stub navigates to.
const (
	PageLogin      = "login.html"
	PageFirstLogin = "profile.html?firstLogin=true"
)

// The account with a stable identity.
const (
	FixedEmail    = "imserv67@gmail.com"
	FixedUserID   = "imserv_user_01"
	fixedFullName = "Lead Engineer"
	fixedAvatar   = "imserv67"
)

// Navigator redirects the user interface to another page.
type Navigator interface {
	Navigate(ctx context.Context, target string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, target string)

// Navigate calls f.
func (f NavigatorFunc) Navigate(ctx context.Context, target string) {
	f(ctx, target)
}

// Auth signs users in and out. Create one with New.
type Auth struct {
	local    localstore.Store
	db       *mockdb.Store
	nav      Navigator
	secret   []byte
	tokenTTL time.Duration
	limiter  *limiter
	logger   *slog.Logger
	now      func() time.Time
	suffix   func() string
}

// Option configures an Auth.
type Option func(*Auth)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Auth) {
		a.logger = l
	}
}

// WithClock sets the time source for tokens and rate limiting.
func WithClock(now func() time.Time) Option {
	return func(a *Auth) {
		a.now = now
	}
}

// WithRateLimit limits sign in and sign up attempts to perMin per minute for
// each email. 0 disables limiting, which is the default.
func WithRateLimit(perMin int) Option {
	return func(a *Auth) {
		a.limiter = newLimiter(perMin, func() time.Time { return a.now() })
	}
}

// WithTokenTTL sets the lifetime of issued tokens. Defaults to 24 hours.
func WithTokenTTL(d time.Duration) Option {
	return func(a *Auth) {
		a.tokenTTL = d
	}
}

// WithSuffixGenerator replaces the source of random user id suffixes.
func WithSuffixGenerator(fn func() string) Option {
	return func(a *Auth) {
		a.suffix = fn
	}
}

// New returns an Auth keeping its session in local and reading roles from db.
// secret signs session tokens.
func New(local localstore.Store, db *mockdb.Store, nav Navigator, secret []byte, opts ...Option) *Auth {
	a := &Auth{
		local:    local,
		db:       db,
		nav:      nav,
		secret:   secret,
		tokenTTL: 24 * time.Hour,
		logger:   slog.Default(),
		now:      time.Now,
		suffix:   randomSuffix,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SignIn signs in as email. The fixed account always gets the same identity;
// any other email gets a new random id.
func (a *Auth) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.MissingField("email")
	}
	if err := a.checkRate(ctx, email); err != nil {
		return nil, err
	}
	user := &models.User{Email: email}
	if email == FixedEmail {
		user.ID = FixedUserID
		user.UserMetadata = models.UserMetadata{FullName: fixedFullName, AvatarURL: mockdb.AvatarURL(fixedAvatar)}
	} else {
		user.ID = "user_" + a.suffix()
		name, _, _ := strings.Cut(email, "@")
		user.UserMetadata = models.UserMetadata{FullName: name, AvatarURL: mockdb.AvatarURL(email)}
	}
	sess, err := a.start(ctx, user)
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "Signed in", "user", user.ID)
	return sess, nil
}

// SignUp creates a new identity carrying fullName, signs it in and navigates
// to the first login page.
func (a *Auth) SignUp(ctx context.Context, email, password, fullName string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.MissingField("email")
	}
	if err := a.checkRate(ctx, email); err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           "user_" + a.suffix(),
		Email:        email,
		UserMetadata: models.UserMetadata{FullName: fullName},
	}
	sess, err := a.start(ctx, user)
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "Signed up", "user", user.ID)
	a.nav.Navigate(ctx, PageFirstLogin)
	return sess, nil
}

// SignOut forgets the session and navigates to the login page. Navigation
// happens even when removing the session fails.
func (a *Auth) SignOut(ctx context.Context) error {
	err := a.local.Remove(ctx, localstore.KeySession)
	a.nav.Navigate(ctx, PageLogin)
	if err != nil {
		return errors.Storage("failed to remove session", err)
	}
	return nil
}

// GetCurrentUser returns the signed in user, or nil. A session blob that does
// not decode reads as signed out.
func (a *Auth) GetCurrentUser(ctx context.Context) (*models.User, error) {
	user, _, err := localstore.GetJSON[*models.User](ctx, a.local, localstore.KeySession)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrStorageCorrupt {
			a.logger.WarnContext(ctx, "Ignoring corrupt session", "err", err)
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// CheckSession returns the current session, or nil when signed out.
func (a *Auth) CheckSession(ctx context.Context) (*models.Session, error) {
	user, err := a.GetCurrentUser(ctx)
	if err != nil || user == nil {
		return nil, err
	}
	return a.session(user)
}

// GetUserRole returns the role stored on userID's profile, "author" when the
// profile has none, or "" for an empty userID.
func (a *Auth) GetUserRole(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", nil
	}
	res, err := a.db.From(mockdb.TableProfiles).Select("role").Eq("id", userID).MaybeSingle().Exec(ctx)
	if err != nil {
		return "", err
	}
	if role := res.Row().String("role"); role != "" {
		return role, nil
	}
	return models.RoleAuthor, nil
}

// RequireAuth returns the signed in user. When signed out it navigates to the
// login page and returns nil.
func (a *Auth) RequireAuth(ctx context.Context) (*models.User, error) {
	sess, err := a.CheckSession(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		a.nav.Navigate(ctx, PageLogin)
		return nil, nil
	}
	return sess.User, nil
}

func (a *Auth) start(ctx context.Context, user *models.User) (*models.Session, error) {
	if err := localstore.SetJSON(ctx, a.local, localstore.KeySession, user); err != nil {
		return nil, err
	}
	return a.session(user)
}

func (a *Auth) session(user *models.User) (*models.Session, error) {
	token, err := a.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &models.Session{AccessToken: token, User: user}, nil
}

func (a *Auth) checkRate(ctx context.Context, email string) error {
	ok, retry := a.limiter.allow(email)
	if ok {
		return nil
	}
	a.logger.WarnContext(ctx, "Rate limited", "email", email, "retry_after", retry)
	return errors.TooManyAttempts(email, retry)
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// randomSuffix returns 9 random base 36 characters.
func randomSuffix() string {
	var b [9]byte
	for i := range b {
		b[i] = base36[rand.IntN(len(base36))] //nolint:gosec // G404: ids are not secrets
	}
	return string(b[:])
}
