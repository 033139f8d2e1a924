package identity

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	coreport "github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/security"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/usecase"
)

// Token shapes. A signed token is three base64url segments; a session token
// is exactly 64 lowercase hex characters. They never overlap.
var (
	signedTokenShape  = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)
	sessionTokenShape = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// TokenKind is the credential scheme a bearer value belongs to
type TokenKind int

const (
	TokenUnknown TokenKind = iota
	TokenSigned
	TokenSession
)

// ClassifyToken decides the scheme from the token's shape alone
func ClassifyToken(bearer string) TokenKind {
	switch {
	case sessionTokenShape.MatchString(bearer):
		return TokenSession
	case signedTokenShape.MatchString(bearer):
		return TokenSigned
	default:
		return TokenUnknown
	}
}

// Settings holds identity policy values
type Settings struct {
	SessionTTL   time.Duration
	HandshakeTTL time.Duration
	// DevMode skips the handshake check for local development
	DevMode bool
}

// Service resolves both credential schemes to a user
type Service struct {
	uow          persistence.UnitOfWork
	tokens       security.TokenIssuer
	handshakes   security.HandshakeSigner
	sessions     security.SessionTokenGenerator
	passwords    security.PasswordHasher
	crm          gateway.CRMClient
	settings     Settings
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates a new identity service
func NewService(
	uow persistence.UnitOfWork,
	tokens security.TokenIssuer,
	handshakes security.HandshakeSigner,
	sessions security.SessionTokenGenerator,
	passwords security.PasswordHasher,
	crm gateway.CRMClient,
	settings Settings,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	if settings.SessionTTL <= 0 {
		settings.SessionTTL = 24 * time.Hour
	}
	if settings.HandshakeTTL <= 0 {
		settings.HandshakeTTL = 2 * time.Minute
	}
	return &Service{
		uow:          uow,
		tokens:       tokens,
		handshakes:   handshakes,
		sessions:     sessions,
		passwords:    passwords,
		crm:          crm,
		settings:     settings,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Register creates a password user and signs them in
func (s *Service) Register(ctx context.Context, username, email, password string) (*usecase.AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, errs.NewValidationError("", "username, email and password are required")
	}
	if len(password) < 6 {
		return nil, errs.NewValidationError("password", "must be at least 6 characters")
	}

	users := s.uow.Users(ctx)
	exists, err := users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.ErrDuplicateUser
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}
	user, err := entity.NewUser(username, email, hash, 0, entity.AuthTypePassword, s.timeProvider)
	if err != nil {
		return nil, err
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", map[string]any{
		"user_id":  user.ID.String(),
		"username": user.Username,
	})
	return s.issue(user)
}

// Login checks a username or email and password
func (s *Service) Login(ctx context.Context, login, password string) (*usecase.AuthResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, errs.NewValidationError("", "username and password are required")
	}

	user, err := s.uow.Users(ctx).GetByLogin(ctx, login)
	if errors.Is(err, errs.ErrUserNotFound) {
		return nil, errs.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if user.IsEmbedded() || !s.passwords.Compare(user.PasswordHash, password) {
		s.logger.Warn("Failed login attempt", map[string]any{"login": login})
		return nil, errs.ErrUnauthorized
	}

	return s.issue(user)
}

func (s *Service) issue(user *entity.User) (*usecase.AuthResult, error) {
	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return nil, err
	}
	return &usecase.AuthResult{Token: token, User: user.Projection()}, nil
}

// Resolve maps a bearer value to its user. Only the verifier matching the
// token's shape is consulted.
func (s *Service) Resolve(ctx context.Context, bearer string) (*entity.User, error) {
	bearer = strings.TrimSpace(bearer)
	switch ClassifyToken(bearer) {
	case TokenSigned:
		return s.resolveSigned(ctx, bearer)
	case TokenSession:
		return s.resolveSession(ctx, bearer)
	default:
		return nil, errs.ErrUnauthorized
	}
}

func (s *Service) resolveSigned(ctx context.Context, token string) (*entity.User, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}
	user, err := s.uow.Users(ctx).GetByID(ctx, userID)
	if errors.Is(err, errs.ErrUserNotFound) {
		return nil, errs.ErrUnauthorized
	}
	return user, err
}

func (s *Service) resolveSession(ctx context.Context, token string) (*entity.User, error) {
	hash := s.sessions.Hash(token)
	repo := s.uow.Sessions(ctx)

	session, err := repo.GetByTokenHash(ctx, hash)
	if errors.Is(err, errs.ErrSessionNotFound) {
		return nil, errs.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if session.Expired(s.timeProvider.Now()) {
		if err := repo.DeleteByTokenHash(ctx, hash); err != nil {
			s.logger.Warn("Failed to delete expired session", map[string]any{
				"location_id": session.LocationID,
				"error":       err.Error(),
			})
		}
		return nil, errs.ErrSessionExpired
	}

	user, err := s.uow.Users(ctx).GetByLocationID(ctx, session.LocationID)
	if errors.Is(err, errs.ErrUserNotFound) {
		return nil, errs.ErrUnauthorized
	}
	return user, err
}

// Handshake returns a handshake value signed now
func (s *Service) Handshake() string {
	return s.handshakes.Sign(s.timeProvider.Now())
}

// InitEmbedded trades a fresh handshake for a session bound to locationID,
// creating the location's user on first use. Any earlier session of the
// location is replaced.
func (s *Service) InitEmbedded(ctx context.Context, locationID, handshake string) (*usecase.AuthResult, error) {
	locationID = strings.TrimSpace(locationID)
	if locationID == "" {
		return nil, errs.NewValidationError("location_id", "is required")
	}
	if !s.settings.DevMode && !s.handshakes.Verify(handshake, s.timeProvider.Now(), s.settings.HandshakeTTL) {
		s.logger.Warn("Embedded init without a valid handshake", map[string]any{"location_id": locationID})
		return nil, errs.ErrForbidden
	}

	if s.crm != nil && s.crm.AgencyConfigured() {
		if _, err := s.crm.VerifyLocation(ctx, locationID); err != nil {
			s.logger.Warn("Location verification failed", map[string]any{
				"location_id": locationID,
				"error":       err.Error(),
			})
			if errors.Is(err, errs.ErrForbidden) || errors.Is(err, errs.ErrNotFound) {
				return nil, errs.ErrForbidden
			}
			return nil, err
		}
	}

	token, hash, err := s.sessions.Generate()
	if err != nil {
		return nil, err
	}

	var user *entity.User
	err = persistence.WithinTx(ctx, s.uow, func(txCtx context.Context) error {
		users := s.uow.Users(txCtx)
		existing, err := users.GetByLocationID(txCtx, locationID)
		switch {
		case err == nil:
			user = existing
		case errors.Is(err, errs.ErrUserNotFound):
			randomHash, err := s.passwords.Random()
			if err != nil {
				return err
			}
			created, err := entity.NewEmbeddedUser(locationID, randomHash, s.timeProvider)
			if err != nil {
				return err
			}
			if err := users.Create(txCtx, created); err != nil {
				return err
			}
			user = created
		default:
			return err
		}

		session := entity.NewEmbeddedSession(locationID, hash, s.settings.SessionTTL, s.timeProvider)
		return s.uow.Sessions(txCtx).Replace(txCtx, session)
	})
	if err != nil {
		s.logger.Error("Failed to initialise embedded session", map[string]any{
			"location_id": locationID,
			"error":       err.Error(),
		})
		return nil, err
	}

	s.logger.Info("Embedded session created", map[string]any{
		"location_id": locationID,
		"user_id":     user.ID.String(),
	})
	return &usecase.AuthResult{Token: token, User: user.Projection()}, nil
}

// Logout drops an embedded session. Signed tokens are stateless and simply expire.
func (s *Service) Logout(ctx context.Context, bearer string) error {
	bearer = strings.TrimSpace(bearer)
	if ClassifyToken(bearer) != TokenSession {
		return nil
	}
	return s.uow.Sessions(ctx).DeleteByTokenHash(ctx, s.sessions.Hash(bearer))
}

// Profile returns the user's own view including CRM connection state
func (s *Service) Profile(ctx context.Context, user *entity.User) (*usecase.Profile, error) {
	connected := false
	integration, err := s.uow.Integrations(ctx).GetByUserID(ctx, user.ID)
	switch {
	case err == nil:
		connected = integration.Connected
	case !errors.Is(err, errs.ErrIntegrationNotFound):
		return nil, err
	}

	return &usecase.Profile{
		UserProjection: user.Projection(),
		BusinessName:   user.BusinessName,
		CRMConnected:   connected,
	}, nil
}
