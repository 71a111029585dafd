package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"inmobiliaria/internal/caching"
	"inmobiliaria/internal/common"
	"inmobiliaria/internal/config"
	"inmobiliaria/internal/models"
	"inmobiliaria/internal/repositories"
	"inmobiliaria/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	forgotPasswordLimit  = 5
	forgotPasswordWindow = time.Hour
)

// AuthService handles sign-up, login and password recovery
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Profile, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error)
	Profile(ctx context.Context, actor models.Actor) (*models.Profile, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, userID uuid.UUID, token, password string) error

	// ValidateToken parses a token and checks it was issued for purpose
	ValidateToken(token string, purpose models.TokenPurpose) (*models.TokenClaims, error)
}

type authService struct {
	store       repositories.Store
	resetTokens *caching.ResetTokenStore
	cache       caching.CacheService
	mailer      NotificationService
	jwtSecret   []byte
	jwt         config.JWTConfig
	appName     string
	frontURL    string
	log         *logger.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(store repositories.Store, cache caching.CacheService, mailer NotificationService, cfg *config.Config, log *logger.Logger) AuthService {
	return &authService{
		store:       store,
		resetTokens: caching.NewResetTokenStore(cache),
		cache:       cache,
		mailer:      mailer,
		jwtSecret:   []byte(cfg.JWT.Secret),
		jwt:         cfg.JWT,
		appName:     cfg.App.Name,
		frontURL:    cfg.App.FrontURL,
		log:         log.Named("auth"),
	}
}

func (s *authService) signToken(user *models.User, purpose models.TokenPurpose, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := models.TokenClaims{
		UserID:  user.ID.String(),
		Role:    user.Role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwt.Issuer,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return signed, nil
}

func (s *authService) ValidateToken(token string, purpose models.TokenPurpose) (*models.TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &models.TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := parsed.Claims.(*models.TokenClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("token purpose %q not accepted here", claims.Purpose)
	}
	return claims, nil
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.Profile, error) {
	in := &models.UserInput{
		Name:     &req.Name,
		Email:    &req.Email,
		Password: &req.Password,
		Age:      &req.Age,
	}
	if req.Role != "" {
		in.Role = &req.Role
	}
	if err := validateUserInput(in, true); err != nil {
		return nil, err
	}
	if in.Role != nil && models.Role(*in.Role) != models.RoleClient {
		return nil, common.NewForbiddenError("Staff accounts are created by an administrator")
	}

	var clientIn *models.ClientInput
	if req.DocumentID != nil || req.Phone != nil {
		clientIn = &models.ClientInput{DocumentID: req.DocumentID, Phone: req.Phone}
		placeholder := uuid.New()
		clientIn.UserID = &placeholder
		if err := validateClientInput(clientIn, true); err != nil {
			return nil, err
		}
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, common.SecureErrorMessage("register", err)
	}

	profile := &models.Profile{}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		profile.User = &models.User{
			ID:           uuid.New(),
			Name:         *in.Name,
			Email:        *in.Email,
			PasswordHash: hash,
			Age:          *in.Age,
			Role:         models.RoleClient,
			Active:       true,
		}
		if err := tx.Users().Create(ctx, profile.User); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return common.NewConflictError("email is already registered")
			}
			return translateStoreErr("create user", err)
		}

		if clientIn == nil {
			return nil
		}
		profile.Client = &models.Client{
			ID:         uuid.New(),
			UserID:     profile.User.ID,
			DocumentID: *clientIn.DocumentID,
			Phone:      *clientIn.Phone,
			Active:     true,
		}
		if err := tx.Clients().Create(ctx, profile.Client); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return common.NewConflictError("document_id is already registered")
			}
			return translateStoreErr("create client", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("User registered", zap.String("user_id", profile.User.ID.String()))
	s.sendWelcome(profile.User)
	return profile, nil
}

func (s *authService) sendWelcome(user *models.User) {
	if s.mailer == nil {
		return
	}
	body, err := s.mailer.RenderTemplate(TemplateWelcome, map[string]interface{}{
		"Name":  user.Name,
		"App":   s.appName,
		"Email": user.Email,
	})
	if err != nil {
		s.log.Warn("Welcome mail skipped", zap.Error(err))
		return
	}
	s.mailer.SendEmailAsync(user.Email, "Bienvenido a "+s.appName, body)
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, common.NewValidationErrors(map[string]string{
			"email":    "email and password are required",
			"password": "email and password are required",
		})
	}

	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, translateStoreErr("login", err)
	}
	if user == nil || !user.Active || !checkPassword(user.PasswordHash, req.Password) {
		return nil, common.NewUnauthorizedError("Invalid email or password")
	}

	token, err := s.signToken(user, models.PurposeAccess, s.jwt.AccessTTL)
	if err != nil {
		return nil, common.SecureErrorMessage("login", err)
	}

	s.log.WithContext(ctx).Info("User logged in", zap.String("user_id", user.ID.String()))
	return &models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.jwt.AccessTTL.Seconds()),
		User:        user,
	}, nil
}

func (s *authService) Profile(ctx context.Context, actor models.Actor) (*models.Profile, error) {
	user, err := s.store.Users().GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, translateStoreErr("get profile", err)
	}
	if user == nil || !user.Active {
		return nil, common.NewNotFoundError("user")
	}
	client, err := s.store.Clients().GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, translateStoreErr("get profile", err)
	}
	return &models.Profile{User: user, Client: client}, nil
}

// ForgotPassword mails a single-use reset link. Unknown addresses get the
// same answer as known ones.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := common.ValidateEmail(email); err != nil {
		return common.NewValidationError("email", err.Error())
	}

	limited, err := s.cache.IsRateLimited(ctx, "forgot:"+email, forgotPasswordLimit, forgotPasswordWindow)
	if err != nil {
		s.log.WithContext(ctx).Warn("Rate limit check failed", zap.Error(err))
	} else if limited {
		return common.NewRateLimitedError("Too many password reset requests, try again later")
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return translateStoreErr("forgot password", err)
	}
	if user == nil || !user.Active {
		s.log.WithContext(ctx).Info("Password reset requested for unknown email")
		return nil
	}

	token, err := s.signToken(user, models.PurposePasswordReset, s.jwt.ResetTTL)
	if err != nil {
		return common.SecureErrorMessage("forgot password", err)
	}
	if err := s.resetTokens.Save(ctx, user.ID, token, s.jwt.ResetTTL); err != nil {
		return common.SecureErrorMessage("forgot password", err)
	}

	link := fmt.Sprintf("%s/recuperar-contraseña?token=%s&id=%s", s.frontURL, url.QueryEscape(token), user.ID)
	body, err := s.mailer.RenderTemplate(TemplatePasswordReset, map[string]interface{}{
		"Name": user.Name,
		"Link": link,
		"TTL":  s.jwt.ResetTTL.String(),
	})
	if err != nil {
		return common.SecureErrorMessage("forgot password", err)
	}
	if err := s.mailer.SendEmail(ctx, user.Email, "Recuperar contraseña", body); err != nil {
		return common.SecureErrorMessage("send reset email", err)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, userID uuid.UUID, token, password string) error {
	if msg := passwordProblem(password); msg != "" {
		return common.NewValidationError("password", msg)
	}

	claims, err := s.ValidateToken(token, models.PurposePasswordReset)
	if err != nil || claims.UserID != userID.String() {
		return common.NewValidationError("token", "invalid or expired token")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return common.SecureErrorMessage("reset password", err)
	}

	// the token is taken last so a failed update leaves it usable
	return s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return translateStoreErr("reset password", err)
		}
		if user == nil || !user.Active {
			return common.NewNotFoundError("user")
		}
		user.PasswordHash = hash
		if err := tx.Users().Update(ctx, user); err != nil {
			return translateStoreErr("reset password", err)
		}

		ok, err := s.resetTokens.Consume(ctx, userID, token)
		if err != nil {
			return common.SecureErrorMessage("reset password", err)
		}
		if !ok {
			return common.NewValidationError("token", "invalid or expired token")
		}
		s.log.WithContext(ctx).Info("Password reset", zap.String("user_id", userID.String()))
		return nil
	})
}
