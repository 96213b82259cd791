package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vnkhanh/mente-abundante-backend/apperr"
	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/models"
)

var (
	ErrDuplicateEmail     = apperr.New(apperr.KindConflict, "Este correo ya está registrado")
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, "Credenciales incorrectas")
)

// validate re-checks input for callers that skip the HTTP binding layer.
var validate = validator.New()

const (
	minPasswordLength = 6
	sessionTokenBytes = 32
)

type AuthConfig struct {
	SessionTTL time.Duration
	BcryptCost int
}

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

type AuthService struct {
	db        *gorm.DB
	log       *logger.Logger
	cfg       AuthConfig
	now       func() time.Time
	dummyHash []byte
}

func NewAuthService(db *gorm.DB, log *logger.Logger, cfg AuthConfig) (*AuthService, error) {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	// compared against when the email is unknown so both failure paths pay
	// for one bcrypt comparison
	dummy, err := bcrypt.GenerateFromPassword([]byte("mente-abundante-placeholder"), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("init auth: %w", err)
	}
	return &AuthService{
		db:        db,
		log:       log.With("service", "AuthService"),
		cfg:       cfg,
		now:       utcNow,
		dummyHash: dummy,
	}, nil
}

// SetClock replaces the time source. Tests only.
func (s *AuthService) SetClock(now func() time.Time) { s.now = now }

func (s *AuthService) SessionTTL() time.Duration { return s.cfg.SessionTTL }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || in.Password == "" || name == "" {
		return nil, apperr.Validation("Todos los campos son requeridos")
	}
	if validate.Var(email, "email") != nil {
		return nil, apperr.Validation("Correo electrónico inválido")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("La contraseña debe tener al menos 6 caracteres")
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("check email: %w", err))
	}
	if count > 0 {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("hash password: %w", err))
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         models.RoleStudent,
	}
	if err := db.Create(&user).Error; err != nil {
		// lost a race with a concurrent registration
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, apperr.Internal(fmt.Errorf("create user: %w", err))
	}
	s.log.Info("user registered", "user_id", user.ID)
	return &user, nil
}

// Login verifies credentials and opens a session. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", apperr.Validation("Correo y contraseña son requeridos")
	}

	db := s.db.WithContext(ctx)
	var user models.User
	err := db.Where("email = ?", email).Take(&user).Error
	if isNotFound(err) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", apperr.Internal(fmt.Errorf("load user: %w", err))
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	now := s.now()
	err = db.Transaction(func(tx *gorm.DB) error {
		session := models.Session{
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: now.Add(s.cfg.SessionTTL),
		}
		if err := tx.Create(&session).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("last_login", now).Error; err != nil {
			return fmt.Errorf("update last_login: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	user.LastLogin = &now
	s.log.Info("user logged in", "user_id", user.ID)
	return &user, token, nil
}

// ResolveSession returns the owner of a live session, or nil when the token
// is empty, unknown or expired.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	var user models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN sessions ON sessions.user_id = users.id").
		Where("sessions.token = ? AND sessions.expires_at > ?", token, s.now()).
		Take(&user).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("resolve session: %w", err))
	}
	return &user, nil
}

// Logout deletes the session. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return apperr.Internal(fmt.Errorf("delete session: %w", err))
	}
	return nil
}

func (s *AuthService) CleanupExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *AuthService) SetRole(ctx context.Context, userID uuid.UUID, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, apperr.Validation("Rol inválido")
	}
	db := s.db.WithContext(ctx)
	res := db.Model(&models.User{}).Where("id = ?", userID).Update("role", role)
	if res.Error != nil {
		return nil, apperr.Internal(fmt.Errorf("update role: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("Usuario no encontrado")
	}
	var user models.User
	if err := db.Take(&user, "id = ?", userID).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("reload user: %w", err))
	}
	s.log.Info("user role changed", "user_id", userID, "role", role)
	return &user, nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
