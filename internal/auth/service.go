package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ovenbird/bakery-backend/internal/audit"
	"github.com/ovenbird/bakery-backend/internal/users"
	pkgauth "github.com/ovenbird/bakery-backend/pkg/auth"
	"github.com/ovenbird/bakery-backend/pkg/config"
	"github.com/ovenbird/bakery-backend/pkg/db/models"
	"github.com/ovenbird/bakery-backend/pkg/enums"
	pkgerrors "github.com/ovenbird/bakery-backend/pkg/errors"
	"github.com/ovenbird/bakery-backend/pkg/logger"
	"github.com/ovenbird/bakery-backend/pkg/security"
	"github.com/ovenbird/bakery-backend/pkg/types"
)

const invalidCredentialsMessage = "invalid credentials"

type userStore interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateAddress(ctx context.Context, id uuid.UUID, address types.Address) error
}

type cartMerger interface {
	MergeOnLogin(ctx context.Context, userID uuid.UUID, sessionID string) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service handles account creation, authentication and profile management.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest, sessionID string) (*AuthResponse, error)
	Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	UpdateAddress(ctx context.Context, userID uuid.UUID, address types.Address) (*users.UserDTO, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Users          userStore
	Carts          cartMerger
	Audit          auditRecorder
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type service struct {
	users       userStore
	carts       cartMerger
	audit       auditRecorder
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart merger required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		users:       params.Users,
		carts:       params.Carts,
		audit:       params.Audit,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
	}, nil
}

// Register creates a customer account and signs the new user straight in.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(req.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	dto := users.CreateUserDTO{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(req.Name),
		Role:         enums.UserRoleCustomer,
	}
	if req.Address != nil {
		dto.Address = *req.Address
	}
	user, err := s.users.Create(ctx, dto)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID:    &user.ID,
		Action:     enums.AuditActionCreate,
		TargetType: enums.AuditTargetUser,
		TargetID:   &user.ID,
		After:      users.FromModel(user),
	})

	return s.respond(user)
}

// Login authenticates the credentials and folds the guest session's cart and
// favourites into the account. A merge failure is logged, never surfaced;
// the guest copy stays in the session store for the next attempt.
func (s *service) Login(ctx context.Context, req LoginRequest, sessionID string) (*AuthResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	if sessionID != "" {
		if err := s.carts.MergeOnLogin(ctx, user.ID, sessionID); err != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()),
				fmt.Sprintf("guest cart merge at login: %v", err))
		}
	}

	return s.respond(user)
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return users.FromModel(user), nil
}

// UpdateAddress replaces the stored shipping address wholesale.
func (s *service) UpdateAddress(ctx context.Context, userID uuid.UUID, address types.Address) (*users.UserDTO, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateAddress(ctx, userID, address); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update address")
	}

	before := user.Address
	user.Address = address
	s.audit.Record(ctx, audit.Entry{
		ActorID:    &userID,
		Action:     enums.AuditActionUpdate,
		TargetType: enums.AuditTargetUser,
		TargetID:   &userID,
		Before:     map[string]any{"address": before},
		After:      map[string]any{"address": address},
	})
	return users.FromModel(user), nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.ToLower(strings.TrimSpace(email))
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) findUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *service) respond(user *models.User) (*AuthResponse, error) {
	token, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &AuthResponse{AccessToken: token, User: users.FromModel(user)}, nil
}
