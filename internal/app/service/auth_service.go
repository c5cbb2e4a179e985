package service

import (
	"context"
	"errors"
	"log/slog"

	"blog_api/internal/common"
	"blog_api/internal/common/security"
	"blog_api/internal/common/validation"
	"blog_api/internal/domain/model"
	"blog_api/internal/domain/repository"

	"github.com/google/uuid"
)

const MinPasswordLength = 6

var errInvalidCredentials = common.NewError(common.ErrUnauthorized, "Invalid email or password")

type AuthService struct {
	users     repository.UserRepository
	tokens    *security.TokenIssuer
	passwords *security.PasswordHasher
	// allowSelfAssignedRole lets anonymous registrations pick the admin role.
	allowSelfAssignedRole bool
	logger                *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *security.TokenIssuer,
	passwords *security.PasswordHasher,
	allowSelfAssignedRole bool,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:                 users,
		tokens:                tokens,
		passwords:             passwords,
		allowSelfAssignedRole: allowSelfAssignedRole,
		logger:                logger,
	}
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func (r RegisterRequest) Validate() validation.Result {
	var res validation.Result
	res.Email("email", r.Email)
	validatePassword(&res, r.Password)
	if r.Role != "" {
		res.OneOf("role", r.Role, model.RoleUser, model.RoleAdmin)
	}
	return res
}

type RegisterResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() validation.Result {
	var res validation.Result
	res.Email("email", r.Email)
	res.Required("password", r.Password)
	return res
}

type LoginResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"access_token"`
}

func validatePassword(res *validation.Result, password string) {
	if password == "" {
		res.Required("password", password)
		return
	}
	res.MinLength("password", password, MinPasswordLength)
	res.MaxBytes("password", password, security.MaxPasswordBytes)
}

// Register creates an account. caller is the bearer of the request, if any;
// only an admin caller (or a server configured to allow it) may hand out the
// admin role.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, caller *model.Actor) (*RegisterResponse, error) {
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	if role == model.RoleAdmin && !s.allowSelfAssignedRole && (caller == nil || !caller.IsAdmin()) {
		s.logger.WarnContext(ctx, "self-assigned admin role downgraded", "email", req.Email)
		role = model.RoleUser
	}

	_, err := s.users.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, common.NewError(common.ErrConflict, "User with this email already exists")
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, internalError(ctx, s.logger, "AuthService.Register lookup", err)
	}

	hashed, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, internalError(ctx, s.logger, "AuthService.Register hash", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Email:          req.Email,
		HashedPassword: hashed,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, internalError(ctx, s.logger, "AuthService.Register create", err)
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, internalError(ctx, s.logger, "AuthService.Register token", err)
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return &RegisterResponse{ID: user.ID, Email: user.Email, AccessToken: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.passwords.Check("", req.Password)
			return nil, errInvalidCredentials
		}
		return nil, internalError(ctx, s.logger, "AuthService.Login lookup", err)
	}

	if !s.passwords.Check(user.HashedPassword, req.Password) {
		return nil, errInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, internalError(ctx, s.logger, "AuthService.Login token", err)
	}
	return &LoginResponse{Success: true, AccessToken: token}, nil
}

// GetProfile returns the identity embedded in token without consulting storage.
func (s *AuthService) GetProfile(token string) (model.Actor, error) {
	if token == "" {
		return model.Actor{}, common.NewError(common.ErrUnauthorized, "Authorization token required")
	}
	actor, err := s.tokens.Verify(token)
	if err != nil {
		return model.Actor{}, common.NewError(common.ErrUnauthorized, "Invalid or expired token")
	}
	return actor, nil
}
