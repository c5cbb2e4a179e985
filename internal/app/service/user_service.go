package service

import (
	"context"
	"log/slog"

	"blog_api/internal/common"
	"blog_api/internal/common/security"
	"blog_api/internal/common/validation"
	"blog_api/internal/domain/model"
	"blog_api/internal/domain/policy"
	"blog_api/internal/domain/repository"
)

type UserService struct {
	users     repository.UserRepository
	passwords *security.PasswordHasher
	logger    *slog.Logger
}

func NewUserService(users repository.UserRepository, passwords *security.PasswordHasher, logger *slog.Logger) *UserService {
	return &UserService{users: users, passwords: passwords, logger: logger}
}

// UpdateUserRequest carries a partial update; nil fields are left alone.
type UpdateUserRequest struct {
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Role      *string `json:"role,omitempty"`
}

func (r UpdateUserRequest) Validate() validation.Result {
	var res validation.Result
	if r.Email != nil {
		res.Email("email", *r.Email)
	}
	if r.Password != nil {
		validatePassword(&res, *r.Password)
	}
	if r.Role != nil {
		res.OneOf("role", *r.Role, model.RoleUser, model.RoleAdmin)
	}
	return res
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, internalError(ctx, s.logger, "UserService.List", err)
	}
	return users, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, internalError(ctx, s.logger, "UserService.GetByEmail", err)
	}
	return user, nil
}

// Update applies req to user id. Callers may edit themselves; admins may edit
// anyone and are the only ones allowed to change a role.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest, actor model.Actor) (*model.User, error) {
	if err := parseID(id, "user"); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, internalError(ctx, s.logger, "UserService.Update lookup", err)
	}
	if !policy.CanMutate(actor, user.ID) {
		return nil, common.NewError(common.ErrForbidden, "You can only update your own profile")
	}
	if req.Role != nil && *req.Role != user.Role && !policy.CanChangeRole(actor) {
		return nil, common.NewError(common.ErrForbidden, "Only admins can change roles")
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Password != nil {
		hashed, err := s.passwords.Hash(*req.Password)
		if err != nil {
			return nil, internalError(ctx, s.logger, "UserService.Update hash", err)
		}
		user.HashedPassword = hashed
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, internalError(ctx, s.logger, "UserService.Update", err)
	}
	return user, nil
}

// Promote grants the admin role. It is an operator action with no actor.
func (s *UserService) Promote(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, internalError(ctx, s.logger, "UserService.Promote lookup", err)
	}
	if user.Role == model.RoleAdmin {
		return user, nil
	}
	user.Role = model.RoleAdmin
	if err := s.users.Update(ctx, user); err != nil {
		return nil, internalError(ctx, s.logger, "UserService.Promote", err)
	}
	s.logger.InfoContext(ctx, "user promoted to admin", "user_id", user.ID)
	return user, nil
}
