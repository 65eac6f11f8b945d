package usecase

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/maxigas/internal/application/dto"
	"github.com/jhoicas/maxigas/internal/application/ports"
	"github.com/jhoicas/maxigas/internal/domain"
	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/domain/repository"
	"github.com/jhoicas/maxigas/pkg/clock"
)

// UserUseCase administración de usuarios.
type UserUseCase struct {
	repo     repository.UserRepository
	notifier ports.Notifier
	clock    clock.Clock
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository, notifier ports.Notifier, clk clock.Clock) *UserUseCase {
	return &UserUseCase{repo: repo, notifier: notifier, clock: clk}
}

// GetByID obtiene un usuario por ID.
func (uc *UserUseCase) GetByID(ctx context.Context, id int64) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(user), nil
}

// List usuarios, opcionalmente de un rol.
func (uc *UserUseCase) List(ctx context.Context, role string) ([]dto.UserResponse, error) {
	var (
		list []*entity.User
		err  error
	)
	if role == "" {
		list, err = uc.repo.List(ctx)
	} else {
		if !entity.ValidRole(role) {
			return nil, domain.ErrInvalidInput
		}
		list, err = uc.repo.ListByRole(ctx, role)
	}
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, *ToUserResponse(u))
	}
	return out, nil
}

// Create alta de usuario con cualquier rol. Email y RUT deben ser únicos.
func (uc *UserUseCase) Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	role := in.Role
	if role == "" {
		role = entity.RoleCliente
	}
	if !entity.ValidRole(role) || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	email := strings.TrimSpace(in.Email)
	if existing, err := uc.repo.FindByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	if existing, err := uc.repo.FindByRut(ctx, in.Rut); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrRutAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	id, err := uc.repo.NextID(ctx)
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		ID:           id,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Rut:          strings.TrimSpace(in.Rut),
		BirthDate:    in.BirthDate,
		Email:        email,
		PasswordHash: string(hash),
		Phone:        in.Phone,
		Address:      in.Address,
		Commune:      in.Commune,
		RegisteredAt: uc.clock.Now().UTC(),
		Role:         role,
		Photo:        entity.DefaultPhoto,
	}
	if role == entity.RoleRepartidor {
		available := true
		user.Available = &available
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.notifier.TriggerSync()
	return ToUserResponse(user), nil
}

// Update edita un usuario; (nil, nil) si no existe.
func (uc *UserUseCase) Update(ctx context.Context, id int64, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil || user == nil {
		return nil, err
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		other, err := uc.repo.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != user.ID {
			return nil, domain.ErrEmailAlreadyExists
		}
		user.Email = email
	}
	if in.Role != nil {
		if !entity.ValidRole(*in.Role) {
			return nil, domain.ErrInvalidInput
		}
		user.Role = *in.Role
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.Address != nil {
		user.Address = *in.Address
	}
	if in.Commune != nil {
		user.Commune = *in.Commune
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	uc.notifier.TriggerSync()
	return ToUserResponse(user), nil
}

// Delete elimina un usuario. Los administradores no se pueden eliminar.
func (uc *UserUseCase) Delete(ctx context.Context, id int64) error {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrNotFound
	}
	if user.Role == entity.RoleAdmin {
		return domain.ErrProtectedUser
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.notifier.TriggerSync()
	return nil
}

// SetAvailability marca a un repartidor como disponible u ocupado.
func (uc *UserUseCase) SetAvailability(ctx context.Context, id int64, available bool) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	if user.Role != entity.RoleRepartidor {
		return nil, domain.ErrInvalidInput
	}
	user.Available = &available
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	uc.notifier.TriggerSync()
	return ToUserResponse(user), nil
}

// ToUserResponse vista pública del usuario (sin hash).
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Rut:          u.Rut,
		BirthDate:    u.BirthDate,
		Email:        u.Email,
		Phone:        u.Phone,
		Address:      u.Address,
		Commune:      u.Commune,
		RegisteredAt: u.RegisteredAt,
		Role:         u.Role,
		Photo:        u.Photo,
		Available:    u.Available,
	}
}
