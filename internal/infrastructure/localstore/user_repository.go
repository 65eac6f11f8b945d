package localstore

import (
	"context"
	"strings"

	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre la colección "users".
type UserRepo struct {
	col *Collection[entity.User]
	ids *IDGenerator
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(col *Collection[entity.User], ids *IDGenerator) *UserRepo {
	return &UserRepo{col: col, ids: ids}
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	return r.col.Create(ctx, *user)
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	v, ok, err := r.col.FindByID(ctx, id)
	return found(v, ok, err)
}

// FindByEmail obtiene un usuario por email (comparación exacta).
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, ok, err := r.col.Find(ctx, func(u entity.User) bool { return u.Email == email })
	return found(u, ok, err)
}

// FindByRut obtiene un usuario por RUT. Se ignoran puntos, guion y mayúsculas de la K.
func (r *UserRepo) FindByRut(ctx context.Context, rut string) (*entity.User, error) {
	want := normalizeRut(rut)
	u, ok, err := r.col.Find(ctx, func(u entity.User) bool { return normalizeRut(u.Rut) == want })
	return found(u, ok, err)
}

// Update actualiza un usuario; si no existe no hace nada.
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	_, err := r.col.Update(ctx, *user)
	return err
}

// Delete elimina un usuario; si no existe no hace nada.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.col.Delete(ctx, id)
	return err
}

// List todos los usuarios.
func (r *UserRepo) List(ctx context.Context) ([]*entity.User, error) {
	return r.filter(ctx, func(entity.User) bool { return true })
}

// ListByRole usuarios con el rol dado.
func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]*entity.User, error) {
	return r.filter(ctx, func(u entity.User) bool { return u.Role == role })
}

// NextID siguiente ID libre.
func (r *UserRepo) NextID(ctx context.Context) (int64, error) {
	floor, err := r.col.MaxID(ctx)
	if err != nil {
		return 0, err
	}
	return r.ids.Next(floor), nil
}

func (r *UserRepo) filter(ctx context.Context, pred func(entity.User) bool) ([]*entity.User, error) {
	list, err := r.col.Filter(ctx, pred)
	if err != nil {
		return nil, err
	}
	return toPtrs(list), nil
}

func normalizeRut(rut string) string {
	return strings.ToUpper(strings.NewReplacer(".", "", "-", "", " ", "").Replace(rut))
}
