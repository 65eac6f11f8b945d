package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/maxigas/internal/domain"
	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/domain/repository"
	"github.com/jhoicas/maxigas/pkg/clock"
)

// State estado de la sesión de una pestaña.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Transition cambio de estado observable (auditoría).
type Transition struct {
	From   State
	To     State
	UserID int64
	Email  string
	Role   string
	Reason string
}

// Syncer lo que el coordinador necesita del bus de sincronización.
type Syncer interface {
	Subscribe(fn func()) (unsubscribe func())
	TriggerSync()
}

// RegisterInput datos de registro. Role vacío equivale a cliente.
type RegisterInput struct {
	FirstName string
	LastName  string
	Rut       string
	BirthDate string
	Email     string
	Password  string
	Phone     string
	Address   string
	Commune   string
	Role      string
}

// ProfileUpdate campos a modificar del usuario en sesión; nil deja el valor actual.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Address   *string
	Commune   *string
	Photo     *string
	Password  *string
	Available *bool
}

// Coordinator máquina de estados de la sesión de una pestaña. Mantiene una copia del usuario
// autenticado que se refresca cuando el bus avisa cambios en los datos compartidos.
type Coordinator struct {
	users repository.UserRepository
	vault *TokenVault
	store SessionStore
	bus   Syncer
	clock clock.Clock
	log   zerolog.Logger
	hook  func(Transition)

	mu    sync.Mutex
	state State
	user  *entity.User

	unsubscribe func()
}

// Option ajusta el Coordinator.
type Option func(*Coordinator)

// WithClock inyecta el reloj usado en fechas de registro.
func WithClock(c clock.Clock) Option { return func(co *Coordinator) { co.clock = c } }

// WithTransitionHook recibe cada transición de estado.
func WithTransitionHook(fn func(Transition)) Option { return func(co *Coordinator) { co.hook = fn } }

// NewCoordinator construye el coordinador y lo suscribe al bus.
func NewCoordinator(users repository.UserRepository, vault *TokenVault, store SessionStore, bus Syncer, log zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		users: users,
		vault: vault,
		store: store,
		bus:   bus,
		clock: clock.Real(),
		log:   log,
	}
	for _, o := range opts {
		o(c)
	}
	c.unsubscribe = bus.Subscribe(c.refresh)
	return c
}

// Close quita la suscripción al bus.
func (c *Coordinator) Close() {
	c.unsubscribe()
}

// Bootstrap restaura la sesión desde el token guardado en la pestaña. Token inválido o
// usuario inexistente dejan la pestaña sin sesión y descartan el token.
func (c *Coordinator) Bootstrap(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transition(StateAuthenticating, nil, "bootstrap")
	claims, ok := c.vault.Load(ctx)
	if !ok {
		return c.discard(ctx, "sin token válido")
	}
	user, err := c.users.GetByID(ctx, claims.UserID)
	if err != nil {
		c.transition(StateUnauthenticated, nil, "error al buscar usuario")
		return fmt.Errorf("bootstrap: %w", err)
	}
	if user == nil {
		return c.discard(ctx, "usuario del token no existe")
	}
	if err := c.store.SaveCurrentUser(ctx, user); err != nil {
		c.transition(StateUnauthenticated, nil, "error al guardar usuario")
		return fmt.Errorf("bootstrap: %w", err)
	}
	c.user = user
	c.transition(StateAuthenticated, user, "bootstrap")
	return nil
}

// Login autentica con email y contraseña. Credenciales incorrectas devuelven false sin error.
func (c *Coordinator) Login(ctx context.Context, email, password string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, prevUser := c.state, c.user
	c.transition(StateAuthenticating, nil, "login")
	user, err := c.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		c.transition(prev, prevUser, "error en login")
		return false, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		c.transition(prev, prevUser, domain.ErrInvalidCredentials.Error())
		return false, nil
	}
	if err := c.establish(ctx, user, "login"); err != nil {
		c.transition(prev, prevUser, "error en login")
		return false, err
	}
	return true, nil
}

// Register crea la cuenta y deja la sesión iniciada. Email o RUT ya registrados devuelven false.
func (c *Coordinator) Register(ctx context.Context, in RegisterInput) (bool, error) {
	ok, err := c.register(ctx, in)
	if ok {
		c.bus.TriggerSync()
	}
	return ok, err
}

func (c *Coordinator) register(ctx context.Context, in RegisterInput) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	role := in.Role
	if role == "" {
		role = entity.RoleCliente
	}
	if !entity.ValidRole(role) {
		return false, domain.ErrInvalidInput
	}
	email := strings.TrimSpace(in.Email)
	byEmail, err := c.users.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	byRut, err := c.users.FindByRut(ctx, in.Rut)
	if err != nil {
		return false, err
	}
	if byEmail != nil || byRut != nil {
		c.log.Info().Str("email", email).Bool("emailTaken", byEmail != nil).Bool("rutTaken", byRut != nil).
			Msg("registro rechazado")
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	id, err := c.users.NextID(ctx)
	if err != nil {
		return false, err
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
		RegisteredAt: c.clock.Now().UTC(),
		Role:         role,
		Photo:        entity.DefaultPhoto,
	}
	if err := c.users.Create(ctx, user); err != nil {
		return false, err
	}
	if err := c.establish(ctx, user, "registro"); err != nil {
		return false, err
	}
	return true, nil
}

// Logout cierra la sesión de esta pestaña. Los datos compartidos no se tocan.
func (c *Coordinator) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discard(ctx, "logout")
}

// UpdateProfile aplica los cambios al usuario en sesión, lo persiste y reemite el token.
func (c *Coordinator) UpdateProfile(ctx context.Context, p ProfileUpdate) error {
	if err := c.updateProfile(ctx, p); err != nil {
		return err
	}
	c.bus.TriggerSync()
	return nil
}

func (c *Coordinator) updateProfile(ctx context.Context, p ProfileUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active(ctx) == nil {
		return domain.ErrUnauthorized
	}
	merged := cloneUser(c.user)
	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		if email != merged.Email {
			other, err := c.users.FindByEmail(ctx, email)
			if err != nil {
				return err
			}
			if other != nil && other.ID != merged.ID {
				return domain.ErrEmailAlreadyExists
			}
			merged.Email = email
		}
	}
	setIf(&merged.FirstName, p.FirstName)
	setIf(&merged.LastName, p.LastName)
	setIf(&merged.Phone, p.Phone)
	setIf(&merged.Address, p.Address)
	setIf(&merged.Commune, p.Commune)
	setIf(&merged.Photo, p.Photo)
	if p.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*p.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		merged.PasswordHash = string(hash)
	}
	if p.Available != nil {
		v := *p.Available
		merged.Available = &v
	}

	if err := c.users.Update(ctx, merged); err != nil {
		return err
	}
	c.user = merged
	if err := c.store.SaveCurrentUser(ctx, merged); err != nil {
		return err
	}
	if _, err := c.vault.Save(ctx, merged); err != nil {
		return err
	}
	c.log.Info().Int64("id", merged.ID).Str("email", merged.Email).Msg("perfil actualizado")
	return nil
}

// RenewIfNeeded renueva el token si está por vencer. Si ya venció la pestaña queda sin sesión.
func (c *Coordinator) RenewIfNeeded(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active(ctx) == nil {
		return false, nil
	}
	return c.vault.RenewIfNeeded(ctx, c.user)
}

// RunRenewal llama a RenewIfNeeded cada interval hasta que ctx termine.
func (c *Coordinator) RunRenewal(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.RenewIfNeeded(ctx); err != nil {
				c.log.Warn().Err(err).Msg("renovación de token falló")
			}
		}
	}
}

// refresh se ejecuta en cada aviso del bus: vuelve a leer al usuario en sesión. Si su registro
// desapareció la pestaña queda sin sesión.
func (c *Coordinator) refresh() {
	ctx := context.Background()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return
	}
	fresh, err := c.users.GetByID(ctx, c.user.ID)
	if err != nil {
		c.log.Warn().Err(err).Int64("id", c.user.ID).Msg("no se pudo refrescar el usuario")
		return
	}
	if fresh == nil {
		if err := c.discard(ctx, "usuario eliminado"); err != nil {
			c.log.Warn().Err(err).Msg("no se pudo limpiar la sesión")
		}
		return
	}
	reissue := fresh.Role != c.user.Role || fresh.Email != c.user.Email
	c.user = fresh
	if err := c.store.SaveCurrentUser(ctx, fresh); err != nil {
		c.log.Warn().Err(err).Msg("no se pudo guardar el usuario en caché")
	}
	if reissue {
		if _, err := c.vault.Save(ctx, fresh); err != nil {
			c.log.Warn().Err(err).Msg("no se pudo reemitir el token")
		}
	}
}

// State estado actual.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentUser copia del usuario en sesión; nil sin sesión o con el token vencido.
func (c *Coordinator) CurrentUser() *entity.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	u := c.active(context.Background())
	if u == nil {
		return nil
	}
	return cloneUser(u)
}

// Token token de sesión vigente ("" sin sesión).
func (c *Coordinator) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active(ctx) == nil {
		return "", nil
	}
	return c.vault.Raw(ctx)
}

func (c *Coordinator) IsAuthenticated() bool { return c.hasRole("") }
func (c *Coordinator) IsAdmin() bool         { return c.hasRole(entity.RoleAdmin) }
func (c *Coordinator) IsDriver() bool        { return c.hasRole(entity.RoleRepartidor) }
func (c *Coordinator) IsCustomer() bool      { return c.hasRole(entity.RoleCliente) }

func (c *Coordinator) hasRole(role string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	u := c.active(context.Background())
	if u == nil {
		return false
	}
	return role == "" || u.Role == role
}

// active usuario en sesión mientras su token siga siendo válido. Un token vencido, adulterado
// o ausente cierra la sesión. Requiere c.mu.
func (c *Coordinator) active(ctx context.Context) *entity.User {
	if c.user == nil {
		return nil
	}
	if _, ok := c.vault.Load(ctx); ok {
		return c.user
	}
	if err := c.discard(ctx, "token expirado"); err != nil {
		c.log.Warn().Err(err).Msg("no se pudo limpiar la sesión vencida")
	}
	return nil
}

// establish emite el token y cachea al usuario. Requiere c.mu.
func (c *Coordinator) establish(ctx context.Context, user *entity.User, reason string) error {
	if _, err := c.vault.Save(ctx, user); err != nil {
		return err
	}
	if err := c.store.SaveCurrentUser(ctx, user); err != nil {
		return err
	}
	c.user = cloneUser(user)
	c.transition(StateAuthenticated, c.user, reason)
	return nil
}

// discard borra token y usuario cacheado. Requiere c.mu.
func (c *Coordinator) discard(ctx context.Context, reason string) error {
	prev := c.user
	c.user = nil
	errToken := c.vault.Remove(ctx)
	errUser := c.store.RemoveCurrentUser(ctx)
	c.transition(StateUnauthenticated, prev, reason)
	if errToken != nil {
		return errToken
	}
	return errUser
}

// transition registra el cambio de estado. Requiere c.mu.
func (c *Coordinator) transition(to State, u *entity.User, reason string) {
	t := Transition{From: c.state, To: to, Reason: reason}
	if u != nil {
		t.UserID, t.Email, t.Role = u.ID, u.Email, u.Role
	}
	c.state = to
	c.log.Info().
		Str("from", t.From.String()).
		Str("to", t.To.String()).
		Str("rol", t.Role).
		Int64("id", t.UserID).
		Str("email", t.Email).
		Str("reason", reason).
		Msg("transición de sesión")
	if c.hook != nil {
		c.hook(t)
	}
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func cloneUser(u *entity.User) *entity.User {
	cp := *u
	if u.Available != nil {
		v := *u.Available
		cp.Available = &v
	}
	return &cp
}
