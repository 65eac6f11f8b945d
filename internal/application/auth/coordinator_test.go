package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/maxigas/internal/application/auth"
	"github.com/jhoicas/maxigas/internal/application/syncbus"
	"github.com/jhoicas/maxigas/internal/domain"
	"github.com/jhoicas/maxigas/internal/domain/entity"
	"github.com/jhoicas/maxigas/internal/infrastructure/localstore"
	"github.com/jhoicas/maxigas/internal/infrastructure/storage"
	"github.com/jhoicas/maxigas/pkg/clock"
	"github.com/jhoicas/maxigas/pkg/jwt"
)

var start = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

type origin struct {
	hub *storage.MemoryHub
	ids *localstore.IDGenerator
	clk *clock.FakeClock
}

func newOrigin() *origin {
	clk := clock.Fake(start)
	return &origin{hub: storage.NewMemoryHub(), ids: localstore.NewIDGenerator(clk), clk: clk}
}

type tab struct {
	store   *localstore.Store
	private *storage.Private
	area    *localstore.TabArea
	bus     *syncbus.Bus
	tokens  *jwt.Service
	coord   *auth.Coordinator
	events  []auth.Transition
}

func (o *origin) open(t *testing.T, name string) *tab {
	t.Helper()
	shared := o.hub.Tab(name)
	tb := &tab{
		store:   localstore.NewStore(shared, o.ids, zerolog.Nop()),
		private: storage.NewPrivate(),
		bus:     syncbus.New(shared, localstore.SharedKeys, zerolog.Nop()),
	}
	tb.area = localstore.NewTabArea(tb.private, zerolog.Nop())
	tokens, err := jwt.NewService("clave-de-prueba", jwt.WithClock(o.clk))
	require.NoError(t, err)
	tb.tokens = tokens
	vault := auth.NewTokenVault(tokens, tb.area, zerolog.Nop())
	tb.coord = auth.NewCoordinator(tb.store.Users, vault, tb.area, tb.bus, zerolog.Nop(),
		auth.WithClock(o.clk),
		auth.WithTransitionHook(func(tr auth.Transition) { tb.events = append(tb.events, tr) }),
	)
	tb.bus.StartListening()
	t.Cleanup(func() {
		tb.bus.StopListening()
		tb.coord.Close()
	})
	return tb
}

func seedUser(t *testing.T, tb *tab, u entity.User, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u.PasswordHash = string(hash)
	require.NoError(t, tb.store.Users.Create(context.Background(), &u))
}

func registerInput(email, rut string) auth.RegisterInput {
	return auth.RegisterInput{
		FirstName: "Ana", LastName: "Rojas", Rut: rut, BirthDate: "1990-04-02",
		Email: email, Password: "Abcdef12",
	}
}

func TestRegister_EscenarioRutDuplicado(t *testing.T) {
	ctx := context.Background()
	tb := newOrigin().open(t, "t1")

	ok, err := tb.coord.Register(ctx, registerInput("a@b.cl", "11.111.111-1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, tb.coord.IsAuthenticated())
	assert.True(t, tb.coord.IsCustomer())
	assert.Equal(t, entity.RoleCliente, tb.coord.CurrentUser().Role)
	assert.Equal(t, entity.DefaultPhoto, tb.coord.CurrentUser().Photo)
	assert.Equal(t, start, tb.coord.CurrentUser().RegisteredAt)

	ok, err = tb.coord.Register(ctx, registerInput("c@d.cl", "11.111.111-1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegister_UnicidadPorEmailYRut(t *testing.T) {
	ctx := context.Background()
	o := newOrigin()
	seeder := o.open(t, "seed")
	seedUser(t, seeder, entity.User{ID: 1, Email: "e@x.cl", Rut: "12.345.678-5", Role: entity.RoleCliente}, "Secreta12")

	cases := []struct {
		name  string
		email string
		rut   string
		ok    bool
	}{
		{"mismo email distinto rut", "e@x.cl", "11.111.111-1", false},
		{"mismo rut distinto email", "otro@x.cl", "12.345.678-5", false},
		{"mismo rut sin puntos", "otro@x.cl", "12345678-5", false},
		{"ambos distintos", "nuevo@x.cl", "10.000.013-K", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tb := o.open(t, tc.name)
			ok, err := tb.coord.Register(ctx, registerInput(tc.email, tc.rut))
			require.NoError(t, err)
			assert.Equal(t, tc.ok, ok)
			if !tc.ok {
				assert.False(t, tb.coord.IsAuthenticated())
				return
			}
			fresh := o.open(t, "login-"+tc.name)
			ok, err = fresh.coord.Login(ctx, tc.email, "Abcdef12")
			require.NoError(t, err)
			assert.True(t, ok, "el usuario recién registrado puede iniciar sesión")
		})
	}
}

func TestRegister_RolInvalido(t *testing.T) {
	tb := newOrigin().open(t, "t1")
	in := registerInput("a@b.cl", "11.111.111-1")
	in.Role = "superusuario"
	ok, err := tb.coord.Register(context.Background(), in)
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	ctx := context.Background()
	tb := newOrigin().open(t, "t1")
	seedUser(t, tb, entity.User{ID: 1, Email: "a@b.cl", Role: entity.RoleAdmin}, "Admin123")

	ok, err := tb.coord.Login(ctx, "a@b.cl", "admin123")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = tb.coord.Login(ctx, "nadie@b.cl", "Admin123")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, auth.StateUnauthenticated, tb.coord.State())
	tok, _ := tb.area.Token(ctx)
	assert.Empty(t, tok)

	ok, err = tb.coord.Login(ctx, "a@b.cl", "Admin123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, tb.coord.IsAdmin())
	assert.False(t, tb.coord.IsDriver())

	tok, _ = tb.area.Token(ctx)
	claims, valid := tb.tokens.Verify(tok)
	require.True(t, valid)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, entity.RoleAdmin, claims.Role)
}

func TestLogin_TransicionesObservables(t *testing.T) {
	ctx := context.Background()
	tb := newOrigin().open(t, "t1")
	seedUser(t, tb, entity.User{ID: 3, Email: "r@b.cl", Role: entity.RoleRepartidor}, "Clave1234")

	ok, err := tb.coord.Login(ctx, "r@b.cl", "Clave1234")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, tb.coord.Logout(ctx))

	require.Len(t, tb.events, 3)
	assert.Equal(t, auth.StateAuthenticating, tb.events[0].To)
	assert.Equal(t, auth.StateAuthenticated, tb.events[1].To)
	assert.Equal(t, entity.RoleRepartidor, tb.events[1].Role)
	assert.Equal(t, int64(3), tb.events[1].UserID)
	assert.Equal(t, auth.StateUnauthenticated, tb.events[2].To)
	assert.Equal(t, "r@b.cl", tb.events[2].Email)
}

func TestLogout_SoloLimpiaLaPestana(t *testing.T) {
	ctx := context.Background()
	tb := newOrigin().open(t, "t1")
	ok, err := tb.coord.Register(ctx, registerInput("a@b.cl", "11.111.111-1"))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, tb.coord.Logout(ctx))
	assert.False(t, tb.coord.IsAuthenticated())
	assert.Nil(t, tb.coord.CurrentUser())
	assert.Empty(t, tb.private.Keys())

	users, err := tb.store.Users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1, "los datos compartidos no se tocan")
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("token válido restaura la sesión", func(t *testing.T) {
		tb := newOrigin().open(t, "t1")
		seedUser(t, tb, entity.User{ID: 5, Email: "a@b.cl", Role: entity.RoleCliente}, "x")
		tok, err := tb.tokens.Issue(jwt.Subject{UserID: 5, Email: "a@b.cl", Role: entity.RoleCliente})
		require.NoError(t, err)
		require.NoError(t, tb.area.SaveToken(ctx, tok))

		require.NoError(t, tb.coord.Bootstrap(ctx))
		assert.Equal(t, auth.StateAuthenticated, tb.coord.State())
		assert.Equal(t, int64(5), tb.coord.CurrentUser().ID)
	})

	t.Run("usuario eliminado descarta el token", func(t *testing.T) {
		tb := newOrigin().open(t, "t1")
		tok, err := tb.tokens.Issue(jwt.Subject{UserID: 77, Email: "x@b.cl", Role: entity.RoleCliente})
		require.NoError(t, err)
		require.NoError(t, tb.area.SaveToken(ctx, tok))

		require.NoError(t, tb.coord.Bootstrap(ctx))
		assert.Equal(t, auth.StateUnauthenticated, tb.coord.State())
		got, _ := tb.area.Token(ctx)
		assert.Empty(t, got)
	})

	t.Run("token vencido equivale a no tener token", func(t *testing.T) {
		o := newOrigin()
		tb := o.open(t, "t1")
		seedUser(t, tb, entity.User{ID: 5, Email: "a@b.cl", Role: entity.RoleCliente}, "x")
		tok, err := tb.tokens.Issue(jwt.Subject{UserID: 5, Email: "a@b.cl", Role: entity.RoleCliente})
		require.NoError(t, err)
		require.NoError(t, tb.area.SaveToken(ctx, tok))
		o.clk.Advance(24*time.Hour + time.Millisecond)

		require.NoError(t, tb.coord.Bootstrap(ctx))
		assert.False(t, tb.coord.IsAuthenticated())
	})

	t.Run("token adulterado", func(t *testing.T) {
		tb := newOrigin().open(t, "t1")
		require.NoError(t, tb.area.SaveToken(ctx, "no.es.token"))
		require.NoError(t, tb.coord.Bootstrap(ctx))
		assert.False(t, tb.coord.IsAuthenticated())
	})
}

func TestUpdateProfile_PersisteYReemiteToken(t *testing.T) {
	ctx := context.Background()
	o := newOrigin()
	tb := o.open(t, "t1")
	ok, err := tb.coord.Register(ctx, registerInput("a@b.cl", "11.111.111-1"))
	require.NoError(t, err)
	require.True(t, ok)
	before, _ := tb.area.Token(ctx)

	o.clk.Advance(time.Minute)
	phone := "+56911112222"
	pass := "Nueva1234"
	require.NoError(t, tb.coord.UpdateProfile(ctx, auth.ProfileUpdate{Phone: &phone, Password: &pass}))

	after, _ := tb.area.Token(ctx)
	assert.NotEqual(t, before, after)
	assert.Equal(t, phone, tb.coord.CurrentUser().Phone)

	stored, err := tb.store.Users.GetByID(ctx, tb.coord.CurrentUser().ID)
	require.NoError(t, err)
	assert.Equal(t, phone, stored.Phone)

	other := o.open(t, "t2")
	ok, err = other.coord.Login(ctx, "a@b.cl", pass)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateProfile_SinSesionOEmailOcupado(t *testing.T) {
	ctx := context.Background()
	tb := newOrigin().open(t, "t1")
	name := "X"
	assert.ErrorIs(t, tb.coord.UpdateProfile(ctx, auth.ProfileUpdate{FirstName: &name}), domain.ErrUnauthorized)

	seedUser(t, tb, entity.User{ID: 1, Email: "ocupado@b.cl", Rut: "1-9", Role: entity.RoleCliente}, "x")
	ok, err := tb.coord.Register(ctx, registerInput("a@b.cl", "11.111.111-1"))
	require.NoError(t, err)
	require.True(t, ok)
	email := "ocupado@b.cl"
	assert.ErrorIs(t, tb.coord.UpdateProfile(ctx, auth.ProfileUpdate{Email: &email}), domain.ErrEmailAlreadyExists)
}

func TestRefresh_CambiosDeOtraPestanaSeReflejan(t *testing.T) {
	ctx := context.Background()
	o := newOrigin()
	a, b := o.open(t, "a"), o.open(t, "b")
	seedUser(t, a, entity.User{ID: 9002, Email: "rep@b.cl", Role: entity.RoleRepartidor}, "Repartidor123")

	for _, tb := range []*tab{a, b} {
		ok, err := tb.coord.Login(ctx, "rep@b.cl", "Repartidor123")
		require.NoError(t, err)
		require.True(t, ok)
	}

	off := false
	require.NoError(t, a.coord.UpdateProfile(ctx, auth.ProfileUpdate{Available: &off}))

	require.Eventually(t, func() bool {
		u := b.coord.CurrentUser()
		return u != nil && u.Available != nil && !*u.Available
	}, time.Second, time.Millisecond)
}

func TestRefresh_UsuarioEliminadoCierraLaSesion(t *testing.T) {
	ctx := context.Background()
	o := newOrigin()
	admin, client := o.open(t, "admin"), o.open(t, "client")
	ok, err := client.coord.Register(ctx, registerInput("a@b.cl", "11.111.111-1"))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, admin.store.Users.Delete(ctx, client.coord.CurrentUser().ID))

	require.Eventually(t, func() bool { return !client.coord.IsAuthenticated() }, time.Second, time.Millisecond)
	tok, _ := client.area.Token(ctx)
	assert.Empty(t, tok)
}

func TestPestanasConSesionesIndependientes(t *testing.T) {
	ctx := context.Background()
	o := newOrigin()
	a, b := o.open(t, "a"), o.open(t, "b")
	seedUser(t, a, entity.User{ID: 1, Email: "admin@b.cl", Role: entity.RoleAdmin}, "Admin123")

	ok, err := a.coord.Login(ctx, "admin@b.cl", "Admin123")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = b.coord.Register(ctx, registerInput("cli@b.cl", "11.111.111-1"))
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, a.coord.IsAdmin())
	assert.True(t, b.coord.IsCustomer())
	ta, _ := a.area.Token(ctx)
	tb, _ := b.area.Token(ctx)
	assert.NotEqual(t, ta, tb)
}

func TestRenewIfNeeded(t *testing.T) {
	ctx := context.Background()
	o := newOrigin()
	tb := o.open(t, "t1")
	seedUser(t, tb, entity.User{ID: 1, Email: "a@b.cl", Role: entity.RoleCliente}, "Clave1234")
	ok, err := tb.coord.Login(ctx, "a@b.cl", "Clave1234")
	require.NoError(t, err)
	require.True(t, ok)
	first, _ := tb.area.Token(ctx)

	o.clk.Advance(22 * time.Hour)
	renewed, err := tb.coord.RenewIfNeeded(ctx)
	require.NoError(t, err)
	assert.False(t, renewed, "quedan más de una hora")

	o.clk.Advance(90 * time.Minute)
	renewed, err = tb.coord.RenewIfNeeded(ctx)
	require.NoError(t, err)
	assert.True(t, renewed)

	second, _ := tb.area.Token(ctx)
	assert.NotEqual(t, first, second)
	claims, valid := tb.tokens.Verify(second)
	require.True(t, valid)
	assert.Equal(t, o.clk.Now().Add(24*time.Hour).UnixMilli(), claims.ExpiresAt)
}

func TestRenewIfNeeded_SinSesion(t *testing.T) {
	tb := newOrigin().open(t, "t1")
	renewed, err := tb.coord.RenewIfNeeded(context.Background())
	require.NoError(t, err)
	assert.False(t, renewed)
}

func TestRenewIfNeeded_TokenVencidoCierraLaSesion(t *testing.T) {
	ctx := context.Background()
	o := newOrigin()
	tb := o.open(t, "t1")
	ok, err := tb.coord.Register(ctx, registerInput("a@b.cl", "11.111.111-1"))
	require.NoError(t, err)
	require.True(t, ok)

	o.clk.Advance(25 * time.Hour)
	renewed, err := tb.coord.RenewIfNeeded(ctx)
	require.NoError(t, err)
	assert.False(t, renewed)
	assert.Equal(t, auth.StateUnauthenticated, tb.coord.State())
	assert.False(t, tb.coord.IsAuthenticated())
	assert.Nil(t, tb.coord.CurrentUser())
	got, _ := tb.area.Token(ctx)
	assert.Empty(t, got)

	last := tb.events[len(tb.events)-1]
	assert.Equal(t, auth.StateUnauthenticated, last.To)
	assert.Equal(t, "a@b.cl", last.Email)
}

func TestCurrentUser_TokenVencidoSinRenovacion(t *testing.T) {
	ctx := context.Background()
	o := newOrigin()
	tb := o.open(t, "t1")
	seedUser(t, tb, entity.User{ID: 9, Email: "adm@b.cl", Role: entity.RoleAdmin}, "Clave1234")
	ok, err := tb.coord.Login(ctx, "adm@b.cl", "Clave1234")
	require.NoError(t, err)
	require.True(t, ok)

	o.clk.Advance(24*time.Hour - time.Millisecond)
	assert.True(t, tb.coord.IsAdmin(), "aún vigente")

	o.clk.Advance(2 * time.Millisecond)
	assert.False(t, tb.coord.IsAdmin())
	assert.Nil(t, tb.coord.CurrentUser())
	assert.Equal(t, auth.StateUnauthenticated, tb.coord.State())
	tok, err := tb.coord.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
	assert.ErrorIs(t, tb.coord.UpdateProfile(ctx, auth.ProfileUpdate{}), domain.ErrUnauthorized)
}

func TestCurrentUser_TokenAdulteradoCierraLaSesion(t *testing.T) {
	ctx := context.Background()
	tb := newOrigin().open(t, "t1")
	ok, err := tb.coord.Register(ctx, registerInput("a@b.cl", "11.111.111-1"))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, tb.area.SaveToken(ctx, "no.es.token"))
	assert.Nil(t, tb.coord.CurrentUser())
	assert.Equal(t, auth.StateUnauthenticated, tb.coord.State())
}

// failingUserStore no logra guardar la copia del usuario.
type failingUserStore struct {
	*localstore.TabArea
}

func (failingUserStore) SaveCurrentUser(context.Context, *entity.User) error {
	return errors.New("área privada llena")
}

func TestBootstrap_ErrorAlGuardarUsuarioQuedaSinSesion(t *testing.T) {
	ctx := context.Background()
	o := newOrigin()
	tb := o.open(t, "t1")
	seedUser(t, tb, entity.User{ID: 5, Email: "a@b.cl", Role: entity.RoleCliente}, "x")
	tok, err := tb.tokens.Issue(jwt.Subject{UserID: 5, Email: "a@b.cl", Role: entity.RoleCliente})
	require.NoError(t, err)
	require.NoError(t, tb.area.SaveToken(ctx, tok))

	vault := auth.NewTokenVault(tb.tokens, tb.area, zerolog.Nop())
	coord := auth.NewCoordinator(tb.store.Users, vault, failingUserStore{tb.area}, tb.bus, zerolog.Nop(), auth.WithClock(o.clk))
	t.Cleanup(coord.Close)

	assert.Error(t, coord.Bootstrap(ctx))
	assert.Equal(t, auth.StateUnauthenticated, coord.State())
	assert.False(t, coord.IsAuthenticated())
	assert.Nil(t, coord.CurrentUser())
}
