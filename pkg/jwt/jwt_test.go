package jwt_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/maxigas/pkg/clock"
	pkgjwt "github.com/jhoicas/maxigas/pkg/jwt"
)

const testSecret = "test-secret-key-for-unit-tests"

var epoch = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, clk clock.Clock) *pkgjwt.Service {
	t.Helper()
	svc, err := pkgjwt.NewService(testSecret, pkgjwt.WithClock(clk))
	require.NoError(t, err)
	return svc
}

func TestNewService_SinSecretoFalla(t *testing.T) {
	_, err := pkgjwt.NewService("")
	assert.Error(t, err)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	clk := clock.Fake(epoch)
	svc := newService(t, clk)

	subjects := []pkgjwt.Subject{
		{UserID: 9001, Email: "admin@maxigas.cl", Role: "admin"},
		{UserID: 9002, Email: "repartidor@maxigas.cl", Role: "repartidor"},
		{UserID: 1741608000001, Email: "a@b.cl", Role: "cliente"},
	}
	for _, sub := range subjects {
		tok, err := svc.Issue(sub)
		require.NoError(t, err)

		claims, ok := svc.Verify(tok)
		require.True(t, ok, "el token recién emitido debe ser válido")
		assert.Equal(t, sub.UserID, claims.UserID)
		assert.Equal(t, sub.Email, claims.Email)
		assert.Equal(t, sub.Role, claims.Role)
		assert.Equal(t, (24 * time.Hour).Milliseconds(), claims.ExpiresAt-claims.IssuedAt)
		assert.Equal(t, epoch.UnixMilli(), claims.IssuedAt)
	}
}

func TestIssue_FormatoTresSegmentosSinPadding(t *testing.T) {
	svc := newService(t, clock.Fake(epoch))
	tok, err := svc.Issue(pkgjwt.Subject{UserID: 1, Email: "x@y.cl", Role: "cliente"})
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	for _, p := range parts {
		assert.NotContains(t, p, "=")
		assert.NotContains(t, p, "+")
		assert.NotContains(t, p, "/")
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	for _, k := range []string{"userId", "email", "rol", "iat", "exp"} {
		assert.Contains(t, payload, k)
	}
}

func TestVerify_FirmaAdulteradaEnCualquierPosicion(t *testing.T) {
	svc := newService(t, clock.Fake(epoch))
	tok, err := svc.Issue(pkgjwt.Subject{UserID: 7, Email: "x@y.cl", Role: "cliente"})
	require.NoError(t, err)

	sigStart := strings.LastIndex(tok, ".") + 1
	for i := sigStart; i < len(tok); i++ {
		replacement := byte('A')
		if tok[i] == 'A' {
			replacement = 'B'
		}
		tampered := tok[:i] + string(replacement) + tok[i+1:]
		_, ok := svc.Verify(tampered)
		assert.False(t, ok, "cambiar el carácter %d de la firma debe invalidar el token", i-sigStart)
	}
}

func TestVerify_PayloadAdulterado(t *testing.T) {
	svc := newService(t, clock.Fake(epoch))
	tok, err := svc.Issue(pkgjwt.Subject{UserID: 7, Email: "x@y.cl", Role: "cliente"})
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	forged, err := json.Marshal(pkgjwt.Claims{UserID: 7, Email: "x@y.cl", Role: "admin", IssuedAt: epoch.UnixMilli(), ExpiresAt: epoch.Add(time.Hour).UnixMilli()})
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString(forged)

	_, ok := svc.Verify(strings.Join(parts, "."))
	assert.False(t, ok, "escalar el rol sin re-firmar no debe ser aceptado")
}

func TestVerify_EstructuraInvalida(t *testing.T) {
	svc := newService(t, clock.Fake(epoch))
	for _, tok := range []string{"", "a", "a.b", "a.b.c.d", "token.invalido.aqui", "..."} {
		_, ok := svc.Verify(tok)
		assert.False(t, ok, "token %q debe ser inválido", tok)
	}
}

func TestVerify_SecretoDistinto(t *testing.T) {
	clk := clock.Fake(epoch)
	tok, err := newService(t, clk).Issue(pkgjwt.Subject{UserID: 1, Email: "x@y.cl", Role: "cliente"})
	require.NoError(t, err)

	other, err := pkgjwt.NewService("otro-secret-completamente-distinto", pkgjwt.WithClock(clk))
	require.NoError(t, err)
	_, ok := other.Verify(tok)
	assert.False(t, ok)
}

func TestVerify_Expiracion(t *testing.T) {
	clk := clock.Fake(epoch)
	svc := newService(t, clk)
	tok, err := svc.Issue(pkgjwt.Subject{UserID: 1, Email: "x@y.cl", Role: "cliente"})
	require.NoError(t, err)

	clk.Set(epoch.Add(24 * time.Hour))
	_, ok := svc.Verify(tok)
	assert.True(t, ok, "en el milisegundo exacto de exp el token sigue vigente")

	clk.Set(epoch.Add(24*time.Hour + time.Millisecond))
	_, ok = svc.Verify(tok)
	assert.False(t, ok, "un milisegundo después de exp el token expira")
}

func TestVerify_TokenEmitidoEnElPasado(t *testing.T) {
	clk := clock.Fake(epoch.Add(-48 * time.Hour))
	svc := newService(t, clk)
	tok, err := svc.Issue(pkgjwt.Subject{UserID: 1, Email: "x@y.cl", Role: "cliente"})
	require.NoError(t, err)

	clk.Set(epoch)
	_, ok := svc.Verify(tok)
	assert.False(t, ok)
}

func TestNearExpiry_Limites(t *testing.T) {
	clk := clock.Fake(epoch)
	svc := newService(t, clk)
	exp := epoch.Add(24 * time.Hour)
	claims := &pkgjwt.Claims{IssuedAt: epoch.UnixMilli(), ExpiresAt: exp.UnixMilli()}

	threshold := exp.Add(-time.Hour)

	clk.Set(threshold.Add(-time.Millisecond))
	assert.False(t, svc.NearExpiry(claims), "queda 1h+1ms")

	clk.Set(threshold)
	assert.False(t, svc.NearExpiry(claims), "queda exactamente 1h")

	clk.Set(threshold.Add(time.Millisecond))
	assert.True(t, svc.NearExpiry(claims), "queda 1h-1ms")

	assert.False(t, svc.NearExpiry(nil))
}
