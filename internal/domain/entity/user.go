package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleRepartidor = "repartidor"
	RoleCliente    = "cliente"
)

// DefaultPhoto foto asignada al registrarse.
const DefaultPhoto = "https://via.placeholder.com/150"

// ValidRole indica si r es uno de los roles conocidos.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleRepartidor || r == RoleCliente
}

// User representa una cuenta de la tienda (cliente, repartidor o administrador).
// Único por ID, RUT y email.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"nombre"`
	LastName     string    `json:"apellidos"`
	Rut          string    `json:"rut"`
	BirthDate    string    `json:"fechaNacimiento"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"` // bcrypt, nunca la contraseña en texto plano
	Phone        string    `json:"telefono,omitempty"`
	Address      string    `json:"direccion,omitempty"`
	Commune      string    `json:"comuna,omitempty"`
	RegisteredAt time.Time `json:"fechaRegistro"`
	Role         string    `json:"rol"`
	Photo        string    `json:"foto,omitempty"`
	Available    *bool     `json:"disponible,omitempty"` // solo repartidores
}

// FullName nombre y apellidos.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsAvailable para repartidores: disponible salvo que se haya marcado lo contrario.
func (u *User) IsAvailable() bool {
	return u.Role == RoleRepartidor && (u.Available == nil || *u.Available)
}

// GetID implementa la identidad usada por el almacén de registros.
func (u User) GetID() int64 { return u.ID }
