package dto

import "time"

// RegisterRequest entrada del registro público.
type RegisterRequest struct {
	FirstName string `json:"nombre"`
	LastName  string `json:"apellidos"`
	Rut       string `json:"rut"`
	BirthDate string `json:"fechaNacimiento"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"telefono"`
	Address   string `json:"direccion"`
	Commune   string `json:"comuna"`
}

// LoginRequest credenciales.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse estado de la sesión de la pestaña.
type SessionResponse struct {
	Token         string        `json:"token,omitempty"`
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user,omitempty"`
}

// UpdateProfileRequest cambios del propio perfil; campos ausentes no se modifican.
type UpdateProfileRequest struct {
	FirstName *string `json:"nombre"`
	LastName  *string `json:"apellidos"`
	Email     *string `json:"email"`
	Phone     *string `json:"telefono"`
	Address   *string `json:"direccion"`
	Commune   *string `json:"comuna"`
	Photo     *string `json:"foto"`
	Password  *string `json:"password"`
}

// CreateUserRequest alta de usuario desde administración.
type CreateUserRequest struct {
	RegisterRequest
	Role string `json:"rol"`
}

// UpdateUserRequest edición de usuario desde administración.
type UpdateUserRequest struct {
	FirstName *string `json:"nombre"`
	LastName  *string `json:"apellidos"`
	Email     *string `json:"email"`
	Phone     *string `json:"telefono"`
	Address   *string `json:"direccion"`
	Commune   *string `json:"comuna"`
	Role      *string `json:"rol"`
	Password  *string `json:"password"`
}

// AvailabilityRequest disponibilidad del repartidor.
type AvailabilityRequest struct {
	Available bool `json:"disponible"`
}

// UserResponse salida de un usuario (sin hash de contraseña).
type UserResponse struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"nombre"`
	LastName     string    `json:"apellidos"`
	Rut          string    `json:"rut"`
	BirthDate    string    `json:"fechaNacimiento"`
	Email        string    `json:"email"`
	Phone        string    `json:"telefono,omitempty"`
	Address      string    `json:"direccion,omitempty"`
	Commune      string    `json:"comuna,omitempty"`
	RegisteredAt time.Time `json:"fechaRegistro"`
	Role         string    `json:"rol"`
	Photo        string    `json:"foto,omitempty"`
	Available    *bool     `json:"disponible,omitempty"`
}
