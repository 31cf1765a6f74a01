package dto

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"`
	User         UsuarioResponse `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CrearUsuarioRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=80"`
	Nombre   string  `json:"nombre"   validate:"required,min=2,max=120"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Rol      string  `json:"rol"      validate:"required,oneof=usuario admin super_admin"`
	// Empresas asignadas por membresía — scope de admin/usuario.
	EmpresaIDs []string `json:"empresa_ids" validate:"dive,uuid"`
}

type ActualizarUsuarioRequest struct {
	Nombre     string    `json:"nombre"      validate:"omitempty,min=2,max=120"`
	Email      *string   `json:"email"       validate:"omitempty,email"`
	Password   string    `json:"password"    validate:"omitempty,min=8"`
	Rol        string    `json:"rol"         validate:"omitempty,oneof=usuario admin super_admin"`
	EmpresaIDs *[]string `json:"empresa_ids" validate:"omitempty,dive,uuid"`
}

type UsuarioResponse struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	Nombre     string   `json:"nombre"`
	Email      *string  `json:"email,omitempty"`
	Rol        string   `json:"rol"`
	EmpresaIDs []string `json:"empresa_ids"`
	Activo     bool     `json:"activo"`
}
