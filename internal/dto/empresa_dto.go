package dto

type CrearEmpresaRequest struct {
	Nombre string `json:"nombre" validate:"required,min=2,max=120"`
}

type ActualizarEmpresaRequest struct {
	Nombre string `json:"nombre" validate:"omitempty,min=2,max=120"`
}

type EmpresaResponse struct {
	ID        string `json:"id"`
	Nombre    string `json:"nombre"`
	Activa    bool   `json:"activa"`
	CreatedAt string `json:"created_at"`
}
