package dto

// El alta de una versión crea los ancestros que falten (marca/línea/modelo
// se resuelven por nombre); la baja de la última versión poda los ancestros
// vacíos.

type CrearVersionVehiculoRequest struct {
	Marca  string `json:"marca"  validate:"required,min=1,max=80"`
	Linea  string `json:"linea"  validate:"required,min=1,max=80"`
	Modelo string `json:"modelo" validate:"required,min=1,max=80"`
	Nombre string `json:"nombre" validate:"required,min=1,max=120"`
	// Empresas que pueden cotizar esta versión.
	EmpresaIDs []string `json:"empresa_ids" validate:"required,min=1,dive,uuid"`
}

type ActualizarVersionVehiculoRequest struct {
	Nombre     *string   `json:"nombre" validate:"omitempty,min=1,max=120"`
	EmpresaIDs *[]string `json:"empresa_ids" validate:"omitempty,min=1,dive,uuid"`
}

type VersionVehiculoResponse struct {
	ID         uint     `json:"id"`
	Marca      string   `json:"marca"`
	Linea      string   `json:"linea"`
	Modelo     string   `json:"modelo"`
	Nombre     string   `json:"nombre"`
	EmpresaIDs []string `json:"empresa_ids"`
}

type MarcaResponse struct {
	ID     uint            `json:"id"`
	Nombre string          `json:"nombre"`
	Lineas []LineaResponse `json:"lineas"`
}

type LineaResponse struct {
	ID      uint             `json:"id"`
	Nombre  string           `json:"nombre"`
	Modelos []ModeloResponse `json:"modelos"`
}

type ModeloResponse struct {
	ID        uint                      `json:"id"`
	Nombre    string                    `json:"nombre"`
	Versiones []VersionVehiculoResponse `json:"versiones"`
}
