package dto

import "github.com/shopspring/decimal"

type CrearCotizacionRequest struct {
	// Versión exacta del plan — la resolución "última vs. histórica" la hace
	// el caller antes de crear; acá nunca se sustituye por la última.
	PlanVersionID       string           `json:"plan_version_id" validate:"required,uuid"`
	EmpresaID           string           `json:"empresa_id"      validate:"required,uuid"`
	ClienteNombre       string           `json:"cliente_nombre"  validate:"required,min=2,max=160"`
	ClienteDNI          string           `json:"cliente_dni"     validate:"required,min=6,max=12"`
	VehiculoDescripcion *string          `json:"vehiculo_descripcion"`
	VersionVehiculoID   *uint            `json:"version_vehiculo_id"`
	ValorTotal          *decimal.Decimal `json:"valor_total" validate:"omitempty,min=0"`
}

type ActualizarCotizacionRequest struct {
	EmpresaID           *string          `json:"empresa_id" validate:"omitempty,uuid"`
	ClienteNombre       *string          `json:"cliente_nombre" validate:"omitempty,min=2,max=160"`
	ClienteDNI          *string          `json:"cliente_dni"    validate:"omitempty,min=6,max=12"`
	VehiculoDescripcion *string          `json:"vehiculo_descripcion"`
	VersionVehiculoID   *uint            `json:"version_vehiculo_id"`
	ValorTotal          *decimal.Decimal `json:"valor_total" validate:"omitempty,min=0"`
}

type CotizacionFilter struct {
	EmpresaID  string `form:"empresa_id"`
	ClienteDNI string `form:"cliente_dni"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type CotizacionResponse struct {
	ID                  string           `json:"id"`
	PlanVersionID       string           `json:"plan_version_id"`
	PlanVersion         int              `json:"plan_version"`
	EmpresaID           string           `json:"empresa_id"`
	UsuarioID           string           `json:"usuario_id"`
	ClienteNombre       string           `json:"cliente_nombre"`
	ClienteDNI          string           `json:"cliente_dni"`
	VehiculoDescripcion *string          `json:"vehiculo_descripcion,omitempty"`
	VersionVehiculoID   *uint            `json:"version_vehiculo_id,omitempty"`
	ValorTotal          *decimal.Decimal `json:"valor_total,omitempty"`
	CreatedAt           string           `json:"created_at"`
}

type CotizacionListResponse struct {
	Data  []CotizacionResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}
