package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearPlanRequest struct {
	Nombre      string  `json:"nombre" validate:"required,min=2,max=120"`
	Descripcion *string `json:"descripcion"`
	// Al menos una empresa activa debe ofrecer el plan.
	EmpresaIDs []string `json:"empresa_ids" validate:"required,min=1,dive,uuid"`
	// Vacío = visible para todos los usuarios de las empresas asociadas.
	UsuariosPermitidosIDs []string `json:"usuarios_permitidos_ids" validate:"dive,uuid"`
}

// ActualizarPlanRequest toca solo metadata del Plan — nunca versiones.
type ActualizarPlanRequest struct {
	Nombre                *string   `json:"nombre" validate:"omitempty,min=2,max=120"`
	Descripcion           *string   `json:"descripcion"`
	Activo                *bool     `json:"activo"`
	EmpresaIDs            *[]string `json:"empresa_ids" validate:"omitempty,min=1,dive,uuid"`
	UsuariosPermitidosIDs *[]string `json:"usuarios_permitidos_ids" validate:"omitempty,dive,uuid"`
}

type CoeficienteRequest struct {
	Plazo               int              `json:"plazo"                validate:"required,min=1"`
	TNA                 decimal.Decimal  `json:"tna"                  validate:"min=0"`
	Coeficiente         decimal.Decimal  `json:"coeficiente"          validate:"min=0"`
	QuebrantoFinanciero *decimal.Decimal `json:"quebranto_financiero" validate:"omitempty,min=0"`
	CuotaBalon          *decimal.Decimal `json:"cuota_balon"          validate:"omitempty,min=0"`
	CuotaPromedio       *decimal.Decimal `json:"cuota_promedio"       validate:"omitempty,min=0"`
	MesesBalon          []int            `json:"meses_balon"          validate:"dive,min=1"`
}

type CrearVersionRequest struct {
	Coeficientes []CoeficienteRequest `json:"coeficientes" validate:"dive"`
	DesdeMonto   *decimal.Decimal     `json:"desde_monto"  validate:"omitempty,min=0"`
	HastaMonto   *decimal.Decimal     `json:"hasta_monto"  validate:"omitempty,min=0"`
	DesdeCuota   *int                 `json:"desde_cuota"  validate:"omitempty,min=1"`
	HastaCuota   *int                 `json:"hasta_cuota"  validate:"omitempty,min=1"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type PlanFilter struct {
	Nombre    string `form:"nombre"`
	EmpresaID string `form:"empresa_id"`
	Activo    string `form:"activo"` // "false" | "all" | default activos
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CoeficienteResponse struct {
	Plazo               int              `json:"plazo"`
	TNA                 decimal.Decimal  `json:"tna"`
	Coeficiente         decimal.Decimal  `json:"coeficiente"`
	QuebrantoFinanciero *decimal.Decimal `json:"quebranto_financiero,omitempty"`
	CuotaBalon          *decimal.Decimal `json:"cuota_balon,omitempty"`
	CuotaPromedio       *decimal.Decimal `json:"cuota_promedio,omitempty"`
	MesesBalon          []int            `json:"meses_balon,omitempty"`
}

type PlanVersionResponse struct {
	ID           string                `json:"id"`
	PlanID       string                `json:"plan_id"`
	Version      int                   `json:"version"`
	EsUltima     bool                  `json:"es_ultima"`
	DesdeMonto   *decimal.Decimal      `json:"desde_monto,omitempty"`
	HastaMonto   *decimal.Decimal      `json:"hasta_monto,omitempty"`
	DesdeCuota   *int                  `json:"desde_cuota,omitempty"`
	HastaCuota   *int                  `json:"hasta_cuota,omitempty"`
	Coeficientes []CoeficienteResponse `json:"coeficientes"`
	CreatedAt    string                `json:"created_at"`
}

type PlanResponse struct {
	ID                    string   `json:"id"`
	Nombre                string   `json:"nombre"`
	Descripcion           *string  `json:"descripcion,omitempty"`
	LogoRef               *string  `json:"logo_ref,omitempty"`
	Activo                bool     `json:"activo"`
	EmpresaIDs            []string `json:"empresa_ids"`
	UsuariosPermitidosIDs []string `json:"usuarios_permitidos_ids"`
	VersionActual         int      `json:"version_actual"`
	CreatedAt             string   `json:"created_at"`
}

type PlanListResponse struct {
	Data  []PlanResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
