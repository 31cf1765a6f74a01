package dto

import "github.com/shopspring/decimal"

// SimulacionFilter son los parámetros de consulta de una simulación.
// version=0 (ausente) resuelve la última versión del plan.
// Monto no lleva "required": monto=0 es un monto legítimo (aplicable en
// versiones sin piso) y el tag lo confundiría con ausencia; la presencia
// del parámetro la verifica el handler.
type SimulacionFilter struct {
	Monto   decimal.Decimal `form:"monto" validate:"min=0"`
	Version int             `form:"version" validate:"omitempty,min=1"`
}

// CuotaSimulada es el desglose de un plazo aplicable.
type CuotaSimulada struct {
	Plazo      int              `json:"plazo"`
	TNA        decimal.Decimal  `json:"tna"`
	Cuota      decimal.Decimal  `json:"cuota"`
	Quebranto  *decimal.Decimal `json:"quebranto,omitempty"`
	CuotaBalon *decimal.Decimal `json:"cuota_balon,omitempty"`
	MesesBalon []int            `json:"meses_balon,omitempty"`
}

type SimulacionResponse struct {
	PlanID         string          `json:"plan_id"`
	PlanVersionID  string          `json:"plan_version_id"`
	Version        int             `json:"version"`
	Monto          decimal.Decimal `json:"monto"`
	MontoAplicable bool            `json:"monto_aplicable"`
	Cuotas         []CuotaSimulada `json:"cuotas"`
}
