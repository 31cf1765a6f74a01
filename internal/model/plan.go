package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Plan es un producto de financiación ofrecido por una o más empresas.
// El pricing vive en PlanVersion: el Plan solo guarda metadata mutable.
// Invariante: todo Plan tiene al menos una PlanVersion (la versión 1 se crea
// atómicamente junto con el Plan, aunque no tenga coeficientes).
type Plan struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string    `gorm:"index;not null"`
	Descripcion *string
	// LogoRef es la referencia opaca devuelta por el storage de logos —
	// nunca se persisten bytes acá.
	LogoRef   *string
	Activo    bool      `gorm:"not null;default:true"`
	CreadorID uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Empresas []Empresa `gorm:"many2many:plan_empresas"`
	// UsuariosPermitidos vacío significa "todos los usuarios de las empresas
	// asociadas pueden ver el plan".
	UsuariosPermitidos []Usuario     `gorm:"many2many:plan_usuarios_permitidos"`
	Versiones          []PlanVersion `gorm:"foreignKey:PlanID"`
}

// PlanVersion es una foto inmutable de la tabla de coeficientes de un Plan.
// "Editar" el pricing de un plan siempre significa agregar la versión N+1;
// las versiones existentes nunca se modifican ni eliminan, porque las
// cotizaciones históricas las referencian.
//
// Invariante: exactamente una versión por plan tiene EsUltima=true; la
// promoción (demote vieja + insert nueva) es transaccional.
type PlanVersion struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PlanID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_plan_version,priority:1"`
	Version  int       `gorm:"not null;uniqueIndex:idx_plan_version,priority:2"`
	EsUltima bool      `gorm:"not null;default:false;index"`

	// Rango de aplicabilidad — nil significa sin restricción en ese extremo.
	DesdeMonto *decimal.Decimal `gorm:"type:decimal(14,2)"`
	HastaMonto *decimal.Decimal `gorm:"type:decimal(14,2)"`
	DesdeCuota *int
	HastaCuota *int

	CreadorID uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time

	Coeficientes []Coeficiente `gorm:"foreignKey:PlanVersionID"`
}

// Coeficiente es una fila de la tabla de pricing de una PlanVersion,
// única por (versión, plazo).
type Coeficiente struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PlanVersionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_version_plazo,priority:1"`
	// Plazo en meses.
	Plazo int `gorm:"not null;uniqueIndex:idx_version_plazo,priority:2"`
	// TNA: tasa nominal anual, informativa.
	TNA decimal.Decimal `gorm:"type:decimal(8,4);not null"`
	// Coeficiente de cuota, expresado cada 10.000 unidades de monto financiado.
	Coeficiente decimal.Decimal `gorm:"type:decimal(10,4);not null"`
	// QuebrantoFinanciero: porcentaje del monto; se grava con el multiplicador
	// fijo 1.21 al cotizar.
	QuebrantoFinanciero *decimal.Decimal `gorm:"type:decimal(8,4)"`
	// CuotaBalon es un importe plano en moneda — NO escala con el monto,
	// a diferencia de Coeficiente. Asimetría intencional del producto.
	CuotaBalon    *decimal.Decimal `gorm:"type:decimal(14,2)"`
	CuotaPromedio *decimal.Decimal `gorm:"type:decimal(14,2)"`

	MesesBalon []CuotaBalonMes `gorm:"foreignKey:CoeficienteID;constraint:OnDelete:CASCADE"`
}

// CuotaBalonMes marca el mes (≤ plazo del coeficiente) en que vence la cuota
// balón. Pertenece exclusivamente a un Coeficiente y cae con él.
type CuotaBalonMes struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CoeficienteID uuid.UUID `gorm:"type:uuid;not null;index"`
	Mes           int       `gorm:"not null"`
}
