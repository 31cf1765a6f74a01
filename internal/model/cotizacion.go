package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cotizacion es el registro durable de una cotización entregada a un cliente.
// Referencia la PlanVersion exacta usada (nunca el Plan): re-pricear el plan
// crea versiones nuevas y jamás altera los términos de una cotización
// histórica.
type Cotizacion struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PlanVersionID uuid.UUID `gorm:"type:uuid;not null;index"`
	EmpresaID     uuid.UUID `gorm:"type:uuid;not null;index"`
	UsuarioID     uuid.UUID `gorm:"type:uuid;not null;index"`

	ClienteNombre string `gorm:"not null"`
	ClienteDNI    string `gorm:"not null;index"`

	// Vehículo: descripción libre, o referencia al catálogo, o ambas.
	VehiculoDescripcion *string
	VersionVehiculoID   *uint

	ValorTotal *decimal.Decimal `gorm:"type:decimal(14,2)"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	PlanVersion     *PlanVersion     `gorm:"foreignKey:PlanVersionID"`
	Empresa         *Empresa         `gorm:"foreignKey:EmpresaID"`
	Usuario         *Usuario         `gorm:"foreignKey:UsuarioID"`
	VersionVehiculo *VersionVehiculo `gorm:"foreignKey:VersionVehiculoID"`
}
