package model

import (
	"time"

	"github.com/google/uuid"
)

// Empresa es la frontera de tenant: agencias/concesionarias que ofrecen
// planes de financiación. La baja es siempre lógica (Activa=false) — una
// empresa inactiva bloquea nuevas asociaciones pero conserva su historial.
type Empresa struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"uniqueIndex;not null"`
	Activa    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
