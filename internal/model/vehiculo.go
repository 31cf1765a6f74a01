package model

// Catálogo de vehículos: jerarquía desnormalizada Marca → Línea → Modelo →
// Versión, con claves numéricas. Solo VersionVehiculo se asocia a empresas;
// los ancestros existen únicamente mientras tengan descendencia (el delete
// de la última versión poda los ancestros vacíos dentro de la misma
// transacción, deteniéndose en el primer ancestro no vacío).

type Marca struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	Nombre string `gorm:"uniqueIndex;not null"`

	Lineas []Linea `gorm:"foreignKey:MarcaID"`
}

type Linea struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	MarcaID uint   `gorm:"not null;index"`
	Nombre  string `gorm:"not null"`

	Marca   *Marca   `gorm:"foreignKey:MarcaID"`
	Modelos []Modelo `gorm:"foreignKey:LineaID"`
}

type Modelo struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	LineaID uint   `gorm:"not null;index"`
	Nombre  string `gorm:"not null"`

	Linea     *Linea            `gorm:"foreignKey:LineaID"`
	Versiones []VersionVehiculo `gorm:"foreignKey:ModeloID"`
}

// VersionVehiculo es la hoja cotizable del catálogo. Una versión solo puede
// cotizarse desde las empresas explícitamente asociadas.
type VersionVehiculo struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	ModeloID uint   `gorm:"not null;index"`
	Nombre   string `gorm:"not null"`

	Modelo   *Modelo   `gorm:"foreignKey:ModeloID"`
	Empresas []Empresa `gorm:"many2many:version_vehiculo_empresas"`
}
