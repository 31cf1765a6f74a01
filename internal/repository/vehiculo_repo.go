package repository

import (
	"context"

	"cotizador/internal/model"

	"gorm.io/gorm"
)

type VehiculoRepository interface {
	// Altas — resuelven ancestros por nombre, creándolos si faltan.
	// Todos reciben la tx para que el alta completa sea atómica.
	FindOrCreateMarcaTx(tx *gorm.DB, nombre string) (*model.Marca, error)
	FindOrCreateLineaTx(tx *gorm.DB, marcaID uint, nombre string) (*model.Linea, error)
	FindOrCreateModeloTx(tx *gorm.DB, lineaID uint, nombre string) (*model.Modelo, error)
	CreateVersionTx(tx *gorm.DB, v *model.VersionVehiculo) error
	AppendEmpresasTx(tx *gorm.DB, v *model.VersionVehiculo, empresas []model.Empresa) error

	FindVersionByID(ctx context.Context, id uint) (*model.VersionVehiculo, error)
	ListMarcas(ctx context.Context) ([]model.Marca, error)
	UpdateVersion(ctx context.Context, v *model.VersionVehiculo) error
	ReplaceEmpresas(ctx context.Context, v *model.VersionVehiculo, empresas []model.Empresa) error

	// Poda en cascada — counts y deletes dentro de la tx del delete
	// disparador, para que nunca se observen ancestros vacíos a mitad de
	// operación.
	DeleteVersionTx(tx *gorm.DB, id uint) error
	CountVersionesPorModeloTx(tx *gorm.DB, modeloID uint) (int64, error)
	CountModelosPorLineaTx(tx *gorm.DB, lineaID uint) (int64, error)
	CountLineasPorMarcaTx(tx *gorm.DB, marcaID uint) (int64, error)
	DeleteModeloTx(tx *gorm.DB, id uint) error
	DeleteLineaTx(tx *gorm.DB, id uint) error
	DeleteMarcaTx(tx *gorm.DB, id uint) error

	DB() *gorm.DB
}

type vehiculoRepo struct{ db *gorm.DB }

func NewVehiculoRepository(db *gorm.DB) VehiculoRepository { return &vehiculoRepo{db: db} }

func (r *vehiculoRepo) DB() *gorm.DB { return r.db }

func (r *vehiculoRepo) FindOrCreateMarcaTx(tx *gorm.DB, nombre string) (*model.Marca, error) {
	var m model.Marca
	err := tx.Where(model.Marca{Nombre: nombre}).FirstOrCreate(&m).Error
	return &m, err
}

func (r *vehiculoRepo) FindOrCreateLineaTx(tx *gorm.DB, marcaID uint, nombre string) (*model.Linea, error) {
	var l model.Linea
	err := tx.Where(model.Linea{MarcaID: marcaID, Nombre: nombre}).FirstOrCreate(&l).Error
	return &l, err
}

func (r *vehiculoRepo) FindOrCreateModeloTx(tx *gorm.DB, lineaID uint, nombre string) (*model.Modelo, error) {
	var m model.Modelo
	err := tx.Where(model.Modelo{LineaID: lineaID, Nombre: nombre}).FirstOrCreate(&m).Error
	return &m, err
}

func (r *vehiculoRepo) CreateVersionTx(tx *gorm.DB, v *model.VersionVehiculo) error {
	return tx.Create(v).Error
}

func (r *vehiculoRepo) AppendEmpresasTx(tx *gorm.DB, v *model.VersionVehiculo, empresas []model.Empresa) error {
	return tx.Model(v).Association("Empresas").Append(empresas)
}

func (r *vehiculoRepo) FindVersionByID(ctx context.Context, id uint) (*model.VersionVehiculo, error) {
	var v model.VersionVehiculo
	err := r.db.WithContext(ctx).
		Preload("Empresas").
		Preload("Modelo.Linea.Marca").
		First(&v, id).Error
	return &v, err
}

func (r *vehiculoRepo) ListMarcas(ctx context.Context) ([]model.Marca, error) {
	var marcas []model.Marca
	err := r.db.WithContext(ctx).
		Preload("Lineas.Modelos.Versiones.Empresas").
		Order("nombre ASC").
		Find(&marcas).Error
	return marcas, err
}

func (r *vehiculoRepo) UpdateVersion(ctx context.Context, v *model.VersionVehiculo) error {
	return r.db.WithContext(ctx).Omit("Empresas", "Modelo").Save(v).Error
}

func (r *vehiculoRepo) ReplaceEmpresas(ctx context.Context, v *model.VersionVehiculo, empresas []model.Empresa) error {
	return r.db.WithContext(ctx).Model(v).Association("Empresas").Replace(empresas)
}

func (r *vehiculoRepo) DeleteVersionTx(tx *gorm.DB, id uint) error {
	// Primero las asociaciones a empresas, después la fila.
	if err := tx.Exec("DELETE FROM version_vehiculo_empresas WHERE version_vehiculo_id = ?", id).Error; err != nil {
		return err
	}
	return tx.Delete(&model.VersionVehiculo{}, id).Error
}

func (r *vehiculoRepo) CountVersionesPorModeloTx(tx *gorm.DB, modeloID uint) (int64, error) {
	var n int64
	err := tx.Model(&model.VersionVehiculo{}).Where("modelo_id = ?", modeloID).Count(&n).Error
	return n, err
}

func (r *vehiculoRepo) CountModelosPorLineaTx(tx *gorm.DB, lineaID uint) (int64, error) {
	var n int64
	err := tx.Model(&model.Modelo{}).Where("linea_id = ?", lineaID).Count(&n).Error
	return n, err
}

func (r *vehiculoRepo) CountLineasPorMarcaTx(tx *gorm.DB, marcaID uint) (int64, error) {
	var n int64
	err := tx.Model(&model.Linea{}).Where("marca_id = ?", marcaID).Count(&n).Error
	return n, err
}

func (r *vehiculoRepo) DeleteModeloTx(tx *gorm.DB, id uint) error {
	return tx.Delete(&model.Modelo{}, id).Error
}

func (r *vehiculoRepo) DeleteLineaTx(tx *gorm.DB, id uint) error {
	return tx.Delete(&model.Linea{}, id).Error
}

func (r *vehiculoRepo) DeleteMarcaTx(tx *gorm.DB, id uint) error {
	return tx.Delete(&model.Marca{}, id).Error
}
