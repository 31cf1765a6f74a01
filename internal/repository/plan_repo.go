package repository

import (
	"context"

	"cotizador/internal/dto"
	"cotizador/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlanScope restringe lecturas al scope de un actor no-super_admin.
// Nil scope = sin restricción (super_admin).
type PlanScope struct {
	EmpresaIDs []uuid.UUID
	// FiltrarPermitidos aplica además la lista de usuarios permitidos del
	// plan (rol usuario): lista vacía = visible para toda la empresa.
	FiltrarPermitidos bool
	UsuarioID         uuid.UUID
}

type PlanRepository interface {
	CreateTx(tx *gorm.DB, p *model.Plan) error
	AppendEmpresasTx(tx *gorm.DB, p *model.Plan, empresas []model.Empresa) error
	AppendUsuariosPermitidosTx(tx *gorm.DB, p *model.Plan, usuarios []model.Usuario) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Plan, error)
	List(ctx context.Context, filter dto.PlanFilter, scope *PlanScope) ([]model.Plan, int64, error)
	Update(ctx context.Context, p *model.Plan) error

	// Edición de metadata — Update y Replace* corren dentro de la misma tx
	// para que un fallo a mitad de camino no deje asociaciones viejas sobre
	// metadata nueva.
	UpdateTx(tx *gorm.DB, p *model.Plan) error
	ReplaceEmpresasTx(tx *gorm.DB, p *model.Plan, empresas []model.Empresa) error
	ReplaceUsuariosPermitidosTx(tx *gorm.DB, p *model.Plan, usuarios []model.Usuario) error

	// Versionado — usados exclusivamente dentro de la transacción de
	// promoción; el caller pasa la tx.
	LockPlanTx(tx *gorm.DB, planID uuid.UUID) (*model.Plan, error)
	MaxVersionTx(tx *gorm.DB, planID uuid.UUID) (int, error)
	DemoteUltimaTx(tx *gorm.DB, planID uuid.UUID) error
	CreateVersionTx(tx *gorm.DB, v *model.PlanVersion) error

	FindVersionByID(ctx context.Context, id uuid.UUID) (*model.PlanVersion, error)
	FindUltimaVersion(ctx context.Context, planID uuid.UUID) (*model.PlanVersion, error)
	FindVersionPorNumero(ctx context.Context, planID uuid.UUID, version int) (*model.PlanVersion, error)
	ListVersiones(ctx context.Context, planID uuid.UUID) ([]model.PlanVersion, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type planRepo struct{ db *gorm.DB }

func NewPlanRepository(db *gorm.DB) PlanRepository { return &planRepo{db: db} }

func (r *planRepo) DB() *gorm.DB { return r.db }

func (r *planRepo) CreateTx(tx *gorm.DB, p *model.Plan) error {
	return tx.Create(p).Error
}

func (r *planRepo) AppendEmpresasTx(tx *gorm.DB, p *model.Plan, empresas []model.Empresa) error {
	return tx.Model(p).Association("Empresas").Append(empresas)
}

func (r *planRepo) AppendUsuariosPermitidosTx(tx *gorm.DB, p *model.Plan, usuarios []model.Usuario) error {
	return tx.Model(p).Association("UsuariosPermitidos").Append(usuarios)
}

func (r *planRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	var p model.Plan
	err := r.db.WithContext(ctx).
		Preload("Empresas").
		Preload("UsuariosPermitidos").
		Preload("Versiones", "es_ultima = true").
		First(&p, id).Error
	return &p, err
}

func (r *planRepo) List(ctx context.Context, filter dto.PlanFilter, scope *PlanScope) ([]model.Plan, int64, error) {
	var planes []model.Plan
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Plan{}).Distinct("plans.*")

	switch filter.Activo {
	case "false":
		q = q.Where("plans.activo = false")
	case "all":
		// no filter
	default:
		q = q.Where("plans.activo = true")
	}
	if filter.Nombre != "" {
		q = q.Where("plans.nombre ILIKE ?", "%"+filter.Nombre+"%")
	}
	if filter.EmpresaID != "" {
		q = q.Joins("JOIN plan_empresas pef ON pef.plan_id = plans.id").
			Where("pef.empresa_id = ?", filter.EmpresaID)
	}

	if scope != nil {
		q = q.Joins("JOIN plan_empresas pes ON pes.plan_id = plans.id").
			Where("pes.empresa_id IN ?", scope.EmpresaIDs)
		if scope.FiltrarPermitidos {
			q = q.Where(`NOT EXISTS (SELECT 1 FROM plan_usuarios_permitidos pup WHERE pup.plan_id = plans.id)
				OR EXISTS (SELECT 1 FROM plan_usuarios_permitidos pup WHERE pup.plan_id = plans.id AND pup.usuario_id = ?)`,
				scope.UsuarioID)
		}
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Empresas").Preload("UsuariosPermitidos").
		Preload("Versiones", "es_ultima = true").
		Order("plans.nombre ASC").Limit(filter.Limit).Offset(offset).
		Find(&planes).Error
	return planes, total, err
}

func (r *planRepo) Update(ctx context.Context, p *model.Plan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

func (r *planRepo) UpdateTx(tx *gorm.DB, p *model.Plan) error {
	return tx.Omit(clause.Associations).Save(p).Error
}

func (r *planRepo) ReplaceEmpresasTx(tx *gorm.DB, p *model.Plan, empresas []model.Empresa) error {
	return tx.Model(p).Association("Empresas").Replace(empresas)
}

func (r *planRepo) ReplaceUsuariosPermitidosTx(tx *gorm.DB, p *model.Plan, usuarios []model.Usuario) error {
	return tx.Model(p).Association("UsuariosPermitidos").Replace(usuarios)
}

// LockPlanTx toma el lock de fila del plan (SELECT ... FOR UPDATE).
// Serializa promociones concurrentes: dos CrearVersion sobre el mismo plan
// encolan en este lock y producen N+1 y N+2, nunca dos N+1.
func (r *planRepo) LockPlanTx(tx *gorm.DB, planID uuid.UUID) (*model.Plan, error) {
	var p model.Plan
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, planID).Error
	return &p, err
}

func (r *planRepo) MaxVersionTx(tx *gorm.DB, planID uuid.UUID) (int, error) {
	var max int
	err := tx.Model(&model.PlanVersion{}).
		Where("plan_id = ?", planID).
		Select("COALESCE(MAX(version), 0)").Scan(&max).Error
	return max, err
}

func (r *planRepo) DemoteUltimaTx(tx *gorm.DB, planID uuid.UUID) error {
	return tx.Model(&model.PlanVersion{}).
		Where("plan_id = ? AND es_ultima = true", planID).
		Update("es_ultima", false).Error
}

func (r *planRepo) CreateVersionTx(tx *gorm.DB, v *model.PlanVersion) error {
	return tx.Create(v).Error
}

func (r *planRepo) FindVersionByID(ctx context.Context, id uuid.UUID) (*model.PlanVersion, error) {
	var v model.PlanVersion
	err := r.versionQuery(ctx).First(&v, id).Error
	return &v, err
}

func (r *planRepo) FindUltimaVersion(ctx context.Context, planID uuid.UUID) (*model.PlanVersion, error) {
	var v model.PlanVersion
	err := r.versionQuery(ctx).
		Where("plan_id = ? AND es_ultima = true", planID).First(&v).Error
	return &v, err
}

func (r *planRepo) FindVersionPorNumero(ctx context.Context, planID uuid.UUID, version int) (*model.PlanVersion, error) {
	var v model.PlanVersion
	err := r.versionQuery(ctx).
		Where("plan_id = ? AND version = ?", planID, version).First(&v).Error
	return &v, err
}

func (r *planRepo) ListVersiones(ctx context.Context, planID uuid.UUID) ([]model.PlanVersion, error) {
	var versiones []model.PlanVersion
	err := r.versionQuery(ctx).
		Where("plan_id = ?", planID).Order("version ASC").Find(&versiones).Error
	return versiones, err
}

func (r *planRepo) versionQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Coeficientes", func(db *gorm.DB) *gorm.DB { return db.Order("plazo ASC") }).
		Preload("Coeficientes.MesesBalon")
}
