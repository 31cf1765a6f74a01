package repository

import (
	"context"

	"cotizador/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmpresaRepository interface {
	Create(ctx context.Context, e *model.Empresa) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Empresa, error)
	// FindByIDs devuelve únicamente las empresas existentes — el caller
	// compara longitudes para detectar referencias inválidas.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Empresa, error)
	List(ctx context.Context, incluirInactivas bool) ([]model.Empresa, error)
	Update(ctx context.Context, e *model.Empresa) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error
}

type empresaRepo struct{ db *gorm.DB }

func NewEmpresaRepository(db *gorm.DB) EmpresaRepository { return &empresaRepo{db: db} }

func (r *empresaRepo) Create(ctx context.Context, e *model.Empresa) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *empresaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Empresa, error) {
	var e model.Empresa
	err := r.db.WithContext(ctx).First(&e, id).Error
	return &e, err
}

func (r *empresaRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Empresa, error) {
	var empresas []model.Empresa
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&empresas).Error
	return empresas, err
}

func (r *empresaRepo) List(ctx context.Context, incluirInactivas bool) ([]model.Empresa, error) {
	var empresas []model.Empresa
	q := r.db.WithContext(ctx)
	if !incluirInactivas {
		q = q.Where("activa = true")
	}
	err := q.Order("nombre ASC").Find(&empresas).Error
	return empresas, err
}

func (r *empresaRepo) Update(ctx context.Context, e *model.Empresa) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *empresaRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Empresa{}).Where("id = ?", id).Update("activa", false).Error
}

func (r *empresaRepo) Reactivar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Empresa{}).Where("id = ?", id).Update("activa", true).Error
}
