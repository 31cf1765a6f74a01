package repository

import (
	"context"

	"cotizador/internal/dto"
	"cotizador/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CotizacionRepository interface {
	Create(ctx context.Context, c *model.Cotizacion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cotizacion, error)
	// List con scopeEmpresas nil = sin restricción (super_admin).
	List(ctx context.Context, filter dto.CotizacionFilter, scopeEmpresas []uuid.UUID) ([]model.Cotizacion, int64, error)
	Update(ctx context.Context, c *model.Cotizacion) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type cotizacionRepo struct{ db *gorm.DB }

func NewCotizacionRepository(db *gorm.DB) CotizacionRepository { return &cotizacionRepo{db: db} }

func (r *cotizacionRepo) Create(ctx context.Context, c *model.Cotizacion) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cotizacionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cotizacion, error) {
	var c model.Cotizacion
	err := r.db.WithContext(ctx).
		Preload("PlanVersion").
		Preload("VersionVehiculo.Empresas").
		First(&c, id).Error
	return &c, err
}

func (r *cotizacionRepo) List(ctx context.Context, filter dto.CotizacionFilter, scopeEmpresas []uuid.UUID) ([]model.Cotizacion, int64, error) {
	var cotizaciones []model.Cotizacion
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Cotizacion{})

	if scopeEmpresas != nil {
		q = q.Where("empresa_id IN ?", scopeEmpresas)
	}
	if filter.EmpresaID != "" {
		q = q.Where("empresa_id = ?", filter.EmpresaID)
	}
	if filter.ClienteDNI != "" {
		q = q.Where("cliente_dni = ?", filter.ClienteDNI)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("PlanVersion").
		Order("created_at DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&cotizaciones).Error
	return cotizaciones, total, err
}

func (r *cotizacionRepo) Update(ctx context.Context, c *model.Cotizacion) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *cotizacionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Cotizacion{}, id).Error
}
