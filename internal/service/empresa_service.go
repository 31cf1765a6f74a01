package service

import (
	"context"
	"errors"
	"time"

	"cotizador/internal/acceso"
	"cotizador/internal/apierror"
	"cotizador/internal/dto"
	"cotizador/internal/model"
	"cotizador/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmpresaService administra las empresas (tenants). Altas y bajas son
// exclusivas de super_admin; el listado devuelve solo el scope del actor.
type EmpresaService interface {
	Crear(ctx context.Context, actor acceso.Actor, req dto.CrearEmpresaRequest) (*dto.EmpresaResponse, error)
	ObtenerPorID(ctx context.Context, actor acceso.Actor, id uuid.UUID) (*dto.EmpresaResponse, error)
	Listar(ctx context.Context, actor acceso.Actor) ([]dto.EmpresaResponse, error)
	Actualizar(ctx context.Context, actor acceso.Actor, id uuid.UUID, req dto.ActualizarEmpresaRequest) (*dto.EmpresaResponse, error)
	Desactivar(ctx context.Context, actor acceso.Actor, id uuid.UUID) error
	Reactivar(ctx context.Context, actor acceso.Actor, id uuid.UUID) error
}

type empresaService struct {
	repo repository.EmpresaRepository
}

func NewEmpresaService(repo repository.EmpresaRepository) EmpresaService {
	return &empresaService{repo: repo}
}

func (s *empresaService) Crear(ctx context.Context, actor acceso.Actor, req dto.CrearEmpresaRequest) (*dto.EmpresaResponse, error) {
	if !actor.EsSuperAdmin() {
		return nil, apierror.NewForbidden("crear empresas requiere rol super_admin")
	}
	empresa := &model.Empresa{Nombre: req.Nombre, Activa: true}
	if err := s.repo.Create(ctx, empresa); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.NewConflict("ya existe una empresa con ese nombre")
		}
		return nil, err
	}
	return empresaToResponse(empresa), nil
}

func (s *empresaService) ObtenerPorID(ctx context.Context, actor acceso.Actor, id uuid.UUID) (*dto.EmpresaResponse, error) {
	empresa, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NewNotFound("empresa no encontrada")
	}
	if err := acceso.PuedeVerEmpresa(actor, empresa.ID); err != nil {
		return nil, err
	}
	return empresaToResponse(empresa), nil
}

// Listar: super_admin ve todas (incluidas inactivas); admin/usuario solo las
// de su membresía.
func (s *empresaService) Listar(ctx context.Context, actor acceso.Actor) ([]dto.EmpresaResponse, error) {
	empresas, err := s.repo.List(ctx, actor.EsSuperAdmin())
	if err != nil {
		return nil, err
	}
	resp := make([]dto.EmpresaResponse, 0, len(empresas))
	for i := range empresas {
		if acceso.PuedeVerEmpresa(actor, empresas[i].ID) != nil {
			continue
		}
		resp = append(resp, *empresaToResponse(&empresas[i]))
	}
	return resp, nil
}

func (s *empresaService) Actualizar(ctx context.Context, actor acceso.Actor, id uuid.UUID, req dto.ActualizarEmpresaRequest) (*dto.EmpresaResponse, error) {
	empresa, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NewNotFound("empresa no encontrada")
	}
	if err := acceso.PuedeOperarEmpresa(actor, empresa.ID); err != nil {
		return nil, err
	}
	if req.Nombre != "" {
		empresa.Nombre = req.Nombre
	}
	if err := s.repo.Update(ctx, empresa); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.NewConflict("ya existe una empresa con ese nombre")
		}
		return nil, err
	}
	return empresaToResponse(empresa), nil
}

func (s *empresaService) Desactivar(ctx context.Context, actor acceso.Actor, id uuid.UUID) error {
	if !actor.EsSuperAdmin() {
		return apierror.NewForbidden("desactivar empresas requiere rol super_admin")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NewNotFound("empresa no encontrada")
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *empresaService) Reactivar(ctx context.Context, actor acceso.Actor, id uuid.UUID) error {
	if !actor.EsSuperAdmin() {
		return apierror.NewForbidden("reactivar empresas requiere rol super_admin")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NewNotFound("empresa no encontrada")
	}
	return s.repo.Reactivar(ctx, id)
}

func empresaToResponse(e *model.Empresa) *dto.EmpresaResponse {
	return &dto.EmpresaResponse{
		ID:        e.ID.String(),
		Nombre:    e.Nombre,
		Activa:    e.Activa,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
