package service

import (
	"context"

	"cotizador/internal/acceso"
	"cotizador/internal/apierror"
	"cotizador/internal/dto"
	"cotizador/internal/model"
	"cotizador/internal/repository"
	"cotizador/internal/worker"

	"github.com/google/uuid"
)

type CotizacionService interface {
	Crear(ctx context.Context, actor acceso.Actor, req dto.CrearCotizacionRequest) (*dto.CotizacionResponse, error)
	ObtenerPorID(ctx context.Context, actor acceso.Actor, id uuid.UUID) (*dto.CotizacionResponse, error)
	Listar(ctx context.Context, actor acceso.Actor, filter dto.CotizacionFilter) (*dto.CotizacionListResponse, error)
	Actualizar(ctx context.Context, actor acceso.Actor, id uuid.UUID, req dto.ActualizarCotizacionRequest) (*dto.CotizacionResponse, error)
	Eliminar(ctx context.Context, actor acceso.Actor, id uuid.UUID) error
}

type cotizacionService struct {
	repo         repository.CotizacionRepository
	planRepo     repository.PlanRepository
	empresaRepo  repository.EmpresaRepository
	vehiculoRepo repository.VehiculoRepository
	usuarioRepo  repository.UsuarioRepository
	dispatcher   *worker.Dispatcher
}

func NewCotizacionService(
	repo repository.CotizacionRepository,
	planRepo repository.PlanRepository,
	empresaRepo repository.EmpresaRepository,
	vehiculoRepo repository.VehiculoRepository,
	usuarioRepo repository.UsuarioRepository,
	dispatcher *worker.Dispatcher,
) CotizacionService {
	return &cotizacionService{
		repo:         repo,
		planRepo:     planRepo,
		empresaRepo:  empresaRepo,
		vehiculoRepo: vehiculoRepo,
		usuarioRepo:  usuarioRepo,
		dispatcher:   dispatcher,
	}
}

// ── Crear ─────────────────────────────────────────────────────────────────────
// La cotización queda clavada a la PlanVersion exacta recibida — la
// resolución "última vs. histórica" ya la hizo el caller. Re-pricear el plan
// después jamás altera este registro.

func (s *cotizacionService) Crear(ctx context.Context, actor acceso.Actor, req dto.CrearCotizacionRequest) (*dto.CotizacionResponse, error) {
	empresaID, err := uuid.Parse(req.EmpresaID)
	if err != nil {
		return nil, apierror.NewValidation("empresa_id inválido")
	}
	if err := acceso.PuedeVerEmpresa(actor, empresaID); err != nil {
		return nil, err
	}
	empresa, err := s.empresaRepo.FindByID(ctx, empresaID)
	if err != nil {
		return nil, apierror.NewNotFound("empresa no encontrada")
	}
	if !empresa.Activa {
		return nil, apierror.NewValidation("la empresa está inactiva y no admite nuevas cotizaciones")
	}

	versionID, err := uuid.Parse(req.PlanVersionID)
	if err != nil {
		return nil, apierror.NewValidation("plan_version_id inválido")
	}
	version, err := s.planRepo.FindVersionByID(ctx, versionID)
	if err != nil {
		return nil, apierror.NewNotFound("versión de plan no encontrada")
	}
	plan, err := s.planRepo.FindByID(ctx, version.PlanID)
	if err != nil {
		return nil, apierror.NewNotFound("plan no encontrado")
	}
	if err := acceso.PuedeVerPlan(actor, plan); err != nil {
		return nil, err
	}

	if req.VersionVehiculoID != nil {
		if err := s.validarVehiculo(ctx, actor, *req.VersionVehiculoID, empresaID); err != nil {
			return nil, err
		}
	}

	cot := &model.Cotizacion{
		PlanVersionID:       versionID,
		EmpresaID:           empresaID,
		UsuarioID:           actor.ID,
		ClienteNombre:       req.ClienteNombre,
		ClienteDNI:          req.ClienteDNI,
		VehiculoDescripcion: req.VehiculoDescripcion,
		VersionVehiculoID:   req.VersionVehiculoID,
		ValorTotal:          req.ValorTotal,
	}
	if err := s.repo.Create(ctx, cot); err != nil {
		return nil, err
	}
	cot.PlanVersion = version

	// Notificación asíncrona — best-effort, nunca bloquea el alta.
	if s.dispatcher != nil {
		payload := worker.NotificacionJobPayload{
			CotizacionID:  cot.ID.String(),
			ClienteNombre: cot.ClienteNombre,
		}
		if u, err := s.usuarioRepo.FindByID(ctx, actor.ID); err == nil && u.Email != nil {
			payload.ToEmail = *u.Email
		}
		_ = s.dispatcher.EnqueueNotificacion(ctx, payload)
	}

	return cotizacionToResponse(cot), nil
}

func (s *cotizacionService) ObtenerPorID(ctx context.Context, actor acceso.Actor, id uuid.UUID) (*dto.CotizacionResponse, error) {
	cot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NewNotFound("cotización no encontrada")
	}
	if err := acceso.PuedeVerCotizacion(actor, cot); err != nil {
		return nil, err
	}
	return cotizacionToResponse(cot), nil
}

func (s *cotizacionService) Listar(ctx context.Context, actor acceso.Actor, filter dto.CotizacionFilter) (*dto.CotizacionListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	var scope []uuid.UUID
	if !actor.EsSuperAdmin() {
		scope = actor.EmpresaIDs
		if scope == nil {
			scope = []uuid.UUID{}
		}
	}

	cotizaciones, total, err := s.repo.List(ctx, filter, scope)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CotizacionResponse, 0, len(cotizaciones))
	for i := range cotizaciones {
		items = append(items, *cotizacionToResponse(&cotizaciones[i]))
	}
	return &dto.CotizacionListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Actualizar ────────────────────────────────────────────────────────────────
// Revalida el acceso contra la empresa/vehículo ACTUALES de la cotización
// antes de aplicar cambios; cambiar empresa o vehículo repite los mismos
// chequeos de asociación que el alta. La PlanVersion referenciada es fija.

func (s *cotizacionService) Actualizar(ctx context.Context, actor acceso.Actor, id uuid.UUID, req dto.ActualizarCotizacionRequest) (*dto.CotizacionResponse, error) {
	cot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NewNotFound("cotización no encontrada")
	}
	if err := acceso.PuedeModificarCotizacion(actor, cot); err != nil {
		return nil, err
	}

	empresaID := cot.EmpresaID
	if req.EmpresaID != nil {
		nueva, err := uuid.Parse(*req.EmpresaID)
		if err != nil {
			return nil, apierror.NewValidation("empresa_id inválido")
		}
		if err := acceso.PuedeVerEmpresa(actor, nueva); err != nil {
			return nil, err
		}
		empresa, err := s.empresaRepo.FindByID(ctx, nueva)
		if err != nil {
			return nil, apierror.NewNotFound("empresa no encontrada")
		}
		if !empresa.Activa {
			return nil, apierror.NewValidation("la empresa está inactiva y no admite nuevas asociaciones")
		}
		empresaID = nueva
	}

	vehiculoID := cot.VersionVehiculoID
	if req.VersionVehiculoID != nil {
		vehiculoID = req.VersionVehiculoID
	}
	// Cambiar empresa o vehículo re-ejecuta el chequeo de asociación.
	if vehiculoID != nil && (req.EmpresaID != nil || req.VersionVehiculoID != nil) {
		if err := s.validarVehiculo(ctx, actor, *vehiculoID, empresaID); err != nil {
			return nil, err
		}
	}

	cot.EmpresaID = empresaID
	cot.VersionVehiculoID = vehiculoID
	if req.ClienteNombre != nil {
		cot.ClienteNombre = *req.ClienteNombre
	}
	if req.ClienteDNI != nil {
		cot.ClienteDNI = *req.ClienteDNI
	}
	if req.VehiculoDescripcion != nil {
		cot.VehiculoDescripcion = req.VehiculoDescripcion
	}
	if req.ValorTotal != nil {
		cot.ValorTotal = req.ValorTotal
	}

	if err := s.repo.Update(ctx, cot); err != nil {
		return nil, err
	}
	return cotizacionToResponse(cot), nil
}

func (s *cotizacionService) Eliminar(ctx context.Context, actor acceso.Actor, id uuid.UUID) error {
	cot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apierror.NewNotFound("cotización no encontrada")
	}
	if err := acceso.PuedeEliminarCotizacion(actor, cot); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// validarVehiculo exige que la versión de vehículo exista y, salvo para
// super_admin, que esté asociada a la empresa objetivo de la cotización.
func (s *cotizacionService) validarVehiculo(ctx context.Context, actor acceso.Actor, vehiculoID uint, empresaID uuid.UUID) error {
	vehiculo, err := s.vehiculoRepo.FindVersionByID(ctx, vehiculoID)
	if err != nil {
		return apierror.NewNotFound("versión de vehículo no encontrada")
	}
	if actor.EsSuperAdmin() {
		return nil
	}
	for _, e := range vehiculo.Empresas {
		if e.ID == empresaID {
			return nil
		}
	}
	return apierror.NewForbidden("la versión de vehículo no está asociada a la empresa objetivo")
}

func cotizacionToResponse(c *model.Cotizacion) *dto.CotizacionResponse {
	resp := &dto.CotizacionResponse{
		ID:                  c.ID.String(),
		PlanVersionID:       c.PlanVersionID.String(),
		EmpresaID:           c.EmpresaID.String(),
		UsuarioID:           c.UsuarioID.String(),
		ClienteNombre:       c.ClienteNombre,
		ClienteDNI:          c.ClienteDNI,
		VehiculoDescripcion: c.VehiculoDescripcion,
		VersionVehiculoID:   c.VersionVehiculoID,
		ValorTotal:          c.ValorTotal,
		CreatedAt:           c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if c.PlanVersion != nil {
		resp.PlanVersion = c.PlanVersion.Version
	}
	return resp
}
