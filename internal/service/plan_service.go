package service

import (
	"context"
	"errors"
	"fmt"

	"cotizador/internal/acceso"
	"cotizador/internal/apierror"
	"cotizador/internal/dto"
	"cotizador/internal/model"
	"cotizador/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanService define el contrato de negocio sobre planes y su versionado.
type PlanService interface {
	CrearPlan(ctx context.Context, actor acceso.Actor, req dto.CrearPlanRequest) (*dto.PlanResponse, error)
	ObtenerPorID(ctx context.Context, actor acceso.Actor, id uuid.UUID) (*dto.PlanResponse, error)
	Listar(ctx context.Context, actor acceso.Actor, filter dto.PlanFilter) (*dto.PlanListResponse, error)
	ActualizarPlan(ctx context.Context, actor acceso.Actor, id uuid.UUID, req dto.ActualizarPlanRequest) (*dto.PlanResponse, error)
	ActualizarLogo(ctx context.Context, actor acceso.Actor, id uuid.UUID, logoRef string) error

	CrearVersion(ctx context.Context, actor acceso.Actor, planID uuid.UUID, req dto.CrearVersionRequest) (*dto.PlanVersionResponse, error)
	ObtenerUltimaVersion(ctx context.Context, actor acceso.Actor, planID uuid.UUID) (*dto.PlanVersionResponse, error)
	ObtenerVersion(ctx context.Context, actor acceso.Actor, planID uuid.UUID, version int) (*dto.PlanVersionResponse, error)
	ListarVersiones(ctx context.Context, actor acceso.Actor, planID uuid.UUID) ([]dto.PlanVersionResponse, error)
}

type planService struct {
	repo        repository.PlanRepository
	empresaRepo repository.EmpresaRepository
	usuarioRepo repository.UsuarioRepository
}

func NewPlanService(repo repository.PlanRepository, empresaRepo repository.EmpresaRepository, usuarioRepo repository.UsuarioRepository) PlanService {
	return &planService{repo: repo, empresaRepo: empresaRepo, usuarioRepo: usuarioRepo}
}

// ── CrearPlan ─────────────────────────────────────────────────────────────────
// Crea el Plan junto con su versión 1 (es_ultima=true, sin coeficientes) en
// una sola transacción: nunca existe un plan sin versión.

func (s *planService) CrearPlan(ctx context.Context, actor acceso.Actor, req dto.CrearPlanRequest) (*dto.PlanResponse, error) {
	empresas, err := s.resolverEmpresasActivas(ctx, actor, req.EmpresaIDs)
	if err != nil {
		return nil, err
	}

	permitidos, err := s.resolverUsuarios(ctx, req.UsuariosPermitidosIDs)
	if err != nil {
		return nil, err
	}

	plan := &model.Plan{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Activo:      true,
		CreadorID:   actor.ID,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, plan); err != nil {
			return err
		}
		if err := s.repo.AppendEmpresasTx(tx, plan, empresas); err != nil {
			return err
		}
		if len(permitidos) > 0 {
			if err := s.repo.AppendUsuariosPermitidosTx(tx, plan, permitidos); err != nil {
				return err
			}
		}
		v1 := &model.PlanVersion{
			PlanID:    plan.ID,
			Version:   1,
			EsUltima:  true,
			CreadorID: actor.ID,
		}
		return s.repo.CreateVersionTx(tx, v1)
	})
	if txErr != nil {
		return nil, txErr
	}

	plan.Empresas = empresas
	plan.UsuariosPermitidos = permitidos
	return planToResponse(plan, 1), nil
}

// ── CrearVersion ──────────────────────────────────────────────────────────────
// Promoción atómica: (1) lock de fila del plan, (2) demote de la versión
// es_ultima actual, (3) insert de la nueva con version = max+1 y sus
// coeficientes. Un crash entre (2) y (3) aborta la tx completa; dos llamadas
// concurrentes serializan en el lock y producen N+1 y N+2. El unique
// (plan_id, version) es la red de seguridad: si aun así se pierde la
// carrera, el insert falla y se traduce a ConflictError.

func (s *planService) CrearVersion(ctx context.Context, actor acceso.Actor, planID uuid.UUID, req dto.CrearVersionRequest) (*dto.PlanVersionResponse, error) {
	plan, err := s.buscarPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := acceso.PuedeEditarPlan(actor, plan); err != nil {
		return nil, err
	}

	coeficientes, err := construirCoeficientes(req.Coeficientes)
	if err != nil {
		return nil, err
	}
	if err := validarRango(req); err != nil {
		return nil, err
	}

	var nueva model.PlanVersion
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if _, err := s.repo.LockPlanTx(tx, planID); err != nil {
			return err
		}
		max, err := s.repo.MaxVersionTx(tx, planID)
		if err != nil {
			return err
		}
		if err := s.repo.DemoteUltimaTx(tx, planID); err != nil {
			return err
		}
		nueva = model.PlanVersion{
			PlanID:       planID,
			Version:      max + 1,
			EsUltima:     true,
			DesdeMonto:   req.DesdeMonto,
			HastaMonto:   req.HastaMonto,
			DesdeCuota:   req.DesdeCuota,
			HastaCuota:   req.HastaCuota,
			CreadorID:    actor.ID,
			Coeficientes: coeficientes,
		}
		return s.repo.CreateVersionTx(tx, &nueva)
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrDuplicatedKey) {
			return nil, apierror.NewConflict("otra versión del plan fue creada concurrentemente; reintente")
		}
		return nil, txErr
	}

	return versionToResponse(&nueva), nil
}

func (s *planService) ObtenerUltimaVersion(ctx context.Context, actor acceso.Actor, planID uuid.UUID) (*dto.PlanVersionResponse, error) {
	plan, err := s.buscarPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := acceso.PuedeVerPlan(actor, plan); err != nil {
		return nil, err
	}
	v, err := s.repo.FindUltimaVersion(ctx, planID)
	if err != nil {
		return nil, apierror.NewNotFound("el plan no tiene versión vigente")
	}
	return versionToResponse(v), nil
}

func (s *planService) ObtenerVersion(ctx context.Context, actor acceso.Actor, planID uuid.UUID, version int) (*dto.PlanVersionResponse, error) {
	plan, err := s.buscarPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := acceso.PuedeVerPlan(actor, plan); err != nil {
		return nil, err
	}
	v, err := s.repo.FindVersionPorNumero(ctx, planID, version)
	if err != nil {
		return nil, apierror.NewNotFound(fmt.Sprintf("versión %d inexistente para el plan", version))
	}
	return versionToResponse(v), nil
}

func (s *planService) ListarVersiones(ctx context.Context, actor acceso.Actor, planID uuid.UUID) ([]dto.PlanVersionResponse, error) {
	plan, err := s.buscarPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := acceso.PuedeVerPlan(actor, plan); err != nil {
		return nil, err
	}
	versiones, err := s.repo.ListVersiones(ctx, planID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.PlanVersionResponse, 0, len(versiones))
	for i := range versiones {
		resp = append(resp, *versionToResponse(&versiones[i]))
	}
	return resp, nil
}

func (s *planService) ObtenerPorID(ctx context.Context, actor acceso.Actor, id uuid.UUID) (*dto.PlanResponse, error) {
	plan, err := s.buscarPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := acceso.PuedeVerPlan(actor, plan); err != nil {
		return nil, err
	}
	return planToResponse(plan, versionVigente(plan)), nil
}

func (s *planService) Listar(ctx context.Context, actor acceso.Actor, filter dto.PlanFilter) (*dto.PlanListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	var scope *repository.PlanScope
	if !actor.EsSuperAdmin() {
		scope = &repository.PlanScope{
			EmpresaIDs:        actor.EmpresaIDs,
			FiltrarPermitidos: actor.Rol == acceso.RolUsuario,
			UsuarioID:         actor.ID,
		}
	}

	planes, total, err := s.repo.List(ctx, filter, scope)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PlanResponse, 0, len(planes))
	for i := range planes {
		items = append(items, *planToResponse(&planes[i], versionVigente(&planes[i])))
	}
	return &dto.PlanListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── ActualizarPlan ────────────────────────────────────────────────────────────
// Muta solo metadata del Plan. Las versiones jamás se tocan por esta vía.

func (s *planService) ActualizarPlan(ctx context.Context, actor acceso.Actor, id uuid.UUID, req dto.ActualizarPlanRequest) (*dto.PlanResponse, error) {
	plan, err := s.buscarPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := acceso.PuedeEditarPlan(actor, plan); err != nil {
		return nil, err
	}

	// Resolver asociaciones antes de escribir nada: un payload inválido no
	// debe dejar metadata a medio actualizar.
	var empresas []model.Empresa
	if req.EmpresaIDs != nil {
		if empresas, err = s.resolverEmpresasActivas(ctx, actor, *req.EmpresaIDs); err != nil {
			return nil, err
		}
	}
	var permitidos []model.Usuario
	if req.UsuariosPermitidosIDs != nil {
		if permitidos, err = s.resolverUsuarios(ctx, *req.UsuariosPermitidosIDs); err != nil {
			return nil, err
		}
	}

	if req.Nombre != nil {
		plan.Nombre = *req.Nombre
	}
	if req.Descripcion != nil {
		plan.Descripcion = req.Descripcion
	}
	if req.Activo != nil {
		plan.Activo = *req.Activo
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateTx(tx, plan); err != nil {
			return err
		}
		if req.EmpresaIDs != nil {
			if err := s.repo.ReplaceEmpresasTx(tx, plan, empresas); err != nil {
				return err
			}
			plan.Empresas = empresas
		}
		if req.UsuariosPermitidosIDs != nil {
			if err := s.repo.ReplaceUsuariosPermitidosTx(tx, plan, permitidos); err != nil {
				return err
			}
			plan.UsuariosPermitidos = permitidos
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return planToResponse(plan, versionVigente(plan)), nil
}

func (s *planService) ActualizarLogo(ctx context.Context, actor acceso.Actor, id uuid.UUID, logoRef string) error {
	plan, err := s.buscarPlan(ctx, id)
	if err != nil {
		return err
	}
	if err := acceso.PuedeEditarPlan(actor, plan); err != nil {
		return err
	}
	plan.LogoRef = &logoRef
	return s.repo.Update(ctx, plan)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *planService) buscarPlan(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NewNotFound("plan no encontrado")
	}
	return plan, nil
}

func (s *planService) resolverEmpresasActivas(ctx context.Context, actor acceso.Actor, ids []string) ([]model.Empresa, error) {
	return resolverEmpresasActivas(ctx, s.empresaRepo, actor, ids)
}

// resolverEmpresasActivas valida que la lista no esté vacía, que todas las
// empresas existan y estén activas, y que el actor pueda operar cada una.
// Compartida por planes y catálogo de vehículos.
func resolverEmpresasActivas(ctx context.Context, empresaRepo repository.EmpresaRepository, actor acceso.Actor, ids []string) ([]model.Empresa, error) {
	if len(ids) == 0 {
		return nil, apierror.NewValidation("debe asociarse al menos una empresa")
	}
	uids, err := parseUUIDs(ids)
	if err != nil {
		return nil, err
	}
	for _, id := range uids {
		if err := acceso.PuedeOperarEmpresa(actor, id); err != nil {
			return nil, err
		}
	}
	empresas, err := empresaRepo.FindByIDs(ctx, uids)
	if err != nil {
		return nil, err
	}
	if len(empresas) != len(uids) {
		return nil, apierror.NewValidation("alguna de las empresas referenciadas no existe")
	}
	for _, e := range empresas {
		if !e.Activa {
			return nil, apierror.NewValidation(fmt.Sprintf("la empresa %q está inactiva y no admite nuevas asociaciones", e.Nombre))
		}
	}
	return empresas, nil
}

func (s *planService) resolverUsuarios(ctx context.Context, ids []string) ([]model.Usuario, error) {
	usuarios := make([]model.Usuario, 0, len(ids))
	uids, err := parseUUIDs(ids)
	if err != nil {
		return nil, err
	}
	for _, id := range uids {
		u, err := s.usuarioRepo.FindByID(ctx, id)
		if err != nil {
			return nil, apierror.NewValidation("alguno de los usuarios permitidos no existe")
		}
		usuarios = append(usuarios, *u)
	}
	return usuarios, nil
}

// construirCoeficientes valida y materializa las filas de pricing:
// plazos únicos, meses balón dentro del plazo, y el default de carga "si hay
// cuota balón sin meses explícitos, el plazo completo es el único mes balón".
func construirCoeficientes(reqs []dto.CoeficienteRequest) ([]model.Coeficiente, error) {
	vistos := make(map[int]bool, len(reqs))
	coeficientes := make([]model.Coeficiente, 0, len(reqs))

	for _, cr := range reqs {
		if vistos[cr.Plazo] {
			return nil, apierror.NewValidation(fmt.Sprintf("plazo %d duplicado en la versión", cr.Plazo))
		}
		vistos[cr.Plazo] = true

		coef := model.Coeficiente{
			Plazo:               cr.Plazo,
			TNA:                 cr.TNA,
			Coeficiente:         cr.Coeficiente,
			QuebrantoFinanciero: cr.QuebrantoFinanciero,
			CuotaBalon:          cr.CuotaBalon,
			CuotaPromedio:       cr.CuotaPromedio,
		}

		for _, mes := range cr.MesesBalon {
			if mes > cr.Plazo {
				return nil, apierror.NewValidation(fmt.Sprintf("mes balón %d excede el plazo %d", mes, cr.Plazo))
			}
			coef.MesesBalon = append(coef.MesesBalon, model.CuotaBalonMes{Mes: mes})
		}
		if coef.CuotaBalon != nil && coef.CuotaBalon.IsPositive() && len(coef.MesesBalon) == 0 {
			coef.MesesBalon = []model.CuotaBalonMes{{Mes: cr.Plazo}}
		}

		coeficientes = append(coeficientes, coef)
	}
	return coeficientes, nil
}

func validarRango(req dto.CrearVersionRequest) error {
	if req.DesdeMonto != nil && req.HastaMonto != nil && req.DesdeMonto.GreaterThan(*req.HastaMonto) {
		return apierror.NewValidation("desde_monto no puede superar hasta_monto")
	}
	if req.DesdeCuota != nil && req.HastaCuota != nil && *req.DesdeCuota > *req.HastaCuota {
		return apierror.NewValidation("desde_cuota no puede superar hasta_cuota")
	}
	return nil
}

func parseUUIDs(ids []string) ([]uuid.UUID, error) {
	uids := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apierror.NewValidation("identificador inválido: " + raw)
		}
		uids = append(uids, id)
	}
	return uids, nil
}

// versionVigente lee el número de la versión es_ultima precargada; 0 si el
// preload no la trajo.
func versionVigente(p *model.Plan) int {
	for i := range p.Versiones {
		if p.Versiones[i].EsUltima {
			return p.Versiones[i].Version
		}
	}
	return 0
}

func planToResponse(p *model.Plan, versionActual int) *dto.PlanResponse {
	empresaIDs := make([]string, 0, len(p.Empresas))
	for _, e := range p.Empresas {
		empresaIDs = append(empresaIDs, e.ID.String())
	}
	permitidos := make([]string, 0, len(p.UsuariosPermitidos))
	for _, u := range p.UsuariosPermitidos {
		permitidos = append(permitidos, u.ID.String())
	}
	return &dto.PlanResponse{
		ID:                    p.ID.String(),
		Nombre:                p.Nombre,
		Descripcion:           p.Descripcion,
		LogoRef:               p.LogoRef,
		Activo:                p.Activo,
		EmpresaIDs:            empresaIDs,
		UsuariosPermitidosIDs: permitidos,
		VersionActual:         versionActual,
		CreatedAt:             p.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func versionToResponse(v *model.PlanVersion) *dto.PlanVersionResponse {
	coefs := make([]dto.CoeficienteResponse, 0, len(v.Coeficientes))
	for i := range v.Coeficientes {
		c := &v.Coeficientes[i]
		meses := make([]int, 0, len(c.MesesBalon))
		for _, m := range c.MesesBalon {
			meses = append(meses, m.Mes)
		}
		coefs = append(coefs, dto.CoeficienteResponse{
			Plazo:               c.Plazo,
			TNA:                 c.TNA,
			Coeficiente:         c.Coeficiente,
			QuebrantoFinanciero: c.QuebrantoFinanciero,
			CuotaBalon:          c.CuotaBalon,
			CuotaPromedio:       c.CuotaPromedio,
			MesesBalon:          meses,
		})
	}
	return &dto.PlanVersionResponse{
		ID:           v.ID.String(),
		PlanID:       v.PlanID.String(),
		Version:      v.Version,
		EsUltima:     v.EsUltima,
		DesdeMonto:   v.DesdeMonto,
		HastaMonto:   v.HastaMonto,
		DesdeCuota:   v.DesdeCuota,
		HastaCuota:   v.HastaCuota,
		Coeficientes: coefs,
		CreatedAt:    v.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
