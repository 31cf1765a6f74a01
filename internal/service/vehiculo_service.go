package service

import (
	"context"

	"cotizador/internal/acceso"
	"cotizador/internal/apierror"
	"cotizador/internal/dto"
	"cotizador/internal/model"
	"cotizador/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehiculoService administra el catálogo Marca → Línea → Modelo → Versión.
// Los ancestros se crean on-demand en el alta y se podan en cascada en la
// baja: la jerarquía nunca contiene nodos sin descendencia.
type VehiculoService interface {
	CrearVersion(ctx context.Context, actor acceso.Actor, req dto.CrearVersionVehiculoRequest) (*dto.VersionVehiculoResponse, error)
	ObtenerVersion(ctx context.Context, actor acceso.Actor, id uint) (*dto.VersionVehiculoResponse, error)
	ListarCatalogo(ctx context.Context, actor acceso.Actor) ([]dto.MarcaResponse, error)
	ActualizarVersion(ctx context.Context, actor acceso.Actor, id uint, req dto.ActualizarVersionVehiculoRequest) (*dto.VersionVehiculoResponse, error)
	EliminarVersion(ctx context.Context, actor acceso.Actor, id uint) error
}

type vehiculoService struct {
	repo        repository.VehiculoRepository
	empresaRepo repository.EmpresaRepository
}

func NewVehiculoService(repo repository.VehiculoRepository, empresaRepo repository.EmpresaRepository) VehiculoService {
	return &vehiculoService{repo: repo, empresaRepo: empresaRepo}
}

func (s *vehiculoService) CrearVersion(ctx context.Context, actor acceso.Actor, req dto.CrearVersionVehiculoRequest) (*dto.VersionVehiculoResponse, error) {
	if err := acceso.PuedeOperarCatalogo(actor); err != nil {
		return nil, err
	}
	empresas, err := resolverEmpresasActivas(ctx, s.empresaRepo, actor, req.EmpresaIDs)
	if err != nil {
		return nil, err
	}

	var version model.VersionVehiculo
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		marca, err := s.repo.FindOrCreateMarcaTx(tx, req.Marca)
		if err != nil {
			return err
		}
		linea, err := s.repo.FindOrCreateLineaTx(tx, marca.ID, req.Linea)
		if err != nil {
			return err
		}
		modelo, err := s.repo.FindOrCreateModeloTx(tx, linea.ID, req.Modelo)
		if err != nil {
			return err
		}
		version = model.VersionVehiculo{ModeloID: modelo.ID, Nombre: req.Nombre}
		if err := s.repo.CreateVersionTx(tx, &version); err != nil {
			return err
		}
		return s.repo.AppendEmpresasTx(tx, &version, empresas)
	})
	if txErr != nil {
		return nil, txErr
	}

	creada, err := s.repo.FindVersionByID(ctx, version.ID)
	if err != nil {
		return nil, err
	}
	return versionVehiculoToResponse(creada), nil
}

func (s *vehiculoService) ObtenerVersion(ctx context.Context, actor acceso.Actor, id uint) (*dto.VersionVehiculoResponse, error) {
	version, err := s.repo.FindVersionByID(ctx, id)
	if err != nil {
		return nil, apierror.NewNotFound("versión de vehículo no encontrada")
	}
	if err := acceso.PuedeVerVersionVehiculo(actor, empresaIDsDe(version)); err != nil {
		return nil, err
	}
	return versionVehiculoToResponse(version), nil
}

// ListarCatalogo proyecta la jerarquía según el scope del actor: se
// devuelven solo las versiones visibles y se omiten los nodos que quedan
// vacíos tras el filtro. Proyección explícita por rol, sin filtrado
// silencioso a nivel de versión individual (ObtenerVersion sí distingue
// denegado de inexistente).
func (s *vehiculoService) ListarCatalogo(ctx context.Context, actor acceso.Actor) ([]dto.MarcaResponse, error) {
	marcas, err := s.repo.ListMarcas(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.MarcaResponse, 0, len(marcas))
	for i := range marcas {
		marca := &marcas[i]
		mr := dto.MarcaResponse{ID: marca.ID, Nombre: marca.Nombre, Lineas: []dto.LineaResponse{}}
		for j := range marca.Lineas {
			linea := &marca.Lineas[j]
			lr := dto.LineaResponse{ID: linea.ID, Nombre: linea.Nombre, Modelos: []dto.ModeloResponse{}}
			for k := range linea.Modelos {
				modelo := &linea.Modelos[k]
				md := dto.ModeloResponse{ID: modelo.ID, Nombre: modelo.Nombre, Versiones: []dto.VersionVehiculoResponse{}}
				for l := range modelo.Versiones {
					version := &modelo.Versiones[l]
					if acceso.PuedeVerVersionVehiculo(actor, empresaIDsDe(version)) != nil {
						continue
					}
					md.Versiones = append(md.Versiones, dto.VersionVehiculoResponse{
						ID:         version.ID,
						Marca:      marca.Nombre,
						Linea:      linea.Nombre,
						Modelo:     modelo.Nombre,
						Nombre:     version.Nombre,
						EmpresaIDs: empresaIDsStr(version),
					})
				}
				if len(md.Versiones) > 0 {
					lr.Modelos = append(lr.Modelos, md)
				}
			}
			if len(lr.Modelos) > 0 {
				mr.Lineas = append(mr.Lineas, lr)
			}
		}
		if len(mr.Lineas) > 0 {
			resp = append(resp, mr)
		}
	}
	return resp, nil
}

func (s *vehiculoService) ActualizarVersion(ctx context.Context, actor acceso.Actor, id uint, req dto.ActualizarVersionVehiculoRequest) (*dto.VersionVehiculoResponse, error) {
	if err := acceso.PuedeOperarCatalogo(actor); err != nil {
		return nil, err
	}
	version, err := s.repo.FindVersionByID(ctx, id)
	if err != nil {
		return nil, apierror.NewNotFound("versión de vehículo no encontrada")
	}
	if err := acceso.PuedeVerVersionVehiculo(actor, empresaIDsDe(version)); err != nil {
		return nil, err
	}

	if req.Nombre != nil {
		version.Nombre = *req.Nombre
		if err := s.repo.UpdateVersion(ctx, version); err != nil {
			return nil, err
		}
	}
	if req.EmpresaIDs != nil {
		empresas, err := resolverEmpresasActivas(ctx, s.empresaRepo, actor, *req.EmpresaIDs)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceEmpresas(ctx, version, empresas); err != nil {
			return nil, err
		}
		version.Empresas = empresas
	}
	return versionVehiculoToResponse(version), nil
}

// ── EliminarVersion ───────────────────────────────────────────────────────────
// Borra la versión y poda los ancestros que quedan vacíos, dentro de la
// misma transacción que el delete disparador. La poda se detiene en el
// primer ancestro no vacío: nunca se observan líneas/marcas huérfanas a
// mitad de operación.

func (s *vehiculoService) EliminarVersion(ctx context.Context, actor acceso.Actor, id uint) error {
	if err := acceso.PuedeOperarCatalogo(actor); err != nil {
		return err
	}
	version, err := s.repo.FindVersionByID(ctx, id)
	if err != nil {
		return apierror.NewNotFound("versión de vehículo no encontrada")
	}
	if err := acceso.PuedeVerVersionVehiculo(actor, empresaIDsDe(version)); err != nil {
		return err
	}
	if version.Modelo == nil || version.Modelo.Linea == nil {
		return apierror.NewNotFound("la jerarquía de la versión está incompleta")
	}
	modeloID := version.ModeloID
	lineaID := version.Modelo.LineaID
	marcaID := version.Modelo.Linea.MarcaID

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.DeleteVersionTx(tx, id); err != nil {
			return err
		}
		restantes, err := s.repo.CountVersionesPorModeloTx(tx, modeloID)
		if err != nil || restantes > 0 {
			return err
		}
		if err := s.repo.DeleteModeloTx(tx, modeloID); err != nil {
			return err
		}
		restantes, err = s.repo.CountModelosPorLineaTx(tx, lineaID)
		if err != nil || restantes > 0 {
			return err
		}
		if err := s.repo.DeleteLineaTx(tx, lineaID); err != nil {
			return err
		}
		restantes, err = s.repo.CountLineasPorMarcaTx(tx, marcaID)
		if err != nil || restantes > 0 {
			return err
		}
		return s.repo.DeleteMarcaTx(tx, marcaID)
	})
}

func empresaIDsDe(v *model.VersionVehiculo) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(v.Empresas))
	for _, e := range v.Empresas {
		ids = append(ids, e.ID)
	}
	return ids
}

func empresaIDsStr(v *model.VersionVehiculo) []string {
	ids := make([]string, 0, len(v.Empresas))
	for _, e := range v.Empresas {
		ids = append(ids, e.ID.String())
	}
	return ids
}

func versionVehiculoToResponse(v *model.VersionVehiculo) *dto.VersionVehiculoResponse {
	resp := &dto.VersionVehiculoResponse{
		ID:         v.ID,
		Nombre:     v.Nombre,
		EmpresaIDs: empresaIDsStr(v),
	}
	if v.Modelo != nil {
		resp.Modelo = v.Modelo.Nombre
		if v.Modelo.Linea != nil {
			resp.Linea = v.Modelo.Linea.Nombre
			if v.Modelo.Linea.Marca != nil {
				resp.Marca = v.Modelo.Linea.Marca.Nombre
			}
		}
	}
	return resp
}
