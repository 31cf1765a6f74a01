package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cotizador/internal/acceso"
	"cotizador/internal/apierror"
	"cotizador/internal/cotizador"
	"cotizador/internal/dto"
	"cotizador/internal/model"
	"cotizador/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Una versión publicada es inmutable, así que la simulación para un
// (versión, monto) dado nunca cambia; el TTL solo acota memoria.
const simulacionCacheTTL = 4 * time.Hour

// SimulacionService arma el desglose por plazo para un (plan, monto).
// La aritmética vive en el paquete cotizador; acá solo se resuelven
// visibilidad, versión y cache.
type SimulacionService interface {
	Simular(ctx context.Context, actor acceso.Actor, planID uuid.UUID, filter dto.SimulacionFilter) (*dto.SimulacionResponse, error)
}

type simulacionService struct {
	planRepo repository.PlanRepository
	rdb      *redis.Client
}

// NewSimulacionService acepta rdb nil (tests unitarios): sin cliente, cada
// simulación se computa siempre.
func NewSimulacionService(planRepo repository.PlanRepository, rdb *redis.Client) SimulacionService {
	return &simulacionService{planRepo: planRepo, rdb: rdb}
}

func (s *simulacionService) Simular(ctx context.Context, actor acceso.Actor, planID uuid.UUID, filter dto.SimulacionFilter) (*dto.SimulacionResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, apierror.NewNotFound("plan no encontrado")
	}
	if err := acceso.PuedeVerPlan(actor, plan); err != nil {
		return nil, err
	}

	var version *model.PlanVersion
	if filter.Version > 0 {
		version, err = s.planRepo.FindVersionPorNumero(ctx, planID, filter.Version)
		if err != nil {
			return nil, apierror.NewNotFound(fmt.Sprintf("versión %d inexistente para el plan", filter.Version))
		}
	} else {
		version, err = s.planRepo.FindUltimaVersion(ctx, planID)
		if err != nil {
			return nil, apierror.NewNotFound("el plan no tiene versión vigente")
		}
	}

	// El acceso ya se validó, a partir de acá la respuesta es idéntica para
	// cualquier actor permitido: cacheable por (versión, monto).
	cacheKey := "simulacion:" + version.ID.String() + ":" + filter.Monto.String()
	if s.rdb != nil {
		if cached, cerr := s.rdb.Get(ctx, cacheKey).Bytes(); cerr == nil {
			var cachedResp dto.SimulacionResponse
			if json.Unmarshal(cached, &cachedResp) == nil {
				return &cachedResp, nil
			}
		}
	}

	resp := &dto.SimulacionResponse{
		PlanID:         planID.String(),
		PlanVersionID:  version.ID.String(),
		Version:        version.Version,
		Monto:          filter.Monto,
		MontoAplicable: cotizador.EsMontoAplicable(version, filter.Monto),
		Cuotas:         []dto.CuotaSimulada{},
	}

	// Los plazos no aplicables se suprimen, no fallan: la lista vacía es la
	// respuesta válida para "no hay precio en esta versión para ese monto".
	for _, plazo := range cotizador.PlazosAplicables(version, filter.Monto) {
		coef := cotizador.CoeficientePorPlazo(version, plazo)
		if coef == nil {
			continue
		}
		precio := cotizador.CalcularPrecio(coef, filter.Monto)
		resp.Cuotas = append(resp.Cuotas, dto.CuotaSimulada{
			Plazo:      plazo,
			TNA:        coef.TNA,
			Cuota:      precio.Cuota,
			Quebranto:  precio.Quebranto,
			CuotaBalon: precio.CuotaBalon,
			MesesBalon: precio.MesesBalon,
		})
	}

	// Populate cache — best effort, ignore errors
	if s.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = s.rdb.Set(ctx, cacheKey, b, simulacionCacheTTL).Err()
		}
	}

	return resp, nil
}
