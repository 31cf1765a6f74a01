package service

import (
	"context"
	"testing"

	"cotizador/internal/apierror"
	"cotizador/internal/dto"
	"cotizador/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rdb nil: cada simulación se computa, sin cache.
func buildSimulacionSvc() (SimulacionService, *stubPlanRepo, *stubEmpresaRepo) {
	planRepo := newStubPlanRepo()
	empresaRepo := newStubEmpresaRepo()
	return NewSimulacionService(planRepo, nil), planRepo, empresaRepo
}

func seedVersionConPricing(planRepo *stubPlanRepo, plan *model.Plan) *model.PlanVersion {
	desdeCuota, hastaCuota := 6, 36
	v := &model.PlanVersion{
		ID:         uuid.New(),
		PlanID:     plan.ID,
		Version:    2,
		EsUltima:   true,
		DesdeMonto: decPtr("100000"),
		HastaMonto: decPtr("5000000"),
		DesdeCuota: &desdeCuota,
		HastaCuota: &hastaCuota,
		Coeficientes: []model.Coeficiente{
			{Plazo: 12, TNA: dec("72.5"), Coeficiente: dec("850"), QuebrantoFinanciero: decPtr("2")},
			{Plazo: 24, TNA: dec("78"), Coeficiente: dec("510"), CuotaBalon: decPtr("150000"), MesesBalon: []model.CuotaBalonMes{{Mes: 24}}},
			{Plazo: 48, TNA: dec("81"), Coeficiente: dec("390")},
		},
	}
	for _, ex := range planRepo.versiones {
		if ex.PlanID == plan.ID {
			ex.EsUltima = false
		}
	}
	planRepo.versiones[v.ID] = v
	return v
}

func TestSimular_DesglosePorPlazo(t *testing.T) {
	svc, planRepo, empresaRepo := buildSimulacionSvc()
	empresa := empresaRepo.seed("Agencia Norte", true)
	plan, _ := planRepo.seedPlanConVersion("Plan 90/10", empresa)
	version := seedVersionConPricing(planRepo, plan)

	resp, err := svc.Simular(context.Background(), usuarioDe(empresa.ID), plan.ID, dto.SimulacionFilter{
		Monto: dec("1000000"),
	})
	require.NoError(t, err)
	assert.Equal(t, version.ID.String(), resp.PlanVersionID)
	assert.Equal(t, 2, resp.Version)
	assert.True(t, resp.MontoAplicable)

	// El plazo 48 excede hasta_cuota: se suprime, no falla.
	require.Len(t, resp.Cuotas, 2)

	doce := resp.Cuotas[0]
	assert.Equal(t, 12, doce.Plazo)
	assert.True(t, doce.Cuota.Equal(dec("85000")), "cuota = %s", doce.Cuota)
	require.NotNil(t, doce.Quebranto)
	assert.True(t, doce.Quebranto.Equal(dec("24200")), "quebranto = %s", doce.Quebranto)

	veinticuatro := resp.Cuotas[1]
	assert.Equal(t, 24, veinticuatro.Plazo)
	require.NotNil(t, veinticuatro.CuotaBalon)
	assert.True(t, veinticuatro.CuotaBalon.Equal(dec("150000")))
	assert.Equal(t, []int{24}, veinticuatro.MesesBalon)
}

func TestSimular_MontoFueraDeRango(t *testing.T) {
	svc, planRepo, empresaRepo := buildSimulacionSvc()
	empresa := empresaRepo.seed("Agencia Norte", true)
	plan, _ := planRepo.seedPlanConVersion("Plan 90/10", empresa)
	seedVersionConPricing(planRepo, plan)

	resp, err := svc.Simular(context.Background(), superAdmin(), plan.ID, dto.SimulacionFilter{
		Monto: dec("50000"),
	})
	require.NoError(t, err)
	assert.False(t, resp.MontoAplicable)
	assert.Empty(t, resp.Cuotas)
}

func TestSimular_VersionHistorica(t *testing.T) {
	svc, planRepo, empresaRepo := buildSimulacionSvc()
	empresa := empresaRepo.seed("Agencia Norte", true)
	plan, v1 := planRepo.seedPlanConVersion("Plan 90/10", empresa)
	seedVersionConPricing(planRepo, plan)

	resp, err := svc.Simular(context.Background(), superAdmin(), plan.ID, dto.SimulacionFilter{
		Monto:   dec("1000000"),
		Version: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, v1.ID.String(), resp.PlanVersionID)
	assert.Equal(t, 1, resp.Version)
}

func TestSimular_MontoCeroEnVersionSinPiso(t *testing.T) {
	svc, planRepo, empresaRepo := buildSimulacionSvc()
	empresa := empresaRepo.seed("Agencia Norte", true)
	plan, v1 := planRepo.seedPlanConVersion("Plan Abierto", empresa)
	v1.EsUltima = false

	// Versión sin piso ni techo de monto: todo monto no negativo aplica,
	// incluido cero.
	v := &model.PlanVersion{
		ID:       uuid.New(),
		PlanID:   plan.ID,
		Version:  2,
		EsUltima: true,
		Coeficientes: []model.Coeficiente{
			{Plazo: 12, TNA: dec("72.5"), Coeficiente: dec("850")},
		},
	}
	planRepo.versiones[v.ID] = v

	resp, err := svc.Simular(context.Background(), usuarioDe(empresa.ID), plan.ID, dto.SimulacionFilter{
		Monto: dec("0"),
	})
	require.NoError(t, err)
	assert.True(t, resp.MontoAplicable)
	require.Len(t, resp.Cuotas, 1)
	assert.True(t, resp.Cuotas[0].Cuota.IsZero())
}

func TestSimular_VersionInexistente(t *testing.T) {
	svc, planRepo, empresaRepo := buildSimulacionSvc()
	empresa := empresaRepo.seed("Agencia Norte", true)
	plan, _ := planRepo.seedPlanConVersion("Plan 90/10", empresa)

	_, err := svc.Simular(context.Background(), superAdmin(), plan.ID, dto.SimulacionFilter{
		Monto:   dec("1000000"),
		Version: 9,
	})
	assert.True(t, apierror.IsNotFound(err))
}

func TestSimular_PlanFueraDeScope(t *testing.T) {
	svc, planRepo, empresaRepo := buildSimulacionSvc()
	norte := empresaRepo.seed("Agencia Norte", true)
	sur := empresaRepo.seed("Agencia Sur", true)
	plan, _ := planRepo.seedPlanConVersion("Plan Norte", norte)

	_, err := svc.Simular(context.Background(), usuarioDe(sur.ID), plan.ID, dto.SimulacionFilter{
		Monto: dec("1000000"),
	})
	assert.True(t, apierror.IsForbidden(err))
}

func TestSimular_RestriccionPorListaDeUsuarios(t *testing.T) {
	svc, planRepo, empresaRepo := buildSimulacionSvc()
	empresa := empresaRepo.seed("Agencia Norte", true)
	plan, _ := planRepo.seedPlanConVersion("Plan Restringido", empresa)
	permitido := usuarioDe(empresa.ID)
	plan.UsuariosPermitidos = []model.Usuario{{ID: permitido.ID}}

	_, err := svc.Simular(context.Background(), usuarioDe(empresa.ID), plan.ID, dto.SimulacionFilter{
		Monto: dec("1000000"),
	})
	assert.True(t, apierror.IsForbidden(err))

	_, err = svc.Simular(context.Background(), permitido, plan.ID, dto.SimulacionFilter{
		Monto: dec("1000000"),
	})
	assert.NoError(t, err)
}
