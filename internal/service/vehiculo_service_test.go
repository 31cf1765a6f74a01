package service

import (
	"context"
	"testing"

	"cotizador/internal/apierror"
	"cotizador/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildVehiculoSvc() (VehiculoService, *stubVehiculoRepo, *stubEmpresaRepo) {
	vehiculoRepo := newStubVehiculoRepo()
	empresaRepo := newStubEmpresaRepo()
	return NewVehiculoService(vehiculoRepo, empresaRepo), vehiculoRepo, empresaRepo
}

func TestCrearVersionVehiculo_CreaYReusaAncestros(t *testing.T) {
	svc, vehiculoRepo, empresaRepo := buildVehiculoSvc()
	empresa := empresaRepo.seed("Agencia Norte", true)
	actor := adminDe(empresa.ID)

	resp, err := svc.CrearVersion(context.Background(), actor, dto.CrearVersionVehiculoRequest{
		Marca:      "Toyota",
		Linea:      "Hilux",
		Modelo:     "SRV",
		Nombre:     "4x4 AT",
		EmpresaIDs: []string{empresa.ID.String()},
	})
	require.NoError(t, err)
	assert.Equal(t, "Toyota", resp.Marca)
	assert.Equal(t, "Hilux", resp.Linea)
	assert.Equal(t, "SRV", resp.Modelo)
	assert.Equal(t, []string{empresa.ID.String()}, resp.EmpresaIDs)

	// Mismo camino jerárquico: los ancestros se reutilizan, no se duplican.
	_, err = svc.CrearVersion(context.Background(), actor, dto.CrearVersionVehiculoRequest{
		Marca:      "Toyota",
		Linea:      "Hilux",
		Modelo:     "SRV",
		Nombre:     "4x2 MT",
		EmpresaIDs: []string{empresa.ID.String()},
	})
	require.NoError(t, err)
	assert.Len(t, vehiculoRepo.marcas, 1)
	assert.Len(t, vehiculoRepo.lineas, 1)
	assert.Len(t, vehiculoRepo.modelos, 1)
	assert.Len(t, vehiculoRepo.versiones, 2)
}

func TestCrearVersionVehiculo_UsuarioDenegado(t *testing.T) {
	svc, _, empresaRepo := buildVehiculoSvc()
	empresa := empresaRepo.seed("Agencia Norte", true)

	_, err := svc.CrearVersion(context.Background(), usuarioDe(empresa.ID), dto.CrearVersionVehiculoRequest{
		Marca:      "Toyota",
		Linea:      "Hilux",
		Modelo:     "SRV",
		Nombre:     "4x4 AT",
		EmpresaIDs: []string{empresa.ID.String()},
	})
	assert.True(t, apierror.IsForbidden(err))
}

func TestEliminarVersionVehiculo_PodaCompleta(t *testing.T) {
	svc, vehiculoRepo, empresaRepo := buildVehiculoSvc()
	empresa := empresaRepo.seed("Agencia Norte", true)
	actor := adminDe(empresa.ID)

	resp, err := svc.CrearVersion(context.Background(), actor, dto.CrearVersionVehiculoRequest{
		Marca:      "Toyota",
		Linea:      "Hilux",
		Modelo:     "SRV",
		Nombre:     "4x4 AT",
		EmpresaIDs: []string{empresa.ID.String()},
	})
	require.NoError(t, err)

	// Última versión del modelo: caen modelo, línea y marca.
	require.NoError(t, svc.EliminarVersion(context.Background(), actor, resp.ID))
	assert.Empty(t, vehiculoRepo.versiones)
	assert.Empty(t, vehiculoRepo.modelos)
	assert.Empty(t, vehiculoRepo.lineas)
	assert.Empty(t, vehiculoRepo.marcas)
}

func TestEliminarVersionVehiculo_PodaSeDetieneEnAncestroNoVacio(t *testing.T) {
	svc, vehiculoRepo, empresaRepo := buildVehiculoSvc()
	empresa := empresaRepo.seed("Agencia Norte", true)
	actor := adminDe(empresa.ID)

	hilux, err := svc.CrearVersion(context.Background(), actor, dto.CrearVersionVehiculoRequest{
		Marca:      "Toyota",
		Linea:      "Hilux",
		Modelo:     "SRV",
		Nombre:     "4x4 AT",
		EmpresaIDs: []string{empresa.ID.String()},
	})
	require.NoError(t, err)
	_, err = svc.CrearVersion(context.Background(), actor, dto.CrearVersionVehiculoRequest{
		Marca:      "Toyota",
		Linea:      "Corolla",
		Modelo:     "XEI",
		Nombre:     "1.8 CVT",
		EmpresaIDs: []string{empresa.ID.String()},
	})
	require.NoError(t, err)

	// Cae la rama Hilux completa, pero la marca sigue teniendo la línea
	// Corolla: la poda se detiene ahí.
	require.NoError(t, svc.EliminarVersion(context.Background(), actor, hilux.ID))
	assert.Len(t, vehiculoRepo.marcas, 1)
	assert.Len(t, vehiculoRepo.lineas, 1)
	assert.Len(t, vehiculoRepo.modelos, 1)
	assert.Len(t, vehiculoRepo.versiones, 1)
}

func TestEliminarVersionVehiculo_ModeloConHermanasNoSePoda(t *testing.T) {
	svc, vehiculoRepo, empresaRepo := buildVehiculoSvc()
	empresa := empresaRepo.seed("Agencia Norte", true)
	actor := adminDe(empresa.ID)

	at, err := svc.CrearVersion(context.Background(), actor, dto.CrearVersionVehiculoRequest{
		Marca:      "Toyota",
		Linea:      "Hilux",
		Modelo:     "SRV",
		Nombre:     "4x4 AT",
		EmpresaIDs: []string{empresa.ID.String()},
	})
	require.NoError(t, err)
	_, err = svc.CrearVersion(context.Background(), actor, dto.CrearVersionVehiculoRequest{
		Marca:      "Toyota",
		Linea:      "Hilux",
		Modelo:     "SRV",
		Nombre:     "4x2 MT",
		EmpresaIDs: []string{empresa.ID.String()},
	})
	require.NoError(t, err)

	require.NoError(t, svc.EliminarVersion(context.Background(), actor, at.ID))
	assert.Len(t, vehiculoRepo.versiones, 1)
	assert.Len(t, vehiculoRepo.modelos, 1)
}

func TestListarCatalogo_ProyeccionPorScope(t *testing.T) {
	svc, _, empresaRepo := buildVehiculoSvc()
	norte := empresaRepo.seed("Agencia Norte", true)
	sur := empresaRepo.seed("Agencia Sur", true)
	admin := adminDe(norte.ID, sur.ID)

	_, err := svc.CrearVersion(context.Background(), admin, dto.CrearVersionVehiculoRequest{
		Marca:      "Toyota",
		Linea:      "Hilux",
		Modelo:     "SRV",
		Nombre:     "4x4 AT",
		EmpresaIDs: []string{norte.ID.String()},
	})
	require.NoError(t, err)
	_, err = svc.CrearVersion(context.Background(), admin, dto.CrearVersionVehiculoRequest{
		Marca:      "Fiat",
		Linea:      "Cronos",
		Modelo:     "Drive",
		Nombre:     "1.3 GSE",
		EmpresaIDs: []string{sur.ID.String()},
	})
	require.NoError(t, err)

	// El usuario de Norte ve solo la rama Toyota; la rama Fiat queda podada
	// entera de la proyección.
	catalogo, err := svc.ListarCatalogo(context.Background(), usuarioDe(norte.ID))
	require.NoError(t, err)
	require.Len(t, catalogo, 1)
	assert.Equal(t, "Toyota", catalogo[0].Nombre)
	require.Len(t, catalogo[0].Lineas, 1)
	require.Len(t, catalogo[0].Lineas[0].Modelos, 1)
	assert.Len(t, catalogo[0].Lineas[0].Modelos[0].Versiones, 1)

	completo, err := svc.ListarCatalogo(context.Background(), superAdmin())
	require.NoError(t, err)
	assert.Len(t, completo, 2)
}

func TestObtenerVersionVehiculo_DistingueDenegadoDeInexistente(t *testing.T) {
	svc, _, empresaRepo := buildVehiculoSvc()
	norte := empresaRepo.seed("Agencia Norte", true)
	sur := empresaRepo.seed("Agencia Sur", true)
	admin := adminDe(norte.ID, sur.ID)

	resp, err := svc.CrearVersion(context.Background(), admin, dto.CrearVersionVehiculoRequest{
		Marca:      "Toyota",
		Linea:      "Hilux",
		Modelo:     "SRV",
		Nombre:     "4x4 AT",
		EmpresaIDs: []string{norte.ID.String()},
	})
	require.NoError(t, err)

	_, err = svc.ObtenerVersion(context.Background(), usuarioDe(sur.ID), resp.ID)
	assert.True(t, apierror.IsForbidden(err))

	_, err = svc.ObtenerVersion(context.Background(), superAdmin(), resp.ID+100)
	assert.True(t, apierror.IsNotFound(err))
}

func TestActualizarVersionVehiculo_ReemplazaEmpresas(t *testing.T) {
	svc, _, empresaRepo := buildVehiculoSvc()
	norte := empresaRepo.seed("Agencia Norte", true)
	sur := empresaRepo.seed("Agencia Sur", true)
	admin := adminDe(norte.ID, sur.ID)

	resp, err := svc.CrearVersion(context.Background(), admin, dto.CrearVersionVehiculoRequest{
		Marca:      "Toyota",
		Linea:      "Hilux",
		Modelo:     "SRV",
		Nombre:     "4x4 AT",
		EmpresaIDs: []string{norte.ID.String()},
	})
	require.NoError(t, err)

	empresas := []string{sur.ID.String()}
	actualizada, err := svc.ActualizarVersion(context.Background(), admin, resp.ID, dto.ActualizarVersionVehiculoRequest{
		EmpresaIDs: &empresas,
	})
	require.NoError(t, err)
	assert.Equal(t, empresas, actualizada.EmpresaIDs)
}
