package cotizador

import (
	"testing"

	"cotizador/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(v int) *int { return &v }

func TestCalcularPrecioCuotaTecho(t *testing.T) {
	coef := &model.Coeficiente{Plazo: 12, Coeficiente: dec("850"), QuebrantoFinanciero: decPtr("2")}

	p := CalcularPrecio(coef, dec("1000000"))

	// 1.000.000 × 850 / 10.000 = 85.000 exacto
	assert.True(t, p.Cuota.Equal(dec("85000")), "cuota = %s", p.Cuota)
	// 1.000.000 × 2% × 1.21 = 24.200 exacto
	require.NotNil(t, p.Quebranto)
	assert.True(t, p.Quebranto.Equal(dec("24200")), "quebranto = %s", p.Quebranto)
	assert.Nil(t, p.CuotaBalon)
}

func TestCalcularPrecioRedondeaHaciaArriba(t *testing.T) {
	// 100.001 × 850 / 10.000 = 8500.085 → 8501, nunca 8500
	coef := &model.Coeficiente{Plazo: 12, Coeficiente: dec("850")}

	p := CalcularPrecio(coef, dec("100001"))

	assert.True(t, p.Cuota.Equal(dec("8501")), "cuota = %s", p.Cuota)
	assert.Nil(t, p.Quebranto, "sin quebranto financiero no hay cargo diferido")
}

func TestCalcularPrecioQuebrantoCero(t *testing.T) {
	coef := &model.Coeficiente{Plazo: 6, Coeficiente: dec("1000"), QuebrantoFinanciero: decPtr("0")}

	p := CalcularPrecio(coef, dec("500000"))

	assert.Nil(t, p.Quebranto, "quebranto 0 equivale a ausente")
}

func TestCalcularPrecioCuotaBalonNoEscala(t *testing.T) {
	coef := &model.Coeficiente{
		Plazo:       24,
		Coeficiente: dec("600"),
		CuotaBalon:  decPtr("150000"),
		MesesBalon: []model.CuotaBalonMes{
			{Mes: 18}, {Mes: 6}, {Mes: 12},
		},
	}

	chico := CalcularPrecio(coef, dec("200000"))
	grande := CalcularPrecio(coef, dec("2000000"))

	// El importe balón es plano: idéntico para cualquier monto.
	require.NotNil(t, chico.CuotaBalon)
	require.NotNil(t, grande.CuotaBalon)
	assert.True(t, chico.CuotaBalon.Equal(dec("150000")))
	assert.True(t, grande.CuotaBalon.Equal(dec("150000")))

	// Meses ordenados ascendente sin importar el orden de carga.
	assert.Equal(t, []int{6, 12, 18}, chico.MesesBalon)
}

func TestEsMontoAplicableRangos(t *testing.T) {
	sinRango := &model.PlanVersion{}
	assert.True(t, EsMontoAplicable(sinRango, dec("0")))
	assert.True(t, EsMontoAplicable(sinRango, dec("99999999")))

	conRango := &model.PlanVersion{DesdeMonto: decPtr("100000"), HastaMonto: decPtr("500000")}
	assert.False(t, EsMontoAplicable(conRango, dec("99999.99")))
	assert.True(t, EsMontoAplicable(conRango, dec("100000")), "el extremo inferior es inclusivo")
	assert.True(t, EsMontoAplicable(conRango, dec("500000")), "el extremo superior es inclusivo")
	assert.False(t, EsMontoAplicable(conRango, dec("500000.01")))

	soloDesde := &model.PlanVersion{DesdeMonto: decPtr("100000")}
	assert.True(t, EsMontoAplicable(soloDesde, dec("100000000")))
}

func TestPlazosAplicables(t *testing.T) {
	v := &model.PlanVersion{
		DesdeMonto: decPtr("100000"),
		DesdeCuota: intPtr(6),
		HastaCuota: intPtr(24),
		Coeficientes: []model.Coeficiente{
			{Plazo: 36, Coeficiente: dec("400")},
			{Plazo: 12, Coeficiente: dec("850")},
			{Plazo: 6, Coeficiente: dec("1600")},
			{Plazo: 3, Coeficiente: dec("3000")},
		},
	}

	// Monto fuera de rango: ningún plazo aplica aunque existan coeficientes.
	assert.Empty(t, PlazosAplicables(v, dec("50000")))

	// Monto válido: quedan solo los plazos dentro de [6, 24], ascendente.
	assert.Equal(t, []int{6, 12}, PlazosAplicables(v, dec("1000000")))
}

func TestCoeficientePorPlazo(t *testing.T) {
	v := &model.PlanVersion{
		Coeficientes: []model.Coeficiente{
			{Plazo: 12, Coeficiente: dec("850")},
			{Plazo: 24, Coeficiente: dec("520")},
		},
	}

	coef := CoeficientePorPlazo(v, 24)
	require.NotNil(t, coef)
	assert.True(t, coef.Coeficiente.Equal(dec("520")))

	assert.Nil(t, CoeficientePorPlazo(v, 18))
}
