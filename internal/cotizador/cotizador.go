// Package cotizador es el motor de cálculo de cuotas: funciones puras sobre
// los datos de una PlanVersion, sin persistencia ni efectos. La aplicabilidad
// (pertenencia a rango) y el pricing (aritmética) se exponen por separado
// para que la capa de presentación pueda distinguir "monto fuera de rango"
// de "no existe coeficiente para ese plazo".
package cotizador

import (
	"sort"

	"cotizador/internal/model"

	"github.com/shopspring/decimal"
)

// coeficienteBase: los coeficientes se expresan cada 10.000 unidades de monto.
var coeficienteBase = decimal.NewFromInt(10000)

// ivaQuebranto es el multiplicador impositivo fijo aplicado al quebranto
// financiero en toda cotización.
var ivaQuebranto = decimal.New(121, -2) // 1.21

var cien = decimal.NewFromInt(100)

// EsMontoAplicable informa si el monto financiado cae dentro del rango de la
// versión. Un extremo nil no restringe.
func EsMontoAplicable(v *model.PlanVersion, monto decimal.Decimal) bool {
	if v.DesdeMonto != nil && monto.LessThan(*v.DesdeMonto) {
		return false
	}
	if v.HastaMonto != nil && monto.GreaterThan(*v.HastaMonto) {
		return false
	}
	return true
}

// EsPlazoAplicable es el chequeo análogo para el plazo en meses.
func EsPlazoAplicable(v *model.PlanVersion, plazo int) bool {
	if v.DesdeCuota != nil && plazo < *v.DesdeCuota {
		return false
	}
	if v.HastaCuota != nil && plazo > *v.HastaCuota {
		return false
	}
	return true
}

// PlazosAplicables devuelve, ordenados ascendente, los plazos para los que
// existe coeficiente y tanto el monto como el plazo pasan su chequeo de
// rango. Lista vacía es un resultado válido: no hay precio para ese monto en
// esta versión.
func PlazosAplicables(v *model.PlanVersion, monto decimal.Decimal) []int {
	plazos := make([]int, 0, len(v.Coeficientes))
	if !EsMontoAplicable(v, monto) {
		return plazos
	}
	for i := range v.Coeficientes {
		if EsPlazoAplicable(v, v.Coeficientes[i].Plazo) {
			plazos = append(plazos, v.Coeficientes[i].Plazo)
		}
	}
	sort.Ints(plazos)
	return plazos
}

// CoeficientePorPlazo busca la fila de pricing para un plazo. nil si no hay.
func CoeficientePorPlazo(v *model.PlanVersion, plazo int) *model.Coeficiente {
	for i := range v.Coeficientes {
		if v.Coeficientes[i].Plazo == plazo {
			return &v.Coeficientes[i]
		}
	}
	return nil
}

// Precio es el desglose cotizado para un plazo.
type Precio struct {
	// Cuota mensual, redondeada SIEMPRE hacia arriba a la unidad entera de
	// moneda: se cotiza la cifra conservadora al cliente.
	Cuota decimal.Decimal
	// Quebranto: cargo diferido gravado con 1.21, también techo. nil cuando
	// el coeficiente no define quebranto financiero.
	Quebranto *decimal.Decimal
	// CuotaBalon es el importe plano del coeficiente, sin escalar por monto.
	CuotaBalon *decimal.Decimal
	// MesesBalon ascendente. El default "todo el plazo como único mes balón"
	// se aplica al cargar datos, no acá.
	MesesBalon []int
}

// CalcularPrecio convierte (coeficiente, monto) en el desglose a mostrar.
// Nunca falla ante combinaciones no aplicables: los callers filtran antes con
// PlazosAplicables / EsMontoAplicable y este cálculo asume entrada válida.
func CalcularPrecio(coef *model.Coeficiente, monto decimal.Decimal) Precio {
	p := Precio{
		Cuota: monto.Mul(coef.Coeficiente).Div(coeficienteBase).Ceil(),
	}

	if coef.QuebrantoFinanciero != nil && coef.QuebrantoFinanciero.IsPositive() {
		q := monto.Mul(*coef.QuebrantoFinanciero).Div(cien).Mul(ivaQuebranto).Ceil()
		p.Quebranto = &q
	}

	if coef.CuotaBalon != nil && coef.CuotaBalon.IsPositive() {
		balon := *coef.CuotaBalon
		p.CuotaBalon = &balon
		p.MesesBalon = make([]int, 0, len(coef.MesesBalon))
		for _, m := range coef.MesesBalon {
			p.MesesBalon = append(p.MesesBalon, m.Mes)
		}
		sort.Ints(p.MesesBalon)
	}

	return p
}
