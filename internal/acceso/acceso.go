// Package acceso resuelve capacidades por rol y scope de empresas.
// Es una función de resolución pura: recibe el actor (ya autenticado por la
// capa de transporte) y la entidad objetivo ya cargada, y devuelve nil o un
// ForbiddenError con motivo. Nunca filtra en silencio — el caller siempre
// puede distinguir "resultado vacío" de "denegado".
package acceso

import (
	"cotizador/internal/apierror"
	"cotizador/internal/model"

	"github.com/google/uuid"
)

const (
	RolUsuario    = "usuario"
	RolAdmin      = "admin"
	RolSuperAdmin = "super_admin"
)

// Actor es la identidad autenticada que intenta la operación.
// EmpresaIDs es el conjunto de empresas asignadas por membresía explícita;
// para super_admin queda vacío porque su scope es global.
type Actor struct {
	ID         uuid.UUID
	Rol        string
	EmpresaIDs []uuid.UUID
}

func (a Actor) EsSuperAdmin() bool { return a.Rol == RolSuperAdmin }

func (a Actor) esAdminOMas() bool {
	return a.Rol == RolAdmin || a.Rol == RolSuperAdmin
}

func (a Actor) perteneceA(empresaID uuid.UUID) bool {
	for _, id := range a.EmpresaIDs {
		if id == empresaID {
			return true
		}
	}
	return false
}

// PuedeVerEmpresa: lectura de una empresa. admin y usuario comparten el mismo
// scope de lectura; super_admin no tiene scope.
func PuedeVerEmpresa(a Actor, empresaID uuid.UUID) error {
	if a.EsSuperAdmin() {
		return nil
	}
	if !a.perteneceA(empresaID) {
		return apierror.NewForbidden("la empresa no pertenece a su scope")
	}
	return nil
}

// PuedeOperarEmpresa: escrituras sobre Empresa, pricing de planes y catálogo
// de vehículos. usuario tiene denegada toda escritura sobre estas entidades.
func PuedeOperarEmpresa(a Actor, empresaID uuid.UUID) error {
	if a.EsSuperAdmin() {
		return nil
	}
	if a.Rol == RolUsuario {
		return apierror.NewForbidden("su rol no permite operaciones de escritura sobre esta entidad")
	}
	if !a.perteneceA(empresaID) {
		return apierror.NewForbidden("la empresa no pertenece a su scope")
	}
	return nil
}

// PuedeVerPlan: un usuario ve un plan solo si (a) el plan está asociado a una
// empresa de su scope, y (b) la lista de usuarios permitidos del plan está
// vacía (todos los de la empresa lo ven) o lo incluye explícitamente.
// admin solo necesita (a); super_admin ve todo.
func PuedeVerPlan(a Actor, p *model.Plan) error {
	if a.EsSuperAdmin() {
		return nil
	}
	enScope := false
	for _, e := range p.Empresas {
		if a.perteneceA(e.ID) {
			enScope = true
			break
		}
	}
	if !enScope {
		return apierror.NewForbidden("el plan no está asociado a ninguna empresa de su scope")
	}
	if a.Rol == RolUsuario && len(p.UsuariosPermitidos) > 0 {
		for _, u := range p.UsuariosPermitidos {
			if u.ID == a.ID {
				return nil
			}
		}
		return apierror.NewForbidden("el plan está restringido a una lista de usuarios que no lo incluye")
	}
	return nil
}

// PuedeEditarPlan: metadata y versiones de pricing — admin o superior, con al
// menos una empresa del plan en scope.
func PuedeEditarPlan(a Actor, p *model.Plan) error {
	if a.EsSuperAdmin() {
		return nil
	}
	if a.Rol == RolUsuario {
		return apierror.NewForbidden("su rol no permite modificar planes")
	}
	for _, e := range p.Empresas {
		if a.perteneceA(e.ID) {
			return nil
		}
	}
	return apierror.NewForbidden("el plan no está asociado a ninguna empresa de su scope")
}

// PuedeVerCotizacion / PuedeModificarCotizacion: admin y usuario operan solo
// sobre cotizaciones cuya empresa está en su scope.
func PuedeVerCotizacion(a Actor, c *model.Cotizacion) error {
	if a.EsSuperAdmin() {
		return nil
	}
	if !a.perteneceA(c.EmpresaID) {
		return apierror.NewForbidden("la cotización pertenece a una empresa fuera de su scope")
	}
	return nil
}

func PuedeModificarCotizacion(a Actor, c *model.Cotizacion) error {
	return PuedeVerCotizacion(a, c)
}

// PuedeEliminarCotizacion exige además rol admin o superior.
func PuedeEliminarCotizacion(a Actor, c *model.Cotizacion) error {
	if !a.esAdminOMas() {
		return apierror.NewForbidden("eliminar cotizaciones requiere rol admin o superior")
	}
	return PuedeVerCotizacion(a, c)
}

// PuedeVerVersionVehiculo: la versión es visible si al menos una de sus
// empresas asociadas está en scope. El resto de la jerarquía (marca, línea,
// modelo) hereda la visibilidad de sus versiones hoja.
func PuedeVerVersionVehiculo(a Actor, empresaIDs []uuid.UUID) error {
	if a.EsSuperAdmin() {
		return nil
	}
	for _, id := range empresaIDs {
		if a.perteneceA(id) {
			return nil
		}
	}
	return apierror.NewForbidden("la versión de vehículo no está asociada a ninguna empresa de su scope")
}

// PuedeOperarCatalogo: escrituras sobre el catálogo de vehículos.
func PuedeOperarCatalogo(a Actor) error {
	if a.esAdminOMas() {
		return nil
	}
	return apierror.NewForbidden("su rol no permite modificar el catálogo de vehículos")
}
