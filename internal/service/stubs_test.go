package service

import (
	"context"
	"sort"
	"testing"

	"cotizador/internal/acceso"
	"cotizador/internal/dto"
	"cotizador/internal/model"
	"cotizador/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Stubs in-memory de los repositorios. runTx pasa tx=nil cuando DB() devuelve
// nil, así que los métodos ...Tx ignoran la tx.

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

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func superAdmin() acceso.Actor {
	return acceso.Actor{ID: uuid.New(), Rol: acceso.RolSuperAdmin}
}

func adminDe(empresas ...uuid.UUID) acceso.Actor {
	return acceso.Actor{ID: uuid.New(), Rol: acceso.RolAdmin, EmpresaIDs: empresas}
}

func usuarioDe(empresas ...uuid.UUID) acceso.Actor {
	return acceso.Actor{ID: uuid.New(), Rol: acceso.RolUsuario, EmpresaIDs: empresas}
}

// ── stubEmpresaRepo ───────────────────────────────────────────────────────────

type stubEmpresaRepo struct {
	empresas map[uuid.UUID]*model.Empresa
}

func newStubEmpresaRepo() *stubEmpresaRepo {
	return &stubEmpresaRepo{empresas: make(map[uuid.UUID]*model.Empresa)}
}

func (r *stubEmpresaRepo) seed(nombre string, activa bool) model.Empresa {
	e := &model.Empresa{ID: uuid.New(), Nombre: nombre, Activa: activa}
	r.empresas[e.ID] = e
	return *e
}

func (r *stubEmpresaRepo) Create(_ context.Context, e *model.Empresa) error {
	for _, ex := range r.empresas {
		if ex.Nombre == e.Nombre {
			return gorm.ErrDuplicatedKey
		}
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	c := *e
	r.empresas[e.ID] = &c
	return nil
}

func (r *stubEmpresaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Empresa, error) {
	e, ok := r.empresas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *stubEmpresaRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Empresa, error) {
	out := make([]model.Empresa, 0, len(ids))
	for _, id := range ids {
		if e, ok := r.empresas[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *stubEmpresaRepo) List(_ context.Context, incluirInactivas bool) ([]model.Empresa, error) {
	var out []model.Empresa
	for _, e := range r.empresas {
		if !incluirInactivas && !e.Activa {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *stubEmpresaRepo) Update(_ context.Context, e *model.Empresa) error {
	c := *e
	r.empresas[e.ID] = &c
	return nil
}

func (r *stubEmpresaRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if e, ok := r.empresas[id]; ok {
		e.Activa = false
	}
	return nil
}

func (r *stubEmpresaRepo) Reactivar(_ context.Context, id uuid.UUID) error {
	if e, ok := r.empresas[id]; ok {
		e.Activa = true
	}
	return nil
}

var _ repository.EmpresaRepository = (*stubEmpresaRepo)(nil)

// ── stubUsuarioRepo ───────────────────────────────────────────────────────────

type stubUsuarioRepo struct {
	usuarios map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{usuarios: make(map[uuid.UUID]*model.Usuario)}
}

func (r *stubUsuarioRepo) seed(u model.Usuario) model.Usuario {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	c := u
	r.usuarios[u.ID] = &c
	return u
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	for _, ex := range r.usuarios {
		if ex.Username == u.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	c := *u
	r.usuarios[u.ID] = &c
	return nil
}

func (r *stubUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.Username == username && u.Activo {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	c := *u
	r.usuarios[u.ID] = &c
	return nil
}

func (r *stubUsuarioRepo) ReplaceEmpresas(_ context.Context, u *model.Usuario, empresas []model.Empresa) error {
	if st, ok := r.usuarios[u.ID]; ok {
		st.Empresas = empresas
	}
	return nil
}

func (r *stubUsuarioRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if u, ok := r.usuarios[id]; ok {
		u.Activo = false
	}
	return nil
}

func (r *stubUsuarioRepo) Reactivar(_ context.Context, id uuid.UUID) error {
	if u, ok := r.usuarios[id]; ok {
		u.Activo = true
	}
	return nil
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

// ── stubPlanRepo ──────────────────────────────────────────────────────────────

type stubPlanRepo struct {
	planes    map[uuid.UUID]*model.Plan
	versiones map[uuid.UUID]*model.PlanVersion
}

func newStubPlanRepo() *stubPlanRepo {
	return &stubPlanRepo{
		planes:    make(map[uuid.UUID]*model.Plan),
		versiones: make(map[uuid.UUID]*model.PlanVersion),
	}
}

// seedPlanConVersion da de alta un plan con su versión 1 vigente, sin pasar
// por el servicio.
func (r *stubPlanRepo) seedPlanConVersion(nombre string, empresas ...model.Empresa) (*model.Plan, *model.PlanVersion) {
	p := &model.Plan{ID: uuid.New(), Nombre: nombre, Activo: true, Empresas: empresas}
	r.planes[p.ID] = p
	v := &model.PlanVersion{ID: uuid.New(), PlanID: p.ID, Version: 1, EsUltima: true}
	r.versiones[v.ID] = v
	return p, v
}

func (r *stubPlanRepo) DB() *gorm.DB { return nil }

func (r *stubPlanRepo) CreateTx(_ *gorm.DB, p *model.Plan) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.planes[p.ID] = p
	return nil
}

func (r *stubPlanRepo) AppendEmpresasTx(_ *gorm.DB, p *model.Plan, empresas []model.Empresa) error {
	st := r.planes[p.ID]
	st.Empresas = append(st.Empresas, empresas...)
	return nil
}

func (r *stubPlanRepo) AppendUsuariosPermitidosTx(_ *gorm.DB, p *model.Plan, usuarios []model.Usuario) error {
	st := r.planes[p.ID]
	st.UsuariosPermitidos = append(st.UsuariosPermitidos, usuarios...)
	return nil
}

func (r *stubPlanRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Plan, error) {
	p, ok := r.planes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	p.Versiones = nil
	for _, v := range r.versiones {
		if v.PlanID == id && v.EsUltima {
			p.Versiones = append(p.Versiones, *v)
		}
	}
	return p, nil
}

func (r *stubPlanRepo) List(_ context.Context, _ dto.PlanFilter, scope *repository.PlanScope) ([]model.Plan, int64, error) {
	var out []model.Plan
	for _, p := range r.planes {
		if scope != nil && !planEnScope(p, scope) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, int64(len(out)), nil
}

func planEnScope(p *model.Plan, scope *repository.PlanScope) bool {
	enScope := false
	for _, e := range p.Empresas {
		for _, id := range scope.EmpresaIDs {
			if e.ID == id {
				enScope = true
			}
		}
	}
	if !enScope {
		return false
	}
	if scope.FiltrarPermitidos && len(p.UsuariosPermitidos) > 0 {
		for _, u := range p.UsuariosPermitidos {
			if u.ID == scope.UsuarioID {
				return true
			}
		}
		return false
	}
	return true
}

func (r *stubPlanRepo) Update(_ context.Context, p *model.Plan) error {
	r.planes[p.ID] = p
	return nil
}

func (r *stubPlanRepo) UpdateTx(_ *gorm.DB, p *model.Plan) error {
	r.planes[p.ID] = p
	return nil
}

func (r *stubPlanRepo) ReplaceEmpresasTx(_ *gorm.DB, p *model.Plan, empresas []model.Empresa) error {
	r.planes[p.ID].Empresas = empresas
	return nil
}

func (r *stubPlanRepo) ReplaceUsuariosPermitidosTx(_ *gorm.DB, p *model.Plan, usuarios []model.Usuario) error {
	r.planes[p.ID].UsuariosPermitidos = usuarios
	return nil
}

func (r *stubPlanRepo) LockPlanTx(_ *gorm.DB, planID uuid.UUID) (*model.Plan, error) {
	p, ok := r.planes[planID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPlanRepo) MaxVersionTx(_ *gorm.DB, planID uuid.UUID) (int, error) {
	max := 0
	for _, v := range r.versiones {
		if v.PlanID == planID && v.Version > max {
			max = v.Version
		}
	}
	return max, nil
}

func (r *stubPlanRepo) DemoteUltimaTx(_ *gorm.DB, planID uuid.UUID) error {
	for _, v := range r.versiones {
		if v.PlanID == planID {
			v.EsUltima = false
		}
	}
	return nil
}

func (r *stubPlanRepo) CreateVersionTx(_ *gorm.DB, v *model.PlanVersion) error {
	for _, ex := range r.versiones {
		if ex.PlanID == v.PlanID && ex.Version == v.Version {
			return gorm.ErrDuplicatedKey
		}
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	c := *v
	r.versiones[v.ID] = &c
	return nil
}

func (r *stubPlanRepo) FindVersionByID(_ context.Context, id uuid.UUID) (*model.PlanVersion, error) {
	v, ok := r.versiones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubPlanRepo) FindUltimaVersion(_ context.Context, planID uuid.UUID) (*model.PlanVersion, error) {
	for _, v := range r.versiones {
		if v.PlanID == planID && v.EsUltima {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPlanRepo) FindVersionPorNumero(_ context.Context, planID uuid.UUID, version int) (*model.PlanVersion, error) {
	for _, v := range r.versiones {
		if v.PlanID == planID && v.Version == version {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPlanRepo) ListVersiones(_ context.Context, planID uuid.UUID) ([]model.PlanVersion, error) {
	var out []model.PlanVersion
	for _, v := range r.versiones {
		if v.PlanID == planID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

var _ repository.PlanRepository = (*stubPlanRepo)(nil)

// ── stubCotizacionRepo ────────────────────────────────────────────────────────

// stubCotizacionRepo comparte el stubPlanRepo para hidratar PlanVersion en
// FindByID, igual que el preload del repositorio real.
type stubCotizacionRepo struct {
	cotizaciones map[uuid.UUID]*model.Cotizacion
	planRepo     *stubPlanRepo
}

func newStubCotizacionRepo(planRepo *stubPlanRepo) *stubCotizacionRepo {
	return &stubCotizacionRepo{
		cotizaciones: make(map[uuid.UUID]*model.Cotizacion),
		planRepo:     planRepo,
	}
}

func (r *stubCotizacionRepo) Create(_ context.Context, c *model.Cotizacion) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.cotizaciones[c.ID] = &cp
	return nil
}

func (r *stubCotizacionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cotizacion, error) {
	c, ok := r.cotizaciones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	if r.planRepo != nil {
		if v, ok := r.planRepo.versiones[c.PlanVersionID]; ok {
			cp.PlanVersion = v
		}
	}
	return &cp, nil
}

func (r *stubCotizacionRepo) List(_ context.Context, filter dto.CotizacionFilter, scopeEmpresas []uuid.UUID) ([]model.Cotizacion, int64, error) {
	var out []model.Cotizacion
	for _, c := range r.cotizaciones {
		if scopeEmpresas != nil && !contieneUUID(scopeEmpresas, c.EmpresaID) {
			continue
		}
		if filter.EmpresaID != "" && filter.EmpresaID != c.EmpresaID.String() {
			continue
		}
		if filter.ClienteDNI != "" && filter.ClienteDNI != c.ClienteDNI {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func contieneUUID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func (r *stubCotizacionRepo) Update(_ context.Context, c *model.Cotizacion) error {
	cp := *c
	r.cotizaciones[c.ID] = &cp
	return nil
}

func (r *stubCotizacionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.cotizaciones, id)
	return nil
}

var _ repository.CotizacionRepository = (*stubCotizacionRepo)(nil)

// ── stubVehiculoRepo ──────────────────────────────────────────────────────────

type stubVehiculoRepo struct {
	seq       uint
	marcas    map[uint]*model.Marca
	lineas    map[uint]*model.Linea
	modelos   map[uint]*model.Modelo
	versiones map[uint]*model.VersionVehiculo
}

func newStubVehiculoRepo() *stubVehiculoRepo {
	return &stubVehiculoRepo{
		marcas:    make(map[uint]*model.Marca),
		lineas:    make(map[uint]*model.Linea),
		modelos:   make(map[uint]*model.Modelo),
		versiones: make(map[uint]*model.VersionVehiculo),
	}
}

func (r *stubVehiculoRepo) nextID() uint {
	r.seq++
	return r.seq
}

func (r *stubVehiculoRepo) DB() *gorm.DB { return nil }

func (r *stubVehiculoRepo) FindOrCreateMarcaTx(_ *gorm.DB, nombre string) (*model.Marca, error) {
	for _, m := range r.marcas {
		if m.Nombre == nombre {
			return m, nil
		}
	}
	m := &model.Marca{ID: r.nextID(), Nombre: nombre}
	r.marcas[m.ID] = m
	return m, nil
}

func (r *stubVehiculoRepo) FindOrCreateLineaTx(_ *gorm.DB, marcaID uint, nombre string) (*model.Linea, error) {
	for _, l := range r.lineas {
		if l.MarcaID == marcaID && l.Nombre == nombre {
			return l, nil
		}
	}
	l := &model.Linea{ID: r.nextID(), MarcaID: marcaID, Nombre: nombre}
	r.lineas[l.ID] = l
	return l, nil
}

func (r *stubVehiculoRepo) FindOrCreateModeloTx(_ *gorm.DB, lineaID uint, nombre string) (*model.Modelo, error) {
	for _, m := range r.modelos {
		if m.LineaID == lineaID && m.Nombre == nombre {
			return m, nil
		}
	}
	m := &model.Modelo{ID: r.nextID(), LineaID: lineaID, Nombre: nombre}
	r.modelos[m.ID] = m
	return m, nil
}

func (r *stubVehiculoRepo) CreateVersionTx(_ *gorm.DB, v *model.VersionVehiculo) error {
	if v.ID == 0 {
		v.ID = r.nextID()
	}
	c := *v
	r.versiones[v.ID] = &c
	return nil
}

func (r *stubVehiculoRepo) AppendEmpresasTx(_ *gorm.DB, v *model.VersionVehiculo, empresas []model.Empresa) error {
	st := r.versiones[v.ID]
	st.Empresas = append(st.Empresas, empresas...)
	return nil
}

// FindVersionByID hidrata la cadena Modelo → Linea → Marca como el preload
// del repositorio real.
func (r *stubVehiculoRepo) FindVersionByID(_ context.Context, id uint) (*model.VersionVehiculo, error) {
	v, ok := r.versiones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *v
	if m, ok := r.modelos[v.ModeloID]; ok {
		mc := *m
		if l, ok := r.lineas[m.LineaID]; ok {
			lc := *l
			if ma, ok := r.marcas[l.MarcaID]; ok {
				mac := *ma
				lc.Marca = &mac
			}
			mc.Linea = &lc
		}
		c.Modelo = &mc
	}
	return &c, nil
}

func (r *stubVehiculoRepo) ListMarcas(_ context.Context) ([]model.Marca, error) {
	var out []model.Marca
	for _, ma := range r.marcas {
		mc := *ma
		mc.Lineas = nil
		for _, l := range r.lineas {
			if l.MarcaID != ma.ID {
				continue
			}
			lc := *l
			lc.Modelos = nil
			for _, mo := range r.modelos {
				if mo.LineaID != l.ID {
					continue
				}
				moc := *mo
				moc.Versiones = nil
				for _, v := range r.versiones {
					if v.ModeloID == mo.ID {
						moc.Versiones = append(moc.Versiones, *v)
					}
				}
				lc.Modelos = append(lc.Modelos, moc)
			}
			mc.Lineas = append(mc.Lineas, lc)
		}
		out = append(out, mc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *stubVehiculoRepo) UpdateVersion(_ context.Context, v *model.VersionVehiculo) error {
	if st, ok := r.versiones[v.ID]; ok {
		st.Nombre = v.Nombre
	}
	return nil
}

func (r *stubVehiculoRepo) ReplaceEmpresas(_ context.Context, v *model.VersionVehiculo, empresas []model.Empresa) error {
	if st, ok := r.versiones[v.ID]; ok {
		st.Empresas = empresas
	}
	return nil
}

func (r *stubVehiculoRepo) DeleteVersionTx(_ *gorm.DB, id uint) error {
	delete(r.versiones, id)
	return nil
}

func (r *stubVehiculoRepo) CountVersionesPorModeloTx(_ *gorm.DB, modeloID uint) (int64, error) {
	var n int64
	for _, v := range r.versiones {
		if v.ModeloID == modeloID {
			n++
		}
	}
	return n, nil
}

func (r *stubVehiculoRepo) CountModelosPorLineaTx(_ *gorm.DB, lineaID uint) (int64, error) {
	var n int64
	for _, m := range r.modelos {
		if m.LineaID == lineaID {
			n++
		}
	}
	return n, nil
}

func (r *stubVehiculoRepo) CountLineasPorMarcaTx(_ *gorm.DB, marcaID uint) (int64, error) {
	var n int64
	for _, l := range r.lineas {
		if l.MarcaID == marcaID {
			n++
		}
	}
	return n, nil
}

func (r *stubVehiculoRepo) DeleteModeloTx(_ *gorm.DB, id uint) error {
	delete(r.modelos, id)
	return nil
}

func (r *stubVehiculoRepo) DeleteLineaTx(_ *gorm.DB, id uint) error {
	delete(r.lineas, id)
	return nil
}

func (r *stubVehiculoRepo) DeleteMarcaTx(_ *gorm.DB, id uint) error {
	delete(r.marcas, id)
	return nil
}

var _ repository.VehiculoRepository = (*stubVehiculoRepo)(nil)
