package router

import (
	"time"

	"cotizador/internal/acceso"
	"cotizador/internal/config"
	"cotizador/internal/handler"
	"cotizador/internal/infra"
	"cotizador/internal/middleware"
	"cotizador/internal/repository"
	"cotizador/internal/service"
	"cotizador/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, logos *infra.LogoStore, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	corsOrigin := ""
	if cfg.Env == "production" {
		corsOrigin = cfg.Domain
	}
	r.Use(middleware.CORS(corsOrigin))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	empresaRepo := repository.NewEmpresaRepository(db)
	planRepo := repository.NewPlanRepository(db)
	cotizacionRepo := repository.NewCotizacionRepository(db)
	vehiculoRepo := repository.NewVehiculoRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, empresaRepo, cfg)
	empresaSvc := service.NewEmpresaService(empresaRepo)
	planSvc := service.NewPlanService(planRepo, empresaRepo, usuarioRepo)
	simulacionSvc := service.NewSimulacionService(planRepo, rdb)
	cotizacionSvc := service.NewCotizacionService(cotizacionRepo, planRepo, empresaRepo, vehiculoRepo, usuarioRepo, dispatcher)
	vehiculoSvc := service.NewVehiculoService(vehiculoRepo, empresaRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	empresasH := handler.NewEmpresasHandler(empresaSvc)
	planesH := handler.NewPlanesHandler(planSvc, logos)
	simulacionH := handler.NewSimulacionHandler(simulacionSvc)
	cotizacionesH := handler.NewCotizacionesHandler(cotizacionSvc)
	vehiculosH := handler.NewVehiculosHandler(vehiculoSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	todos := []string{acceso.RolUsuario, acceso.RolAdmin, acceso.RolSuperAdmin}
	adminOMas := []string{acceso.RolAdmin, acceso.RolSuperAdmin}

	v1 := r.Group("/v1", jwtMW)
	{
		// Usuarios — gestión exclusiva de super_admin
		usuarios := v1.Group("/usuarios", middleware.RequireRole(acceso.RolSuperAdmin))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}

		// Empresas — lectura para todos, escritura la arbitra el servicio
		// (alta/baja solo super_admin, update admin con scope)
		v1.GET("/empresas", middleware.RequireRole(todos...), empresasH.Listar)
		v1.GET("/empresas/:id", middleware.RequireRole(todos...), empresasH.ObtenerPorID)
		empresas := v1.Group("/empresas", middleware.RequireRole(adminOMas...))
		{
			empresas.POST("", empresasH.Crear)
			empresas.PUT("/:id", empresasH.Actualizar)
			empresas.DELETE("/:id", empresasH.Desactivar)
			empresas.PATCH("/:id/reactivar", empresasH.Reactivar)
		}

		// Planes — lectura scoped para todos; pricing solo admin o superior
		v1.GET("/planes", middleware.RequireRole(todos...), planesH.Listar)
		v1.GET("/planes/:id", middleware.RequireRole(todos...), planesH.ObtenerPorID)
		v1.GET("/planes/:id/versiones", middleware.RequireRole(todos...), planesH.ListarVersiones)
		v1.GET("/planes/:id/versiones/ultima", middleware.RequireRole(todos...), planesH.ObtenerUltimaVersion)
		v1.GET("/planes/:id/versiones/:version", middleware.RequireRole(todos...), planesH.ObtenerVersion)
		v1.GET("/planes/:id/simulacion", middleware.RequireRole(todos...),
			middleware.SimulacionRateLimiter(120, time.Minute), simulacionH.Simular)
		v1.GET("/planes/:id/logo", middleware.RequireRole(todos...), planesH.DescargarLogo)
		planes := v1.Group("/planes", middleware.RequireRole(adminOMas...))
		{
			planes.POST("", planesH.Crear)
			planes.PUT("/:id", planesH.Actualizar)
			planes.POST("/:id/versiones", planesH.CrearVersion)
			planes.POST("/:id/logo", planesH.SubirLogo)
		}

		// Cotizaciones — usuario puede crear/editar en su scope; borrar es
		// admin o superior (lo re-valida el servicio)
		cotizaciones := v1.Group("/cotizaciones", middleware.RequireRole(todos...))
		{
			cotizaciones.POST("", cotizacionesH.Crear)
			cotizaciones.GET("", cotizacionesH.Listar)
			cotizaciones.GET("/:id", cotizacionesH.ObtenerPorID)
			cotizaciones.PUT("/:id", cotizacionesH.Actualizar)
			cotizaciones.DELETE("/:id", cotizacionesH.Eliminar)
		}

		// Catálogo de vehículos — lectura scoped, escritura admin o superior
		v1.GET("/vehiculos", middleware.RequireRole(todos...), vehiculosH.ListarCatalogo)
		v1.GET("/vehiculos/versiones/:id", middleware.RequireRole(todos...), vehiculosH.ObtenerVersion)
		vehiculos := v1.Group("/vehiculos", middleware.RequireRole(adminOMas...))
		{
			vehiculos.POST("/versiones", vehiculosH.CrearVersion)
			vehiculos.PUT("/versiones/:id", vehiculosH.ActualizarVersion)
			vehiculos.DELETE("/versiones/:id", vehiculosH.EliminarVersion)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
