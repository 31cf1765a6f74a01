package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"cotizador/internal/apierror"
	"cotizador/internal/dto"
	"cotizador/internal/infra"
	"cotizador/internal/middleware"
	"cotizador/internal/service"

	"github.com/gin-gonic/gin"
)

// 2 MB alcanza para cualquier logo razonable.
const maxLogoBytes = 2 << 20

type PlanesHandler struct {
	svc   service.PlanService
	logos *infra.LogoStore
}

func NewPlanesHandler(svc service.PlanService, logos *infra.LogoStore) *PlanesHandler {
	return &PlanesHandler{svc: svc, logos: logos}
}

// Crear godoc
// @Summary Alta de plan con su version inicial de pricing
// @Tags planes
// @Accept json
// @Produce json
// @Param body body dto.CrearPlanRequest true "Plan"
// @Success 201 {object} dto.PlanResponse
// @Failure 403 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/planes [post]
func (h *PlanesHandler) Crear(c *gin.Context) {
	var req dto.CrearPlanRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearPlan(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PlanesHandler) Listar(c *gin.Context) {
	var filter dto.PlanFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), middleware.ActorFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PlanesHandler) ObtenerPorID(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PlanesHandler) Actualizar(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarPlanRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarPlan(c.Request.Context(), middleware.ActorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Versiones ────────────────────────────────────────────────────────────────

// CrearVersion godoc
// @Summary Publica una nueva version de pricing del plan
// @Tags planes
// @Accept json
// @Produce json
// @Param id path string true "ID del plan"
// @Param body body dto.CrearVersionRequest true "Version"
// @Success 201 {object} dto.PlanVersionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/planes/{id}/versiones [post]
func (h *PlanesHandler) CrearVersion(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CrearVersionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearVersion(c.Request.Context(), middleware.ActorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PlanesHandler) ListarVersiones(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarVersiones(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PlanesHandler) ObtenerUltimaVersion(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerUltimaVersion(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PlanesHandler) ObtenerVersion(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("El numero de version debe ser un entero positivo"))
		return
	}
	resp, err := h.svc.ObtenerVersion(c.Request.Context(), middleware.ActorFrom(c), id, version)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Logo ─────────────────────────────────────────────────────────────────────

// SubirLogo recibe el logo por multipart, lo persiste en el LogoStore y
// guarda la referencia en el plan.
func (h *PlanesHandler) SubirLogo(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("logo")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Falta el archivo 'logo' en el formulario"))
		return
	}
	if fileHeader.Size > maxLogoBytes {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("El logo supera el tamano maximo de 2MB"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxLogoBytes))
	if err != nil {
		respondError(c, err)
		return
	}

	ref, err := h.logos.Save(data, filepath.Ext(fileHeader.Filename))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.svc.ActualizarLogo(c.Request.Context(), middleware.ActorFrom(c), id, ref); err != nil {
		// El plan no tomó la referencia; el archivo huérfano se limpia acá.
		_ = h.logos.Remove(ref)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logo_ref": ref})
}

// DescargarLogo resuelve la referencia guardada y sirve los bytes.
func (h *PlanesHandler) DescargarLogo(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	plan, err := h.svc.ObtenerPorID(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if plan.LogoRef == nil {
		c.JSON(http.StatusNotFound, apierror.New("El plan no tiene logo"))
		return
	}
	data, err := h.logos.Open(*plan.LogoRef)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Logo no encontrado"))
		return
	}
	c.Data(http.StatusOK, logoContentType(*plan.LogoRef), data)
}

func logoContentType(ref string) string {
	switch filepath.Ext(ref) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "image/png"
	}
}
