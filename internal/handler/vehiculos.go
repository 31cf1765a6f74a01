package handler

import (
	"net/http"
	"strconv"

	"cotizador/internal/apierror"
	"cotizador/internal/dto"
	"cotizador/internal/middleware"
	"cotizador/internal/service"

	"github.com/gin-gonic/gin"
)

type VehiculosHandler struct{ svc service.VehiculoService }

func NewVehiculosHandler(svc service.VehiculoService) *VehiculosHandler {
	return &VehiculosHandler{svc: svc}
}

// pathUint parsea el ID numérico del catálogo.
func pathUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("El parametro "+name+" debe ser un entero positivo"))
		return 0, false
	}
	return uint(v), true
}

// CrearVersion godoc
// @Summary Alta de version de vehiculo (crea marca/linea/modelo si faltan)
// @Tags vehiculos
// @Accept json
// @Produce json
// @Param body body dto.CrearVersionVehiculoRequest true "Version"
// @Success 201 {object} dto.VersionVehiculoResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/vehiculos/versiones [post]
func (h *VehiculosHandler) CrearVersion(c *gin.Context) {
	var req dto.CrearVersionVehiculoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearVersion(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *VehiculosHandler) ListarCatalogo(c *gin.Context) {
	resp, err := h.svc.ListarCatalogo(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VehiculosHandler) ObtenerVersion(c *gin.Context) {
	id, ok := pathUint(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerVersion(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VehiculosHandler) ActualizarVersion(c *gin.Context) {
	id, ok := pathUint(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarVersionVehiculoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarVersion(c.Request.Context(), middleware.ActorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VehiculosHandler) EliminarVersion(c *gin.Context) {
	id, ok := pathUint(c, "id")
	if !ok {
		return
	}
	if err := h.svc.EliminarVersion(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
