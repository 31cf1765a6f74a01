package handler

import (
	"net/http"

	"cotizador/internal/apierror"
	"cotizador/internal/dto"
	"cotizador/internal/middleware"
	"cotizador/internal/service"

	"github.com/gin-gonic/gin"
)

type SimulacionHandler struct{ svc service.SimulacionService }

func NewSimulacionHandler(svc service.SimulacionService) *SimulacionHandler {
	return &SimulacionHandler{svc: svc}
}

// Simular godoc
// @Summary Desglose de cuotas por plazo para un plan y monto
// @Tags simulacion
// @Produce json
// @Param id path string true "ID del plan"
// @Param monto query number true "Monto a financiar"
// @Param version query int false "Version especifica (default: ultima)"
// @Success 200 {object} dto.SimulacionResponse
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/planes/{id}/simulacion [get]
func (h *SimulacionHandler) Simular(c *gin.Context) {
	planID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	// monto=0 es válido, así que la presencia se chequea sobre el query
	// string y no con un tag required que descarta el valor cero.
	if c.Query("monto") == "" {
		c.JSON(http.StatusUnprocessableEntity, apierror.Envelope(apierror.NewValidation("monto es requerido")))
		return
	}
	var filter dto.SimulacionFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.Simular(c.Request.Context(), middleware.ActorFrom(c), planID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
