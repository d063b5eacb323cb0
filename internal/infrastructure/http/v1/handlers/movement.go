package handlers

import (
	"github.com/gin-gonic/gin"

	"clinstock/internal/core/apperror"
	"clinstock/internal/core/id"
	"clinstock/internal/domain/movement"
	"clinstock/internal/infrastructure/http/v1/dto"
)

// MovementHandler handles HTTP requests for stock movements.
type MovementHandler struct {
	*BaseHandler
	service *movement.Service
	query   *movement.Query
}

// NewMovementHandler creates a new movement handler.
func NewMovementHandler(base *BaseHandler, service *movement.Service, query *movement.Query) *MovementHandler {
	return &MovementHandler{
		BaseHandler: base,
		service:     service,
		query:       query,
	}
}

// Create handles POST /movements
func (h *MovementHandler) Create(c *gin.Context) {
	var req dto.CreateMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput(h.GetActorID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	m, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromMovement(*m))
}

// List handles GET /movements
func (h *MovementHandler) List(c *gin.Context) {
	page := h.ParseIntQuery(c, "page", 1)
	limit := h.ParseIntQuery(c, "limit", 20)

	result, err := h.query.List(c.Request.Context(), page, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPage(result))
}

// Search handles GET /movements/search?term=
func (h *MovementHandler) Search(c *gin.Context) {
	term := c.Query("term")

	result, err := h.query.Search(c.Request.Context(), term)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSearchResult(result))
}

// ListByProduct handles GET /products/:productId/movements
func (h *MovementHandler) ListByProduct(c *gin.Context) {
	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id format"))
		return
	}

	page := h.ParseIntQuery(c, "page", 1)
	limit := h.ParseIntQuery(c, "limit", 20)

	result, err := h.query.ListByProduct(c.Request.Context(), productID, page, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPage(result))
}
