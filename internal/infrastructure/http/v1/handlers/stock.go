package handlers

import (
	"github.com/gin-gonic/gin"

	"clinstock/internal/core/apperror"
	"clinstock/internal/core/id"
	"clinstock/internal/domain/ledger"
	"clinstock/internal/domain/movement"
	"clinstock/internal/infrastructure/http/v1/dto"
)

// StockHandler handles HTTP requests for the stock ledger.
type StockHandler struct {
	*BaseHandler
	service  *ledger.Service
	products movement.ProductCatalog
}

// NewStockHandler creates a new stock ledger handler.
func NewStockHandler(base *BaseHandler, service *ledger.Service, products movement.ProductCatalog) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
		products:    products,
	}
}

// Locations handles GET /stock/locations?productId=
func (h *StockHandler) Locations(c *gin.Context) {
	pStr := c.Query("productId")
	if pStr == "" {
		h.Error(c, apperror.NewValidation("productId is required"))
		return
	}
	productID, err := id.Parse(pStr)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	rows, err := h.service.LocationsByProduct(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.StockLocationResponse, len(rows))
	for i, row := range rows {
		items[i] = dto.FromStockLocation(row)
	}

	h.OK(c, dto.StockLocationListResponse{Items: items})
}

// Availability handles GET /stock/availability/:productId
// Returns the total across locations plus a low-stock flag against the
// product's configured minimum.
func (h *StockHandler) Availability(c *gin.Context) {
	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	info, err := h.products.FindByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	total, err := h.service.TotalByProduct(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.AvailabilityResponse{
		ProductID:    productID.String(),
		Total:        total,
		MinimumStock: info.MinimumStock,
		BelowMinimum: total < info.MinimumStock,
	})
}
