package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"inventory-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	catalog service.CatalogService
	engine  service.ReservationEngine
	log     *zap.Logger
}

func NewHandler(catalog service.CatalogService, engine service.ReservationEngine, log *zap.Logger) *Handler {
	return &Handler{catalog: catalog, engine: engine, log: log}
}

// respondError переводит типизированные ошибки движка в различимые HTTP-коды.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, NewErrorResponse("UNAUTHORIZED", err.Error()))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, NewErrorResponse("FORBIDDEN", err.Error()))
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrStockNotFound),
		errors.Is(err, service.ErrReservationNotFound):
		c.JSON(http.StatusNotFound, NewErrorResponse("NOT_FOUND", err.Error()))
	case errors.Is(err, service.ErrAlreadyExists),
		errors.Is(err, service.ErrSKUAlreadyExists):
		c.JSON(http.StatusConflict, NewErrorResponse("ALREADY_EXISTS", err.Error()))
	case errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusConflict, NewErrorResponse("INSUFFICIENT_STOCK", err.Error()))
	case errors.Is(err, service.ErrIdempotencyConflict):
		c.JSON(http.StatusUnprocessableEntity, NewErrorResponse("IDEMPOTENCY_CONFLICT", err.Error()))
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusGone, NewErrorResponse("INVALID_STATE", err.Error()))
	case errors.Is(err, service.ErrContention):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse("CONTENTION", err.Error()))
	case errors.Is(err, service.ErrReservationEmpty),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrDuplicateItem):
		c.JSON(http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", err.Error()))
	case errors.Is(err, service.ErrHeldStock):
		c.JSON(http.StatusConflict, NewErrorResponse("STOCK_HELD", err.Error()))
	default:
		h.log.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse("INTERNAL", "internal error"))
	}
}

// --- catalog ---

func (h *Handler) CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", err.Error()))
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	item, err := h.catalog.CreateItem(c.Request.Context(), service.ItemInput{
		SKU:               req.SKU,
		Name:              req.Name,
		Description:       req.Description,
		CategoryID:        req.CategoryID,
		VendorID:          req.VendorID,
		UnitID:            req.UnitID,
		LowStockThreshold: req.LowStockThreshold,
		IsActive:          active,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) GetItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", "invalid item id"))
		return
	}
	item, err := h.catalog.GetItem(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) ListItems(c *gin.Context) {
	var f service.ItemListFilter
	f.Query = c.Query("q")
	if s := c.Query("category_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", "invalid category_id"))
			return
		}
		f.CategoryID = &id
	}
	if s := c.Query("vendor_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", "invalid vendor_id"))
			return
		}
		f.VendorID = &id
	}
	if s := c.Query("active"); s != "" {
		v := s == "true"
		f.OnlyActive = &v
	}
	f.Limit = intQuery(c, "limit", 20)
	f.Offset = intQuery(c, "offset", 0)

	items, total, err := h.catalog.ListItems(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ItemListResponse{Items: items, Total: total})
}

func (h *Handler) ListLowStockItems(c *gin.Context) {
	rows, err := h.catalog.ListLowStockItems(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := LowStockListResponse{Items: make([]LowStockItemResponse, 0, len(rows))}
	for _, r := range rows {
		out.Items = append(out.Items, LowStockItemResponse{
			ItemID:            r.ItemID,
			SKU:               r.SKU,
			Name:              r.Name,
			OnHand:            r.OnHand,
			Reserved:          r.Reserved,
			Available:         r.Available,
			LowStockThreshold: r.LowStockThreshold,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) UpdateItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", "invalid item id"))
		return
	}
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", err.Error()))
		return
	}
	item, err := h.catalog.UpdateItem(c.Request.Context(), id, service.ItemPatch{
		Name:              req.Name,
		Description:       req.Description,
		CategoryID:        req.CategoryID,
		VendorID:          req.VendorID,
		UnitID:            req.UnitID,
		LowStockThreshold: req.LowStockThreshold,
		IsActive:          req.IsActive,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", "invalid item id"))
		return
	}
	if _, err := h.catalog.DeleteItem(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req CreateNamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", err.Error()))
		return
	}
	cat, err := h.catalog.CreateCategory(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *Handler) ListCategories(c *gin.Context) {
	list, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateUnit(c *gin.Context) {
	var req CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", err.Error()))
		return
	}
	u, err := h.catalog.CreateUnit(c.Request.Context(), req.Name, req.Abbreviation, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) ListUnits(c *gin.Context) {
	list, err := h.catalog.ListUnits(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateVendor(c *gin.Context) {
	var req CreateNamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", err.Error()))
		return
	}
	v, err := h.catalog.CreateVendor(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) ListVendors(c *gin.Context) {
	list, err := h.catalog.ListVendors(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// --- stock ---

func (h *Handler) GetStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", "invalid item id"))
		return
	}
	info, err := h.engine.GetStock(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, StockResponse{
		ItemID:    info.Line.ItemID,
		OnHand:    info.Line.OnHand,
		Reserved:  info.Line.Reserved,
		Available: info.Line.Available(),
		Version:   info.Line.Version,
		LowStock:  info.LowStock,
		UpdatedAt: info.Line.UpdatedAt,
	})
}

func (h *Handler) InitializeStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", "invalid item id"))
		return
	}
	var req InitializeStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", err.Error()))
		return
	}
	line, err := h.engine.InitializeStock(c.Request.Context(), id, req.OnHand)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, StockResponse{
		ItemID:    line.ItemID,
		OnHand:    line.OnHand,
		Reserved:  line.Reserved,
		Available: line.Available(),
		Version:   line.Version,
		UpdatedAt: line.UpdatedAt,
	})
}

// --- reservations ---

func (h *Handler) Reserve(c *gin.Context) {
	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", err.Error()))
		return
	}
	lines := make([]service.ReserveLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, service.ReserveLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	res, err := h.engine.Reserve(c.Request.Context(), req.ReservationID, lines, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReservationResponse(res))
}

func (h *Handler) GetReservation(c *gin.Context) {
	res, err := h.engine.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(res))
}

func (h *Handler) CommitReservation(c *gin.Context) {
	if err := h.engine.Commit(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ReleaseReservation(c *gin.Context) {
	if err := h.engine.Release(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func intQuery(c *gin.Context, key string, def int) int {
	s := c.Query(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
