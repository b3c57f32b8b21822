package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos_ledger/internal/analytics"
	"pos_ledger/internal/expense"
	"pos_ledger/internal/inventory"
	"pos_ledger/internal/ledger"
)

// posHandler holds the services and implements the HTTP handlers for the
// point-of-sale API.
type posHandler struct {
	sales     *ledger.Service
	products  *inventory.Store
	expenses  *expense.Service
	analytics *analytics.Aggregator
	logger    *zap.Logger
}

// NewPOSHandler creates a new handler over the given services.
func NewPOSHandler(sales *ledger.Service, products *inventory.Store, expenses *expense.Service, agg *analytics.Aggregator, logger *zap.Logger) *posHandler {
	return &posHandler{
		sales:     sales,
		products:  products,
		expenses:  expenses,
		analytics: agg,
		logger:    logger,
	}
}

// actor is the audit actor name for the request. Authentication is mocked
// upstream; the terminal forwards the operator name in a header.
func actor(ctx *gin.Context) string {
	if a := ctx.GetHeader("X-Actor"); a != "" {
		return a
	}
	return "admin"
}

func pathID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// writeError maps domain errors onto HTTP statuses.
func (h *posHandler) writeError(ctx *gin.Context, err error) {
	var stockErr *inventory.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		ctx.JSON(http.StatusConflict, gin.H{
			"error":      stockErr.Error(),
			"product_id": stockErr.ProductID,
			"shortfall":  stockErr.Shortfall(),
		})
	case errors.Is(err, inventory.ErrProductNotFound),
		errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, expense.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrConcurrentModification),
		errors.Is(err, ledger.ErrSaleSettled),
		errors.Is(err, ledger.ErrNotPending),
		errors.Is(err, ledger.ErrSaleCancelled),
		errors.Is(err, inventory.ErrProductExists):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrEmptyCart),
		errors.Is(err, ledger.ErrCustomerNotFound),
		errors.Is(err, inventory.ErrInvalidGrams),
		errors.Is(err, inventory.ErrInvalidProduct),
		errors.Is(err, inventory.ErrProductInactive),
		errors.Is(err, expense.ErrInvalidCategory),
		errors.Is(err, expense.ErrInvalidStatus):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("internal error", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type saleRequest struct {
	CustomerID *int64            `json:"customer_id"`
	Lines      []ledger.CartLine `json:"lines"`
}

// handleCreateSale handles the POST /sales endpoint.
func (h *posHandler) handleCreateSale(ctx *gin.Context) {
	var req saleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	sale, err := h.sales.CreateSale(req.CustomerID, req.Lines, actor(ctx))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, sale)
}

// handleCreateDraft handles POST /sales/draft.
func (h *posHandler) handleCreateDraft(ctx *gin.Context) {
	var req saleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	sale, err := h.sales.CreateDraft(req.CustomerID, req.Lines, actor(ctx))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, sale)
}

// handleFinalizeSale handles POST /sales/:id/finalize.
func (h *posHandler) handleFinalizeSale(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	sale, err := h.sales.FinalizeSale(id, actor(ctx))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, sale)
}

// handlePatchSale handles PATCH /sales/:id. A request carrying lines replaces
// a pending draft's cart; otherwise only the customer is reassigned, which is
// the one edit allowed on a settled sale.
func (h *posHandler) handlePatchSale(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req saleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	var (
		sale *ledger.Sale
		err  error
	)
	if req.Lines != nil {
		sale, err = h.sales.UpdateDraftLines(id, req.Lines, actor(ctx))
	} else {
		sale, err = h.sales.ReassignCustomer(id, req.CustomerID, actor(ctx))
	}
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, sale)
}

// handleCancelSale handles DELETE /sales/:id.
func (h *posHandler) handleCancelSale(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	sale, err := h.sales.CancelSale(id, actor(ctx))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, sale)
}

// handleGetSale handles GET /sales/:id.
func (h *posHandler) handleGetSale(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	sale, err := h.sales.GetSale(id)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, sale)
}

// handleListSales handles GET /sales.
func (h *posHandler) handleListSales(ctx *gin.Context) {
	sales, err := h.sales.ListSales()
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": sales})
}

// handleSaleAudit handles GET /sales/:id/audit.
func (h *posHandler) handleSaleAudit(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	entries, err := h.sales.History(id)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"entries": entries})
}

// handleCreateProduct handles POST /products.
func (h *posHandler) handleCreateProduct(ctx *gin.Context) {
	var req inventory.Product
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if req.Name == "" || req.UnitPrice <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "name and a positive unit_price are required"})
		return
	}

	p, err := h.products.AddProduct(req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, p)
}

// handleListProducts handles GET /products.
func (h *posHandler) handleListProducts(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"results": h.products.List()})
}

// handleLowStock handles GET /products/low-stock.
func (h *posHandler) handleLowStock(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"results": h.products.LowStock()})
}

// handlePatchProduct handles PATCH /products/:id.
func (h *posHandler) handlePatchProduct(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var upd inventory.ProductUpdate
	if err := ctx.ShouldBindJSON(&upd); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	p, err := h.products.Update(id, upd)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, p)
}

// handleDeleteProduct handles DELETE /products/:id. Products referenced by
// historical sales are never hard-deleted; this deactivates.
func (h *posHandler) handleDeleteProduct(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	p, err := h.products.Deactivate(id)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, p)
}

// handleCreateExpense handles POST /expenses.
func (h *posHandler) handleCreateExpense(ctx *gin.Context) {
	var req expense.CreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	e, err := h.expenses.Record(req)
	if err != nil {
		if errors.Is(err, expense.ErrInvalidCategory) || errors.Is(err, expense.ErrInvalidStatus) {
			h.writeError(ctx, err)
			return
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, e)
}

// handleListExpenses handles GET /expenses.
func (h *posHandler) handleListExpenses(ctx *gin.Context) {
	expenses, err := h.expenses.List()
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": expenses})
}

// handleCancelExpense handles DELETE /expenses/:id.
func (h *posHandler) handleCancelExpense(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	e, err := h.expenses.Cancel(id)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, e)
}

// handleMonthlyRevenue handles GET /analytics/monthly-revenue.
func (h *posHandler) handleMonthlyRevenue(ctx *gin.Context) {
	buckets, err := h.analytics.MonthlyRevenue()
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": buckets})
}

// handleTopProducts handles GET /analytics/top-products?n=.
func (h *posHandler) handleTopProducts(ctx *gin.Context) {
	n := 5
	if raw := ctx.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "n must be a non-negative integer"})
			return
		}
		n = parsed
	}

	ranked, err := h.analytics.TopProducts(n)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": ranked})
}

// handleCustomerDistribution handles GET /analytics/customer-distribution.
func (h *posHandler) handleCustomerDistribution(ctx *gin.Context) {
	mix, err := h.analytics.CustomerDistribution()
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, mix)
}

// handleExpensesByCategory handles GET /analytics/expenses-by-category.
func (h *posHandler) handleExpensesByCategory(ctx *gin.Context) {
	totals, err := h.analytics.ExpenseByCategory()
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": totals})
}
