package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos_ledger/internal/analytics"
	"pos_ledger/internal/expense"
	"pos_ledger/internal/inventory"
	"pos_ledger/internal/ledger"
)

// Dependencies carries the constructed services the routes are bound to.
// Construction happens in main (or the test harness), never here, so there is
// no ambient state behind the router.
type Dependencies struct {
	Sales     *ledger.Service
	Inventory *inventory.Store
	Expenses  *expense.Service
	Analytics *analytics.Aggregator
	Logger    *zap.Logger
}

// InitRoutes binds every endpoint of the point-of-sale API to the given Gin
// engine.
func InitRoutes(e *gin.Engine, deps Dependencies) {
	h := NewPOSHandler(deps.Sales, deps.Inventory, deps.Expenses, deps.Analytics, deps.Logger)

	e.POST("/sales", h.handleCreateSale)
	e.POST("/sales/draft", h.handleCreateDraft)
	e.POST("/sales/:id/finalize", h.handleFinalizeSale)
	e.PATCH("/sales/:id", h.handlePatchSale)
	e.DELETE("/sales/:id", h.handleCancelSale)
	e.GET("/sales", h.handleListSales)
	e.GET("/sales/:id", h.handleGetSale)
	e.GET("/sales/:id/audit", h.handleSaleAudit)

	e.POST("/products", h.handleCreateProduct)
	e.GET("/products", h.handleListProducts)
	e.GET("/products/low-stock", h.handleLowStock)
	e.PATCH("/products/:id", h.handlePatchProduct)
	e.DELETE("/products/:id", h.handleDeleteProduct)

	e.POST("/expenses", h.handleCreateExpense)
	e.GET("/expenses", h.handleListExpenses)
	e.DELETE("/expenses/:id", h.handleCancelExpense)

	e.GET("/analytics/monthly-revenue", h.handleMonthlyRevenue)
	e.GET("/analytics/top-products", h.handleTopProducts)
	e.GET("/analytics/customer-distribution", h.handleCustomerDistribution)
	e.GET("/analytics/expenses-by-category", h.handleExpensesByCategory)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
