package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pos_ledger/api"
	"pos_ledger/internal/analytics"
	"pos_ledger/internal/customer"
	"pos_ledger/internal/expense"
	"pos_ledger/internal/inventory"
	"pos_ledger/internal/ledger"
	"pos_ledger/internal/sqlitestore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("warning: .env file not found")
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Storage selection: POS_DB_PATH set means sqlite-backed, otherwise
	// everything lives in memory.
	var (
		saleStorage    ledger.Storage
		auditLog       ledger.AuditLog
		expenseStorage expense.Storage
		catalog        inventory.Catalog
	)
	if path := os.Getenv("POS_DB_PATH"); path != "" {
		db, err := sqlitestore.Open(path)
		if err != nil {
			logger.Fatal("failed to open database", zap.String("path", path), zap.Error(err))
		}
		defer db.Close()
		saleStorage = db.Sales()
		auditLog = db.Audit()
		expenseStorage = db.Expenses()
		catalog = db.Catalog()
		logger.Info("using sqlite storage", zap.String("path", path))
	} else {
		saleStorage = ledger.NewLocalStorage()
		auditLog = ledger.NewMemoryAuditLog()
		expenseStorage = expense.NewLocalStorage()
	}

	inventoryStore := inventory.NewStore(catalog, logger)
	if err := inventoryStore.Load(); err != nil {
		logger.Fatal("failed to load inventory", zap.Error(err))
	}

	// The accounts service is optional; without it any customer id is
	// accepted.
	var customers ledger.CustomerDirectory
	if url := os.Getenv("CUSTOMER_API_URL"); url != "" {
		client := customer.NewClient(url, logger)
		defer client.Close()
		customers = client
	}

	salesService := ledger.NewService(saleStorage, inventoryStore, auditLog, customers, logger)
	expenseService := expense.NewService(expenseStorage, logger)
	aggregator := analytics.NewAggregator(saleStorage, expenseStorage, inventoryStore)

	r := gin.Default()
	api.InitRoutes(r, api.Dependencies{
		Sales:     salesService,
		Inventory: inventoryStore,
		Expenses:  expenseService,
		Analytics: aggregator,
		Logger:    logger,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}
	if err := r.Run(":" + port); err != nil {
		panic(fmt.Errorf("error trying to start server: %v", err))
	}
}
