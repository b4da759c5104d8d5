package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"

	"github.com/yemyatmin/shop-assistant/internal/config"
	"github.com/yemyatmin/shop-assistant/internal/core/domain"
	"github.com/yemyatmin/shop-assistant/internal/infrastructure/repository/postgres"
	"github.com/yemyatmin/shop-assistant/internal/observability/logging"
)

// Expected sheet layout, first row is the header:
// name | name_mm | description | description_mm | category | brand | price | stock_quantity
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("seed", cfg.LogLevel))

	filePath := flag.String("file", "products.xlsx", "path to the product spreadsheet")
	sheet := flag.String("sheet", "Sheet1", "sheet name to import")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	repo := postgres.NewProductRepository(db, cfg.EmbeddingDim)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	book, err := excelize.OpenFile(*filePath)
	if err != nil {
		log.Fatalf("open spreadsheet: %v", err)
	}
	defer book.Close()

	rows, err := book.GetRows(*sheet)
	if err != nil {
		log.Fatalf("read sheet %q: %v", *sheet, err)
	}
	if len(rows) < 2 {
		log.Fatalf("sheet %q has no data rows", *sheet)
	}

	inserted := 0
	for i, row := range rows[1:] {
		item := domain.CatalogItem{
			Name:          cell(row, 0),
			NameMM:        cell(row, 1),
			Description:   cell(row, 2),
			DescriptionMM: cell(row, 3),
			Category:      cell(row, 4),
			Brand:         cell(row, 5),
			Price:         cell(row, 6),
		}
		if item.Name == "" {
			slog.Warn("row_skipped", "row", i+2, "reason", "empty name")
			continue
		}
		if item.Price == "" {
			item.Price = "0"
		}
		if qty, err := strconv.Atoi(cell(row, 7)); err == nil {
			item.StockQuantity = qty
		}

		if _, err := repo.InsertProduct(ctx, item); err != nil {
			log.Fatalf("insert row %d: %v", i+2, err)
		}
		inserted++
	}

	slog.Info("seed_finished", "inserted", inserted)
	slog.Info("seed_hint", "next", "POST /admin/backfill to embed the new rows")
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
