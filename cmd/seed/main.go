// Command seed imports a product catalog from an XLSX sheet.
//
// The first row is a header; columns are matched by name, so order does not
// matter. Required: sku, name, price, category. Optional: description,
// stock_quantity, is_featured, rating, review_count, image_url. Rows are
// upserted by SKU, so re-running an import updates prices and stock in place.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/anufa/anufa-backend/config"
	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/internal/app/repository"
	"github.com/anufa/anufa-backend/internal/db"
	"github.com/anufa/anufa-backend/pkg/logger"
)

var requiredColumns = []string{"sku", "name", "price", "category"}

// catalogRow is one product line with its category name still unresolved.
type catalogRow struct {
	Category string
	Product  model.Product
}

type importSummary struct {
	TotalRows int
	Valid     int
	Skipped   int
	Duplicate int
}

func main() {
	sheet := flag.String("sheet", "", "sheet name (defaults to the first sheet)")
	assumeYes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Usage: go run ./cmd/seed [-sheet name] [-yes] <catalog.xlsx>")
	}
	filePath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	productRepo := repository.NewProductRepository(db.GetDB())

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	rows, summary, err := readCatalogFromXLSX(filePath, *sheet)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", summary.TotalRows)
	fmt.Printf("  Valid products: %d\n", summary.Valid)
	fmt.Printf("  Skipped rows: %d\n", summary.Skipped)
	fmt.Printf("  Duplicate SKUs: %d\n", summary.Duplicate)

	if len(rows) == 0 {
		fmt.Println("Nothing to import.")
		return
	}

	if !*assumeYes && !confirm("Do you want to proceed with the import? (yes/no): ") {
		fmt.Println("Import cancelled.")
		return
	}

	products, err := resolveCategories(productRepo, rows)
	if err != nil {
		log.Fatal("Failed to resolve categories:", err)
	}
	if err := productRepo.UpsertBySKU(products); err != nil {
		log.Fatal("Failed to upsert products:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", len(products))
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}

func readCatalogFromXLSX(filePath, sheetName string) ([]catalogRow, importSummary, error) {
	var summary importSummary

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, summary, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, summary, fmt.Errorf("no sheets found in XLSX file")
	}

	sheetRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, summary, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(sheetRows) == 0 {
		return nil, summary, fmt.Errorf("no data found in XLSX file")
	}

	columns := make(map[string]int, len(sheetRows[0]))
	for i, header := range sheetRows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, summary, fmt.Errorf("missing required column %q", name)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rows []catalogRow
	seen := make(map[string]bool)

	for _, row := range sheetRows[1:] {
		summary.TotalRows++

		sku := strings.ToUpper(cell(row, "sku"))
		name := cell(row, "name")
		category := cell(row, "category")
		price, err := decimal.NewFromString(cell(row, "price"))
		if sku == "" || name == "" || category == "" || err != nil || !price.IsPositive() {
			summary.Skipped++
			continue
		}

		// first occurrence of a SKU wins
		if seen[sku] {
			summary.Duplicate++
			summary.Skipped++
			continue
		}
		seen[sku] = true

		product := model.Product{
			SKU:         sku,
			Name:        name,
			Description: cell(row, "description"),
			Price:       price.Round(2),
			ImageURL:    cell(row, "image_url"),
			Rating:      4.0,
		}
		if v, err := strconv.Atoi(cell(row, "stock_quantity")); err == nil && v >= 0 {
			product.StockQuantity = v
		}
		if v, err := strconv.ParseBool(cell(row, "is_featured")); err == nil {
			product.IsFeatured = v
		}
		if v, err := strconv.ParseFloat(cell(row, "rating"), 64); err == nil && v >= 0 && v <= 5 {
			product.Rating = v
		}
		if v, err := strconv.Atoi(cell(row, "review_count")); err == nil && v >= 0 {
			product.ReviewCount = v
		}

		rows = append(rows, catalogRow{Category: category, Product: product})
	}

	summary.Valid = len(rows)
	return rows, summary, nil
}

// resolveCategories creates missing categories and fills in CategoryID.
func resolveCategories(repo repository.ProductRepository, rows []catalogRow) ([]model.Product, error) {
	ids := make(map[string]uint)
	products := make([]model.Product, 0, len(rows))

	for _, row := range rows {
		slug := categorySlug(row.Category)
		id, ok := ids[slug]
		if !ok {
			category := model.Category{Name: row.Category, Slug: slug}
			if err := repo.FindOrCreateCategory(&category); err != nil {
				return nil, fmt.Errorf("category %q: %w", row.Category, err)
			}
			id = category.ID
			ids[slug] = id
		}

		p := row.Product
		p.CategoryID = id
		products = append(products, p)
	}
	return products, nil
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// categorySlug maps "Home & Garden" to "home_garden".
func categorySlug(name string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(name), "_"), "_")
}
