package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"koperasi-storefront/internal/domain"

	"github.com/google/uuid"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// ImageUploader stores an image and returns its object reference.
type ImageUploader interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
}

// CSVImporter reads a catalog CSV and inserts or updates products. Expected
// headers: id, name, description, price, category, available, image. The
// image column names a file inside images, relative to the CSV.
type CSVImporter struct {
	reader   *csv.Reader
	products ProductWriter
	uploader ImageUploader
	images   fs.FS
}

func NewCSVImporter(r io.Reader, repo ProductWriter, uploader ImageUploader, images fs.FS) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:   csvr,
		products: repo,
		uploader: uploader,
		images:   images,
	}
}

type csvRow struct {
	line      int
	ID        string
	Name      string
	Desc      string
	Price     int64
	Category  string
	Available bool
	Image     string
}

// Run parses every row and upserts it. It stops at the first invalid row and
// reports how many products were written before it.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"name", "price", "category"} {
		if _, ok := index[required]; !ok {
			return 0, fmt.Errorf("missing %q column", required)
		}
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row, err := parseRow(record, index, line)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}
		if err := i.save(ctx, row); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	category, err := domain.ParseCategory(row.Category)
	if err != nil {
		return fmt.Errorf("row %d: %w", row.line, err)
	}
	p := domain.Product{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Desc,
		Price:       row.Price,
		Category:    category,
		IsAvailable: row.Available,
	}

	if row.Image != "" {
		if i.uploader == nil || i.images == nil {
			return fmt.Errorf("row %d: image %q given but no image source configured", row.line, row.Image)
		}
		f, err := i.images.Open(row.Image)
		if err != nil {
			return fmt.Errorf("row %d: open image: %w", row.line, err)
		}
		ref, err := i.uploader.Upload(ctx, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("row %d: upload image %q: %w", row.line, row.Image, err)
		}
		p.ImageRef = ref
	}

	if _, err := i.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Name, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) (*csvRow, error) {
	row := &csvRow{
		line:      line,
		ID:        pick(record, index, "id"),
		Name:      pick(record, index, "name"),
		Desc:      pick(record, index, "description"),
		Category:  pick(record, index, "category"),
		Image:     pick(record, index, "image"),
		Available: true,
	}
	priceStr := pick(record, index, "price")
	if row.Name == "" && priceStr == "" && row.Category == "" {
		return nil, nil
	}
	if row.Name == "" {
		return nil, fmt.Errorf("row %d: name is required", line)
	}
	if row.ID != "" {
		if _, err := uuid.Parse(row.ID); err != nil {
			return nil, fmt.Errorf("row %d: invalid id %q", line, row.ID)
		}
	}
	price, err := strconv.ParseInt(priceStr, 10, 64)
	if err != nil || price <= 0 {
		return nil, fmt.Errorf("row %d: price must be a positive whole number, got %q", line, priceStr)
	}
	row.Price = price
	if v := pick(record, index, "available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: available must be true or false, got %q", line, v)
		}
		row.Available = b
	}
	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
