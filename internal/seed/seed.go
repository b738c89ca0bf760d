// Package seed loads a starter catalog from YAML into the database.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

// Catalog is the seed file layout.
type Catalog struct {
	Categories []Category `yaml:"categories"`
	Products   []Product  `yaml:"products"`
}

type Category struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

// Product references its category by slug. Price is in minor units.
type Product struct {
	Name              string `yaml:"name"`
	Slug              string `yaml:"slug"`
	Category          string `yaml:"category"`
	Description       string `yaml:"description"`
	Price             int64  `yaml:"price"`
	Currency          string `yaml:"currency"`
	Stock             int    `yaml:"stock"`
	ImageURL          string `yaml:"image_url"`
	ProviderProductID string `yaml:"provider_product_id"`
}

// Result counts what Apply inserted and skipped.
type Result struct {
	CategoriesCreated int
	ProductsCreated   int
	Skipped           int
}

// LoadFile reads and decodes a catalog file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a catalog, rejecting unknown keys so typos fail loudly.
func Decode(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for i, p := range c.Products {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("product %d: name is required", i)
		}
		if p.Price < 0 || p.Stock < 0 {
			return nil, fmt.Errorf("product %q: price and stock must not be negative", p.Name)
		}
	}
	return &c, nil
}

// Apply inserts the catalog in one transaction. Rows whose slug already
// exists are left untouched, so seeding twice is a no-op.
func Apply(ctx context.Context, store *repository.Store, c *Catalog, logger *slog.Logger) (Result, error) {
	var res Result
	err := store.InTx(ctx, func(r repository.Repos) error {
		res = Result{}
		categoryIDs := make(map[string]string)

		for _, in := range c.Categories {
			slug := slugOr(in.Slug, in.Name)
			existing, err := r.Categories.GetBySlug(ctx, slug)
			if err == nil {
				categoryIDs[slug] = existing.ID
				res.Skipped++
				continue
			}
			if !errors.Is(err, repository.ErrCategoryNotFound) {
				return err
			}

			cat := &models.Category{Name: in.Name, Slug: slug, Description: in.Description}
			if err := r.Categories.Create(ctx, cat); err != nil {
				return fmt.Errorf("category %q: %w", slug, err)
			}
			categoryIDs[slug] = cat.ID
			res.CategoriesCreated++
		}

		for _, in := range c.Products {
			slug := slugOr(in.Slug, in.Name)
			if _, err := r.Products.GetBySlug(ctx, slug); err == nil {
				res.Skipped++
				continue
			} else if !errors.Is(err, repository.ErrProductNotFound) {
				return err
			}

			categoryID, err := resolveCategory(ctx, r, categoryIDs, in.Category)
			if err != nil {
				return fmt.Errorf("product %q: %w", slug, err)
			}

			currency := strings.ToLower(in.Currency)
			if currency == "" {
				currency = "usd"
			}
			p := &models.Product{
				CategoryID:        categoryID,
				Name:              in.Name,
				Slug:              slug,
				Description:       in.Description,
				Price:             in.Price,
				Currency:          currency,
				Stock:             in.Stock,
				ImageURL:          in.ImageURL,
				ProviderProductID: in.ProviderProductID,
				Active:            true,
			}
			if err := r.Products.Create(ctx, p); err != nil {
				return fmt.Errorf("product %q: %w", slug, err)
			}
			res.ProductsCreated++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	logger.Info("catalog seeded",
		"categories_created", res.CategoriesCreated,
		"products_created", res.ProductsCreated,
		"skipped", res.Skipped,
	)
	return res, nil
}

func resolveCategory(ctx context.Context, r repository.Repos, known map[string]string, slug string) (string, error) {
	if slug == "" {
		return "", nil
	}
	if id, ok := known[slug]; ok {
		return id, nil
	}
	c, err := r.Categories.GetBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	known[slug] = c.ID
	return c.ID, nil
}

func slugOr(slug, name string) string {
	if s := strings.TrimSpace(slug); s != "" {
		return s
	}
	var b strings.Builder
	for _, f := range strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if b.Len() > 0 {
			b.WriteByte('-')
		}
		b.WriteString(f)
	}
	return b.String()
}
