package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

type memoryImages struct {
	keys []string
	err  error
}

func (m *memoryImages) Put(_ context.Context, key, _ string, body io.ReadSeeker) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	m.keys = append(m.keys, key)
	return "https://cdn.test/" + key, nil
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Waffle with Berries", "waffle-with-berries"},
		{"  Crème Brûlée!! ", "cr-me-br-l-e"},
		{"Pie -- 2 Pack", "pie-2-pack"},
		{"***", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), tt.in)
	}
}

func TestProductService_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewProductService(s.Products, s.Categories, nil)

	cat := &models.Category{Name: "Desserts", Slug: "desserts"}
	require.NoError(t, s.Categories.Create(ctx, cat))

	p, err := svc.CreateProduct(ctx, models.ProductInput{
		CategoryID: cat.ID,
		Name:       " Chocolate Brownie ",
		Price:      650,
		Currency:   "USD",
		Stock:      5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Chocolate Brownie", p.Name)
	assert.Equal(t, "chocolate-brownie", p.Slug)
	assert.Equal(t, "usd", p.Currency)
	assert.Equal(t, "desserts", p.CategorySlug)
	assert.True(t, p.Active)

	inactive := false
	updated, err := svc.UpdateProduct(ctx, p.ID, models.ProductInput{Name: "Brownie", Price: 700, Stock: 2, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "brownie", updated.Slug)
	assert.Equal(t, int64(700), updated.Price)
	assert.Empty(t, updated.CategoryID)
	assert.False(t, updated.Active)

	_, err = svc.UpdateProduct(ctx, "00000000-0000-0000-0000-000000000000", models.ProductInput{Name: "x"})
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestProductService_Validation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewProductService(s.Products, s.Categories, nil)

	tests := []struct {
		name string
		in   models.ProductInput
	}{
		{"missing name", models.ProductInput{Price: 100}},
		{"negative price", models.ProductInput{Name: "a", Price: -1}},
		{"negative stock", models.ProductInput{Name: "a", Stock: -1}},
		{"unknown category", models.ProductInput{Name: "a", CategoryID: "00000000-0000-0000-0000-000000000000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestProductService_DuplicateSlug(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewProductService(s.Products, s.Categories, nil)

	_, err := svc.CreateProduct(ctx, models.ProductInput{Name: "Lemon Tart"})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, models.ProductInput{Name: "lemon tart"})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestProductService_UploadImage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	images := &memoryImages{}
	svc := NewProductService(s.Products, s.Categories, images)
	p := seedProduct(t, s, "Macaron", 250, 10)

	got, err := svc.UploadImage(ctx, p.ID, "image/png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/products/"+p.ID+"/main.png", got.ImageURL)
	assert.Equal(t, []string{"products/" + p.ID + "/main.png"}, images.keys)

	_, err = svc.UploadImage(ctx, p.ID, "application/pdf", strings.NewReader("pdf"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UploadImage(ctx, "00000000-0000-0000-0000-000000000000", "image/png", strings.NewReader("png"))
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	images.err = errors.New("bucket gone")
	_, err = svc.UploadImage(ctx, p.ID, "image/jpeg", strings.NewReader("jpg"))
	assert.ErrorContains(t, err, "bucket gone")

	noImages := NewProductService(s.Products, s.Categories, nil)
	_, err = noImages.UploadImage(ctx, p.ID, "image/png", strings.NewReader("png"))
	assert.ErrorIs(t, err, ErrImagesUnavailable)
}

func TestCategoryService(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewCategoryService(s.Categories)

	c, err := svc.Create(ctx, CategoryInput{Name: "Baked Goods"})
	require.NoError(t, err)
	assert.Equal(t, "baked-goods", c.Slug)

	_, err = svc.Create(ctx, CategoryInput{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, CategoryInput{Name: "Other", Slug: "Baked Goods"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	updated, err := svc.Update(ctx, c.ID, CategoryInput{Name: "Bakery", Slug: "bakery"})
	require.NoError(t, err)
	assert.Equal(t, "bakery", updated.Slug)

	got, err := svc.GetBySlug(ctx, "bakery")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	require.NoError(t, svc.Delete(ctx, c.ID))
	_, err = svc.GetBySlug(ctx, "bakery")
	assert.ErrorIs(t, err, repository.ErrCategoryNotFound)
}

func TestReviewService(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	svc := NewReviewService(s.Reviews, s.Products)
	u := seedUser(t, s, "reviewer@example.com")
	p := seedProduct(t, s, "Eclair", 300, 4)

	for _, rating := range []int{0, 6} {
		_, err := svc.Add(ctx, u.ID, p.ID, ReviewInput{Rating: rating})
		assert.ErrorIs(t, err, ErrInvalidRating)
	}

	rv, err := svc.Add(ctx, u.ID, p.ID, ReviewInput{Rating: 4, Comment: " tasty "})
	require.NoError(t, err)
	assert.Equal(t, "tasty", rv.Comment)

	_, err = svc.Add(ctx, u.ID, p.ID, ReviewInput{Rating: 5})
	assert.ErrorIs(t, err, repository.ErrConflict)

	list, err := svc.List(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 4, list[0].Rating)

	_, err = svc.List(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}
