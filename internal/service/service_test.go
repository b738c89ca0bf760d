package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	ctx := context.Background()
	s, err := repository.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedUser(t *testing.T, s *repository.Store, email string) *models.Profile {
	t.Helper()
	p := &models.Profile{Email: email, FullName: "Jane Doe", PasswordHash: "x"}
	require.NoError(t, s.Profiles.Create(context.Background(), p))
	return p
}

func seedProduct(t *testing.T, s *repository.Store, name string, price int64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:              name,
		Slug:              slugify(name),
		Price:             price,
		Currency:          "usd",
		Stock:             stock,
		Active:            true,
		ProviderProductID: "polar-" + slugify(name),
	}
	require.NoError(t, s.Products.Create(context.Background(), p))
	return p
}
