package seeders

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rasmogul/greatsoko/app/models"
	"github.com/Rasmogul/greatsoko/app/repositories/memory"
	"github.com/Rasmogul/greatsoko/app/services"
	"github.com/Rasmogul/greatsoko/pkg/storage"
)

func TestRunAllIsRepeatable(t *testing.T) {
	store := memory.New()
	disk, err := storage.NewLocalDisk(t.TempDir(), "http://localhost/storage")
	require.NoError(t, err)

	deps := Deps{
		Users:    services.NewUserService(store.Users()),
		Products: services.NewProductService(store.Products(), store.Users(), storage.NewBlobs(disk, "products")),
	}
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, RunAll(ctx, deps, &out))
	require.NoError(t, RunAll(ctx, deps, &out), "second run skips existing rows")
	assert.Contains(t, out.String(), "(admin user exists)")

	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleAdmin, users[0].Role)

	products, total, err := store.Products().List(ctx, "", 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(len(catalog)), total)
	for _, p := range products {
		assert.Equal(t, users[0].ID, p.User)
	}
}
