package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/streamkart/storefront/internal/domain"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "../../migrations",
	}

	repo, err := NewRepository(creds, zerolog.Nop())
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func TestLoad_CreatesCartLazily(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	cart, err := repo.Load(ctx, "user-123")
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Equal(t, "user-123", cart.UserID)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Discount.IsZero())

	// Second load returns the same row, not a new one.
	again, err := repo.Load(ctx, "user-123")
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestLoad_ConcurrentFirstAccessYieldsOneCart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	const workers = 8
	carts := make([]*domain.Cart, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := repo.Load(ctx, "racer")
			require.NoError(t, err)
			carts[i] = c
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Equal(t, carts[0].ID, carts[i].ID,
			"every loader must converge on the same cart row")
	}
}

func TestSave_RoundTripsItemsAndDiscount(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	cart, err := repo.Load(ctx, "user-123")
	require.NoError(t, err)

	cart.Items = []domain.CartItem{
		{
			PlanID:      "netflix-tier-1",
			ServiceName: "Netflix",
			PlanLabel:   "Premium — 3 months",
			UnitPrice:   decimal.NewFromInt(2800),
			Quantity:    2,
		},
		{
			PlanID:      "spotify-tier-2",
			ServiceName: "Spotify",
			PlanLabel:   "Duo — 6 months",
			UnitPrice:   decimal.NewFromInt(1500),
			Quantity:    1,
		},
	}
	cart.Discount = decimal.NewFromInt(560)
	cart.DiscountCode = "SAVE10"
	cart.Subtotal = decimal.NewFromInt(7100)
	cart.Total = decimal.NewFromInt(6540)

	require.NoError(t, repo.Save(ctx, cart))

	loaded, err := repo.Load(ctx, "user-123")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "SAVE10", loaded.DiscountCode)
	assert.True(t, loaded.Discount.Equal(decimal.NewFromInt(560)))
	assert.True(t, loaded.Subtotal.Equal(decimal.NewFromInt(7100)))
	assert.True(t, loaded.Total.Equal(decimal.NewFromInt(6540)))

	byPlan := map[string]domain.CartItem{}
	for _, item := range loaded.Items {
		byPlan[item.PlanID] = item
	}
	assert.Equal(t, 2, byPlan["netflix-tier-1"].Quantity)
	assert.True(t, byPlan["netflix-tier-1"].UnitPrice.Equal(decimal.NewFromInt(2800)))
	assert.Equal(t, "Spotify", byPlan["spotify-tier-2"].ServiceName)
}

func TestSave_RemovedItemsDisappear(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	cart, err := repo.Load(ctx, "user-123")
	require.NoError(t, err)
	cart.Items = []domain.CartItem{
		{PlanID: "netflix-tier-1", ServiceName: "Netflix", PlanLabel: "Premium", UnitPrice: decimal.NewFromInt(2800), Quantity: 1},
	}
	require.NoError(t, repo.Save(ctx, cart))

	cart.Items = nil
	require.NoError(t, repo.Save(ctx, cart))

	loaded, err := repo.Load(ctx, "user-123")
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
}

func TestDelete_DropsCartAndItems(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	cart, err := repo.Load(ctx, "user-123")
	require.NoError(t, err)
	cart.Items = []domain.CartItem{
		{PlanID: "netflix-tier-1", ServiceName: "Netflix", PlanLabel: "Premium", UnitPrice: decimal.NewFromInt(2800), Quantity: 1},
	}
	require.NoError(t, repo.Save(ctx, cart))

	require.NoError(t, repo.Delete(ctx, "user-123"))

	// Deleting again is a no-op.
	require.NoError(t, repo.Delete(ctx, "user-123"))

	recreated, err := repo.Load(ctx, "user-123")
	require.NoError(t, err)
	assert.NotEqual(t, cart.ID, recreated.ID)
	assert.Empty(t, recreated.Items)
}
