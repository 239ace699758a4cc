package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelane-dev/storelane/internal/models"
)

func createTestStore(t *testing.T, srv *Server, name string) *models.Store {
	t.Helper()
	store := &models.Store{Name: name, Address: "1 Main St", Phone: "555-0100"}
	require.NoError(t, srv.db.Create(store).Error)
	return store
}

func createTestProduct(t *testing.T, srv *Server, storeID, sku string, quantity int64) *models.Product {
	t.Helper()
	product := &models.Product{
		StoreID:    storeID,
		Name:       "Widget",
		SKU:        sku,
		PriceCents: 1299,
		Quantity:   quantity,
	}
	require.NoError(t, srv.db.Create(product).Error)
	return product
}

func TestCreateProduct(t *testing.T) {
	srv, _ := newTestServer(t)
	token := loginTestUser(t, srv, "owner@example.com", "Password1")
	store := createTestStore(t, srv, "Downtown")

	t.Run("creates in an existing store", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodPost, "/api/stores/"+store.ID+"/products", CreateProductRequest{
			Name:       "Widget",
			SKU:        "WID-1",
			PriceCents: 1299,
			Quantity:   10,
		}, token)

		require.Equal(t, http.StatusCreated, w.Code)

		var product models.Product
		decodeJSON(t, w, &product)
		assert.Equal(t, store.ID, product.StoreID)
		assert.Equal(t, int64(10), product.Quantity)
	})

	t.Run("duplicate SKU in the same store conflicts", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodPost, "/api/stores/"+store.ID+"/products", CreateProductRequest{
			Name: "Widget Again",
			SKU:  "WID-1",
		}, token)

		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "SKU already exists in this store", errorMessage(t, w))
	})

	t.Run("same SKU in another store is fine", func(t *testing.T) {
		other := createTestStore(t, srv, "Uptown")
		w := doRequest(t, srv, http.MethodPost, "/api/stores/"+other.ID+"/products", CreateProductRequest{
			Name: "Widget",
			SKU:  "WID-1",
		}, token)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("unknown store is not found", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodPost, "/api/stores/missing/products", CreateProductRequest{
			Name: "Widget",
			SKU:  "WID-2",
		}, token)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdjustProductQuantity(t *testing.T) {
	srv, _ := newTestServer(t)
	token := loginTestUser(t, srv, "owner@example.com", "Password1")
	store := createTestStore(t, srv, "Downtown")
	product := createTestProduct(t, srv, store.ID, "WID-1", 10)

	t.Run("applies a negative delta", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodPost, "/api/products/"+product.ID+"/adjust", AdjustQuantityRequest{
			Delta: -4,
		}, token)

		require.Equal(t, http.StatusOK, w.Code)

		var updated models.Product
		decodeJSON(t, w, &updated)
		assert.Equal(t, int64(6), updated.Quantity)
	})

	t.Run("rejects a delta below zero stock", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodPost, "/api/products/"+product.ID+"/adjust", AdjustQuantityRequest{
			Delta: -100,
		}, token)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Adjustment would make quantity negative", errorMessage(t, w))

		// Quantity is untouched after the rejected adjustment
		var current models.Product
		require.NoError(t, srv.db.Where("id = ?", product.ID).First(&current).Error)
		assert.Equal(t, int64(6), current.Quantity)
	})

	t.Run("unknown product is not found", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodPost, "/api/products/missing/adjust", AdjustQuantityRequest{
			Delta: 1,
		}, token)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStoreCRUD(t *testing.T) {
	srv, _ := newTestServer(t)
	token := loginTestUser(t, srv, "owner@example.com", "Password1")

	t.Run("requires authentication", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodGet, "/api/stores", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	w := doRequest(t, srv, http.MethodPost, "/api/stores", CreateStoreRequest{
		Name:    "Downtown",
		Address: "1 Main St",
		Phone:   "555-0100",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code)

	var store models.Store
	decodeJSON(t, w, &store)
	require.NotEmpty(t, store.ID)

	t.Run("partial update touches only provided fields", func(t *testing.T) {
		newName := "Downtown Flagship"
		w := doRequest(t, srv, http.MethodPatch, "/api/stores/"+store.ID, UpdateStoreRequest{
			Name: &newName,
		}, token)

		require.Equal(t, http.StatusOK, w.Code)

		var updated models.Store
		require.NoError(t, srv.db.Where("id = ?", store.ID).First(&updated).Error)
		assert.Equal(t, "Downtown Flagship", updated.Name)
		assert.Equal(t, "1 Main St", updated.Address)
	})

	t.Run("delete removes the store", func(t *testing.T) {
		w := doRequest(t, srv, http.MethodDelete, "/api/stores/"+store.ID, nil, token)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = doRequest(t, srv, http.MethodGet, "/api/stores/"+store.ID, nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
