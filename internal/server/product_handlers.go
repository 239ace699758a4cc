package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/storelane-dev/storelane/internal/models"
)

// CreateProductRequest represents a request to add a product to a store
type CreateProductRequest struct {
	Name       string `json:"name" binding:"required"`
	SKU        string `json:"sku" binding:"required"`
	PriceCents int64  `json:"priceCents" binding:"min=0"`
	Quantity   int64  `json:"quantity" binding:"min=0"`
}

// UpdateProductRequest represents a partial product update.
// Quantity is deliberately absent; stock moves only through adjustments.
type UpdateProductRequest struct {
	Name       *string `json:"name"`
	SKU        *string `json:"sku"`
	PriceCents *int64  `json:"priceCents"`
}

// AdjustQuantityRequest changes on-hand stock by a signed delta
type AdjustQuantityRequest struct {
	Delta int64 `json:"delta" binding:"required"`
}

// @Summary List products in a store
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Success 200 {array} models.Product
// @Failure 404 {object} map[string]interface{}
// @Router /api/stores/{id}/products [get]
func (s *Server) listProducts(c *gin.Context) {
	storeID := c.Param("id")

	var store models.Store
	if err := s.db.Where("id = ?", storeID).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find store")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var products []models.Product
	if err := s.db.Where("store_id = ?", storeID).Order("name ASC").Find(&products).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list products")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, products)
}

// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Param request body CreateProductRequest true "Create product request"
// @Success 201 {object} models.Product
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/stores/{id}/products [post]
func (s *Server) createProduct(c *gin.Context) {
	storeID := c.Param("id")

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var store models.Store
	if err := s.db.Where("id = ?", storeID).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find store")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// SKU must be unique within the store
	var count int64
	if err := s.db.Model(&models.Product{}).
		Where("store_id = ? AND sku = ?", storeID, req.SKU).
		Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check SKU")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "SKU already exists in this store"})
		return
	}

	product := &models.Product{
		StoreID:    storeID,
		Name:       req.Name,
		SKU:        req.SKU,
		PriceCents: req.PriceCents,
		Quantity:   req.Quantity,
	}

	if err := s.db.Create(product).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body UpdateProductRequest true "Update product request"
// @Success 200 {object} models.Product
// @Failure 404 {object} map[string]interface{}
// @Router /api/products/{id} [patch]
func (s *Server) updateProduct(c *gin.Context) {
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product models.Product
	if err := s.db.Where("id = ?", c.Param("id")).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.SKU != nil {
		updates["sku"] = *req.SKU
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price cannot be negative"})
			return
		}
		updates["price_cents"] = *req.PriceCents
	}

	if len(updates) > 0 {
		if err := s.db.Model(&product).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to update product")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
	}

	c.JSON(http.StatusOK, product)
}

// @Summary Delete product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	var product models.Product
	if err := s.db.Where("id = ?", c.Param("id")).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&product).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Adjust product quantity
// @Description Apply a signed stock delta; the on-hand count never goes below zero
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body AdjustQuantityRequest true "Adjustment request"
// @Success 200 {object} models.Product
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/products/{id}/adjust [post]
func (s *Server) adjustProductQuantity(c *gin.Context) {
	var req AdjustQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product models.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", c.Param("id")).First(&product).Error; err != nil {
			return err
		}
		newQuantity := product.Quantity + req.Delta
		if newQuantity < 0 {
			return errInsufficientStock
		}
		product.Quantity = newQuantity
		return tx.Model(&product).Update("quantity", newQuantity).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		case errors.Is(err, errInsufficientStock):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Adjustment would make quantity negative"})
		default:
			s.logger.Error().Err(err).Msg("Failed to adjust quantity")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("product_id", product.ID).
		Int64("delta", req.Delta).
		Int64("quantity", product.Quantity).
		Str("adjusted_by", sessionData.UserID).
		Msg("Product quantity adjusted")

	c.JSON(http.StatusOK, product)
}

var errInsufficientStock = errors.New("insufficient stock")
