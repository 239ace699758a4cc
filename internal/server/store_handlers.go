package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/storelane-dev/storelane/internal/models"
)

// CreateStoreRequest represents a request to create a store
type CreateStoreRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// UpdateStoreRequest represents a partial store update
type UpdateStoreRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

// @Summary List stores
// @Tags stores
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Store
// @Router /api/stores [get]
func (s *Server) listStores(c *gin.Context) {
	var stores []models.Store
	if err := s.db.Order("created_at DESC").Find(&stores).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list stores")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, stores)
}

// @Summary Create store
// @Tags stores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateStoreRequest true "Create store request"
// @Success 201 {object} models.Store
// @Failure 400 {object} map[string]interface{}
// @Router /api/stores [post]
func (s *Server) createStore(c *gin.Context) {
	var req CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store := &models.Store{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	}

	if err := s.db.Create(store).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create store")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create store"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("store_id", store.ID).
		Str("created_by", sessionData.UserID).
		Msg("Store created")

	c.JSON(http.StatusCreated, store)
}

// @Summary Get store
// @Tags stores
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Success 200 {object} models.Store
// @Failure 404 {object} map[string]interface{}
// @Router /api/stores/{id} [get]
func (s *Server) getStore(c *gin.Context) {
	var store models.Store
	if err := s.db.Where("id = ?", c.Param("id")).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find store")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, store)
}

// @Summary Update store
// @Tags stores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Param request body UpdateStoreRequest true "Update store request"
// @Success 200 {object} models.Store
// @Failure 404 {object} map[string]interface{}
// @Router /api/stores/{id} [patch]
func (s *Server) updateStore(c *gin.Context) {
	var req UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var store models.Store
	if err := s.db.Where("id = ?", c.Param("id")).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find store")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}

	if len(updates) > 0 {
		if err := s.db.Model(&store).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to update store")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update store"})
			return
		}
	}

	c.JSON(http.StatusOK, store)
}

// @Summary Delete store
// @Tags stores
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/stores/{id} [delete]
func (s *Server) deleteStore(c *gin.Context) {
	var store models.Store
	if err := s.db.Where("id = ?", c.Param("id")).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find store")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&store).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete store")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete store"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("store_id", store.ID).
		Str("deleted_by", sessionData.UserID).
		Msg("Store deleted")

	c.Status(http.StatusNoContent)
}
