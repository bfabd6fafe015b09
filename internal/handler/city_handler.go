package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type CityHandler struct {
	cityRepo *repository.CityRepository
}

func NewCityHandler(cityRepo *repository.CityRepository) *CityHandler {
	return &CityHandler{cityRepo: cityRepo}
}

func (h *CityHandler) List(c *gin.Context) {
	var countryID uint64
	if v := c.Query("country_id"); v != "" {
		countryID, _ = strconv.ParseUint(v, 10, 64)
	}
	activeOnly := c.DefaultQuery("active", "true") == "true"
	cities, err := h.cityRepo.List(uint(countryID), activeOnly, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cities, "count": len(cities)})
}

func (h *CityHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid city id"})
		return
	}
	city, err := h.cityRepo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "city not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, city)
}

type cityRequest struct {
	Name      string `json:"name" binding:"required"`
	State     string `json:"state"`
	CountryID uint   `json:"country_id" binding:"required"`
	IsActive  *bool  `json:"is_active"`
}

func (h *CityHandler) Create(c *gin.Context) {
	var req cityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	city := &models.City{
		Name:      req.Name,
		State:     req.State,
		CountryID: req.CountryID,
		IsActive:  true,
	}
	if req.IsActive != nil {
		city.IsActive = *req.IsActive
	}
	if err := h.cityRepo.Create(city); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, city)
}

func (h *CityHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid city id"})
		return
	}
	city, err := h.cityRepo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "city not found"})
			return
		}
		respondError(c, err)
		return
	}
	var req cityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	city.Name = req.Name
	city.State = req.State
	city.CountryID = req.CountryID
	if req.IsActive != nil {
		city.IsActive = *req.IsActive
	}
	if err := h.cityRepo.Update(city); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, city)
}

func (h *CityHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid city id"})
		return
	}
	if err := h.cityRepo.Delete(uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "city deleted"})
}
