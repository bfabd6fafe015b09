package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"storefront/internal/models"
	"storefront/internal/repository"
)

type CountryHandler struct {
	countryRepo *repository.CountryRepository
}

func NewCountryHandler(countryRepo *repository.CountryRepository) *CountryHandler {
	return &CountryHandler{countryRepo: countryRepo}
}

func (h *CountryHandler) List(c *gin.Context) {
	activeOnly := c.DefaultQuery("active", "true") == "true"
	countries, err := h.countryRepo.List(activeOnly, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": countries, "count": len(countries)})
}

func (h *CountryHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid country id"})
		return
	}
	country, err := h.countryRepo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "country not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, country)
}

type countryRequest struct {
	Name      string `json:"name" binding:"required"`
	Code      string `json:"code" binding:"required,len=2"`
	PhoneCode string `json:"phone_code"`
	Currency  string `json:"currency"`
	IsActive  *bool  `json:"is_active"`
}

func (h *CountryHandler) Create(c *gin.Context) {
	var req countryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	country := &models.Country{
		Name:      req.Name,
		Code:      strings.ToUpper(req.Code),
		PhoneCode: req.PhoneCode,
		Currency:  strings.ToUpper(req.Currency),
		IsActive:  true,
	}
	if req.IsActive != nil {
		country.IsActive = *req.IsActive
	}
	if err := h.countryRepo.Create(country); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, country)
}

func (h *CountryHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid country id"})
		return
	}
	country, err := h.countryRepo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "country not found"})
			return
		}
		respondError(c, err)
		return
	}
	var req countryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	country.Name = req.Name
	country.Code = strings.ToUpper(req.Code)
	country.PhoneCode = req.PhoneCode
	country.Currency = strings.ToUpper(req.Currency)
	if req.IsActive != nil {
		country.IsActive = *req.IsActive
	}
	if err := h.countryRepo.Update(country); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, country)
}

func (h *CountryHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid country id"})
		return
	}
	if err := h.countryRepo.Delete(uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "country deleted"})
}
