package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"marketplace-service/internal/geo"
)

// GeoHandler proxies location lookups for the listing form.
type GeoHandler struct {
	client *geo.Client
}

// NewGeoHandler builds a GeoHandler.
func NewGeoHandler(client *geo.Client) *GeoHandler {
	return &GeoHandler{client: client}
}

// Countries returns the list of country names.
func (h *GeoHandler) Countries(c *gin.Context) {
	countries, err := h.client.Countries(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("failed to fetch countries")
		c.JSON(http.StatusBadGateway, gin.H{"error": "location service unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": countries})
}

// States returns the states of a country.
func (h *GeoHandler) States(c *gin.Context) {
	country := c.Query("country")
	if country == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "country is required"})
		return
	}

	states, err := h.client.States(c.Request.Context(), country)
	if err != nil {
		log.WithError(err).Error("failed to fetch states")
		c.JSON(http.StatusBadGateway, gin.H{"error": "location service unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"states": states})
}

// Cities returns the cities of a state.
func (h *GeoHandler) Cities(c *gin.Context) {
	country := c.Query("country")
	state := c.Query("state")
	if country == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "country and state are required"})
		return
	}

	cities, err := h.client.Cities(c.Request.Context(), country, state)
	if err != nil {
		log.WithError(err).Error("failed to fetch cities")
		c.JSON(http.StatusBadGateway, gin.H{"error": "location service unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}
