package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dobroplatform/dobro-max-bot/internal/db"
	"github.com/gin-gonic/gin"
)

// OrganizationsHandler serves organization registration and verification
type OrganizationsHandler struct {
	db *db.DB
}

// NewOrganizationsHandler creates an organizations handler
func NewOrganizationsHandler(database *db.DB) *OrganizationsHandler {
	return &OrganizationsHandler{db: database}
}

// RegisterRequest is the body for registering an organization
type RegisterRequest struct {
	OwnerID string `json:"owner_id" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Region  string `json:"region"`
}

// Register creates an organization for an owner; one per owner
func (h *OrganizationsHandler) Register(c *gin.Context) {
	var body RegisterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	org := &db.Organization{
		OwnerID: body.OwnerID,
		Name:    body.Name,
		Region:  body.Region,
	}
	if err := h.db.CreateOrganization(c.Request.Context(), org); err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Owner already has an organization"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register organization"})
		return
	}

	c.JSON(http.StatusCreated, orgView(org))
}

// Get returns one organization
func (h *OrganizationsHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid organization id"})
		return
	}

	org, err := h.db.GetOrganization(c.Request.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load organization"})
		return
	}

	c.JSON(http.StatusOK, orgView(org))
}

// Verify marks an organization verified; the owner's pending requests
// become visible in the catalog in the same transaction. Admin only.
func (h *OrganizationsHandler) Verify(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid organization id"})
		return
	}

	if err := h.db.VerifyOrganization(c.Request.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify organization"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"verified": true})
}

func orgView(org *db.Organization) gin.H {
	return gin.H{
		"id":       org.ID,
		"owner_id": org.OwnerID,
		"name":     org.Name,
		"region":   org.Region,
		"verified": org.Verified,
	}
}
