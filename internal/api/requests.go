package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dobroplatform/dobro-max-bot/internal/db"
	"github.com/gin-gonic/gin"
)

// RequestsHandler serves the catalog REST surface the web app consumes
type RequestsHandler struct {
	db *db.DB
}

// NewRequestsHandler creates a requests handler
func NewRequestsHandler(database *db.DB) *RequestsHandler {
	return &RequestsHandler{db: database}
}

// RequestView is the JSON shape of a request
type RequestView struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Category     string  `json:"category"`
	Type         string  `json:"type"`
	Region       string  `json:"region"`
	Description  string  `json:"description"`
	Date         string  `json:"date"`
	Time         *string `json:"time,omitempty"`
	Location     *string `json:"location,omitempty"`
	Requirements *string `json:"requirements,omitempty"`
	Reward       string  `json:"reward"`
	Verified     bool    `json:"verified"`
	CreatedAt    string  `json:"created_at"`
}

func toRequestView(req *db.Request) RequestView {
	return RequestView{
		ID:           req.ID,
		Title:        req.Title,
		Category:     req.Category,
		Type:         req.Type,
		Region:       req.Region,
		Description:  req.FullDescription,
		Date:         req.Date,
		Time:         req.Time,
		Location:     req.Location,
		Requirements: req.Requirements,
		Reward:       req.Reward,
		Verified:     req.Verified,
		CreatedAt:    req.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// List returns verified requests with optional filters and pagination
func (h *RequestsHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	filter := db.RequestFilter{
		Category: c.Query("category"),
		Region:   c.Query("region"),
		Type:     c.Query("type"),
		Limit:    limit,
		Offset:   offset,
	}

	requests, err := h.db.GetRequests(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load requests"})
		return
	}

	total, err := h.db.CountRequests(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load requests"})
		return
	}

	views := make([]RequestView, 0, len(requests))
	for i := range requests {
		views = append(views, toRequestView(&requests[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": views,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// Get returns one request with its responses
func (h *RequestsHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return
	}

	req, err := h.db.GetRequest(c.Request.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load request"})
		return
	}

	responses, err := h.db.GetRequestResponses(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load responses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request":   toRequestView(req),
		"responses": len(responses),
	})
}

// RespondRequest is the body for responding to a request
type RespondRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Message string `json:"message"`
}

// Respond records a volunteer's response to a request
func (h *RequestsHandler) Respond(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return
	}

	var body RespondRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.db.GetRequest(c.Request.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load request"})
		return
	}

	resp := &db.Response{
		RequestID: id,
		UserID:    body.UserID,
		Message:   body.Message,
	}
	if err := h.db.CreateResponse(c.Request.Context(), resp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create response"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":     resp.ID,
		"status": resp.Status,
	})
}
