package handlers

import (
	"net/http"
	"strconv"

	"asset-service/internal/apperr"
	"asset-service/internal/models"

	"github.com/gin-gonic/gin"
)

// respondOK wraps data in the standard envelope.
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: data})
}

// respondCreated wraps data in the standard envelope with a 201.
func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, models.APIResponse{Success: true, Data: data})
}

// respondList wraps a page of rows plus its pagination block.
func respondList(c *gin.Context, data interface{}, page, limit, total int) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success:    true,
		Data:       data,
		Pagination: models.NewPagination(page, limit, total),
	})
}

// respondError maps the error to its HTTP status. Internal errors are not
// echoed to the caller.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	message := err.Error()
	if !apperr.IsClientError(err) {
		message = "internal server error"
	}
	c.JSON(status, models.APIResponse{Success: false, Error: message})
}

// respondBadRequest reports a malformed or invalid request body.
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Error: err.Error()})
}

// paramID parses the :id path parameter.
func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Error: "invalid id"})
		return 0, false
	}
	return id, true
}

// queryPagination parses page and limit with sane defaults and caps.
func queryPagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// queryIntPtr parses an optional positive integer query parameter.
func queryIntPtr(c *gin.Context, name string) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return nil
	}
	return &value
}

// queryStrPtr parses an optional string query parameter.
func queryStrPtr(c *gin.Context, name string) *string {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	return &raw
}
