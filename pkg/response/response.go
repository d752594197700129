package response

import (
	"net/http"

	"github.com/fekuna/omnipos-inventory-service/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

// Paginated is the envelope for list endpoints.
type Paginated struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func List(c *gin.Context, items interface{}, total, page, pageSize int) {
	c.JSON(http.StatusOK, Paginated{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// Error maps any error to the API error envelope. Unknown errors become 500
// with the cause kept out of the body.
func Error(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	c.JSON(appErr.Status, gin.H{"error": appErr})
}

func BindError(c *gin.Context, err error) {
	Error(c, apperrors.Validation("invalid request: %v", err))
}
