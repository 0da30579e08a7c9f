package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gadconnect/gadconnect-api/internal/middleware"
	"github.com/gadconnect/gadconnect-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// pageParams reads the shared page/limit/sort/order query parameters.
func pageParams(c *gin.Context) (page, limit int, sortBy, sortOrder string) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit, c.Query("sort"), c.Query("order")
}

func boolQuery(c *gin.Context, name string) bool {
	val, err := strconv.ParseBool(c.Query(name))
	return err == nil && val
}
