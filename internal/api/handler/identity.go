package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/notify-fanout/pkg/response"
)

// UserIDHeader 网关鉴权后写入的调用者ID
const UserIDHeader = "X-User-ID"

// RequireSelf 只允许调用者访问自己 :user_id 下的资源
func RequireSelf() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.GetHeader(UserIDHeader)
		if caller == "" {
			response.Unauthorized(c, "missing "+UserIDHeader)
			return
		}
		if caller != c.Param("user_id") {
			response.Forbidden(c, "cannot access another user's notifications")
			return
		}
		c.Next()
	}
}
