package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	DeviceCookie = "device_id"
	deviceMaxAge = 400 * 24 * 60 * 60
)

// Device makes sure every request carries a device id, issuing a cookie on
// first contact. The id is stored under "device_id".
func Device() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(DeviceCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(DeviceCookie, id, deviceMaxAge, "/", "", c.Request.TLS != nil, true)
		}
		c.Set("device_id", id)
		c.Next()
	}
}
