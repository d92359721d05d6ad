package httputil

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID returns the request identifier assigned by the requestid
// middleware. When the middleware is absent or its value does not parse, a
// fresh UUIDv7 is minted so audit events always carry a usable correlation ID.
func RequestID(c *gin.Context) uuid.UUID {
	if id, err := uuid.Parse(requestid.Get(c)); err == nil {
		return id
	}
	return uuid.Must(uuid.NewV7())
}
