package http

import "github.com/gin-gonic/gin"

const sessionIDKey = "session_id"

func setSessionID(c *gin.Context, id string) {
	c.Set(sessionIDKey, id)
}

func sessionIDFrom(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
