package apperrors

import "github.com/gin-gonic/gin"

// Respond writes err as a JSON error response and aborts the chain.
func Respond(c *gin.Context, err error) {
	c.AbortWithStatusJSON(HTTPStatus(KindOf(err)), gin.H{"error": ToBody(err)})
}
