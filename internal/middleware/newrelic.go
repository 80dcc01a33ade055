package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicAttributes tags the nrgin transaction with the caller and request
// id so slow or failed bookings can be traced to a customer.
func NewRelicAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		txn := nrgin.Transaction(c)
		if txn == nil {
			return
		}

		if requestID := c.GetString("request_id"); requestID != "" {
			txn.AddAttribute("requestId", requestID)
		}

		if principal, ok := PrincipalFrom(c); ok {
			txn.AddAttribute("principalId", principal.ID)
			txn.AddAttribute("principalRole", string(principal.Role))
		}

		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
