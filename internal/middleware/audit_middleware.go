package middleware

import (
	"net/http"

	"dryfruit_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

const auditDiffKey = "audit_diff"

type auditDiff struct {
	resourceID string
	oldValue   interface{}
	newValue   interface{}
}

// RecordChange hands the before/after values of a mutation to Audit.
func RecordChange(c *gin.Context, resourceID string, oldValue, newValue interface{}) {
	c.Set(auditDiffKey, auditDiff{resourceID: resourceID, oldValue: oldValue, newValue: newValue})
}

// Audit logs the action once the handler has answered: a success with the
// values passed to RecordChange, or a failure with the response status.
func Audit(auditor *utils.Auditor, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resourceID := c.Param("id")
		if resourceID == "" {
			resourceID = c.Param("orderNumber")
		}

		c.Next()

		var oldValue, newValue interface{}
		if v, ok := c.Get(auditDiffKey); ok {
			diff := v.(auditDiff)
			if diff.resourceID != "" {
				resourceID = diff.resourceID
			}
			oldValue, newValue = diff.oldValue, diff.newValue
		}

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			auditor.LogAction(c, action, resource, resourceID, oldValue, newValue)
			return
		}
		auditor.LogFailedAction(c, action, resource, resourceID, http.StatusText(status))
	}
}
