// Package response writes the JSON error bodies shared by all handlers.
package response

import (
	"log"
	"strconv"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/store"

	"github.com/gin-gonic/gin"
)

// Error maps err to its status and writes {"error": msg} plus any extra
// fields. Causes of upstream and internal failures are logged, never sent.
func Error(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal(err)
	}
	switch e.Kind {
	case apperr.KindInternal:
		log.Printf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	case apperr.KindUpstream:
		log.Printf("⚠️ upstream failure on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	body := gin.H{"error": e.Message}
	for k, v := range e.Fields {
		body[k] = v
	}
	c.AbortWithStatusJSON(e.Status(), body)
}

// Invalid answers a body that failed to bind.
func Invalid(c *gin.Context, err error) {
	Error(c, apperr.Validation("Invalid request: "+err.Error()))
}

// Page reads ?page= and ?limit=, leaving bounds to store.Page.
func Page(c *gin.Context) store.Page {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return store.Page{Page: page, Limit: limit}.Normalize()
}
