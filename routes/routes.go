package routes

import (
	"net/http"
	"strings"

	"checkout-service/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterOrderRoutes sets up the checkout API.
func RegisterOrderRoutes(r *gin.Engine, oc *controllers.OrderController) {
	api := r.Group("/api")

	api.POST("/orders", oc.CreateOrder)
	api.POST("/orders/:orderID/capture", oc.CaptureOrder)
	api.GET("/orders/:orderID/transactions", oc.ListTransactions)
}

// RegisterHealthRoute exposes a liveness probe.
func RegisterHealthRoute(r *gin.Engine, service string) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": service})
	})
}

// RegisterStaticFiles serves the storefront from dir for any path no other
// route claimed. Unmatched /api paths stay JSON 404s.
func RegisterStaticFiles(r *gin.Engine, dir string) {
	files := http.FileServer(http.Dir(dir))
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	})
}
