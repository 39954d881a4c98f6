package router

import (
	"github.com/erp/catalogsync/internal/interfaces/http/handler"
	"github.com/erp/catalogsync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CatalogImportPrefix is the mount point of the catalog import API below /api/<version>
const CatalogImportPrefix = "/catalog-import"

// multipartOverhead is allowed on top of the file size limit for form framing
const multipartOverhead = 1 << 20

// Handlers groups the handlers mounted by CatalogImportRoutes
type Handlers struct {
	Import      *handler.ImportHandler
	Erp         *handler.ErpHandler
	Product     *handler.ProductHandler
	MaxFileSize int64
}

// CatalogImportRoutes builds the catalog import API group
func CatalogImportRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("catalog-import", CatalogImportPrefix)

	uploadLimit := []gin.HandlerFunc{}
	if h.MaxFileSize > 0 {
		uploadLimit = append(uploadLimit, middleware.BodyLimit(h.MaxFileSize+multipartOverhead))
	}
	g.POST("/uploads", append(uploadLimit, h.Import.Upload)...)
	g.POST("/imports/:id/execute", h.Import.Execute)
	g.GET("/imports", h.Import.History)
	g.GET("/imports/:id", h.Import.Get)

	erp := g.Group("erp", "/erp")
	erp.GET("/types", h.Erp.Types)
	erp.GET("/connections", h.Erp.ListConnections)
	erp.POST("/connections", h.Erp.CreateConnection)
	erp.GET("/connections/:id", h.Erp.GetConnection)
	erp.PUT("/connections/:id", h.Erp.UpdateConnection)
	erp.DELETE("/connections/:id", h.Erp.DeleteConnection)
	erp.POST("/test", h.Erp.TestConnection)
	erp.POST("/sync", h.Erp.Sync)

	products := g.Group("products", "/products")
	products.GET("", h.Product.List)
	products.GET("/:sku", h.Product.GetBySKU)

	return g
}

// RegisterSystemRoutes mounts the unversioned health endpoints
func RegisterSystemRoutes(engine *gin.Engine, h *handler.SystemHandler) {
	engine.GET("/health", h.Health)
	engine.GET("/ping", h.Ping)
}
