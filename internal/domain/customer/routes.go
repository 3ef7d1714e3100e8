package customer

import "github.com/gin-gonic/gin"

// RegisterRoutes wires the customer endpoints. Reads and registration are
// public; mutations and the image upload require a bearer token.
func RegisterRoutes(public, protected *gin.RouterGroup, h *Handler, uploadLimit gin.HandlerFunc) {
	customers := public.Group("/customers")
	{
		customers.GET("", h.List)
		customers.GET("/:id", h.Get)
		customers.POST("", h.Register)
		customers.GET("/:id/profile-image", h.GetProfileImage)
	}

	guarded := protected.Group("/customers")
	{
		guarded.PUT("/:id", h.Update)
		guarded.DELETE("/:id", h.Delete)
		guarded.POST("/:id/profile-image", uploadLimit, h.UploadProfileImage)
	}
}
