package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
	"github.com/yashrajoria/storefront-backend/services/product-service/controllers"
)

// RegisterRoutes mounts catalog and upload routes under api.
func RegisterRoutes(api *gin.RouterGroup, authn *middleware.Authenticator, pc *controllers.ProductController, cc *controllers.CategoryController, uc *controllers.UploadController) {
	admin := []gin.HandlerFunc{authn.AuthRequired(), middleware.AdminOnly()}

	products := api.Group("/products")
	{
		products.GET("", authn.OptionalAuth(), pc.GetProducts)
		products.GET("/by-category", authn.OptionalAuth(), pc.GetProductsByCategory)
		products.GET("/:id", authn.OptionalAuth(), pc.GetProduct)

		products.POST("", append(admin, pc.CreateProduct)...)
		products.PUT("/:id", append(admin, pc.UpdateProduct)...)
		products.DELETE("/:id", append(admin, pc.DeleteProduct)...)
		products.PATCH("/:id/stock", append(admin, pc.AdjustStock)...)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", cc.ListCategories)
		categories.GET("/:id", cc.GetCategory)
		categories.POST("", append(admin, cc.CreateCategory)...)
		categories.PUT("/:id", append(admin, cc.UpdateCategory)...)
		categories.DELETE("/:id", append(admin, cc.DeleteCategory)...)
	}

	subCategories := api.Group("/subcategories")
	{
		subCategories.GET("", cc.ListSubCategories)
		subCategories.POST("", append(admin, cc.CreateSubCategory)...)
		subCategories.PUT("/:id", append(admin, cc.UpdateSubCategory)...)
		subCategories.DELETE("/:id", append(admin, cc.DeleteSubCategory)...)
	}

	files := api.Group("/file", admin...)
	{
		files.POST("/presign", uc.Presign)
		files.POST("/upload", uc.Upload)
	}
}
