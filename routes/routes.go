package routes

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/flawlessmakeup/backend/controllers"
	"github.com/flawlessmakeup/backend/middleware"
)

type Controllers struct {
	Products   *controllers.ProductController
	Categories *controllers.CategoryController
	Cart       *controllers.CartController
	Orders     *controllers.OrderController
	Admin      *controllers.AdminController
}

// Register wires every route group onto the engine. jwtSecret drives both the
// required and the optional auth middleware.
func Register(r *gin.Engine, c Controllers, jwtSecret string) {
	r.Use(middleware.RateLimitMiddleware(rate.Limit(20), 40))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public storefront routes
	products := r.Group("/products")
	{
		products.GET("", c.Products.ListProducts)
		products.GET("/:id", c.Products.GetProduct)
		products.GET("/:id/shades", c.Products.ListShades)
	}

	categories := r.Group("/categories")
	{
		categories.GET("", c.Categories.ListCategories)
		categories.GET("/:id", c.Categories.GetCategory)
	}

	// Protected cart routes (require authentication)
	cart := r.Group("/cart")
	cart.Use(middleware.AuthMiddleware(jwtSecret))
	{
		cart.GET("", c.Cart.GetCart)
		cart.GET("/count", c.Cart.ItemCount)
		cart.POST("/items", c.Cart.AddItem)
		cart.PUT("/items", c.Cart.UpdateItem)
		cart.DELETE("/items/:productId", c.Cart.RemoveItem)
		cart.DELETE("/clear", c.Cart.Clear)
	}

	// Checkout accepts both guests and registered shoppers, so it sits behind
	// optional auth. Order history stays behind required auth.
	orders := r.Group("/orders")
	{
		orders.POST("", middleware.OptionalAuthMiddleware(jwtSecret), c.Orders.CreateOrderFromCart)

		authed := orders.Group("")
		authed.Use(middleware.AuthMiddleware(jwtSecret))
		{
			authed.GET("", c.Orders.GetOrders)
			authed.GET("/:id", c.Orders.GetOrderByID)
			authed.GET("/number/:orderNumber", c.Orders.GetOrderByNumber)
		}
	}

	// Admin routes (require the admin role)
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtSecret), middleware.AdminOnly())
	{
		admin.GET("/dashboard", c.Admin.Dashboard)
		admin.GET("/analytics/products", c.Admin.Analytics)

		admin.GET("/orders", c.Orders.GetAllOrders)
		admin.PUT("/orders/:id/status", c.Orders.UpdateOrderStatus)

		admin.GET("/products", c.Products.ListAllProducts)
		admin.POST("/products", c.Products.CreateProduct)
		admin.PUT("/products/:id", c.Products.UpdateProduct)
		admin.DELETE("/products/:id", c.Products.DeleteProduct)
		admin.POST("/products/bulk", c.Admin.BulkUpdateProducts)
		admin.PUT("/products/:id/toggle-active", c.Admin.ToggleProductActive)
		admin.PUT("/products/:id/toggle-featured", c.Admin.ToggleProductFeatured)
		admin.PUT("/products/:id/sale", c.Admin.SetProductSale)
		admin.PUT("/products/:id/stock", c.Admin.SetProductStock)

		admin.POST("/products/:id/shades", c.Products.CreateShade)
		admin.PUT("/shades/:shadeId", c.Products.UpdateShade)
		admin.DELETE("/shades/:shadeId", c.Products.DeleteShade)
		admin.PUT("/shades/:shadeId/stock", c.Admin.SetShadeStock)

		admin.POST("/categories", c.Categories.CreateCategory)
		admin.PUT("/categories/:id", c.Categories.UpdateCategory)
		admin.DELETE("/categories/:id", c.Categories.DeleteCategory)
		admin.PUT("/categories/:id/toggle-active", c.Admin.ToggleCategoryActive)
	}
}
