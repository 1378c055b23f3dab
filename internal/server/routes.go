package server

import "github.com/gin-gonic/gin"

const (
	PathCategories = "/categories"
	PathMeals      = "/meals"
	PathSettings   = "/settings"
	PathOrders     = "/orders"
	PathAnalytics  = "/analytics"
)

func addCatalogRoutes(rg *gin.RouterGroup, s *Server) {
	rg.GET(PathCategories, s.listCategories)
	rg.POST(PathCategories, s.saveCategory)
	rg.PUT(PathCategories, s.saveCategory)
	rg.DELETE(PathCategories, s.deleteCategory)

	rg.GET(PathMeals, s.listMeals)
	rg.POST(PathMeals, s.saveMeal)
	rg.PUT(PathMeals, s.saveMeal)
	rg.DELETE(PathMeals, s.deleteMeal)

	rg.GET(PathSettings, s.getSettings)
	rg.PUT(PathSettings, s.saveSettings)
}

func addOrderRoutes(rg *gin.RouterGroup, s *Server) {
	rg.GET(PathOrders, s.listOrders)
	rg.POST(PathOrders, s.createOrder)
	rg.PUT(PathOrders, s.updateOrder)
	rg.DELETE(PathOrders, s.deleteOrder)
	rg.GET(PathAnalytics, s.analytics)
}
