package router

import (
	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/internal/middleware"
	"github.com/gin-gonic/gin"
)

func (r *Router) userRoutes(api *gin.RouterGroup) {
	users := api.Group("/users")
	users.Use(r.jwtMw.RequireAuth(), r.jwtMw.RequireRole(constants.RoleAdmin))
	{
		users.GET("", middleware.AdvancedResults(r.translator(userSchema), r.finders.Users), middleware.SendAdvancedResults)
	}
}
