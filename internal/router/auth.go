package router

import "github.com/gin-gonic/gin"

func (r *Router) authRoutes(api *gin.RouterGroup) {
	h := r.handlers.Auth
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
		auth.POST("/forgotpassword", h.ForgotPassword)
		auth.PUT("/resetpassword/:resettoken", h.ResetPassword)

		protected := auth.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.POST("/logout", h.Logout)
			protected.GET("/me", h.Me)
			protected.PUT("/updatedetails", h.UpdateDetails)
			protected.PUT("/updatepassword", h.UpdatePassword)
			protected.GET("/notifications", h.Notifications)
			protected.GET("/notifications/notificationalert", h.NotificationAlert)
			protected.POST("/:id/markasread", h.MarkAsRead)
		}
	}
}
