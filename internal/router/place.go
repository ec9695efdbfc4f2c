package router

import (
	apperrors "github.com/Payphone-Digital/locatory/internal/errors"
	"github.com/Payphone-Digital/locatory/internal/middleware"
	"github.com/Payphone-Digital/locatory/internal/repository"
	"github.com/Payphone-Digital/locatory/pkg/query"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func (r *Router) placeRoutes(api *gin.RouterGroup) {
	h := r.handlers.Place
	places := api.Group("/places")
	{
		places.GET("/radius/:zipcode/:distance", h.InRadius)

		protected := places.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.GET("", middleware.AdvancedResults(r.translator(placeSchema), r.finders.Places), middleware.SendAdvancedResults)
			protected.POST("", h.Create)
			protected.GET("/user/all", h.ListMine)
			protected.GET("/:id", h.Get)
			protected.PUT("/:id", h.Update)
			protected.DELETE("/:id", h.Delete)
			protected.GET("/:id/reviews", middleware.ScopedAdvancedResults(r.translator(reviewSchema), r.placeReviews, populatePlaceName), middleware.SendAdvancedResults)
			protected.POST("/:id/reviews", r.handlers.Review.Create)
		}
	}
}

func (r *Router) placeReviews(c *gin.Context) (query.Finder[bson.M], error) {
	placeID, err := repository.ParseObjectID(c.Param("id"))
	if err != nil {
		return nil, apperrors.NotFound("No place with the id of %s", c.Param("id"))
	}
	return r.finders.PlaceReviews(placeID), nil
}
