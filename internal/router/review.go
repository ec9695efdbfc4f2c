package router

import (
	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/internal/handler"
	"github.com/Payphone-Digital/locatory/internal/middleware"
	"github.com/Payphone-Digital/locatory/pkg/query"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	populatePlaceName   = query.Populate{Path: "place", From: constants.CollectionPlaces, Select: []string{"name"}}
	populateReviewTitle = query.Populate{Path: "review", From: constants.CollectionReviews, Select: []string{"title"}}
)

func (r *Router) reviewRoutes(api *gin.RouterGroup) {
	h := r.handlers.Review
	reviews := api.Group("/reviews")
	reviews.Use(r.jwtMw.RequireAuth())
	{
		reviews.GET("", middleware.AdvancedResults(r.translator(reviewSchema), r.finders.Reviews, populatePlaceName), middleware.SendAdvancedResults)
		reviews.GET("/user/all", h.ListMine)
		reviews.GET("/:id", h.Get)
		reviews.PUT("/:id", h.Update)
		reviews.DELETE("/:id", h.Delete)
		reviews.POST("/:id/notifications", h.Notify)

		reviews.GET("/:id/likes", r.handlers.Like.ListForReview)
		reviews.POST("/:id/likes", r.handlers.Like.Add)
		reviews.GET("/:id/dislikes", r.handlers.Dislike.ListForReview)
		reviews.POST("/:id/dislikes", r.handlers.Dislike.Add)
	}
}

func (r *Router) reactionRoutes(api *gin.RouterGroup) {
	r.reactionGroup(api.Group("/likes"), r.handlers.Like, r.finders.Likes)
	r.reactionGroup(api.Group("/dislikes"), r.handlers.Dislike, r.finders.Dislikes)
}

func (r *Router) reactionGroup(group *gin.RouterGroup, h *handler.ReactionHandler, finder query.Finder[bson.M]) {
	group.Use(r.jwtMw.RequireAuth())
	{
		group.GET("", middleware.AdvancedResults(r.translator(reactionSchema), finder, populateReviewTitle), middleware.SendAdvancedResults)
		group.GET("/user/all", h.ListMine)
	}
}
