package handler

import (
	"context"
	"net/http"

	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/internal/model"
	"github.com/Payphone-Digital/locatory/internal/service"
	"github.com/gin-gonic/gin"
)

type ReactionService interface {
	Add(ctx context.Context, actor service.Actor, kind model.ReactionKind, reviewID string) (*model.Reaction, error)
	ListByReview(ctx context.Context, kind model.ReactionKind, reviewID string) ([]model.Reaction, error)
	ListByUser(ctx context.Context, kind model.ReactionKind, userID uint) ([]model.Reaction, error)
}

// ReactionHandler serves one reaction kind; likes and dislikes each get
// their own instance.
type ReactionHandler struct {
	reactions ReactionService
	kind      model.ReactionKind
}

func NewReactionHandler(reactions ReactionService, kind model.ReactionKind) *ReactionHandler {
	return &ReactionHandler{reactions: reactions, kind: kind}
}

// ListForReview serves GET /reviews/:id/likes and /reviews/:id/dislikes.
func (h *ReactionHandler) ListForReview(c *gin.Context) {
	ctx := requestContext(c, "ListReviewReactions")

	reactions, err := h.reactions.ListByReview(ctx, h.kind, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendList(c, reactions)
}

func (h *ReactionHandler) Add(c *gin.Context) {
	ctx := requestContext(c, "AddReaction")

	reaction, err := h.reactions.Add(ctx, currentActor(c), h.kind, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, constants.BuildDataResponse(reaction))
}

func (h *ReactionHandler) ListMine(c *gin.Context) {
	ctx := requestContext(c, "ListMyReactions")

	reactions, err := h.reactions.ListByUser(ctx, h.kind, currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendList(c, reactions)
}
