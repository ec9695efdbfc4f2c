package model

import (
	"time"

	"github.com/Payphone-Digital/locatory/pkg/geo"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Place is stored in the places collection. User holds the owner's
// relational id.
type Place struct {
	ID            bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name          string        `bson:"name" json:"name"`
	Category      string        `bson:"category" json:"category"`
	Address       string        `bson:"address" json:"address"`
	Photo         string        `bson:"photo" json:"photo"`
	Location      *geo.Point    `bson:"location,omitempty" json:"location,omitempty"`
	User          uint          `bson:"user" json:"user"`
	TotalReviews  int           `bson:"totalreviews" json:"totalreviews"`
	AverageRating float64       `bson:"averageRating" json:"averageRating"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
}

// Review is stored in the reviews collection. Scores range from 1 to 10.
type Review struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title          string        `bson:"title" json:"title"`
	Description    string        `bson:"description" json:"description"`
	AverageBudget  float64       `bson:"averagebudget" json:"averagebudget"`
	Accessibility  int           `bson:"accessibility" json:"accessibility"`
	Decoration     int           `bson:"decoration" json:"decoration"`
	Service        int           `bson:"service" json:"service"`
	FamilyFriendly int           `bson:"familyfriendly" json:"familyfriendly"`
	Transportation string        `bson:"transportation" json:"transportation"`
	Setting        string        `bson:"setting" json:"setting"`
	Rating         float64       `bson:"rating" json:"rating"`
	Photo          string        `bson:"photo" json:"photo"`
	Place          bson.ObjectID `bson:"place" json:"place"`
	User           uint          `bson:"user" json:"user"`
	Username       string        `bson:"username" json:"username"`
	UserPhoto      string        `bson:"userphoto" json:"userphoto"`
	TotalLikes     int           `bson:"totallikes" json:"totallikes"`
	TotalDislikes  int           `bson:"totaldislikes" json:"totaldislikes"`
	CreatedAt      time.Time     `bson:"createdAt" json:"createdAt"`
}

// Reaction is a like or dislike; one per user and review in each
// collection.
type Reaction struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Review    bson.ObjectID `bson:"review" json:"review"`
	User      uint          `bson:"user" json:"user"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
}

// ReactionKind selects the likes or dislikes collection.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// CounterField is the review field that counts reactions of this kind.
func (k ReactionKind) CounterField() string {
	if k == ReactionDislike {
		return "totaldislikes"
	}
	return "totallikes"
}

// PlaceAggregates are the denormalised review statistics kept on a place.
type PlaceAggregates struct {
	TotalReviews  int
	AverageRating float64
}
