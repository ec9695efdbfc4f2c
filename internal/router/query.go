package router

import "github.com/Payphone-Digital/locatory/pkg/query"

// Field kinds for list filters; fields not listed are coerced by usage.
var (
	userSchema = query.Schema{
		"id":        query.KindNumber,
		"name":      query.KindString,
		"email":     query.KindString,
		"role":      query.KindString,
		"address":   query.KindString,
		"createdAt": query.KindTime,
	}
	placeSchema = query.Schema{
		"_id":           query.KindRef,
		"name":          query.KindString,
		"category":      query.KindString,
		"address":       query.KindString,
		"user":          query.KindNumber,
		"totalreviews":  query.KindNumber,
		"averageRating": query.KindNumber,
		"createdAt":     query.KindTime,
	}
	reviewSchema = query.Schema{
		"_id":            query.KindRef,
		"place":          query.KindRef,
		"user":           query.KindNumber,
		"title":          query.KindString,
		"rating":         query.KindNumber,
		"averagebudget":  query.KindNumber,
		"accessibility":  query.KindNumber,
		"decoration":     query.KindNumber,
		"service":        query.KindNumber,
		"familyfriendly": query.KindNumber,
		"totallikes":     query.KindNumber,
		"totaldislikes":  query.KindNumber,
		"createdAt":      query.KindTime,
	}
	reactionSchema = query.Schema{
		"review":    query.KindRef,
		"user":      query.KindNumber,
		"createdAt": query.KindTime,
	}
)

func (r *Router) translator(schema query.Schema) *query.Translator {
	return query.NewTranslator(
		query.WithSchema(schema),
		query.WithDefaultLimit(r.Config.Query.DefaultLimit),
		query.WithDefaultSort(r.Config.Query.DefaultSort),
	)
}
