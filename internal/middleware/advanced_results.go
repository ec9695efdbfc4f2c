package middleware

import (
	"net/http"

	"github.com/Payphone-Digital/locatory/internal/constants"
	apperrors "github.com/Payphone-Digital/locatory/internal/errors"
	"github.com/Payphone-Digital/locatory/pkg/query"
	"github.com/gin-gonic/gin"
)

// AdvancedResults parses the query string, runs it against finder and
// stores the *query.Result[T] for the handler to send.
func AdvancedResults[T any](translator *query.Translator, finder query.Finder[T], populate ...query.Populate) gin.HandlerFunc {
	return ScopedAdvancedResults(translator, func(*gin.Context) (query.Finder[T], error) {
		return finder, nil
	}, populate...)
}

// ScopedAdvancedResults is AdvancedResults over a finder chosen per
// request, such as the reviews of the place named in the path.
func ScopedAdvancedResults[T any](translator *query.Translator, scope func(*gin.Context) (query.Finder[T], error), populate ...query.Populate) gin.HandlerFunc {
	return func(c *gin.Context) {
		finder, err := scope(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		spec, err := translator.Parse(c.Request.URL.Query())
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		result, err := query.Execute(c.Request.Context(), finder, spec, populate...)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(constants.CtxKeyAdvancedResults, result)
		c.Next()
	}
}

// SendAdvancedResults is the terminal handler for AdvancedResults routes.
func SendAdvancedResults(c *gin.Context) {
	result, ok := c.Get(constants.CtxKeyAdvancedResults)
	if !ok {
		_ = c.Error(apperrors.ErrInternal)
		return
	}
	c.JSON(http.StatusOK, result)
}
