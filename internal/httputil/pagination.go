package httputil

import (
	"errors"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"
)

const (
	// DefaultPageLimit is used when a listing request carries no limit.
	DefaultPageLimit = 50
	// MaxPageLimit caps the rows returned by any listing endpoint.
	MaxPageLimit = 100
)

// Page is the offset/limit window of a listing request.
type Page struct {
	Offset int `form:"offset,default=0" json:"offset"`
	Limit  int `form:"limit,default=50" json:"limit"`
}

// ParsePage binds offset and limit from the query string. Offset must be
// non-negative and limit within 1..MaxPageLimit.
func ParsePage(c *gin.Context) (Page, error) {
	var page Page
	if err := c.ShouldBindQuery(&page); err != nil {
		return Page{}, errors.New("offset and limit must be integers")
	}

	err := validation.ValidateStruct(&page,
		validation.Field(&page.Offset, validation.Min(0)),
		validation.Field(&page.Limit,
			validation.Required.Error("must be between 1 and 100"),
			validation.Min(1),
			validation.Max(MaxPageLimit),
		),
	)
	if err != nil {
		return Page{}, err
	}
	return page, nil
}
