package api

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"

	"github.com/neexbeast/travel-catalog/internal/travel"
)

// createTravelRequest is the JSON body of POST /api/v1/catalog/travel.
type createTravelRequest struct {
	Name        string          `json:"name" validate:"notblank,max=200"`
	Description string          `json:"description" validate:"max=4000"`
	Departure   time.Time       `json:"departure" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Town        string          `json:"town" validate:"notblank,max=200"`
	Country     string          `json:"country" validate:"notblank,max=200"`
	Picture     string          `json:"picture" validate:"omitempty,max=500"`
	ZipCode     string          `json:"zip_code" validate:"omitempty,max=20"`
}

func (c createTravelRequest) toNewTravel() travel.NewTravel {
	return travel.NewTravel{
		Name:        strings.TrimSpace(c.Name),
		Description: c.Description,
		Departure:   c.Departure,
		Price:       c.Price,
		Town:        strings.TrimSpace(c.Town),
		Country:     strings.TrimSpace(c.Country),
		Picture:     c.Picture,
		TownZipCode: c.ZipCode,
	}
}

// requestValidator checks request bodies and reports failures by JSON field name.
type requestValidator struct {
	v *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{v: v}
}

// validate returns field -> failed rule, or nil when req is valid.
func (rv *requestValidator) validate(req createTravelRequest) map[string]string {
	details := map[string]string{}

	var verrs validator.ValidationErrors
	if err := rv.v.Struct(req); err != nil {
		if !errors.As(err, &verrs) {
			details["body"] = err.Error()
		}
		for _, fe := range verrs {
			details[fe.Field()] = "failed on rule: " + fe.Tag()
		}
	}
	// validator does not look inside decimal.Decimal.
	switch {
	case req.Price.IsNegative():
		details["price"] = "must not be negative"
	case req.Price.Round(travel.PriceScale).GreaterThanOrEqual(travel.MaxPrice):
		details["price"] = "must be below " + travel.MaxPrice.String()
	}

	if len(details) == 0 {
		return nil
	}
	return details
}
