package httpapi

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/country-insights/internal/country"
	"github.com/i474232898/country-insights/internal/country/providers"
	"github.com/i474232898/country-insights/internal/favorites"
)

// SlotHeader names the logical query slot a search belongs to. Searches
// sharing a slot follow last-issued-wins ordering.
const SlotHeader = "X-Query-Slot"

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *country.Service, saved *favorites.Store) {
	v1 := app.Group("/api/v1")

	v1.Get("/countries", func(c *fiber.Ctx) error {
		q, err := parseCountriesQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		countries, err := service.Search(c.UserContext(), c.Get(SlotHeader), q.toQuery())
		if err != nil {
			return err
		}

		resp := fiber.Map{
			"countries": countries,
			"count":     len(countries),
		}
		if len(countries) == 0 {
			resp["message"] = country.MsgNoResults
		}
		return c.JSON(resp)
	})

	v1.Get("/countries/:code", func(c *fiber.Ctx) error {
		code, err := parseCode(c.Params("code"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		page, err := service.CountryPage(c.UserContext(), code)
		if err != nil {
			return err
		}

		return c.JSON(countryPageResponse{Page: page, Saved: saved.IsSaved(code)})
	})

	v1.Get("/rates/:base", func(c *fiber.Ctx) error {
		var req ratesQuery
		req.Base = strings.ToUpper(strings.TrimSpace(c.Params("base")))
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(service.Rates(c.UserContext(), req.Base))
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		var req weatherQuery
		req.City = strings.TrimSpace(c.Query("city"))
		req.Country = strings.TrimSpace(c.Query("country"))
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(service.Weather(c.UserContext(), req.City, req.Country))
	})

	fav := v1.Group("/favorites")

	fav.Get("/", func(c *fiber.Ctx) error {
		list := saved.ToArray()
		return c.JSON(fiber.Map{
			"saved": list,
			"count": len(list),
		})
	})

	fav.Get("/:code", func(c *fiber.Ctx) error {
		sc, ok := saved.Get(c.Params("code"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "country is not saved")
		}
		return c.JSON(sc)
	})

	fav.Put("/", func(c *fiber.Ctx) error {
		var body country.CountrySummary
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		sc, err := saved.Add(body)
		if err != nil {
			return err
		}
		return c.JSON(sc)
	})

	fav.Post("/toggle", func(c *fiber.Ctx) error {
		var body country.CountrySummary
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		isSaved, err := saved.Toggle(body)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"code":  strings.ToUpper(strings.TrimSpace(body.Code)),
			"saved": isSaved,
		})
	})

	fav.Delete("/:code", func(c *fiber.Ctx) error {
		if err := saved.Remove(c.Params("code")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	fav.Delete("/", func(c *fiber.Ctx) error {
		if err := saved.Clear(); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// ErrorHandler renders every error as {"error": true, "message": ...} and maps
// domain errors onto status codes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	var fe *fiber.Error
	var ue *country.UpstreamError
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, country.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.As(err, &ue):
		code = fiber.StatusBadGateway
	case errors.Is(err, country.ErrSuperseded):
		code = fiber.StatusConflict
	case errors.Is(err, providers.ErrCircuitOpen):
		code = fiber.StatusServiceUnavailable
		message = "country directory is temporarily unavailable, please retry shortly"
	case errors.Is(err, favorites.ErrInvalidCountry):
		code = fiber.StatusBadRequest
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

type countryPageResponse struct {
	country.Page
	Saved bool `json:"saved"`
}

// countriesQuery holds query parameters for the listing endpoint.
type countriesQuery struct {
	Search string
	Region string `validate:"omitempty,oneof=all africa americas asia europe oceania antarctic"`
}

func (q countriesQuery) toQuery() country.Query {
	return country.Query{Search: q.Search, Region: q.Region}
}

func parseCountriesQuery(c *fiber.Ctx) (countriesQuery, error) {
	var q countriesQuery

	q.Search = strings.TrimSpace(c.Query("search"))
	q.Region = strings.ToLower(strings.TrimSpace(c.Query("region")))

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func parseCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if err := validate.Var(code, "required,alpha,len=2"); err != nil {
		return "", errors.New("country code must be two letters")
	}
	return code, nil
}

type ratesQuery struct {
	Base string `validate:"required,alpha,len=3"`
}

type weatherQuery struct {
	City    string `validate:"required"`
	Country string `validate:"omitempty,alpha,len=2"`
}
