package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/firewatch/env-data-aggregation/internal/envdata"
	"github.com/firewatch/env-data-aggregation/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *envdata.Service) {
	v1 := app.Group("/api/v1")

	v1.Post("/envdata/collect", func(c *fiber.Ctx) error {
		var req envdata.CollectRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		resp := service.Collect(c.UserContext(), req)
		return c.JSON(resp)
	})

	v1.Get("/envdata/latest", func(c *fiber.Ctx) error {
		coord, err := parseCoordinateQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		resp, err := service.Latest(coord)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no collected data for requested coordinate")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch collected data")
		}

		return c.JSON(resp)
	})

	v1.Get("/envdata/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		responses, err := service.History(req.Coordinate, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch history")
		}

		return c.JSON(fiber.Map{
			"coordinate": req.Coordinate,
			"from":       req.From,
			"to":         req.To,
			"responses":  responses,
		})
	})
}

// coordinateQuery holds the query parameters identifying a point.
type coordinateQuery struct {
	Latitude  float64 `validate:"min=-90,max=90"`
	Longitude float64 `validate:"min=-180,max=180"`
}

func parseCoordinateQuery(c *fiber.Ctx) (envdata.Coordinate, error) {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		return envdata.Coordinate{}, errors.New("lat and lon query parameters are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return envdata.Coordinate{}, errors.New("invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return envdata.Coordinate{}, errors.New("invalid lon")
	}

	q := coordinateQuery{Latitude: lat, Longitude: lon}
	if err := validate.Struct(q); err != nil {
		return envdata.Coordinate{}, err
	}

	return envdata.Coordinate{Latitude: lat, Longitude: lon}, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Coordinate envdata.Coordinate
	From       time.Time `validate:"required"`
	To         time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	coord, err := parseCoordinateQuery(c)
	if err != nil {
		return err
	}
	h.Coordinate = coord

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
