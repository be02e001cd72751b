package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"weatherdesk/internal/provider"
	"weatherdesk/internal/service"
	"weatherdesk/internal/store"
	"weatherdesk/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app. The locator may
// be nil; the locate endpoint then reports unavailable.
func RegisterRoutes(app *fiber.App, svc *service.Service, locator *provider.Locator, log *zap.Logger) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		req, err := parseWeatherQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res, err := svc.Search(c.Context(), req.City, req.Force)
		if err != nil {
			return searchError(err)
		}
		return c.JSON(presentResult(svc, res))
	})

	v1.Post("/weather/refresh", func(c *fiber.Ctx) error {
		req, err := parseWeatherQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res, err := svc.Search(c.Context(), req.City, true)
		if err != nil {
			return searchError(err)
		}
		return c.JSON(presentResult(svc, res))
	})

	v1.Get("/history", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"history": svc.History()})
	})

	v1.Delete("/history", func(c *fiber.Ctx) error {
		if err := svc.ClearHistory(); err != nil {
			log.Error("clearing history", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "failed to clear history")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/favorites", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"favorites": svc.Favorites()})
	})

	v1.Post("/favorites", func(c *fiber.Ctx) error {
		var body struct {
			City string `json:"city" validate:"required"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := svc.AddFavorite(body.City); err != nil {
			if errors.Is(err, service.ErrEmptyQuery) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			log.Error("adding favorite", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save favorite")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"favorites": svc.Favorites()})
	})

	v1.Delete("/favorites/:city", func(c *fiber.Ctx) error {
		city := c.Params("city")
		if err := svc.RemoveFavorite(city); err != nil {
			if errors.Is(err, service.ErrEmptyQuery) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			log.Error("removing favorite", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "failed to remove favorite")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/settings", func(c *fiber.Ctx) error {
		return c.JSON(svc.Settings())
	})

	v1.Patch("/settings", func(c *fiber.Ctx) error {
		var patch store.SettingsPatch
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		next, err := svc.UpdateSettings(patch)
		if err != nil {
			var ve *store.ValidationError
			if errors.As(err, &ve) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error":   true,
					"message": ve.Error(),
					"field":   ve.Field,
				})
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(next)
	})

	v1.Post("/reset", func(c *fiber.Ctx) error {
		if err := svc.Reset(); err != nil {
			log.Error("resetting state", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "failed to reset state")
		}
		return c.JSON(svc.Settings())
	})

	v1.Get("/locate", func(c *fiber.Ctx) error {
		if locator == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "IP location not configured")
		}
		city, err := locator.Locate(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "failed to detect location")
		}
		return c.JSON(fiber.Map{"city": city})
	})
}

// weatherQuery holds the parameters of the weather endpoints.
type weatherQuery struct {
	City  string `validate:"required"`
	Force bool
}

func parseWeatherQuery(c *fiber.Ctx) (weatherQuery, error) {
	q := weatherQuery{
		City:  c.Query("city"),
		Force: c.QueryBool("force"),
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func searchError(err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyQuery):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, provider.ErrCityNotFound):
		return fiber.NewError(fiber.StatusNotFound, "city not found")
	case errors.Is(err, provider.ErrUpstream):
		return fiber.NewError(fiber.StatusBadGateway, "weather provider unavailable")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather")
	}
}

// weatherView is a snapshot converted to the user's display units.
type weatherView struct {
	City        weather.CityKey `json:"city"`
	FetchedAt   time.Time       `json:"fetchedAt"`
	Temp        float64         `json:"temp"`
	FeelsLike   float64         `json:"feelsLike"`
	TempUnit    string          `json:"tempUnit"`
	Humidity    int             `json:"humidityPercent"`
	Pressure    float64         `json:"pressure"`
	PresUnit    string          `json:"pressureUnit"`
	WindSpeed   float64         `json:"windSpeed"`
	WindUnit    string          `json:"windUnit"`
	WindDir     string          `json:"windDirection"`
	Description string          `json:"description"`
	IconCode    int             `json:"iconCode"`
	Sunrise     time.Time       `json:"sunriseUtc"`
	Sunset      time.Time       `json:"sunsetUtc"`
	AQI         *int            `json:"aqi,omitempty"`
}

type dayView struct {
	Date     string  `json:"date"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	IconCode int     `json:"iconCode"`
}

type resultView struct {
	Weather    weatherView `json:"weather"`
	Forecast   []dayView   `json:"forecast"`
	Theme      string      `json:"theme"`
	Stale      bool        `json:"stale"`
	Fetched    bool        `json:"fetched"`
	Superseded bool        `json:"superseded"`
}

// presentResult converts a canonical-metric result into the active display
// units and attaches the resolved theme.
func presentResult(svc *service.Service, res service.Result) resultView {
	cfg := svc.Settings()
	snap := res.Entry.Weather

	tempUnit, presUnit := "°C", "hPa"
	pressure := snap.PressureHPa
	if cfg.UnitSystem == weather.UnitsImperial {
		tempUnit, presUnit = "°F", "inHg"
		pressure = weather.HPaToInHg(snap.PressureHPa)
	}

	windUnit := "km/h"
	if cfg.WindSpeedUnit == weather.WindMPH {
		windUnit = "mph"
	}

	view := weatherView{
		City:        snap.City,
		FetchedAt:   snap.FetchedAt,
		Temp:        weather.DisplayTemp(snap.TempC, cfg.UnitSystem),
		FeelsLike:   weather.DisplayTemp(snap.FeelsLikeC, cfg.UnitSystem),
		TempUnit:    tempUnit,
		Humidity:    snap.Humidity,
		Pressure:    pressure,
		PresUnit:    presUnit,
		WindSpeed:   weather.DisplayWind(snap.WindSpeedMS, cfg.WindSpeedUnit),
		WindUnit:    windUnit,
		WindDir:     weather.CompassPoint(snap.WindDeg),
		Description: snap.Description,
		IconCode:    snap.IconCode,
		Sunrise:     snap.SunriseUTC,
		Sunset:      snap.SunsetUTC,
	}
	if cfg.ShowAQI {
		aqi := snap.AQI
		view.AQI = &aqi
	}

	days := make([]dayView, 0, len(res.Entry.Forecast.Days))
	for _, d := range res.Entry.Forecast.Days {
		days = append(days, dayView{
			Date:     d.Date,
			Min:      weather.DisplayTemp(d.MinC, cfg.UnitSystem),
			Max:      weather.DisplayTemp(d.MaxC, cfg.UnitSystem),
			IconCode: d.IconCode,
		})
	}

	return resultView{
		Weather:    view,
		Forecast:   days,
		Theme:      svc.Theme(snap.City),
		Stale:      res.Stale,
		Fetched:    res.Fetched,
		Superseded: res.Superseded,
	}
}

// NewApp builds the Fiber application with the shared middleware and error
// handler.
func NewApp(appName string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
}
