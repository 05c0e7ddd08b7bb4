package httpapi

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/i474232898/air-quality-collector/internal/airquality"
	"github.com/i474232898/air-quality-collector/internal/geo"
	"github.com/i474232898/air-quality-collector/internal/observability"
	"github.com/i474232898/air-quality-collector/internal/store"
)

const serviceName = "air-quality-collector"

// SnapshotReader is the read side of the latest snapshot set.
type SnapshotReader interface {
	All() ([]airquality.RegionSnapshot, time.Time)
	GetLatest(region string) (airquality.RegionSnapshot, error)
}

// NewApp builds the Fiber app with the shared error handler and middleware.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	return app
}

// RegionView is a snapshot joined with its map position. Coordinates are
// omitted when the region cannot be placed.
type RegionView struct {
	airquality.RegionSnapshot
	Lat   *float64 `json:"lat,omitempty"`
	Lng   *float64 `json:"lng,omitempty"`
	Color string   `json:"color"`
}

type handler struct {
	snapshots SnapshotReader
	resolver  geo.Resolver
	validate  *validator.Validate
	logger    *zap.Logger
}

type regionParam struct {
	Region string `validate:"required,configured_region"`
}

// RegisterRoutes wires the health, metrics and air-quality handlers. Only
// regions in the configured list are accepted on the per-region route.
func RegisterRoutes(app *fiber.App, snapshots SnapshotReader, resolver geo.Resolver, regions []string, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}

	known := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		known[r] = struct{}{}
	}
	v := validator.New()
	_ = v.RegisterValidation("configured_region", func(fl validator.FieldLevel) bool {
		_, ok := known[fl.Field().String()]
		return ok
	})

	h := &handler{snapshots: snapshots, resolver: resolver, validate: v, logger: log}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(observability.MetricsHandler()))

	v1 := app.Group("/api/v1")
	v1.Get("/air-quality", h.list)
	v1.Get("/air-quality/:region", h.get)
}

func (h *handler) list(c *fiber.Ctx) error {
	snaps, updatedAt := h.snapshots.All()

	views := make([]RegionView, 0, len(snaps))
	for _, s := range snaps {
		views = append(views, h.view(c.UserContext(), s))
	}

	resp := fiber.Map{
		"regions": views,
	}
	if !updatedAt.IsZero() {
		resp["updatedAt"] = updatedAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(resp)
}

func (h *handler) get(c *fiber.Ctx) error {
	region, err := url.PathUnescape(c.Params("region"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed region")
	}
	if err := h.validate.Struct(regionParam{Region: region}); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "region is not configured: "+region)
	}

	snap, err := h.snapshots.GetLatest(region)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no air quality data for "+region)
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to read air quality data")
	}
	return c.JSON(h.view(c.UserContext(), snap))
}

func (h *handler) view(ctx context.Context, s airquality.RegionSnapshot) RegionView {
	v := RegionView{RegionSnapshot: s, Color: geo.PM10Color(s.PM10)}
	if h.resolver == nil {
		return v
	}
	coords, err := h.resolver.Resolve(ctx, s.Region)
	if err != nil {
		h.logger.Debug("region has no coordinates", zap.String("region", s.Region), zap.Error(err))
		return v
	}
	v.Lat, v.Lng = &coords.Lat, &coords.Lng
	return v
}
