package count

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"remanerp/api"
	"remanerp/core/alerts"
	"remanerp/core/auth"
	countService "remanerp/service/count"
	stockService "remanerp/service/stock"
)

func init() {
	api.RegisterModule(RegisterCountRoutes)
}

func RegisterCountRoutes(apiGroup *echo.Group, db *gorm.DB) {
	stock, err := stockService.NewService(db, alerts.New())
	if err != nil {
		panic("api/count: " + err.Error())
	}
	svc := countService.NewService(db, stock)

	g := apiGroup.Group("/counts")

	// POST /api/counts – create a snapshot count session
	g.POST("", func(c echo.Context) error {
		var body struct {
			Type    string                 `json:"type"`
			Filters map[string]interface{} `json:"filters"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		created, err := svc.CreateCount(c.Request().Context(), auth.OrgID(c), auth.UserID(c), body.Type, body.Filters)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusCreated, echo.Map{"count": created})
	})

	// POST /api/counts/:id/start
	g.POST("/:id/start", func(c echo.Context) error {
		id, err := parseID(c, "id")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		started, err := svc.Start(c.Request().Context(), auth.OrgID(c), auth.UserID(c), id)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"count": started})
	})

	// PUT /api/counts/items/:itemID – record a physical count
	g.PUT("/items/:itemID", func(c echo.Context) error {
		id, err := parseID(c, "itemID")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		var body struct {
			CountedQuantity int64 `json:"counted_quantity"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		item, err := svc.UpdateItem(c.Request().Context(), auth.OrgID(c), auth.UserID(c), id, body.CountedQuantity)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"item": item})
	})

	// POST /api/counts/:id/process – reconcile differences into adjustments
	g.POST("/:id/process", func(c echo.Context) error {
		id, err := parseID(c, "id")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		processed, movements, err := svc.Process(c.Request().Context(), auth.OrgID(c), auth.UserID(c), id)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"count": processed, "adjustments": movements})
	})

	// POST /api/counts/:id/cancel
	g.POST("/:id/cancel", func(c echo.Context) error {
		id, err := parseID(c, "id")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		cancelled, err := svc.CancelCount(c.Request().Context(), auth.OrgID(c), auth.UserID(c), id)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"count": cancelled})
	})

	// GET /api/counts/:id/divergence
	g.GET("/:id/divergence", func(c echo.Context) error {
		id, err := parseID(c, "id")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		loaded, err := svc.Get(c.Request().Context(), auth.OrgID(c), id)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"divergence": countService.DivergenceReport(loaded.Items)})
	})

	// GET /api/counts/:id
	g.GET("/:id", func(c echo.Context) error {
		id, err := parseID(c, "id")
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		loaded, err := svc.Get(c.Request().Context(), auth.OrgID(c), id)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"count": loaded})
	})

	// GET /api/counts?status=
	g.GET("", func(c echo.Context) error {
		items, err := svc.List(c.Request().Context(), auth.OrgID(c), c.QueryParam("status"))
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items})
	})
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(id), nil
}
