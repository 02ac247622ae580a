package accounting

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"remanerp/api"
	"remanerp/core/auth"
	acctRepo "remanerp/model/repository/accounting"
	acctService "remanerp/service/accounting"
)

func init() {
	api.RegisterModule(RegisterAccountingRoutes)
}

func RegisterAccountingRoutes(apiGroup *echo.Group, db *gorm.DB) {
	svc := acctService.NewService(db)

	g := apiGroup.Group("/accounting")

	// POST /api/accounting/sync – project approved movements into entries
	g.POST("/sync", func(c echo.Context) error {
		created, err := svc.Sync(c.Request().Context(), auth.OrgID(c))
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"created": created})
	})

	// GET /api/accounting/entries?status=&from=&to=
	g.GET("/entries", func(c echo.Context) error {
		filter := acctRepo.ListFilter{Status: c.QueryParam("status")}
		if v := c.QueryParam("from"); v != "" {
			if ts, err := time.Parse(time.RFC3339, v); err == nil {
				filter.From = ts
			}
		}
		if v := c.QueryParam("to"); v != "" {
			if ts, err := time.Parse(time.RFC3339, v); err == nil {
				filter.To = ts
			}
		}
		items, err := svc.List(c.Request().Context(), auth.OrgID(c), filter)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items})
	})

	// GET /api/accounting/summary
	g.GET("/summary", func(c echo.Context) error {
		summary, err := svc.Summary(c.Request().Context(), auth.OrgID(c))
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, summary)
	})

	// POST /api/accounting/entries/:id/post
	g.POST("/entries/:id/post", func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry id"})
		}
		entry, err := svc.Post(c.Request().Context(), auth.OrgID(c), auth.UserID(c), uint(id))
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"entry": entry})
	})

	// POST /api/accounting/entries/:id/reverse
	g.POST("/entries/:id/reverse", func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry id"})
		}
		entry, err := svc.Reverse(c.Request().Context(), auth.OrgID(c), auth.UserID(c), uint(id))
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"entry": entry})
	})
}
