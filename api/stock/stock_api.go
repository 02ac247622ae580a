package stock

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"remanerp/api"
	"remanerp/core/alerts"
	"remanerp/core/auth"
	stockRepo "remanerp/model/repository/stock"
	stockService "remanerp/service/stock"
)

func init() {
	api.RegisterModule(RegisterMovementRoutes)
}

func RegisterMovementRoutes(apiGroup *echo.Group, db *gorm.DB) {
	svc, err := stockService.NewService(db, alerts.New())
	if err != nil {
		panic("api/stock: " + err.Error())
	}

	g := apiGroup.Group("/movements")

	// POST /api/movements – record one stock movement
	g.POST("", func(c echo.Context) error {
		var body stockService.MovementInput
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		movement, part, err := svc.RecordMovement(c.Request().Context(), auth.OrgID(c), auth.UserID(c), body)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusCreated, echo.Map{
			"movement":      movement,
			"part_quantity": part.Quantity,
		})
	})

	// POST /api/movements/:id/approve
	g.POST("/:id/approve", func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movement id"})
		}
		movement, err := svc.ApproveMovement(c.Request().Context(), auth.OrgID(c), auth.UserID(c), uint(id))
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"movement": movement})
	})

	// POST /api/movements/:id/reject
	g.POST("/:id/reject", func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movement id"})
		}
		movement, err := svc.RejectMovement(c.Request().Context(), auth.OrgID(c), auth.UserID(c), uint(id))
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"movement": movement})
	})

	// GET /api/movements – ledger listing with filters
	g.GET("", func(c echo.Context) error {
		filter := stockRepo.ListFilter{
			Type:           c.QueryParam("type"),
			ApprovalStatus: c.QueryParam("approval_status"),
		}
		if v := c.QueryParam("part_id"); v != "" {
			id, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid part_id"})
			}
			filter.PartID = uint(id)
		}
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
		filter.Page, _ = strconv.Atoi(c.QueryParam("page"))
		filter.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))

		items, total, err := svc.ListMovements(c.Request().Context(), auth.OrgID(c), filter)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
	})

	// GET /api/movements/search?q= – reason text search
	g.GET("/search", func(c echo.Context) error {
		q := c.QueryParam("q")
		if q == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "q is required"})
		}
		size, _ := strconv.Atoi(c.QueryParam("size"))
		items, err := svc.SearchMovements(c.Request().Context(), auth.OrgID(c), q, size)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items})
	})
}
