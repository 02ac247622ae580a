package reservation

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"remanerp/api"
	"remanerp/core/alerts"
	"remanerp/core/auth"
	purchaseService "remanerp/service/purchase"
	resvService "remanerp/service/reservation"
	stockService "remanerp/service/stock"
)

func init() {
	api.RegisterModule(RegisterReservationRoutes)
}

func RegisterReservationRoutes(apiGroup *echo.Group, db *gorm.DB) {
	notifier := alerts.New()
	stock, err := stockService.NewService(db, notifier)
	if err != nil {
		panic("api/reservation: " + err.Error())
	}
	svc := resvService.NewService(db, stock, purchaseService.NewService(db), notifier)

	g := apiGroup.Group("/reservations")

	// POST /api/reservations/budget/:budgetID – reserve an approved budget
	g.POST("/budget/:budgetID", func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("budgetID"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid budget id"})
		}
		result, err := svc.ReserveFromBudget(c.Request().Context(), auth.OrgID(c), auth.UserID(c), uint(id))
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusCreated, result)
	})

	// POST /api/reservations/:id/separate
	g.POST("/:id/separate", func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
		}
		var body struct {
			Quantity int64 `json:"quantity"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		resv, err := svc.Separate(c.Request().Context(), auth.OrgID(c), auth.UserID(c), uint(id), body.Quantity)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"reservation": resv})
	})

	// POST /api/reservations/consume – apply separated quantities to an order
	g.POST("/consume", func(c echo.Context) error {
		var body struct {
			OrderID uint                      `json:"order_id"`
			Items   []resvService.ConsumeItem `json:"items"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if len(body.Items) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "items array is required and must not be empty"})
		}
		results := svc.Consume(c.Request().Context(), auth.OrgID(c), auth.UserID(c), body.OrderID, body.Items)

		type itemResult struct {
			ReservationID uint        `json:"reservation_id"`
			Movement      interface{} `json:"movement,omitempty"`
			Error         string      `json:"error,omitempty"`
		}
		out := make([]itemResult, 0, len(results))
		failed := 0
		for _, r := range results {
			ir := itemResult{ReservationID: r.ReservationID}
			if r.Err != nil {
				ir.Error = r.Err.Error()
				failed++
			} else {
				ir.Movement = r.Movement
			}
			out = append(out, ir)
		}
		status := http.StatusOK
		if failed == len(results) {
			status = http.StatusUnprocessableEntity
		} else if failed > 0 {
			status = http.StatusMultiStatus
		}
		return c.JSON(status, echo.Map{"results": out, "failed": failed})
	})

	// POST /api/reservations/:id/cancel
	g.POST("/:id/cancel", func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
		}
		var body struct {
			Reason string `json:"reason"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		resv, released, err := svc.Cancel(c.Request().Context(), auth.OrgID(c), auth.UserID(c), uint(id), body.Reason)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"reservation": resv, "released_quantity": released})
	})

	// POST /api/reservations/:id/extend
	g.POST("/:id/extend", func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
		}
		var body struct {
			Days int `json:"days"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		resv, err := svc.Extend(c.Request().Context(), auth.OrgID(c), auth.UserID(c), uint(id), body.Days)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"reservation": resv})
	})

	// GET /api/reservations?status=
	g.GET("", func(c echo.Context) error {
		items, err := svc.List(c.Request().Context(), auth.OrgID(c), c.QueryParam("status"))
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items})
	})

	// GET /api/reservations/expiring?within_days=
	g.GET("/expiring", func(c echo.Context) error {
		days, _ := strconv.Atoi(c.QueryParam("within_days"))
		if days <= 0 {
			days = 7
		}
		items, err := svc.ListExpiring(c.Request().Context(), auth.OrgID(c), time.Duration(days)*24*time.Hour)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items})
	})
}
