package purchase

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"remanerp/api"
	"remanerp/core/auth"
	purchaseService "remanerp/service/purchase"
)

func init() {
	api.RegisterModule(RegisterNeedRoutes)
}

func RegisterNeedRoutes(apiGroup *echo.Group, db *gorm.DB) {
	svc := purchaseService.NewService(db)

	g := apiGroup.Group("/needs")

	// POST /api/needs – record a shortage directly
	g.POST("", func(c echo.Context) error {
		var body purchaseService.NeedInput
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		need, err := svc.CreateOrReuseNeed(c.Request().Context(), auth.OrgID(c), body)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusCreated, echo.Map{"need": need})
	})

	// GET /api/needs?status=
	g.GET("", func(c echo.Context) error {
		items, err := svc.ListNeeds(c.Request().Context(), auth.OrgID(c), c.QueryParam("status"))
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items})
	})

	// POST /api/needs/:id/status – advance the procurement workflow
	g.POST("/:id/status", func(c echo.Context) error {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid need id"})
		}
		var body struct {
			Status string `json:"status"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		need, err := svc.AdvanceNeed(c.Request().Context(), auth.OrgID(c), uint(id), body.Status)
		if err != nil {
			return api.ErrorResponse(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"need": need})
	})
}
