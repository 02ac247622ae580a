package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	acctSvc "remanerp/service/accounting"
	countSvc "remanerp/service/count"
	purchaseSvc "remanerp/service/purchase"
	resvSvc "remanerp/service/reservation"
	stockSvc "remanerp/service/stock"
)

// ErrorResponse maps service errors onto HTTP statuses: caller mistakes are
// 400, missing rows 404, state and concurrency clashes 409, and business
// rules that current data refuses 422. Anything unrecognized is a 500.
func ErrorResponse(c echo.Context, err error) error {
	return c.JSON(statusFor(err), echo.Map{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, stockSvc.ErrInvalidType),
		errors.Is(err, stockSvc.ErrInvalidQuantity),
		errors.Is(err, resvSvc.ErrInvalidQuantity),
		errors.Is(err, purchaseSvc.ErrInvalidStatus),
		errors.Is(err, countSvc.ErrInvalidCountType),
		errors.Is(err, countSvc.ErrInvalidCounted),
		errors.Is(err, countSvc.ErrEmptySnapshot):
		return http.StatusBadRequest

	case errors.Is(err, stockSvc.ErrPartNotFound),
		errors.Is(err, resvSvc.ErrBudgetNotFound),
		errors.Is(err, resvSvc.ErrReservationNotFound),
		errors.Is(err, purchaseSvc.ErrNeedNotFound),
		errors.Is(err, countSvc.ErrCountNotFound),
		errors.Is(err, acctSvc.ErrEntryNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound

	case errors.Is(err, stockSvc.ErrConflict),
		errors.Is(err, stockSvc.ErrNotPending),
		errors.Is(err, resvSvc.ErrAlreadyTerminal),
		errors.Is(err, resvSvc.ErrBudgetNotApproved),
		errors.Is(err, purchaseSvc.ErrInvalidTransition),
		errors.Is(err, countSvc.ErrNotDraft),
		errors.Is(err, countSvc.ErrNotInProgress),
		errors.Is(err, countSvc.ErrAlreadyProcessed),
		errors.Is(err, acctSvc.ErrNotDraft),
		errors.Is(err, acctSvc.ErrNotPosted),
		errors.Is(err, acctSvc.ErrAlreadyReversed):
		return http.StatusConflict

	case errors.Is(err, stockSvc.ErrInsufficientStock),
		errors.Is(err, resvSvc.ErrInsufficientSeparated):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
