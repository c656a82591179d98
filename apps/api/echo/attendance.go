package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/core/attendance"
)

type attendanceApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, svc *attendance.Service, validate *validator.Validate) {
	api := attendanceApi{svc: svc, validate: validate}

	ag := g.Group("/attendance")
	ag.GET("", api.query)
	ag.POST("", api.mark)
	ag.POST("/delete", api.unmark)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	ledger, err := api.svc.Ledger(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, ledger)
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.Marking
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Marking")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.Mark(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: fmt.Sprintf("attendance marked for %d member(s) on %s %s %d", len(data.RollNumbers), data.Day, data.Month, data.Year),
	})
}

func (api *attendanceApi) unmark(ctx echo.Context) error {
	var data attendance.Marking
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Marking")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	removed, err := api.svc.Unmark(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "unmarking attendance")
	}
	return ctx.JSON(http.StatusOK, UnmarkResponse{
		Success: true,
		Deleted: removed,
		Message: fmt.Sprintf("attendance removed for %d member(s) on %s %s %d", len(removed), data.Day, data.Month, data.Year),
	})
}

// Responses

type (
	SuccessResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	UnmarkResponse struct {
		Success bool          `json:"success"`
		Deleted []core.RollNo `json:"deleted"`
		Message string        `json:"message"`
	}
)
