package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core/donation"
)

type donationApi struct {
	svc      *donation.Service
	validate *validator.Validate
}

func registerDonationAPI(g *echo.Group, svc *donation.Service, validate *validator.Validate) {
	api := donationApi{svc: svc, validate: validate}

	g.GET("/donations", api.query)
	g.POST("/donations", api.accumulate)
	g.GET("/additional", api.counters)
}

func (api *donationApi) query(ctx echo.Context) error {
	ledger, err := api.svc.Ledger(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying donations")
	}
	return ctx.JSON(http.StatusOK, ledger)
}

func (api *donationApi) accumulate(ctx echo.Context) error {
	var data donation.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.Accumulate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "accumulating donation")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: fmt.Sprintf(
			"%s of %.2f recorded for member %s in %s %d (donation %.2f, fine %.2f)",
			data.Kind, float64(data.Amount), data.RollNo, data.Month, data.Year, entry.Donation, entry.Fine,
		),
	})
}

func (api *donationApi) counters(ctx echo.Context) error {
	counters, err := api.svc.Counters(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying counters")
	}
	return ctx.JSON(http.StatusOK, counters)
}
