package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core/finance"
)

const mimeTextCSV = "text/csv; charset=utf-8"

type summaryApi struct {
	svc      *finance.Service
	validate *validator.Validate
}

func registerSummaryAPI(g *echo.Group, svc *finance.Service, validate *validator.Validate) {
	api := summaryApi{svc: svc, validate: validate}

	sg := g.Group("/summary")
	sg.GET("/monthly", api.monthly)
	sg.GET("/monthly/csv", api.monthlyCSV)
	sg.GET("/overall", api.overall)
}

func (api *summaryApi) bindPeriod(ctx echo.Context) (finance.Period, error) {
	var p finance.Period
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &p); err != nil {
		return p, errors.Wrap(err, "binding to Period")
	}
	if err := p.Validate(api.validate); err != nil {
		return p, err
	}
	return p, nil
}

func (api *summaryApi) monthly(ctx echo.Context) error {
	p, err := api.bindPeriod(ctx)
	if err != nil {
		return err
	}
	sum, err := api.svc.Monthly(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "computing monthly summary")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *summaryApi) monthlyCSV(ctx echo.Context) error {
	p, err := api.bindPeriod(ctx)
	if err != nil {
		return err
	}
	rep, err := api.svc.MonthlyReport(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "building monthly report")
	}

	var buf bytes.Buffer
	if err = rep.WriteCSV(&buf); err != nil {
		return err
	}
	filename := fmt.Sprintf("report-%d-%s.csv", p.Year, p.Month)
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, mimeTextCSV, buf.Bytes())
}

func (api *summaryApi) overall(ctx echo.Context) error {
	sum, err := api.svc.Overall(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing overall summary")
	}
	return ctx.JSON(http.StatusOK, sum)
}
