package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core/expense"
)

type expenseApi struct {
	svc      *expense.Service
	validate *validator.Validate
}

func registerExpenseAPI(g *echo.Group, svc *expense.Service, validate *validator.Validate) {
	api := expenseApi{svc: svc, validate: validate}

	eg := g.Group("/expenses")
	eg.GET("", api.query)
	eg.POST("", api.create)
	eg.POST("/delete", api.destroy)
}

func (api *expenseApi) query(ctx echo.Context) error {
	ledger, err := api.svc.Ledger(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying expenses")
	}
	return ctx.JSON(http.StatusOK, ledger)
}

func (api *expenseApi) create(ctx echo.Context) error {
	var data expense.NewItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewItem")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.Append(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "adding expense")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: fmt.Sprintf("expense of %.2f recorded in %s %d", float64(data.Amount), data.Month, data.Year),
	})
}

func (api *expenseApi) destroy(ctx echo.Context) error {
	var data expense.DeleteItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteItem")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	item, err := api.svc.Delete(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "deleting expense")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: fmt.Sprintf("expense %q of %.2f deleted from %s %d", item.Description, item.Amount, data.Month, data.Year),
	})
}
