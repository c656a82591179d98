package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/core/member"
)

type memberApi struct {
	svc      *member.Service
	images   ImageStore
	validate *validator.Validate
}

func registerMemberAPI(g *echo.Group, svc *member.Service, images ImageStore, validate *validator.Validate) {
	api := memberApi{
		svc:      svc,
		images:   images,
		validate: validate,
	}

	mg := g.Group("/members")
	mg.GET("", api.query)
	mg.POST("", api.upsert)
	mg.POST("/delete", api.destroyByBody)

	// detail endpoints
	mg.GET("/:roll_no", api.retrieve)
	mg.PUT("/:roll_no", api.update)
	mg.DELETE("/:roll_no", api.destroy)
}

// Handlers

func (api *memberApi) query(ctx echo.Context) error {
	members, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *memberApi) retrieve(ctx echo.Context) error {
	rollNo, err := bindRollNo(ctx)
	if err != nil {
		return err
	}
	mbr, err := api.svc.Get(ctx.Request().Context(), rollNo)
	if err != nil {
		return errors.Wrap(err, "getting member")
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *memberApi) upsert(ctx echo.Context) error {
	var data member.NewMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMember")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ref, err := bindImage(ctx, api.images)
	if err != nil {
		return err
	}
	data.ImageRef = ref

	mbr, created, err := api.svc.Upsert(ctx.Request().Context(), data)
	if err != nil {
		api.discardImage(ref)
		return errors.Wrap(err, "upserting member")
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, MemberResponse{Member: mbr})
}

func (api *memberApi) update(ctx echo.Context) error {
	rollNo, err := bindRollNo(ctx)
	if err != nil {
		return err
	}
	var data member.UpdateMember
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMember")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	ref, err := bindImage(ctx, api.images)
	if err != nil {
		return err
	}
	data.ImageRef = ref

	mbr, err := api.svc.Update(ctx.Request().Context(), rollNo, data)
	if err != nil {
		api.discardImage(ref)
		return errors.Wrap(err, "updating member")
	}
	return ctx.JSON(http.StatusOK, MemberResponse{Member: mbr})
}

func (api *memberApi) destroyByBody(ctx echo.Context) error {
	var data DeleteMemberRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteMemberRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	return api.softDelete(ctx, data.RollNo)
}

func (api *memberApi) destroy(ctx echo.Context) error {
	rollNo, err := bindRollNo(ctx)
	if err != nil {
		return err
	}
	return api.softDelete(ctx, rollNo)
}

func (api *memberApi) softDelete(ctx echo.Context, rollNo core.RollNo) error {
	_, removed, err := api.svc.SoftDelete(ctx.Request().Context(), rollNo)
	if err != nil {
		return errors.Wrap(err, "deleting member")
	}
	return ctx.JSON(http.StatusOK, DeleteMemberResponse{
		Success:      true,
		Message:      fmt.Sprintf("member %s deleted, %.2f removed from the donations ledger", rollNo, removed),
		RemovedTotal: removed,
	})
}

// discardImage removes a photo stored for a request that failed.
func (api *memberApi) discardImage(ref string) {
	if ref != "" && api.images != nil {
		_ = api.images.Remove(ref)
	}
}

// Requests & Responses

type (
	MemberResponse struct {
		Member member.Member `json:"member"`
	}

	DeleteMemberRequest struct {
		RollNo core.RollNo `json:"rollNo" form:"rollNo" validate:"required"`
	}

	DeleteMemberResponse struct {
		Success      bool    `json:"success"`
		Message      string  `json:"message"`
		RemovedTotal float64 `json:"removedTotal"`
	}
)
