package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/osdops/sdutrack/core"
	"github.com/osdops/sdutrack/core/org"
	"github.com/osdops/sdutrack/core/user"
)

type orgApi struct {
	svc      org.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerOrgAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc org.Service, usrSvc user.Service, validate *validator.Validate) {
	api := orgApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	og := g.Group("/orgs", jwt)
	og.POST("", api.register, adminMiddleware())
	og.GET("", api.query, adminMiddleware())

	// requirement endpoints; reviews are SDU-only
	rg := og.Group("/requirements")
	rg.GET("/:id", api.retrieveRequirement)
	rg.POST("/:id/transition", api.transition, adminMiddleware())

	// detail endpoints
	dg := og.Group("/:id", orgMemberOrAdminMiddleware())
	dg.GET("", api.retrieve)
	dg.POST("/deactivate", api.deactivate, adminMiddleware())
	dg.GET("/requirements", api.queryRequirements)
	dg.GET("/accreditation", api.retrieveAccreditation)
	dg.POST("/accreditation/recompute", api.recompute, adminMiddleware())
}

// Handlers

func (api *orgApi) register(ctx echo.Context) error {
	var data RegisterOrgRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RegisterOrgRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	o, err := api.svc.Register(ctx.Request().Context(), org.NewOrganization{
		Name:    data.Name,
		Acronym: data.Acronym,
		Email:   data.Email,
	})
	if err != nil {
		return errors.Wrap(err, "registering organization")
	}
	return ctx.JSON(http.StatusCreated, o)
}

func (api *orgApi) query(ctx echo.Context) error {
	orgs, err := api.svc.QueryAllOrganizations(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying organizations")
	}
	if orgs == nil {
		orgs = []org.Organization{}
	}
	return ctx.JSON(http.StatusOK, orgs)
}

func (api *orgApi) retrieve(ctx echo.Context) error {
	o, err := api.svc.GetOrganization(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, o)
}

func (api *orgApi) deactivate(ctx echo.Context) error {
	o, err := api.svc.Deactivate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, o)
}

func (api *orgApi) queryRequirements(ctx echo.Context) error {
	reqs, err := api.svc.QueryRequirements(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying requirements")
	}
	if reqs == nil {
		reqs = []org.Requirement{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *orgApi) retrieveRequirement(ctx echo.Context) error {
	req, err := api.svc.GetRequirement(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *orgApi) transition(ctx echo.Context) error {
	var data TransitionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TransitionRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	req, err := api.svc.TransitionStatus(ctx.Request().Context(), org.TransitionInput{
		RequirementID: ctx.Param("id"),
		NewStatus:     org.Status(data.NewStatus),
		Actor:         claims.Username,
		Role:          "SDU Officer",
		RevisionNotes: data.RevisionNotes,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *orgApi) retrieveAccreditation(ctx echo.Context) error {
	acc, err := api.svc.GetAccreditation(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *orgApi) recompute(ctx echo.Context) error {
	acc, err := api.svc.RecomputeAccreditationStatus(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, acc)
}

type (
	RegisterOrgRequest struct {
		Name    string `json:"name" validate:"required"`
		Acronym string `json:"acronym"`
		Email   string `json:"email" validate:"omitempty,email"`
	}

	TransitionRequest struct {
		NewStatus     string `json:"new_status" validate:"required"`
		RevisionNotes string `json:"revision_notes"`
	}
)

func (rr *RegisterOrgRequest) Validate(validate *validator.Validate) error {
	rr.Name = core.CleanString(rr.Name)
	rr.Email = core.CleanString(rr.Email, true /* lower */)
	return validate.Struct(rr)
}

func (tr *TransitionRequest) Validate(validate *validator.Validate) error {
	tr.NewStatus = core.CleanString(tr.NewStatus, true /* lower */)
	tr.RevisionNotes = core.CleanString(tr.RevisionNotes)
	return validate.Struct(tr)
}
