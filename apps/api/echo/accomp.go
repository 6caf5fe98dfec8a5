package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/osdops/sdutrack/core"
	"github.com/osdops/sdutrack/core/accomp"
	"github.com/osdops/sdutrack/core/user"
)

type accompApi struct {
	svc      accomp.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerAccompAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc accomp.Service, usrSvc user.Service, validate *validator.Validate) {
	api := accompApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	ag := g.Group("/accomplishments", jwt)
	ag.POST("", api.submit)
	ag.GET("/rubrics/:category", api.retrieveRubric)

	// per-organization endpoints
	og := ag.Group("/org/:id", orgMemberOrAdminMiddleware())
	og.GET("", api.queryByOrg)
	og.GET("/total", api.retrieveTotal)
	og.POST("/total/recompute", api.recomputeTotal, adminMiddleware())

	// detail endpoints
	dg := ag.Group("/:id")
	dg.GET("", api.retrieve)
	dg.POST("/documents", api.attachDocument)
	dg.GET("/completeness", api.completeness)
	dg.POST("/grade", api.grade, adminMiddleware())
}

// Handlers

func (api *accompApi) submit(ctx echo.Context) error {
	var data SubmitAccompRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitAccompRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	// non-admins may only submit for their own organization
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && claims.OrgID != data.OrgID {
		return errHttpForbidden
	}

	s, err := api.svc.Submit(ctx.Request().Context(), accomp.NewSubAccomplishment{
		OrgID:    data.OrgID,
		Category: accomp.Category(data.Category),
		Title:    data.Title,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *accompApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *accompApi) queryByOrg(ctx echo.Context) error {
	subs, err := api.svc.QueryByOrg(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying sub-accomplishments")
	}
	if subs == nil {
		subs = []accomp.SubAccomplishment{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *accompApi) attachDocument(ctx echo.Context) error {
	var data AttachDocumentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AttachDocumentRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.AttachDocument(ctx.Request().Context(), ctx.Param("id"), accomp.Document{
		Label:    data.Label,
		FileName: data.FileName,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *accompApi) grade(ctx echo.Context) error {
	var data GradeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	s, err := api.svc.GradeSub(ctx.Request().Context(), accomp.GradeInput{
		SubAccomplishmentID: ctx.Param("id"),
		Breakdown:           data.Breakdown,
		Comments:            data.Comments,
		GradedBy:            claims.Username,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *accompApi) completeness(ctx echo.Context) error {
	c, err := api.svc.Completeness(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *accompApi) retrieveTotal(ctx echo.Context) error {
	acc, err := api.svc.GetAccomplishment(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *accompApi) recomputeTotal(ctx echo.Context) error {
	acc, err := api.svc.RecomputeGrandTotal(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *accompApi) retrieveRubric(ctx echo.Context) error {
	category := accomp.Category(ctx.Param("category"))
	rubric, ok := accomp.RubricFor(category)
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, RubricResponse{
		Category:  category,
		Label:     category.Label(),
		Rubric:    rubric,
		Checklist: accomp.ChecklistFor(category),
	})
}

type (
	SubmitAccompRequest struct {
		OrgID    string `json:"org_id" validate:"required"`
		Category string `json:"category" validate:"required"`
		Title    string `json:"title" validate:"required"`
	}

	AttachDocumentRequest struct {
		Label    string `json:"label" validate:"required"`
		FileName string `json:"file_name"`
	}

	GradeRequest struct {
		Breakdown map[string]int `json:"breakdown" validate:"required"`
		Comments  string         `json:"comments"`
	}

	RubricResponse struct {
		Category  accomp.Category       `json:"category"`
		Label     string                `json:"label"`
		Rubric    accomp.Rubric         `json:"rubric"`
		Checklist []accomp.ChecklistDoc `json:"checklist"`
	}
)

func (sr *SubmitAccompRequest) Validate(validate *validator.Validate) error {
	sr.Category = core.CleanString(sr.Category, true /* lower */)
	sr.Title = core.CleanString(sr.Title)
	return validate.Struct(sr)
}

func (ar *AttachDocumentRequest) Validate(validate *validator.Validate) error {
	ar.Label = core.CleanString(ar.Label)
	ar.FileName = core.CleanString(ar.FileName)
	return validate.Struct(ar)
}

func (gr *GradeRequest) Validate(validate *validator.Validate) error {
	gr.Comments = core.CleanString(gr.Comments)
	return validate.Struct(gr)
}
