package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/domain/catalog"
)

type resourceApi struct {
	catalog         *catalog.Catalog
	defaultPageSize int
}

func registerResourceAPI(g *echo.Group, jwt echo.MiddlewareFunc, cat *catalog.Catalog, conf *core.Config) {
	api := resourceApi{
		catalog:         cat,
		defaultPageSize: conf.Listing.DefaultPageSize,
	}

	g.GET("/resources", api.index, jwt, tenantMiddleware)

	rg := g.Group("/:resource", jwt, tenantMiddleware, api.endpointMiddleware, readMiddleware)
	rg.GET("", api.query)
	rg.GET("/meta", api.meta)
	rg.GET("/export", api.export)
	rg.POST("", api.create, writeMiddleware)
	rg.PATCH("", api.bulkUpdate, writeMiddleware)

	// detail endpoints
	rg.GET("/:id", api.retrieve)
	rg.PUT("/:id", api.update, writeMiddleware)
	rg.DELETE("/:id", api.destroy, writeMiddleware)
	rg.POST("/:id/actions/:action", api.do, writeMiddleware)
}

func (api *resourceApi) endpointMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ep, ok := api.catalog.Endpoint(ctx.Param("resource"))
		if !ok {
			return errHttpNotFound
		}
		ctx.Set(contextEndpointKey, ep)
		return next(ctx)
	}
}

// Handlers

func (api *resourceApi) index(ctx echo.Context) error {
	infos := make([]ResourceInfo, 0)
	for _, name := range api.catalog.Names() {
		ep, _ := api.catalog.Endpoint(name)
		if schema := ep.Schema(); contextHasAnyRole(ctx, schema.WriteRoles) || isStaff(ctx) {
			infos = append(infos, ResourceInfo{Name: schema.Name, Title: schema.Title})
		}
	}
	return ctx.JSON(http.StatusOK, infos)
}

func (api *resourceApi) meta(ctx echo.Context) error {
	ep := contextEndpoint(ctx)
	schema := ep.Schema()
	return ctx.JSON(http.StatusOK, ResourceMeta{
		ResourceInfo:    ResourceInfo{Name: schema.Name, Title: schema.Title},
		Columns:         ep.Columns(),
		DefaultOrdering: core.FormatOrdering(schema.DefaultOrdering),
		Actions:         ep.Actions(),
		Writable:        contextHasAnyRole(ctx, schema.WriteRoles),
	})
}

func (api *resourceApi) query(ctx echo.Context) error {
	ep := contextEndpoint(ctx)
	q, err := bindQuery(ctx, ep.Schema(), api.defaultPageSize)
	if err != nil {
		return err
	}
	res, err := ep.List(ctx.Request().Context(), q)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *resourceApi) export(ctx echo.Context) error {
	ep := contextEndpoint(ctx)
	var buf bytes.Buffer
	err := ep.Export(ctx.Request().Context(), bindFilters(ctx, ep.Schema()), bindOrdering(ctx), &buf)
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+ep.Schema().Name+`.csv"`)
	return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (api *resourceApi) create(ctx echo.Context) error {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading body")
	}
	e, err := contextEndpoint(ctx).Create(ctx.Request().Context(), body)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *resourceApi) retrieve(ctx echo.Context) error {
	e, err := contextEndpoint(ctx).Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *resourceApi) update(ctx echo.Context) error {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading body")
	}
	e, err := contextEndpoint(ctx).Update(ctx.Request().Context(), ctx.Param("id"), body)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *resourceApi) destroy(ctx echo.Context) error {
	ok, err := contextEndpoint(ctx).Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, DeleteResponse{Deleted: ok})
}

func (api *resourceApi) bulkUpdate(ctx echo.Context) error {
	var data BulkUpdateRequest
	if err := json.NewDecoder(ctx.Request().Body).Decode(&data); err != nil {
		return core.NewValidationError(errors.Wrap(err, "decoding BulkUpdateRequest"))
	}
	if len(data.Patch) == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "patch", Error: "this field is required"})
	}
	ok, err := contextEndpoint(ctx).BulkUpdate(ctx.Request().Context(), data.IDs, data.Patch)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, BulkUpdateResponse{Updated: ok})
}

func (api *resourceApi) do(ctx echo.Context) error {
	// params are optional
	var params listing.Patch
	if err := json.NewDecoder(ctx.Request().Body).Decode(&params); err != nil && err != io.EOF {
		return core.NewValidationError(errors.Wrap(err, "decoding action params"))
	}
	e, err := contextEndpoint(ctx).Do(ctx.Request().Context(), ctx.Param("action"), ctx.Param("id"), params)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func isStaff(ctx echo.Context) bool {
	claims, err := getContextClaims(ctx)
	return err == nil && claims.IsStaff
}

type (
	ResourceInfo struct {
		Name  string `json:"name"`
		Title string `json:"title"`
	}

	ResourceMeta struct {
		ResourceInfo
		Columns         []resource.ColumnInfo `json:"columns"`
		DefaultOrdering string                `json:"default_ordering"`
		Actions         []string              `json:"actions"`
		Writable        bool                  `json:"writable"`
	}

	DeleteResponse struct {
		Deleted bool `json:"deleted"`
	}

	BulkUpdateRequest struct {
		IDs   []string      `json:"ids"`
		Patch listing.Patch `json:"patch"`
	}

	BulkUpdateResponse struct {
		Updated bool `json:"updated"`
	}
)
