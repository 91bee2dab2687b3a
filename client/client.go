// Package client talks to the Masomo Admin HTTP API.
// Resource exposes a remote resource as a listing.DataSource, so that lists are managed
// against the API exactly like against an in-process resource.Service.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/tenant"
)

const apiPrefix = "/v1"

type (
	// Info names a resource the user may list.
	Info struct {
		Name  string `json:"name"`
		Title string `json:"title"`
	}

	// Meta describes the columns and the actions of a resource.
	Meta struct {
		Info
		Columns         []resource.ColumnInfo `json:"columns"`
		DefaultOrdering string                `json:"default_ordering"`
		Actions         []string              `json:"actions"`
		Writable        bool                  `json:"writable"`
	}

	// APIError is returned for every failed request not mapped to a core error.
	APIError struct {
		StatusCode int
		Message    string
	}
)

func (err *APIError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("api: %d %s", err.StatusCode, http.StatusText(err.StatusCode))
	}
	return fmt.Sprintf("api: %d %s", err.StatusCode, err.Message)
}

// Column returns the column named name.
func (m Meta) Column(name string) (resource.ColumnInfo, bool) {
	for _, col := range m.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return resource.ColumnInfo{}, false
}

type Client struct {
	rc      *rest.Client
	baseURL string
	token   string
}

// New returns a client of the API served at baseURL, e.g. "http://localhost:8000".
// A nil httpClient means http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		rc:      &rest.Client{HTTPClient: httpClient},
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// SetToken sets the JWT sent along every request.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) Token() string { return c.token }

// Login authenticates the user and keeps the returned token.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.send(ctx, rest.Post, "/users/login", nil, body, &resp); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

// Resources lists the resources the user may read.
func (c *Client) Resources(ctx context.Context) ([]Info, error) {
	var infos []Info
	if err := c.send(ctx, rest.Get, "/resources", nil, nil, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

func (c *Client) Meta(ctx context.Context, name string) (Meta, error) {
	var meta Meta
	err := c.send(ctx, rest.Get, "/"+name+"/meta", nil, nil, &meta)
	return meta, err
}

// request performs the request and returns the successful response,
// failed responses are turned into errors by decodeError.
func (c *Client) request(ctx context.Context, method rest.Method, path string, params map[string]string, body interface{}) (*rest.Response, error) {
	req := rest.Request{
		Method:      method,
		BaseURL:     c.baseURL + apiPrefix + path,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: params,
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		req.Body = data
		req.Headers["Content-Type"] = "application/json"
	}
	if c.token != "" {
		req.Headers["Authorization"] = "Bearer " + c.token
	}
	if tid := tenant.FromContext(ctx); tid != "" {
		req.Headers[tenant.HeaderName] = tid
	}

	resp, err := c.rc.SendWithContext(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method rest.Method, path string, params map[string]string, body, dst interface{}) error {
	resp, err := c.request(ctx, method, path, params, body)
	if err != nil {
		return err
	}
	if dst == nil {
		return nil
	}
	if err = json.Unmarshal([]byte(resp.Body), dst); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, path)
	}
	return nil
}

// decodeError maps the API error responses back to the errors the server started from:
// 404 to core.ErrNotFound and 400 field maps to *core.ValidationError.
func decodeError(resp *rest.Response) error {
	var data map[string]interface{}
	_ = json.Unmarshal([]byte(resp.Body), &data)

	msg, hasMsg := data["error"].(string)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		if !hasMsg || msg == core.ErrNotFound.Error() {
			return core.ErrNotFound
		}
		return errors.Wrap(core.ErrNotFound, msg)

	case resp.StatusCode == http.StatusBadRequest && len(data) > 0 && !(hasMsg && len(data) == 1):
		flds := make([]core.FieldError, 0, len(data))
		for field, fErr := range data {
			flds = append(flds, core.FieldError{Field: field, Error: fmt.Sprint(fErr)})
		}
		sort.Slice(flds, func(i, j int) bool { return flds[i].Field < flds[j].Field })
		return core.NewValidationError(nil, flds...)

	case resp.StatusCode == http.StatusBadRequest && hasMsg:
		return core.NewValidationError(errors.New(msg))
	}

	if !hasMsg {
		msg = strings.TrimSpace(resp.Body)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
