package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-admin/client"
	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
	"github.com/trezcool/masomo-admin/core/tenant"
	"github.com/trezcool/masomo-admin/domain/academics"
	"github.com/trezcool/masomo-admin/testutil/apitest"
)

func newSchool(name, code, city string, students int) academics.School {
	return academics.School{Name: name, Code: code, City: city, StudentCount: students, Status: academics.SchoolActive}
}

func TestClient_Login(t *testing.T) {
	f := apitest.Serve(t)
	ctx := context.Background()

	t.Run("wrong password", func(t *testing.T) {
		c := client.New(f.URL, f.Server.Client())
		err := c.Login(ctx, "admin", "lol")
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "got %v", err)
		assert.Equal(t, "authentication failed", vErr.Error())
		assert.Empty(t, c.Token())
	})

	t.Run("logged in", func(t *testing.T) {
		c := client.New(f.URL, f.Server.Client())
		require.NoError(t, c.Login(ctx, "admin", apitest.AdminPassword))
		assert.NotEmpty(t, c.Token())

		infos, err := c.Resources(ctx)
		require.NoError(t, err)
		assert.Contains(t, infos, client.Info{Name: "schools", Title: "Schools"})
	})
}

func TestClient_unauthorized(t *testing.T) {
	f := apitest.Serve(t)
	c := client.New(f.URL, f.Server.Client())

	_, err := c.Resources(context.Background())
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "missing or malformed jwt", apiErr.Message)
}

func TestClient_Meta(t *testing.T) {
	f := apitest.Serve(t)
	ctx := context.Background()

	meta, err := f.Client(t, f.Admin).Meta(ctx, "schools")
	require.NoError(t, err)
	assert.Equal(t, "schools", meta.Name)
	assert.Equal(t, "name", meta.DefaultOrdering)
	assert.True(t, meta.Writable)

	status, ok := meta.Column("status")
	require.True(t, ok)
	assert.Equal(t, "success", status.Variants[string(academics.SchoolActive)])
	assert.Equal(t, "danger", status.Variants[string(academics.SchoolSuspended)])

	_, err = f.Client(t, f.Admin).Meta(ctx, "spaceships")
	assert.True(t, core.IsNotFound(err))
}

func TestResource_crud(t *testing.T) {
	f := apitest.Serve(t)
	ctx := context.Background()
	schools := client.NewResource[academics.School](f.Client(t, f.Admin), "schools")

	t.Run("invalid", func(t *testing.T) {
		_, err := schools.Create(ctx, newSchool("", "B-R-A", "Goma", 10))
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "got %v", err)
		flds := vErr.FieldMap()
		assert.Contains(t, flds, "name")
		assert.Contains(t, flds, "code")
	})

	created, err := schools.Create(ctx, newSchool("Lycee Wima", "WIMA", "Kinshasa", 500))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "WIMA", created.Code)

	got, err := schools.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)

	got.City = "Goma"
	updated, err := schools.Update(ctx, created.ID, got)
	require.NoError(t, err)
	assert.Equal(t, "Goma", updated.City)

	_, err = schools.Update(ctx, "nope", got)
	assert.True(t, core.IsNotFound(err), "got %v", err)
	assert.True(t, listing.IsNotFound(err))

	t.Run("read only", func(t *testing.T) {
		_, err := client.NewResource[academics.School](f.Client(t, f.Student), "schools").Create(ctx, newSchool("X", "X", "", 0))
		var apiErr *client.APIError
		require.True(t, errors.As(err, &apiErr), "got %v", err)
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	})

	deleted, err := schools.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = schools.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestResource_List(t *testing.T) {
	f := apitest.Serve(t)
	ctx := context.Background()
	schools := client.NewResource[academics.School](f.Client(t, f.Admin), "schools")

	for _, s := range []academics.School{
		newSchool("Athenee Royal", "AR", "Kinshasa", 1200),
		newSchool("Institut Bonsomi", "IB", "Kinshasa", 300),
		newSchool("College Imara", "CI", "Goma", 800),
	} {
		_, err := schools.Create(ctx, s)
		require.NoError(t, err)
	}

	names := func(rows []academics.School) []string {
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.Name)
		}
		return out
	}

	tests := []struct {
		name      string
		query     listing.Query
		wantNames []string
		wantCount int
	}{
		{
			name:      "default ordering",
			query:     listing.Query{PageSize: 10},
			wantNames: []string{"Athenee Royal", "College Imara", "Institut Bonsomi"},
			wantCount: 3,
		},
		{
			name:      "filtered",
			query:     listing.Query{Filters: listing.Filters{"city": listing.Eq("Kinshasa")}, PageSize: 10},
			wantNames: []string{"Athenee Royal", "Institut Bonsomi"},
			wantCount: 2,
		},
		{
			name: "range and ordering",
			query: listing.Query{
				Filters:  listing.Filters{"student_count": listing.Range("500", "")},
				Ordering: []core.DBOrdering{{Field: "student_count"}},
				PageSize: 10,
			},
			wantNames: []string{"Athenee Royal", "College Imara"},
			wantCount: 2,
		},
		{
			name:      "second page",
			query:     listing.Query{Page: 1, PageSize: 2},
			wantNames: []string{"Institut Bonsomi"},
			wantCount: 3,
		},
		{
			name:      "search",
			query:     listing.Query{Filters: listing.Filters{listing.SearchKey: listing.Eq("imara")}, PageSize: 10},
			wantNames: []string{"College Imara"},
			wantCount: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := schools.List(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNames, names(res.Rows))
			assert.Equal(t, tt.wantCount, res.Count)
		})
	}

	t.Run("rows", func(t *testing.T) {
		res, err := client.NewResource[client.Row](f.Client(t, f.Admin), "schools").List(ctx, listing.Query{PageSize: 1})
		require.NoError(t, err)
		require.Len(t, res.Rows, 1)
		assert.NotEmpty(t, res.Rows[0].RecordID())
		assert.Equal(t, "Athenee Royal", res.Rows[0]["name"])
	})

	t.Run("export", func(t *testing.T) {
		data, err := schools.Export(ctx, listing.Filters{"city": listing.Eq("Goma")}, nil)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[1], "College Imara")
	})
}

func TestResource_asDataSource(t *testing.T) {
	f := apitest.Serve(t)
	ctx := context.Background()
	schools := client.NewResource[academics.School](f.Client(t, f.Admin), "schools")

	var ids []string
	for _, s := range []academics.School{
		newSchool("Athenee Royal", "AR", "Kinshasa", 1200),
		newSchool("College Imara", "CI", "Goma", 800),
	} {
		created, err := schools.Create(ctx, s)
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	page := listing.NewPage[academics.School](schools, listing.PageOptions[academics.School]{
		Resource:  "schools",
		PageSize:  10,
		Confirmer: yes{},
	})
	res, err := page.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	require.NoError(t, page.Select(ids...))
	require.NoError(t, page.Dispatcher.Bulk(ctx, listing.PatchAction("relocate", listing.Patch{"city": "Bukavu"})))
	for _, row := range page.Rows() {
		assert.Equal(t, "Bukavu", row.City)
	}

	ok, err := schools.BulkUpdate(ctx, []string{"nope"}, listing.Patch{"city": "Goma"})
	require.NoError(t, err)
	assert.False(t, ok)
}

type yes struct{}

func (yes) Confirm(context.Context, string) (bool, error) { return true, nil }

func TestClient_headers(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "boom"}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL, srv.Client())
	c.SetToken("token")
	_, err := c.Meta(tenant.With(context.Background(), "t1"), "schools")

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Message)
	assert.Equal(t, "Bearer token", got.Get("Authorization"))
	assert.Equal(t, "t1", got.Get(tenant.HeaderName))
}
