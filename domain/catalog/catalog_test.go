package catalog_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-admin/core/listing"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/tenant"
	"github.com/trezcool/masomo-admin/domain/academics"
	"github.com/trezcool/masomo-admin/domain/catalog"
	dummydb "github.com/trezcool/masomo-admin/storage/database/dummy"
	"github.com/trezcool/masomo-admin/testutil"
)

func newCatalog(t *testing.T, b catalog.Backend) *catalog.Catalog {
	validate, translator := testutil.Validator()
	return catalog.New(b, testutil.EmailService(), resource.Options{
		Validate:    validate,
		Translator:  translator,
		Logger:      &testutil.NopLogger{},
		MaxPageSize: 100,
	})
}

func count(t *testing.T, res interface{}) int {
	t.Helper()
	data, err := json.Marshal(res)
	require.NoError(t, err)
	var page struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(data, &page))
	return page.Count
}

func TestCatalog(t *testing.T) {
	dummy, err := dummydb.Open()
	require.NoError(t, err)

	backends := []struct {
		name    string
		backend catalog.Backend
	}{
		{name: "sql", backend: catalog.Backend{SQL: testutil.OpenDB(t)}},
		{name: "dummy", backend: catalog.Backend{Dummy: dummy}},
	}
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			cat := newCatalog(t, b.backend)
			ctx := tenant.With(context.Background(), "t1")

			assert.Equal(t, []string{
				"books", "exams", "inquiries", "invoices", "rooms",
				"routes", "schools", "sections", "tickets", "vehicles",
			}, cat.Names())

			for _, name := range cat.Names() {
				ep, ok := cat.Endpoint(name)
				require.True(t, ok, name)
				assert.Equal(t, name, ep.Schema().Name)

				res, err := ep.List(ctx, listing.Query{PageSize: 10})
				require.NoError(t, err, name)
				assert.Equal(t, 0, count(t, res), name)
			}

			inv, _ := cat.Endpoint("invoices")
			assert.Equal(t, []string{"remind"}, inv.Actions())
			tickets, _ := cat.Endpoint("tickets")
			assert.Equal(t, []string{"assign"}, tickets.Actions())

			_, ok := cat.Endpoint("spaceships")
			assert.False(t, ok)

			created, err := cat.Schools.Create(ctx, academics.School{Name: "Lycee Wima", Code: "WIMA", Status: academics.SchoolActive})
			require.NoError(t, err)
			schools, _ := cat.Endpoint("schools")
			res, err := schools.List(ctx, listing.Query{PageSize: 10})
			require.NoError(t, err)
			assert.Equal(t, 1, count(t, res))

			// tenants do not see each other's rows
			res, err = schools.List(tenant.With(context.Background(), "t2"), listing.Query{PageSize: 10})
			require.NoError(t, err)
			assert.Equal(t, 0, count(t, res))

			ok, err = schools.Delete(ctx, created.ID)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}

	t.Run("users", func(t *testing.T) {
		for _, b := range backends {
			usr := testutil.CreateUser(t, b.backend.UserRepository(), "t1", "Admin", "admin_"+b.name, b.name+"@test.cd", "", nil, true)
			got, err := b.backend.UserRepository().GetUserByID(context.Background(), usr.ID)
			require.NoError(t, err)
			assert.Equal(t, usr.Username, got.Username)
		}
	})
}
