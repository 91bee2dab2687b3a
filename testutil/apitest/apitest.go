// Package apitest serves the API over an in-memory database, for the tests of its clients.
package apitest

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/masomo-admin/apps/api/echo"
	"github.com/trezcool/masomo-admin/client"
	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/user"
	"github.com/trezcool/masomo-admin/domain/catalog"
	appfs "github.com/trezcool/masomo-admin/fs"
	emailsvc "github.com/trezcool/masomo-admin/services/email"
	"github.com/trezcool/masomo-admin/storage/cache"
	dummydb "github.com/trezcool/masomo-admin/storage/database/dummy"
	"github.com/trezcool/masomo-admin/testutil"
)

// AdminPassword is the password of Server.Admin.
const AdminPassword = "Kin$hasa-2021"

type Server struct {
	*httptest.Server
	Conf    *core.Config
	UsrRepo user.Repository
	MailSvc *emailsvc.ConsoleService

	Admin   user.User // t1
	Student user.User // t1
}

// Serve starts the API, closed when the test ends.
func Serve(t *testing.T) *Server {
	t.Helper()
	conf := testutil.Config()

	validate, translator := testutil.Validator()
	pwds, err := appfs.CommonPasswords()
	require.NoError(t, err)
	defer pwds.Close()
	require.NoError(t, user.InitValidators(validate, translator, pwds))

	db, err := dummydb.Open()
	require.NoError(t, err)
	backend := catalog.Backend{Dummy: db}

	s := &Server{
		Conf:    conf,
		UsrRepo: backend.UserRepository(),
		MailSvc: testutil.EmailService(),
	}
	cat := catalog.New(backend, s.MailSvc, resource.Options{
		Validate:    validate,
		Translator:  translator,
		Cache:       listing.NewQueryCache(cache.NewMemoryStore(conf.Cache.MaxSize), conf.Cache.TTL),
		Logger:      &testutil.NopLogger{},
		MaxPageSize: conf.Listing.MaxPageSize,
	})
	app := echoapi.NewServer(&echoapi.Options{
		Conf:           conf,
		DisableReqLogs: true,
		Catalog:        cat,
		UserSvc:        user.NewService(s.UsrRepo),
		Validate:       validate,
		Translator:     translator,
		Logger:         &testutil.NopLogger{},
	})
	s.Server = httptest.NewServer(app)
	t.Cleanup(s.Close)

	s.Admin = testutil.CreateUser(t, s.UsrRepo, "t1", "Admin", "admin", "admin@test.cd", AdminPassword, []string{user.RoleAdmin}, true)
	s.Student = testutil.CreateUser(t, s.UsrRepo, "t1", "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	return s
}

// Token returns a valid token of usr.
func (s *Server) Token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(s.Conf, echoapi.GetUserClaims(s.Conf, usr))
	require.NoError(t, err)
	return token
}

// Client returns a client authenticated as usr.
func (s *Server) Client(t *testing.T, usr user.User) *client.Client {
	t.Helper()
	c := client.New(s.URL, s.Server.Client())
	c.SetToken(s.Token(t, usr))
	return c
}
