package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/masomo-admin/apps/api/echo"
	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/tenant"
	"github.com/trezcool/masomo-admin/core/user"
	"github.com/trezcool/masomo-admin/domain/catalog"
	appfs "github.com/trezcool/masomo-admin/fs"
	emailsvc "github.com/trezcool/masomo-admin/services/email"
	"github.com/trezcool/masomo-admin/storage/cache"
	dummydb "github.com/trezcool/masomo-admin/storage/database/dummy"
	"github.com/trezcool/masomo-admin/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fixture struct {
	conf    *core.Config
	app     echoapi.Server
	cat     *catalog.Catalog
	usrRepo user.Repository
	mailSvc *emailsvc.ConsoleService
	metrics *metricsRecorder

	admin      user.User // t1
	accountant user.User // t1
	student    user.User // t1
	otherAdmin user.User // t2
}

type metricsRecorder struct {
	paths []string
	codes []int
}

func (m *metricsRecorder) RecordHTTPRequest(method, path string, statusCode int, _ time.Duration) {
	m.paths = append(m.paths, method+" "+path)
	m.codes = append(m.codes, statusCode)
}

func setup(t *testing.T, modifyConf ...func(conf *core.Config)) *fixture {
	t.Helper()
	conf := testutil.Config()
	for _, modify := range modifyConf {
		modify(conf)
	}

	validate, translator := testutil.Validator()
	pwds, err := appfs.CommonPasswords()
	require.NoError(t, err)
	defer pwds.Close()
	require.NoError(t, user.InitValidators(validate, translator, pwds))

	db, err := dummydb.Open()
	require.NoError(t, err)
	backend := catalog.Backend{Dummy: db}

	f := &fixture{
		conf:    conf,
		usrRepo: backend.UserRepository(),
		mailSvc: testutil.EmailService(),
		metrics: new(metricsRecorder),
	}
	f.cat = catalog.New(backend, f.mailSvc, resource.Options{
		Validate:    validate,
		Translator:  translator,
		Cache:       listing.NewQueryCache(cache.NewMemoryStore(conf.Cache.MaxSize), conf.Cache.TTL),
		Logger:      &testutil.NopLogger{},
		MaxPageSize: conf.Listing.MaxPageSize,
	})
	f.app = echoapi.NewServer(&echoapi.Options{
		Conf:           conf,
		DisableReqLogs: true,
		Catalog:        f.cat,
		UserSvc:        user.NewService(f.usrRepo),
		Validate:       validate,
		Translator:     translator,
		Logger:         &testutil.NopLogger{},
		Metrics:        f.metrics,
	})

	f.admin = testutil.CreateUser(t, f.usrRepo, "t1", "Admin", "admin", "admin@test.cd", "Kin$hasa-2021", []string{user.RoleAdmin}, true)
	f.accountant = testutil.CreateUser(t, f.usrRepo, "t1", "Accountant", "account", "account@test.cd", "", []string{user.RoleAccountant}, true)
	f.student = testutil.CreateUser(t, f.usrRepo, "t1", "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	f.otherAdmin = testutil.CreateUser(t, f.usrRepo, "t2", "Other", "other", "other@test.cd", "", []string{user.RoleAdminOwner}, true)
	return f
}

func (f *fixture) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(f.conf, echoapi.GetUserClaims(f.conf, usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func tenantCtx(tenantID string) context.Context {
	return tenant.With(context.Background(), tenantID)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	header   map[string]string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func (f *fixture) serve(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	for k, v := range tt.header {
		req.Header.Set(k, v)
	}
	f.app.ServeHTTP(rec, req)
	return rec
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String(), "data")
	}
}

func runHTTPTests(t *testing.T, f *fixture, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, f.serve(tt))
		})
	}
}

func TestHome(t *testing.T) {
	f := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Masomo Admin API!", rec.Body.String())
}

func TestMetricsMiddleware(t *testing.T) {
	f := setup(t)
	runHTTPTests(t, f, []httpTest{
		{name: "ok", path: "/v1/schools", token: f.token(t, f.admin)},
		{name: "error", path: "/v1/schools", wantCode: http.StatusUnauthorized},
	})
	assert.Equal(t, []string{"GET /v1/:resource", "GET /v1/:resource"}, f.metrics.paths)
	assert.Equal(t, []int{http.StatusOK, http.StatusUnauthorized}, f.metrics.codes)
}
