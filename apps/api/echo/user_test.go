package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/masomo-admin/apps/api/echo"
	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/user"
	"github.com/trezcool/masomo-admin/testutil"
)

func Test_userApi_login(t *testing.T) {
	f := setup(t)
	testutil.CreateUser(t, f.usrRepo, "t1", "N Dog", "ndog", "ndog@test.cd", "Kin$hasa-2021", []string{user.RoleStudent}, false)

	login := func(uname, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Username: uname, Password: pwd})
	}

	tests := []httpTest{
		{
			name: "required fields", body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, echoapi.LoginRequest{Username: "this field is required", Password: "this field is required"}),
		},
		{
			name: "unknown user", body: login("nobody", "Kin$hasa-2021"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: login("admin", "lol"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "inactive user", body: login("ndog", "Kin$hasa-2021"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, f.serve(tt))
		})
	}

	t.Run("logged in", func(t *testing.T) {
		rec := f.serve(httpTest{method: http.MethodPost, path: "/v1/users/login", body: login(" ADMIN@test.cd ", "Kin$hasa-2021")})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp echoapi.LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Token)

		claims := new(echoapi.Claims)
		_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(f.conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, f.admin.ID, claims.Subject)
		assert.Equal(t, "t1", claims.TenantID)
		assert.True(t, claims.IsAdmin)
		assert.True(t, claims.IsStaff)

		usr, err := f.usrRepo.GetUserByID(tenantCtx("t1"), f.admin.ID)
		require.NoError(t, err)
		assert.True(t, usr.LastLogin.Valid)
	})
}

func Test_userApi_loginRateLimit(t *testing.T) {
	f := setup(t, func(conf *core.Config) { conf.Server.LoginRateLimit = 0.001 })
	body := marchallObj(t, echoapi.LoginRequest{Username: "admin", Password: "lol"})

	rec := f.serve(httpTest{method: http.MethodPost, path: "/v1/users/login", body: body})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.serve(httpTest{method: http.MethodPost, path: "/v1/users/login", body: body})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, string(marchallObj(t, httpErr{Error: "too many requests"})), rec.Body.String())
}

func Test_userApi_refreshToken(t *testing.T) {
	f := setup(t)
	naughty := testutil.CreateUser(t, f.usrRepo, "t1", "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleStudent}, false) // 😂

	now := time.Now()
	unrefreshableClaims := echoapi.GetUserClaims(f.conf, f.student)
	unrefreshableClaims.OrigIssuedAt = now.Add(-2 * f.conf.Server.JWTRefreshExpirationDelta).Unix() // older than threshold
	unrefreshableToken, err := echoapi.GenerateToken(f.conf, unrefreshableClaims)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Inactive user not allowed", token: f.token(t, naughty), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Token refreshed", token: f.token(t, f.student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			rec := f.serve(tt)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				require.Equal(t, tt.wantCode, rec.Code)
				var respData echoapi.LoginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &respData))
				assert.NotEmpty(t, respData.Token)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_me(t *testing.T) {
	f := setup(t)
	runHTTPTests(t, f, []httpTest{
		{name: "Auth required", path: "/v1/users/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "me", path: "/v1/users/me", token: f.token(t, f.accountant), wantData: marchallObj(t, f.accountant)},
	})
}

func Test_userApi_roles(t *testing.T) {
	f := setup(t)
	runHTTPTests(t, f, []httpTest{
		{
			name: "Admin required", path: "/v1/users/roles", token: f.token(t, f.accountant), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "roles", path: "/v1/users/roles", token: f.token(t, f.admin), wantData: marchallObj(t, user.Roles)},
	})
}

func Test_userApi_register(t *testing.T) {
	f := setup(t)
	adminToken := f.token(t, f.admin)

	newUser := func(uname string, roles ...string) []byte {
		return marchallObj(t, user.NewUser{
			Name:            "Jane Doe",
			Username:        uname,
			Password:        "Kin$hasa-2021",
			PasswordConfirm: "Kin$hasa-2021",
			Roles:           roles,
		})
	}

	runHTTPTests(t, f, []httpTest{
		{
			name: "Admin required", method: http.MethodPost, path: "/v1/users/register", token: f.token(t, f.student),
			body: newUser("janedoe"), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "invalid", method: http.MethodPost, path: "/v1/users/register", token: adminToken,
			body: newUser("account"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "a user with this username already exists"}),
		},
		{
			name: "role above own", method: http.MethodPost, path: "/v1/users/register", token: adminToken,
			body: newUser("janedoe", user.RoleAdminOwner), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
		{
			name: "registered", method: http.MethodPost, path: "/v1/users/register", token: adminToken,
			body: newUser("janedoe", user.RoleAccountant), wantCode: http.StatusCreated,
		},
	})

	usr, err := f.usrRepo.GetUserByUsernameOrEmail(tenantCtx("t1"), "janedoe")
	require.NoError(t, err)
	assert.Equal(t, "t1", usr.TenantID)
	assert.Equal(t, user.RoleList{user.RoleAccountant}, usr.Roles)
	assert.NoError(t, usr.CheckPassword("Kin$hasa-2021"))
}
