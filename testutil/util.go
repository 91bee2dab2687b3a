// Package testutil holds the fixtures shared by the tests of several packages.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/user"
	appfs "github.com/trezcool/masomo-admin/fs"
	emailsvc "github.com/trezcool/masomo-admin/services/email"
	"github.com/trezcool/masomo-admin/storage/database"
)

// Config returns the configuration used in tests: in-memory sqlite and cache.
func Config() *core.Config {
	return &core.Config{
		Debug:            true,
		TestMode:         true,
		Env:              "TEST",
		AppName:          "Masomo",
		SecretKey:        "test-secret",
		DefaultFromEmail: "Masomo <noreply@localhost>",
		FrontendBaseURL:  "http://localhost:3000",
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: time.Hour,
			LoginRateLimit:            1000,
		},
		Database: core.DatabaseConfig{Engine: database.EngineSQLite, Name: ":memory:"},
		Cache:    core.CacheConfig{Backend: "memory", TTL: time.Minute, MaxSize: 100},
		Listing:  core.ListingConfig{DefaultPageSize: 10, MaxPageSize: 100},
	}
}

// NopLogger discards every entry.
type NopLogger struct{}

func (*NopLogger) Debug(string, ...interface{}) {}
func (*NopLogger) Info(string, ...interface{})  {}
func (*NopLogger) Warn(string, ...interface{})  {}
func (*NopLogger) Error(string, ...interface{}) {}
func (*NopLogger) Fatal(string, ...interface{}) {}

// EmailService returns a synchronous console email service recording the sent messages.
func EmailService() *emailsvc.ConsoleService {
	conf := Config()
	core.ParseEmailTemplates(appfs.EmailTemplates(), conf, &NopLogger{})
	return emailsvc.NewConsoleServiceMock(conf)
}

// OpenDB opens a migrated in-memory sqlite database, closed when the test ends.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, Config())
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrating database: %v", err)
	}
	return db
}

// Validator returns a validator set up like the app's.
func Validator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	resource.InitValidators(validate)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	tenantID, name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd == "" {
		pwd = uuid.NewString() // password_hash is NOT NULL
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}
