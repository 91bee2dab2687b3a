package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-admin/core/user"
	sqlxrepos "github.com/trezcool/masomo-admin/storage/database/sqlx"
	"github.com/trezcool/masomo-admin/testutil"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := sqlxrepos.NewUserRepository(testutil.OpenDB(t))

	jane := testutil.CreateUser(t, repo, "t1", "Jane", "jane", "jane@masomo.cd", "pwd", []string{user.RoleAdmin}, true)
	testutil.CreateUser(t, repo, "t1", "John", "john", "john@masomo.cd", "", []string{user.RoleTeacher}, true)

	t.Run("uniqueness", func(t *testing.T) {
		tests := []struct {
			name     string
			username string
			email    string
			excluded []user.User
			want     error
		}{
			{"free", "joe", "joe@masomo.cd", nil, nil},
			{"username taken", "jane", "other@masomo.cd", nil, user.ErrUsernameExists},
			{"email taken", "other", "john@masomo.cd", nil, user.ErrEmailExists},
			{"excluded", "jane", "jane@masomo.cd", []user.User{jane}, nil},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, repo.CheckUsernameUniqueness(ctx, tt.username, tt.email, tt.excluded...))
			})
		}
	})

	t.Run("get", func(t *testing.T) {
		u, err := repo.GetUserByID(ctx, jane.ID)
		require.NoError(t, err)
		assert.Equal(t, "jane", u.Username)
		assert.Equal(t, user.RoleList{user.RoleAdmin}, u.Roles)
		assert.NoError(t, u.CheckPassword("pwd"))

		u, err = repo.GetUserByUsernameOrEmail(ctx, "john@masomo.cd")
		require.NoError(t, err)
		assert.Equal(t, "John", u.Name)
		assert.NotEmpty(t, u.PasswordHash, "users created without a password still get a hash")

		_, err = repo.GetUserByID(ctx, "nope")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("update", func(t *testing.T) {
		jane.IsActive = false
		jane.LastLogin = null.TimeFrom(time.Now().UTC())
		_, err := repo.UpdateUser(ctx, jane)
		require.NoError(t, err)

		u, err := repo.GetUserByID(ctx, jane.ID)
		require.NoError(t, err)
		assert.False(t, u.IsActive)
		assert.True(t, u.LastLogin.Valid)

		_, err = repo.UpdateUser(ctx, user.User{ID: "nope"})
		assert.Equal(t, user.ErrNotFound, err)
	})
}
