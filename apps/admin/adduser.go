package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/tenant"
	"github.com/trezcool/masomo-admin/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var (
		name, uname, email string
		roles              []string
		isAdmin            bool
	)
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user, or update the one with this username or email",
		Long: `Create a user, or update the one with this username or email.
The password is prompted next.

Example:
  admin adduser --tenant t1 --username jdoe --email jdoe@test.cd --admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cli.tenantID == "" || (uname == "" && email == "") {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.readPassword("Enter password:")
			if err != nil {
				return err
			}
			if pwd == "" {
				_ = cmd.Usage()
				return errHelp
			}
			if isAdmin {
				roles = append(roles, user.RoleAdmin)
			}
			usr, err := cli.addUser(cli.context(), name, uname, email, pwd, roles)
			if err != nil {
				return err
			}
			cli.Success("saved user " + usr.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&uname, "username", "", "username")
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role to grant, may be repeated")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "grant the admin role")
	return cmd
}

// addUser updates or creates a user.User of the context tenant.
func (cli *commandLine) addUser(ctx context.Context, name, uname, email, pwd string, roles []string) (user.User, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return user.User{}, err
	}
	if _, err = cli.database(ctx); err != nil {
		return user.User{}, err
	}
	for _, role := range roles {
		if !core.ContainsString(user.AllRoles, role) {
			return user.User{}, errors.Errorf("unknown role %q", role)
		}
	}
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	lookup := uname
	if lookup == "" {
		lookup = email
	}
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, lookup)
	found := err == nil
	if err != nil && err != user.ErrNotFound {
		return user.User{}, err
	}
	if found && usr.TenantID != tenantID {
		return user.User{}, errors.Errorf("user %q belongs to another tenant", lookup)
	}

	now := core.Now()
	if !found {
		usr = user.User{ID: uuid.NewString(), TenantID: tenantID, CreatedAt: now}
	}
	if name = core.CleanString(name); name != "" {
		usr.Name = name
	}
	if uname != "" {
		usr.Username = uname
	}
	if email != "" {
		usr.Email = email
	}
	for _, role := range roles {
		if !core.ContainsString(usr.Roles, role) {
			usr.Roles = append(usr.Roles, role)
		}
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return user.User{}, err
	}

	if found {
		return cli.usrRepo.UpdateUser(ctx, usr)
	}
	return cli.usrRepo.CreateUser(ctx, usr)
}
