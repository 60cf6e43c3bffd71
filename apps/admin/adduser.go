package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jvaldes/premios/core"
	"github.com/jvaldes/premios/core/user"
)

// addUser updates or creates a staff user.User
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	if name == "" {
		name = uname
	}

	roles := []string{user.RoleTeacher}
	if isAdmin {
		roles = user.AllRoles
	}

	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		_, err = cli.usrSvc.Create(ctx, user.NewUser{
			Name:            name,
			Username:        uname,
			Email:           email,
			Password:        pwd,
			PasswordConfirm: pwd,
			Roles:           roles,
		})
		return err
	}

	active := true
	_, err = cli.usrSvc.Update(ctx, usr.ID, user.UpdateUser{
		Name:            name,
		Email:           email,
		Roles:           roles,
		IsActive:        &active,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	return err
}
