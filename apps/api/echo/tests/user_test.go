package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/jvaldes/premios/apps/api/echo"
	"github.com/jvaldes/premios/core/user"
	emailsvc "github.com/jvaldes/premios/services/email"
)

func userPath(extra string, params url.Values) string {
	path := "/v1/users" + extra
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return path
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	createUser(t, app, "Jane Doe", "janedoe", "jane@premios.test", []string{user.RoleTeacher}, true)
	createUser(t, app, "Gone Guy", "goneguy", "gone@premios.test", []string{user.RoleTeacher}, false)

	tests := []httpTest{
		{
			name:     "login: OK",
			body:     marchallObj(t, LoginRequest{Username: "janedoe", Password: "S3cretPwd!"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "login by email: OK",
			body:     marchallObj(t, LoginRequest{Username: "jane@premios.test", Password: "S3cretPwd!"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "unknown user fails",
			body:     marchallObj(t, LoginRequest{Username: "nobody", Password: "S3cretPwd!"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password fails",
			body:     marchallObj(t, LoginRequest{Username: "janedoe", Password: "letmein"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated account fails",
			body:     marchallObj(t, LoginRequest{Username: "goneguy", Password: "S3cretPwd!"}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, userPath("/login", nil), tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			require.Equal(t, tt.wantCode, rec.Code)
			var resp LoginResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Token)
		})
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	app := setup(t)
	usr := createUser(t, app, "Jane Doe", "janedoe", "jane@premios.test", []string{user.RoleTeacher}, true)
	gone := createUser(t, app, "Gone Guy", "goneguy", "gone@premios.test", []string{user.RoleTeacher}, false)

	t.Run("auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodPost, userPath("/token-refresh", nil))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("refresh: OK", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, userPath("/token-refresh", nil), getToken(t, usr))
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("deactivated account fails", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})}
		req, rec := newAuthRequest(http.MethodPost, userPath("/token-refresh", nil), getToken(t, gone))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_userApi_create(t *testing.T) {
	app := setup(t)
	admin := createUser(t, app, "Admin", "admin1", "admin@premios.test", []string{user.RoleAdmin}, true)
	teacher := createUser(t, app, "Teacher", "teach1", "teach@premios.test", []string{user.RoleTeacher}, true)
	adminToken := getToken(t, admin)

	newUsr := func(uname, email string, roles ...string) []byte {
		return marchallObj(t, user.NewUser{
			Name:            "New Guy",
			Username:        uname,
			Email:           email,
			Password:        "S3cretPwd!",
			PasswordConfirm: "S3cretPwd!",
			Roles:           roles,
		})
	}

	tests := []httpTest{
		{
			name:     "auth required",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "admin required",
			body:     newUsr("newguy1", "new1@premios.test", user.RoleTeacher),
			token:    getToken(t, teacher),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "create: OK",
			body:     newUsr("newguy1", "new1@premios.test", user.RoleTeacher),
			token:    adminToken,
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate username fails",
			body:     newUsr("newguy1", "other@premios.test", user.RoleTeacher),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name:     "duplicate email fails",
			body:     newUsr("newguy2", "new1@premios.test", user.RoleTeacher),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name:     "cannot grant a role above own",
			body:     newUsr("newguy3", "new3@premios.test", user.RoleAdminOwner),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, userPath("/register", nil), tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			require.Equal(t, tt.wantCode, rec.Code)
			var usr user.User
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usr))
			assert.NotEmpty(t, usr.ID)
			assert.Equal(t, "newguy1", usr.Username)
			assert.Equal(t, []string{user.RoleTeacher}, usr.Roles)
		})
	}
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)
	admin := createUser(t, app, "Admin", "admin1", "admin@premios.test", []string{user.RoleAdmin}, true)
	teacher := createUser(t, app, "Alice Teacher", "aliceteach", "alice@premios.test", []string{user.RoleTeacher}, true)
	judge := createUser(t, app, "Bob Judge", "bobjudge", "bob@premios.test", []string{user.RoleJudge}, true)
	gone := createUser(t, app, "Carol Gone", "carolgone", "carol@premios.test", []string{user.RoleTeacher}, false)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name:     "auth required",
			path:     userPath("", nil),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "admin required",
			path:     userPath("", nil),
			token:    getToken(t, teacher),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "query: OK",
			path:     userPath("", nil),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, admin, teacher, judge, gone),
		},
		{
			name:     "search filter",
			path:     userPath("", url.Values{"search": {"alice"}}),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, teacher),
		},
		{
			name:     "role filter",
			path:     userPath("", url.Values{"role": {user.RoleTeacher}}),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, teacher, gone),
		},
		{
			name:     "is_active filter",
			path:     userPath("", url.Values{"is_active": {"false"}}),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, gone),
		},
		{
			name:     "ordering by username desc",
			path:     userPath("", url.Values{"ordering": {"-username"}}),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, gone, judge, teacher, admin),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_retrieve(t *testing.T) {
	app := setup(t)
	admin := createUser(t, app, "Admin", "admin1", "admin@premios.test", []string{user.RoleAdmin}, true)
	teacher := createUser(t, app, "Teacher", "teach1", "teach@premios.test", []string{user.RoleTeacher}, true)
	judge := createUser(t, app, "Judge", "judge1", "judge@premios.test", []string{user.RoleJudge}, true)

	tests := []httpTest{
		{
			name:     "self: OK",
			path:     userPath("/"+teacher.ID, nil),
			token:    getToken(t, teacher),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, teacher),
		},
		{
			name:     "admin can retrieve anyone",
			path:     userPath("/"+teacher.ID, nil),
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, teacher),
		},
		{
			name:     "others hidden from non-admin",
			path:     userPath("/"+judge.ID, nil),
			token:    getToken(t, teacher),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name:     "unknown id",
			path:     userPath("/8497e22c-1afc-4d97-a103-4a16e6670e32", nil),
			token:    getToken(t, admin),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_update(t *testing.T) {
	app := setup(t)
	admin := createUser(t, app, "Admin", "admin1", "admin@premios.test", []string{user.RoleAdmin}, true)
	teacher := createUser(t, app, "Teacher", "teach1", "teach@premios.test", []string{user.RoleTeacher}, true)

	t.Run("self update name: OK", func(t *testing.T) {
		body := marchallObj(t, user.UpdateUser{Name: "Renamed Teacher"})
		req, rec := newAuthRequest(http.MethodPut, userPath("/"+teacher.ID, nil), getToken(t, teacher), body)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var usr user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usr))
		assert.Equal(t, "Renamed Teacher", usr.Name)
		assert.Equal(t, teacher.Username, usr.Username)
	})

	t.Run("non-admin cannot change roles", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		body := marchallObj(t, user.UpdateUser{Roles: []string{user.RoleAdmin}})
		req, rec := newAuthRequest(http.MethodPut, userPath("/"+teacher.ID, nil), getToken(t, teacher), body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("admin deactivates account", func(t *testing.T) {
		body := marchallObj(t, user.UpdateUser{IsActive: boolPtr(false)})
		req, rec := newAuthRequest(http.MethodPut, userPath("/"+teacher.ID, nil), getToken(t, admin), body)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var usr user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usr))
		require.NotNil(t, usr.IsActive)
		assert.False(t, *usr.IsActive)
	})

	t.Run("admin cannot grant a role above own", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		}
		body := marchallObj(t, user.UpdateUser{Roles: []string{user.RoleAdminOwner}})
		req, rec := newAuthRequest(http.MethodPut, userPath("/"+teacher.ID, nil), getToken(t, admin), body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_userApi_destroy(t *testing.T) {
	app := setup(t)
	admin := createUser(t, app, "Admin", "admin1", "admin@premios.test", []string{user.RoleAdmin}, true)
	teacher := createUser(t, app, "Teacher", "teach1", "teach@premios.test", []string{user.RoleTeacher}, true)
	judge := createUser(t, app, "Judge", "judge1", "judge@premios.test", []string{user.RoleJudge}, true)
	adminToken := getToken(t, admin)

	t.Run("self-delete forbidden", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodDelete, userPath("/"+admin.ID, nil), adminToken)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("admin required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodDelete, userPath("/"+judge.ID, nil), getToken(t, teacher))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("destroy: OK", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNoContent}
		req, rec := newAuthRequest(http.MethodDelete, userPath("/"+teacher.ID, nil), adminToken)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("destroy multiple skips when self included", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		params := url.Values{"id": {judge.ID, admin.ID}}
		req, rec := newAuthRequest(http.MethodDelete, userPath("", params), adminToken)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("destroy multiple: OK", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNoContent}
		req, rec := newAuthRequest(http.MethodDelete, userPath("", url.Values{"id": {judge.ID}}), adminToken)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		tt = httpTest{wantCode: http.StatusOK, wantData: marchallList(t, admin)}
		req, rec = newAuthRequest(http.MethodGet, userPath("", nil), adminToken)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_userApi_queryRoles(t *testing.T) {
	app := setup(t)
	admin := createUser(t, app, "Admin", "admin1", "admin@premios.test", []string{user.RoleAdmin}, true)
	teacher := createUser(t, app, "Teacher", "teach1", "teach@premios.test", []string{user.RoleTeacher}, true)

	tests := []httpTest{
		{
			name:     "admin required",
			token:    getToken(t, teacher),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "roles: OK",
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, user.Roles),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, userPath("/roles", nil), tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_passwordReset(t *testing.T) {
	app := setup(t)
	createUser(t, app, "Jane Doe", "janedoe", "jane@premios.test", []string{user.RoleTeacher}, true)

	successBody := marchallObj(t, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})

	t.Run("unknown email gets the same answer", func(t *testing.T) {
		sentBefore := len(emailsvc.SentMessages)

		tt := httpTest{wantCode: http.StatusOK, wantData: successBody}
		body := marchallObj(t, user.PasswordResetRequest{Email: "nobody@premios.test"})
		req, rec := newRequest(http.MethodPost, userPath("/password-reset", nil), body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		assert.Len(t, emailsvc.SentMessages, sentBefore)
	})

	t.Run("full reset flow", func(t *testing.T) {
		sentBefore := len(emailsvc.SentMessages)

		// request the reset email
		tt := httpTest{wantCode: http.StatusOK, wantData: successBody}
		body := marchallObj(t, user.PasswordResetRequest{Email: "jane@premios.test"})
		req, rec := newRequest(http.MethodPost, userPath("/password-reset", nil), body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		require.Len(t, emailsvc.SentMessages, sentBefore+1)
		msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
		data, ok := msg.TemplateData.(struct{ Name, UID, Token string })
		require.True(t, ok, "unexpected template data %T", msg.TemplateData)

		// confirm with the emailed uid & token
		tt = httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		}
		body = marchallObj(t, user.ResetUserPassword{
			UID:             data.UID,
			Token:           data.Token,
			Password:        "N3wS3cret!",
			PasswordConfirm: "N3wS3cret!",
		})
		req, rec = newRequest(http.MethodPost, userPath("/password-reset-confirm", nil), body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		// the new password now logs in
		body = marchallObj(t, LoginRequest{Username: "janedoe", Password: "N3wS3cret!"})
		req, rec = newRequest(http.MethodPost, userPath("/login", nil), body)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		// the token is single use
		tt = httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		}
		body = marchallObj(t, user.ResetUserPassword{
			UID:             data.UID,
			Token:           data.Token,
			Password:        "An0therPwd!",
			PasswordConfirm: "An0therPwd!",
		})
		req, rec = newRequest(http.MethodPost, userPath("/password-reset-confirm", nil), body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}
