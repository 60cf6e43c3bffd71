package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvaldes/premios/core/student"
	"github.com/jvaldes/premios/core/user"
)

func studentPath(extra string, params url.Values) string {
	path := "/v1/students" + extra
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return path
}

func Test_studentApi_register(t *testing.T) {
	app := setup(t)
	rooms := seedClassrooms(t, app)
	teacher := createUser(t, app, "Teacher", "teach1", "teach@premios.test", []string{user.RoleTeacher}, true)
	teacherToken := getToken(t, teacher)

	newStd := func(name string, age int) []byte {
		return marchallObj(t, student.NewStudent{
			Name:          name,
			Surname:       "Perez",
			Age:           age,
			Gender:        student.GenderMale,
			GuardianName:  "Maria Perez",
			GuardianPhone: "+1 809 555 0101",
		})
	}

	tests := []httpTest{
		{
			name:     "auth required",
			body:     newStd("Luis", 5),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "youngest band",
			body:     newStd("Luis", 4),
			token:    teacherToken,
			wantCode: http.StatusCreated,
			extra:    rooms["Abejitas"].ID,
		},
		{
			name:     "middle band",
			body:     newStd("Ana", 8),
			token:    teacherToken,
			wantCode: http.StatusCreated,
			extra:    rooms["Estrellas"].ID,
		},
		{
			name:     "oldest band",
			body:     newStd("Pedro", 12),
			token:    teacherToken,
			wantCode: http.StatusCreated,
			extra:    rooms["Aguilas"].ID,
		},
		{
			name:     "age outside all bands",
			body:     newStd("Tomas", 13),
			token:    teacherToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"age": student.ErrNoClassroom.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, studentPath("", nil), tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			require.Equal(t, tt.wantCode, rec.Code)
			var std student.Student
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &std))
			assert.NotEmpty(t, std.ID)
			assert.Equal(t, tt.extra, std.ClassroomID)
			assert.Empty(t, std.ForcedClassroomID)
		})
	}
}

func Test_studentApi_query(t *testing.T) {
	app := setup(t)
	rooms := seedClassrooms(t, app)
	teacher := createUser(t, app, "Teacher", "teach1", "teach@premios.test", []string{user.RoleTeacher}, true)
	teacherToken := getToken(t, teacher)

	luis := registerStudent(t, app, "Luis", "Aybar", 5)
	ana := registerStudent(t, app, "Ana", "Castillo", 8)
	pedro := registerStudent(t, app, "Pedro", "Zapata", 8)

	tests := []httpTest{
		{
			name:     "query: OK, surname order",
			path:     studentPath("", nil),
			wantCode: http.StatusOK,
			wantData: marchallList(t, luis, ana, pedro),
		},
		{
			name:     "search by guardian name",
			path:     studentPath("", url.Values{"search": {"guardian castillo"}}),
			wantCode: http.StatusOK,
			wantData: marchallList(t, ana),
		},
		{
			name:     "classroom filter",
			path:     studentPath("", url.Values{"classroom_id": {rooms["Estrellas"].ID}}),
			wantCode: http.StatusOK,
			wantData: marchallList(t, ana, pedro),
		},
		{
			name:     "no match",
			path:     studentPath("", url.Values{"classroom_id": {rooms["Leones"].ID}}),
			wantCode: http.StatusOK,
			wantData: []byte("[]"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, teacherToken)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_update(t *testing.T) {
	app := setup(t)
	rooms := seedClassrooms(t, app)
	teacher := createUser(t, app, "Teacher", "teach1", "teach@premios.test", []string{user.RoleTeacher}, true)
	teacherToken := getToken(t, teacher)

	std := registerStudent(t, app, "Luis", "Aybar", 6)

	t.Run("growing out of the band moves the classroom", func(t *testing.T) {
		body := marchallObj(t, student.UpdateStudent{Age: 7})
		req, rec := newAuthRequest(http.MethodPut, studentPath("/"+std.ID, nil), teacherToken, body)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 7, got.Age)
		assert.Equal(t, rooms["Estrellas"].ID, got.ClassroomID)
	})

	t.Run("partial update keeps the rest", func(t *testing.T) {
		body := marchallObj(t, student.UpdateStudent{GuardianPhone: "+1 809 555 0199"})
		req, rec := newAuthRequest(http.MethodPut, studentPath("/"+std.ID, nil), teacherToken, body)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "+1 809 555 0199", got.GuardianPhone)
		assert.Equal(t, "Luis", got.Name)
		assert.Equal(t, 7, got.Age)
	})

	t.Run("unknown student", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		body := marchallObj(t, student.UpdateStudent{Name: "Nope"})
		req, rec := newAuthRequest(http.MethodPut, studentPath("/e1a2c27e-95d1-4ca9-8d74-d5bb28a06c3e", nil), teacherToken, body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_studentApi_reassign(t *testing.T) {
	app := setup(t)
	rooms := seedClassrooms(t, app)
	admin := createUser(t, app, "Admin", "admin1", "admin@premios.test", []string{user.RoleAdmin}, true)
	teacher := createUser(t, app, "Teacher", "teach1", "teach@premios.test", []string{user.RoleTeacher}, true)
	adminToken := getToken(t, admin)

	std := registerStudent(t, app, "Luis", "Aybar", 5) // Abejitas by age

	t.Run("admin required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		body := marchallObj(t, student.Reassignment{ForcedClassroomID: rooms["Estrellas"].ID})
		req, rec := newAuthRequest(http.MethodPut, studentPath("/"+std.ID+"/reassign", nil), getToken(t, teacher), body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("forced classroom wins over the age default", func(t *testing.T) {
		body := marchallObj(t, student.Reassignment{ForcedClassroomID: rooms["Estrellas"].ID})
		req, rec := newAuthRequest(http.MethodPut, studentPath("/"+std.ID+"/reassign", nil), adminToken, body)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, rooms["Abejitas"].ID, got.ClassroomID)
		assert.Equal(t, rooms["Estrellas"].ID, got.ForcedClassroomID)
		assert.Equal(t, rooms["Estrellas"].ID, got.EffectiveClassroomID())
	})

	t.Run("unknown classroom", func(t *testing.T) {
		body := marchallObj(t, student.Reassignment{ForcedClassroomID: "05f98a29-9fa4-4bd7-8bbf-9f4e3c96a8bb"})
		req, rec := newAuthRequest(http.MethodPut, studentPath("/"+std.ID+"/reassign", nil), adminToken, body)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("clearing reverts to the age default", func(t *testing.T) {
		body := marchallObj(t, student.Reassignment{})
		req, rec := newAuthRequest(http.MethodPut, studentPath("/"+std.ID+"/reassign", nil), adminToken, body)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Empty(t, got.ForcedClassroomID)
		assert.Equal(t, rooms["Abejitas"].ID, got.EffectiveClassroomID())
	})
}

func Test_studentApi_deactivate(t *testing.T) {
	app := setup(t)
	seedClassrooms(t, app)
	admin := createUser(t, app, "Admin", "admin1", "admin@premios.test", []string{user.RoleAdmin}, true)
	teacher := createUser(t, app, "Teacher", "teach1", "teach@premios.test", []string{user.RoleTeacher}, true)

	std := registerStudent(t, app, "Luis", "Aybar", 5)

	t.Run("admin required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodDelete, studentPath("/"+std.ID, nil), getToken(t, teacher))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("deactivate: OK", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNoContent}
		req, rec := newAuthRequest(http.MethodDelete, studentPath("/"+std.ID, nil), getToken(t, admin))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		// the record is kept, flagged inactive
		req, rec = newAuthRequest(http.MethodGet, studentPath("/"+std.ID, nil), getToken(t, admin))
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var got student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.NotNil(t, got.IsActive)
		assert.False(t, *got.IsActive)
	})
}
