package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/jvaldes/premios/apps/api/echo"
	"github.com/jvaldes/premios/core"
	"github.com/jvaldes/premios/core/classroom"
	"github.com/jvaldes/premios/core/score"
	"github.com/jvaldes/premios/core/student"
	"github.com/jvaldes/premios/core/user"
	appfs "github.com/jvaldes/premios/fs"
	emailsvc "github.com/jvaldes/premios/services/email"
	inmemdb "github.com/jvaldes/premios/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// testApp wires a full API server over in-mem repositories.
type testApp struct {
	server   *Server
	conf     *core.Config
	usrSvc   *user.Service
	roomSvc  *classroom.Service
	stdSvc   *student.Service
	scoreSvc *score.Service
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	// set up DB & repos
	db := inmemdb.Open()

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(inmemdb.NewUserRepository(db), mailSvc, conf)
	roomSvc := classroom.NewService(inmemdb.NewClassroomRepository(db))
	stdSvc := student.NewService(inmemdb.NewStudentRepository(db), roomSvc)
	scoreSvc := score.NewService(inmemdb.NewScoreRepository(db), stdSvc, roomSvc)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	logger := nopLogger{}
	core.ParseEmailTemplates(appfs.FS, logger)

	// set up server
	server := NewServer(
		ServerDeps{
			Conf:           conf,
			Logger:         logger,
			UserSvc:        usrSvc,
			StudentSvc:     stdSvc,
			ClassroomSvc:   roomSvc,
			ScoreSvc:       scoreSvc,
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
		},
	)

	return &testApp{
		server:   server,
		conf:     conf,
		usrSvc:   usrSvc,
		roomSvc:  roomSvc,
		stdSvc:   stdSvc,
		scoreSvc: scoreSvc,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// Fixtures

func createUser(t *testing.T, app *testApp, name, uname, email string, roles []string, active bool) user.User {
	t.Helper()
	usr, err := app.usrSvc.Create(context.Background(), user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           email,
		Password:        "S3cretPwd!",
		PasswordConfirm: "S3cretPwd!",
		Roles:           roles,
	})
	if err != nil {
		t.Fatalf("createUser(): %v", err)
	}
	if !active {
		usr, err = app.usrSvc.Update(context.Background(), usr.ID, user.UpdateUser{IsActive: &active})
		if err != nil {
			t.Fatalf("createUser(): %v", err)
		}
	}
	return usr
}

func seedClassrooms(t *testing.T, app *testApp) map[string]classroom.Classroom {
	t.Helper()
	rooms := make(map[string]classroom.Classroom, 4)
	for _, nc := range classroom.DefaultClassrooms() {
		room, err := app.roomSvc.Create(context.Background(), nc)
		if err != nil {
			t.Fatalf("seedClassrooms(): %v", err)
		}
		rooms[room.Name] = room
	}
	return rooms
}

func registerStudent(t *testing.T, app *testApp, name, surname string, age int) student.Student {
	t.Helper()
	std, err := app.stdSvc.Register(context.Background(), student.NewStudent{
		Name:          name,
		Surname:       surname,
		Age:           age,
		Gender:        student.GenderFemale,
		GuardianName:  "Guardian " + surname,
		GuardianPhone: "+1 809 555 0101",
	})
	if err != nil {
		t.Fatalf("registerStudent(): %v", err)
	}
	return std
}

// HTTP helpers

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
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

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	l1, ok1 := j1.([]interface{})
	l2, ok2 := j2.([]interface{})
	if ok1 && ok2 {
		return assert.ElementsMatch(t, l1, l2), nil
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		if rec.Body.Len() > 0 {
			t.Errorf("failed! data = %v; wantData empty", rec.Body.String())
		}
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func boolPtr(b bool) *bool { return &b }
