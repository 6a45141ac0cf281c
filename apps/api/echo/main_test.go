package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/agenda"
	"github.com/trezcool/igreja/core/board"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/counseling"
	"github.com/trezcool/igreja/core/discipleship"
	"github.com/trezcool/igreja/core/event"
	"github.com/trezcool/igreja/core/finance"
	"github.com/trezcool/igreja/core/gallery"
	"github.com/trezcool/igreja/core/goal"
	"github.com/trezcool/igreja/core/messaging"
	"github.com/trezcool/igreja/core/ministry"
	"github.com/trezcool/igreja/core/notification"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/report"
	"github.com/trezcool/igreja/core/schedule"
	"github.com/trezcool/igreja/core/user"
	"github.com/trezcool/igreja/core/visitor"
	emailsvc "github.com/trezcool/igreja/services/email"
	logsvc "github.com/trezcool/igreja/services/logger"
	msgsvc "github.com/trezcool/igreja/services/messaging"
	"github.com/trezcool/igreja/services/metrics"
	"github.com/trezcool/igreja/storage/cache"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
	testutil "github.com/trezcool/igreja/tests"
)

type testApp struct {
	conf    *core.Config
	db      *sqlx.DB
	auth    *Auth
	metrics *metrics.Metrics
	mail    *emailsvc.ServiceMock
	server  *Server
	church  church.Church
}

func setup(t *testing.T, configure ...func(conf *core.Config)) *testApp {
	t.Helper()
	conf := core.NewTestConfig()
	for _, fn := range configure {
		fn(conf)
	}

	db := testutil.OpenDB(t)
	logger := logsvc.NewNopLogger()
	mail := emailsvc.NewServiceMock(conf, logger)
	store := cache.NewMemory()
	m := metrics.New(prometheus.NewRegistry())

	usrRepo := sqlxrepos.NewUserRepository()
	access := user.NewAccessLogger(db, usrRepo, logger)
	t.Cleanup(access.Wait)

	churches := church.NewService(db, sqlxrepos.NewChurchRepository(), access)
	deps := Deps{
		Churches:      churches,
		Users:         user.NewService(conf, db, usrRepo, churches, mail, logger, access),
		AccessLog:     access,
		People:        person.NewService(db, sqlxrepos.NewPersonRepository(), churches, access),
		Visitors:      visitor.NewService(db, sqlxrepos.NewVisitorRepository(), logger, access),
		Ministries:    ministry.NewService(db, sqlxrepos.NewMinistryRepository(), access),
		Events:        event.NewService(db, sqlxrepos.NewEventRepository(), access),
		Finance:       finance.NewService(db, sqlxrepos.NewFinanceRepository(), access),
		Counseling:    counseling.NewService(db, sqlxrepos.NewCounselingRepository(), core.NewCipher(conf.EncryptionKey), access),
		Messaging:     messaging.NewService(db, sqlxrepos.NewMessagingRepository(), msgsvc.NewSenders(mail, logger), logger, access),
		Schedules:     schedule.NewService(db, sqlxrepos.NewScheduleRepository(), access),
		Discipleship:  discipleship.NewService(db, sqlxrepos.NewDiscipleshipRepository(), access),
		Agenda:        agenda.NewService(db, sqlxrepos.NewAgendaRepository(), access),
		Board:         board.NewService(db, sqlxrepos.NewBoardRepository(), access),
		Goals:         goal.NewService(db, sqlxrepos.NewGoalRepository(), access),
		Notifications: notification.NewService(db, sqlxrepos.NewNotificationRepository()),
		Gallery:       gallery.NewService(db, sqlxrepos.NewGalleryRepository(), access),
		Reports:       report.NewService(db, sqlxrepos.NewReportRepository(), store, logger),
	}
	auth := NewAuth(conf, store)

	return &testApp{
		conf:    conf,
		db:      db,
		auth:    auth,
		metrics: m,
		mail:    mail,
		server:  NewServer(conf, logger, auth, m, deps),
		church:  testutil.CreateChurch(t, db, "Igreja Central", church.PlanPro),
	}
}

// createUser adds a user with the given profile to the app's church and returns it with a valid token.
func (app *testApp) createUser(t *testing.T, name, email, profile string) (user.User, string) {
	t.Helper()
	usr := testutil.CreateUser(t, app.db, app.church.ID, name, email, "Secr3t!pass", profile, true)
	return usr, getToken(t, app.auth, usr)
}

func (app *testApp) do(req *http.Request, rec *httptest.ResponseRecorder) {
	app.server.ServeHTTP(rec, req)
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

func getToken(t *testing.T, auth *Auth, usr user.User) string {
	token, err := auth.GenerateToken(auth.UserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func unmarshalBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("unmarshalBody() failed: %v; body %s", err, rec.Body.String())
	}
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
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
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

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.do(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}
