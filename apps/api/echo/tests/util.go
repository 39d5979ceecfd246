package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	. "github.com/trezcool/suara/apps/api/echo"
	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
	"github.com/trezcool/suara/core/submission"
	"github.com/trezcool/suara/services/email"
	"github.com/trezcool/suara/services/logger"
	"github.com/trezcool/suara/services/metrics"
	"github.com/trezcool/suara/storage/database/dummy"
	"github.com/trezcool/suara/tests"
)

type fixture struct {
	app     *Server
	deps    ServerDeps
	conf    *core.Config
	lrnRepo learner.Repository
	lrnSvc  *learner.Service
	subSvc  *submission.Service
	mailSvc *emailsvc.ConsoleServiceMock
	reg     *prometheus.Registry
}

// setup serves a catalog of 3 batches of 2 stories (ids 1..6), "Penang" starting at batch 3.
func setup(t *testing.T) fixture {
	conf := testutil.NewConfig()
	conf.Server.DisableReqLogs = true
	logger := logsvc.NewZapLogger(zaptest.NewLogger(t).Sugar())
	core.ParseEmailTemplates(logger)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	reg := prometheus.NewRegistry()
	mtx, err := metrics.New(reg)
	if err != nil {
		t.Fatalf("metrics.New() failed: %v", err)
	}

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	lrnRepo := dummydb.NewLearnerRepository(db)
	subRepo := dummydb.NewSubmissionRepository(db)

	// set up services
	sched := testutil.NewScheduler(t, 3, 2, map[string]int{"Penang": 3, "Kedah": 2})
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	lrnSvc := learner.NewService(lrnRepo)
	subSvc := submission.NewService(conf, nil, subRepo, lrnSvc, sched, mailSvc, logger)

	// set up server
	deps := ServerDeps{
		Conf:          conf,
		Logger:        logger,
		LearnerSvc:    lrnSvc,
		SubmissionSvc: subSvc,
		Scheduler:     sched,
		Metrics:       mtx,
		Validate:      validate,
		Translator:    translator,
	}

	return fixture{
		app:     NewServer(deps),
		deps:    deps,
		conf:    conf,
		lrnRepo: lrnRepo,
		lrnSvc:  lrnSvc,
		subSvc:  subSvc,
		mailSvc: mailSvc,
		reg:     reg,
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
	wantErr  string // substring of the error message, when wantData is not exact
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func (f fixture) do(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newRequest(method, tt.path, tt.body)
	f.app.ServeHTTP(rec, req)
	return rec
}

// scrape returns the exposition text of the fixture's metrics.
func (f fixture) scrape(t *testing.T) string {
	req, rec := newRequest(http.MethodGet, "/metrics")
	metrics.Handler(f.reg).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape() failed: code = %v", rec.Code)
	}
	return rec.Body.String()
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = make([]interface{}, 0)
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
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
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
	}
	if tt.wantErr != "" {
		var got httpErr
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Errorf("json.Unmarshal() failed; err %v", err)
		}
		if !strings.Contains(got.Error, tt.wantErr) {
			t.Errorf("failed! error = %q; want it to contain %q", got.Error, tt.wantErr)
		}
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
