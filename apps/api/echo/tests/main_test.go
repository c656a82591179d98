package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/kitabu/apps/api/echo"
	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/core/attendance"
	"github.com/trezcool/kitabu/core/donation"
	"github.com/trezcool/kitabu/core/expense"
	"github.com/trezcool/kitabu/core/finance"
	"github.com/trezcool/kitabu/core/member"
	"github.com/trezcool/kitabu/services/images"
	"github.com/trezcool/kitabu/services/logger"
	"github.com/trezcool/kitabu/storage/docstore/inmemdb"
	"github.com/trezcool/kitabu/tests"
)

const uploadsPrefix = "/uploads"

type testEnv struct {
	app     *Server
	db      core.DB
	backend *inmemdb.Backend
}

func setup(t *testing.T) testEnv {
	t.Helper()
	db, backend := testutil.NewRawDB(t)
	return testEnv{app: newServer(t, db), db: db, backend: backend}
}

func newServer(t *testing.T, db core.DB) *Server {
	t.Helper()
	logger := logsvc.NewNopLogger()

	// the prefix is normalized: files are served under uploadsPrefix
	uploads := core.UploadsConfig{Dir: t.TempDir(), URLPrefix: "uploads/", MaxWidth: 64, MaxHeight: 64}
	imgSvc, err := imagesvc.NewService(uploads)
	require.NoError(t, err)

	conf := &core.Config{
		AppName:  "Kitabu",
		Build:    "test",
		TestMode: true,
		Server: core.ServerConfig{
			AllowOrigins:   []string{"*"},
			BodyLimit:      "2M",
			DisableReqLogs: true,
		},
		Uploads: uploads,
	}
	validate, translator := testutil.NewValidator(donation.InitValidators)

	app := NewServer(ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		MemberSvc:     member.NewService(db, imgSvc, logger),
		AttendanceSvc: attendance.NewService(db),
		DonationSvc:   donation.NewService(db),
		ExpenseSvc:    expense.NewService(db),
		FinanceSvc:    finance.NewService(db),
		Images:        imgSvc,
	})
	return app
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

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	var got, want interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal(body): %v; body %s", err, rec.Body.String())
	}
	if err := json.Unmarshal(tt.wantData, &want); err != nil {
		t.Fatalf("json.Unmarshal(wantData): %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("failed! data mismatch (-want +got):\n%s", diff)
	}
}

// runTests runs tests in order against env: each one sees the state left by the previous ones.
func runTests(t *testing.T, env testEnv, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
