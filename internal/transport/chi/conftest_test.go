package chi

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/candidex/candidex/internal/domain"
	"github.com/candidex/candidex/internal/session"
)

type mockMatcher struct {
	result domain.MatchResult
	err    error

	lastResume string
	lastPrefs  domain.Preferences
	lastNum    int
}

func (m *mockMatcher) FindMatches(
	_ context.Context, resumeText string, prefs domain.Preferences, numMatches int,
) (domain.MatchResult, error) {
	m.lastResume = resumeText
	m.lastPrefs = prefs
	m.lastNum = numMatches
	return m.result, m.err
}

type mockOutreach struct {
	pkg domain.OutreachPackage
	err error

	lastInfo domain.CompanyInfo
	lastRole string
}

func (m *mockOutreach) GeneratePackage(
	_ context.Context, _ string, info domain.CompanyInfo, rolePreference string,
) (domain.OutreachPackage, error) {
	m.lastInfo = info
	m.lastRole = rolePreference
	return m.pkg, m.err
}

type mockDirectory struct {
	candidates []domain.Candidate
	getErr     error
	deleteErr  error
	listErr    error

	lastGetID    string
	lastDeleteID string
	lastMultiIDs []string
}

func (m *mockDirectory) Get(_ context.Context, id string) (domain.Candidate, error) {
	m.lastGetID = id
	if m.getErr != nil {
		return domain.Candidate{}, m.getErr
	}
	for _, c := range m.candidates {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Candidate{}, domain.ErrCompanyNotFound
}

func (m *mockDirectory) GetMulti(_ context.Context, ids []string) ([]domain.Candidate, error) {
	m.lastMultiIDs = ids
	return m.candidates, nil
}

func (m *mockDirectory) Delete(_ context.Context, id string) error {
	m.lastDeleteID = id
	return m.deleteErr
}

func (m *mockDirectory) ListIDs(_ context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	ids := make([]string, 0, len(m.candidates))
	for _, c := range m.candidates {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

type mockExtractor struct {
	text string
	err  error

	lastPath string
}

func (m *mockExtractor) Text(path string) (string, error) {
	m.lastPath = path
	return m.text, m.err
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type testEnv struct {
	server    *Server
	router    *chirouter.Mux
	sessions  *session.Store
	matcher   *mockMatcher
	outreach  *mockOutreach
	directory *mockDirectory
	extractor *mockExtractor
	pinger    *mockPinger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		sessions:  session.NewStore(),
		matcher:   &mockMatcher{},
		outreach:  &mockOutreach{},
		directory: &mockDirectory{},
		extractor: &mockExtractor{text: "extracted resume text"},
		pinger:    &mockPinger{},
	}
	env.server = NewServer(
		env.sessions, env.matcher, env.outreach, env.directory, env.extractor, env.pinger,
		t.TempDir(), zap.NewNop(),
	)
	env.router = chirouter.NewRouter()
	env.server.RegisterRoutes(env.router)
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// multipartResume builds a multipart body with one "resume" file part.
func multipartResume(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("resume", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}
