package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/candidex/candidex/internal/domain"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return body
}

func uploadResume(t *testing.T, env *testEnv) string {
	t.Helper()
	buf, contentType := multipartResume(t, "cv.pdf", []byte("%PDF-1.4 fake"))
	req := httptest.NewRequest(http.MethodPost, "/uploadResume", buf)
	req.Header.Set("Content-Type", contentType)

	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload failed: %d %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	id, _ := body["session_id"].(string)
	if id == "" {
		t.Fatalf("no session id in response: %v", body)
	}
	return id
}

func submitPreferences(t *testing.T, env *testEnv, sessionID string) {
	t.Helper()
	payload := `{"session_id":"` + sessionID + `",` +
		`"desired_roles":["Backend Engineer"],"industries":["Fintech"],` +
		`"work_locations":["Remote"],"company_stages":["Early Stage"]}`
	req := httptest.NewRequest(http.MethodPost, "/submitPreferences", strings.NewReader(payload))
	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit preferences failed: %d %s", rec.Code, rec.Body.String())
	}
}

func TestUploadResume(t *testing.T) {
	env := newTestEnv(t)

	buf, contentType := multipartResume(t, "My CV (final).pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/uploadResume", buf)
	req.Header.Set("Content-Type", contentType)

	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["message"] != "Resume uploaded successfully" {
		t.Errorf("message: %v", body["message"])
	}
	if body["resume_text"] != "extracted resume text" {
		t.Errorf("resume_text: %v", body["resume_text"])
	}

	filename, _ := body["filename"].(string)
	if !strings.HasSuffix(filename, ".pdf") {
		t.Errorf("stored filename lost extension: %q", filename)
	}
	if strings.ContainsAny(filename, "() ") {
		t.Errorf("stored filename not sanitized: %q", filename)
	}

	// Session was created with the extracted text.
	sess, err := env.sessions.Get(body["session_id"].(string))
	if err != nil {
		t.Fatalf("session missing: %v", err)
	}
	if sess.ResumeText != "extracted resume text" || sess.UploadedFile != filename {
		t.Errorf("session state: %+v", sess)
	}
}

func TestUploadResume_InvalidType(t *testing.T) {
	env := newTestEnv(t)

	buf, contentType := multipartResume(t, "notes.txt", []byte("plain text"))
	req := httptest.NewRequest(http.MethodPost, "/uploadResume", buf)
	req.Header.Set("Content-Type", contentType)

	rec := env.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Invalid file type" {
		t.Errorf("error: %v", body["error"])
	}
}

func TestUploadResume_MissingFile(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/uploadResume", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")

	rec := env.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitPreferences(t *testing.T) {
	env := newTestEnv(t)
	sessionID := uploadResume(t, env)

	submitPreferences(t, env, sessionID)

	sess, _ := env.sessions.Get(sessionID)
	if sess.Preferences == nil || sess.Preferences.DesiredRoles[0] != "Backend Engineer" {
		t.Errorf("preferences not stored: %+v", sess.Preferences)
	}
}

func TestSubmitPreferences_MissingField(t *testing.T) {
	env := newTestEnv(t)
	sessionID := uploadResume(t, env)

	payload := `{"session_id":"` + sessionID + `","desired_roles":["SRE"],"industries":[],"work_locations":[]}`
	req := httptest.NewRequest(http.MethodPost, "/submitPreferences", strings.NewReader(payload))

	rec := env.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Missing required field: company_stages" {
		t.Errorf("error: %v", body["error"])
	}
}

func TestSubmitPreferences_UnknownSession(t *testing.T) {
	env := newTestEnv(t)

	payload := `{"session_id":"nope","desired_roles":[],"industries":[],"work_locations":[],"company_stages":[]}`
	req := httptest.NewRequest(http.MethodPost, "/submitPreferences", strings.NewReader(payload))

	rec := env.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetSessionData(t *testing.T) {
	env := newTestEnv(t)
	sessionID := uploadResume(t, env)
	submitPreferences(t, env, sessionID)

	req := httptest.NewRequest(http.MethodGet, "/getSessionData?session_id="+sessionID, nil)
	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	data, ok := body["session_data"].(map[string]any)
	if !ok {
		t.Fatalf("no session_data: %v", body)
	}
	if data["resume_text"] != "extracted resume text" {
		t.Errorf("resume_text: %v", data["resume_text"])
	}
	if data["preferences"] == nil {
		t.Error("preferences missing from session data")
	}
}

func TestGetMatches(t *testing.T) {
	env := newTestEnv(t)
	sessionID := uploadResume(t, env)
	submitPreferences(t, env, sessionID)

	env.matcher.result = domain.MatchResult{
		Matches: []domain.RankedMatch{{
			CompanyName: "Acme",
			FinalScore:  0.8,
			Metadata:    map[string]string{"industry": "Robotics"},
		}},
		Count:           1,
		MinScoreApplied: 0.6,
	}

	req := httptest.NewRequest(http.MethodGet, "/api/matches?session_id="+sessionID+"&num_matches=3", nil)
	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["count"] != float64(1) {
		t.Errorf("count: %v", body["count"])
	}
	if body["min_score_applied"] != 0.6 {
		t.Errorf("min_score_applied: %v", body["min_score_applied"])
	}
	if env.matcher.lastNum != 3 {
		t.Errorf("num_matches not forwarded: %d", env.matcher.lastNum)
	}
	if env.matcher.lastResume != "extracted resume text" {
		t.Errorf("resume not forwarded: %q", env.matcher.lastResume)
	}

	// Result lands in the session for later outreach lookups.
	sess, _ := env.sessions.Get(sessionID)
	if sess.Matches == nil || sess.Matches.Count != 1 {
		t.Errorf("matches not stored in session: %+v", sess.Matches)
	}
}

func TestGetMatches_RequiresResumeAndPreferences(t *testing.T) {
	env := newTestEnv(t)

	// Session with no resume text.
	env.extractor.text = ""
	sessionID := uploadResume(t, env)

	req := httptest.NewRequest(http.MethodGet, "/api/matches?session_id="+sessionID, nil)
	rec := env.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without resume, got %d", rec.Code)
	}

	// Now with resume but no preferences.
	env.extractor.text = "resume"
	sessionID = uploadResume(t, env)
	req = httptest.NewRequest(http.MethodGet, "/api/matches?session_id="+sessionID, nil)
	rec = env.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without preferences, got %d", rec.Code)
	}
}

func TestGetMatches_MatcherError(t *testing.T) {
	env := newTestEnv(t)
	sessionID := uploadResume(t, env)
	submitPreferences(t, env, sessionID)
	env.matcher.err = errors.New("index down")

	req := httptest.NewRequest(http.MethodGet, "/api/matches?session_id="+sessionID, nil)
	rec := env.do(t, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Failed to get company matches" {
		t.Errorf("error: %v", body["error"])
	}
}

func TestGenerateOutreach(t *testing.T) {
	env := newTestEnv(t)
	sessionID := uploadResume(t, env)
	submitPreferences(t, env, sessionID)

	_ = env.sessions.SetMatches(sessionID, domain.MatchResult{
		Matches: []domain.RankedMatch{{
			CompanyName:        "Acme",
			CompanyDescription: "Robots",
			Metadata:           map[string]string{"industry": "Robotics"},
		}},
		Count: 1,
	})
	env.outreach.pkg = domain.OutreachPackage{
		CompanyName: "Acme",
		Contacts:    []domain.Contact{{Name: "Maria Lopez"}},
		CoverLetter: "Dear Hiring Manager,",
	}

	payload := `{"session_id":"` + sessionID + `","company_name":"Acme"}`
	req := httptest.NewRequest(http.MethodPost, "/api/outreach", strings.NewReader(payload))
	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("success: %v", body["success"])
	}
	pkg, _ := body["outreach_package"].(map[string]any)
	if pkg["company_name"] != "Acme" || pkg["cover_letter"] != "Dear Hiring Manager," {
		t.Errorf("outreach_package: %v", pkg)
	}

	if env.outreach.lastInfo.Industry != "Robotics" {
		t.Errorf("industry not passed from match metadata: %+v", env.outreach.lastInfo)
	}
	if env.outreach.lastRole != "Backend Engineer" {
		t.Errorf("role preference: %q", env.outreach.lastRole)
	}

	sess, _ := env.sessions.Get(sessionID)
	if _, ok := sess.OutreachPackages["Acme"]; !ok {
		t.Error("package not stored in session")
	}
}

func TestGenerateOutreach_CompanyNotInMatches(t *testing.T) {
	env := newTestEnv(t)
	sessionID := uploadResume(t, env)
	_ = env.sessions.SetMatches(sessionID, domain.MatchResult{})

	payload := `{"session_id":"` + sessionID + `","company_name":"Ghost Corp"}`
	req := httptest.NewRequest(http.MethodPost, "/api/outreach", strings.NewReader(payload))
	rec := env.do(t, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Company not found in matches" {
		t.Errorf("error: %v", body["error"])
	}
}

func TestGenerateOutreach_MissingParams(t *testing.T) {
	env := newTestEnv(t)

	payload := `{"session_id":"abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/outreach", strings.NewReader(payload))
	rec := env.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListCompanies(t *testing.T) {
	env := newTestEnv(t)
	env.directory.candidates = []domain.Candidate{
		{ID: "acme_1a2b3c4d", Metadata: map[string]string{"company_name": "Acme"}},
		{ID: "orbital_5e6f7a8b", Metadata: map[string]string{"company_name": "Orbital"}},
	}

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/companies", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["count"] != float64(2) {
		t.Errorf("count: %v", body["count"])
	}
	companies, _ := body["companies"].([]any)
	if len(companies) != 2 {
		t.Fatalf("companies: %v", body["companies"])
	}
	first, _ := companies[0].(map[string]any)
	if first["id"] != "acme_1a2b3c4d" || first["company_name"] != "Acme" {
		t.Errorf("first company: %v", first)
	}
	if len(env.directory.lastMultiIDs) != 2 {
		t.Errorf("listed ids not forwarded to the batch fetch: %v", env.directory.lastMultiIDs)
	}
}

func TestListCompanies_StoreError(t *testing.T) {
	env := newTestEnv(t)
	env.directory.listErr = errors.New("connection refused")

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/companies", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestGetCompany(t *testing.T) {
	env := newTestEnv(t)
	env.directory.candidates = []domain.Candidate{
		{
			ID:       "acme_1a2b3c4d",
			Text:     "Acme raised 5 million.",
			Metadata: map[string]string{"company_name": "Acme", "industry": "robotics"},
		},
	}

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/companies/acme_1a2b3c4d", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["id"] != "acme_1a2b3c4d" || body["company_text"] != "Acme raised 5 million." {
		t.Errorf("body: %v", body)
	}
	metadata, _ := body["metadata"].(map[string]any)
	if metadata["industry"] != "robotics" {
		t.Errorf("metadata: %v", metadata)
	}
}

func TestGetCompany_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/companies/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Company not found" {
		t.Errorf("error: %v", body["error"])
	}
}

func TestDeleteCompany(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodDelete, "/api/companies/acme_1a2b3c4d", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if env.directory.lastDeleteID != "acme_1a2b3c4d" {
		t.Errorf("delete id: %q", env.directory.lastDeleteID)
	}
	if body := decodeBody(t, rec); body["message"] != "Company deleted" {
		t.Errorf("message: %v", body["message"])
	}
}

func TestDeleteCompany_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.directory.deleteErr = domain.ErrCompanyNotFound

	rec := env.do(t, httptest.NewRequest(http.MethodDelete, "/api/companies/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	env.pinger.err = errors.New("connection refused")
	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cv.pdf", "cv.pdf"},
		{"My CV (final).pdf", "My_CV_final_.pdf"},
		{"../../etc/passwd", "passwd"},
		{"résumé.pdf", "r_sum_.pdf"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
