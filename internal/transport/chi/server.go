// Package chi exposes the candidate matching API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/candidex/candidex/internal/domain"
	"github.com/candidex/candidex/internal/session"
)

// maxUploadBytes bounds resume uploads.
const maxUploadBytes = 16 << 20

// allowed resume upload extensions.
var allowedUploadExts = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// Matcher runs retrieval plus judge re-ranking.
type Matcher interface {
	FindMatches(ctx context.Context, resumeText string, prefs domain.Preferences, numMatches int) (domain.MatchResult, error)
}

// OutreachGenerator drafts contacts and a cover letter for one company.
type OutreachGenerator interface {
	GeneratePackage(ctx context.Context, resumeText string, info domain.CompanyInfo, rolePreference string) (domain.OutreachPackage, error)
}

// Extractor pulls plain text out of an uploaded file.
type Extractor interface {
	Text(path string) (string, error)
}

// Directory exposes the indexed company documents.
type Directory interface {
	Get(ctx context.Context, id string) (domain.Candidate, error)
	GetMulti(ctx context.Context, ids []string) ([]domain.Candidate, error)
	Delete(ctx context.Context, id string) error
	ListIDs(ctx context.Context) ([]string, error)
}

// Pinger reports backing store liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	sessions   *session.Store
	matcher    Matcher
	outreach   OutreachGenerator
	directory  Directory
	extractor  Extractor
	pinger     Pinger
	uploadsDir string
	logger     *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	sessions *session.Store,
	matcher Matcher,
	outreach OutreachGenerator,
	directory Directory,
	extractor Extractor,
	pinger Pinger,
	uploadsDir string,
	logger *zap.Logger,
) *Server {
	return &Server{
		sessions:   sessions,
		matcher:    matcher,
		outreach:   outreach,
		directory:  directory,
		extractor:  extractor,
		pinger:     pinger,
		uploadsDir: uploadsDir,
		logger:     logger,
	}
}

// RegisterRoutes mounts all API routes on the router.
func (s *Server) RegisterRoutes(r chirouter.Router) {
	r.Post("/uploadResume", s.UploadResume)
	r.Post("/submitPreferences", s.SubmitPreferences)
	r.Get("/getSessionData", s.GetSessionData)
	r.Get("/api/matches", s.GetMatches)
	r.Post("/api/outreach", s.GenerateOutreach)
	r.Get("/api/companies", s.ListCompanies)
	r.Get("/api/companies/{id}", s.GetCompany)
	r.Delete("/api/companies/{id}", s.DeleteCompany)
	r.Get("/healthz", s.Healthz)
	r.Get("/metrics", s.Metrics)
}

// UploadResume handles POST /uploadResume: stores the file, extracts its
// text, and opens a new session.
func (s *Server) UploadResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "No resume file provided")
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No resume file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No selected file")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedUploadExts[ext] {
		writeError(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	storedName := fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), sanitizeFilename(header.Filename))
	storedPath := filepath.Join(s.uploadsDir, storedName)

	if err := saveUpload(file, storedPath); err != nil {
		s.logger.Error("failed to save upload", zap.String("path", storedPath), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}

	resumeText, err := s.extractor.Text(storedPath)
	if err != nil && !errors.Is(err, domain.ErrExtractionEmpty) {
		s.logger.Error("failed to extract resume text", zap.String("path", storedPath), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error processing resume file")
		return
	}

	sessionID := s.sessions.Create()
	_ = s.sessions.SetResume(sessionID, resumeText, storedName)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Resume uploaded successfully",
		"filename":    storedName,
		"resume_text": resumeText,
		"session_id":  sessionID,
	})
}

type preferencesRequest struct {
	SessionID     string    `json:"session_id"`
	DesiredRoles  *[]string `json:"desired_roles"`
	Industries    *[]string `json:"industries"`
	WorkLocations *[]string `json:"work_locations"`
	CompanyStages *[]string `json:"company_stages"`
}

// SubmitPreferences handles POST /submitPreferences.
func (s *Server) SubmitPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := s.sessions.Get(req.SessionID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing session ID")
		return
	}

	fields := []struct {
		name  string
		value *[]string
	}{
		{"desired_roles", req.DesiredRoles},
		{"industries", req.Industries},
		{"work_locations", req.WorkLocations},
		{"company_stages", req.CompanyStages},
	}
	for _, f := range fields {
		if f.value == nil {
			writeError(w, http.StatusBadRequest, "Missing required field: "+f.name)
			return
		}
	}

	prefs := domain.Preferences{
		DesiredRoles:  *req.DesiredRoles,
		Industries:    *req.Industries,
		WorkLocations: *req.WorkLocations,
		CompanyStages: *req.CompanyStages,
	}
	if err := s.sessions.SetPreferences(req.SessionID, prefs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing session ID")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Preferences submitted successfully",
		"session_id":  req.SessionID,
		"preferences": prefs,
	})
}

// GetSessionData handles GET /getSessionData.
func (s *Server) GetSessionData(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromQuery(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_data": map[string]any{
			"resume_text":       sess.ResumeText,
			"uploaded_file":     sess.UploadedFile,
			"preferences":       sess.Preferences,
			"matches":           sess.Matches,
			"outreach_packages": sess.OutreachPackages,
		},
	})
}

// GetMatches handles GET /api/matches.
func (s *Server) GetMatches(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	sess, ok := s.sessionFromQuery(w, r)
	if !ok {
		return
	}

	if sess.ResumeText == "" {
		writeError(w, http.StatusBadRequest, "No resume found. Please upload a resume first.")
		return
	}
	if sess.Preferences == nil {
		writeError(w, http.StatusBadRequest, "No preferences found. Please set preferences first.")
		return
	}

	numMatches := 0
	if raw := r.URL.Query().Get("num_matches"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "num_matches must be a positive integer")
			return
		}
		numMatches = n
	}

	result, err := s.matcher.FindMatches(r.Context(), sess.ResumeText, *sess.Preferences, numMatches)
	if err != nil {
		s.logger.Error("failed to get matches", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to get company matches")
		return
	}

	_ = s.sessions.SetMatches(sessionID, result)

	writeJSON(w, http.StatusOK, map[string]any{
		"matches":           result.Matches,
		"count":             result.Count,
		"min_score_applied": result.MinScoreApplied,
	})
}

type outreachRequest struct {
	SessionID   string `json:"session_id"`
	CompanyName string `json:"company_name"`
}

// GenerateOutreach handles POST /api/outreach.
func (s *Server) GenerateOutreach(w http.ResponseWriter, r *http.Request) {
	var req outreachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" || req.CompanyName == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters: session_id and company_name")
		return
	}

	sess, err := s.sessions.Get(req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	info, found := companyFromMatches(sess.Matches, req.CompanyName)
	if !found {
		writeError(w, http.StatusNotFound, "Company not found in matches")
		return
	}

	var rolePreference string
	if sess.Preferences != nil && len(sess.Preferences.DesiredRoles) > 0 {
		rolePreference = sess.Preferences.DesiredRoles[0]
	}

	pkg, err := s.outreach.GeneratePackage(r.Context(), sess.ResumeText, info, rolePreference)
	if err != nil {
		s.logger.Error("failed to generate outreach package",
			zap.String("session_id", req.SessionID),
			zap.String("company", req.CompanyName),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to generate outreach package")
		return
	}

	_ = s.sessions.SetOutreachPackage(req.SessionID, req.CompanyName, pkg)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"outreach_package": map[string]any{
			"company_name": pkg.CompanyName,
			"contacts":     pkg.Contacts,
			"cover_letter": pkg.CoverLetter,
		},
	})
}

// ListCompanies handles GET /api/companies: every indexed company with
// its id and name.
func (s *Server) ListCompanies(w http.ResponseWriter, r *http.Request) {
	ids, err := s.directory.ListIDs(r.Context())
	if err != nil {
		s.logger.Error("failed to list companies", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list companies")
		return
	}

	candidates, err := s.directory.GetMulti(r.Context(), ids)
	if err != nil {
		s.logger.Error("failed to fetch companies", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list companies")
		return
	}

	companies := make([]map[string]any, 0, len(candidates))
	for _, c := range candidates {
		companies = append(companies, map[string]any{
			"id":           c.ID,
			"company_name": c.Metadata["company_name"],
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"companies": companies,
		"count":     len(companies),
	})
}

// GetCompany handles GET /api/companies/{id}.
func (s *Server) GetCompany(w http.ResponseWriter, r *http.Request) {
	id := chirouter.URLParam(r, "id")

	c, err := s.directory.Get(r.Context(), id)
	if errors.Is(err, domain.ErrCompanyNotFound) {
		writeError(w, http.StatusNotFound, "Company not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get company", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to get company")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":           c.ID,
		"company_text": c.Text,
		"metadata":     c.Metadata,
	})
}

// DeleteCompany handles DELETE /api/companies/{id}.
func (s *Server) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	id := chirouter.URLParam(r, "id")

	err := s.directory.Delete(r.Context(), id)
	if errors.Is(err, domain.ErrCompanyNotFound) {
		writeError(w, http.StatusNotFound, "Company not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to delete company", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete company")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Company deleted",
		"id":      id,
	})
}

// Healthz handles GET /healthz.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.pinger.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) sessionFromQuery(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "Invalid or missing session ID")
		return session.Session{}, false
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing session ID")
		return session.Session{}, false
	}
	return sess, true
}

func companyFromMatches(matches *domain.MatchResult, companyName string) (domain.CompanyInfo, bool) {
	if matches == nil {
		return domain.CompanyInfo{}, false
	}
	for _, m := range matches.Matches {
		if m.CompanyName == companyName {
			return domain.CompanyInfo{
				CompanyName:        m.CompanyName,
				CompanyDescription: m.CompanyDescription,
				Industry:           m.Metadata["industry"],
			}, true
		}
	}
	return domain.CompanyInfo{}, false
}

func saveUpload(src io.Reader, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

var unsafeFilenameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename strips path components and unsafe characters from a
// client-supplied filename.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = unsafeFilenameRe.ReplaceAllString(name, "_")
	return strings.Trim(name, "._")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
