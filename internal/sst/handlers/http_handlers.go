package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/globalled/sst/internal/sst/auth"
	"github.com/globalled/sst/internal/sst/models"
	"go.uber.org/zap"
)

// maxBodyBytes caps request payloads at 16 MiB.
const maxBodyBytes = 16 << 20

// ComplianceController defines the business logic interface
// that the HTTP handlers will invoke.
type ComplianceController interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	CreateCompany(ctx context.Context, actorID uint, company *models.Company) (uint, error)
	ListEmployees(ctx context.Context) ([]models.EmployeeListing, error)
	CreateEmployee(ctx context.Context, employee *models.Employee) (uint, error)
	CreateExam(ctx context.Context, exam *models.Exam) (uint, error)
	CreateAccident(ctx context.Context, accident *models.Accident) (uint, error)
	ListPendingExams(ctx context.Context) ([]models.PendingExam, error)
	ListPendingAccidents(ctx context.Context) ([]models.PendingAccident, error)
	Dashboard(ctx context.Context) (*models.Dashboard, error)
}

// Authenticator issues tokens and resolves the caller's profile.
type Authenticator interface {
	Authenticate(ctx context.Context, email, secret string) (*models.Session, error)
	CurrentUser(ctx context.Context) (*models.PublicProfile, error)
}

// Pinger reports whether the datastore is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ComplianceHandler serves the JSON API, mapping requests to a
// ComplianceController and an Authenticator.
type ComplianceHandler struct {
	service ComplianceController
	auth    Authenticator
	db      Pinger
	logger  *zap.Logger
}

// NewComplianceHandler constructs a new ComplianceHandler.
func NewComplianceHandler(service ComplianceController, authenticator Authenticator, db Pinger, logger *zap.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		service: service,
		auth:    authenticator,
		db:      db,
		logger:  logger.Named("http_handler"),
	}
}

// envelope is the shape of every JSON response.
type envelope map[string]interface{}

func (h *ComplianceHandler) writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *ComplianceHandler) writeError(w http.ResponseWriter, err error) {
	status, message := h.mapServiceError(err)
	h.writeJSON(w, status, envelope{"success": false, "message": message})
}

func (h *ComplianceHandler) writeFailure(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, envelope{"success": false, "message": message})
}

// decode reads a JSON body into dst, answering 400 itself on failure.
func (h *ComplianceHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeFailure(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.writeFailure(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *ComplianceHandler) actor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		h.writeFailure(w, http.StatusUnauthorized, "authentication required")
	}
	return actor, ok
}

// Login handles POST /api/auth/login.
func (h *ComplianceHandler) Login(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.auth.Authenticate(r.Context(), req.Email, req.secret())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"token":   session.Token,
		"user":    profileToDTO(session.User),
	})
}

// Me handles GET /api/auth/me.
func (h *ComplianceHandler) Me(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	profile, err := h.auth.CurrentUser(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{"success": true, "user": profileToDTO(*profile)})
}

// ListCompanies handles GET /api/companies.
func (h *ComplianceHandler) ListCompanies(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	companies, err := h.service.ListCompanies(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	data := make([]companyDTO, 0, len(companies))
	for _, c := range companies {
		data = append(data, companyToDTO(c))
	}
	h.writeJSON(w, http.StatusOK, envelope{"success": true, "data": data})
}

// CreateCompany handles POST /api/companies.
func (h *ComplianceHandler) CreateCompany(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req companyDTO
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.CreateCompany(r.Context(), actor.UserID, req.toModel())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, envelope{"success": true, "id": id})
}

// ListEmployees handles GET /api/employees.
func (h *ComplianceHandler) ListEmployees(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	employees, err := h.service.ListEmployees(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	data := make([]employeeDTO, 0, len(employees))
	for _, emp := range employees {
		data = append(data, employeeToDTO(emp))
	}
	h.writeJSON(w, http.StatusOK, envelope{"success": true, "data": data})
}

// CreateEmployee handles POST /api/employees.
func (h *ComplianceHandler) CreateEmployee(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req employeeDTO
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.CreateEmployee(r.Context(), req.toModel())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, envelope{"success": true, "id": id})
}

// CreateExam handles POST /api/exams.
func (h *ComplianceHandler) CreateExam(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req examDTO
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.CreateExam(r.Context(), req.toModel())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, envelope{"success": true, "id": id})
}

// ListPendingExams handles GET /api/exams/pending.
func (h *ComplianceHandler) ListPendingExams(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	exams, err := h.service.ListPendingExams(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	data := make([]examDTO, 0, len(exams))
	for _, exam := range exams {
		data = append(data, pendingExamToDTO(exam))
	}
	h.writeJSON(w, http.StatusOK, envelope{"success": true, "data": data})
}

// CreateAccident handles POST /api/accidents.
func (h *ComplianceHandler) CreateAccident(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req accidentDTO
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.CreateAccident(r.Context(), req.toModel())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, envelope{"success": true, "id": id})
}

// ListPendingAccidents handles GET /api/accidents/pending.
func (h *ComplianceHandler) ListPendingAccidents(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	accidents, err := h.service.ListPendingAccidents(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	data := make([]accidentDTO, 0, len(accidents))
	for _, accident := range accidents {
		data = append(data, pendingAccidentToDTO(accident))
	}
	h.writeJSON(w, http.StatusOK, envelope{"success": true, "data": data})
}

// Dashboard handles GET /api/dashboard.
func (h *ComplianceHandler) Dashboard(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{"success": true, "data": dashboardToDTO(d)})
}

// Health handles GET /healthz.
func (h *ComplianceHandler) Health(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope{"success": true})
}
