package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"healthmate/internal/core"
	"healthmate/internal/db"
	"healthmate/pkg"
)

// symptomListLimit truncates the /api/symptoms listing for readability.
const symptomListLimit = 100

// Server bundles together the dependencies required by HTTP handlers.  It
// implements http.Handler so it can be passed to http.ListenAndServe.
type Server struct {
	Users       *db.UserRepository
	Memory      core.MemoryStore
	Chat        *core.ChatService
	Matcher     core.SymptomMatcher
	Precautions *core.PrecautionTable
	JWTSecret   []byte
}

// NewServer constructs a Server.
func NewServer(users *db.UserRepository, memory core.MemoryStore, chat *core.ChatService, matcher core.SymptomMatcher, precautions *core.PrecautionTable, jwtSecret []byte) *Server {
	return &Server{
		Users:       users,
		Memory:      memory,
		Chat:        chat,
		Matcher:     matcher,
		Precautions: precautions,
		JWTSecret:   jwtSecret,
	}
}

// ServeHTTP dispatches incoming requests based on the URL path.  Minimal
// routing logic is implemented here to keep dependencies light.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/health" && r.Method == http.MethodGet:
		s.handleHealth(w, r)
	case path == "/api/auth/register" && r.Method == http.MethodPost:
		s.handleRegister(w, r)
	case path == "/api/auth/login" && r.Method == http.MethodPost:
		s.handleLogin(w, r)
	case path == "/api/query" && r.Method == http.MethodPost:
		s.handleQuery(w, r)
	case path == "/api/chat" && r.Method == http.MethodPost:
		s.handleChat(w, r)
	case path == "/api/diseases" && r.Method == http.MethodGet:
		s.handleDiseases(w, r)
	case path == "/api/symptoms" && r.Method == http.MethodGet:
		s.handleSymptoms(w, r)
	case path == "/api/memory" && r.Method == http.MethodGet:
		s.handleGetMemory(w, r)
	case path == "/api/memory/long-term" && r.Method == http.MethodPost:
		s.handleUpdateLongTerm(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"message": "Disease query processing server is running",
	})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	user, err := s.Users.CreateUser(r.Context(), creds.Username, creds.Password)
	if errors.Is(err, db.ErrUsernameTaken) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	token, err := s.issueToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":   "success",
		"token":    token,
		"user_id":  user.ID,
		"username": user.Username,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.Users.Authenticate(r.Context(), strings.TrimSpace(creds.Username), creds.Password)
	if errors.Is(err, db.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	token, err := s.issueToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"token":    token,
		"user_id":  user.ID,
		"username": user.Username,
	})
}

// handleQuery runs the stateless pipeline: no authentication, no memory.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req pkg.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "missing 'query' field in request body")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query cannot be empty")
		return
	}
	resp, err := s.Chat.Answer(r.Context(), req.Query)
	if errors.Is(err, core.ErrUnknownTask) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleChat answers with the caller's memory as context and records the
// exchange.  A memory failure is logged but never blocks the reply.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userID, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var req pkg.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	result := s.Chat.Reply(r.Context(), userID, req.Message)
	if result.MemoryErr != nil {
		log.Printf("memory update failed for user %s: %v", userID, result.MemoryErr)
	}
	writeJSON(w, http.StatusOK, pkg.ChatResponse{
		Response:       result.Response,
		Status:         "success",
		ContextUpdated: result.ContextUpdated,
		TaskType:       result.TaskType,
	})
}

func (s *Server) handleDiseases(w http.ResponseWriter, _ *http.Request) {
	diseases := s.Precautions.AllDiseases()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"diseases": diseases,
		"count":    len(diseases),
	})
}

func (s *Server) handleSymptoms(w http.ResponseWriter, _ *http.Request) {
	symptoms := s.Matcher.AllSymptoms()
	total := len(symptoms)
	if total > symptomListLimit {
		symptoms = symptoms[:symptomListLimit]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"symptoms":    symptoms,
		"total_count": total,
	})
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	userID, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	mem, err := s.Memory.GetMemory(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, mem)
}

func (s *Server) handleUpdateLongTerm(w http.ResponseWriter, r *http.Request) {
	userID, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON object")
		return
	}
	err = s.Memory.UpdateLongTerm(r.Context(), userID, updates)
	if errors.Is(err, pkg.ErrInvalidArgument) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("failed to encode response:", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"status": "error", "message": msg})
}
