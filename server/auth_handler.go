package server

import (
	"net/http"
	"time"

	"SpectraFM/core/auth"
	"SpectraFM/logger"
)

// LoginRequest carries the operator password.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginHandler checks the password against the configured bcrypt hash and returns a token.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if s.adminHash == "" {
		writeError(w, http.StatusForbidden, "Login is disabled")
		return
	}

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "Password is required")
		return
	}
	if !auth.CheckPasswordHash(req.Password, s.adminHash) {
		logger.Warn("Login failed", logger.String("username", req.Username))
		writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	subject := req.Username
	if subject == "" {
		subject = "admin"
	}
	token, exp, err := s.issuer.Issue(subject)
	if err != nil {
		logger.Error("Failed to issue token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("Login succeeded", logger.String("username", subject))
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: exp})
}

type SessionResponse struct {
	Subject string `json:"subject"`
}

// MeHandler reports who the presented token belongs to.
func (s *Server) MeHandler(w http.ResponseWriter, r *http.Request) {
	subject, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Subject: subject})
}
