package httpserver

import (
	"net/http"
	"time"

	"github.com/clearpathhq/clearpath/internal/domain"
)

type userDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Company   string    `json:"company,omitempty"`
	Skills    []string  `json:"skills,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserDTO(u domain.User) userDTO {
	return userDTO{
		ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role),
		Company: u.Company, Skills: u.Skills, CreatedAt: u.CreatedAt,
	}
}

// RegisterHandler creates a user account and starts a session.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name     string `json:"name" validate:"required,max=200"`
			Email    string `json:"email" validate:"required,email,max=320"`
			Password string `json:"password" validate:"required,min=8,max=200"`
			Role     string `json:"role" validate:"required,oneof=candidate recruiter"`
			Company  string `json:"company" validate:"max=200"`
		}
		if !decodeAndValidate(w, r, &req) {
			return
		}
		u, err := s.Auth.Register(r.Context(), req.Name, req.Email, req.Password, domain.Role(req.Role), req.Company)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		sessionValue, err := s.Sessions.CreateSession(u.ID, u.Role)
		if err != nil {
			writeError(w, r, domain.ErrInternal, nil)
			return
		}
		s.Sessions.SetSessionCookie(w, sessionValue)
		writeJSON(w, http.StatusCreated, toUserDTO(u))
	}
}

// LoginHandler checks credentials and starts a session.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email" validate:"required,email,max=320"`
			Password string `json:"password" validate:"required,max=200"`
		}
		if !decodeAndValidate(w, r, &req) {
			return
		}
		u, err := s.Auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		sessionValue, err := s.Sessions.CreateSession(u.ID, u.Role)
		if err != nil {
			writeError(w, r, domain.ErrInternal, nil)
			return
		}
		s.Sessions.SetSessionCookie(w, sessionValue)
		writeJSON(w, http.StatusOK, toUserDTO(u))
	}
}

// LogoutHandler drops the session cookie.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Sessions.ClearSessionCookie(w)
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
	}
}

// MeHandler returns the authenticated user's profile.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFrom(r)
		u, err := s.Auth.Users.Get(r.Context(), sess.UserID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		u.PasswordHash = ""
		writeJSON(w, http.StatusOK, toUserDTO(u))
	}
}
