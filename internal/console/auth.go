package console

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"anycomp/internal/domain"
	"anycomp/internal/events"
	"anycomp/internal/nav"
	"anycomp/internal/pkg/response"
)

type loginForm struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

func (s *Server) Login(c *gin.Context) {
	var form loginForm
	if !bind(c, &form) {
		return
	}

	prev := s.session.User()
	if !s.session.Login(c.Request.Context(), form.Identifier, form.Password) {
		st := s.session.State()
		response.Error(c, http.StatusUnauthorized, "LOGIN_FAILED", st.Error)
		return
	}

	st := s.session.State()
	s.switchedUser(prev, st.User)
	s.hub.Publish(events.Event{Type: events.TypeSession, Payload: st})
	response.Success(c, http.StatusOK, st)
}

func (s *Server) Register(c *gin.Context) {
	var form domain.RegisterRequest
	if !bind(c, &form) {
		return
	}

	prev := s.session.User()
	if !s.session.Register(c.Request.Context(), form) {
		response.Error(c, http.StatusBadRequest, "REGISTRATION_FAILED", s.session.State().Error)
		return
	}

	st := s.session.State()
	s.switchedUser(prev, st.User)
	s.hub.Publish(events.Event{Type: events.TypeSession, Payload: st})
	response.Success(c, http.StatusCreated, st)
}

func (s *Server) Logout(c *gin.Context) {
	s.session.Logout(c.Request.Context())
	s.resetUser()
	response.Success(c, http.StatusOK, gin.H{"redirect": nav.LoginPath})
}

// switchedUser drops the previous user's forms and cache when a login lands
// on a different account.
func (s *Server) switchedUser(prev, cur *domain.User) {
	if prev != nil && cur != nil && prev.ID == cur.ID {
		return
	}
	s.resetUser()
}

func (s *Server) Session(c *gin.Context) {
	response.Success(c, http.StatusOK, s.session.State())
}
