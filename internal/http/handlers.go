package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"mediguard/internal/core"
	"mediguard/internal/report"
	"mediguard/pkg"
)

type createSessionRequest struct {
	Profile pkg.PatientProfile `json:"profile"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	Greeting  string `json:"greeting"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.Sessions.Len(),
	})
}

// handleCreateSession starts a session.  The profile is optional and can be
// filled in later with PUT /profile.
func (s *Server) handleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	sess := s.Sessions.Create(req.Profile)
	s.Log.Info().Str("session_id", sess.ID).Msg("session started")
	return c.JSON(http.StatusCreated, createSessionResponse{
		SessionID: sess.ID,
		Greeting:  core.Greeting,
	})
}

func (s *Server) handleGetSession(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.View(s.Triage.MessageCap))
}

func (s *Server) handleEndSession(c echo.Context) error {
	id := c.Param("id")
	if err := s.Sessions.End(id); err != nil {
		return httpError(err)
	}
	s.Log.Info().Str("session_id", id).Msg("session ended")
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handlePutProfile(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var p pkg.PatientProfile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid profile")
	}
	sess.SetProfile(p)
	return c.JSON(http.StatusOK, p)
}

// handlePostMessage runs one patient submission through the triage pipeline.
// A blank message is a no-op.
func (s *Server) handlePostMessage(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req pkg.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := s.Triage.Send(c.Request().Context(), sess, req.Content)
	if errors.Is(err, core.ErrEmptyInput) {
		return c.NoContent(http.StatusNoContent)
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDismiss(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	if sess.Dismiss() {
		s.Log.Info().Str("session_id", sess.ID).Msg("emergency directive dismissed")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleVerdict(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	v := sess.Verdict()
	if v == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no verdict yet")
	}
	return c.JSON(http.StatusOK, v)
}

// handleReport renders the hand-off report as text (default) or PDF.
func (s *Server) handleReport(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	rep := report.Build(sess.View(s.Triage.MessageCap), s.now())

	switch c.QueryParam("format") {
	case "", "text":
		return c.String(http.StatusOK, rep.Text())
	case "pdf":
		var buf bytes.Buffer
		if err := rep.PDF(&buf); err != nil {
			s.Log.Error().Err(err).Str("session_id", sess.ID).Msg("failed to render report")
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to render report")
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="mediguard-report-%s.pdf"`, sess.ID))
		return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "format must be text or pdf")
	}
}

func (s *Server) handleRules(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Triage.Rules)
}

// handleEvents lists recent audit events when a database is configured.
func (s *Server) handleEvents(c echo.Context) error {
	if s.Events == nil {
		return echo.NewHTTPError(http.StatusNotFound, "audit log is not enabled")
	}
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	events, err := s.Events.Recent(c.Request().Context(), limit)
	if err != nil {
		s.Log.Error().Err(err).Msg("failed to list events")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list events")
	}
	if events == nil {
		events = []core.Event{}
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) session(c echo.Context) (*core.Session, error) {
	sess, err := s.Sessions.Get(c.Param("id"))
	if err != nil {
		return nil, httpError(err)
	}
	return sess, nil
}

// httpError maps pipeline sentinels onto status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrBusy), errors.Is(err, core.ErrEmergencyActive):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
