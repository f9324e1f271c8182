package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"premiere/internal/services"
	"premiere/internal/tracker"
)

var binder = &echo.DefaultBinder{}

func (s *Server) handleStatus(c echo.Context) error {
	status := s.daemon.Status(c.Request().Context())
	return success(c, http.StatusOK, FromDaemonStatus(status), "")
}

func (s *Server) handleSearch(c echo.Context) error {
	var q searchQuery
	if err := binder.BindQueryParams(c, &q); err != nil {
		return s.invalid(c, err)
	}
	q.Query = strings.TrimSpace(q.Query)
	if err := c.Validate(&q); err != nil {
		return s.invalid(c, err)
	}
	ctx := services.WithUserID(c.Request().Context(), q.UserID)
	results, err := s.service.Search(ctx, q.UserID, q.Query)
	if err != nil {
		return s.fail(c, "search", err)
	}
	out := make([]SearchResult, 0, len(results))
	for _, result := range results {
		out = append(out, FromSearchResult(result))
	}
	return success(c, http.StatusOK, out, "")
}

func (s *Server) handleEnable(c echo.Context) error {
	var req EnableRequest
	if err := c.Bind(&req); err != nil {
		return s.invalid(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return s.invalid(c, err)
	}
	ctx := services.WithTitleID(services.WithUserID(c.Request().Context(), req.UserID), req.TitleID)
	text, err := s.service.Enable(ctx, req.UserID, req.UserName, req.TitleID)
	if err != nil {
		return s.fail(c, "enable", err)
	}
	return success(c, http.StatusOK, MessageReply{Text: text}, "")
}

func (s *Server) handleDisable(c echo.Context) error {
	var p titlePath
	if err := binder.BindPathParams(c, &p); err != nil {
		return s.invalid(c, err)
	}
	if err := c.Validate(&p); err != nil {
		return s.invalid(c, err)
	}
	ctx := services.WithTitleID(services.WithUserID(c.Request().Context(), p.UserID), p.TitleID)
	text, err := s.service.Disable(ctx, p.UserID, p.TitleID)
	if err != nil {
		return s.fail(c, "disable", err)
	}
	return success(c, http.StatusOK, MessageReply{Text: text}, "")
}

func (s *Server) handleListAlerts(c echo.Context) error {
	var p userPath
	if err := binder.BindPathParams(c, &p); err != nil {
		return s.invalid(c, err)
	}
	if err := c.Validate(&p); err != nil {
		return s.invalid(c, err)
	}
	ctx := services.WithUserID(c.Request().Context(), p.UserID)
	records, err := s.service.Alerts(ctx, p.UserID)
	if err != nil {
		return s.fail(c, "list alerts", err)
	}
	return success(c, http.StatusOK, AlertList{
		Text:   tracker.FormatAlertList(records),
		Alerts: FromRecords(records, s.loc),
	}, "")
}

func (s *Server) handleAction(c echo.Context) error {
	var req ActionRequest
	if err := c.Bind(&req); err != nil {
		return s.invalid(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return s.invalid(c, err)
	}
	action, err := tracker.ParseAction(req.Action)
	if err != nil {
		return s.invalid(c, err)
	}
	ctx := services.WithTitleID(services.WithUserID(c.Request().Context(), req.UserID), req.TitleID)
	reply, err := s.service.Dispatch(ctx, tracker.ActionRequest{
		Action:   action,
		UserID:   req.UserID,
		UserName: req.UserName,
		TitleID:  req.TitleID,
	})
	if err != nil {
		return s.fail(c, action.String(), err)
	}
	return success(c, http.StatusOK, FromActionReply(reply), "")
}

func (s *Server) handleCycle(c echo.Context) error {
	var req CycleRequest
	if err := c.Bind(&req); err != nil {
		return s.invalid(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return s.invalid(c, err)
	}
	asOf := s.now().In(s.loc)
	if req.Date != "" {
		parsed, err := time.ParseInLocation(releaseDateFormat, req.Date, s.loc)
		if err != nil {
			return s.invalid(c, err)
		}
		asOf = parsed
	}
	summary, err := s.daemon.RunNow(c.Request().Context(), asOf)
	if err != nil {
		return s.fail(c, "cycle", err)
	}
	return success(c, http.StatusOK, FromCycleSummary(summary), "Cycle completed")
}
