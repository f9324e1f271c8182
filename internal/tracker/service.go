package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"premiere/internal/alerts"
	"premiere/internal/logging"
	"premiere/internal/metadata"
	"premiere/internal/releasedate"
	"premiere/internal/services"
)

// linkSuffix is appended to reply text on the title link button.
const linkSuffix = " (TMDB link)"

// SearchResult is a search match with the buttons the user may press. Note
// replaces the buttons when the title can no longer be tracked.
type SearchResult struct {
	Summary metadata.TitleSummary
	Actions []Action
	Note    string
	URL     string
}

// Service is the interactive surface of the tracker.
type Service struct {
	store    Store
	provider metadata.Provider
	resolver *Resolver
	locks    *KeyLocks
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
	handlers map[Action]actionHandler
}

type actionHandler func(ctx context.Context, req ActionRequest) (ActionReply, error)

// NewService builds a Service. locks must be shared with the Scheduler.
func NewService(store Store, provider metadata.Provider, resolver *Resolver, locks *KeyLocks, loc *time.Location, logger *slog.Logger, opts ...Option) *Service {
	o := buildOptions(opts)
	if locks == nil {
		locks = NewKeyLocks()
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Service{
		store:    store,
		provider: provider,
		resolver: resolver,
		locks:    locks,
		loc:      loc,
		logger:   logger,
		now:      o.now,
	}
	s.handlers = map[Action]actionHandler{
		ActionEnableAlert:  s.enableAction,
		ActionDisableAlert: s.disableAction,
		ActionDismiss:      s.dismissAction,
	}
	return s
}

// Enable starts tracking titleID for the user. The returned text describes
// the outcome, including terminal outcomes where nothing is tracked. Only
// store failures and invalid input return an error.
func (s *Service) Enable(ctx context.Context, userID, userName, titleID string) (string, error) {
	key, err := requireIDs("enable", userID, titleID)
	if err != nil {
		return "", err
	}
	userID, titleID = key.UserID, key.TitleID
	unlock := s.locks.Lock(key)
	defer unlock()

	rec, message := s.resolver.Resolve(ctx, userID, userName, titleID)
	if rec == nil {
		return message, nil
	}
	stored, err := s.store.Insert(ctx, *rec)
	if err != nil {
		return "", fmt.Errorf("enable %s: %w", titleID, err)
	}
	logging.WithContext(services.WithTitleID(services.WithUserID(ctx, userID), titleID), s.logger).Info("alert enabled",
		logging.String(logging.FieldEpisodeID, stored.EpisodeID),
		logging.Time("release_date", stored.ReleaseDate),
	)
	return fmt.Sprintf(messageAlertEnabled, releasedate.FormatLong(stored.ReleaseDate.In(s.loc))), nil
}

// Disable stops tracking titleID for the user.
func (s *Service) Disable(ctx context.Context, userID, titleID string) (string, error) {
	key, err := requireIDs("disable", userID, titleID)
	if err != nil {
		return "", err
	}
	userID, titleID = key.UserID, key.TitleID
	unlock := s.locks.Lock(key)
	defer unlock()

	removed, err := s.store.Delete(ctx, key)
	if err != nil {
		return "", fmt.Errorf("disable %s: %w", titleID, err)
	}
	if !removed {
		return MessageNoAlertToClear, nil
	}
	logging.WithContext(services.WithTitleID(services.WithUserID(ctx, userID), titleID), s.logger).Info("alert disabled")
	return MessageAlertDisabled, nil
}

// ListAlerts renders the user's tracked titles.
func (s *Service) ListAlerts(ctx context.Context, userID string) (string, error) {
	records, err := s.Alerts(ctx, userID)
	if err != nil {
		return "", err
	}
	return FormatAlertList(records), nil
}

// Alerts returns the user's stored records.
func (s *Service) Alerts(ctx context.Context, userID string) ([]alerts.Record, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, services.Wrap(services.ErrValidation, "tracker", "list alerts", "user id is required", nil)
	}
	records, err := s.store.QueryByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return records, nil
}

// TitleIDs returns the titles the user tracks.
func (s *Service) TitleIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	ids, err := s.store.TitleIDs(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("title ids: %w", err)
	}
	return ids, nil
}

// Search finds titles matching query and annotates each with the actions
// available to userID. userID may be empty for anonymous lookups.
func (s *Service) Search(ctx context.Context, userID, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "tracker", "search", "query is required", nil)
	}
	summaries, err := s.provider.SearchTitles(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	tracked := map[string]struct{}{}
	if strings.TrimSpace(userID) != "" {
		if tracked, err = s.TitleIDs(ctx, userID); err != nil {
			return nil, err
		}
	}

	currentYear := s.now().In(s.loc).Year()
	results := make([]SearchResult, 0, len(summaries))
	for _, summary := range summaries {
		result := SearchResult{Summary: summary, URL: s.provider.TitleURL(summary.ID)}
		_, has := tracked[summary.ID]
		switch {
		case summary.Kind == metadata.KindSeries && summary.EndYear > 0:
			result.Note = fmt.Sprintf("Series ended in %d", summary.EndYear)
		case summary.Kind == metadata.KindMovie && summary.Year > 0 && summary.Year < currentYear && !has:
			result.Note = fmt.Sprintf("Movie released in %d", summary.Year)
		case has:
			result.Actions = []Action{ActionDisableAlert, ActionDismiss}
		default:
			result.Actions = []Action{ActionEnableAlert, ActionDismiss}
		}
		results = append(results, result)
	}
	return results, nil
}

// Dispatch routes a button press to its handler.
func (s *Service) Dispatch(ctx context.Context, req ActionRequest) (ActionReply, error) {
	handler, ok := s.handlers[req.Action]
	if !ok {
		return ActionReply{}, services.Wrap(services.ErrValidation, "tracker", "dispatch", fmt.Sprintf("unsupported action %s", req.Action), nil)
	}
	return handler(ctx, req)
}

func (s *Service) enableAction(ctx context.Context, req ActionRequest) (ActionReply, error) {
	text, err := s.Enable(ctx, req.UserID, req.UserName, req.TitleID)
	if err != nil {
		return ActionReply{}, err
	}
	return s.linkReply(req.TitleID, text), nil
}

func (s *Service) disableAction(ctx context.Context, req ActionRequest) (ActionReply, error) {
	text, err := s.Disable(ctx, req.UserID, req.TitleID)
	if err != nil {
		return ActionReply{}, err
	}
	return s.linkReply(req.TitleID, text), nil
}

func (s *Service) dismissAction(context.Context, ActionRequest) (ActionReply, error) {
	return ActionReply{ClearButtons: true}, nil
}

func (s *Service) linkReply(titleID, text string) ActionReply {
	return ActionReply{
		Text:      text,
		LinkLabel: text + linkSuffix,
		LinkURL:   s.provider.TitleURL(titleID),
	}
}

// requireIDs trims both ids into the key every later lookup must use.
func requireIDs(operation, userID, titleID string) (alerts.Key, error) {
	key := alerts.Key{UserID: strings.TrimSpace(userID), TitleID: strings.TrimSpace(titleID)}
	if key.UserID == "" || key.TitleID == "" {
		return alerts.Key{}, services.Wrap(services.ErrValidation, "tracker", operation, "user id and title id are required", nil)
	}
	return key, nil
}
