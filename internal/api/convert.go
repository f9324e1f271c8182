package api

import (
	"time"

	"premiere/internal/alerts"
	"premiere/internal/daemon"
	"premiere/internal/metadata"
	"premiere/internal/tracker"
)

// FromRecord converts a stored alert to its API representation. The release
// date is rendered in loc.
func FromRecord(rec alerts.Record, loc *time.Location) Alert {
	if loc == nil {
		loc = time.UTC
	}
	kind := metadata.KindSeries
	if rec.IsMovie() {
		kind = metadata.KindMovie
	}
	dto := Alert{
		UserID:      rec.UserID,
		UserName:    rec.UserName,
		TitleID:     rec.TitleID,
		TitleName:   rec.TitleName,
		Kind:        string(kind),
		EpisodeID:   rec.EpisodeID,
		ReleaseDate: rec.ReleaseDate.In(loc).Format(releaseDateFormat),
		Revision:    rec.Revision,
	}
	if !rec.CreatedAt.IsZero() {
		dto.CreatedAt = rec.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !rec.UpdatedAt.IsZero() {
		dto.UpdatedAt = rec.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromRecords converts a slice of stored alerts.
func FromRecords(records []alerts.Record, loc *time.Location) []Alert {
	out := make([]Alert, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec, loc))
	}
	return out
}

// FromSearchResult converts a tracker search match.
func FromSearchResult(result tracker.SearchResult) SearchResult {
	dto := SearchResult{
		TitleID:  result.Summary.ID,
		Title:    result.Summary.Title,
		Year:     result.Summary.Year,
		EndYear:  result.Summary.EndYear,
		Kind:     string(result.Summary.Kind),
		Overview: result.Summary.Overview,
		CoverURL: result.Summary.CoverURL,
		Note:     result.Note,
		URL:      result.URL,
	}
	for _, action := range result.Actions {
		dto.Actions = append(dto.Actions, action.String())
	}
	return dto
}

// FromActionReply converts a dispatch outcome.
func FromActionReply(reply tracker.ActionReply) ActionReply {
	return ActionReply{
		Text:         reply.Text,
		LinkLabel:    reply.LinkLabel,
		LinkURL:      reply.LinkURL,
		ClearButtons: reply.ClearButtons,
	}
}

// FromCycleSummary converts a daemon cycle summary.
func FromCycleSummary(summary daemon.CycleSummary) Cycle {
	dto := Cycle{
		ID:             summary.ID,
		AsOf:           summary.AsOf.Format(releaseDateFormat),
		Due:            summary.Due,
		Processed:      summary.Processed,
		Skipped:        summary.Skipped,
		Failed:         summary.Failed,
		Delivered:      summary.Delivered,
		DeliveryFailed: summary.DeliveryFailed,
		Error:          summary.Error,
	}
	if !summary.StartedAt.IsZero() {
		dto.StartedAt = summary.StartedAt.UTC().Format(dateTimeFormat)
	}
	if !summary.FinishedAt.IsZero() {
		dto.FinishedAt = summary.FinishedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromDaemonStatus converts daemon runtime information.
func FromDaemonStatus(status daemon.Status) Status {
	dto := Status{
		Running:      status.Running,
		CycleRunning: status.CycleRunning,
		Alerts: AlertStats{
			Total:  status.Alerts.Total,
			Movies: status.Alerts.Movies,
			Series: status.Alerts.Series,
			Due:    status.Alerts.Due,
		},
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Deliverer:    status.Deliverer,
	}
	if !status.NextRun.IsZero() {
		dto.NextRun = status.NextRun.Format(dateTimeFormat)
	}
	if status.LastCycle != nil {
		cycle := FromCycleSummary(*status.LastCycle)
		dto.LastCycle = &cycle
	}
	return dto
}
