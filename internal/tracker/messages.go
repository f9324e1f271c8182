package tracker

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"premiere/internal/alerts"
	"premiere/internal/metadata"
)

// Notification headlines.
const (
	MessageMovieOut     = "Movie is out!"
	MessageEpisodeOut   = "Episode is out!!"
	MessageSeriesFinale = "Series finale episode! (alert disabled)"
)

// Interactive replies.
const (
	MessageNoAlerts       = "No alerts enabled.\n\nType /help for info on enabling alerts."
	MessageAlertsHeader   = "<b>Alerts enabled for:</b>\n\n"
	MessageAlertDisabled  = "Alert disabled"
	MessageNoAlertToClear = "No alert enabled for this title"
	MessageUnknownCommand = "Unrecognized command, type /help or /alerts"
	messageAlertEnabled   = "Alert enabled, release on %s"
	notAvailable          = "N/A"
)

type cardField struct {
	label string
	value string
}

// FormatTitleCard renders a movie or series as an HTML card.
func FormatTitleCard(title metadata.TitleDetail) string {
	fields := []cardField{
		{"genres", joinOrNA(title.Genres)},
		{"plot", orNA(title.Plot)},
		{"rating", formatRating(title.Rating)},
		{"cast", joinOrNA(title.Cast)},
	}
	return renderCard(title.Title, title.Year, string(title.Kind), fields, coverOf(title.FullCoverURL, title.CoverURL))
}

// FormatEpisodeCard renders an episode as an HTML card headed by its series.
func FormatEpisodeCard(ep metadata.EpisodeDetail) string {
	fields := []cardField{
		{"title", orNA(ep.Title)},
		{"plot", orNA(ep.Plot)},
		{"season", formatNumber(ep.Season)},
		{"episode", formatNumber(ep.Episode)},
	}
	return renderCard(ep.SeriesTitle, ep.Year, "episode", fields, coverOf(ep.FullCoverURL, ep.CoverURL))
}

// FormatRecordCard renders the minimal card available from a stored record.
func FormatRecordCard(rec alerts.Record) string {
	return "<b>" + html.EscapeString(orNA(rec.TitleName)) + "</b>"
}

// FormatAlertList renders a user's alerts as an HTML list of title names.
func FormatAlertList(records []alerts.Record) string {
	if len(records) == 0 {
		return MessageNoAlerts
	}
	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, html.EscapeString(rec.TitleName))
	}
	return MessageAlertsHeader + strings.Join(names, "\n")
}

// HelpText explains how to use the bot named botName.
func HelpText(botName string) string {
	return fmt.Sprintf("Search for a title by typing @%s \"movie name\", pick a result from the "+
		"list and set an alert to receive a notification when the movie or series "+
		"episode is out!\n\nType /alerts to view your active alerts.", botName)
}

func renderCard(name string, year int, kind string, fields []cardField, cover string) string {
	caser := cases.Title(language.English)
	yearText := notAvailable
	if year > 0 {
		yearText = strconv.Itoa(year)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s (%s) | %s</b>\n\n", html.EscapeString(orNA(name)), yearText, html.EscapeString(orNA(kind)))
	for i, field := range fields {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "<b>%s:</b> %s", caser.String(field.label), html.EscapeString(field.value))
	}
	if cover != "" {
		// Zero-width link so clients show only the image preview.
		fmt.Fprintf(&b, "<a href=\"%s\">&#8204;</a>", html.EscapeString(cover))
	}
	return b.String()
}

func coverOf(full, thumb string) string {
	if strings.TrimSpace(full) != "" {
		return full
	}
	return strings.TrimSpace(thumb)
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return notAvailable
	}
	return value
}

func joinOrNA(values []string) string {
	if len(values) == 0 {
		return notAvailable
	}
	return strings.Join(values, ", ")
}

func formatNumber(n int) string {
	if n <= 0 {
		return notAvailable
	}
	return strconv.Itoa(n)
}

func formatRating(r float64) string {
	if r <= 0 {
		return notAvailable
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}
