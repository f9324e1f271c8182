package tracker_test

import (
	"strings"
	"testing"

	"premiere/internal/metadata"
	"premiere/internal/tracker"
)

func TestFormatTitleCard(t *testing.T) {
	card := tracker.FormatTitleCard(metadata.TitleDetail{
		Title:        "Dune",
		Year:         2021,
		Kind:         metadata.KindMovie,
		Genres:       []string{"Science Fiction", "Adventure"},
		Rating:       7.8,
		Cast:         []string{"Timothée Chalamet"},
		FullCoverURL: "https://img.test/dune.jpg",
	})

	for _, want := range []string{
		"<b>Dune (2021) | movie</b>\n\n",
		"<b>Genres:</b> Science Fiction, Adventure",
		"<b>Plot:</b> N/A",
		"<b>Rating:</b> 7.8",
		"<b>Cast:</b> Timothée Chalamet",
		`<a href="https://img.test/dune.jpg">&#8204;</a>`,
	} {
		if !strings.Contains(card, want) {
			t.Fatalf("card missing %q:\n%s", want, card)
		}
	}
}

func TestFormatEpisodeCard(t *testing.T) {
	card := tracker.FormatEpisodeCard(metadata.EpisodeDetail{
		SeriesTitle: "Severance",
		Title:       "Hello, Ms. Cobel",
		Year:        2025,
		Season:      2,
		Episode:     1,
		Plot:        "Mark <returns>.",
	})

	for _, want := range []string{
		"<b>Severance (2025) | episode</b>",
		"<b>Title:</b> Hello, Ms. Cobel",
		"<b>Plot:</b> Mark &lt;returns&gt;.",
		"<b>Season:</b> 2",
		"<b>Episode:</b> 1",
	} {
		if !strings.Contains(card, want) {
			t.Fatalf("card missing %q:\n%s", want, card)
		}
	}
	if strings.Contains(card, "<a href") {
		t.Fatal("card without cover should not carry a link")
	}
}

func TestHelpText(t *testing.T) {
	text := tracker.HelpText("premierebot")
	if !strings.HasPrefix(text, `Search for a title by typing @premierebot "movie name"`) {
		t.Fatalf("unexpected help text %q", text)
	}
	if !strings.HasSuffix(text, "Type /alerts to view your active alerts.") {
		t.Fatalf("unexpected help text %q", text)
	}
}
