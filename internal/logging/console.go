package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	consoleTimestampLayout = "2006-01-02 15:04:05"
	shortCycleID           = 8
)

// consoleHandler writes one line per record:
//
//	2025-03-01 10:00:00 INFO  [scheduler] u1/tv-1/s02e01 @1a2b3c4d: episode out delivered=1
//
// The alert ids (user, title, episode) and the cycle id are lifted out of the
// attributes into a path so one alert can be followed across components with
// a single grep.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	addSource bool
	group     string
	attrs     []slog.Attr
}

func newConsoleHandler(w io.Writer, level *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	var head alertHeader
	rest := make([]slog.Attr, 0, len(h.attrs)+record.NumAttrs())
	for _, attr := range h.attrs {
		if !head.take(attr) {
			rest = append(rest, attr)
		}
	}
	record.Attrs(func(attr slog.Attr) bool {
		attr = h.qualify(attr)
		if !head.take(attr) {
			rest = append(rest, attr)
		}
		return true
	})

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %-5s ", ts.In(time.Local).Format(consoleTimestampLayout), levelLabel(record.Level))
	head.writeTo(&buf)
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	buf.WriteString(RedactString(msg))

	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&buf, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, attr := range rest {
		if attr.Key == "" {
			continue
		}
		attr = redactAttr(attr)
		buf.WriteByte(' ')
		buf.WriteString(attr.Key)
		buf.WriteByte('=')
		buf.WriteString(consoleValue(attr.Value))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, attr := range attrs {
		clone.attrs = append(clone.attrs, h.qualify(attr))
	}
	return &clone
}

// WithGroup prefixes later keys with name. Group attributes are rendered as
// their dotted keys.
func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = h.group + name + "."
	return &clone
}

func (h *consoleHandler) qualify(attr slog.Attr) slog.Attr {
	attr.Value = attr.Value.Resolve()
	if h.group != "" && attr.Key != "" {
		attr.Key = h.group + attr.Key
	}
	if attr.Value.Kind() == slog.KindGroup {
		parts := attr.Value.Group()
		pairs := make([]string, 0, len(parts))
		for _, part := range parts {
			pairs = append(pairs, part.Key+"="+consoleValue(part.Value.Resolve()))
		}
		attr.Value = slog.StringValue(strings.Join(pairs, ","))
	}
	return attr
}

// alertHeader holds the ids lifted into the line prefix. The first value seen
// for a field wins, so logger-scoped ids beat per-call ones.
type alertHeader struct {
	component string
	user      string
	title     string
	episode   string
	cycle     string
}

func (a *alertHeader) take(attr slog.Attr) bool {
	var slot *string
	switch attr.Key {
	case FieldComponent:
		slot = &a.component
	case FieldUserID:
		slot = &a.user
	case FieldTitleID:
		slot = &a.title
	case FieldEpisodeID:
		slot = &a.episode
	case FieldCycleID:
		slot = &a.cycle
	default:
		return false
	}
	if *slot == "" && attr.Value.Kind() == slog.KindString {
		*slot = strings.TrimSpace(attr.Value.String())
	}
	return true
}

func (a *alertHeader) writeTo(buf *bytes.Buffer) {
	if a.component != "" {
		buf.WriteString("[" + a.component + "] ")
	}
	var path []string
	for _, part := range []string{a.user, a.title, a.episodeLabel()} {
		if part != "" {
			path = append(path, part)
		}
	}
	if len(path) == 0 && a.cycle == "" {
		return
	}
	buf.WriteString(strings.Join(path, "/"))
	if a.cycle != "" {
		if len(path) > 0 {
			buf.WriteByte(' ')
		}
		cycle := a.cycle
		if len(cycle) > shortCycleID {
			cycle = cycle[:shortCycleID]
		}
		buf.WriteString("@" + cycle)
	}
	buf.WriteString(": ")
}

// episodeLabel drops the series prefix from episode keys such as
// tv-1399-s02e01 when the title is already on the line.
func (a *alertHeader) episodeLabel() string {
	if a.title != "" && strings.HasPrefix(a.episode, a.title+"-") {
		return a.episode[len(a.title)+1:]
	}
	return a.episode
}

func consoleValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		t := v.Time()
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			// Release dates are start-of-day in the alert zone.
			return t.Format(time.DateOnly)
		}
		return t.UTC().Format(time.RFC3339)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	return s == "" || strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"'
	})
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
