package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeHTTP   LogType = "HTTP"
	TypeDB     LogType = "DB"
	TypeSystem LogType = "SYS"
	TypeError  LogType = "ERR"
)

// CustomHandler prints one coloured line per record:
//
//	[recipes] [15:04:05] [INFO] [HTTP] request completed method=GET status=200
//
// The "type" attribute selects the bracketed log type and is not printed.
type CustomHandler struct {
	name   string
	level  slog.Leveler
	color  bool
	mu     *sync.Mutex
	out    io.Writer
	attrs  []slog.Attr
	groups []string
}

// NewHandler returns a handler writing to out. Colours are only emitted
// when color is set.
func NewHandler(name string, out io.Writer, level slog.Leveler, color bool) *CustomHandler {
	return &CustomHandler{
		name:  name,
		level: level,
		color: color,
		mu:    &sync.Mutex{},
		out:   out,
	}
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr{}, h.attrs...), h.qualify(attrs)...)
	return &c
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(append([]string{}, h.groups...), name)
	return &c
}

func (h *CustomHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if len(h.groups) == 0 {
		return attrs
	}
	prefix := strings.Join(h.groups, ".") + "."
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}
	return out
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	var levelColor, levelText string
	switch {
	case r.Level >= slog.LevelError:
		levelColor, levelText = colorRed, "ERROR"
	case r.Level >= slog.LevelWarn:
		levelColor, levelText = colorYellow, "WARN"
	case r.Level >= slog.LevelInfo:
		levelColor, levelText = colorGreen, "INFO"
	default:
		levelColor, levelText = colorPurple, "DEBUG"
	}

	logType := TypeSystem
	if r.Level >= slog.LevelError {
		logType = TypeError
	}

	var b strings.Builder
	writeAttr := func(a slog.Attr) {
		if a.Key == "type" {
			logType = parseType(a.Value.String(), logType)
			return
		}
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Resolve())
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		for _, q := range h.qualify([]slog.Attr{a}) {
			writeAttr(q)
		}
		return true
	})

	timestamp := r.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var line string
	if h.color {
		line = fmt.Sprintf("%s[%s] [%s] [%s%s%s] [%s] %s%s%s\n",
			colorWhite, h.name, timestamp.Format("15:04:05"),
			levelColor, levelText, colorWhite,
			logType, r.Message, b.String(), colorReset)
	} else {
		line = fmt.Sprintf("[%s] [%s] [%s] [%s] %s%s\n",
			h.name, timestamp.Format("15:04:05"), levelText, logType, r.Message, b.String())
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line)
	return err
}

func parseType(v string, fallback LogType) LogType {
	switch strings.ToLower(v) {
	case "http":
		return TypeHTTP
	case "db":
		return TypeDB
	case "sys":
		return TypeSystem
	case "error":
		return TypeError
	}
	return fallback
}

// New builds the process logger. format is "text" (CustomHandler) or
// "json" (slog.JSONHandler).
func New(name, format string, level slog.Level) *slog.Logger {
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(NewHandler(name, os.Stdout, level, isTerminal(os.Stdout)))
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
