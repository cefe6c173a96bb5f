// Package logs builds the structured loggers of bfenv.
package logs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

// NewLogger creates a logger writing text records to w. When running as a
// systemd service, records go to the journal instead.
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return newLogger(w, level, IsService())
}

func newLogger(w io.Writer, level slog.Leveler, service bool) *slog.Logger {
	var handlers []slog.Handler
	if w == nil {
		w = os.Stderr
	}

	var textHandler slog.Handler
	if !service {
		textHandler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: level,
		})
		handlers = append(handlers, textHandler)
	}

	if service {
		journalHandler, err := slogjournal.NewHandler(&slogjournal.Options{
			Level: level,
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			// Fall back to text, and say why.
			textHandler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
			handlers = append(handlers, textHandler)
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "logs: systemd journal", 0)
			record.Add("err", err)
			_ = textHandler.Handle(context.Background(), record)
		} else {
			handlers = append(handlers, journalHandler)
		}
	}

	return slog.New(slogmulti.Fanout(handlers...))
}

// toJournalKey converts an attribute key to a journal field name.
func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}

// IsService returns true if the process runs in a systemd service cgroup.
func IsService() bool {
	cgroupPath, err := getCgroupPath()
	if err != nil {
		return false
	}

	return strings.HasSuffix(path.Dir(cgroupPath), ".service")
}

func getCgroupPath() (string, error) {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return "", err
	}
	parts := strings.Split(strings.TrimSpace(string(content)), ":")
	if len(parts) >= 3 {
		return parts[2], nil
	}
	return "", nil
}
