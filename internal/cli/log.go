package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the CLI logger. Lines carry a centisecond clock so the
// cycles of a watch session can be told apart.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one render from snapshot decode to the last written file.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with an elapsed field followed by keyvals, e.g.
//
//	14:32:01.45 INFO rendered elapsed=12ms nodes=4 formats=2 cached=false
func (p *progress) done(msg string, keyvals ...any) {
	kv := append([]any{"elapsed", time.Since(p.start).Round(time.Millisecond)}, keyvals...)
	p.logger.Info(msg, kv...)
}
