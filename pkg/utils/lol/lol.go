// Package lol is a minimal leveled logger with colored level tags and caller
// locations, in the lisp tradition of naming things after laughing.
//
// Log levels are, in order of increasing verbosity: fatal, error, warn, info,
// debug, trace. The level is a process-wide atomic so it can be flipped at
// runtime by a CLI flag or environment variable.
package lol

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
)

// Log levels, from quietest to noisiest.
const (
	Off int32 = iota
	Fatal
	Error
	Warn
	Info
	Debug
	Trace
)

// LevelNames maps the level constants to the names accepted by SetLogLevel.
var LevelNames = []string{"off", "fatal", "error", "warn", "info", "debug", "trace"}

var level atomic.Int32

func init() { level.Store(Info) }

// SetLogLevel sets the process log level by name. Unknown names leave the
// level unchanged and are reported on stderr.
func SetLogLevel(name string) {
	for i, n := range LevelNames {
		if strings.EqualFold(name, n) {
			level.Store(int32(i))
			return
		}
	}
	_, _ = fmt.Fprintf(os.Stderr, "unknown log level '%s'\n", name)
}

// GetLogLevel returns the name of the current log level.
func GetLogLevel() string { return LevelNames[level.Load()] }

var tags = map[int32]string{
	Fatal: color.New(color.BgRed, color.FgHiWhite).Sprint("FTL"),
	Error: color.New(color.FgHiRed).Sprint("ERR"),
	Warn:  color.New(color.FgHiYellow).Sprint("WRN"),
	Info:  color.New(color.FgHiGreen).Sprint("INF"),
	Debug: color.New(color.FgHiBlue).Sprint("DBG"),
	Trace: color.New(color.FgHiMagenta).Sprint("TRC"),
}

// Printer emits log entries at one fixed level.
type Printer struct {
	Level int32
}

func (p *Printer) enabled() bool { return level.Load() >= p.Level }

func (p *Printer) emit(text string) { p.emitAt(3, text) }

func (p *Printer) emitAt(skip int, text string) {
	_, file, line, _ := runtime.Caller(skip)
	if i := strings.LastIndex(file, "/"); i >= 0 {
		file = file[i+1:]
	}
	_, _ = fmt.Fprintf(
		os.Stderr, "%s %s %s %s\n",
		time.Now().Format("15:04:05.000000"), tags[p.Level], text,
		color.New(color.Faint).Sprintf("%s:%d", file, line),
	)
	if p.Level == Fatal {
		os.Exit(1)
	}
}

// F logs a printf-formatted entry.
func (p *Printer) F(format string, a ...any) {
	if !p.enabled() {
		return
	}
	p.emit(fmt.Sprintf(format, a...))
}

// Ln logs the arguments separated by spaces.
func (p *Printer) Ln(a ...any) {
	if !p.enabled() {
		return
	}
	p.emit(strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
}

// S logs the arguments with %+v verbosity, for structured dumps.
func (p *Printer) S(a ...any) {
	if !p.enabled() {
		return
	}
	var b strings.Builder
	for i, v := range a {
		if i > 0 {
			b.WriteByte(' ')
		}
		_, _ = fmt.Fprintf(&b, "%+v", v)
	}
	p.emit(b.String())
}

// Chk logs err at the printer's level with the caller of the chk wrapper and
// reports whether it was non-nil.
func (p *Printer) Chk(err error) bool {
	if err == nil {
		return false
	}
	if p.enabled() {
		p.emitAt(3, err.Error())
	}
	return true
}
