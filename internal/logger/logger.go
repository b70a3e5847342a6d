// Package logger is the ambient diagnostic channel used by the graph core.
//
// It is intentionally small: the core never renders a polished diagnostic
// report (that is the job of an external collaborator), it only needs a
// place to put warnings and errors as they happen and a way to ask "were
// there any errors" afterwards. The propagator uses this for its verbose
// ambiguous-namespace-reexport warnings (see symbolprop.Config.Verbose).
package logger

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

type LogLevel int8

const (
	LevelNone LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelSilent
)

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
)

// MsgLocation is deliberately shallow: the core does not own source text or
// scan lines and columns itself. Collaborators that produce a Msg with a
// known source position (e.g. the symbol table behind a dependency's
// declared symbols) fill this in; everything else leaves it nil.
type MsgLocation struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

type Msg struct {
	Kind     MsgKind
	Text     string
	Location *MsgLocation
}

// msgsArray exists purely so we can use Go's native sort function.
type msgsArray []Msg

func (a msgsArray) Len() int      { return len(a) }
func (a msgsArray) Swap(i, j int) { a[i], a[j] = a[j], a[i] }

func (a msgsArray) Less(i, j int) bool {
	ai, aj := a[i], a[j]
	li, lj := ai.Location, aj.Location

	if li == nil && lj != nil {
		return true
	}
	if li != nil && lj == nil {
		return false
	}
	if li != nil && lj != nil {
		if li.File != lj.File {
			return li.File < lj.File
		}
		if li.Line != lj.Line {
			return li.Line < lj.Line
		}
		if li.Column != lj.Column {
			return li.Column < lj.Column
		}
	}
	if ai.Kind != aj.Kind {
		return ai.Kind < aj.Kind
	}
	return ai.Text < aj.Text
}

func plural(prefix string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, prefix)
	}
	return fmt.Sprintf("%d %ss", count, prefix)
}

func errorAndWarningSummary(errors int, warnings int) string {
	switch {
	case errors == 0:
		return plural("warning", warnings)
	case warnings == 0:
		return plural("error", errors)
	default:
		return fmt.Sprintf("%s and %s", plural("warning", warnings), plural("error", errors))
	}
}

// hasNoColorEnvironmentVariable implements the https://no-color.org/ convention.
func hasNoColorEnvironmentVariable() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

type TerminalInfo struct {
	IsTTY           bool
	UseColorEscapes bool
	Width           int
	Height          int
}

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type StderrOptions struct {
	ErrorLimit int
	Color      StderrColor
	LogLevel   LogLevel
}

const colorReset = "\033[0m"
const colorRed = "\033[31m"
const colorMagenta = "\033[35m"
const colorBold = "\033[1m"
const colorResetBold = "\033[0;1m"

func (msg Msg) String(terminalInfo TerminalInfo) string {
	kind := "error"
	kindColor := colorRed
	if msg.Kind == Warning {
		kind = "warning"
		kindColor = colorMagenta
	}

	loc := msg.Location
	if loc == nil {
		if terminalInfo.UseColorEscapes {
			return fmt.Sprintf("%s%s%s: %s%s%s\n", colorBold, kindColor, kind, colorResetBold, msg.Text, colorReset)
		}
		return fmt.Sprintf("%s: %s\n", kind, msg.Text)
	}

	if terminalInfo.UseColorEscapes {
		return fmt.Sprintf("%s%s:%d:%d: %s%s: %s%s\n", colorBold, loc.File, loc.Line, loc.Column, kindColor, kind, colorResetBold, msg.Text) + colorReset
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s\n", loc.File, loc.Line, loc.Column, kind, msg.Text)
}

// NewStderrLog streams messages to stderr as they're added, in the style of
// a command-line build tool. This is only used by the cmd/graphdump debug
// tool; the propagator itself talks to a Log through AddMsg only.
func NewStderrLog(options StderrOptions) Log {
	var mutex sync.Mutex
	var msgs msgsArray
	terminalInfo := GetTerminalInfo(os.Stderr)
	errors := 0
	warnings := 0
	errorLimitWasHit := false

	switch options.Color {
	case ColorNever:
		terminalInfo.UseColorEscapes = false
	case ColorAlways:
		terminalInfo.UseColorEscapes = SupportsColorEscapes
	}

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			msgs = append(msgs, msg)

			if errorLimitWasHit {
				return
			}

			switch msg.Kind {
			case Error:
				errors++
				if options.LogLevel <= LevelError {
					writeStringWithColor(os.Stderr, msg.String(terminalInfo))
				}
			case Warning:
				warnings++
				if options.LogLevel <= LevelWarning {
					writeStringWithColor(os.Stderr, msg.String(terminalInfo))
				}
			}

			if options.ErrorLimit != 0 && errors >= options.ErrorLimit {
				errorLimitWasHit = true
				if options.LogLevel <= LevelError {
					writeStringWithColor(os.Stderr, fmt.Sprintf(
						"%s reached (disable with error limit 0)\n", errorAndWarningSummary(errors, warnings)))
				}
			}
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return errors > 0
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			if !errorLimitWasHit && options.LogLevel <= LevelInfo && (warnings != 0 || errors != 0) {
				writeStringWithColor(os.Stderr, fmt.Sprintf("%s\n", errorAndWarningSummary(errors, warnings)))
			}
			sort.Stable(msgs)
			return msgs
		},
	}
}

// NewDeferLog collects messages silently: nothing is written anywhere, and
// Done() returns the collected messages sorted.
func NewDeferLog() Log {
	var msgs msgsArray
	var mutex sync.Mutex
	var hasErrors bool

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			if msg.Kind == Error {
				hasErrors = true
			}
			msgs = append(msgs, msg)
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return hasErrors
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			sort.Stable(msgs)
			return msgs
		},
	}
}

func (log Log) AddError(loc *MsgLocation, text string) {
	log.AddMsg(Msg{Kind: Error, Text: text, Location: loc})
}

func (log Log) AddWarning(loc *MsgLocation, text string) {
	log.AddMsg(Msg{Kind: Warning, Text: text, Location: loc})
}
