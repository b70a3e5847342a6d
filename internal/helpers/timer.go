package helpers

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bundleforge/graphcore/internal/logger"
)

// Timer records nested Begin/End spans across one propagation run. It is nil
// safe throughout so callers that don't care about timing can pass a nil
// *Timer everywhere without branching.
type Timer struct {
	data  []timerData
	mutex sync.Mutex
}

type timerData struct {
	time  time.Time
	name  string
	isEnd bool
}

func (t *Timer) Begin(name string) {
	if t != nil {
		t.data = append(t.data, timerData{name: name, time: time.Now()})
	}
}

func (t *Timer) End(name string) {
	if t != nil {
		t.data = append(t.data, timerData{name: name, time: time.Now(), isEnd: true})
	}
}

func (t *Timer) Fork() *Timer {
	if t != nil {
		return &Timer{}
	}
	return nil
}

func (t *Timer) Join(other *Timer) {
	if t != nil && other != nil {
		t.mutex.Lock()
		defer t.mutex.Unlock()
		t.data = append(t.data, other.data...)
	}
}

// Log renders the recorded spans as a single Warning-kind message (the
// logger has no informational kind), one line per span, indented by
// nesting depth.
func (t *Timer) Log(log logger.Log) {
	if t == nil {
		return
	}

	type pair struct {
		timerData
		index int
	}

	var lines []string
	var stack []pair
	indent := 0

	for _, item := range t.data {
		if !item.isEnd {
			stack = append(stack, pair{timerData: item, index: len(lines)})
			lines = append(lines, "")
			indent++
		} else {
			indent--
			last := len(stack) - 1
			top := stack[last]
			stack = stack[:last]
			if item.name != top.name {
				panic("internal error: mismatched Timer Begin/End")
			}
			lines[top.index] = fmt.Sprintf("%s%s: %dms",
				strings.Repeat("  ", indent), top.name, item.time.Sub(top.time).Milliseconds())
		}
	}

	if len(lines) == 0 {
		return
	}

	log.AddMsg(logger.Msg{
		Kind: logger.Warning,
		Text: "timing (spans may not nest hierarchically under concurrency):\n" + strings.Join(lines, "\n"),
	})
}
