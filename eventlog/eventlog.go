// Package eventlog keeps the last few things that happened, for people to
// read. It is not the diagnostic log; entries are mirrored there as well.
package eventlog

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Capacity is how many entries are kept.
const Capacity = 50

type Type string

const (
	Info    Type = "info"
	Success Type = "success"
	Warning Type = "warning"
	Error   Type = "error"
)

type Entry struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is a ring of entries. The newest entry is always first.
type Log struct {
	mu    sync.Mutex
	ring  [Capacity]Entry
	head  int // index of the newest entry
	count int
	now   func() time.Time
	subs  map[int]func(Entry)
	next  int
	log   zerolog.Logger
}

func New(log zerolog.Logger) *Log {
	return &Log{
		head: -1,
		now:  time.Now,
		subs: map[int]func(Entry){},
		log:  log,
	}
}

// Append adds an entry at the front, dropping the oldest if full.
func (l *Log) Append(typ Type, msg string) Entry {
	e := Entry{
		ID:        uuid.NewString(),
		Message:   msg,
		Type:      typ,
		Timestamp: l.now(),
	}

	l.mu.Lock()
	l.head = (l.head + 1) % Capacity
	l.ring[l.head] = e
	if l.count < Capacity {
		l.count++
	}
	subs := make([]func(Entry), 0, len(l.subs))
	for _, fn := range l.subs {
		subs = append(subs, fn)
	}
	l.mu.Unlock()

	l.mirror(e)
	for _, fn := range subs {
		fn(e)
	}
	return e
}

func (l *Log) Infof(format string, v ...interface{}) Entry {
	return l.Append(Info, fmt.Sprintf(format, v...))
}

func (l *Log) Successf(format string, v ...interface{}) Entry {
	return l.Append(Success, fmt.Sprintf(format, v...))
}

func (l *Log) Warnf(format string, v ...interface{}) Entry {
	return l.Append(Warning, fmt.Sprintf(format, v...))
}

func (l *Log) Errorf(format string, v ...interface{}) Entry {
	return l.Append(Error, fmt.Sprintf(format, v...))
}

func (l *Log) mirror(e Entry) {
	var ev *zerolog.Event
	switch e.Type {
	case Error:
		ev = l.log.Error()
	case Warning:
		ev = l.log.Warn()
	default:
		ev = l.log.Info()
	}
	ev.Str("type", string(e.Type)).Msg(e.Message)
}

// Entries returns a copy, newest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, 0, l.count)
	for i := 0; i < l.count; i++ {
		out = append(out, l.ring[(l.head-i+Capacity)%Capacity])
	}
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Reset empties the log.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ring = [Capacity]Entry{}
	l.head = -1
	l.count = 0
}

// Subscribe calls fn after each append, until the returned func is called.
func (l *Log) Subscribe(fn func(Entry)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.next
	l.next++
	l.subs[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}
