package diag

import (
	"fmt"
	"log"
)

type Level int

const (
	Debug Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Warn:
		return "warn"
	case Error:
		return "error"
	}
	return "unknown"
}

type Entry struct {
	Level   Level
	Stage   string
	Message string
}

func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s: %s", e.Level, e.Stage, e.Message)
}

// Collector gathers the diagnostics of one session. It is passed to every
// pipeline stage explicitly and is not safe for concurrent use.
type Collector struct {
	Session string
	logger  *log.Logger
	min     Level
	entries []Entry
}

// New returns a collector mirroring entries at or above min to logger.
// A nil logger only records.
func New(session string, logger *log.Logger, min Level) *Collector {
	return &Collector{Session: session, logger: logger, min: min}
}

// Discard records entries without mirroring them anywhere.
func Discard() *Collector {
	return &Collector{}
}

func (c *Collector) add(level Level, stage, format string, args ...interface{}) {
	if nil == c {
		return
	}
	e := Entry{Level: level, Stage: stage, Message: fmt.Sprintf(format, args...)}
	c.entries = append(c.entries, e)
	if nil != c.logger && level >= c.min {
		if c.Session != "" {
			c.logger.Printf("%s %v", c.Session, e)
		} else {
			c.logger.Println(e)
		}
	}
}

func (c *Collector) Debugf(stage, format string, args ...interface{}) {
	c.add(Debug, stage, format, args...)
}

func (c *Collector) Warnf(stage, format string, args ...interface{}) {
	c.add(Warn, stage, format, args...)
}

func (c *Collector) Errorf(stage, format string, args ...interface{}) {
	c.add(Error, stage, format, args...)
}

func (c *Collector) Entries() []Entry {
	if nil == c {
		return nil
	}
	return c.entries
}

// Filter returns the recorded entries of exactly the given level.
func (c *Collector) Filter(level Level) []Entry {
	out := []Entry{}
	for _, e := range c.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (c *Collector) Reset() {
	if nil != c {
		c.entries = nil
	}
}
