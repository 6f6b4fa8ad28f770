// Package notify collects operator-facing notices. Components publish
// outcome messages here; the API drains them for display and every
// notice is mirrored to the structured log.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level classifies a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is one operator-facing message.
type Notice struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Center buffers notices until they are drained. It keeps at most
// maxBuffer entries, discarding the oldest first.
type Center struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending []Notice
}

const maxBuffer = 100

// NewCenter creates an empty notification center.
func NewCenter(logger *slog.Logger) *Center {
	return &Center{logger: logger.With("component", "notify")}
}

func (c *Center) publish(level Level, msg string) {
	n := Notice{
		ID:        uuid.New().String(),
		Level:     level,
		Message:   msg,
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	c.pending = append(c.pending, n)
	if len(c.pending) > maxBuffer {
		c.pending = c.pending[len(c.pending)-maxBuffer:]
	}
	c.mu.Unlock()

	switch level {
	case LevelError:
		c.logger.Error(msg)
	case LevelWarning:
		c.logger.Warn(msg)
	default:
		c.logger.Info(msg)
	}
}

func (c *Center) Info(msg string)    { c.publish(LevelInfo, msg) }
func (c *Center) Success(msg string) { c.publish(LevelSuccess, msg) }
func (c *Center) Warning(msg string) { c.publish(LevelWarning, msg) }
func (c *Center) Error(msg string)   { c.publish(LevelError, msg) }

// Drain returns all pending notices and empties the buffer.
func (c *Center) Drain() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.pending
	c.pending = nil
	return out
}

// Pending returns a copy of the buffer without consuming it.
func (c *Center) Pending() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.pending))
	copy(out, c.pending)
	return out
}
