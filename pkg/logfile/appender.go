// Package logfile provides a dynamic per-name daily rolling file sink for zap
package logfile

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultMaxAppenders = 100

// Config defines configuration for DynamicAppender
type Config struct {
	// FileTemplate is the log file path containing Placeholder
	FileTemplate string

	// Placeholder is the token in FileTemplate replaced by the routed name
	Placeholder string

	// MaxAppenders caps the number of per-name files; names beyond the cap
	// fall back to the default file (default 100)
	MaxAppenders int

	// Level enables entries for the built cores (optional, defaults to Info)
	Level zapcore.LevelEnabler

	// Encoder encodes entries (optional, defaults to production JSON)
	Encoder zapcore.Encoder

	// Now drives the daily rollover (optional, defaults to time.Now)
	Now func() time.Time
}

// DynamicAppender builds zap cores that write to per-name daily log files.
// The file for a name is FileTemplate with Placeholder replaced by the name;
// each file carries a date suffix and reopens when the day rolls over.
// Unknown or overflowing names route to the default file, where Placeholder
// is replaced by "default".
type DynamicAppender struct {
	config Config

	mu          sync.Mutex
	cores       map[string]zapcore.Core
	writers     []*rollingWriter
	defaultCore zapcore.Core
}

// New creates a dynamic appender from config.
func New(config Config) (*DynamicAppender, error) {
	if config.FileTemplate == "" {
		return nil, fmt.Errorf("file template must not be empty")
	}
	if config.Placeholder == "" {
		return nil, fmt.Errorf("placeholder must not be empty")
	}
	if !strings.Contains(config.FileTemplate, config.Placeholder) {
		return nil, fmt.Errorf("file template %q does not contain placeholder %q",
			config.FileTemplate, config.Placeholder)
	}
	if config.MaxAppenders <= 0 {
		config.MaxAppenders = defaultMaxAppenders
	}
	if config.Level == nil {
		config.Level = zapcore.InfoLevel
	}
	if config.Encoder == nil {
		config.Encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	a := &DynamicAppender{
		config: config,
		cores:  make(map[string]zapcore.Core),
	}
	a.defaultCore = a.newCore("default")
	return a, nil
}

// Core returns the core writing to the file for name, creating and caching
// it on first use. An empty name, or any new name once MaxAppenders files
// exist, yields the default core.
func (a *DynamicAppender) Core(name string) zapcore.Core {
	if name == "" {
		return a.defaultCore
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if core, ok := a.cores[name]; ok {
		return core
	}
	if len(a.cores) >= a.config.MaxAppenders {
		fmt.Fprintf(os.Stderr, "logfile: too many dynamic appenders (limit %d), using default file for name %q\n",
			a.config.MaxAppenders, name)
		return a.defaultCore
	}

	core := a.newCore(name)
	a.cores[name] = core
	return core
}

// Close flushes and closes every opened log file.
func (a *DynamicAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	for _, w := range a.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.writers = nil
	return firstErr
}

func (a *DynamicAppender) newCore(name string) zapcore.Core {
	w := &rollingWriter{
		path: strings.Replace(a.config.FileTemplate, a.config.Placeholder, name, 1),
		now:  a.config.Now,
	}
	a.writers = append(a.writers, w)
	return zapcore.NewCore(a.config.Encoder.Clone(), w, a.config.Level)
}

// rollingWriter appends to "<path>.<yyyy-mm-dd>" and reopens the file when
// the day changes.
type rollingWriter struct {
	path string
	now  func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

func (w *rollingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := w.now().Format("2006-01-02")
	if w.file == nil || day != w.day {
		if w.file != nil {
			w.file.Close()
			w.file = nil
		}
		f, err := os.OpenFile(w.path+"."+day, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, err
		}
		w.file = f
		w.day = day
	}
	return w.file.Write(p)
}

func (w *rollingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

func (w *rollingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
