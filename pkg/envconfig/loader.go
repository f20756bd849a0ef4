package envconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/magiconair/properties"
	"go.uber.org/zap"
)

const (
	globalFileSuffix = ".properties"
	appFileSuffix    = "-app.properties"
	testFileSuffix   = "-test.properties"
)

// ErrMissingConfigFile indicates the mandatory global property file was not
// found at the configured location.
var ErrMissingConfigFile = errors.New("mandatory config file not found")

// Loader merges layered property sources into a Config view. Sources, in
// increasing precedence: "<prefix>.properties" (mandatory),
// "<prefix>-app.properties" (optional), "<prefix>-test.properties"
// (optional), then environment variables whose names exactly match a merged
// key. Keys not declared in the Property set are dropped with a log line.
type Loader[T Property] struct {
	keys      []T
	prefix    string
	location  Location
	processor ValueProcessor
	log       *zap.Logger

	config *Config[T]
}

// Option configures optional loader behavior
type Option func(*loaderOptions)

type loaderOptions struct {
	log       *zap.Logger
	processor ValueProcessor
}

// WithLogger sets the logger used for merge diagnostics. The loader is
// silent without it.
func WithLogger(log *zap.Logger) Option {
	return func(o *loaderOptions) { o.log = log }
}

// WithValueProcessor sets a transform applied to each (key, value) pair
// during normalization.
func WithValueProcessor(p ValueProcessor) Option {
	return func(o *loaderOptions) { o.processor = p }
}

// NewLoader creates a loader for the declared property keys and performs the
// initial Reload. Construction fails when keys is empty, when prefix trims
// to empty, when the location is unset, or when the mandatory global file
// cannot be loaded.
func NewLoader[T Property](keys []T, prefix string, location Location, opts ...Option) (*Loader[T], error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("property key set must not be empty")
	}
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		return nil, fmt.Errorf("file name prefix must not be empty, got %q", prefix)
	}
	if !location.valid() {
		return nil, fmt.Errorf("location must be set")
	}

	o := loaderOptions{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	l := &Loader[T]{
		keys:      keys,
		prefix:    trimmed,
		location:  location,
		processor: o.processor,
		log:       o.log,
		config:    newConfig(keys),
	}

	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Config returns the typed view over the loaded properties. The same view
// stays valid across reloads.
func (l *Loader[T]) Config() *Config[T] {
	return l.config
}

// Reload re-reads all sources and atomically replaces the view's backing
// properties. A reload never partially merges with previous state.
func (l *Loader[T]) Reload() error {
	merged, err := l.loadAll()
	if err != nil {
		return err
	}
	l.overrideWithEnv(merged)
	l.config.replace(l.normalize(merged))
	return nil
}

// loadAll merges the three file layers, later files overriding earlier ones
// per key.
func (l *Loader[T]) loadAll() (map[string]string, error) {
	merged, err := l.loadFile(l.prefix+globalFileSuffix, true)
	if err != nil {
		return nil, err
	}

	for _, name := range []string{l.prefix + appFileSuffix, l.prefix + testFileSuffix} {
		layer, err := l.loadFile(name, false)
		if err != nil {
			return nil, err
		}
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged, nil
}

// loadFile reads and parses one property file. A missing optional file
// contributes nothing; a missing mandatory file is fatal.
func (l *Loader[T]) loadFile(name string, mustExist bool) (map[string]string, error) {
	data, err := l.location.readFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		if mustExist {
			l.log.Error("cannot find mandatory property file", zap.String("file", name))
			return nil, fmt.Errorf("%w: %s", ErrMissingConfigFile, name)
		}
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read property file %s: %w", name, err)
	}

	p, err := properties.Load(data, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("parse property file %s: %w", name, err)
	}
	l.log.Info("loaded property file", zap.String("file", name), zap.Int("keys", p.Len()))
	return p.Map(), nil
}

// overrideWithEnv replaces merged values with environment variables whose
// names exactly match an already-present key. No case folding, no prefix
// matching.
func (l *Loader[T]) overrideWithEnv(merged map[string]string) {
	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, present := merged[key]; present {
			l.log.Info("overriding property from environment", zap.String("key", key))
			merged[key] = value
		}
	}
}

// normalize drops undeclared keys, trims values, and runs the value
// processor.
func (l *Loader[T]) normalize(merged map[string]string) map[string]string {
	declared := make(map[string]struct{}, len(l.keys))
	for _, key := range l.keys {
		declared[key.NameInFile()] = struct{}{}
	}

	result := make(map[string]string, len(merged))
	for key, value := range merged {
		if _, ok := declared[key]; !ok {
			l.log.Warn("property is not registered, ignoring", zap.String("key", key))
			continue
		}
		value = strings.TrimSpace(value)
		if l.processor != nil {
			value = l.processor(key, value)
		}
		result[key] = value
	}
	return result
}
