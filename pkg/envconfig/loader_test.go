package envconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testProp struct {
	name string
	def  string
	typ  PropertyType
}

func (p testProp) NameInFile() string   { return p.name }
func (p testProp) DefaultValue() string { return p.def }
func (p testProp) Type() PropertyType   { return p.typ }

func mapLocation(files map[string]string) Location {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return LocationFS(fsys)
}

func TestNewLoader_Validation(t *testing.T) {
	loc := mapLocation(map[string]string{"svc.properties": "a=1"})
	keys := []testProp{{name: "a"}}

	tests := []struct {
		name        string
		keys        []testProp
		prefix      string
		location    Location
		expectError bool
	}{
		{
			name:     "valid",
			keys:     keys,
			prefix:   "svc",
			location: loc,
		},
		{
			name:        "empty key set",
			keys:        nil,
			prefix:      "svc",
			location:    loc,
			expectError: true,
		},
		{
			name:        "whitespace prefix",
			keys:        keys,
			prefix:      "   ",
			location:    loc,
			expectError: true,
		},
		{
			name:        "unset location",
			keys:        keys,
			prefix:      "svc",
			location:    Location{},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, err := NewLoader(tt.keys, tt.prefix, tt.location)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, loader)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, loader)
			}
		})
	}
}

func TestLoader_LayeredMerge(t *testing.T) {
	loc := mapLocation(map[string]string{
		"svc.properties":      "a=1",
		"svc-app.properties":  "a=2\nb=3",
		"svc-test.properties": "b=4",
	})
	keys := []testProp{{name: "a"}, {name: "b"}}

	loader, err := NewLoader(keys, "svc", loc)
	require.NoError(t, err)

	cfg := loader.Config()
	assert.Equal(t, "2", cfg.StringValue(keys[0]))
	assert.Equal(t, "4", cfg.StringValue(keys[1]))
}

func TestLoader_OptionalFilesMissing(t *testing.T) {
	loc := mapLocation(map[string]string{"svc.properties": "a=1"})
	keys := []testProp{{name: "a"}}

	loader, err := NewLoader(keys, "svc", loc)
	require.NoError(t, err)
	assert.Equal(t, "1", loader.Config().StringValue(keys[0]))
}

func TestLoader_MandatoryFileMissing(t *testing.T) {
	loc := mapLocation(map[string]string{"svc-app.properties": "a=1"})
	keys := []testProp{{name: "a"}}

	loader, err := NewLoader(keys, "svc", loc)
	assert.Nil(t, loader)
	assert.ErrorIs(t, err, ErrMissingConfigFile)
}

func TestLoader_UndeclaredKeysDropped(t *testing.T) {
	loc := mapLocation(map[string]string{"svc.properties": "a=1\nz=9"})
	keys := []testProp{{name: "a"}}

	loader, err := NewLoader(keys, "svc", loc)
	require.NoError(t, err)

	cfg := loader.Config()
	assert.Equal(t, "1", cfg.StringValue(keys[0]))
	assert.NotContains(t, cfg.snapshot(), "z")
}

func TestLoader_EnvironmentOverride(t *testing.T) {
	loc := mapLocation(map[string]string{"svc.properties": "svc.endpoint=file-value\nother=1"})
	keys := []testProp{{name: "svc.endpoint"}, {name: "other"}}

	t.Setenv("svc.endpoint", "env-value")

	loader, err := NewLoader(keys, "svc", loc)
	require.NoError(t, err)

	cfg := loader.Config()
	assert.Equal(t, "env-value", cfg.StringValue(keys[0]))
	assert.Equal(t, "1", cfg.StringValue(keys[1]))
}

func TestLoader_EnvironmentOverrideRequiresPresentKey(t *testing.T) {
	loc := mapLocation(map[string]string{"svc.properties": "a=1"})
	keys := []testProp{{name: "a"}, {name: "svc.absent"}}

	// The key is declared but not present in any file, so the environment
	// variable must not introduce it.
	t.Setenv("svc.absent", "surprise")

	loader, err := NewLoader(keys, "svc", loc)
	require.NoError(t, err)

	assert.Equal(t, "", loader.Config().StringValue(keys[1]))
}

func TestLoader_TrimsValues(t *testing.T) {
	loc := mapLocation(map[string]string{"svc.properties": "a=  padded  \nb=   "})
	keys := []testProp{{name: "a"}, {name: "b"}}

	loader, err := NewLoader(keys, "svc", loc)
	require.NoError(t, err)

	cfg := loader.Config()
	assert.Equal(t, "padded", cfg.StringValue(keys[0]))
	assert.Equal(t, "", cfg.StringValue(keys[1]))
}

func TestLoader_ValueProcessor(t *testing.T) {
	loc := mapLocation(map[string]string{"svc.properties": "a=cipher"})
	keys := []testProp{{name: "a"}}

	loader, err := NewLoader(keys, "svc", loc,
		WithValueProcessor(func(key, value string) string {
			return "plain:" + value
		}))
	require.NoError(t, err)

	assert.Equal(t, "plain:cipher", loader.Config().StringValue(keys[0]))
}

func TestLoader_ReloadReplacesState(t *testing.T) {
	fsys := fstest.MapFS{
		"svc.properties": &fstest.MapFile{Data: []byte("a=1\nb=2")},
	}
	keys := []testProp{{name: "a"}, {name: "b"}}

	loader, err := NewLoader(keys, "svc", LocationFS(fsys))
	require.NoError(t, err)

	cfg := loader.Config()
	assert.Equal(t, "2", cfg.StringValue(keys[1]))

	// A reload fully replaces the previous state; dropped keys do not
	// linger.
	fsys["svc.properties"] = &fstest.MapFile{Data: []byte("a=10")}
	require.NoError(t, loader.Reload())

	assert.Equal(t, "10", cfg.StringValue(keys[0]))
	assert.Equal(t, "", cfg.StringValue(keys[1]))
}

func TestLoader_DirectoryLocation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "svc.properties"), []byte("a=1"), 0o644))
	keys := []testProp{{name: "a"}}

	loader, err := NewLoader(keys, "svc", LocationDir(dir))
	require.NoError(t, err)
	assert.Equal(t, "1", loader.Config().StringValue(keys[0]))

	_, err = NewLoader(keys, "absent", LocationDir(dir))
	assert.True(t, errors.Is(err, ErrMissingConfigFile))
}
