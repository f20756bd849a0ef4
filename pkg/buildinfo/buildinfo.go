// Package buildinfo reads build metadata baked into the deployment artifact
package buildinfo

import (
	"io/fs"

	"github.com/magiconair/properties"
	"go.uber.org/zap"
)

// FileName is the property file the build pipeline writes next to the binary.
const FileName = "buildInfo.properties"

const notDefined = "NOT DEFINED"

// Info exposes the recorded build metadata. A missing or unreadable file
// yields a zero Info whose accessors all report "NOT DEFINED".
type Info struct {
	props map[string]string
}

// Read loads build metadata from fsys. It never fails: problems are logged
// and a zero Info is returned.
func Read(fsys fs.FS, log *zap.Logger) Info {
	if log == nil {
		log = zap.NewNop()
	}

	data, err := fs.ReadFile(fsys, FileName)
	if err != nil {
		log.Warn("build info property file cannot be read", zap.String("file", FileName), zap.Error(err))
		return Info{}
	}

	p, err := properties.Load(data, properties.UTF8)
	if err != nil {
		log.Warn("errors while loading build info property file", zap.String("file", FileName), zap.Error(err))
		return Info{}
	}
	return Info{props: p.Map()}
}

// SourcesVersion returns the recorded sources version.
func (i Info) SourcesVersion() string {
	return i.get("sources.version")
}

// BuildVersion returns the recorded build version.
func (i Info) BuildVersion() string {
	return i.get("build.version")
}

// BuildTimestamp returns the recorded build timestamp.
func (i Info) BuildTimestamp() string {
	return i.get("build.timestamp")
}

func (i Info) get(key string) string {
	if value, ok := i.props[key]; ok {
		return value
	}
	return notDefined
}
