package envconfig

import (
	"io/fs"
	"os"
)

// Location selects where property files are read from. It replaces a
// process-wide setting with an explicit constructor parameter: decide once,
// pass it to every loader.
type Location struct {
	fsys fs.FS
}

// LocationFS reads property files from fsys, e.g. an embed.FS carrying the
// files alongside the binary.
func LocationFS(fsys fs.FS) Location {
	return Location{fsys: fsys}
}

// LocationDir reads property files from a filesystem directory.
func LocationDir(dir string) Location {
	return Location{fsys: os.DirFS(dir)}
}

func (l Location) valid() bool {
	return l.fsys != nil
}

func (l Location) readFile(name string) ([]byte, error) {
	return fs.ReadFile(l.fsys, name)
}
