package server

import (
	"embed"
	"path"
)

// runtimeFS carries the framework runtime modules served under /axis/.
// They ship inside the binary so a dev server works without any install
// step for the framework itself.
//
//go:embed runtime/*.js
var runtimeFS embed.FS

// runtimeModule returns the embedded module for a /axis/<name> request.
func runtimeModule(name string) ([]byte, bool) {
	name = path.Clean(name)
	if name == "." || name == ".." || path.Dir(name) != "." {
		return nil, false
	}
	data, err := runtimeFS.ReadFile("runtime/" + name)
	if err != nil {
		return nil, false
	}
	return data, true
}
