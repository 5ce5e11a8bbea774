package lhttp

import (
	"mime"
	"net/http"
	"path"
)

// InferContentType prefers the extension of name and sniffs content when the extension is unknown.
func InferContentType(name string, content []byte) string {
	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = http.DetectContentType(content)
	}
	return ctype
}
