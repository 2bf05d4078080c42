package web

import (
	"fmt"
	"net/http"
	"strings"
)

// Mux is the minimal interface required to register the server. It is
// satisfied by *http.ServeMux and chi routers.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// Mount registers the server under basePath on mux and returns the pattern
// used. Redirects and page links stay relative to the mount point.
func (s *Server) Mount(mux Mux, basePath string) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("web: missing mux")
	}
	prefix := mountPath(basePath)
	if prefix == "" {
		mux.Handle("/", s)
		return "/", nil
	}
	s.prefix = prefix
	pattern := prefix + "/"
	mux.Handle(pattern, http.StripPrefix(prefix, s))
	return pattern, nil
}

func mountPath(basePath string) string {
	basePath = strings.TrimSpace(basePath)
	basePath = strings.TrimRight(basePath, "/")
	if basePath == "" {
		return ""
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return basePath
}
