package app

import (
	"fmt"
	"regexp"

	"github.com/cipherlock/cipherlock"
	"github.com/cipherlock/cipherlock/errors"
)

// isPath is the RegExp to ensure the routes make reasonable paths.
var isPath = regexp.MustCompile(`^[a-zA-Z0-9_/]+$`).MatchString

// Router allows us to register many handlers with different paths and
// then direct each message to the proper handler.
//
// Minimal interface modeled after net/http.ServeMux.
type Router struct {
	routes map[string]cipherlock.Handler
}

var _ cipherlock.Registry = (*Router)(nil)
var _ cipherlock.Handler = (*Router)(nil)

// NewRouter initializes a router with no routes.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]cipherlock.Handler, 10),
	}
}

// Handle adds a new Handler for the given path. This function panics if
// a handler for given path is already registered or if the path is
// invalid.
func (r *Router) Handle(path string, h cipherlock.Handler) {
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %q", path))
	}
	r.routes[path] = h
}

// handler returns the registered Handler for this path. If no path is
// found, it returns a noSuchPathHandler. This method always returns a
// non-nil Handler.
func (r *Router) handler(m cipherlock.Msg) cipherlock.Handler {
	path := m.Path()
	if h, ok := r.routes[path]; ok {
		return h
	}
	return noSuchPathHandler{path}
}

// Check dispatches to the proper handler based on path.
func (r *Router) Check(ctx cipherlock.Context, store cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	h := r.handler(msg)
	return h.Check(ctx, store, tx)
}

// Deliver dispatches to the proper handler based on path.
func (r *Router) Deliver(ctx cipherlock.Context, store cipherlock.KVStore, tx cipherlock.Tx) (*cipherlock.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	h := r.handler(msg)
	return h.Deliver(ctx, store, tx)
}

// noSuchPathHandler always returns ErrNotFound, paired with the message
// path that could not be routed.
type noSuchPathHandler struct {
	path string
}

var _ cipherlock.Handler = noSuchPathHandler{}

func (h noSuchPathHandler) Check(cipherlock.Context, cipherlock.KVStore, cipherlock.Tx) (*cipherlock.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", h.path)
}

func (h noSuchPathHandler) Deliver(cipherlock.Context, cipherlock.KVStore, cipherlock.Tx) (*cipherlock.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", h.path)
}
