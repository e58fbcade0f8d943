package wits

import "errors"

// errNotFound is returned by doRequest when the server answers 404;
// GetWorkItem translates it into an (ok=false, nil) result instead of
// propagating an error.
var errNotFound = errors.New("wits: not found")
