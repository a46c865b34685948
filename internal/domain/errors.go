package domain

import (
	"errors"
	"fmt"
)

// ErrNoCandidates is returned when the locator cascade finds no questions on a listing page.
var ErrNoCandidates = errors.New("no questions found on listing page")

// ErrRobotsDisallowed marks a fetch refused by the site's robots.txt.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// FetchError is a failed page retrieval: transport error, timeout or non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PersistenceError is a failed write of a schema, registry or history record.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ErrInvalidURL rejects listing URLs without an http(s) scheme and a host.
var ErrInvalidURL = errors.New("invalid url: scheme and host are required")
