package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNoDocument    = errors.New("no document")
	ErrSiteTimeout   = errors.New("site timed out")
	ErrSitePanic     = errors.New("site scraper panicked")
	ErrDuplicateSite = errors.New("duplicate site id")
	ErrUnknownSite   = errors.New("unknown site")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrCacheMiss     = errors.New("cache miss")
)

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	Site       string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsStatus reports whether the fetch reached the server and got a non-success reply.
func (e *FetchError) IsStatus() bool { return e.StatusCode > 0 }

// ParseError wraps errors that occur during parsing.
type ParseError struct {
	Site  string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("parse error for %s (field=%q): %v", e.Site, e.Field, e.Err)
	}
	return fmt.Sprintf("parse error for %s: %v", e.Site, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SiteError reports a site task that ended without a usable result.
type SiteError struct {
	Site string
	Err  error
}

func (e *SiteError) Error() string {
	return fmt.Sprintf("site %s failed: %v", e.Site, e.Err)
}

func (e *SiteError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
