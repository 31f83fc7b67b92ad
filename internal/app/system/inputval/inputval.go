// internal/app/system/inputval/inputval.go

// Package inputval validates and cleans profile input before it reaches
// the store: handle slugs, display names, introduce text, and the link
// list. Free text is stripped to plain text with bluemonday so profile
// content can never smuggle markup into the web client or embeds.
package inputval

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ideaslab/server/internal/domain/models"
)

const (
	MinHandleLen = 2
	MaxHandleLen = 32
	MaxNameLen   = 64
	// MaxIntroduceLen bounds the free-text introduction.
	MaxIntroduceLen = 1000
	MaxLinkNameLen  = 50
)

var (
	ErrBadHandle    = errors.New("handle must be 2-32 lowercase letters, digits, or hyphens")
	ErrBadName      = errors.New("name must be 1-64 characters")
	ErrLongIntro    = errors.New("introduction is too long")
	ErrTooManyLinks = errors.New("too many links")
	ErrBadLink      = errors.New("link entries need a name and an http(s) url")
)

// handleRe matches URL-safe slugs: lowercase alphanumerics separated by
// single hyphens, no leading/trailing hyphen.
var handleRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// strict strips all markup, leaving plain text.
var strict = bluemonday.StrictPolicy()

// Handle validates a profile handle slug.
func Handle(handle string) error {
	if len(handle) < MinHandleLen || len(handle) > MaxHandleLen {
		return ErrBadHandle
	}
	if !handleRe.MatchString(handle) {
		return ErrBadHandle
	}
	return nil
}

// Name validates a display name and returns it trimmed.
func Name(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxNameLen {
		return "", ErrBadName
	}
	return name, nil
}

// Introduce sanitizes free-form introduction text to plain text and
// enforces the length bound.
func Introduce(text string) (string, error) {
	text = strings.TrimSpace(strict.Sanitize(text))
	if len(text) > MaxIntroduceLen {
		return "", ErrLongIntro
	}
	return text, nil
}

// Links validates the ordered link list: at most MaxProfileLinks
// entries, each with a non-empty name and an absolute http(s) URL.
func Links(links []models.ProfileLink) error {
	if len(links) > models.MaxProfileLinks {
		return ErrTooManyLinks
	}
	for _, l := range links {
		name := strings.TrimSpace(l.Name)
		if name == "" || len(name) > MaxLinkNameLen {
			return ErrBadLink
		}
		u, err := url.Parse(l.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrBadLink
		}
	}
	return nil
}
