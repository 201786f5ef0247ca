package music

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Track is one queued item.
type Track struct {
	Title       string        `json:"title"`
	URL         string        `json:"url"`
	Author      string        `json:"author,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	RequestedBy string        `json:"requested_by,omitempty"`
}

// Markdown renders the track as a masked link when it has a URL.
func (t Track) Markdown() string {
	if t.URL == "" {
		return t.Title
	}
	return fmt.Sprintf("[%s](%s)", t.Title, t.URL)
}

// Length formats the duration as m:ss or h:mm:ss, "live" when unknown.
func (t Track) Length() string {
	if t.Duration <= 0 {
		return "live"
	}
	d := t.Duration.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// IsURL reports whether query looks like an http(s) link.
func IsURL(query string) bool {
	u, err := url.Parse(strings.TrimSpace(query))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// TrackFromQuery turns a user query into a Track. Links keep their host as
// the title until a resolver fills in metadata.
func TrackFromQuery(query, requestedBy string) Track {
	query = strings.TrimSpace(query)
	if IsURL(query) {
		u, _ := url.Parse(query)
		title := u.Host + u.Path
		return Track{Title: strings.TrimSuffix(title, "/"), URL: query, RequestedBy: requestedBy}
	}
	return Track{Title: query, RequestedBy: requestedBy}
}
