package internal

import (
	"net/url"
	"strings"
)

// ImagePolicy decides which logo URLs may be rendered. Only https URLs are
// accepted; when hosts is non-empty the URL host must be listed.
type ImagePolicy struct {
	hosts map[string]struct{}
}

func NewImagePolicy(hosts []string) ImagePolicy {
	p := ImagePolicy{hosts: make(map[string]struct{}, len(hosts))}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			p.hosts[h] = struct{}{}
		}
	}
	return p
}

func (p ImagePolicy) Allowed(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Hostname() == "" {
		return false
	}
	if len(p.hosts) == 0 {
		return true
	}
	_, ok := p.hosts[strings.ToLower(u.Hostname())]
	return ok
}
