package state

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every Redis key written by the tap.
const KeyPrefix = "tap-woocommerce"

// Key identifies the persisted state of one tap configuration.
type Key struct {
	// Site is the store URL the state belongs to.
	Site string

	// Labels distinguish several pipelines syncing the same site (e.g. {"env": "prod"}).
	Labels map[string]string
}

// String generates a deterministic key.
// Format: tap-woocommerce:state:host/path:label1=val1:label2=val2
//
// Example:
//
//	tap-woocommerce:state:shop.example.com:env=prod
func (k Key) String() string {
	parts := []string{KeyPrefix, "state"}

	if site := normalizeSite(k.Site); site != "" {
		parts = append(parts, site)
	}

	if len(k.Labels) > 0 {
		names := make([]string, 0, len(k.Labels))
		for name := range k.Labels {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Labels[name]))
		}
	}

	return strings.Join(parts, ":")
}

// normalizeSite drops scheme, credentials, query and trailing slashes so
// http/https variants of one store share state.
func normalizeSite(site string) string {
	site = strings.TrimSpace(site)
	if site == "" {
		return ""
	}
	if u, err := url.Parse(site); err == nil && u.Host != "" {
		site = u.Host + u.Path
	}
	return strings.ToLower(strings.Trim(site, "/"))
}
