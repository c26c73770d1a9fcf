// Package target implements the Target Expander (spec.md §4.B): the
// cross-product of operator-supplied targets and catalogue profiles into
// concrete fingerprint probe URLs.
package target

import (
	"fmt"

	"latchkey/catalog"
)

// Probe is one concrete fingerprint request to issue: a single path of a
// single profile against a single target.
type Probe struct {
	Target  string
	Profile *catalog.Profile
	Path    string
	URL     string
}

// Expand returns one Probe per (target, profile, fingerprint path) triple.
// Scope filtering (name/category) happens earlier, at catalogue load time
// (catalog.LoadOptions) — profiles is already the filtered set, so Expand
// itself does no filtering, only cross-product and URL rendering
// (spec.md §4.B).
func Expand(targets []string, profiles []*catalog.Profile) []Probe {
	var probes []Probe
	for _, t := range targets {
		for _, p := range profiles {
			for _, path := range p.Fingerprint.URL {
				probes = append(probes, Probe{
					Target:  t,
					Profile: p,
					Path:    path,
					URL:     renderURL(t, p, path),
				})
			}
		}
	}
	return probes
}

// renderURL builds scheme://target:port/path, with scheme and port derived
// from the profile (spec.md §4.B). Targets are treated as opaque host or IP
// strings; no normalisation beyond string interpolation is attempted, same
// as build_target_list in the source this was distilled from.
func renderURL(t string, p *catalog.Profile, path string) string {
	return fmt.Sprintf("%s://%s:%d%s", p.Scheme(), t, p.Port(), path)
}
