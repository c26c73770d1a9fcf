package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"latchkey/logx"
)

// Catalogue is the immutable set of profiles produced by Load. It is safe
// to share by reference across every scan worker (spec.md §5: "The
// profile catalogue is read-only after load and may be shared freely").
type Catalogue struct {
	profiles []*Profile
}

// Profiles returns the loaded profile list. Callers must not mutate the
// returned slice's elements.
func (c *Catalogue) Profiles() []*Profile {
	return c.profiles
}

// Stats reports the load summary spec.md §4.A asks for: total profiles
// and total individual credentials across them.
func (c *Catalogue) Stats() (profiles, credentials int) {
	profiles = len(c.profiles)
	for _, p := range c.profiles {
		credentials += p.CredentialCount()
	}
	return
}

// Contributors returns the distinct set of contributor names across the
// catalogue, for the CLI's --contributors mode (spec.md §6).
func (c *Catalogue) Contributors() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.profiles {
		if p.Contributor == "" || seen[p.Contributor] {
			continue
		}
		seen[p.Contributor] = true
		out = append(out, p.Contributor)
	}
	return out
}

// LoadOptions narrows the catalogue by name and/or category (spec.md
// §4.A step 4; both filters compose by conjunction).
type LoadOptions struct {
	Name     string
	Category string
}

func (o LoadOptions) inScope(p *Profile) bool {
	if o.Name != "" && p.Name != o.Name {
		return false
	}
	if o.Category != "" && p.Category != o.Category {
		return false
	}
	return true
}

// Load walks root recursively, parsing every file whose name ends in
// .yml as one profile (spec.md §4.A; §6 "recognises files whose name
// ends in .yml as profile files; other files are ignored"). Malformed
// YAML and schema violations are logged and the file skipped without
// aborting the walk. Duplicate names: first one wins, later occurrences
// are logged as errors and dropped.
func Load(root string, opts LoadOptions, log *logx.Logger) (*Catalogue, error) {
	if log == nil {
		log = logx.Nop()
	}

	cat := &Catalogue{}
	seen := make(map[string]string) // name -> source file, for dup diagnostics

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yml") {
			return nil
		}

		p, parseErr := parseFile(path)
		if parseErr != nil {
			log.Errorf("failed to parse %s: %v", path, parseErr)
			return nil
		}

		if existing, dup := seen[p.Name]; dup {
			log.Errorf("duplicate profile name %q in %s, first loaded from %s; dropping", p.Name, path, existing)
			return nil
		}

		if verrs := Validate(p); len(verrs) > 0 {
			for _, v := range verrs {
				log.Errorf("%s: %v", path, v)
			}
			return nil
		}

		if !opts.inScope(p) {
			return nil
		}

		seen[p.Name] = path
		cat.profiles = append(cat.profiles, p)
		log.Debugf("loaded profile %q from %s", p.Name, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: walk %s: %w", root, err)
	}

	profiles, creds := cat.Stats()
	log.Infof("loaded %d default credential profiles", profiles)
	log.Infof("loaded %d default credentials", creds)

	return cat, nil
}

func parseFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	p.source = path
	return &p, nil
}
