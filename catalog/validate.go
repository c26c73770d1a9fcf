package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError describes one schema violation, labeled by field the
// way changeme.py's cerberus validator reports per-field errors
// (validate_cred: "%s, %s - %s" % (f, e, v.errors[e])).
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a parsed Profile against the schema in spec.md §3.
// Invalid profiles are reported field-by-field but never panic; the
// caller (Load) decides to skip the file (spec.md §4.A step 2).
func Validate(p *Profile) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ValidationError{"name", "required"})
	}
	if strings.TrimSpace(p.Category) == "" {
		errs = append(errs, ValidationError{"category", "required"})
	}
	if p.DefaultPort != nil && (*p.DefaultPort < 1 || *p.DefaultPort > 65535) {
		errs = append(errs, ValidationError{"default_port", "must be between 1 and 65535"})
	}

	if len(p.Fingerprint.URL) == 0 {
		errs = append(errs, ValidationError{"fingerprint.url", "required, must have at least one path"})
	}
	for _, u := range p.Fingerprint.URL {
		if !strings.HasPrefix(u, "/") {
			errs = append(errs, ValidationError{"fingerprint.url", fmt.Sprintf("path %q must begin with /", u)})
		}
	}

	switch p.Auth.Type {
	case ProbeBasic, ProbeForm, ProbeGet:
	case "":
		errs = append(errs, ValidationError{"auth.type", "required"})
	default:
		errs = append(errs, ValidationError{"auth.type", fmt.Sprintf("must be one of basic, form, get; got %q", p.Auth.Type)})
	}

	if len(p.Auth.Credentials) == 0 {
		errs = append(errs, ValidationError{"auth.credentials", "required, must have at least one pair"})
	}

	switch p.Auth.Type {
	case ProbeForm, ProbeGet:
		if len(p.Auth.URL) == 0 {
			errs = append(errs, ValidationError{"auth.url", "required for form/get auth"})
		}
		usernameField, passwordField := p.Auth.FieldNames()
		if usernameField == "" {
			errs = append(errs, ValidationError{"auth.form.username", "required for form/get auth"})
		}
		if passwordField == "" {
			errs = append(errs, ValidationError{"auth.form.password", "required for form/get auth"})
		}
	}

	if p.Auth.Success.Body != "" {
		compiled, err := regexp.Compile(p.Auth.Success.Body)
		if err != nil {
			errs = append(errs, ValidationError{"auth.success.body", fmt.Sprintf("invalid regexp: %v", err)})
		} else {
			p.Auth.Success.compiled = compiled
		}
	}

	return errs
}
