package buildconfig

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/net/http/httpguts"
)

var pageIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// routeUnsafe are characters the dev server cannot place in a route pattern.
const routeUnsafe = "{} \t\r\n"

// Validate checks a fully merged configuration before it is handed to the
// bundler or dev server. Whether entry files exist is left to the bundler.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Pages,
			validation.Required.Error("at least one page is required"),
			validation.By(validatePages),
		),
		validation.Field(&c.PublicPath, validation.By(validatePublicPath)),
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.DevServer),
	)
}

// Validate implements validation.Validatable.
func (p Page) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Entry, validation.Required),
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Filename, validation.By(validateFilename)),
	)
}

// Validate implements validation.Validatable.
func (d DevServer) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Headers, validation.By(validateHeaders)),
		validation.Field(&d.Host, validation.Required),
		validation.Field(&d.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// validatePages checks page ids and that no two pages render to the same file.
func validatePages(value any) error {
	pages, ok := value.(map[string]Page)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a map of pages")
	}
	owners := make(map[string]string, len(pages))
	for _, id := range slices.Sorted(maps.Keys(pages)) {
		if !pageIDPattern.MatchString(id) {
			return fmt.Errorf("invalid page id %q", id)
		}
		filename := pages[id].OutputFilename(id)
		if other, ok := owners[filename]; ok {
			return fmt.Errorf("pages %q and %q both render to %q", other, id, filename)
		}
		owners[filename] = id
	}
	return nil
}

// validatePublicPath accepts absolute paths with a trailing slash, absolute
// URLs with a trailing slash, and the relative forms "" and "./".
func validatePublicPath(value any) error {
	p, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	if strings.ContainsAny(p, routeUnsafe) {
		return errors.New("must not contain braces or whitespace")
	}
	switch {
	case p == "" || p == "./":
		return nil
	case strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") || strings.HasPrefix(p, "/"):
		if !strings.HasSuffix(p, "/") {
			return errors.New("must end with /")
		}
		return nil
	default:
		return errors.New("must be empty, ./, an absolute path or an absolute URL")
	}
}

func validateFilename(value any) error {
	name, _ := value.(string)
	if name == "" {
		return nil
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return errors.New("must be a plain file name")
	}
	if strings.ContainsAny(name, routeUnsafe) {
		return errors.New("must not contain braces or whitespace")
	}
	return nil
}

func validateHeaders(value any) error {
	headers, ok := value.(map[string]string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a map of header values")
	}
	for name, v := range headers {
		if !httpguts.ValidHeaderFieldName(name) {
			return fmt.Errorf("invalid header name %q", name)
		}
		if !httpguts.ValidHeaderFieldValue(v) {
			return fmt.Errorf("invalid value for header %q", name)
		}
	}
	return nil
}
