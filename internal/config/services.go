package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/statusnotifier/internal/domain"
)

var (
	ErrServicesNotFound = errors.New("services file does not exist")
	ErrServicesInvalid  = errors.New("services file is invalid")
)

// LoadServices reads the ordered service list from path. The file order is
// the order of every report produced from it.
func LoadServices(path string) ([]domain.Service, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrServicesNotFound, path)
		}
		return nil, fmt.Errorf("read services %s: %w", path, err)
	}
	return ParseServices(data, filepath.Ext(path))
}

// ParseServices decodes YAML for .yml/.yaml and JSON otherwise.
func ParseServices(data []byte, ext string) ([]domain.Service, error) {
	var services []domain.Service
	switch strings.ToLower(ext) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &services); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrServicesInvalid, err)
		}
	default:
		dec := json.NewDecoder(strings.NewReader(string(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&services); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrServicesInvalid, err)
		}
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			return nil, fmt.Errorf("%w: unexpected data after the service list", ErrServicesInvalid)
		}
	}
	if services == nil {
		return nil, fmt.Errorf("%w: expected a list of {name, url} records", ErrServicesInvalid)
	}
	if err := ValidateServices(services); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServicesInvalid, err)
	}
	return services, nil
}

// ValidateServices checks every record and rejects duplicate names.
func ValidateServices(services []domain.Service) error {
	seen := make(map[string]int, len(services))
	for i, s := range services {
		err := validation.ValidateStruct(&s,
			validation.Field(&s.Name, validation.Required),
			validation.Field(&s.URL, validation.Required, validation.By(validateHTTPURL)),
		)
		if err != nil {
			return fmt.Errorf("service #%d: %w", i+1, err)
		}
		if j, dup := seen[s.Name]; dup {
			return fmt.Errorf("service #%d: name %q already used by service #%d", i+1, s.Name, j+1)
		}
		seen[s.Name] = i
	}
	return nil
}

func validateHTTPURL(value interface{}) error {
	raw, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}
	if u.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}
	return nil
}
