package version

import (
	"strings"

	"picture-catalog/internal/domain"
)

type LicenseRegistry interface {
	Canonical(name string) (string, bool)
	Default() string
}

// CheckLicense validates a submitted license name against the registry and
// resolves the license the next version carries.
func CheckLicense(registry LicenseRegistry, previous *domain.License, submitted *domain.LicenseInput) (domain.License, error) {
	if submitted != nil && submitted.Name != nil && strings.TrimSpace(*submitted.Name) != "" {
		canonical, ok := registry.Canonical(*submitted.Name)
		if !ok {
			return domain.License{}, &domain.InvalidLicenseError{Name: *submitted.Name}
		}
		submitted = &domain.LicenseInput{Name: &canonical, IsEdited: submitted.IsEdited}
	}
	return ResolveLicense(previous, submitted, registry.Default()), nil
}
