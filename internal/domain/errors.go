package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPictureNotFound = errors.New("picture not found")
	ErrPlaceNotFound   = errors.New("place not found")
	ErrCatalogNotFound = errors.New("catalog not found")
)

type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("these fields are missing: %q", strings.Join(e.Fields, ", "))
}

type InvalidLicenseError struct {
	Name string
}

func (e *InvalidLicenseError) Error() string {
	return fmt.Sprintf("license %q is not recognized", e.Name)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

type IngestionError struct {
	Reason string
	Err    error
}

func (e *IngestionError) Error() string {
	if e.Err != nil {
		return "ingestion failed: " + e.Reason + ": " + e.Err.Error()
	}
	return "ingestion failed: " + e.Reason
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// IsRequestError reports whether err (or anything joined into it) is a
// recoverable, caller-facing failure rather than an infrastructure one.
func IsRequestError(err error) bool {
	var (
		missing    *MissingFieldError
		license    *InvalidLicenseError
		validation *ValidationError
		ingestion  *IngestionError
	)
	return errors.As(err, &missing) ||
		errors.As(err, &license) ||
		errors.As(err, &validation) ||
		errors.As(err, &ingestion) ||
		errors.Is(err, ErrPictureNotFound) ||
		errors.Is(err, ErrPlaceNotFound) ||
		errors.Is(err, ErrCatalogNotFound)
}
