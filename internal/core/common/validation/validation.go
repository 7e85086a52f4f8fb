package validation

import (
	"fmt"
	"net/mail"
	"regexp"

	errors "github.com/frahmantamala/school-admin/internal"
	"github.com/frahmantamala/school-admin/internal/core/rbac"
	"github.com/google/uuid"
)

var (
	roleNamePattern       = regexp.MustCompile(`^[a-z][a-z0-9_]{1,49}$`)
	machineNamePattern    = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,49}$`)
	permissionPartPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]*FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return fv
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case string:
			if v == "" {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case *string:
			if v == nil || *v == "" {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case []string:
			if v == nil {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinLength(min int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok {
			if len(v) < min {
				message := fmt.Sprintf("%s must be at least %d characters", fv.FieldName, min)
				return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok {
			if len(v) > max {
				message := fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max)
				return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

// Matches fails non-empty strings that do not match pattern.
func (fv *FieldValidator) Matches(pattern *regexp.Regexp, message string, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && v != "" && !pattern.MatchString(v) {
			return errors.NewValidationFieldError(fv.FieldName, message, code)
		}
		return nil
	})
	return fv
}

// UUIDs checks every element of a string slice is a well-formed uuid.
func (fv *FieldValidator) UUIDs() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		ids, ok := value.([]string)
		if !ok {
			return nil
		}
		for _, id := range ids {
			if _, err := uuid.Parse(id); err != nil {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s contains an invalid id: %q", fv.FieldName, id), errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			appErr := validator(field.Value)
			if appErr == nil {
				continue
			}
			if details, ok := appErr.Details.(errors.ValidationErrors); ok {
				validationErrors = append(validationErrors, details.Errors...)
				continue
			}
			validationErrors = append(validationErrors, errors.ValidationError{
				Field:   field.FieldName,
				Message: appErr.Message,
				Code:    string(appErr.Code),
			})
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}

// ValidateRoleName checks a normalized role machine name.
func ValidateRoleName(name string) *errors.AppError {
	validator := NewValidator()
	validator.Field("name", name).
		Required().
		Matches(roleNamePattern, "name must be 2-50 lowercase letters, digits or underscores and start with a letter", errors.ErrCodeInvalidRoleName)
	return validator.Validate()
}

func ValidateDisplayName(field, value string) *errors.AppError {
	validator := NewValidator()
	validator.Field(field, value).
		Required().
		MaxLength(100)
	return validator.Validate()
}

// ValidatePermissionName enforces the "<resource>:<action>" convention.
func ValidatePermissionName(name string) *errors.AppError {
	validator := NewValidator()
	validator.Field("name", name).
		Required().
		MaxLength(100).
		Custom(func(value interface{}) *errors.AppError {
			resource, action, ok := rbac.SplitPermissionName(name)
			if name == "" {
				return nil
			}
			if !ok || !permissionPartPattern.MatchString(resource) || !permissionPartPattern.MatchString(action) {
				return errors.NewValidationFieldError("name", "name must look like <resource>:<action>", errors.ErrCodeInvalidPermission)
			}
			return nil
		})
	return validator.Validate()
}

// ValidateMachineName checks page and category keys.
func ValidateMachineName(name string) *errors.AppError {
	validator := NewValidator()
	validator.Field("name", name).
		Required().
		Matches(machineNamePattern, "name must be lowercase letters, digits, '-' or '_'", errors.ErrCodeValidationFailed)
	return validator.Validate()
}

func ValidatePageName(name string) *errors.AppError {
	return ValidateMachineName(name)
}

func ValidateEmail(email string) *errors.AppError {
	validator := NewValidator()
	validator.Field("email", email).
		Required().
		MaxLength(255).
		Custom(func(value interface{}) *errors.AppError {
			if email == "" {
				return nil
			}
			if _, err := mail.ParseAddress(email); err != nil {
				return errors.NewValidationFieldError("email", "email is not a valid address", errors.ErrCodeInvalidEmail)
			}
			return nil
		})
	return validator.Validate()
}

// IsUUID guards store lookups; a malformed id can never match a row.
func IsUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// CanonicalID returns the lowercase hyphenated form the store uses for any
// accepted uuid spelling (uppercase, braces, urn prefix). Anything else is
// returned unchanged.
func CanonicalID(id string) string {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return id
	}
	return parsed.String()
}

// PartitionIDs canonicalises ids, drops duplicates while keeping first-seen
// order and separates ids that are not uuids, which can never exist in the
// store.
func PartitionIDs(ids []string) (wellFormed, malformed []string) {
	seen := make(map[string]struct{}, len(ids))
	wellFormed = make([]string, 0, len(ids))
	for _, raw := range ids {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			if _, dup := seen[raw]; !dup {
				seen[raw] = struct{}{}
				malformed = append(malformed, raw)
			}
			continue
		}
		id := parsed.String()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		wellFormed = append(wellFormed, id)
	}
	return wellFormed, malformed
}

// MissingIDs returns the members of want that are absent from have, in order.
func MissingIDs(want, have []string) []string {
	present := make(map[string]struct{}, len(have))
	for _, id := range have {
		present[id] = struct{}{}
	}
	var missing []string
	for _, id := range want {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func ValidateIDs(field string, ids []string) *errors.AppError {
	validator := NewValidator()
	validator.Field(field, ids).
		Required().
		UUIDs()
	return validator.Validate()
}
