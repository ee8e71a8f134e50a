// Package validation checks request payloads with go-playground/validator
// and reports failures as *domain.ValidationError keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/vbonduro/foodgram/internal/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Validator returns the shared validator instance with the custom rules
// registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
		for tag, pattern := range map[string]*regexp.Regexp{
			"username": usernamePattern,
			"slug":     slugPattern,
		} {
			if err := validate.RegisterValidation(tag, matches(pattern)); err != nil {
				panic(err)
			}
		}
	})
	return validate
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Struct validates s. It returns nil or a *domain.ValidationError.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate request: %w", err)
	}

	verr := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fieldPath(fe), message(fe))
	}
	return verr
}

// fieldPath drops the top-level struct name from the namespace, so a nested
// error reads "ingredients[0].amount".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

var messages = map[string]string{
	"required": "This field is required.",
	"email":    "Enter a valid email address.",
	"username": "Enter a valid username. Letters, digits and @/./+/-/_ only.",
	"hexcolor": "Enter a valid hex color.",
	"slug":     "Enter a valid slug consisting of letters, numbers, underscores or hyphens.",
	"unique":   "Values must be unique.",
}

var messagesWithParam = map[string]string{
	"min": "Ensure this value is at least %s.",
	"max": "Ensure this value has at most %s characters.",
	"gte": "Ensure this value is greater than or equal to %s.",
	"lte": "Ensure this value is less than or equal to %s.",
}

func message(fe validator.FieldError) string {
	if m, ok := messages[fe.Tag()]; ok {
		return m
	}
	if m, ok := messagesWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(m, fe.Param())
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}
