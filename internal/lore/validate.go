package lore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// nameInput is validated for every user-supplied name (campaigns, objects,
// labels, images, log titles).
type nameInput struct {
	Name string `validate:"required,max=200"`
}

// settingInput is validated before a setting is written.
type settingInput struct {
	Name  string `validate:"required,max=100,printascii"`
	Value []byte `validate:"required"`
}

// textInput is validated for note bodies.
type textInput struct {
	Body string `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkInput runs struct validation and converts failures to ErrValidation.
func checkInput(field string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating %s: %w", field, err)
	}
	e := verrs[0]
	switch e.Tag() {
	case "required":
		return invalid("%s must not be empty", field)
	case "max":
		return invalid("%s must not exceed %s characters", field, e.Param())
	default:
		return invalid("%s is invalid", field)
	}
}

// cleanName trims whitespace and validates the result as a name.
func cleanName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := checkInput(field, nameInput{Name: name}); err != nil {
		return "", err
	}
	return name, nil
}
