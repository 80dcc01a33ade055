package handler

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the request validators used by the handlers to
// gin's binding engine. Only the first call registers.
func RegisterValidators() error {
	registerOnce.Do(func() {
		registerErr = registerValidators()
	})
	return registerErr
}

func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	if err := v.RegisterValidation("hhmm", validateHHMM); err != nil {
		return err
	}

	if err := v.RegisterValidation("branch", validateBranch); err != nil {
		return err
	}

	return v.RegisterValidation("isodate", validateISODate)
}

// validateHHMM accepts a 24-hour "HH:MM" clock time.
func validateHHMM(fl validator.FieldLevel) bool {
	return hhmmPattern.MatchString(fl.Field().String())
}

// validateBranch accepts a non-blank branch name.
func validateBranch(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateISODate accepts a "YYYY-MM-DD" calendar date.
func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.DateOnly, fl.Field().String())
	return err == nil
}
