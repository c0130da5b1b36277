package service

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var registerOnce sync.Once

// RegisterValidators adds the notblank rule to gin's validator engine. It is
// safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("notblank", validators.NotBlank)
		}
	})
}

// validate runs the binding tags of req, reporting a failure as ErrValidation
// with message.
func validate(req any, message string) error {
	RegisterValidators()
	if err := binding.Validator.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, message)
	}
	return nil
}
