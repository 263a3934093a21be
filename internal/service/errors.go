package service

import (
	"errors"

	"github.com/trungpqhe173313/SEP490-sub002/internal/apperror"
	"github.com/trungpqhe173313/SEP490-sub002/pkg/validator"

	"gorm.io/gorm"
)

// lookupErr turns a repository lookup failure into NotFound(msg) or Internal.
func lookupErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(msg)
	}
	return apperror.Internal(err)
}

// passThrough keeps domain errors as they are and wraps anything else as Internal.
func passThrough(err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Internal(err)
}

func validateRequest(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperror.Validation(validator.Message(errs))
	}
	return nil
}
