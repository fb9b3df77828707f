package app

import (
	"errors"
	"menuo/pkg/httperror"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// invalid converts a validator failure into a 422 whose details use the
// same field map the backend sends, so callers render both the same way.
func invalid(code string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return httperror.UnprocessableEntity(code, err.Error(), nil)
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := fieldName(fe)
		fields[field] = append(fields[field], "failed on "+fe.Tag())
	}
	return httperror.UnprocessableEntity(code, "invalid input", fields)
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}
