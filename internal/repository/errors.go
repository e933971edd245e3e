package repository

import (
	"memory-test-service/internal/apperr"
)

func persistence(msg string, err error) error {
	return apperr.Wrap(apperr.KindPersistence, msg, err)
}

func notFound(op, format string, args ...any) error {
	return apperr.Newf(apperr.KindNotFound, op, format, args...)
}
