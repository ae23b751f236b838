package storage

import (
	stderrors "errors"
	"fmt"

	"github.com/juju/errors"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// translate перетворює помилки GORM і драйверів на помилки juju/errors,
// з якими працюють сервіси. what описує сутність для повідомлення.
func translate(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	what := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.NewNotFound(nil, what+" not found")
	case isUniqueViolation(err):
		return errors.NewAlreadyExists(nil, what+" already exists")
	}
	return errors.Annotate(err, what)
}

func isUniqueViolation(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if stderrors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
