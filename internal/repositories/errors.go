package repositories

import (
	"errors"

	"github.com/lib/pq"
)

// ErrConflict: условная запись проиграла гонку. Версия строки изменилась
// после чтения или уникальный ключ уже занят.
var ErrConflict = errors.New("conflicting update")

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
