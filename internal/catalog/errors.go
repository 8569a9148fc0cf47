package catalog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
)

var (
	ErrFileNotFound      = errors.New("plik nie istnieje")
	ErrInsufficientStock = errors.New("niewystarczający stan magazynowy")
	ErrUnknownEntity     = errors.New("nieznany typ encji")
	ErrBadHeader         = errors.New("nie rozpoznano kolumn nagłówka")
	ErrNotFound          = errors.New("nie znaleziono")
)

// fatalError przerywa cały import (np. nieudany backup); zwykłe błędy wiersza są tylko liczone.
type fatalError struct{ err error }

func (e fatalError) Error() string { return e.err.Error() }
func (e fatalError) Unwrap() error { return e.err }

func fatal(err error) error { return fatalError{err: err} }

// isFatal: anulowanie, zerwane połączenie z bazą i jawnie oznaczone błędy kończą run.
func isFatal(err error) bool {
	var fe fatalError
	switch {
	case errors.As(err, &fe),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, driver.ErrBadConn):
		return true
	}
	return false
}
