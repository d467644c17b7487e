// Package pkg, katmanlar arasında paylaşılan küçük yardımcıları barındırır.
// Bu dosya domain-level error sabitlerini tanımlar.
//
// Error'lar sabit değer olarak tanımlanır ki karşılaştırma string yerine
// errors.Is ile yapılabilsin:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
//
// Service katmanı bu sabitleri fmt.Errorf("%w: detay", ...) ile sarar,
// handler katmanı errors.Is ile yakalayıp HTTP status'a çevirir.
package pkg

import (
	"errors"
	"fmt"
)

// Domain-level error sabitleri.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrConflict      = errors.New("conflict")
	ErrInternal      = errors.New("internal error")
)

// Wrap, bir sentinel'i açıklayıcı mesajla sarar. errors.Is eşleşmesi korunur.
func Wrap(sentinel error, message string) error {
	return fmt.Errorf("%w: %s", sentinel, message)
}
