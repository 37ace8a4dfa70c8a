package ledger

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"

	"github.com/mamadbah2/remitos/internal/repository/sheets"
)

// Kind distinguishes ledger failures the caller must render differently.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindPermissionDenied Kind = "permission_denied"
	KindMisconfigured    Kind = "misconfigured"
	KindOther            Kind = "other"
)

// Error is returned by every failing ledger operation.
type Error struct {
	Kind      Kind
	SheetName string
	Err       error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("no se encontró la planilla o la pestaña %q; verificá que la hoja se llame %q y que el ID sea correcto", e.SheetName, e.SheetName)
	case KindPermissionDenied:
		return "la cuenta de servicio no tiene permiso de edición sobre la planilla; compartila con el correo de la cuenta de servicio como Editor"
	case KindMisconfigured:
		return "faltan las credenciales de Google Sheets en el servidor"
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "ledger error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the ledger failure kind carried by err, or "" when err is not a ledger error.
func KindOf(err error) Kind {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return ""
}

func classify(err error, sheetName string) *Error {
	if errors.Is(err, sheets.ErrMissingCredentials) {
		return &Error{Kind: KindMisconfigured, SheetName: sheetName, Err: err}
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusNotFound:
			return &Error{Kind: KindNotFound, SheetName: sheetName, Err: err}
		case gerr.Code == http.StatusForbidden:
			return &Error{Kind: KindPermissionDenied, SheetName: sheetName, Err: err}
		case gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range"):
			// A missing tab is reported as an unparseable A1 range.
			return &Error{Kind: KindNotFound, SheetName: sheetName, Err: err}
		}
	}

	return &Error{Kind: KindOther, SheetName: sheetName, Err: err}
}
