package api

import (
	"errors"
	"net/http"

	"github.com/acircuit-ctrlV/badminton-koun/internal/adapters/repository"
	"github.com/acircuit-ctrlV/badminton-koun/internal/adapters/sheet"
	service "github.com/acircuit-ctrlV/badminton-koun/internal/app"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/tally"
	"github.com/acircuit-ctrlV/badminton-koun/internal/render"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrTooLarge   = errors.New("request body too large")
)

// Error codes written in error responses.
const (
	codeBadRequest       = "bad_request"
	codeNotFound         = "not_found"
	codeNotCalculated    = "not_calculated"
	codeNothingToCompute = "nothing_to_compute"
	codeTooLarge         = "too_large"
	codeInternal         = "internal_error"
)

// opError records the handler operation that failed along with the error
// kind used for status mapping.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	switch {
	case e.err != nil && e.kind != nil:
		return e.kind.Error() + ": " + e.err.Error()
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	default:
		return e.op + " failed"
	}
}

func (e *opError) Unwrap() []error {
	var out []error
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.err != nil {
		out = append(out, e.err)
	}
	return out
}

// Op returns the name of the failed operation.
func (e *opError) Op() string { return e.op }

// Wrap attaches an operation name to err.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

// NewKind returns an error of the given kind for op.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}

// WrapKind attaches an operation name and an error kind to err.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}

// classify maps an error to its HTTP status and response code.
func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, ErrTooLarge), errors.Is(err, render.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, codeTooLarge
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, service.ErrNotCalculated):
		return http.StatusConflict, codeNotCalculated
	case errors.Is(err, service.ErrNothingToCompute), errors.Is(err, tally.ErrNoPlayers):
		return http.StatusUnprocessableEntity, codeNothingToCompute
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, tally.ErrRowOutOfRange),
		errors.Is(err, tally.ErrGameOutOfRange),
		errors.Is(err, tally.ErrNegativeUsage),
		errors.Is(err, tally.ErrUsageOutOfRange),
		errors.Is(err, sheet.ErrUnsupportedFormat),
		errors.Is(err, sheet.ErrEmptyWorkbook),
		errors.Is(err, sheet.ErrMalformed):
		return http.StatusBadRequest, codeBadRequest
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
