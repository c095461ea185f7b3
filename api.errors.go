package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Outcome is the decision taken by a handler after a storage failure.
type Outcome uint8

const (
	OutcomeUnexpected Outcome = iota
	OutcomeFieldValidation
	OutcomeNotFound
)

// ResolveFailure classifies a failure coming from the books service. Field
// validation failures come with the rejected fields. Anything which did not
// come through the storage boundary is unexpected.
func ResolveFailure(err error) (Outcome, []FieldError) {
	var se *StoreError
	if errors.As(err, &se) {
		switch se.Kind {
		case KindFieldValidation:
			return OutcomeFieldValidation, se.Fields
		case KindNotFound:
			return OutcomeNotFound, nil
		}
	}
	return OutcomeUnexpected, nil
}

// HTTPError carries a status code up to the error stage.
type HTTPError struct {
	Status int
	Err    error
}

func (e *HTTPError) Error() string {
	if e.Err == nil {
		return http.StatusText(e.Status)
	}
	return fmt.Sprintf("%d %s: %v", e.Status, http.StatusText(e.Status), e.Err)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NotFoundStage handles every request no route matched.
func (api *APIHandler) NotFoundStage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.Escalate(w, r, &HTTPError{
		Status: http.StatusNotFound,
		Err:    fmt.Errorf("no route for %s %s", r.Method, r.URL.Path),
	})
}

// Escalate hands a failure to the error stage. Errors without an explicit
// status are answered with 500.
func (api *APIHandler) Escalate(w http.ResponseWriter, r *http.Request, err error) {
	var herr *HTTPError
	if !errors.As(err, &herr) {
		herr = &HTTPError{Status: http.StatusInternalServerError, Err: err}
	}
	api.ErrorStage(w, r, herr)
}

// ErrorStage renders the error view with the escalated status. The not found
// page is shown for 404 and the generic failure page for any other status.
func (api *APIHandler) ErrorStage(w http.ResponseWriter, r *http.Request, herr *HTTPError) {
	logger := api.GetLoggerFromContext(r.Context())
	status := herr.Status
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}

	if status == http.StatusNotFound {
		logger.Info("not found", zap.String("request.path", r.URL.Path))
	} else {
		logger.Error("request failed", zap.Int("request.status", status), zap.Error(herr))
	}

	if IsResponseWritten(w) {
		logger.Warn("response already sent, dropping error page", zap.Int("request.status", status))
		return
	}

	title := "Something went wrong"
	if status == http.StatusNotFound {
		title = "Page Not Found"
	}
	api.render(w, r, status, ViewError, ViewData{Title: title, Status: status})
}

// handleFailure routes a books service failure: not found renders the
// not found view with the given mode and anything unexpected is escalated.
// Field validation failures are handled by the form handlers before.
func (api *APIHandler) handleFailure(w http.ResponseWriter, r *http.Request, err error, data ViewData) {
	api.metrics.StorageFailed(ErrorKindOf(err))
	switch outcome, _ := ResolveFailure(err); outcome {
	case OutcomeNotFound:
		data.Title = "Book Not Found"
		data.Mode = ModeBook
		api.render(w, r, http.StatusOK, ViewNotFound, data)
	default:
		api.Escalate(w, r, err)
	}
}
