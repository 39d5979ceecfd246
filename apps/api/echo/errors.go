package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
	"github.com/trezcool/suara/core/submission"
)

// learnerCtxKey holds the learner a request is about, if any. Used to enrich error reports.
const learnerCtxKey = "learner"

var (
	errEmailRequired      = echo.NewHTTPError(http.StatusBadRequest, "Email is required")
	errLearnerNotFound    = echo.NewHTTPError(http.StatusNotFound, "User not found")
	errSubmissionNotFound = echo.NewHTTPError(http.StatusNotFound, "Submission not found")
	errInvalidLearnerID   = core.NewValidationError(nil, core.FieldError{Field: "userId", Error: "invalid user id"})
)

// notFound maps the "not found" sentinels of the core packages to their HTTP errors.
func notFound(err error) error {
	switch errors.Cause(err) {
	case learner.ErrNotFound:
		return errLearnerNotFound
	case submission.ErrNotFound:
		return errSubmissionNotFound
	}
	return err
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			args := []interface{}{errors.Wrap(err, msg)}
			if lrn, ok := ctx.Get(learnerCtxKey).(learner.Learner); ok {
				args = append(args, lrn)
			}
			logger.Error(msg, args...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
