package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/runway/internal/guide"
	"github.com/mark3labs/runway/internal/spec"
)

var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

// friendlyError maps pipeline errors into messages for the terminal.
func friendlyError(err error) error {
	var mse *spec.MalformedSpecError
	switch {
	case errors.As(err, &mse):
		msg := mse.Message
		if !strings.HasPrefix(msg, "spec: ") {
			msg = "spec: " + msg
		}
		if mse.Location != "" && mse.Location != spec.InlineLocation {
			msg = fmt.Sprintf("%s\nLocation: %s", msg, mse.Location)
		}
		if mse.JSONPointer != "" {
			msg = fmt.Sprintf("%s\nPointer: %s", msg, mse.JSONPointer)
		}
		return newUsageError(msg)
	case errors.Is(err, guide.ErrNoEndpoints):
		return newUsageError("spec: no usable endpoints found (only GET, POST, PUT, PATCH and DELETE operations are considered)")
	case errors.Is(err, guide.ErrEndpointNotFound):
		return newUsageError(fmt.Sprintf("%v\nHint: run `runway endpoints` to list what the spec defines.", err))
	case errors.Is(err, guide.ErrNotFound):
		return newUsageError(fmt.Sprintf("%v\nHint: run `runway list` to see saved guides.", err))
	}
	return err
}
