package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Skotchmaster/tasktracker/pkg/client"
)

// FormatError renders err for a terminal, including field level validation
// messages from the API.
func FormatError(err error) string {
	var ae *client.APIError
	if !errors.As(err, &ae) || len(ae.FieldErrors) == 0 {
		return err.Error()
	}

	fields := make([]string, 0, len(ae.FieldErrors))
	for f := range ae.FieldErrors {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	var b strings.Builder
	b.WriteString(ae.Message)
	for _, f := range fields {
		fmt.Fprintf(&b, "\n  %s: %s", f, strings.Join(ae.FieldErrors[f], ", "))
	}
	return b.String()
}
