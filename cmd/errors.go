package cmd

import (
	"context"
	"errors"
)

// Argument errors. Their text is shown to the user as is.
var (
	ErrInvalidLink   = errors.New("Invalid dat link")
	ErrNoLocation    = errors.New("No download started. Make sure you specify a LOCATION:\n\n  dat LINK LOCATION")
	ErrNoLinkCreated = errors.New("No link created.")
)

// ignoreCanceled treats an interrupted run as a clean exit.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
