package server

import (
	"errors"
	"fmt"
)

var (
	errMissingCard         = errors.New("set_commander requires a card")
	errMissingPlane        = errors.New("planeswalk requires a plane")
	errUnknownConfirmation = errors.New("unknown or already resolved confirmation")
)

func errUnknownCommand(kind string) error {
	return fmt.Errorf("unknown command %q", kind)
}
