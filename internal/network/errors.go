package network

import (
	"errors"
	"fmt"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/platform/ssh"
)

// Stage is the step of a switch transaction that failed.
type Stage string

const (
	StageConnect Stage = "connect"
	StageAuth    Stage = "auth"
	StageCommand Stage = "command"
)

// NetworkConfigError reports a failed switch transaction.
type NetworkConfigError struct {
	Stage  Stage
	VLANID int
	Err    error
}

func (e *NetworkConfigError) Error() string {
	return fmt.Sprintf("network configuration failed at %s stage for vlan %d: %v", e.Stage, e.VLANID, e.Err)
}

func (e *NetworkConfigError) Unwrap() error {
	return e.Err
}

// stageOf classifies a switch error.
func stageOf(err error) Stage {
	var (
		authErr *ssh.AuthError
		connErr *ssh.ConnectError
	)
	switch {
	case errors.As(err, &authErr):
		return StageAuth
	case errors.As(err, &connErr):
		return StageConnect
	default:
		return StageCommand
	}
}
