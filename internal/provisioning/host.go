package provisioning

import (
	"context"
	"errors"
	"fmt"
)

// HostAPI is the subset of BareMetalHost operations the Controller needs.
// Implemented by internal/platform/metal3.Client.
type HostAPI interface {
	// PatchImage sets the desired image of the named host. An empty
	// target URL clears the image and the user data.
	PatchImage(ctx context.Context, name string, target ImageTarget) error

	// HostStatus reads the provisioning status of the named host.
	HostStatus(ctx context.Context, name string) (HostStatus, error)
}

// ImageTarget is the desired image state written to a host.
type ImageTarget struct {
	URL          string
	Checksum     string
	ChecksumType string
	// UserData requests a cloud-config user data secret for the host.
	// When false the host user data reference is cleared.
	UserData bool
	// SSHPublicKey is added to the user data. Ignored without UserData.
	SSHPublicKey string
}

// Clears reports whether the target removes the image from the host.
func (t ImageTarget) Clears() bool {
	return t.URL == ""
}

// HostPhase is the coarse provisioning phase the poll loop works with.
type HostPhase int

const (
	PhasePending HostPhase = iota
	PhaseInProgress
	PhaseReady
	PhaseError
)

func (p HostPhase) String() string {
	switch p {
	case PhasePending:
		return "Pending"
	case PhaseInProgress:
		return "InProgress"
	case PhaseReady:
		return "Ready"
	case PhaseError:
		return "Error"
	default:
		return fmt.Sprintf("HostPhase(%d)", int(p))
	}
}

// Terminal reports whether no further transition is possible.
func (p HostPhase) Terminal() bool {
	return p == PhaseReady || p == PhaseError
}

// HostStatus is one observation of a host.
type HostStatus struct {
	Phase HostPhase
	// State is the raw provisioning state reported by the host.
	State string
	// Detail is a human readable description, usually the host error message.
	Detail string
}

func (s HostStatus) String() string {
	switch {
	case s.State != "" && s.Detail != "":
		return fmt.Sprintf("%s (%s): %s", s.Phase, s.State, s.Detail)
	case s.State != "":
		return fmt.Sprintf("%s (%s)", s.Phase, s.State)
	case s.Detail != "":
		return fmt.Sprintf("%s: %s", s.Phase, s.Detail)
	default:
		return s.Phase.String()
	}
}

// ErrResourceNotFound is returned by HostAPI when the host does not exist.
// It is never retried.
var ErrResourceNotFound = errors.New("resource not found")

// TransientError marks a HostAPI failure worth retrying, such as a timeout
// or a 5xx from the API server.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err wraps a *TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
