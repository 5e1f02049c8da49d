package metal3

import (
	"errors"
	"fmt"
	"net"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	utilnet "k8s.io/apimachinery/pkg/util/net"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/provisioning"
)

// classify maps Kubernetes API errors onto the provisioning error kinds.
func classify(op, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case apierrors.IsNotFound(err):
		return fmt.Errorf("%s %s: %w: %w", op, name, provisioning.ErrResourceNotFound, err)
	case isTransient(err):
		return &provisioning.TransientError{Op: op + " " + name, Err: err}
	default:
		return fmt.Errorf("failed to %s %s: %w", op, name, err)
	}
}

// isTransient reports errors that are expected to go away on retry.
func isTransient(err error) bool {
	if apierrors.IsServerTimeout(err) ||
		apierrors.IsTimeout(err) ||
		apierrors.IsTooManyRequests(err) ||
		apierrors.IsServiceUnavailable(err) ||
		apierrors.IsInternalError(err) ||
		apierrors.IsConflict(err) ||
		apierrors.IsUnexpectedServerError(err) {
		return true
	}

	var status apierrors.APIStatus
	if errors.As(err, &status) && status.Status().Code >= 500 {
		return true
	}

	if utilnet.IsConnectionRefused(err) || utilnet.IsConnectionReset(err) || utilnet.IsProbableEOF(err) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
