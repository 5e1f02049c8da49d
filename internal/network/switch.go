package network

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/platform/ssh"
)

// Switch applies VLAN transactions.
type Switch interface {
	ApplyVLANTransaction(ctx context.Context, tx Transaction) error
}

// SSHSwitch applies transactions through the switch CLI. Each transaction
// uses its own session.
type SSHSwitch struct {
	client          *ssh.Client
	interfacePrefix string
}

// NewSSHSwitch creates an SSHSwitch.
func NewSSHSwitch(client *ssh.Client, interfacePrefix string) *SSHSwitch {
	if interfacePrefix == "" {
		interfacePrefix = defaultInterfaceName
	}
	return &SSHSwitch{client: client, interfacePrefix: interfacePrefix}
}

// ApplyVLANTransaction implements Switch.
func (s *SSHSwitch) ApplyVLANTransaction(ctx context.Context, tx Transaction) error {
	logger := log.FromContext(ctx).WithValues("switch", s.client.Address(), "vlan", tx.VLANID)

	session, err := s.client.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.V(1).Info("failed to close switch session", "error", err.Error())
		}
	}()

	commands := append([]string{"configure terminal"}, tx.Commands(s.interfacePrefix)...)
	transcript, err := session.RunAll(ctx, commands)
	logger.V(1).Info("switch transcript", "output", transcript)
	if err != nil {
		return fmt.Errorf("failed to apply vlan %d: %w", tx.VLANID, err)
	}
	return nil
}
