package metal3

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/yaml"
)

const (
	userDataKey    = "userData"
	managedByLabel = "app.kubernetes.io/managed-by"
	managedByValue = "polito-reservation-webhook-client"
)

// UserDataOptions controls the users written into the cloud-config.
type UserDataOptions struct {
	// AdminUser is a local administrator with password login.
	AdminUser string
	// AdminPasswordHash is the crypt(3) hash for AdminUser. Empty locks the password.
	AdminPasswordHash string
	// ReservationUser receives the reservation owner's SSH key.
	ReservationUser string
}

// DefaultUserDataOptions returns the users provisioned hosts get by default.
func DefaultUserDataOptions() UserDataOptions {
	return UserDataOptions{
		AdminUser:       "restart.admin",
		ReservationUser: "prognose",
	}
}

type cloudConfig struct {
	SSHPwauth bool              `json:"ssh_pwauth"`
	Groups    []string          `json:"groups"`
	Users     []cloudConfigUser `json:"users"`
}

type cloudConfigUser struct {
	Name              string   `json:"name"`
	Groups            string   `json:"groups"`
	LockPasswd        bool     `json:"lock_passwd"`
	Passwd            string   `json:"passwd,omitempty"`
	Sudo              string   `json:"sudo"`
	SSHAuthorizedKeys []string `json:"ssh_authorized_keys,omitempty"`
}

// UserDataSecretName returns the name of the user data Secret of a host.
func UserDataSecretName(host string) string {
	return host + "-userdata"
}

// renderCloudConfig returns the #cloud-config document for a host.
func renderCloudConfig(opts UserDataOptions, sshKey string) ([]byte, error) {
	cc := cloudConfig{
		SSHPwauth: opts.AdminPasswordHash != "",
		Groups:    []string{"admingroup", "cloud-users"},
		Users: []cloudConfigUser{
			{
				Name:       opts.AdminUser,
				Groups:     "admingroup",
				LockPasswd: opts.AdminPasswordHash == "",
				Passwd:     opts.AdminPasswordHash,
				Sudo:       "ALL=(ALL) NOPASSWD:ALL",
			},
			{
				Name:       opts.ReservationUser,
				Groups:     "cloud-users",
				LockPasswd: true,
				Sudo:       "ALL=(ALL) NOPASSWD:ALL",
			},
		},
	}
	if sshKey != "" {
		cc.Users[1].SSHAuthorizedKeys = []string{sshKey}
	}

	out, err := yaml.Marshal(cc)
	if err != nil {
		return nil, fmt.Errorf("failed to render cloud-config: %w", err)
	}
	return append([]byte("#cloud-config\n"), out...), nil
}

// ensureUserDataSecret creates or updates the user data Secret of a host and
// returns its name.
func (c *Client) ensureUserDataSecret(ctx context.Context, host, sshKey string) (string, error) {
	data, err := renderCloudConfig(c.userData, sshKey)
	if err != nil {
		return "", err
	}

	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      UserDataSecretName(host),
			Namespace: c.namespace,
		},
	}
	result, err := controllerutil.CreateOrUpdate(ctx, c.c, secret, func() error {
		if secret.Labels == nil {
			secret.Labels = map[string]string{}
		}
		secret.Labels[managedByLabel] = managedByValue
		secret.Type = corev1.SecretTypeOpaque
		secret.Data = map[string][]byte{userDataKey: data}
		return nil
	})
	if err != nil {
		return "", classify("write user data secret for", host, err)
	}

	log.FromContext(ctx).V(1).Info("user data secret reconciled", "secret", secret.Name, "result", string(result))
	return secret.Name, nil
}
