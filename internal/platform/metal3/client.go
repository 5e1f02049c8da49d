package metal3

import (
	"context"
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"
	ctrlconfig "sigs.k8s.io/controller-runtime/pkg/client/config"
	"sigs.k8s.io/controller-runtime/pkg/log"

	metal3v1alpha1 "github.com/giovannimirarchi420/polito-reservation-webhook-client/api/metal3/v1alpha1"
	"github.com/giovannimirarchi420/polito-reservation-webhook-client/internal/provisioning"
)

// Client reads and patches BareMetalHosts in one namespace.
type Client struct {
	c         client.Client
	namespace string
	userData  UserDataOptions
}

// Option configures a Client.
type Option func(*Client)

// WithUserDataOptions sets the cloud-config users written on provision.
func WithUserDataOptions(opts UserDataOptions) Option {
	return func(c *Client) {
		c.userData = opts
	}
}

// NewClient creates a Client from a kubeconfig path. An empty path uses the
// in-cluster configuration, falling back to the default kubeconfig lookup.
func NewClient(kubeconfigPath, namespace string, opts ...Option) (*Client, error) {
	var (
		cfg *rest.Config
		err error
	)
	if kubeconfigPath != "" {
		cfg, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	} else {
		cfg, err = ctrlconfig.GetConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig: %w", err)
	}

	c, err := client.New(cfg, client.Options{Scheme: metal3v1alpha1.Scheme})
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return NewClientWithClient(c, namespace, opts...), nil
}

// NewClientWithClient wraps an existing controller-runtime client.
func NewClientWithClient(c client.Client, namespace string, opts ...Option) *Client {
	mc := &Client{
		c:         c,
		namespace: namespace,
		userData:  DefaultUserDataOptions(),
	}
	for _, opt := range opts {
		opt(mc)
	}
	return mc
}

var _ provisioning.HostAPI = (*Client)(nil)

type imagePatch struct {
	URL          string `json:"url"`
	Checksum     string `json:"checksum,omitempty"`
	ChecksumType string `json:"checksumType,omitempty"`
}

// hostSpecPatch is a JSON merge patch body. Nil pointers serialize to null,
// which removes the field on the server.
type hostSpecPatch struct {
	Spec struct {
		Image    *imagePatch             `json:"image"`
		UserData *corev1.SecretReference `json:"userData"`
	} `json:"spec"`
}

// PatchImage implements provisioning.HostAPI.
func (c *Client) PatchImage(ctx context.Context, name string, target provisioning.ImageTarget) error {
	logger := log.FromContext(ctx).WithValues("namespace", c.namespace, "host", name)

	var body hostSpecPatch
	if !target.Clears() {
		body.Spec.Image = &imagePatch{
			URL:          target.URL,
			Checksum:     target.Checksum,
			ChecksumType: target.ChecksumType,
		}
	}

	if target.UserData && !target.Clears() {
		secretName, err := c.ensureUserDataSecret(ctx, name, target.SSHPublicKey)
		if err != nil {
			return err
		}
		body.Spec.UserData = &corev1.SecretReference{Name: secretName, Namespace: c.namespace}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode patch for %s: %w", name, err)
	}

	host := &metal3v1alpha1.BareMetalHost{}
	host.Name = name
	host.Namespace = c.namespace
	if err := c.c.Patch(ctx, host, client.RawPatch(types.MergePatchType, raw)); err != nil {
		return classify("patch baremetalhost", name, err)
	}

	logger.Info("patched baremetalhost", "image", target.URL, "userData", body.Spec.UserData != nil)
	return nil
}

// HostStatus implements provisioning.HostAPI.
func (c *Client) HostStatus(ctx context.Context, name string) (provisioning.HostStatus, error) {
	host := &metal3v1alpha1.BareMetalHost{}
	if err := c.c.Get(ctx, client.ObjectKey{Namespace: c.namespace, Name: name}, host); err != nil {
		return provisioning.HostStatus{}, classify("get baremetalhost", name, err)
	}
	return statusOf(host), nil
}

// statusOf maps a host onto the coarse provisioning phases.
func statusOf(host *metal3v1alpha1.BareMetalHost) provisioning.HostStatus {
	st := host.Status
	out := provisioning.HostStatus{State: string(st.Provisioning.State)}

	if st.OperationalStatus == metal3v1alpha1.OperationalStatusError {
		out.Phase = provisioning.PhaseError
		out.Detail = st.ErrorMessage
		if st.ErrorType != "" {
			out.Detail = fmt.Sprintf("%s: %s", st.ErrorType, st.ErrorMessage)
		}
		return out
	}

	switch st.Provisioning.State {
	case metal3v1alpha1.StateProvisioned:
		// A host still reporting the image of a previous reservation has
		// not picked up the new spec yet.
		if host.Spec.Image != nil && st.Provisioning.Image.URL != "" && st.Provisioning.Image.URL != host.Spec.Image.URL {
			out.Phase = provisioning.PhaseInProgress
			out.Detail = "waiting for reprovisioning from " + st.Provisioning.Image.URL
			return out
		}
		out.Phase = provisioning.PhaseReady
	case metal3v1alpha1.StateProvisioning:
		out.Phase = provisioning.PhaseInProgress
	default:
		out.Phase = provisioning.PhasePending
	}
	return out
}
