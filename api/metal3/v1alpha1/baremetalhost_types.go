package v1alpha1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ProvisioningState is the provisioning state reported by the bare metal operator.
type ProvisioningState string

// Provisioning states the webhook client cares about. The operator reports
// more states than these; anything else is treated as not yet started.
const (
	StateNone           ProvisioningState = ""
	StateRegistering    ProvisioningState = "registering"
	StateInspecting     ProvisioningState = "inspecting"
	StateAvailable      ProvisioningState = "available"
	StateProvisioning   ProvisioningState = "provisioning"
	StateProvisioned    ProvisioningState = "provisioned"
	StateDeprovisioning ProvisioningState = "deprovisioning"
	StatePoweringOff    ProvisioningState = "powering off before delete"
	StateDeleting       ProvisioningState = "deleting"
)

// OperationalStatus is the operational status of the host.
type OperationalStatus string

const (
	OperationalStatusOK         OperationalStatus = "OK"
	OperationalStatusDiscovered OperationalStatus = "discovered"
	OperationalStatusError      OperationalStatus = "error"
	OperationalStatusDetached   OperationalStatus = "detached"
)

// Image holds the details of the image to be provisioned.
type Image struct {
	// URL is the location of the image to be provisioned
	URL string `json:"url"`

	// Checksum is the checksum for the image
	// +optional
	Checksum string `json:"checksum,omitempty"`

	// ChecksumType is the checksum algorithm (md5, sha256, sha512)
	// +optional
	ChecksumType string `json:"checksumType,omitempty"`
}

// BareMetalHostSpec defines the desired state of a BareMetalHost.
type BareMetalHostSpec struct {
	// Online controls whether the host should be powered on
	Online bool `json:"online"`

	// BootMACAddress is the MAC address of the NIC used for provisioning
	// +optional
	BootMACAddress string `json:"bootMACAddress,omitempty"`

	// Image holds the image to be provisioned; nil means deprovisioned
	// +optional
	Image *Image `json:"image,omitempty"`

	// UserData references the Secret holding cloud-init user data
	// +optional
	UserData *corev1.SecretReference `json:"userData,omitempty"`
}

// ProvisionStatus holds the state information for a single provisioning target.
type ProvisionStatus struct {
	// State is the provisioning state
	State ProvisioningState `json:"state"`

	// ID is the provisioner's identifier for the host
	// +optional
	ID string `json:"ID,omitempty"`

	// Image is the image most recently provisioned
	// +optional
	Image Image `json:"image,omitempty"`
}

// BareMetalHostStatus defines the observed state of a BareMetalHost.
type BareMetalHostStatus struct {
	// OperationalStatus holds the status of the host
	// +optional
	OperationalStatus OperationalStatus `json:"operationalStatus,omitempty"`

	// ErrorType indicates the type of failure encountered
	// +optional
	ErrorType string `json:"errorType,omitempty"`

	// ErrorMessage holds the last error
	// +optional
	ErrorMessage string `json:"errorMessage,omitempty"`

	// ErrorCount records how many times the host has encountered an error
	// +optional
	ErrorCount int `json:"errorCount,omitempty"`

	// Provisioning holds the provisioning status
	// +optional
	Provisioning ProvisionStatus `json:"provisioning,omitempty"`

	// PoweredOn reports whether the host is powered on
	// +optional
	PoweredOn bool `json:"poweredOn,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=bmh

// BareMetalHost is the Schema for the baremetalhosts API.
type BareMetalHost struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   BareMetalHostSpec   `json:"spec,omitempty"`
	Status BareMetalHostStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// BareMetalHostList contains a list of BareMetalHost.
type BareMetalHostList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []BareMetalHost `json:"items"`
}
