// Package metal3 implements provisioning.HostAPI on top of the metal3.io
// BareMetalHost API using a controller-runtime client.
//
// Provisioning writes spec.image and a reference to a "<host>-userdata"
// Secret holding a #cloud-config document. Deprovisioning writes the
// deprovision image, or clears spec.image and spec.userData when none is set.
package metal3
