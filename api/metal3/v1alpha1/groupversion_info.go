// Package v1alpha1 contains the subset of the metal3.io v1alpha1 API that the
// webhook client reads and patches.
// +kubebuilder:object:generate=true
// +groupName=metal3.io
package v1alpha1

import (
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/scheme"
)

var (
	// GroupVersion is group version used to register these objects
	GroupVersion = schema.GroupVersion{Group: "metal3.io", Version: "v1alpha1"}

	// SchemeBuilder is used to add go types to the GroupVersionKind scheme
	SchemeBuilder = &scheme.Builder{GroupVersion: GroupVersion}

	// AddToScheme adds the types in this group-version to the given scheme
	AddToScheme = SchemeBuilder.AddToScheme

	// Scheme contains core Kubernetes types (for Secrets) and BareMetalHost.
	Scheme = runtime.NewScheme()
)

func init() {
	SchemeBuilder.Register(&BareMetalHost{}, &BareMetalHostList{})

	_ = clientgoscheme.AddToScheme(Scheme)
	_ = AddToScheme(Scheme)
}
