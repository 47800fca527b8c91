package manifests

import (
	"bytes"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/scheme"
	sigsyaml "sigs.k8s.io/yaml"
)

// API versions of the custom resources in the set.
const (
	helmChartAPIVersion    = "helm.cattle.io/v1"
	recurringJobAPIVersion = "longhorn.io/v1beta2"
)

// toMap converts a typed object into its serializable form, filling in
// apiVersion and kind from the scheme and dropping server-populated fields.
func toMap(obj runtime.Object) (map[string]any, error) {
	gvks, _, err := scheme.Scheme.ObjectKinds(obj)
	if err != nil {
		return nil, fmt.Errorf("lookup kind of %T: %w", obj, err)
	}
	obj = obj.DeepCopyObject()
	obj.GetObjectKind().SetGroupVersionKind(gvks[0])

	out, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("convert %T: %w", obj, err)
	}
	unstructured.RemoveNestedField(out, "metadata", "creationTimestamp")
	unstructured.RemoveNestedField(out, "status")
	return out, nil
}

// helmChart builds a helm-controller HelmChart installing chart from repo
// into targetNamespace.
func helmChart(name, repo, chart, version, targetNamespace string, values map[string]any) (*unstructured.Unstructured, error) {
	u := &unstructured.Unstructured{}
	u.SetAPIVersion(helmChartAPIVersion)
	u.SetKind("HelmChart")
	u.SetName(name)
	u.SetNamespace("kube-system")

	spec := map[string]any{
		"repo":            repo,
		"chart":           chart,
		"version":         version,
		"targetNamespace": targetNamespace,
		"createNamespace": true,
	}
	if len(values) > 0 {
		content, err := sigsyaml.Marshal(values)
		if err != nil {
			return nil, fmt.Errorf("marshal values of chart %s: %w", name, err)
		}
		spec["valuesContent"] = string(content)
	}
	u.Object["spec"] = spec
	return u, nil
}

// render serializes objects into one YAML stream. Each object is either a
// runtime.Object with a scheme-registered type or an *unstructured.Unstructured.
func render(objs ...runtime.Object) ([]byte, error) {
	var buf bytes.Buffer
	for i, obj := range objs {
		var doc map[string]any
		if u, ok := obj.(*unstructured.Unstructured); ok {
			doc = u.Object
		} else {
			m, err := toMap(obj)
			if err != nil {
				return nil, err
			}
			doc = m
		}
		out, err := sigsyaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", obj.GetObjectKind().GroupVersionKind().Kind, err)
		}
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(out)
	}
	return buf.Bytes(), nil
}
