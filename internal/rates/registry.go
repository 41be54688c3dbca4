package rates

import (
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
)

// Factory builds an external rate model from a config map. Registered
// factories extend the built-in method set through the same interface.
type Factory func(cfg map[string]any, seed *uint64, log Logger) (Model, error)

var externalModels = map[string]Factory{}

// Register installs an externally-provided rate model under a method name.
// Built-in names cannot be shadowed.
func Register(method string, factory Factory) error {
	if _, err := GetMetadata(method); err == nil {
		return fmt.Errorf("rate method %q already exists", method)
	}
	if _, ok := externalModels[method]; ok {
		return fmt.Errorf("rate method %q already registered", method)
	}
	externalModels[method] = factory
	return nil
}

// New builds a rate model from a method name and a config map. The config map
// uses the rates_selection key names (values, stdev/standard_deviations,
// corr/correlations, frm, to, ...). seed controls reproducibility for
// stochastic models; pass nil for a randomized source.
func New(method string, cfg map[string]any, seed *uint64, log Logger) (Model, error) {
	cfg = normalizeKeys(cfg)

	var src rand.Source
	if seed != nil {
		src = rand.NewSource(*seed)
	} else {
		src = rand.NewSource(rand.Uint64())
	}

	switch {
	case method == "bootstrap_sor":
		return newBootstrap(cfg, src, log)
	case method == "tabular":
		return newTabular(cfg, log)
	default:
		if factory, ok := externalModels[method]; ok {
			return factory(cfg, seed, log)
		}
		return newBuiltin(method, cfg, src, log)
	}
}

// normalizeKeys maps config-file key names onto the model parameter names.
func normalizeKeys(cfg map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range cfg {
		switch k {
		case "standard_deviations":
			out["stdev"] = v
		case "correlations":
			out["corr"] = v
		case "from":
			out["frm"] = v
		default:
			out[k] = v
		}
	}
	return out
}

// ListMethods returns all known rate-model method names, sorted.
func ListMethods() []string {
	var out []string
	for m := range builtinMetadata {
		out = append(out, m)
	}
	out = append(out, bootstrapMetadata.Method, tabularMetadata.Method)
	sort.Strings(out)
	return out
}

// GetMetadata returns the metadata for a method.
func GetMetadata(method string) (Metadata, error) {
	if meta, ok := builtinMetadata[method]; ok {
		return meta, nil
	}
	switch method {
	case bootstrapMetadata.Method:
		return bootstrapMetadata, nil
	case tabularMetadata.Method:
		return tabularMetadata, nil
	}
	return Metadata{}, fmt.Errorf("no metadata defined for rate method %q", method)
}
