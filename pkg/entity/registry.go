package entity

import "fmt"

// Registry maps kind names to their descriptors. It is built explicitly at
// startup and passed by reference to whatever needs it; there is no ambient
// global kind table.
type Registry struct {
	kinds map[string]*Kind
	order []string
}

// RegistryOption configures the builtin kinds a registry is seeded with.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	geocoder  Geocoder
	staticMap StaticMapFunc
}

// WithGeocoder supplies the geocoder Location's label derivation consults.
// Without one, Location labels derive purely from the set properties.
func WithGeocoder(g Geocoder) RegistryOption {
	return func(o *registryOptions) { o.geocoder = g }
}

// WithStaticMap supplies the static-map URL builder Location uses to keep
// its image property in step with its coordinates.
func WithStaticMap(f StaticMapFunc) RegistryOption {
	return func(o *registryOptions) { o.staticMap = f }
}

// NewRegistry builds a registry seeded with every builtin kind.
func NewRegistry(opts ...RegistryOption) *Registry {
	var o registryOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{kinds: make(map[string]*Kind)}
	builtins := []*Kind{
		personKind(),
		companyKind(),
		emailKind(),
		eventKind(),
		evidenceKind(),
		imageKind(),
		locationKind(o.geocoder, o.staticMap),
		phoneKind(),
		textKind(),
		usernameKind(),
		vehicleKind(),
		websiteKind(),
	}
	for _, k := range builtins {
		// Builtin names never collide.
		_ = r.Register(k)
	}
	return r
}

// Register adds a kind to the registry. Registering the same descriptor
// twice is a no-op; a different descriptor under an existing name is
// rejected.
func (r *Registry) Register(k *Kind) error {
	if k == nil {
		return ErrNilKind
	}
	if existing, ok := r.kinds[k.Name]; ok {
		if existing == k {
			return nil
		}
		return fmt.Errorf("entity kind %q already registered", k.Name)
	}
	k.finalize()
	r.kinds[k.Name] = k
	r.order = append(r.order, k.Name)
	return nil
}

// Kind looks up a kind by name.
func (r *Registry) Kind(name string) (*Kind, bool) {
	k, ok := r.kinds[name]
	return k, ok
}

// Kinds returns every registered kind in registration order.
func (r *Registry) Kinds() []*Kind {
	out := make([]*Kind, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.kinds[name])
	}
	return out
}

// Names returns the registered kind names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
