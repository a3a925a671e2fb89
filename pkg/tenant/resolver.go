package tenant

import (
	"net/http"
	"strings"
)

// Resolver extracts a tenant identifier from an HTTP request. It returns an
// empty string when the request carries no identifier; the identifier is not
// validated here, only extracted.
type Resolver interface {
	Resolve(r *http.Request) (string, error)
}

// ResolverFunc adapts an ordinary function to a Resolver.
type ResolverFunc func(r *http.Request) (string, error)

func (f ResolverFunc) Resolve(r *http.Request) (string, error) {
	return f(r)
}

// HeaderResolver reads the tenant identifier from an HTTP header.
type HeaderResolver struct {
	HeaderName string
}

// NewHeaderResolver creates a header resolver, defaulting to "X-Tenant-Key".
func NewHeaderResolver(headerName string) *HeaderResolver {
	if headerName == "" {
		headerName = "X-Tenant-Key"
	}
	return &HeaderResolver{HeaderName: headerName}
}

func (r *HeaderResolver) Resolve(req *http.Request) (string, error) {
	return req.Header.Get(r.HeaderName), nil
}

// SubdomainResolver reads the tenant identifier from the request subdomain,
// e.g. "acme" from "acme.app.example.com" with Suffix ".app.example.com".
type SubdomainResolver struct {
	// Suffix is the base domain to strip, including the leading dot.
	Suffix string
}

// NewSubdomainResolver creates a subdomain resolver for the given base
// domain suffix.
func NewSubdomainResolver(suffix string) *SubdomainResolver {
	return &SubdomainResolver{Suffix: suffix}
}

func (r *SubdomainResolver) Resolve(req *http.Request) (string, error) {
	host := req.Host
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	if r.Suffix == "" || !strings.HasSuffix(host, r.Suffix) {
		return "", nil
	}
	sub := strings.TrimSuffix(host, r.Suffix)
	if sub == "" || strings.Contains(sub, ".") || sub == "www" {
		return "", nil
	}
	return sub, nil
}

// CompositeResolver tries resolvers in order and returns the first
// non-empty identifier.
type CompositeResolver struct {
	Resolvers []Resolver
}

// NewCompositeResolver creates a composite over the given resolvers.
func NewCompositeResolver(resolvers ...Resolver) *CompositeResolver {
	return &CompositeResolver{Resolvers: resolvers}
}

func (c *CompositeResolver) Resolve(r *http.Request) (string, error) {
	for _, resolver := range c.Resolvers {
		id, err := resolver.Resolve(r)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}
	return "", nil
}
