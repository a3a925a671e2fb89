// Package provision owns the tenant lifecycle: registration of new isolated
// namespaces, activation state transitions, and the fail-fast bulk migration
// run at process startup.
//
// Registration is a strict four-step sequence — key validation, namespace
// DDL, baseline migration, directory commit — with the commit last so a
// readable directory record always means a fully provisioned namespace. A
// failure after DDL has been issued is surfaced as ErrProvisioningFailed and
// the orphaned namespace is left for operators to reconcile; DDL cannot be
// rolled back reliably, and pretending otherwise would hide the problem.
//
// Namespace-creation DDL is templated (see Templates) and can be overridden
// from a YAML file, which is also where alternative isolation shapes (one
// database per tenant instead of one schema) are configured.
package provision
