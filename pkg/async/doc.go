// Package async provides a small Future abstraction for dispatching
// background work from request handlers.
//
// Its main role in this module is carrying tenant context across the
// worker hand-off: combined with tenant.Detach, the dispatcher's tenant key
// is copied onto the task's own context at dispatch time and disappears with
// it on completion, which is the copy-on-handoff / guaranteed-clear contract
// background tasks need in a multi-tenant process.
//
//	fut := async.Go(tenant.Detach(ctx), func(ctx context.Context) (int, error) {
//		key, _ := tenant.KeyFromContext(ctx) // dispatcher's tenant
//		return doWork(ctx, key)
//	})
//	n, err := fut.Await()
package async
