// Package async runs functions on their own goroutines and collects their
// results through typed futures.
//
//	total := async.Go(ctx, store.Count)
//	sessions := async.Go(ctx, store.CountSessions)
//	n, err := total.Await(ctx)
package async
