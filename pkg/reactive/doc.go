// Package reactive is the fine-grained reactive runtime that resources are
// built on.
//
// Dependencies are tracked at runtime: reading a Signal inside an Effect (or
// any code running under a Listener) subscribes that listener to the
// signal's changes.
//
//	query := reactive.NewSignal("")
//	reactive.CreateEffect(func() reactive.Cleanup {
//	    fmt.Println("query is", query.Get())
//	    return nil
//	})
//	query.Set("logs/") // effect re-runs
//
// # Ownership
//
// Effects created while an Owner is current belong to it. Dirty effects are
// queued on their owner and run by Owner.RunPendingEffects, which the caller
// invokes after a batch of writes (the server does this after every inbound
// message). Effects created with no current owner re-run synchronously.
// Disposing an Owner disposes its children, effects and cleanups.
//
// # Goroutines
//
// The tracking context is per goroutine. Code that spawns goroutines and
// needs them to create effects under a specific owner uses WithOwner.
package reactive
