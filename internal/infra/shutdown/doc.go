// Package shutdown ties process signals to context cancellation and runs
// cleanup hooks when a command finishes.
//
// Usage:
//
//	ctx, stop := shutdown.WithSignals(context.Background())
//	defer stop()
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(store.Close)
//	defer h.Run()
package shutdown
