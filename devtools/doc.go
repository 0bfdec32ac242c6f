// Package devtools provides an HTTP inspector for a fluxus store.
//
// An [Inspector] contributes a middleware that records every action reaching
// the reducer, together with the resulting state and the time the reduction
// took. [Inspector.Start] serves that history, the current state and a small
// web page over HTTP, and accepts actions dispatched from the browser.
//
// # Usage
//
//	inspector, err := devtools.New[Counter](devtools.WithPort(9000))
//	if err != nil {
//	    return err
//	}
//
//	store, err := fluxus.New(reducer, Counter{},
//	    fluxus.WithMiddleware(
//	        fluxus.ThunkMiddleware[Counter](),
//	        inspector.Middleware(),
//	    ),
//	)
//	if err != nil {
//	    return err
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := inspector.Start(ctx); err != nil {
//	    return err
//	}
//	<-ctx.Done()
//
// Place the inspector middleware last so it sees actions after thunks and
// other middleware have handled them.
//
// # Endpoints
//
//   - GET /: inspector page
//   - GET /api/state: current state as JSON
//   - GET /api/history: recorded entries
//   - GET /api/history/{seq}: one recorded entry
//   - POST /api/dispatch: dispatch {"type": ..., "payload": ...}
//   - GET /api/sse: Server-Sent Events stream of new entries
//
// Payloads posted to /api/dispatch arrive as decoded JSON (maps, slices,
// float64, string, bool). Use [WithDecoder] and [ConvertPayload] to turn them
// into the types a typed reducer expects.
package devtools
