// Package async provides a small futures primitive for fan-out work.
//
// Async starts a function in its own goroutine and returns a Future that
// can be awaited. SettleAll waits for every future and collects each
// outcome, success or failure, without letting one error cancel or hide
// its siblings. This is the building block for per-recipient dispatch
// where a batch must always produce a full tally:
//
//	futures := make([]*async.Future[string], 0, len(recipients))
//	for _, r := range recipients {
//		futures = append(futures, async.Async(ctx, r, deliver))
//	}
//	for _, res := range async.SettleAll(futures...) {
//		if res.Err != nil {
//			failed++
//		} else {
//			succeeded++
//		}
//	}
package async
