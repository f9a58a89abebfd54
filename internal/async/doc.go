// Package async wraps blocking calls in futures so callers can start several
// and collect the results later.
//
//	f := async.Go(ctx, func(ctx context.Context) (string, error) {
//		return cipher.Encrypt(ctx, pub, value)
//	})
//	ciphertext, err := f.Wait(ctx)
package async
