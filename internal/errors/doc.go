// Package errors provides typed error values for keyward.
//
// Every failure keyward surfaces is tagged with one kind sentinel so callers
// can branch with errors.Is() instead of string matching. The tag never
// changes the message: automation that drives keyward compares the exact
// text printed by the external tools (for example "genrsa error"), so
// Error() returns the underlying message verbatim.
//
// # Error Categories
//
//   - Argument errors: ErrInvalidArgument
//   - Randomness errors: ErrRandomGeneration
//   - Key errors: ErrKeyGeneration, ErrFileAccess, ErrPassphraseRequired
//   - Resolution errors: ErrReadinessCheck, ErrSecretResolution
//   - Crypto errors: ErrCryptoOperation
//
// # Usage
//
// Tag errors where they leave a component:
//
//	out, err := tool.Run(ctx, args, env)
//	if err != nil {
//	    return kerrors.New(kerrors.ErrKeyGeneration, err)
//	}
//
// Handle errors in the CLI layer:
//
//	if errors.Is(err, kerrors.ErrReadinessCheck) {
//	    // management plane is not up yet
//	}
package errors
