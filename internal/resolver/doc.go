// Package resolver turns encrypted passphrase references into usable
// passphrases.
//
// A private key may be protected by a passphrase that is itself stored
// encrypted. Unlocking it takes two round trips, in order: wait for the
// management plane to report ready, then ask the secret helper to decrypt
// the token. Resolver models that as a short linear state machine:
//
//	NotRequested -> AwaitingReadiness -> ResolvingSecret -> Resolved
//	                       |                    |
//	                       +------> Failed <----+
//
// Nothing here retries. A failing dependency ends the resolution and its
// message is returned unchanged, tagged ErrReadinessCheck or
// ErrSecretResolution.
//
// Probes: ReadyProbe, CommandProbe, HTTPProbe.
// Decrypters: CommandDecrypter, VaultDecrypter (transit engine).
package resolver
