// Package workflows provides high-level orchestration for keyward commands.
//
// Workflows wire the configuration to the components (key generator, cipher,
// passphrase resolver, audit log) and implement one user-facing operation
// each, independent of CLI concerns like flag parsing, spinners, and output
// formatting.
//
//   - GenerateKeys: writes an RSA key pair with the configured tool
//   - Encrypt / Decrypt: a single value, direct RSA or a JSON envelope
//   - SealFiles / UnsealFiles: files to and from <name>.sealed envelopes
//   - SealValues / UnsealValues: several named values concurrently
//   - RandomBytes / RandomInt: secure random output
//
// Operations that use a key append an audit entry, successful or not. Dry
// runs and random draws are not audited.
//
// # Error Handling
//
// Errors come back tagged with a kind from internal/errors and carry the
// underlying message unchanged:
//
//	_, err := workflows.Decrypt(ctx, env, opts)
//	if errors.Is(err, kerrors.ErrReadinessCheck) {
//	    // the management plane never became ready
//	}
package workflows
