// Package command abstracts external process invocation.
//
// keyward delegates three steps to outside tools: key generation (openssl),
// the management-plane readiness wait and the passphrase decryption helper.
// Each of them receives a Command rather than calling os/exec directly, so
// tests substitute a Func that returns canned output or canned failures.
package command
