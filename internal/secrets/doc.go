// Package secrets holds keyward's key handling and encryption.
//
// # Keys
//
// Generator writes RSA key pairs through a KeyTool. NativeTool uses
// crypto/rsa; OpenSSLTool shells out to openssl genrsa and openssl rsa and
// hands the passphrase over in the child's environment. A private key is
// generated into a temporary sibling file and renamed into place, so a
// failed run leaves nothing behind and never replaces an existing key.
//
// Key arguments are either PEM text, an ssh-rsa authorized key, or a path:
//   - Private keys: PKCS#1, PKCS#8, encrypted PKCS#8, legacy encrypted PEM, OpenSSH
//   - Public keys: PKIX, PKCS#1, authorized_keys line
//
// # Encryption
//
// Cipher.Encrypt and Cipher.Decrypt apply RSA-OAEP directly, so the payload
// must fit in the modulus. For anything larger use SymmetricEncrypt, which
// seals the payload under a fresh AES-256 key and wraps that key with
// RSA-OAEP. The result is an Envelope of three base64 fields:
//
//	{"encryptedKey": "...", "iv": "...", "encryptedData": "...", "mode": "aes-256-gcm"}
//
// AES-256-GCM is the default. AES-256-CBC is available for envelopes
// exchanged with older tooling and is not authenticated.
//
// When a private key passphrase is itself encrypted, Decrypt asks the
// configured PassphraseResolver for it before touching the key. Resolver
// errors reach the caller unchanged.
package secrets
