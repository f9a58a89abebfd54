// Package utils holds the terminal and stdin helpers used by the keyward
// commands: hidden passphrase prompts and "-" arguments that read piped input.
package utils
