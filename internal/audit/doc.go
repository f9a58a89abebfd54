// Package audit records keyward operations in a JSON Lines file.
//
// Each line is one Entry:
//
//	{"id":"7f0c...","ts":"2026-01-02T15:04:05.000000Z","user":"deploy","op":"unseal","key":"/etc/keyward/id_rsa","files":["db.conf"]}
//
// Key arguments given as PEM text are recorded as "inline"; key material
// never reaches the log. Failed operations carry an error field.
//
// Logging is best-effort: a write failure is reported as a warning and the
// operation carries on. A Logger with no path records nothing.
package audit
