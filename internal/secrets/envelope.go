package secrets

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	kerrors "github.com/PolarWolf314/keyward/internal/errors"
)

// Envelope is the output of hybrid encryption. Every field is base64 text so
// the envelope can be embedded in JSON as is.
type Envelope struct {
	// EncryptedKey is the AES key wrapped with RSA-OAEP; it decodes to exactly
	// the modulus size of the RSA key.
	EncryptedKey string `json:"encryptedKey"`

	// IV decodes to one AES block (16 bytes). It is not secret.
	IV string `json:"iv"`

	EncryptedData string `json:"encryptedData"`

	// Mode records the symmetric construction. Empty means the reader's default.
	Mode Mode `json:"mode,omitempty"`
}

// UnmarshalJSON rejects envelopes whose fields are missing or are not JSON strings.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return kerrors.New(kerrors.ErrInvalidArgument, err)
	}

	required := []struct {
		name string
		dst  *string
	}{
		{"encryptedKey", &e.EncryptedKey},
		{"iv", &e.IV},
		{"encryptedData", &e.EncryptedData},
	}
	for _, f := range required {
		raw, ok := fields[f.name]
		if !ok {
			return kerrors.Newf(kerrors.ErrInvalidArgument, "envelope is missing %s", f.name)
		}
		if err := decodeJSONString(f.name, raw, f.dst); err != nil {
			return err
		}
	}

	if raw, ok := fields["mode"]; ok {
		var mode string
		if err := decodeJSONString("mode", raw, &mode); err != nil {
			return err
		}
		e.Mode = Mode(mode)
	}
	return nil
}

func decodeJSONString(name string, raw json.RawMessage, dst *string) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return kerrors.Newf(kerrors.ErrInvalidArgument, "%s must be a string", name)
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return kerrors.Newf(kerrors.ErrInvalidArgument, "%s must be a string", name)
	}
	return nil
}

// decode returns the raw bytes of each part and checks the IV length.
func (e *Envelope) decode() (wrappedKey, iv, data []byte, err error) {
	parts := []struct {
		name  string
		value string
		dst   *[]byte
	}{
		{"encryptedKey", e.EncryptedKey, &wrappedKey},
		{"iv", e.IV, &iv},
		{"encryptedData", e.EncryptedData, &data},
	}
	for _, p := range parts {
		if err := requireText(p.name, p.value); err != nil {
			return nil, nil, nil, err
		}
		decoded, err := base64.StdEncoding.DecodeString(p.value)
		if err != nil {
			return nil, nil, nil, kerrors.Newf(kerrors.ErrInvalidArgument, "%s must be a string of base64 text", p.name)
		}
		*p.dst = decoded
	}

	if len(iv) != ivSize {
		return nil, nil, nil, kerrors.Newf(kerrors.ErrInvalidArgument,
			"iv must decode to %d bytes, got %d", ivSize, len(iv))
	}
	return wrappedKey, iv, data, nil
}
