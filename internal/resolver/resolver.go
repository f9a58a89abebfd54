package resolver

import (
	"context"
	"errors"

	kerrors "github.com/PolarWolf314/keyward/internal/errors"
	logger "github.com/PolarWolf314/keyward/internal/logging"
)

// State is a step in resolving one passphrase.
type State int

const (
	NotRequested State = iota
	AwaitingReadiness
	ResolvingSecret
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case NotRequested:
		return "not-requested"
	case AwaitingReadiness:
		return "awaiting-readiness"
	case ResolvingSecret:
		return "resolving-secret"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// PassphraseReference is a passphrase as the caller holds it. When Encrypted
// is set, Value is an opaque token only the secret helper can turn into the
// real passphrase.
type PassphraseReference struct {
	Value     string
	Encrypted bool
}

// ReadinessProbe blocks until the management plane can serve secrets.
type ReadinessProbe interface {
	Wait(ctx context.Context) error
}

// SecretDecrypter turns an encrypted passphrase token into cleartext.
type SecretDecrypter interface {
	Decrypt(ctx context.Context, token string) (string, error)
}

// Resolver walks NotRequested → AwaitingReadiness → ResolvingSecret →
// Resolved, dropping to Failed on the first error. Each dependency is asked
// exactly once per Resolve call.
type Resolver struct {
	Probe     ReadinessProbe
	Decrypter SecretDecrypter

	// OnTransition, when set, observes every state change.
	OnTransition func(from, to State)
}

// New returns a Resolver. A nil probe means the management plane is always ready.
func New(probe ReadinessProbe, decrypter SecretDecrypter) *Resolver {
	return &Resolver{Probe: probe, Decrypter: decrypter}
}

type machine struct {
	r          *Resolver
	state      State
	passphrase string
	err        error
}

func (m *machine) moveTo(to State) {
	from := m.state
	m.state = to
	logger.L().Debugf("passphrase resolution: %s -> %s", from, to)
	if m.r.OnTransition != nil {
		m.r.OnTransition(from, to)
	}
}

func (m *machine) fail(kind, err error) {
	m.err = kerrors.New(kind, err)
	m.moveTo(Failed)
}

// Resolve returns the usable passphrase for ref. Unencrypted references are
// returned as is without touching any dependency. Failures carry the
// dependency's message unchanged.
func (r *Resolver) Resolve(ctx context.Context, ref PassphraseReference) (string, error) {
	if !ref.Encrypted {
		return ref.Value, nil
	}

	m := &machine{r: r, state: NotRequested}
	m.moveTo(AwaitingReadiness)

	for {
		switch m.state {
		case AwaitingReadiness:
			probe := r.Probe
			if probe == nil {
				probe = ReadyProbe{}
			}
			if err := probe.Wait(ctx); err != nil {
				m.fail(kerrors.ErrReadinessCheck, err)
				continue
			}
			m.moveTo(ResolvingSecret)

		case ResolvingSecret:
			if r.Decrypter == nil {
				m.fail(kerrors.ErrSecretResolution, errors.New("no secret decryption helper configured"))
				continue
			}
			passphrase, err := r.Decrypter.Decrypt(ctx, ref.Value)
			if err != nil {
				m.fail(kerrors.ErrSecretResolution, err)
				continue
			}
			m.passphrase = passphrase
			m.moveTo(Resolved)

		case Resolved:
			return m.passphrase, nil

		default:
			return "", m.err
		}
	}
}
