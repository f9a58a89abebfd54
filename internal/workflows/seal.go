package workflows

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/PolarWolf314/keyward/internal/async"
	"github.com/PolarWolf314/keyward/internal/audit"
	kerrors "github.com/PolarWolf314/keyward/internal/errors"
	logger "github.com/PolarWolf314/keyward/internal/logging"
	"github.com/PolarWolf314/keyward/internal/resolver"
	"github.com/PolarWolf314/keyward/internal/secrets"
)

// maxParallelFiles bounds how many files are sealed or unsealed at once.
const maxParallelFiles = 8

// SealOptions configures the seal workflow.
type SealOptions struct {
	PublicKey string

	// FilePatterns are paths, directories or globs (** supported).
	FilePatterns []string

	// BaseDir anchors relative patterns. Empty means the working directory.
	BaseDir string

	// DryRun previews which files would be sealed without writing anything.
	DryRun bool
}

// SealResult contains the outcome of a seal or unseal operation.
type SealResult struct {
	// SourceFiles lists the files that were read.
	SourceFiles []string

	// OutputFiles lists the files that were written, in the same order.
	OutputFiles []string

	DryRun bool
}

// SealFiles writes an envelope next to every matching file as <name>.sealed.
// Every file is sealed before any output is written; an error leaves no
// sealed files behind.
func SealFiles(ctx context.Context, env *Env, opts SealOptions) (*SealResult, error) {
	files, err := resolveFiles(opts.FilePatterns, opts.BaseDir, true)
	if err != nil {
		return nil, err
	}

	result := &SealResult{SourceFiles: files, DryRun: opts.DryRun}
	for _, f := range files {
		result.OutputFiles = append(result.OutputFiles, secrets.SealedPath(f))
	}
	if opts.DryRun {
		return result, nil
	}

	cipher, err := env.Cipher()
	if err != nil {
		return nil, err
	}

	entry := audit.Begin("seal")
	entry.Key = audit.KeyRef(opts.PublicKey)
	entry.Files = result.OutputFiles
	entry.Mode = string(cipher.Mode)

	outputs := make([][]byte, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFiles)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			plaintext, err := os.ReadFile(path)
			if err != nil {
				return kerrors.New(kerrors.ErrFileAccess, err)
			}
			envelope, err := cipher.SymmetricEncrypt(gctx, opts.PublicKey, string(plaintext))
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(envelope, "", "  ")
			if err != nil {
				return err
			}
			outputs[i] = append(data, '\n')
			logger.L().Debugf("Sealed %s", path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		env.Audit.Record(entry, err)
		return nil, err
	}

	err = writeOutputs(result.OutputFiles, outputs)
	env.Audit.Record(entry, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UnsealOptions configures the unseal workflow.
type UnsealOptions struct {
	PrivateKey string

	// FilePatterns are paths, directories or globs matching *.sealed files.
	FilePatterns []string

	BaseDir string

	Passphrase          string
	PassphraseEncrypted bool

	DryRun bool
}

// UnsealFiles restores every matching *.sealed file next to it without the
// suffix. An encrypted passphrase is resolved once for the whole batch.
func UnsealFiles(ctx context.Context, env *Env, opts UnsealOptions) (*SealResult, error) {
	files, err := resolveFiles(opts.FilePatterns, opts.BaseDir, false)
	if err != nil {
		return nil, err
	}

	result := &SealResult{SourceFiles: files, DryRun: opts.DryRun}
	for _, f := range files {
		result.OutputFiles = append(result.OutputFiles, secrets.UnsealedPath(f))
	}
	if opts.DryRun {
		return result, nil
	}

	cipher, err := env.Cipher()
	if err != nil {
		return nil, err
	}

	entry := audit.Begin("unseal")
	entry.Key = audit.KeyRef(opts.PrivateKey)
	entry.Files = files

	unlock, err := resolveOnce(ctx, cipher, opts.Passphrase, opts.PassphraseEncrypted)
	if err != nil {
		env.Audit.Record(entry, err)
		return nil, err
	}

	outputs := make([][]byte, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFiles)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return kerrors.New(kerrors.ErrFileAccess, err)
			}
			var envelope secrets.Envelope
			if err := json.Unmarshal(data, &envelope); err != nil {
				return kerrors.New(kerrors.ErrInvalidArgument, err)
			}
			plaintext, err := cipher.OpenEnvelope(gctx, opts.PrivateKey, &envelope, unlock)
			if err != nil {
				return err
			}
			outputs[i] = []byte(plaintext)
			logger.L().Debugf("Unsealed %s", path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		env.Audit.Record(entry, err)
		return nil, err
	}

	err = writeOutputs(result.OutputFiles, outputs)
	env.Audit.Record(entry, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// NamedValue is a configuration value to seal.
type NamedValue struct {
	Name  string
	Value string
}

// SealedValue pairs a name with its envelope.
type SealedValue struct {
	Name     string
	Envelope *secrets.Envelope
}

// SealValues seals every value concurrently, one future each, and returns
// the envelopes in input order. Any failure fails the whole batch.
func SealValues(ctx context.Context, env *Env, publicKey string, values []NamedValue) ([]SealedValue, error) {
	cipher, err := env.Cipher()
	if err != nil {
		return nil, err
	}

	entry := audit.Begin("seal")
	entry.Key = audit.KeyRef(publicKey)
	entry.Mode = string(cipher.Mode)

	seen := make(map[string]bool, len(values))
	futures := make([]*async.Future[SealedValue], 0, len(values))
	for _, v := range values {
		v := v
		if v.Name == "" || seen[v.Name] {
			err := kerrors.Newf(kerrors.ErrInvalidArgument, "value names must be unique and non-empty, got %q", v.Name)
			env.Audit.Record(entry, err)
			return nil, err
		}
		seen[v.Name] = true
		entry.Names = append(entry.Names, v.Name)

		futures = append(futures, async.Go(ctx, func(ctx context.Context) (SealedValue, error) {
			envelope, err := cipher.SymmetricEncrypt(ctx, publicKey, v.Value)
			return SealedValue{Name: v.Name, Envelope: envelope}, err
		}))
	}

	sealed, err := async.WaitAll(ctx, futures)
	env.Audit.Record(entry, err)
	if err != nil {
		return nil, err
	}
	return sealed, nil
}

// UnsealValues opens envelopes produced by SealValues, concurrently, in
// input order. An encrypted passphrase is resolved once.
func UnsealValues(ctx context.Context, env *Env, privateKey string, sealed []SealedValue, passphrase string, passphraseEncrypted bool) ([]NamedValue, error) {
	cipher, err := env.Cipher()
	if err != nil {
		return nil, err
	}

	entry := audit.Begin("unseal")
	entry.Key = audit.KeyRef(privateKey)
	for _, s := range sealed {
		entry.Names = append(entry.Names, s.Name)
	}

	unlock, err := resolveOnce(ctx, cipher, passphrase, passphraseEncrypted)
	if err != nil {
		env.Audit.Record(entry, err)
		return nil, err
	}

	futures := make([]*async.Future[NamedValue], 0, len(sealed))
	for _, s := range sealed {
		s := s
		futures = append(futures, async.Go(ctx, func(ctx context.Context) (NamedValue, error) {
			plaintext, err := cipher.OpenEnvelope(ctx, privateKey, s.Envelope, unlock)
			return NamedValue{Name: s.Name, Value: plaintext}, err
		}))
	}

	values, err := async.WaitAll(ctx, futures)
	env.Audit.Record(entry, err)
	if err != nil {
		return nil, err
	}
	return values, nil
}

// resolveOnce turns an encrypted passphrase into cleartext up front so a
// batch asks the secret helper a single time.
func resolveOnce(ctx context.Context, cipher *secrets.Cipher, passphrase string, encrypted bool) (secrets.DecryptOptions, error) {
	if !encrypted {
		return secrets.DecryptOptions{Passphrase: passphrase}, nil
	}
	if cipher.Resolver == nil {
		return secrets.DecryptOptions{}, kerrors.Newf(kerrors.ErrSecretResolution, "passphrase is encrypted but no secret resolver is configured")
	}
	resolved, err := cipher.Resolver.Resolve(ctx, resolver.PassphraseReference{Value: passphrase, Encrypted: true})
	if err != nil {
		return secrets.DecryptOptions{}, err
	}
	return secrets.DecryptOptions{Passphrase: resolved}, nil
}

func resolveFiles(patterns []string, baseDir string, forSealing bool) ([]string, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, kerrors.New(kerrors.ErrFileAccess, err)
		}
		baseDir = wd
	}
	return secrets.ResolveFiles(patterns, baseDir, forSealing)
}

// writeOutputs writes every file through a temporary sibling and hands the
// set to secrets.ReplaceFiles, so either every output is replaced or none is.
func writeOutputs(paths []string, contents [][]byte) error {
	temps := make([]string, 0, len(paths))

	for i, path := range paths {
		tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
		if err := os.WriteFile(tmp, contents[i], 0600); err != nil {
			_ = os.Remove(tmp)
			for _, t := range temps {
				_ = os.Remove(t)
			}
			return kerrors.New(kerrors.ErrFileAccess, err)
		}
		temps = append(temps, tmp)
	}

	return secrets.ReplaceFiles(temps, paths)
}
