package secrets

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/PolarWolf314/keyward/internal/command"
	kerrors "github.com/PolarWolf314/keyward/internal/errors"
	logger "github.com/PolarWolf314/keyward/internal/logging"
)

// DefaultKeySize is used when neither the options nor the generator name one.
const DefaultKeySize = 2048

// KeyGenOptions tunes GenerateKeyPair.
type KeyGenOptions struct {
	// PublicKeyOutFile, when set, also receives the public key PEM.
	PublicKeyOutFile string

	// Passphrase protects the written private key.
	Passphrase string

	// KeySize in bits. Zero means the generator's default.
	KeySize int
}

// KeyTool performs the two steps of key generation: write a new private key
// to a path, then derive its public key.
type KeyTool interface {
	GenRSA(ctx context.Context, outPath, passphrase string, bits int) error
	PublicKey(ctx context.Context, privPath, passphrase string) ([]byte, error)
}

// Generator creates RSA key pairs on disk.
type Generator struct {
	Tool           KeyTool
	DefaultKeySize int
}

// NewGenerator returns a Generator using tool, or NativeTool when tool is nil.
func NewGenerator(tool KeyTool) *Generator {
	if tool == nil {
		tool = NativeTool{}
	}
	return &Generator{Tool: tool, DefaultKeySize: DefaultKeySize}
}

// GenerateKeyPair writes a fresh private key to privateKeyPath and returns the
// matching public key PEM.
//
// The key pair is produced under temporary names next to its targets and
// moved into place with ReplaceFiles once every step succeeded, so a failure
// leaves neither a half-written key nor a public key without its private half,
// and existing files keep their content. Tool failures carry the tool's
// message unchanged.
func (g *Generator) GenerateKeyPair(ctx context.Context, privateKeyPath string, opts KeyGenOptions) (string, error) {
	bits := opts.KeySize
	if bits == 0 {
		bits = g.DefaultKeySize
	}
	if bits == 0 {
		bits = DefaultKeySize
	}
	if bits < 1024 {
		return "", kerrors.Newf(kerrors.ErrInvalidArgument, "key size must be at least 1024 bits, got %d", bits)
	}
	if privateKeyPath == "" {
		return "", kerrors.Newf(kerrors.ErrInvalidArgument, "private key path must be a non-empty string")
	}

	dir := filepath.Dir(privateKeyPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", kerrors.New(kerrors.ErrFileAccess, err)
	}

	tmpPriv := tempSibling(privateKeyPath)
	cleanup := func() { _ = os.Remove(tmpPriv) }

	// openssl truncates an existing -out file and keeps its mode, so the key
	// is never readable by anyone else, not even before the Chmod below.
	if err := createPrivateFile(tmpPriv); err != nil {
		return "", kerrors.New(kerrors.ErrFileAccess, err)
	}

	logger.L().Debugf("Generating %d-bit RSA key at %s", bits, tmpPriv)
	if err := g.Tool.GenRSA(ctx, tmpPriv, opts.Passphrase, bits); err != nil {
		cleanup()
		return "", kerrors.New(kerrors.ErrKeyGeneration, err)
	}
	if err := os.Chmod(tmpPriv, 0600); err != nil {
		cleanup()
		return "", kerrors.New(kerrors.ErrFileAccess, err)
	}

	pub, err := g.Tool.PublicKey(ctx, tmpPriv, opts.Passphrase)
	if err != nil {
		cleanup()
		return "", kerrors.New(kerrors.ErrKeyGeneration, err)
	}

	temps := []string{tmpPriv}
	targets := []string{privateKeyPath}
	if opts.PublicKeyOutFile != "" {
		tmpPub, err := writeTempSibling(opts.PublicKeyOutFile, pub, 0644)
		if err != nil {
			cleanup()
			return "", kerrors.New(kerrors.ErrFileAccess, err)
		}
		temps = append(temps, tmpPub)
		targets = append(targets, opts.PublicKeyOutFile)
	}

	// The private key is committed first; a failure on the public key puts
	// both paths back the way they were.
	if err := ReplaceFiles(temps, targets); err != nil {
		return "", err
	}

	logger.L().Infof("Wrote private key to %s", privateKeyPath)
	return string(pub), nil
}

func createPrivateFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	return f.Close()
}

func writeTempSibling(path string, data []byte, perm os.FileMode) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", err
	}
	tmp := tempSibling(path)
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}

// NativeTool generates keys in process with crypto/rsa.
type NativeTool struct {
	// Rand defaults to crypto/rand.Reader.
	Rand io.Reader
}

func (t NativeTool) GenRSA(ctx context.Context, outPath, passphrase string, bits int) error {
	r := t.Rand
	if r == nil {
		r = rand.Reader
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	privateKey, err := rsa.GenerateKey(r, bits)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key pair: %w", err)
	}

	data, err := EncodePrivateKey(privateKey, []byte(passphrase))
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0600)
}

func (t NativeTool) PublicKey(ctx context.Context, privPath, passphrase string) ([]byte, error) {
	data, err := os.ReadFile(privPath)
	if err != nil {
		return nil, err
	}
	privateKey, err := ParsePrivateKey(data, []byte(passphrase))
	if err != nil {
		return nil, err
	}
	return EncodePublicKey(&privateKey.PublicKey)
}

// passphraseEnv carries the passphrase to openssl without exposing it in argv.
const passphraseEnv = "KEYWARD_PASSPHRASE"

// OpenSSLTool shells out to openssl genrsa and openssl rsa.
type OpenSSLTool struct {
	Runner command.Command

	// Path to the openssl binary. Empty means "openssl" on PATH.
	Path string
}

func (t OpenSSLTool) binary() string {
	if t.Path == "" {
		return "openssl"
	}
	return t.Path
}

func (t OpenSSLTool) GenRSA(ctx context.Context, outPath, passphrase string, bits int) error {
	args := []string{t.binary(), "genrsa"}
	var env []string
	if passphrase != "" {
		args = append(args, "-aes256", "-passout", "env:"+passphraseEnv)
		env = []string{passphraseEnv + "=" + passphrase}
	}
	args = append(args, "-out", outPath, strconv.Itoa(bits))

	_, err := t.Runner.Run(ctx, args, env)
	return err
}

func (t OpenSSLTool) PublicKey(ctx context.Context, privPath, passphrase string) ([]byte, error) {
	args := []string{t.binary(), "rsa", "-in", privPath, "-pubout"}
	var env []string
	if passphrase != "" {
		args = append(args, "-passin", "env:"+passphraseEnv)
		env = []string{passphraseEnv + "=" + passphrase}
	}
	return t.Runner.Run(ctx, args, env)
}
