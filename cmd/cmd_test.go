package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolarWolf314/keyward/internal/audit"
	"github.com/PolarWolf314/keyward/internal/command"
	"github.com/PolarWolf314/keyward/internal/configs"
	kerrors "github.com/PolarWolf314/keyward/internal/errors"
	"github.com/PolarWolf314/keyward/internal/workflows"
)

type testProject struct {
	dir        string
	configPath string
	auditPath  string
	privPath   string
	pubPath    string
}

// setupTestProject writes a small-key configuration into a temp dir and
// points the user directories there.
func setupTestProject(t *testing.T, extraConfig string) *testProject {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("KEYWARD_CONFIG", "")
	t.Setenv("NO_COLOR", "1")

	p := &testProject{
		dir:        dir,
		configPath: filepath.Join(dir, "keyward.toml"),
		auditPath:  filepath.Join(dir, "audit.log"),
		privPath:   filepath.Join(dir, "keys", "id_rsa"),
		pubPath:    filepath.Join(dir, "keys", "id_rsa.pub"),
	}

	config := "[keys]\nsize = 1024\n\n[audit]\npath = " + quote(p.auditPath) + "\n" + extraConfig
	if err := os.WriteFile(p.configPath, []byte(config), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Cleanup(ResetGlobalState)
	return p
}

func quote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

// run executes the root command with args. hook, when non-nil, adjusts the
// loaded environment before the command uses it.
func (p *testProject) run(t *testing.T, hook func(*workflows.Env), args ...string) (string, error) {
	t.Helper()
	ResetGlobalState()
	if hook != nil {
		loadEnv = func(path string) (*workflows.Env, error) {
			env, err := workflows.LoadEnv(path)
			if err != nil {
				return nil, err
			}
			hook(env)
			return env, nil
		}
	}

	var out bytes.Buffer
	root := GetRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", p.configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (p *testProject) keygen(t *testing.T, extra ...string) {
	t.Helper()
	args := append([]string{"keygen", "--out", p.privPath, "--public-out", p.pubPath}, extra...)
	if _, err := p.run(t, nil, args...); err != nil {
		t.Fatalf("keygen failed: %v", err)
	}
}

func TestKeygen(t *testing.T) {
	p := setupTestProject(t, "")

	out, err := p.run(t, nil, "keygen", "--out", p.privPath, "--public-out", p.pubPath)
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}

	if !strings.Contains(out, "✓ Key pair generated") {
		t.Errorf("Expected success message, got: %s", out)
	}
	if !strings.Contains(out, "-----BEGIN PUBLIC KEY-----") {
		t.Errorf("Expected public key in output, got: %s", out)
	}

	info, err := os.Stat(p.privPath)
	if err != nil {
		t.Fatalf("Private key not created: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected private key mode 0600, got %o", info.Mode().Perm())
	}
	if _, err := os.Stat(p.pubPath); err != nil {
		t.Errorf("Public key not created: %v", err)
	}
}

func TestKeygen_DefaultPath(t *testing.T) {
	p := setupTestProject(t, "")

	out, err := p.run(t, nil, "keygen")
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}

	want := filepath.Join(p.dir, "data", "keyward", "keys", "id_rsa")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("Expected key at %s: %v", want, err)
	}
	if !strings.Contains(out, want) {
		t.Errorf("Expected output to name %s, got: %s", want, out)
	}
}

func TestEncryptDecrypt(t *testing.T) {
	p := setupTestProject(t, "")
	p.keygen(t)

	for _, hybrid := range []bool{false, true} {
		args := []string{"encrypt", "--key", p.pubPath, "s3cr3t value"}
		if hybrid {
			args = append(args, "--hybrid")
		}

		ciphertext, err := p.run(t, nil, args...)
		if err != nil {
			t.Fatalf("encrypt (hybrid=%t) failed: %v", hybrid, err)
		}
		if hybrid != strings.HasPrefix(ciphertext, "{") {
			t.Errorf("Unexpected ciphertext shape for hybrid=%t: %s", hybrid, ciphertext)
		}

		plaintext, err := p.run(t, nil, "decrypt", "--key", p.privPath, strings.TrimSpace(ciphertext))
		if err != nil {
			t.Fatalf("decrypt (hybrid=%t) failed: %v", hybrid, err)
		}
		if plaintext != "s3cr3t value\n" {
			t.Errorf("Expected decrypted value, got %q", plaintext)
		}
	}

	entries, err := audit.ReadEntries(p.auditPath)
	if err != nil {
		t.Fatalf("Failed to read audit log: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("Expected 5 audit entries, got %d", len(entries))
	}
	if entries[0].Operation != "keygen" || entries[4].Operation != "decrypt" {
		t.Errorf("Unexpected audit operations: %+v", entries)
	}
}

func TestDecrypt_EncryptedPassphrase(t *testing.T) {
	p := setupTestProject(t, "[secrets]\ncommand = [\"decrypt-conf-value\"]\n")
	p.keygen(t, "--passphrase", "resolved-pass")

	ciphertext, err := p.run(t, nil, "encrypt", "--key", p.pubPath, "payload")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	var helperArgs []string
	helper := func(env *workflows.Env) {
		env.Runner = command.Func(func(_ context.Context, args []string, _ []string) ([]byte, error) {
			helperArgs = args
			return []byte("resolved-pass\n"), nil
		})
	}

	plaintext, err := p.run(t, helper, "decrypt", "--key", p.privPath,
		"--passphrase", "opaque-token", "--passphrase-encrypted", strings.TrimSpace(ciphertext))
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if plaintext != "payload\n" {
		t.Errorf("Expected payload, got %q", plaintext)
	}
	if strings.Join(helperArgs, " ") != "decrypt-conf-value opaque-token" {
		t.Errorf("Unexpected helper invocation: %v", helperArgs)
	}
}

func TestDecrypt_HelperFailure(t *testing.T) {
	p := setupTestProject(t, "[secrets]\ncommand = [\"decrypt-conf-value\"]\n")
	failing := func(env *workflows.Env) {
		env.Runner = command.Func(func(context.Context, []string, []string) ([]byte, error) {
			return nil, errors.New("decrypt conf value error")
		})
	}

	_, err := p.run(t, failing, "decrypt", "--key", filepath.Join(p.dir, "missing"),
		"--passphrase", "token", "--passphrase-encrypted", "AAAA")
	if err == nil || err.Error() != "decrypt conf value error" {
		t.Errorf("Expected helper error verbatim, got %v", err)
	}
}

func TestSealUnsealFiles(t *testing.T) {
	p := setupTestProject(t, "")
	p.keygen(t)

	secretsDir := filepath.Join(p.dir, "project", "config")
	if err := os.MkdirAll(secretsDir, 0755); err != nil {
		t.Fatal(err)
	}
	envFile := filepath.Join(secretsDir, ".env")
	if err := os.WriteFile(envFile, []byte("DB_PASSWORD=hunter2\n"), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := p.run(t, nil, "seal", "--key", p.pubPath, "--dry-run", filepath.Join(p.dir, "project"))
	if err != nil {
		t.Fatalf("seal --dry-run failed: %v", err)
	}
	if !strings.Contains(out, "[dry-run]") {
		t.Errorf("Expected dry-run marker, got: %s", out)
	}
	if _, err := os.Stat(envFile + ".sealed"); !os.IsNotExist(err) {
		t.Fatalf("Dry run wrote a sealed file")
	}

	out, err = p.run(t, nil, "seal", "--key", p.pubPath, filepath.Join(p.dir, "project"))
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	if !strings.Contains(out, "✓ 1 files sealed") || !strings.Contains(out, envFile+".sealed") {
		t.Errorf("Unexpected seal output: %s", out)
	}

	if err := os.Remove(envFile); err != nil {
		t.Fatal(err)
	}

	out, err = p.run(t, nil, "unseal", "--key", p.privPath, filepath.Join(p.dir, "project", "**", "*.sealed"))
	if err != nil {
		t.Fatalf("unseal failed: %v", err)
	}
	if !strings.Contains(out, "✓ 1 files restored") {
		t.Errorf("Unexpected unseal output: %s", out)
	}

	data, err := os.ReadFile(envFile)
	if err != nil {
		t.Fatalf("Restored file missing: %v", err)
	}
	if string(data) != "DB_PASSWORD=hunter2\n" {
		t.Errorf("Restored content mismatch: %q", data)
	}
}

func TestSealUnsealValues(t *testing.T) {
	p := setupTestProject(t, "")
	p.keygen(t)

	out, err := p.run(t, nil, "seal", "--key", p.pubPath, "--value", "API_TOKEN=abc=123", "--value", "DB_PASSWORD=hunter2")
	if err != nil {
		t.Fatalf("seal --value failed: %v", err)
	}

	var envelopes map[string]json.RawMessage
	if err := json.Unmarshal([]byte(out), &envelopes); err != nil {
		t.Fatalf("Output is not a JSON object: %v\n%s", err, out)
	}
	if len(envelopes) != 2 {
		t.Errorf("Expected 2 envelopes, got %d", len(envelopes))
	}

	sealedPath := filepath.Join(p.dir, "values.json")
	if err := os.WriteFile(sealedPath, []byte(out), 0600); err != nil {
		t.Fatal(err)
	}

	out, err = p.run(t, nil, "unseal", "--key", p.privPath, "--values", sealedPath)
	if err != nil {
		t.Fatalf("unseal --values failed: %v", err)
	}
	if out != "API_TOKEN=abc=123\nDB_PASSWORD=hunter2\n" {
		t.Errorf("Unexpected unsealed values: %q", out)
	}
}

func TestSeal_InvalidArguments(t *testing.T) {
	p := setupTestProject(t, "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"MissingKey", []string{"seal", "file"}, `required flag(s) "key" not set`},
		{"PathsAndValues", []string{"seal", "--key", "k", "--value", "A=1", "file"}, "cannot be combined"},
		{"BadAssignment", []string{"seal", "--key", "k", "--value", "novalue"}, "expected NAME=VALUE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.run(t, nil, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRandom(t *testing.T) {
	p := setupTestProject(t, "")

	out, err := p.run(t, nil, "random", "bytes", "16")
	if err != nil {
		t.Fatalf("random bytes failed: %v", err)
	}
	if len(strings.TrimSpace(out)) != 32 {
		t.Errorf("Expected 32 hex characters, got %q", out)
	}

	out, err = p.run(t, nil, "random", "bytes", "3", "--encoding", "base64")
	if err != nil {
		t.Fatalf("random bytes --encoding failed: %v", err)
	}
	if len(strings.TrimSpace(out)) != 4 {
		t.Errorf("Expected 4 base64 characters, got %q", out)
	}

	out, err = p.run(t, nil, "random", "int", "7", "7")
	if err != nil {
		t.Fatalf("random int failed: %v", err)
	}
	if out != "7\n" {
		t.Errorf("Expected 7, got %q", out)
	}

	if _, err := p.run(t, nil, "random", "int", "9", "1"); err == nil {
		t.Error("Expected error for inverted range")
	}
	if _, err := p.run(t, nil, "random", "int", "-1", "1"); err == nil {
		t.Error("Expected error for negative bound")
	}
}

func TestInvalidConfig(t *testing.T) {
	p := setupTestProject(t, "")
	if err := os.WriteFile(p.configPath, []byte("[keys]\nsize = 512\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := p.run(t, nil, "random", "bytes", "4"); err == nil {
		t.Error("Expected configuration error")
	}
}

func TestVersion(t *testing.T) {
	p := setupTestProject(t, "")

	out, err := p.run(t, nil, "version", "--short")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "keyward dev (") {
		t.Errorf("Unexpected version output: %q", out)
	}

	out, err = p.run(t, nil, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if strings.Count(out, "\n") < 3 {
		t.Errorf("Expected a banner before the version line, got %q", out)
	}
}

func TestConfigInit(t *testing.T) {
	p := setupTestProject(t, "")
	path := filepath.Join(p.dir, "fresh", "config.toml")

	out, err := p.run(t, nil, "config", "init", "--config", path)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, "✓ Wrote default configuration to "+path) {
		t.Errorf("Unexpected output: %s", out)
	}

	config, err := configs.Load(path)
	if err != nil {
		t.Fatalf("Written configuration does not load: %v", err)
	}
	if config.Keys.Size != configs.Default().Keys.Size {
		t.Errorf("Expected default key size, got %d", config.Keys.Size)
	}

	if _, err := p.run(t, nil, "config", "init", "--config", path); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected existing file to be kept, got %v", err)
	}
	if _, err := p.run(t, nil, "config", "init", "--config", path, "--force"); err != nil {
		t.Errorf("config init --force failed: %v", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Success", nil, 0},
		{"InvalidArgument", kerrors.Newf(kerrors.ErrInvalidArgument, "plaintext must be a string"), 2},
		{"Readiness", kerrors.New(kerrors.ErrReadinessCheck, errors.New("waitForMcp error")), 3},
		{"Helper", kerrors.New(kerrors.ErrSecretResolution, errors.New("decrypt conf value error")), 3},
		{"Crypto", kerrors.Newf(kerrors.ErrCryptoOperation, "decryption failed"), 1},
		{"Untagged", errors.New("required flag(s) \"key\" not set"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
