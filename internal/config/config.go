package config

import (
	"errors"
	"os"
	"runtime"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/naoina/toml"

	"github.com/screa/create2-salt-miner/internal/crypto"
	"github.com/screa/create2-salt-miner/pkg/match"
)

// Errors
var (
	ErrNoTargetSpecified   = errors.New("must specify --pattern/--mask, --target, --prefix, or --suffix")
	ErrNoInitCodeSpecified = errors.New("must specify --init-code-hash, --bytecode, or --bytecode-file")
	ErrPatternWithoutMask  = errors.New("--pattern and --mask must be given together")
)

// Config holds the application configuration
type Config struct {
	Workers      int
	Sender       string
	InitCodeHash string
	Bytecode     string
	BytecodeFile string
	Pattern      string
	Mask         string
	Target       string
	Prefix       string
	Suffix       string
	Verbose      bool
	LogFile      string
	LogInterval  int // Logging interval in seconds
	MetricsAddr  string
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Workers:     runtime.NumCPU(),
		LogInterval: 5, // Default 5 seconds
	}
}

// LoadFile overlays values from a TOML config file onto the configuration.
// Fields whose flag was set explicitly (per flagSet, keyed by flag name) are
// kept as-is, so flags take precedence over the file. A nil flagSet applies
// the whole file.
func (c *Config) LoadFile(path string, flagSet func(name string) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	file := NewConfig()
	if err := toml.NewDecoder(f).Decode(file); err != nil {
		return err
	}
	if flagSet == nil {
		flagSet = func(string) bool { return false }
	}

	overlays := []struct {
		flag  string
		apply func()
	}{
		{"workers", func() { c.Workers = file.Workers }},
		{"sender", func() { c.Sender = file.Sender }},
		{"init-code-hash", func() { c.InitCodeHash = file.InitCodeHash }},
		{"bytecode", func() { c.Bytecode = file.Bytecode }},
		{"bytecode-file", func() { c.BytecodeFile = file.BytecodeFile }},
		{"pattern", func() { c.Pattern = file.Pattern }},
		{"mask", func() { c.Mask = file.Mask }},
		{"target", func() { c.Target = file.Target }},
		{"prefix", func() { c.Prefix = file.Prefix }},
		{"suffix", func() { c.Suffix = file.Suffix }},
		{"verbose", func() { c.Verbose = file.Verbose }},
		{"log-file", func() { c.LogFile = file.LogFile }},
		{"log-interval", func() { c.LogInterval = file.LogInterval }},
		{"metrics-addr", func() { c.MetricsAddr = file.MetricsAddr }},
	}
	for _, o := range overlays {
		if !flagSet(o.flag) {
			o.apply()
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if (c.Pattern == "") != (c.Mask == "") {
		return ErrPatternWithoutMask
	}
	if c.Pattern == "" && c.Target == "" && c.Prefix == "" && c.Suffix == "" {
		return ErrNoTargetSpecified
	}
	if c.InitCodeHash == "" && c.Bytecode == "" && c.BytecodeFile == "" {
		return ErrNoInitCodeSpecified
	}
	return nil
}

// GetSender parses the deployer address. An empty flag means the zero
// address.
func (c *Config) GetSender() (common.Address, error) {
	if c.Sender == "" {
		return common.Address{}, nil
	}
	return crypto.HexToAddress(c.Sender)
}

// GetInitCodeHash resolves the init-code hash, either given directly or
// computed as keccak256 of the provided bytecode.
func (c *Config) GetInitCodeHash() (common.Hash, error) {
	if c.InitCodeHash != "" {
		return crypto.HexToHash(c.InitCodeHash)
	}
	code, err := c.GetBytecode()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.InitCodeHash(code), nil
}

// GetPatternMask resolves the target into a pattern/mask pair. Explicit
// --pattern/--mask win over --target, which wins over --prefix/--suffix
// (prefix and suffix may be combined).
func (c *Config) GetPatternMask() (pattern, mask common.Address, err error) {
	if c.Pattern != "" {
		pattern, err = crypto.HexToAddress(c.Pattern)
		if err != nil {
			return pattern, mask, err
		}
		mask, err = crypto.HexToAddress(c.Mask)
		return pattern, mask, err
	}
	if c.Target != "" {
		return match.Target(c.Target)
	}
	if c.Prefix != "" {
		pattern, mask, err = match.Prefix(c.Prefix)
		if err != nil {
			return pattern, mask, err
		}
	}
	if c.Suffix != "" {
		sp, sm, serr := match.Suffix(c.Suffix)
		if serr != nil {
			return pattern, mask, serr
		}
		for i := range pattern {
			pattern[i] |= sp[i]
			mask[i] |= sm[i]
		}
	}
	return pattern, mask, nil
}

// GetTargetDescription returns a human-readable description of the target
func (c *Config) GetTargetDescription() string {
	if c.Pattern != "" {
		return "pattern " + c.Pattern + " under mask " + c.Mask
	}
	if c.Target != "" {
		return "target: " + c.Target
	}
	var parts []string
	if c.Prefix != "" {
		parts = append(parts, "prefix: "+c.Prefix)
	}
	if c.Suffix != "" {
		parts = append(parts, "suffix: "+c.Suffix)
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	return "unknown"
}

// GetBytecode returns the init code to hash for address derivation.
func (c *Config) GetBytecode() ([]byte, error) {
	if c.BytecodeFile != "" {
		return readBytecodeFromFile(c.BytecodeFile)
	}
	if c.Bytecode != "" {
		return crypto.HexToBytes(c.Bytecode)
	}
	// This should not happen if validation passes
	return nil, ErrNoInitCodeSpecified
}

// readBytecodeFromFile reads hex init code from a file, tolerating an odd
// nibble count by padding with a trailing zero.
func readBytecodeFromFile(filename string) ([]byte, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(string(content))
	if len(code)%2 != 0 {
		code = code + "0"
	}
	return crypto.HexToBytes(code)
}
