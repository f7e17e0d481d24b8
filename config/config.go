// Package config assembles the diskon command's settings from CLI flags,
// DISKON_* environment variables, an optional .env file and an optional
// TOML file.
package config

import (
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/Reiex/Diskon-sub000/flate"
	"github.com/Reiex/Diskon-sub000/stream"
)

const (
	EnvVarPrefix = "DISKON"

	DefaultBufferSize = stream.DefaultBufferSize
	DefaultKeepSize   = stream.DefaultKeepSize
	DefaultBlockSize  = 1 << 16
	DefaultBlockType  = "dynamic"

	MinBufferSize = 1
	MaxBufferSize = 64 << 20
	MinKeepSize   = stream.MinKeepSize
	MaxKeepSize   = 1 << 20
	MinBlockSize  = 1
	MaxBlockSize  = 64 << 20
)

// Command names.
const (
	CommandDeflate = "deflate"
	CommandInflate = "inflate"
	CommandGzip    = "gzip"
	CommandGunzip  = "gunzip"
)

// VERSION gets set during build
var VERSION = "0.0.0"

type Config struct {
	CLI  *CLI
	TOML *TOML
}

type TOML struct {
	Stream  *TOMLStream  `toml:"stream"`
	Deflate *TOMLDeflate `toml:"deflate"`
}

type TOMLStream struct {
	BufferSize int `toml:"buffer_size"`
	KeepSize   int `toml:"keep_size"`
}

type TOMLDeflate struct {
	BlockType string `toml:"block_type"`
	BlockSize int    `toml:"block_size"`
}

// IOArgs names the input and output of a command. Empty names select stdin
// and stdout.
type IOArgs struct {
	Input  string `kong:"arg,optional,help='Input file (default stdin)',type='path'"`
	Output string `kong:"help='Output file (default stdout)',type='path',short='o'"`
}

type CLI struct {
	ConfigFile string `kong:"help='Path to an optional TOML config file',type='path',short='c'"`
	BufferSize int    `kong:"help='Stream buffer size in bytes',short='b'"`
	KeepSize   int    `kong:"help='Bytes of history kept across buffer refills',short='k'"`
	BlockType  string `kong:"help='DEFLATE block type: stored, fixed or dynamic',short='t'"`
	BlockSize  int    `kong:"help='Input bytes per DEFLATE block',short='s'"`

	Debug   bool             `kong:"help='Enable debug output',short='d'"`
	Quiet   bool             `kong:"help='Do not display settings',short='q'"`
	Version kong.VersionFlag `help:"Show version and exit" short:"v" env:"-"`

	Deflate IOArgs `kong:"cmd,help='Compress to a raw DEFLATE stream'"`
	Inflate IOArgs `kong:"cmd,help='Decompress a raw DEFLATE stream'"`
	Gzip    IOArgs `kong:"cmd,help='Compress to a gzip member'"`
	Gunzip  IOArgs `kong:"cmd,help='Decompress a gzip member'"`

	// Internal bits
	Ctx *kong.Context `kong:"-"`
}

// NewConfig parses os.Args and loads the config file it names.
func NewConfig() (*Config, error) {
	// Attempt to load .env
	_ = godotenv.Load(".env")

	return Parse(os.Args[1:])
}

// Parse builds a Config from args, without reading .env.
func Parse(args []string) (*Config, error) {
	cli, err := readCLIArgs(args)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing CLI args")
	}

	tomlConfig := &TOML{}
	if cli.ConfigFile != "" {
		tomlConfig, err = readTOML(cli.ConfigFile)
		if err != nil {
			return nil, errors.Wrap(err, "error reading config file")
		}
	}

	c := &Config{
		CLI:  cli,
		TOML: tomlConfig,
	}

	if err := c.applyCLIOverrides(); err != nil {
		return nil, errors.Wrap(err, "error applying CLI overrides")
	}

	if err := Validate(c); err != nil {
		return nil, err
	}

	return c, nil
}

// Command returns the name of the selected command.
func (c *Config) Command() string {
	if c.CLI.Ctx == nil {
		return ""
	}
	fields := strings.Fields(c.CLI.Ctx.Command())
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// IO returns the input and output of the selected command.
func (c *Config) IO() IOArgs {
	switch c.Command() {
	case CommandDeflate:
		return c.CLI.Deflate
	case CommandInflate:
		return c.CLI.Inflate
	case CommandGzip:
		return c.CLI.Gzip
	case CommandGunzip:
		return c.CLI.Gunzip
	}
	return IOArgs{}
}

// StreamOptions returns the buffering of input and output streams.
func (c *Config) StreamOptions() *stream.Options {
	return &stream.Options{
		BufferSize: c.TOML.Stream.BufferSize,
		KeepSize:   c.TOML.Stream.KeepSize,
	}
}

// WriterOptions returns the settings of the compressing commands, including
// the buffering of their output stream.
func (c *Config) WriterOptions() (*flate.WriterOptions, error) {
	t, err := flate.ParseBlockType(c.TOML.Deflate.BlockType)
	if err != nil {
		return nil, err
	}
	return &flate.WriterOptions{
		BlockType: t,
		BlockSize: c.TOML.Deflate.BlockSize,
		Stream:    c.StreamOptions(),
	}, nil
}

// applyCLIOverrides lets flags and environment variables take precedence
// over the config file.
func (c *Config) applyCLIOverrides() error {
	if err := setTOMLDefaults(c.TOML); err != nil {
		return err
	}

	if c.CLI.BufferSize != 0 {
		c.TOML.Stream.BufferSize = c.CLI.BufferSize
	}

	if c.CLI.KeepSize != 0 {
		c.TOML.Stream.KeepSize = c.CLI.KeepSize
	}

	if c.CLI.BlockType != "" {
		c.TOML.Deflate.BlockType = c.CLI.BlockType
	}

	if c.CLI.BlockSize != 0 {
		c.TOML.Deflate.BlockSize = c.CLI.BlockSize
	}

	return nil
}

func setTOMLDefaults(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}

	if t.Stream == nil {
		t.Stream = &TOMLStream{}
	}

	if t.Deflate == nil {
		t.Deflate = &TOMLDeflate{}
	}

	if t.Stream.BufferSize == 0 {
		t.Stream.BufferSize = DefaultBufferSize
	}

	if t.Stream.KeepSize == 0 {
		t.Stream.KeepSize = DefaultKeepSize
	}

	if t.Deflate.BlockType == "" {
		t.Deflate.BlockType = DefaultBlockType
	}

	if t.Deflate.BlockSize == 0 {
		t.Deflate.BlockSize = DefaultBlockSize
	}

	return nil
}

func Validate(c *Config) error {
	if err := validateCLIArgs(c.CLI); err != nil {
		return errors.Wrap(err, "error validating CLI args")
	}

	if err := validateTOML(c.TOML); err != nil {
		return errors.Wrap(err, "error validating toml config")
	}

	return nil
}

func validateTOML(t *TOML) error {
	if t == nil {
		return errors.New("toml config cannot be nil")
	}

	if err := validateTOMLStream(t.Stream); err != nil {
		return errors.Wrap(err, "stream error(s)")
	}

	if err := validateTOMLDeflate(t.Deflate); err != nil {
		return errors.Wrap(err, "deflate error(s)")
	}

	return nil
}

func validateTOMLStream(s *TOMLStream) error {
	if s == nil {
		return errors.New("stream cannot be empty")
	}

	if s.BufferSize < MinBufferSize || s.BufferSize > MaxBufferSize {
		return errors.Errorf("stream.buffer_size must be between %d and %d", MinBufferSize, MaxBufferSize)
	}

	if s.KeepSize < MinKeepSize || s.KeepSize > MaxKeepSize {
		return errors.Errorf("stream.keep_size must be between %d and %d", MinKeepSize, MaxKeepSize)
	}

	return nil
}

func validateTOMLDeflate(d *TOMLDeflate) error {
	if d == nil {
		return errors.New("deflate cannot be empty")
	}

	if _, err := flate.ParseBlockType(d.BlockType); err != nil {
		return errors.Wrap(err, "deflate.block_type is invalid")
	}

	if d.BlockSize < MinBlockSize || d.BlockSize > MaxBlockSize {
		return errors.Errorf("deflate.block_size must be between %d and %d", MinBlockSize, MaxBlockSize)
	}

	return nil
}

func readCLIArgs(args []string) (*CLI, error) {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("diskon"),
		kong.Description("DEFLATE and gzip compressor built on bit streams"),
		kong.UsageOnError(),
		kong.DefaultEnvars(EnvVarPrefix),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"version": VERSION,
		})
	if err != nil {
		return nil, errors.Wrap(err, "error building CLI parser")
	}

	cli.Ctx, err = parser.Parse(args)
	if err != nil {
		return nil, err
	}

	if err := validateCLIArgs(cli); err != nil {
		return nil, errors.Wrap(err, "error validating args")
	}

	return cli, nil
}

func readTOML(file string) (*TOML, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "error reading file")
	}

	tomlConfig := &TOML{}

	if err := toml.Unmarshal(data, tomlConfig); err != nil {
		return nil, errors.Wrap(err, "error parsing TOML config")
	}

	return tomlConfig, nil
}

func validateCLIArgs(cli *CLI) error {
	if cli == nil {
		return errors.New("config cannot be nil")
	}

	if cli.BufferSize < 0 || cli.KeepSize < 0 || cli.BlockSize < 0 {
		return errors.New("sizes cannot be negative")
	}

	return nil
}
