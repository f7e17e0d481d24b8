package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Reiex/Diskon-sub000/config"
	"github.com/Reiex/Diskon-sub000/flate"
	"github.com/Reiex/Diskon-sub000/stream"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Println("ERROR: ", err)
		os.Exit(1)
	}

	if cfg.CLI.Debug {
		logrus.Info("debug mode enabled")
		logrus.SetLevel(logrus.DebugLevel)
	}

	if !cfg.CLI.Quiet {
		displayConfig(cfg)
	}

	if err := run(cfg); err != nil {
		logrus.Errorf("%s failed: %s", cfg.Command(), err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	args := cfg.IO()

	in := io.Reader(os.Stdin)
	if args.Input != "" {
		f, err := os.Open(args.Input)
		if err != nil {
			return errors.Wrap(err, "error opening input")
		}
		defer f.Close()
		in = f
	}

	if args.Output == "" {
		return transform(cfg, in, os.Stdout)
	}

	f, err := os.Create(args.Output)
	if err != nil {
		return errors.Wrap(err, "error creating output")
	}
	return closeOutput(f, transform(cfg, in, f))
}

// closeOutput closes c and reports its failure unless err is already set.
func closeOutput(c io.Closer, err error) error {
	cerr := c.Close()
	if err != nil {
		return err
	}
	if cerr != nil {
		return errors.Wrap(cerr, "error closing output")
	}
	return nil
}

// transform runs the selected command from in to out.
func transform(cfg *config.Config, in io.Reader, out io.Writer) error {
	llog := logrus.WithField("command", cfg.Command())
	llog.Debug("start")
	defer llog.Debug("exit")

	switch cmd := cfg.Command(); cmd {
	case config.CommandDeflate, config.CommandGzip:
		opts, err := cfg.WriterOptions()
		if err != nil {
			return err
		}
		newWriter := flate.NewWriter
		if cmd == config.CommandGzip {
			newWriter = flate.NewGZIPWriter
		}
		w := newWriter(out, opts)
		n, err := io.Copy(w, in)
		if err != nil {
			return errors.Wrap(err, "error compressing")
		}
		if err := w.Close(); err != nil {
			return errors.Wrap(err, "error finishing stream")
		}
		llog.WithField("bytes", n).Debug("compressed")

	case config.CommandInflate:
		d := flate.NewDecoder(stream.NewReader(in, cfg.StreamOptions()))
		n, err := io.Copy(out, d)
		if err != nil {
			return errors.Wrap(err, "error decompressing")
		}
		llog.WithField("bytes", n).Debug("decompressed")

	case config.CommandGunzip:
		z, err := flate.NewGZIPReader(in, cfg.StreamOptions())
		if err != nil {
			return err
		}
		n, err := io.Copy(out, z)
		if err != nil {
			return errors.Wrap(err, "error decompressing")
		}
		llog.WithFields(logrus.Fields{
			"bytes": n,
			"name":  z.Header.Name,
		}).Debug("decompressed")

	default:
		return errors.Errorf("unknown command %q", cmd)
	}

	return nil
}

func displayConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	logrus.Info("diskon settings:")
	logrus.Info("  [CLI]")
	logrus.Infof("  version: %s", config.VERSION)
	logrus.Infof("  command: %s", cfg.Command())
	logrus.Infof("  debug: %v", cfg.CLI.Debug)
	logrus.Infof("  config file: %s", cfg.CLI.ConfigFile)
	logrus.Infof("  input: %s", cfg.IO().Input)
	logrus.Infof("  output: %s", cfg.IO().Output)
	logrus.Info("")
	logrus.Info("  [STREAM]")
	logrus.Infof("  stream.buffer_size: %d", cfg.TOML.Stream.BufferSize)
	logrus.Infof("  stream.keep_size: %d", cfg.TOML.Stream.KeepSize)
	logrus.Info("")
	logrus.Info("  [DEFLATE]")
	logrus.Infof("  deflate.block_type: %s", cfg.TOML.Deflate.BlockType)
	logrus.Infof("  deflate.block_size: %d", cfg.TOML.Deflate.BlockSize)
}
