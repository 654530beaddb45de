package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/aussiebroadwan/tokenkit/internal/app"
	"github.com/aussiebroadwan/tokenkit/pkg/profile"
)

// Cli provides CLI context to run commands
type Cli struct {
	Version kong.VersionFlag `name:"version" help:"Print version information and quit"`

	Root         string   `help:"Directory holding profile files and certificates" env:"TOKENKIT_ROOT" default:"."`
	Pattern      []string `help:"Profile file name patterns" env:"TOKENKIT_PROFILE_PATTERN"`
	Driver       string   `help:"State store driver" env:"TOKENKIT_STORE_DRIVER" enum:"sqlite,redis" default:"sqlite"`
	DatabaseFile string   `help:"SQLite file, defaults to <root>/db/tokens.db" env:"TOKENKIT_DATABASE_FILE"`
	RedisAddr    string   `help:"Redis address" env:"TOKENKIT_REDIS_ADDR" default:"localhost:6379"`
	RedisPrefix  string   `help:"Redis key prefix" env:"TOKENKIT_REDIS_PREFIX"`
	LogLevel     string   `help:"Log level" env:"LOG_LEVEL" default:"error"`
	LogFormat    string   `help:"Log format" env:"LOG_FORMAT" enum:"json,text" default:"text"`

	// output is the destination for all output from the command, typically set to os.Stdout
	output io.Writer
	// errOutput is the destination for errors and logs.
	errOutput io.Writer

	ctx context.Context
	app *app.Application
}

// Context for commands
func (c *Cli) Context() context.Context {
	if c.ctx == nil {
		c.ctx = context.Background()
	}
	return c.ctx
}

// Writer returns a writer for control output
func (c *Cli) Writer() io.Writer {
	if c.output != nil {
		return c.output
	}
	return os.Stdout
}

// WithWriter allows to specify a custom writer
func (c *Cli) WithWriter(out io.Writer) *Cli {
	c.output = out
	return c
}

// ErrWriter returns a writer for errors and logs
func (c *Cli) ErrWriter() io.Writer {
	if c.errOutput != nil {
		return c.errOutput
	}
	return os.Stderr
}

// WithErrWriter allows to specify a custom error writer
func (c *Cli) WithErrWriter(out io.Writer) *Cli {
	c.errOutput = out
	return c
}

// Config builds the application config from the flags.
func (c *Cli) Config() app.Config {
	cfg := app.LoadConfig()
	cfg.Root = c.Root
	if len(c.Pattern) > 0 {
		cfg.ProfilePatterns = c.Pattern
	} else {
		cfg.ProfilePatterns = profile.DefaultPatterns
	}
	cfg.StoreDriver = c.Driver
	cfg.DatabaseFile = c.DatabaseFile
	cfg.RedisAddr = c.RedisAddr
	if c.RedisPrefix != "" {
		cfg.RedisPrefix = c.RedisPrefix
	}
	cfg.LogLevel = c.LogLevel
	cfg.LogFormat = c.LogFormat
	cfg.LogOutput = c.ErrWriter()
	return cfg
}

// App loads the application once and reuses it.
func (c *Cli) App() (*app.Application, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := app.New(c.Config())
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

// Close releases the application, if one was loaded.
func (c *Cli) Close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// WriteJSON prints value to out as indented JSON
func (c *Cli) WriteJSON(value any) error {
	enc := json.NewEncoder(c.Writer())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// Println prints a line to out
func (c *Cli) Println(a ...any) {
	fmt.Fprintln(c.Writer(), a...)
}
