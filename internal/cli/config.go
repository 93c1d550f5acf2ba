package cli

import (
	"errors"
	"fmt"

	"github.com/seijikohara/db-tester-sub006/pkg/delimited"
	"github.com/seijikohara/db-tester-sub006/pkg/engine"
)

// loadConfig loads the configuration file named by the global --config
// flag. An empty path yields the built-in defaults.
func loadConfig(opts *RootOptions) (*engine.Config, error) {
	if opts.Config == "" {
		return engine.DefaultConfig(), nil
	}
	return engine.LoadConfig(opts.Config)
}

// resolveFormat picks the fixture file format: the command flag when set,
// otherwise the configured default.
func resolveFormat(cfg *engine.Config, flag string) (delimited.Format, error) {
	name := flag
	if name == "" {
		name = cfg.Format
	}
	return delimited.FormatNamed(name)
}

// resolveConnection picks the database to connect to: --driver/--dsn when
// set, otherwise the configured default connection.
func resolveConnection(cfg *engine.Config, driver, dsn string) (string, string, error) {
	if driver != "" || dsn != "" {
		if driver == "" || dsn == "" {
			return "", "", errors.New("--driver and --dsn must be set together")
		}
		return driver, dsn, nil
	}
	conn, ok := cfg.Connections[engine.DefaultConnection]
	if !ok {
		return "", "", errors.New("no database configured: set --driver/--dsn or a default connection in the config file")
	}
	return conn.Driver, conn.DSN, nil
}

// outputCommandError reports a command-level failure (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputParseError reports a fixture parse failure with the matching code.
func outputParseError(formatter *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var parseErr *delimited.ParseError
	var notFound *delimited.NotFoundError
	switch {
	case errors.As(err, &parseErr):
		code = ErrCodeParseFailed
	case errors.As(err, &notFound):
		code = ErrCodeNotFound
	}
	return outputCommandError(formatter, code, err.Error())
}
