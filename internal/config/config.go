package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	DBSource         string
	Port             string
	Env              string
	RegistrationFile string
	CommandFile      string
	Verbose          bool
}

func Load() (*Config, error) {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	verbose := false
	if v := os.Getenv("VERBOSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("VERBOSE must be a boolean, got %q", v)
		}
		verbose = b
	}

	return &Config{
		DBSource:         os.Getenv("DB_SOURCE"),
		Port:             port,
		Env:              env,
		RegistrationFile: os.Getenv("REGISTRATION_FILE"),
		CommandFile:      os.Getenv("COMMAND_FILE"),
		Verbose:          verbose,
	}, nil
}

// RequireDB fails when no database connection string is configured.
func (c *Config) RequireDB() error {
	if c.DBSource == "" {
		return fmt.Errorf("DB_SOURCE environment variable is required")
	}
	return nil
}

// RequireRegistrations fails when there is neither a registration file nor
// a database to bootstrap from.
func (c *Config) RequireRegistrations() error {
	if c.RegistrationFile == "" && c.DBSource == "" {
		return fmt.Errorf("a registration file (-f or REGISTRATION_FILE) or DB_SOURCE is required")
	}
	return nil
}

// BindFlags registers the simulator flags on fs, defaulting to the values
// already loaded from the environment.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.RegistrationFile, "f", c.RegistrationFile, "Registration file")
	fs.StringVar(&c.RegistrationFile, "file", c.RegistrationFile, "Registration file")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "Print diagnostics for every command")
	fs.BoolVar(&c.Verbose, "verbose", c.Verbose, "Print diagnostics for every command")
}
