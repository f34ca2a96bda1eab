package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/pflag"

	"github.com/feathr-ai/feathr-online/jsonvalue"
	"github.com/feathr-ai/feathr-online/lookup"
	"github.com/feathr-ai/feathr-online/lookupsrc"
	"github.com/feathr-ai/feathr-online/udlf"
)

// Flags holds the CLI flag names, so callers embedding piper can rename a
// flag without touching RegisterFlags.
type Flags struct {
	Pipeline string
	Lookup   string
	Address  string
	Port     string
	JSONLog  string
	Config   string
}

// Config holds everything needed to build a running engine. run sets Logger
// from JSONLog; LogLevel is not read.
type Config struct {
	PipelineFile string
	LookupFile   string
	Address      string
	Port         int
	JSONLog      bool
	ConfigFile   string

	Logger   *slog.Logger
	LogLevel *slog.Level

	Flags Flags
}

// NewConfig returns a Config with default flag names and values.
func NewConfig() *Config {
	return &Config{
		Address: "0.0.0.0",
		Port:    8080,
		Flags: Flags{
			Pipeline: "pipeline",
			Lookup:   "lookup",
			Address:  "address",
			Port:     "port",
			JSONLog:  "json-log",
			Config:   "config",
		},
	}
}

// RegisterFlags adds piper's CLI flags to flags.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&c.PipelineFile, c.Flags.Pipeline, "p", "", "path to the pipeline DSL script (required)")
	flags.StringVarP(&c.LookupFile, c.Flags.Lookup, "l", "", "path to the lookup-source definition JSON")
	flags.StringVar(&c.Address, c.Flags.Address, c.Address, "address to bind the HTTP server to")
	flags.IntVar(&c.Port, c.Flags.Port, c.Port, "port to bind the HTTP server to")
	flags.BoolVarP(&c.JSONLog, c.Flags.JSONLog, "j", false, "emit structured JSON logs instead of text")
	flags.StringVarP(&c.ConfigFile, c.Flags.Config, "c", "", "optional piper.yaml supplying defaults the flags override")
}

// yamlConfig is the shape of an optional piper.yaml file; flags explicitly
// set on the command line win over values loaded here.
type yamlConfig struct {
	Pipeline string `yaml:"pipeline"`
	Lookup   string `yaml:"lookup"`
	Address  string `yaml:"address"`
	Port     int    `yaml:"port"`
	JSONLog  bool   `yaml:"json_log"`
}

// LoadYAML reads c.ConfigFile, if set, and fills in any field whose flag was
// not set on the command line.
func (c *Config) LoadYAML(flags *pflag.FlagSet) error {
	if c.ConfigFile == "" {
		return nil
	}
	raw, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	raw = []byte(os.Expand(string(raw), envLookup))

	var y yamlConfig
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if !flags.Changed(c.Flags.Pipeline) && y.Pipeline != "" {
		c.PipelineFile = y.Pipeline
	}
	if !flags.Changed(c.Flags.Lookup) && y.Lookup != "" {
		c.LookupFile = y.Lookup
	}
	if !flags.Changed(c.Flags.Address) && y.Address != "" {
		c.Address = y.Address
	}
	if !flags.Changed(c.Flags.Port) && y.Port != 0 {
		c.Port = y.Port
	}
	if !flags.Changed(c.Flags.JSONLog) && y.JSONLog {
		c.JSONLog = y.JSONLog
	}
	return nil
}

func envLookup(key string) string { return os.Getenv(key) }

// LoadLookupSources parses lookup-definition JSON (with `${ENV}` tokens
// expanded first) into a name-indexed map of cached lookup.Source, ready
// to hand to pipeline.Build.
func LoadLookupSources(data []byte) (map[string]lookup.Source, error) {
	data = []byte(os.Expand(string(data), envLookup))

	var raw struct {
		Sources []map[string]any `json:"sources"`
	}
	if err := jsonvalue.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse lookup definitions: %w", err)
	}

	out := make(map[string]lookup.Source, len(raw.Sources))
	for _, spec := range raw.Sources {
		name, _ := spec["name"].(string)
		class, _ := spec["class"].(string)
		if name == "" || class == "" {
			return nil, fmt.Errorf("lookup source missing class or name: %v", spec)
		}

		src, err := buildSource(class, spec)
		if err != nil {
			return nil, fmt.Errorf("lookup source %q: %w", name, err)
		}

		capacity, _ := spec["cache_capacity"].(float64)
		ttlSecs, _ := spec["cache_ttl_seconds"].(float64)
		out[name] = lookup.NewCache(src, int(capacity), time.Duration(ttlSecs)*time.Second)
	}
	return out, nil
}

// udlfConfig configures a "udlf" lookup source: a callable hosted behind an
// HTTP endpoint, invoked over the msgpack wire protocol udlf.Adapter speaks.
type udlfConfig struct {
	Name           string
	URL            string
	TimeoutSeconds int
}

func buildSource(class string, spec map[string]any) (lookup.Source, error) {
	raw, err := jsonvalue.Marshal(spec)
	if err != nil {
		return nil, err
	}

	switch class {
	case "kv":
		var cfg lookupsrc.KVConfig
		if err := jsonvalue.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return lookupsrc.NewKVSource(cfg), nil
	case "httpjson":
		var cfg lookupsrc.HTTPJSONConfig
		if err := jsonvalue.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return lookupsrc.NewHTTPJSONSource(cfg), nil
	case "tds":
		var cfg lookupsrc.TDSConfig
		if err := jsonvalue.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return lookupsrc.NewTDSSource(cfg)
	case "embeddedsql":
		var cfg lookupsrc.EmbeddedSQLConfig
		if err := jsonvalue.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return lookupsrc.NewEmbeddedSQLSource(cfg)
	case "docstore":
		var cfg lookupsrc.DocStoreConfig
		if err := jsonvalue.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return lookupsrc.NewDocStoreSource(cfg)
	case "columnfile":
		var cfg lookupsrc.ColumnFileConfig
		if err := jsonvalue.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return lookupsrc.NewColumnFileSource(cfg)
	case "udlf":
		var cfg udlfConfig
		if err := jsonvalue.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		if cfg.URL == "" {
			return nil, fmt.Errorf("udlf source requires a url")
		}
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		transport := udlf.NewHTTPTransport(cfg.URL, timeout)
		return udlf.NewAdapter(cfg.Name, transport, nil), nil
	default:
		return nil, fmt.Errorf("unknown lookup source class %q", class)
	}
}
