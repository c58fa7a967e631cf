package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/user"
	"path"

	"gopkg.in/yaml.v2"
)

const (
	configDir  string = ".mbdbg"
	configFile string = "config.yml"
)

// Config defines all configuration options available to be set through the
// config file.
type Config struct {
	// MaxBacktraceDepth is the maximum number of frames the backtrace
	// command will unwind.
	MaxBacktraceDepth *int `yaml:"max-backtrace-depth,omitempty"`

	// MaxScanInstructions bounds the number of instructions the prologue
	// scanner will examine when no function end address is known.
	MaxScanInstructions *int `yaml:"max-scan-instructions,omitempty"`

	// LittleEndian selects little-endian code and stack reads. MicroBlaze
	// systems are big-endian unless configured otherwise.
	LittleEndian bool `yaml:"little-endian"`

	// TraceFlags is a comma-separated list of logging flags enabled at
	// startup, equivalent to the --log-output command line option.
	TraceFlags string `yaml:"trace-flags"`
}

// LoadConfig attempts to populate a Config object from the config.yml file.
func LoadConfig() *Config {
	err := createConfigPath()
	if err != nil {
		fmt.Printf("Could not create config directory: %v.", err)
		return &Config{}
	}
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		fmt.Printf("Unable to get config file path: %v.", err)
		return &Config{}
	}

	f, err := os.Open(fullConfigFile)
	if err != nil {
		f, err = createDefaultConfig(fullConfigFile)
		if err != nil {
			fmt.Printf("Error creating default config file: %v", err)
			return &Config{}
		}
	}
	defer func() {
		err := f.Close()
		if err != nil {
			fmt.Printf("Closing config file failed: %v.", err)
		}
	}()

	data, err := ioutil.ReadAll(f)
	if err != nil {
		fmt.Printf("Unable to read config data: %v.", err)
		return &Config{}
	}

	var c Config
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		fmt.Printf("Unable to decode config file: %v.", err)
		return &Config{}
	}

	return &c
}

// SaveConfig will marshal and save the config struct to disk.
func SaveConfig(conf *Config) error {
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(*conf)
	if err != nil {
		return err
	}

	f, err := os.Create(fullConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(out)
	return err
}

func createDefaultConfig(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("unable to create config file: %v", err)
	}
	err = writeDefaultConfig(f)
	if err != nil {
		return nil, fmt.Errorf("unable to write default configuration: %v", err)
	}
	return f, nil
}

func writeDefaultConfig(f *os.File) error {
	_, err := f.WriteString(
		`# Configuration file for mbdbg.

# This is the default configuration file. Available options are provided, but disabled.
# Delete the leading hash mark to enable an item.

# Maximum number of frames printed by the backtrace command. (default: 64)
# max-backtrace-depth: 64

# Maximum number of instructions scanned per function when the symbol table
# carries no function end address. (default: 1024)
# max-scan-instructions: 1024

# Read code and stack memory as little-endian.
# little-endian: false

# Logging flags enabled at startup (microblaze, unwind, symtab).
# trace-flags: ""
`)
	return err
}

func createConfigPath() error {
	path, err := GetConfigFilePath("")
	if err != nil {
		return err
	}
	return os.MkdirAll(path, 0700)
}

// GetConfigFilePath gets the full path to the given config file name.
func GetConfigFilePath(file string) (string, error) {
	if configPath := os.Getenv("MBDBG_HOME"); configPath != "" {
		return path.Join(configPath, file), nil
	}
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	return path.Join(usr.HomeDir, configDir, file), nil
}
