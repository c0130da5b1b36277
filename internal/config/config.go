package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config 服务配置
type Config struct {
	Server      ServerConfig      `toml:"server"`
	AzureDevOps AzureDevOpsConfig `toml:"azure_devops"`
	OpenAI      OpenAIConfig      `toml:"azure_openai"`
	Store       StoreConfig       `toml:"store"`
	Log         LogConfig         `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// AzureDevOpsConfig holds the connection settings for the Test Plans API.
type AzureDevOpsConfig struct {
	OrgURL            string `toml:"org_url"`
	Project           string `toml:"project"`
	PAT               string `toml:"pat"`
	DefaultTestPlanID int    `toml:"default_test_plan_id"` // TEST_PLAN_ID
}

// OpenAIConfig holds the Azure OpenAI deployment settings. All fields are optional;
// the recommendation endpoint answers 503 when endpoint or key is missing.
type OpenAIConfig struct {
	Endpoint       string `toml:"endpoint"`
	APIKey         string `toml:"api_key"`
	DeploymentName string `toml:"deployment_name"`
	APIVersion     string `toml:"api_version"`
}

// StoreConfig selects the registry backend.
type StoreConfig struct {
	Type string `toml:"type"` // memory, sqlite
	DSN  string `toml:"dsn"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json
}

// LoadConfig 加载配置文件. A missing file is not an error: every setting can
// come from the environment.
func LoadConfig(path string) (*Config, error) {
	var config Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &config); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Host, "HOST")
	setString(&c.AzureDevOps.OrgURL, "AZURE_DEVOPS_ORG_URL")
	setString(&c.AzureDevOps.Project, "AZURE_DEVOPS_PROJECT")
	setString(&c.AzureDevOps.PAT, "AZURE_DEVOPS_PAT")
	setString(&c.OpenAI.Endpoint, "AZURE_OPENAI_ENDPOINT")
	setString(&c.OpenAI.APIKey, "AZURE_OPENAI_API_KEY")
	setString(&c.OpenAI.DeploymentName, "AZURE_OPENAI_DEPLOYMENT_NAME")
	setString(&c.OpenAI.APIVersion, "AZURE_OPENAI_API_VERSION")
	setString(&c.Store.Type, "STORE_TYPE")
	setString(&c.Store.DSN, "STORE_DSN")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	if err := setInt(&c.Server.Port, "PORT"); err != nil {
		return err
	}
	return setInt(&c.AzureDevOps.DefaultTestPlanID, "TEST_PLAN_ID")
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.OpenAI.APIVersion == "" {
		c.OpenAI.APIVersion = "2024-02-15-preview"
	}
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
	if c.Store.Type == "sqlite" && c.Store.DSN == "" {
		c.Store.DSN = ":memory:"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.AzureDevOps.OrgURL == "" {
		missing = append(missing, "AZURE_DEVOPS_ORG_URL")
	}
	if c.AzureDevOps.Project == "" {
		missing = append(missing, "AZURE_DEVOPS_PROJECT")
	}
	if c.AzureDevOps.PAT == "" {
		missing = append(missing, "AZURE_DEVOPS_PAT")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.Store.Type {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unsupported store type: %s", c.Store.Type)
	}
	return nil
}

// GetAddr 获取服务器监听地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}
