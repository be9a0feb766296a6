package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	JwtSecret string `yaml:"jwt_secret" json:"jwt_secret"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

// LoyaltyConfig points at the external loyalty-point service consumed by the
// cancellation compensator.
type LoyaltyConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Token    string `yaml:"token" json:"token"`
	Timeout  int    `yaml:"timeout" json:"timeout"`
}

type AppConfig struct {
	System   SysConfig     `yaml:"system" json:"system"`
	Web      WebConfig     `yaml:"web" json:"web"`
	Database DBConfig      `yaml:"database" json:"database"`
	Logger   LogConfig     `yaml:"logger" json:"logger"`
	Loyalty  LoyaltyConfig `yaml:"loyalty" json:"loyalty"`
}

func (c *AppConfig) GetLogDir() string {
	return filepath.Join(c.System.Workdir, "logs")
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "stockcore",
		Location: "Asia/Shanghai",
		Workdir:  "/var/stockcore",
		Debug:    true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 1816,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "stockcore",
		User:     "postgres",
		Passwd:   "myStockcore",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/stockcore/stockcore.log",
	},
	Loyalty: LoyaltyConfig{
		Timeout: 10,
	},
}

func setEnvValue(name string, f func(v string)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue)
	}
}

func setEnvInt64Value(name string, f func(v int64)) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	p, err := cast.ToInt64E(evalue)
	if err == nil {
		f(p)
	}
}

// LoadConfig reads the YAML configuration file and applies environment
// overrides. A missing file yields the defaults.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			cfg = new(AppConfig)
			if err := yaml.Unmarshal(data, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "parse config %s error: %s\n", cfile, err.Error())
				cfg = DefaultAppConfig
			}
		}
	}

	setEnvValue("STOCKCORE_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvValue("STOCKCORE_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvValue("STOCKCORE_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("STOCKCORE_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("STOCKCORE_DB_PWD", func(v string) { cfg.Database.Passwd = v })
	setEnvValue("STOCKCORE_WEB_JWT_SECRET", func(v string) { cfg.Web.JwtSecret = v })
	setEnvValue("STOCKCORE_LOYALTY_ENDPOINT", func(v string) { cfg.Loyalty.Endpoint = v })
	setEnvValue("STOCKCORE_LOYALTY_TOKEN", func(v string) { cfg.Loyalty.Token = v })
	setEnvInt64Value("STOCKCORE_DB_PORT", func(v int64) { cfg.Database.Port = int(v) })
	setEnvInt64Value("STOCKCORE_WEB_PORT", func(v int64) { cfg.Web.Port = int(v) })

	return cfg
}
