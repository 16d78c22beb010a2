package main

import (
	"encoding/json"
	"fmt"
	"os"
)

type Config struct {
	Port    int    `json:"port"`
	Env     string `json:"env"`
	Pepper  string `json:"pepper"`
	HMACKey string `json:"hmac_key"`

	// Credentials for the two third-party APIs. Empty values fall back
	// to the FREESOUND_TOKEN / TODOIST_TOKEN environment variables; a
	// still-missing token surfaces as a 500 at call time, not a crash.
	FreesoundToken string `json:"freesound_token"`
	TodoistToken   string `json:"todoist_token"`

	Database PostgresConfig `json:"database"`
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (pc PostgresConfig) ConnectionInfo() string {
	if pc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Password, pc.Name)
}

func DefaultConfig() Config {
	return Config{
		Port:     1111,
		Env:      "dev",
		Pepper:   "secret-random-string",
		HMACKey:  "secret-hmac-key",
		Database: DefaultPostgresConfig(),
	}
}

func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host: "localhost",
		Port: 5432,
		User: "postgres",
		Name: "focusfeed",
	}
}

// LoadConfig reads .config.json if present, otherwise returns the default
// dev setup. In production the file is required. Either way, missing API
// tokens are picked up from the environment.
func LoadConfig(prod bool) Config {
	c := DefaultConfig()
	f, err := os.Open(".config.json")
	if err != nil {
		if prod {
			panic("a .config.json file is required in production")
		}
	} else {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&c); err != nil {
			panic(err)
		}
		fmt.Println("Successfully loaded .config.json")
	}

	if c.FreesoundToken == "" {
		c.FreesoundToken = os.Getenv("FREESOUND_TOKEN")
	}
	if c.TodoistToken == "" {
		c.TodoistToken = os.Getenv("TODOIST_TOKEN")
	}
	return c
}
