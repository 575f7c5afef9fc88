package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "NOTEBOOK_"

type Application struct {
	Host          string        `koanf:"host"`
	Frontend      Frontend      `koanf:"frontend"`
	Google        Google        `koanf:"google"`
	Database      Database      `koanf:"db"`
	Storage       Storage       `koanf:"storage"`
	Cache         Cache         `koanf:"cache"`
	Auth          Auth          `koanf:"auth"`
	Transcription Transcription `koanf:"transcription"`
}

type Frontend struct {
	Enabled bool `koanf:"enabled"`
}

type Google struct {
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

// Storage selects where note page photos are kept. Driver is "s3" or "memory".
type Storage struct {
	Driver    string `koanf:"driver"`
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"accesskey"`
	SecretKey string `koanf:"secretkey"`
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	PublicUrl string `koanf:"publicurl"`
}

// Cache configures the note list cache. An empty Url disables caching.
type Cache struct {
	Url string        `koanf:"url"`
	Ttl time.Duration `koanf:"ttl"`
}

type Auth struct {
	Secret   string        `koanf:"secret"`
	TokenTtl time.Duration `koanf:"tokenttl"`
}

type Transcription struct {
	Url     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

func defaults() Application {
	return Application{
		Host: "http://localhost:3000",
		Frontend: Frontend{
			Enabled: true,
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "notebook",
			Pass:   "",
			Name:   "notebook",
			Schema: "notebook",
		},
		Storage: Storage{
			Driver: "memory",
			Bucket: "notebook",
		},
		Cache: Cache{
			Ttl: 5 * time.Minute,
		},
		Auth: Auth{
			TokenTtl: 30 * 24 * time.Hour,
		},
		Transcription: Transcription{
			Timeout: 30 * time.Second,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
