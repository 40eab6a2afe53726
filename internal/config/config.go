package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config estructura principal de configuración
type Config struct {
	Database Database `yaml:"database"`
	Pipeline Pipeline `yaml:"pipeline"`
	Numeros  Numeros  `yaml:"numeros"`
	Log      Log      `yaml:"log"`
}

type Database struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	TimeoutSecs  int    `yaml:"timeout_secs"`
}

// Pipeline controla el comportamiento del orquestador de lotes
type Pipeline struct {
	BatchSize int    `yaml:"batch_size"`
	Workers   int    `yaml:"workers"`
	Leg       string `yaml:"leg"` // "SBC" o "IP2IP": pierna del CDR a importar
	// MirrorNegative indica la convención de signo: los registros espejados
	// desde la central usan id negativo en la tarificación. Puntero para
	// distinguir "no configurado" (default: negativo) de un false explícito.
	MirrorNegative *bool  `yaml:"mirror_negative"`
	SourceTable    string `yaml:"source_table"`
	LedgerTable    string `yaml:"ledger_table"`
}

// Numeros controla la normalización de números telefónicos
type Numeros struct {
	CodigoPais        string `yaml:"codigo_pais"`
	CodigoAreaDefecto string `yaml:"codigo_area_defecto"`
	Region            string `yaml:"region"` // región ISO para libphonenumber (ej: "CO")
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults aplicados cuando el YAML no especifica un valor
const (
	DefaultBatchSize   = 500
	DefaultWorkers     = 4
	DefaultLeg         = "SBC"
	DefaultSourceTable = "tarifador_cdr_bruto"
	DefaultLedgerTable = "tarifador_tarificacion"
)

// Load carga la configuración desde archivo YAML
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error leyendo archivo de configuración: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parseando YAML: %w", err)
	}

	// Permitir sobrescribir con variables de entorno
	overrideWithEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// overrideWithEnv permite sobrescribir configuración con variables de entorno
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("TARIFADOR_DB_USERNAME"); v != "" {
		cfg.Database.Username = v
	}
	if v := os.Getenv("TARIFADOR_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("TARIFADOR_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("TARIFADOR_DB_DATABASE"); v != "" {
		cfg.Database.Database = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Pipeline.BatchSize <= 0 {
		cfg.Pipeline.BatchSize = DefaultBatchSize
	}
	if cfg.Pipeline.Workers <= 0 {
		cfg.Pipeline.Workers = DefaultWorkers
	}
	if cfg.Pipeline.Leg == "" {
		cfg.Pipeline.Leg = DefaultLeg
	}
	if cfg.Pipeline.SourceTable == "" {
		cfg.Pipeline.SourceTable = DefaultSourceTable
	}
	if cfg.Pipeline.LedgerTable == "" {
		cfg.Pipeline.LedgerTable = DefaultLedgerTable
	}
	if cfg.Pipeline.MirrorNegative == nil {
		v := true
		cfg.Pipeline.MirrorNegative = &v
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.TimeoutSecs <= 0 {
		cfg.Database.TimeoutSecs = 30
	}
}

// DSN devuelve el Data Source Name para MySQL
func (d Database) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		d.Username, d.Password, d.Host, d.Port, d.Database,
		d.TimeoutSecs, d.TimeoutSecs, d.TimeoutSecs)
}
