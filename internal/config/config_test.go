package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func escribirConfig(t *testing.T, contenido string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tarifador.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contenido), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := escribirConfig(t, `
database:
  host: localhost
  port: 3306
  username: tarifador
  password: secreto
  database: billing
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultBatchSize, cfg.Pipeline.BatchSize)
	assert.Equal(t, DefaultWorkers, cfg.Pipeline.Workers)
	assert.Equal(t, DefaultLeg, cfg.Pipeline.Leg)
	assert.Equal(t, DefaultSourceTable, cfg.Pipeline.SourceTable)
	assert.Equal(t, DefaultLedgerTable, cfg.Pipeline.LedgerTable)
	require.NotNil(t, cfg.Pipeline.MirrorNegative)
	assert.True(t, *cfg.Pipeline.MirrorNegative)
}

func TestLoadMirrorNegativeExplicito(t *testing.T) {
	path := escribirConfig(t, `
database:
  host: localhost
pipeline:
  mirror_negative: false
  batch_size: 100
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Pipeline.MirrorNegative)
	assert.False(t, *cfg.Pipeline.MirrorNegative)
	assert.Equal(t, 100, cfg.Pipeline.BatchSize)
}

func TestLoadOverrideEnv(t *testing.T) {
	t.Setenv("TARIFADOR_DB_PASSWORD", "del-entorno")
	t.Setenv("TARIFADOR_DB_HOST", "db.interno")

	path := escribirConfig(t, `
database:
  host: localhost
  password: del-archivo
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "del-entorno", cfg.Database.Password)
	assert.Equal(t, "db.interno", cfg.Database.Host)
}

func TestDSN(t *testing.T) {
	d := Database{
		Host: "10.0.0.5", Port: 3306,
		Username: "tarifador", Password: "clave", Database: "billing",
		TimeoutSecs: 30,
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "tarifador:clave@tcp(10.0.0.5:3306)/billing")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "timeout=30s")
}

func TestLoadArchivoInexistente(t *testing.T) {
	_, err := Load("/no/existe/tarifador.yaml")
	assert.Error(t, err)
}
