package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefectoDeCompras(t *testing.T) {
	t.Setenv("EMAIL_SETTINGS_FILE", filepath.Join(t.TempDir(), "no-existe.json"))
	t.Setenv("COMPANY_PROFILE_FILE", filepath.Join(t.TempDir(), "no-existe.json"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Purchasing.DuplicateWindowSeconds)
	assert.Equal(t, 120*time.Second, cfg.Purchasing.DuplicateWindow())
	assert.Equal(t, "Asia/Tokyo", cfg.Purchasing.BusinessTimezone)
	assert.Equal(t, "会社名未設定", cfg.Company.Name)
}

func TestLoad_VentanaDeDuplicadosMinimoUnSegundo(t *testing.T) {
	t.Setenv("EMAIL_SETTINGS_FILE", "")
	t.Setenv("COMPANY_PROFILE_FILE", "")
	t.Setenv("PURCHASE_DUPLICATE_WINDOW_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Purchasing.DuplicateWindowSeconds)
}

func TestLoad_PoolDeConexiones(t *testing.T) {
	t.Setenv("EMAIL_SETTINGS_FILE", "")
	t.Setenv("COMPANY_PROFILE_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int32(10), cfg.DB.MaxConns)
	assert.Equal(t, time.Hour, cfg.DB.MaxConnLifetime)
	assert.False(t, cfg.DB.ForceIPv4)

	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("DB_MAX_CONN_IDLE_TIME", "90s")
	t.Setenv("DB_HEALTH_CHECK_PERIOD", "no-es-duracion")
	t.Setenv("DB_FORCE_IPV4", "true")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, int32(4), cfg.DB.MaxConns)
	assert.Equal(t, 90*time.Second, cfg.DB.MaxConnIdleTime)
	assert.Equal(t, time.Minute, cfg.DB.HealthCheckPeriod, "valor inválido: defecto")
	assert.True(t, cfg.DB.ForceIPv4)
}

func TestLoadMailSettings_CuentasYDepartamentos(t *testing.T) {
	path := filepath.Join(t.TempDir(), "email_settings.json")
	body := `{
	  "smtp_server": "smtp.example.jp",
	  "smtp_port": 587,
	  "accounts": {
	    "tanaka": {"sender": "tanaka@example.jp", "display_name": "田中 太郎", "department": "製造部"},
	    "sato":   {"sender": "sato@example.jp", "departments": ["総務部", "品質保証部"]},
	    "broken": {"display_name": "sin remitente"}
	  },
	  "department_defaults": {"製造部": "tanaka", "営業部": "sato"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	var smtp SMTPConfig
	require.NoError(t, loadMailSettings(path, &smtp))

	assert.Equal(t, "smtp.example.jp", smtp.Server)
	require.Len(t, smtp.Accounts, 2, "las cuentas sin sender se descartan")
	assert.Equal(t, "sato", smtp.Accounts[0].Key)
	assert.Equal(t, "sato", smtp.Accounts[0].DisplayName, "sin display_name se usa la clave")
	assert.ElementsMatch(t, []string{"総務部", "品質保証部", "営業部"}, smtp.Accounts[0].Departments)
	assert.Equal(t, "tanaka", smtp.DepartmentDefaults["製造部"])
}

func TestLoadCompanyProfile_ArchivoAusenteMantieneDefecto(t *testing.T) {
	profile := defaultCompanyProfile()
	require.NoError(t, loadCompanyProfile(filepath.Join(t.TempDir(), "x.json"), &profile))
	assert.Equal(t, "未設定", profile.DefaultPhone)
}
