package credentials_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Compras-api/internal/infrastructure/credentials"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func source(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "SMTP_PASSWORD_KIMURA_EXAMPLE_COM", credentials.EnvName(" kimura@example.com "))
	assert.Equal(t, "SMTP_PASSWORD_PO_MAKER_CO_JP", credentials.EnvName("po-maker@co.jp"))
}

func TestLookup_EnClaro(t *testing.T) {
	l, err := credentials.NewLookup("")
	require.NoError(t, err)
	l.WithSource(source(map[string]string{"SMTP_PASSWORD_KIMURA_EXAMPLE_COM": "abc123"}))

	pw, err := l.Password(context.Background(), "kimura@example.com")
	require.NoError(t, err)
	assert.Equal(t, "abc123", pw)

	_, err = l.Password(context.Background(), "otro@example.com")
	assert.ErrorIs(t, err, credentials.ErrNotFound)
}

func TestLookup_Cifrada(t *testing.T) {
	key, err := credentials.ParseKey(testKey)
	require.NoError(t, err)
	sealed, err := credentials.Seal(key, "パスワード")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sealed, "enc:"))

	l, err := credentials.NewLookup(testKey)
	require.NoError(t, err)
	l.WithSource(source(map[string]string{"SMTP_PASSWORD_PO_EXAMPLE_COM": sealed}))

	pw, err := l.Password(context.Background(), "po@example.com")
	require.NoError(t, err)
	assert.Equal(t, "パスワード", pw)
}

func TestLookup_CifradaSinClaveOConClaveIncorrecta(t *testing.T) {
	key, err := credentials.ParseKey(testKey)
	require.NoError(t, err)
	sealed, err := credentials.Seal(key, "x")
	require.NoError(t, err)
	env := source(map[string]string{"SMTP_PASSWORD_A_EXAMPLE_COM": sealed})

	sinClave, err := credentials.NewLookup("")
	require.NoError(t, err)
	_, err = sinClave.WithSource(env).Password(context.Background(), "a@example.com")
	assert.Error(t, err)

	otra, err := credentials.NewLookup(strings.Repeat("ff", 32))
	require.NoError(t, err)
	_, err = otra.WithSource(env).Password(context.Background(), "a@example.com")
	assert.Error(t, err)
}

func TestParseKey_Invalida(t *testing.T) {
	_, err := credentials.ParseKey("zz")
	assert.Error(t, err)
	_, err = credentials.ParseKey("0011")
	assert.Error(t, err)
	_, err = credentials.NewLookup("0011")
	assert.Error(t, err)
}
