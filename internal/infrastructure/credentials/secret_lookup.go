// Package credentials resuelve la contraseña SMTP de cada cuenta remitente.
//
// La contraseña se lee de la variable SMTP_PASSWORD_<REMITENTE>, donde el remitente se pasa a
// mayúsculas y todo carácter no alfanumérico se reemplaza por "_" (kimura@example.com →
// SMTP_PASSWORD_KIMURA_EXAMPLE_COM). Con el prefijo "enc:" el valor es base64 de
// nonce(24) || secretbox.Seal(...) con la clave SMTP_SECRET_KEY (hex, 32 bytes).
package credentials

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/jhoicas/Compras-api/internal/application/purchasing"
)

const (
	envPrefix     = "SMTP_PASSWORD_"
	sealedPrefix  = "enc:"
	nonceSize     = 24
	secretKeySize = 32
)

// ErrNotFound la cuenta no tiene contraseña registrada.
var ErrNotFound = errors.New("contraseña SMTP no registrada")

var _ purchasing.CredentialLookup = (*Lookup)(nil)

// Lookup busca contraseñas en el entorno y abre las cifradas.
type Lookup struct {
	key    *[secretKeySize]byte
	lookup func(string) (string, bool)
}

// NewLookup con la clave en hex; vacía solo admite contraseñas en claro.
func NewLookup(hexKey string) (*Lookup, error) {
	l := &Lookup{lookup: os.LookupEnv}
	if strings.TrimSpace(hexKey) == "" {
		return l, nil
	}
	key, err := ParseKey(hexKey)
	if err != nil {
		return nil, err
	}
	l.key = key
	return l, nil
}

// WithSource reemplaza la fuente de variables (tests).
func (l *Lookup) WithSource(lookup func(string) (string, bool)) *Lookup {
	l.lookup = lookup
	return l
}

// Password devuelve la contraseña de la cuenta.
func (l *Lookup) Password(_ context.Context, sender string) (string, error) {
	name := EnvName(sender)
	raw, ok := l.lookup(name)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return "", fmt.Errorf("%w: defina %s", ErrNotFound, name)
	}
	if !strings.HasPrefix(raw, sealedPrefix) {
		return raw, nil
	}
	if l.key == nil {
		return "", fmt.Errorf("credentials: %s está cifrada y SMTP_SECRET_KEY no está definida", name)
	}
	return Open(l.key, strings.TrimPrefix(raw, sealedPrefix))
}

// EnvName nombre de la variable de entorno de un remitente.
func EnvName(sender string) string {
	var b strings.Builder
	b.WriteString(envPrefix)
	for _, r := range strings.ToUpper(strings.TrimSpace(sender)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ── Cifrado ──────────────────────────────────────────────────────────────────

// ParseKey decodifica la clave hex de 32 bytes.
func ParseKey(hexKey string) (*[secretKeySize]byte, error) {
	b, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("credentials: clave no es hex: %w", err)
	}
	if len(b) != secretKeySize {
		return nil, fmt.Errorf("credentials: la clave debe tener %d bytes, tiene %d", secretKeySize, len(b))
	}
	var key [secretKeySize]byte
	copy(key[:], b)
	return &key, nil
}

// Seal cifra la contraseña y devuelve el valor listo para la variable ("enc:...").
func Seal(key *[secretKeySize]byte, password string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("credentials: nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(password), &nonce, key)
	return sealedPrefix + base64.StdEncoding.EncodeToString(box), nil
}

// Open descifra un valor producido por Seal (sin el prefijo).
func Open(key *[secretKeySize]byte, encoded string) (string, error) {
	box, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("credentials: base64 inválido: %w", err)
	}
	if len(box) < nonceSize+secretbox.Overhead {
		return "", errors.New("credentials: valor cifrado demasiado corto")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, key)
	if !ok {
		return "", errors.New("credentials: no se pudo descifrar (clave incorrecta)")
	}
	return string(plain), nil
}
