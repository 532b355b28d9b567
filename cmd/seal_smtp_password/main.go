// seal_smtp_password cifra la contraseña de una cuenta remitente con SMTP_SECRET_KEY e imprime
// la línea lista para el .env:
//
//	SMTP_SECRET_KEY=<hex> go run ./cmd/seal_smtp_password -sender kimura@example.com -password '...'
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jhoicas/Compras-api/internal/infrastructure/credentials"
	"github.com/jhoicas/Compras-api/pkg/config"
)

func main() {
	sender := flag.String("sender", "", "Required: dirección del remitente")
	password := flag.String("password", "", "Required: contraseña en claro")
	flag.Parse()

	if strings.TrimSpace(*sender) == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "-sender y -password son obligatorios")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	key, err := credentials.ParseKey(cfg.SMTP.SecretKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "SMTP_SECRET_KEY: %v\n", err)
		os.Exit(1)
	}
	sealed, err := credentials.Seal(key, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cifrar: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s=%s\n", credentials.EnvName(strings.TrimSpace(*sender)), sealed)
}
