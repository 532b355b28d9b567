// Package storage archiva los PDF de pedidos en el recurso compartido (NAS).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/jhoicas/Compras-api/internal/application/purchasing"
)

var _ purchasing.DocumentStore = (*DocumentStore)(nil)

// DocumentStore guarda documentos bajo una raíz. Las referencias son rutas relativas con "/".
type DocumentStore struct {
	fs afero.Fs
}

// NewDocumentStore archivo en disco bajo root (se crea si no existe).
func NewDocumentStore(root string) (*DocumentStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage: raíz de documentos vacía")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: crear %s: %w", root, err)
	}
	return &DocumentStore{fs: afero.NewBasePathFs(afero.NewOsFs(), root)}, nil
}

// NewDocumentStoreFs sobre un afero.Fs arbitrario (p. ej. afero.NewMemMapFs en tests).
func NewDocumentStoreFs(fsys afero.Fs) *DocumentStore {
	return &DocumentStore{fs: fsys}
}

// Ref une los segmentos ya saneados. Los vacíos se omiten.
func (s *DocumentStore) Ref(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg = strings.Trim(seg, "/"); seg != "" {
			parts = append(parts, seg)
		}
	}
	return path.Join(parts...)
}

// Exists indica si la referencia apunta a un archivo.
func (s *DocumentStore) Exists(ctx context.Context, ref string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	name, err := s.name(ref)
	if err != nil {
		return false, err
	}
	info, err := s.fs.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("storage: stat %s: %w", ref, err)
	}
	return !info.IsDir(), nil
}

// Save escribe el contenido creando los directorios intermedios.
// Se escribe en un temporal y se renombra para no dejar archivos a medias.
func (s *DocumentStore) Save(ctx context.Context, ref string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := s.name(ref)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("storage: crear directorio de %s: %w", ref, err)
	}
	tmp := name + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, content, 0o644); err != nil {
		return fmt.Errorf("storage: escribir %s: %w", ref, err)
	}
	if err := s.fs.Rename(tmp, name); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("storage: renombrar %s: %w", ref, err)
	}
	return nil
}

// Load lee el archivo completo.
func (s *DocumentStore) Load(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := s.name(ref)
	if err != nil {
		return nil, err
	}
	b, err := afero.ReadFile(s.fs, name)
	if err != nil {
		return nil, fmt.Errorf("storage: leer %s: %w", ref, err)
	}
	return b, nil
}

// name traduce la referencia a ruta del sistema; rechaza salir de la raíz.
func (s *DocumentStore) name(ref string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(ref))
	if clean == "/" {
		return "", fmt.Errorf("storage: referencia vacía")
	}
	return filepath.FromSlash(strings.TrimPrefix(clean, "/")), nil
}
