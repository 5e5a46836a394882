package geo

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/facebookgo/atomicfile"
)

const outputFileMode os.FileMode = 0o644

// writeFileAtomic пишет файл через временный файл рядом с целевым.
// При ошибке записи целевой файл не создаётся и не изменяется.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	f, err := atomicfile.New(path, outputFileMode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		_ = f.Abort()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", path, err)
	}

	return nil
}

// contextReader прерывает чтение после отмены контекста
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
