package geo

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/plastinin/geo2topo/internal/domain"
)

// Copier копирует TopoJSON файл без изменений
type Copier struct{}

// NewCopier создаёт новый Copier
func NewCopier() *Copier {
	return &Copier{}
}

// CopyFile потоково копирует source в dest.
// Возвращается первая ошибка чтения, записи или фиксации файла.
func (c *Copier) CopyFile(ctx context.Context, source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCopyFailed, err)
	}
	defer in.Close()

	err = writeFileAtomic(dest, func(w io.Writer) error {
		_, err := io.Copy(w, &contextReader{ctx: ctx, r: in})
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCopyFailed, err)
	}

	return nil
}
