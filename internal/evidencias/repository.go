package evidencias

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reto-gober/regulatoria/internal/periodos"
)

var ErrNotFound = errors.New("archivo no encontrado")

// Repository defines persistence for uploaded artifact metadata.
type Repository interface {
	Insert(ctx context.Context, a Archivo) error
	Get(ctx context.Context, id string) (*Archivo, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, a Archivo) error {
	const q = `
		INSERT INTO archivos (id, nombre_original, mime_type, tamano_bytes, slot, ruta_almacen, subido_por, subido_en)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, q,
		a.ID, a.NombreOriginal, a.MimeType, a.TamanoBytes, string(a.Slot), a.RutaAlmacen, a.SubidoPor, a.SubidoEn)
	if err != nil {
		return fmt.Errorf("insertar archivo: %w", err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, id string) (*Archivo, error) {
	const q = `
		SELECT id, nombre_original, mime_type, tamano_bytes, slot, ruta_almacen, periodo_id, subido_por, subido_en
		FROM archivos
		WHERE id = $1`
	var a Archivo
	var slot string
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&a.ID, &a.NombreOriginal, &a.MimeType, &a.TamanoBytes, &slot,
		&a.RutaAlmacen, &a.PeriodoID, &a.SubidoPor, &a.SubidoEn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("consultar archivo: %w", err)
	}
	a.Slot = periodos.Slot(slot)
	return &a, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	// Linked files are part of a submission record and must survive.
	const q = `DELETE FROM archivos WHERE id = $1 AND periodo_id IS NULL`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("eliminar archivo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
