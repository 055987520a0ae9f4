package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reto-gober/regulatoria/internal/periodos"
	"github.com/reto-gober/regulatoria/internal/platform/db"
)

var ErrNotFound = errors.New("acción no encontrada")

// Repository persists admin actions and the period mutations an override
// carries. The write methods exist here, next to InsertAction, so one WithTx
// covers both sides of the audit guarantee.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	InsertAction(ctx context.Context, a AdminAction) (int64, error)
	GetAction(ctx context.Context, id int64) (*AdminAction, error)
	ListActions(ctx context.Context, req ListActionsRequest, limit, offset int) ([]AdminAction, error)
	ListAllActions(ctx context.Context, req ListActionsRequest) ([]AdminAction, error)
	ListPorPeriodo(ctx context.Context, periodoID int64) ([]AdminAction, error)
	ContextoPeriodo(ctx context.Context, periodoID, responsableID int64) (reporteNombre, responsableNombre string, err error)

	ActualizarPeriodo(ctx context.Context, periodoID int64, desde, hacia periodos.Estado, fechaEnvio time.Time, desviacion int) error
	InsertComentario(ctx context.Context, c periodos.Comentario) error
	VincularArchivos(ctx context.Context, periodoID int64, ids []string) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const actionColumns = `a.id, a.action_type, a.periodo_id, a.admin_id, a.admin_nombre,
	a.responsable_id, a.responsable_afectado, a.reporte_nombre, a.motivo, a.comentarios,
	a.estado_anterior, a.estado_resultante, a.files_count, a.created_at`

func scanAction(row pgx.Row) (*AdminAction, error) {
	var a AdminAction
	var tipo string
	err := row.Scan(&a.ActionID, &tipo, &a.PeriodoID, &a.AdminID, &a.AdminNombre,
		&a.ResponsableID, &a.ResponsableAfectado, &a.ReporteNombre, &a.Motivo, &a.Comentarios,
		&a.EstadoAnterior, &a.EstadoResultante, &a.FilesCount, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.ActionType = ActionType(tipo)
	return &a, nil
}

func (r *repository) InsertAction(ctx context.Context, a AdminAction) (int64, error) {
	const q = `
		INSERT INTO admin_actions (action_type, periodo_id, admin_id, admin_nombre,
			responsable_id, responsable_afectado, reporte_nombre, motivo, comentarios,
			estado_anterior, estado_resultante, files_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	var id int64
	err := r.db.QueryRow(ctx, q,
		string(a.ActionType), a.PeriodoID, a.AdminID, a.AdminNombre,
		a.ResponsableID, a.ResponsableAfectado, a.ReporteNombre, a.Motivo, a.Comentarios,
		a.EstadoAnterior, a.EstadoResultante, a.FilesCount, a.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insertar admin action: %w", err)
	}
	return id, nil
}

func (r *repository) GetAction(ctx context.Context, id int64) (*AdminAction, error) {
	q := `SELECT ` + actionColumns + ` FROM admin_actions a WHERE a.id = $1`
	a, err := scanAction(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("consultar admin action: %w", err)
	}
	return a, nil
}

func filterClause(req ListActionsRequest) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if req.AdminID != nil {
		clauses = append(clauses, "a.admin_id = "+arg(*req.AdminID))
	}
	if req.ActionType != nil {
		clauses = append(clauses, "a.action_type = "+arg(string(*req.ActionType)))
	}
	if req.PeriodoID != nil {
		clauses = append(clauses, "a.periodo_id = "+arg(*req.PeriodoID))
	}
	if req.StartDate != nil {
		clauses = append(clauses, "a.created_at >= "+arg(*req.StartDate))
	}
	if req.EndDate != nil {
		clauses = append(clauses, "a.created_at < "+arg(*req.EndDate))
	}
	return strings.Join(clauses, " AND "), args
}

// Listings order by (created_at, id) descending so pages never shift while an
// insert lands between requests.
const actionOrder = ` ORDER BY a.created_at DESC, a.id DESC`

func (r *repository) ListActions(ctx context.Context, req ListActionsRequest, limit, offset int) ([]AdminAction, error) {
	where, args := filterClause(req)
	q := `SELECT ` + actionColumns + ` FROM admin_actions a WHERE ` + where + actionOrder +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return r.queryActions(ctx, q, args)
}

func (r *repository) ListAllActions(ctx context.Context, req ListActionsRequest) ([]AdminAction, error) {
	where, args := filterClause(req)
	q := `SELECT ` + actionColumns + ` FROM admin_actions a WHERE ` + where + actionOrder
	return r.queryActions(ctx, q, args)
}

func (r *repository) ListPorPeriodo(ctx context.Context, periodoID int64) ([]AdminAction, error) {
	q := `SELECT ` + actionColumns + ` FROM admin_actions a WHERE a.periodo_id = $1` + actionOrder
	return r.queryActions(ctx, q, []any{periodoID})
}

func (r *repository) queryActions(ctx context.Context, q string, args []any) ([]AdminAction, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listar admin actions: %w", err)
	}
	defer rows.Close()
	var out []AdminAction
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("leer admin action: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ContextoPeriodo resolves the display names frozen into the audit record.
func (r *repository) ContextoPeriodo(ctx context.Context, periodoID, responsableID int64) (string, string, error) {
	const q = `
		SELECT r.nombre, COALESCE(u.nombre, '')
		FROM reporte_periodos p
		JOIN reportes r ON r.id = p.reporte_id
		LEFT JOIN usuarios u ON u.id = $2
		WHERE p.id = $1`
	var reporte, responsable string
	err := r.db.QueryRow(ctx, q, periodoID, responsableID).Scan(&reporte, &responsable)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", periodos.ErrNotFound
		}
		return "", "", fmt.Errorf("contexto de periodo: %w", err)
	}
	return reporte, responsable, nil
}

// ActualizarPeriodo writes the override transition guarded on the state it
// was computed from, so a concurrent transition rolls the override back
// instead of overwriting it.
func (r *repository) ActualizarPeriodo(ctx context.Context, periodoID int64, desde, hacia periodos.Estado, fechaEnvio time.Time, desviacion int) error {
	const q = `
		UPDATE reporte_periodos
		SET estado = $3, fecha_envio_real = $4, dias_desviacion = $5, updated_at = now()
		WHERE id = $1 AND estado = $2`
	tag, err := r.db.Exec(ctx, q, periodoID, string(desde), string(hacia), fechaEnvio, desviacion)
	if err != nil {
		return fmt.Errorf("actualizar periodo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var existe bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reporte_periodos WHERE id = $1)`, periodoID).Scan(&existe); err != nil {
			return fmt.Errorf("actualizar periodo: %w", err)
		}
		if !existe {
			return periodos.ErrNotFound
		}
		return periodos.ErrEstadoCambiado
	}
	return nil
}

func (r *repository) InsertComentario(ctx context.Context, c periodos.Comentario) error {
	const q = `
		INSERT INTO periodo_comentarios (periodo_id, autor, cargo, accion, texto, fecha)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, q, c.PeriodoID, c.Autor, c.Cargo, c.Accion, c.Texto, c.Fecha)
	if err != nil {
		return fmt.Errorf("insertar comentario: %w", err)
	}
	return nil
}

func (r *repository) VincularArchivos(ctx context.Context, periodoID int64, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `UPDATE archivos SET periodo_id = $1 WHERE id = ANY($2) AND periodo_id IS NULL`
	tag, err := r.db.Exec(ctx, q, periodoID, ids)
	if err != nil {
		return fmt.Errorf("vincular archivos: %w", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("vincular archivos: %d de %d vinculados", tag.RowsAffected(), len(ids))
	}
	return nil
}
