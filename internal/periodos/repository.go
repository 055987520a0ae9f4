package periodos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reto-gober/regulatoria/internal/platform/db"
)

var ErrNotFound = errors.New("periodo no encontrado")

// ErrEstadoCambiado reports that the period left the state a transition was
// computed from before the write landed. The caller re-reads and retries.
var ErrEstadoCambiado = errors.New("el periodo cambió de estado, recargue e intente de nuevo")

// Repository defines persistence operations for report periods.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*ReportePeriodo, error)
	GetDetalle(ctx context.Context, id int64) (*ReportePeriodoDetalle, error)
	List(ctx context.Context, req ListPeriodosRequest) ([]ReportePeriodo, int, error)
	ListVencibles(ctx context.Context, corte time.Time) ([]ReportePeriodo, error)
	ActualizarTransicion(ctx context.Context, id int64, desde, hacia Estado, fechaEnvio *time.Time, diasDesviacion *int) error
	InsertComentario(ctx context.Context, c Comentario) error
	ListComentarios(ctx context.Context, periodoID int64) ([]Comentario, error)
	ArchivosPorIDs(ctx context.Context, ids []string) ([]Adjunto, error)
	VincularArchivos(ctx context.Context, periodoID int64, ids []string) error
	ArchivosDePeriodo(ctx context.Context, periodoID int64) ([]Adjunto, error)
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

const periodoColumns = `p.id, p.reporte_id, p.entidad_id, p.periodo_inicio, p.periodo_fin,
	p.frecuencia, p.fecha_vencimiento_calculada, p.estado, p.fecha_envio_real,
	p.dias_desviacion, p.responsable_elaboracion_id, p.responsable_supervision_id,
	p.created_at, p.updated_at`

func scanPeriodo(row pgx.Row) (*ReportePeriodo, error) {
	var p ReportePeriodo
	var inicio, fin pgtype.Date
	var venc, envio, createdAt, updatedAt pgtype.Timestamptz
	var desviacion pgtype.Int4
	err := row.Scan(
		&p.PeriodoID, &p.ReporteID, &p.EntidadID, &inicio, &fin,
		&p.Frecuencia, &venc, &p.Estado, &envio,
		&desviacion, &p.ResponsableElaboracionID, &p.ResponsableSupervisionID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if inicio.Valid {
		p.PeriodoInicio = inicio.Time
	}
	if fin.Valid {
		p.PeriodoFin = fin.Time
	}
	if venc.Valid {
		p.FechaVencimientoCalculada = venc.Time
	}
	if envio.Valid {
		val := envio.Time
		p.FechaEnvioReal = &val
	}
	if desviacion.Valid {
		val := int(desviacion.Int32)
		p.DiasDesviacion = &val
	}
	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return &p, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*ReportePeriodo, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM reporte_periodos p WHERE p.id = $1`, periodoColumns), id)
	return scanPeriodo(row)
}

func (r *repository) GetDetalle(ctx context.Context, id int64) (*ReportePeriodoDetalle, error) {
	query := fmt.Sprintf(`SELECT %s, r.nombre AS reporte_nombre, e.nombre AS entidad_nombre
		FROM reporte_periodos p
		JOIN reportes r ON p.reporte_id = r.id
		JOIN entidades e ON p.entidad_id = e.id
		WHERE p.id = $1`, periodoColumns)

	var d ReportePeriodoDetalle
	var inicio, fin pgtype.Date
	var venc, envio, createdAt, updatedAt pgtype.Timestamptz
	var desviacion pgtype.Int4
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.PeriodoID, &d.ReporteID, &d.EntidadID, &inicio, &fin,
		&d.Frecuencia, &venc, &d.Estado, &envio,
		&desviacion, &d.ResponsableElaboracionID, &d.ResponsableSupervisionID,
		&createdAt, &updatedAt,
		&d.ReporteNombre, &d.EntidadNombre,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if inicio.Valid {
		d.PeriodoInicio = inicio.Time
	}
	if fin.Valid {
		d.PeriodoFin = fin.Time
	}
	if venc.Valid {
		d.FechaVencimientoCalculada = venc.Time
	}
	if envio.Valid {
		val := envio.Time
		d.FechaEnvioReal = &val
	}
	if desviacion.Valid {
		val := int(desviacion.Int32)
		d.DiasDesviacion = &val
	}
	if createdAt.Valid {
		d.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		d.UpdatedAt = updatedAt.Time
	}

	archivos, err := r.ArchivosDePeriodo(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Archivos = archivos

	comentarios, err := r.ListComentarios(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Comentarios = comentarios
	return &d, nil
}

func (r *repository) List(ctx context.Context, req ListPeriodosRequest) ([]ReportePeriodo, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.EntidadID != nil {
		conditions = append(conditions, fmt.Sprintf("p.entidad_id = $%d", argPos))
		args = append(args, *req.EntidadID)
		argPos++
	}
	if req.ReporteID != nil {
		conditions = append(conditions, fmt.Sprintf("p.reporte_id = $%d", argPos))
		args = append(args, *req.ReporteID)
		argPos++
	}
	if req.Estado != nil {
		conditions = append(conditions, fmt.Sprintf("p.estado = $%d", argPos))
		args = append(args, string(*req.Estado))
		argPos++
	}
	if req.DesdeFin != nil {
		conditions = append(conditions, fmt.Sprintf("p.periodo_fin >= $%d", argPos))
		args = append(args, *req.DesdeFin)
		argPos++
	}
	if req.HastaFin != nil {
		conditions = append(conditions, fmt.Sprintf("p.periodo_fin <= $%d", argPos))
		args = append(args, *req.HastaFin)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM reporte_periodos p %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := req.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * perPage

	query := fmt.Sprintf(`SELECT %s FROM reporte_periodos p %s
		ORDER BY p.periodo_fin DESC, p.id DESC
		LIMIT $%d OFFSET $%d`, periodoColumns, whereClause, argPos, argPos+1)
	args = append(args, perPage, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var periodos []ReportePeriodo
	for rows.Next() {
		p, err := scanPeriodo(rows)
		if err != nil {
			return nil, 0, err
		}
		periodos = append(periodos, *p)
	}
	return periodos, total, rows.Err()
}

func (r *repository) ListVencibles(ctx context.Context, corte time.Time) ([]ReportePeriodo, error) {
	query := fmt.Sprintf(`SELECT %s FROM reporte_periodos p
		WHERE p.estado IN ('pendiente', 'en_elaboracion', 'requiere_correccion')
		AND p.fecha_vencimiento_calculada < $1
		ORDER BY p.id`, periodoColumns)
	rows, err := r.db.Query(ctx, query, corte)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periodos []ReportePeriodo
	for rows.Next() {
		p, err := scanPeriodo(rows)
		if err != nil {
			return nil, err
		}
		periodos = append(periodos, *p)
	}
	return periodos, rows.Err()
}

// ActualizarTransicion writes the new state guarded on the state the
// transition was computed from. A concurrent transition makes the guard miss
// and the whole transaction rolls back instead of landing on a stale estado.
func (r *repository) ActualizarTransicion(ctx context.Context, id int64, desde, hacia Estado, fechaEnvio *time.Time, diasDesviacion *int) error {
	var envio pgtype.Timestamptz
	if fechaEnvio != nil {
		envio = pgtype.Timestamptz{Time: *fechaEnvio, Valid: true}
	}
	var desviacion pgtype.Int4
	if diasDesviacion != nil {
		desviacion = pgtype.Int4{Int32: int32(*diasDesviacion), Valid: true}
	}
	tag, err := r.db.Exec(ctx, `UPDATE reporte_periodos
		SET estado = $3,
		    fecha_envio_real = COALESCE($4, fecha_envio_real),
		    dias_desviacion = COALESCE($5, dias_desviacion),
		    updated_at = NOW()
		WHERE id = $1 AND estado = $2`, id, string(desde), string(hacia), envio, desviacion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var existe bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reporte_periodos WHERE id = $1)`, id).Scan(&existe); err != nil {
			return err
		}
		if !existe {
			return ErrNotFound
		}
		return ErrEstadoCambiado
	}
	return nil
}

func (r *repository) InsertComentario(ctx context.Context, c Comentario) error {
	_, err := r.db.Exec(ctx, `INSERT INTO periodo_comentarios (periodo_id, autor, cargo, accion, texto, fecha)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`,
		c.PeriodoID, c.Autor, c.Cargo, c.Accion, c.Texto, nullableTime(c.Fecha))
	return err
}

func (r *repository) ListComentarios(ctx context.Context, periodoID int64) ([]Comentario, error) {
	rows, err := r.db.Query(ctx, `SELECT id, periodo_id, autor, cargo, accion, texto, fecha
		FROM periodo_comentarios WHERE periodo_id = $1 ORDER BY fecha ASC, id ASC`, periodoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comentarios []Comentario
	for rows.Next() {
		var c Comentario
		var fecha pgtype.Timestamptz
		if err := rows.Scan(&c.ID, &c.PeriodoID, &c.Autor, &c.Cargo, &c.Accion, &c.Texto, &fecha); err != nil {
			return nil, err
		}
		if fecha.Valid {
			c.Fecha = fecha.Time
		}
		comentarios = append(comentarios, c)
	}
	return comentarios, rows.Err()
}

const adjuntoColumns = `a.id, a.nombre_original, a.mime_type, a.tamano_bytes, a.slot, a.subido_por, a.subido_en, a.url_publica, a.periodo_id`

func scanAdjuntos(rows pgx.Rows) ([]Adjunto, error) {
	defer rows.Close()
	var adjuntos []Adjunto
	for rows.Next() {
		var a Adjunto
		var subidoEn pgtype.Timestamptz
		var url pgtype.Text
		var periodoID pgtype.Int8
		if err := rows.Scan(&a.ArchivoID, &a.NombreOriginal, &a.MimeType, &a.TamanoBytes, &a.Slot, &a.SubidoPor, &subidoEn, &url, &periodoID); err != nil {
			return nil, err
		}
		if subidoEn.Valid {
			a.SubidoEn = subidoEn.Time
		}
		if url.Valid {
			val := url.String
			a.URLPublica = &val
		}
		if periodoID.Valid {
			val := periodoID.Int64
			a.PeriodoID = &val
		}
		adjuntos = append(adjuntos, a)
	}
	return adjuntos, rows.Err()
}

func (r *repository) ArchivosPorIDs(ctx context.Context, ids []string) ([]Adjunto, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM archivos a WHERE a.id = ANY($1)`, adjuntoColumns), ids)
	if err != nil {
		return nil, err
	}
	return scanAdjuntos(rows)
}

func (r *repository) VincularArchivos(ctx context.Context, periodoID int64, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tag, err := r.db.Exec(ctx, `UPDATE archivos SET periodo_id = $1
		WHERE id = ANY($2) AND (periodo_id IS NULL OR periodo_id = $1)`, periodoID, ids)
	if err != nil {
		return err
	}
	if int(tag.RowsAffected()) != len(ids) {
		return fmt.Errorf("vincular archivos: %d de %d vinculados", tag.RowsAffected(), len(ids))
	}
	return nil
}

func (r *repository) ArchivosDePeriodo(ctx context.Context, periodoID int64) ([]Adjunto, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM archivos a WHERE a.periodo_id = $1 ORDER BY a.subido_en ASC`, adjuntoColumns), periodoID)
	if err != nil {
		return nil, err
	}
	return scanAdjuntos(rows)
}

func nullableTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
