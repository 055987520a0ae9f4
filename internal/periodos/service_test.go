package periodos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reto-gober/regulatoria/internal/platform/cache"
	"github.com/reto-gober/regulatoria/internal/shared"
)

type mockRepository struct {
	periodos    map[int64]*ReportePeriodo
	archivos    map[string]Adjunto
	vinculados  map[int64][]string
	comentarios map[int64][]Comentario

	txError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		periodos:    make(map[int64]*ReportePeriodo),
		archivos:    make(map[string]Adjunto),
		vinculados:  make(map[int64][]string),
		comentarios: make(map[int64][]Comentario),
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*ReportePeriodo, error) {
	p, ok := m.periodos[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *mockRepository) GetDetalle(ctx context.Context, id int64) (*ReportePeriodoDetalle, error) {
	p, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ReportePeriodoDetalle{
		ReportePeriodo: *p,
		Comentarios:    m.comentarios[id],
	}, nil
}

func (m *mockRepository) List(ctx context.Context, req ListPeriodosRequest) ([]ReportePeriodo, int, error) {
	var out []ReportePeriodo
	for _, p := range m.periodos {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockRepository) ListVencibles(ctx context.Context, corte time.Time) ([]ReportePeriodo, error) {
	var out []ReportePeriodo
	for _, p := range m.periodos {
		switch p.Estado {
		case EstadoPendiente, EstadoEnElaboracion, EstadoRequiereCorreccion:
			if p.FechaVencimientoCalculada.Before(corte) {
				out = append(out, *p)
			}
		}
	}
	return out, nil
}

func (m *mockRepository) ActualizarTransicion(ctx context.Context, id int64, desde, hacia Estado, fechaEnvio *time.Time, diasDesviacion *int) error {
	p, ok := m.periodos[id]
	if !ok {
		return ErrNotFound
	}
	if p.Estado != desde {
		return ErrEstadoCambiado
	}
	p.Estado = hacia
	if fechaEnvio != nil {
		v := *fechaEnvio
		p.FechaEnvioReal = &v
	}
	if diasDesviacion != nil {
		v := *diasDesviacion
		p.DiasDesviacion = &v
	}
	return nil
}

func (m *mockRepository) InsertComentario(ctx context.Context, c Comentario) error {
	m.comentarios[c.PeriodoID] = append(m.comentarios[c.PeriodoID], c)
	return nil
}

func (m *mockRepository) ListComentarios(ctx context.Context, periodoID int64) ([]Comentario, error) {
	return m.comentarios[periodoID], nil
}

func (m *mockRepository) ArchivosPorIDs(ctx context.Context, ids []string) ([]Adjunto, error) {
	var out []Adjunto
	for _, id := range ids {
		if a, ok := m.archivos[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepository) VincularArchivos(ctx context.Context, periodoID int64, ids []string) error {
	m.vinculados[periodoID] = append(m.vinculados[periodoID], ids...)
	return nil
}

func (m *mockRepository) ArchivosDePeriodo(ctx context.Context, periodoID int64) ([]Adjunto, error) {
	var out []Adjunto
	for _, id := range m.vinculados[periodoID] {
		out = append(out, m.archivos[id])
	}
	return out, nil
}

var _ Repository = (*mockRepository)(nil)

const (
	docID = "8d7f0a9e-1111-4aaa-bbbb-000000000001"
	evID  = "8d7f0a9e-1111-4aaa-bbbb-000000000002"
)

func seedPeriodo(repo *mockRepository, estado Estado) *ReportePeriodo {
	p := &ReportePeriodo{
		PeriodoID:                 1,
		ReporteID:                 7,
		EntidadID:                 3,
		PeriodoInicio:             time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		PeriodoFin:                time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		Frecuencia:                FrecuenciaMensual,
		FechaVencimientoCalculada: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Estado:                    estado,
		ResponsableElaboracionID:  21,
		ResponsableSupervisionID:  22,
	}
	repo.periodos[1] = p
	repo.archivos[docID] = Adjunto{ArchivoID: docID, NombreOriginal: "reporte.pdf", TamanoBytes: 2048, Slot: SlotDocumento}
	repo.archivos[evID] = Adjunto{ArchivoID: evID, NombreOriginal: "soporte.jpg", TamanoBytes: 1024, Slot: SlotEvidencia}
	return p
}

func fixedService(repo Repository, ahora time.Time) *Service {
	svc := NewService(repo, cache.NewTTL(time.Minute), nil)
	svc.now = func() time.Time { return ahora }
	return svc
}

func responsable() Actor {
	return Actor{ID: 21, Nombre: "Laura Pinzón", Cargo: "Analista", Rol: shared.RolResponsable}
}

func supervisor() Actor {
	return Actor{ID: 22, Nombre: "Mario Ruiz", Cargo: "Supervisor", Rol: shared.RolSupervisor}
}

func TestEnviarATiempo(t *testing.T) {
	repo := newMockRepository()
	seedPeriodo(repo, EstadoPendiente)
	svc := fixedService(repo, time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC))

	detalle, err := svc.Enviar(context.Background(), 1, responsable(), EnviarRequest{
		DocumentoID:   docID,
		EvidenciasIDs: []string{evID},
	})
	require.NoError(t, err)
	assert.Equal(t, EstadoEnviadoATiempo, detalle.Estado)
	require.NotNil(t, detalle.DiasDesviacion)
	assert.Equal(t, 0, *detalle.DiasDesviacion)
	require.NotNil(t, detalle.FechaEnvioReal)
	assert.Len(t, repo.vinculados[1], 2)
	require.Len(t, repo.comentarios[1], 1)
	assert.Equal(t, string(EventoEnviar), repo.comentarios[1][0].Accion)
	assert.Equal(t, "Laura Pinzón", repo.comentarios[1][0].Autor)
}

func TestEnviarTardeRegistraDesviacion(t *testing.T) {
	repo := newMockRepository()
	seedPeriodo(repo, EstadoPendiente)
	svc := fixedService(repo, time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC))

	detalle, err := svc.Enviar(context.Background(), 1, responsable(), EnviarRequest{
		DocumentoID:   docID,
		EvidenciasIDs: []string{evID},
	})
	require.NoError(t, err)
	assert.Equal(t, EstadoEnviadoTarde, detalle.Estado)
	require.NotNil(t, detalle.DiasDesviacion)
	assert.Equal(t, 2, *detalle.DiasDesviacion)
}

func TestEnviarSinEvidenciasNoMuta(t *testing.T) {
	repo := newMockRepository()
	seedPeriodo(repo, EstadoPendiente)
	svc := fixedService(repo, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))

	_, err := svc.Enviar(context.Background(), 1, responsable(), EnviarRequest{
		DocumentoID:   docID,
		EvidenciasIDs: []string{"8d7f0a9e-0000-4aaa-bbbb-00000000dead"},
	})
	require.ErrorIs(t, err, ErrFaltaArtefacto)
	assert.Equal(t, EstadoPendiente, repo.periodos[1].Estado)
	assert.Nil(t, repo.periodos[1].FechaEnvioReal)
	assert.Empty(t, repo.vinculados[1])
	assert.Empty(t, repo.comentarios[1])
}

func TestEnviarDesdeEstadoInvalido(t *testing.T) {
	repo := newMockRepository()
	seedPeriodo(repo, EstadoAprobado)
	svc := fixedService(repo, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))

	_, err := svc.Enviar(context.Background(), 1, responsable(), EnviarRequest{
		DocumentoID:   docID,
		EvidenciasIDs: []string{evID},
	})
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, EstadoAprobado, repo.periodos[1].Estado)
}

func TestCorregirReenviarDesdeCorreccion(t *testing.T) {
	repo := newMockRepository()
	seedPeriodo(repo, EstadoRequiereCorreccion)
	svc := fixedService(repo, time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC))

	detalle, err := svc.CorregirReenviar(context.Background(), 1, responsable(), EnviarRequest{
		DocumentoID:   docID,
		EvidenciasIDs: []string{evID},
	})
	require.NoError(t, err)
	assert.Equal(t, EstadoEnviadoATiempo, detalle.Estado)
	require.NotNil(t, detalle.DiasDesviacion)
	assert.Equal(t, -2, *detalle.DiasDesviacion)
}

func TestAprobarDirectoDesdeEnviado(t *testing.T) {
	repo := newMockRepository()
	seedPeriodo(repo, EstadoEnviadoTarde)
	svc := fixedService(repo, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))

	nota := "revisado sin observaciones"
	detalle, err := svc.Aprobar(context.Background(), 1, supervisor(), RevisionRequest{Comentarios: &nota})
	require.NoError(t, err)
	assert.Equal(t, EstadoAprobado, detalle.Estado)
	require.Len(t, repo.comentarios[1], 1)
	assert.Equal(t, nota, repo.comentarios[1][0].Texto)
}

func TestRevisionNoTocaFechaEnvio(t *testing.T) {
	repo := newMockRepository()
	p := seedPeriodo(repo, EstadoEnviadoATiempo)
	envio := time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)
	desv := -1
	p.FechaEnvioReal = &envio
	p.DiasDesviacion = &desv
	svc := fixedService(repo, time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC))

	_, err := svc.IniciarRevision(context.Background(), 1, supervisor(), RevisionRequest{})
	require.NoError(t, err)
	assert.Equal(t, envio, *repo.periodos[1].FechaEnvioReal)
	assert.Equal(t, -1, *repo.periodos[1].DiasDesviacion)
}

func TestRevisionPorResponsableProhibida(t *testing.T) {
	repo := newMockRepository()
	seedPeriodo(repo, EstadoEnviadoATiempo)
	svc := fixedService(repo, time.Now())

	_, err := svc.Aprobar(context.Background(), 1, responsable(), RevisionRequest{})
	require.ErrorIs(t, err, shared.ErrRolNoAutorizado)
	assert.Equal(t, EstadoEnviadoATiempo, repo.periodos[1].Estado)
}

func TestMarcarVencidosHasta(t *testing.T) {
	repo := newMockRepository()
	seedPeriodo(repo, EstadoPendiente)
	repo.periodos[2] = &ReportePeriodo{
		PeriodoID:                 2,
		Estado:                    EstadoEnviadoATiempo,
		FechaVencimientoCalculada: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	svc := fixedService(repo, time.Date(2025, 4, 1, 6, 0, 0, 0, time.UTC))

	count, err := svc.MarcarVencidosHasta(context.Background(), time.Date(2025, 4, 1, 6, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, EstadoVencido, repo.periodos[1].Estado)
	assert.Equal(t, EstadoEnviadoATiempo, repo.periodos[2].Estado)
}

// The worker runs the sweep without a cache; reads go straight to the repo.
func TestServiceSinCacheOperaDirecto(t *testing.T) {
	repo := newMockRepository()
	seedPeriodo(repo, EstadoPendiente)
	svc := NewService(repo, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 4, 1, 6, 0, 0, 0, time.UTC) }

	count, err := svc.MarcarVencidosHasta(context.Background(), time.Date(2025, 4, 1, 6, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	detalle, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, EstadoVencido, detalle.Estado)
}

// lecturaObsoletaRepo serves Get from a snapshot taken before another actor
// transitioned the period, while writes land on the shared backing repo.
type lecturaObsoletaRepo struct {
	*mockRepository
	snapshot ReportePeriodo
}

func (r *lecturaObsoletaRepo) Get(ctx context.Context, id int64) (*ReportePeriodo, error) {
	clone := r.snapshot
	return &clone, nil
}

func TestRevisionConcurrenteNoPisaEstadoTerminal(t *testing.T) {
	repo := newMockRepository()
	seedPeriodo(repo, EstadoEnviadoATiempo)
	ahora := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	// Both supervisors read enviado_a_tiempo before either decision commits.
	obsoleto := &lecturaObsoletaRepo{mockRepository: repo, snapshot: *repo.periodos[1]}

	_, err := fixedService(repo, ahora).Aprobar(context.Background(), 1, supervisor(), RevisionRequest{})
	require.NoError(t, err)
	assert.Equal(t, EstadoAprobado, repo.periodos[1].Estado)

	_, err = fixedService(obsoleto, ahora).Rechazar(context.Background(), 1, supervisor(), RevisionRequest{})
	require.ErrorIs(t, err, ErrEstadoCambiado)
	assert.Equal(t, EstadoAprobado, repo.periodos[1].Estado)
	require.Len(t, repo.comentarios[1], 1)
	assert.Equal(t, string(EventoAprobar), repo.comentarios[1][0].Accion)
}

func TestEnvioConcurrenteNoSeDuplica(t *testing.T) {
	repo := newMockRepository()
	seedPeriodo(repo, EstadoPendiente)
	ahora := time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)
	req := EnviarRequest{DocumentoID: docID, EvidenciasIDs: []string{evID}}

	obsoleto := &lecturaObsoletaRepo{mockRepository: repo, snapshot: *repo.periodos[1]}

	_, err := fixedService(repo, ahora).Enviar(context.Background(), 1, responsable(), req)
	require.NoError(t, err)

	_, err = fixedService(obsoleto, ahora).Enviar(context.Background(), 1, responsable(), req)
	require.ErrorIs(t, err, ErrEstadoCambiado)
	assert.NotErrorIs(t, err, ErrEnvioFallido)
	assert.Equal(t, EstadoEnviadoATiempo, repo.periodos[1].Estado)
	require.Len(t, repo.comentarios[1], 1)
}

func TestEnviarConArchivoDeOtroPeriodo(t *testing.T) {
	repo := newMockRepository()
	seedPeriodo(repo, EstadoPendiente)
	otro := int64(9)
	ajeno := repo.archivos[evID]
	ajeno.PeriodoID = &otro
	repo.archivos[evID] = ajeno
	svc := fixedService(repo, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))

	_, err := svc.Enviar(context.Background(), 1, responsable(), EnviarRequest{
		DocumentoID:   docID,
		EvidenciasIDs: []string{evID},
	})
	require.ErrorIs(t, err, ErrArchivoAjeno)
	assert.Equal(t, EstadoPendiente, repo.periodos[1].Estado)
	assert.Empty(t, repo.vinculados[1])
	assert.Empty(t, repo.comentarios[1])
}

func TestReenvioAceptaArchivosDelMismoPeriodo(t *testing.T) {
	repo := newMockRepository()
	seedPeriodo(repo, EstadoRequiereCorreccion)
	mismo := int64(1)
	doc := repo.archivos[docID]
	doc.PeriodoID = &mismo
	repo.archivos[docID] = doc
	svc := fixedService(repo, time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC))

	_, err := svc.CorregirReenviar(context.Background(), 1, responsable(), EnviarRequest{
		DocumentoID:   docID,
		EvidenciasIDs: []string{evID},
	})
	require.NoError(t, err)
	assert.Equal(t, EstadoEnviadoATiempo, repo.periodos[1].Estado)
}

func TestGetInvalidaCacheTrasEscritura(t *testing.T) {
	repo := newMockRepository()
	seedPeriodo(repo, EstadoPendiente)
	svc := fixedService(repo, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))

	antes, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, EstadoPendiente, antes.Estado)

	_, err = svc.Enviar(context.Background(), 1, responsable(), EnviarRequest{
		DocumentoID:   docID,
		EvidenciasIDs: []string{evID},
	})
	require.NoError(t, err)

	despues, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, EstadoEnviadoATiempo, despues.Estado)
}
