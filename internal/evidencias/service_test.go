package evidencias

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reto-gober/regulatoria/internal/periodos"
	"github.com/reto-gober/regulatoria/internal/shared"
)

type memRepo struct {
	archivos map[string]*Archivo
}

func newMemRepo() *memRepo {
	return &memRepo{archivos: make(map[string]*Archivo)}
}

func (m *memRepo) Insert(ctx context.Context, a Archivo) error {
	m.archivos[a.ID] = &a
	return nil
}

func (m *memRepo) Get(ctx context.Context, id string) (*Archivo, error) {
	a, ok := m.archivos[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (m *memRepo) Delete(ctx context.Context, id string) error {
	a, ok := m.archivos[id]
	if !ok || a.PeriodoID != nil {
		return ErrNotFound
	}
	delete(m.archivos, id)
	return nil
}

var _ Repository = (*memRepo)(nil)

type memBlobs struct {
	blobs map[string][]byte
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: make(map[string][]byte)}
}

func (m *memBlobs) Put(ctx context.Context, data []byte) (string, error) {
	key, _ := hashKey(data)
	m.blobs[key] = data
	return key, nil
}

func (m *memBlobs) Fetch(ctx context.Context, key string) ([]byte, error) {
	data, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (m *memBlobs) Remove(ctx context.Context, key string) error {
	delete(m.blobs, key)
	return nil
}

func uploader() periodos.Actor {
	return periodos.Actor{ID: 21, Nombre: "Laura Pinzón", Rol: shared.RolResponsable}
}

func newTestService(repo Repository, blobs BlobStore) *Service {
	svc := NewService(repo, blobs, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestSubirDocumento(t *testing.T) {
	repo := newMemRepo()
	blobs := newMemBlobs()
	svc := newTestService(repo, blobs)

	a, err := svc.Subir(context.Background(), uploader(), periodos.SlotDocumento, "reporte-enero.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "application/pdf", a.MimeType)
	assert.Equal(t, int64(8), a.TamanoBytes)
	assert.Equal(t, periodos.SlotDocumento, a.Slot)

	data, err := blobs.Fetch(context.Background(), a.RutaAlmacen)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), data)
}

func TestSubirNormalizaNombreNFC(t *testing.T) {
	svc := newTestService(newMemRepo(), newMemBlobs())

	// "és" typed on macOS arrives decomposed (e + combining acute).
	decompuesto := "acta-revisión.pdf"
	a, err := svc.Subir(context.Background(), uploader(), periodos.SlotEvidencia, decompuesto, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "acta-revisión.pdf", a.NombreOriginal)
	assert.NotEqual(t, decompuesto, a.NombreOriginal)
}

func TestSubirRechazaExtension(t *testing.T) {
	svc := newTestService(newMemRepo(), newMemBlobs())

	_, err := svc.Subir(context.Background(), uploader(), periodos.SlotDocumento, "reporte.exe", []byte("MZ"))
	require.ErrorIs(t, err, periodos.ErrTipoArchivoNoPermitido)

	// zip is evidence-only.
	_, err = svc.Subir(context.Background(), uploader(), periodos.SlotDocumento, "reporte.zip", []byte("PK"))
	require.ErrorIs(t, err, periodos.ErrTipoArchivoNoPermitido)
}

func TestSubirRechazaTamano(t *testing.T) {
	svc := newTestService(newMemRepo(), newMemBlobs())

	grande := []byte(strings.Repeat("a", periodos.MaxTamanoArchivo+1))
	_, err := svc.Subir(context.Background(), uploader(), periodos.SlotEvidencia, "captura.png", grande)
	require.ErrorIs(t, err, periodos.ErrArchivoMuyGrande)
}

func TestEliminarSoloPropietarioOAdmin(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, newMemBlobs())

	a, err := svc.Subir(context.Background(), uploader(), periodos.SlotEvidencia, "captura.png", []byte("x"))
	require.NoError(t, err)

	otro := periodos.Actor{ID: 99, Rol: shared.RolResponsable}
	err = svc.Eliminar(context.Background(), a.ID, otro)
	require.ErrorIs(t, err, shared.ErrRolNoAutorizado)

	admin := periodos.Actor{ID: 99, Rol: shared.RolAdmin}
	require.NoError(t, svc.Eliminar(context.Background(), a.ID, admin))

	_, err = repo.Get(context.Background(), a.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEliminarArchivoVinculado(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, newMemBlobs())

	a, err := svc.Subir(context.Background(), uploader(), periodos.SlotEvidencia, "captura.png", []byte("x"))
	require.NoError(t, err)
	periodoID := int64(7)
	repo.archivos[a.ID].PeriodoID = &periodoID

	err = svc.Eliminar(context.Background(), a.ID, uploader())
	require.ErrorIs(t, err, ErrArchivoVinculado)
}

type memVinculador struct {
	estados    map[int64]periodos.Estado
	vinculados map[int64][]string
}

func newMemVinculador(estados map[int64]periodos.Estado) *memVinculador {
	return &memVinculador{estados: estados, vinculados: make(map[int64][]string)}
}

func (m *memVinculador) Get(ctx context.Context, id int64) (*periodos.ReportePeriodo, error) {
	estado, ok := m.estados[id]
	if !ok {
		return nil, periodos.ErrNotFound
	}
	return &periodos.ReportePeriodo{PeriodoID: id, Estado: estado}, nil
}

func (m *memVinculador) VincularArchivos(ctx context.Context, periodoID int64, ids []string) error {
	m.vinculados[periodoID] = append(m.vinculados[periodoID], ids...)
	return nil
}

func TestAdjuntarAPeriodo(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, newMemBlobs())
	vinc := newMemVinculador(map[int64]periodos.Estado{7: periodos.EstadoPendiente})
	svc.ConVinculador(vinc)

	a, err := svc.AdjuntarAPeriodo(context.Background(), uploader(), 7, periodos.SlotEvidencia, "captura.png", []byte("x"))
	require.NoError(t, err)
	require.NotNil(t, a.PeriodoID)
	assert.Equal(t, int64(7), *a.PeriodoID)
	assert.Equal(t, []string{a.ID}, vinc.vinculados[7])
}

func TestAdjuntarAPeriodoCerrado(t *testing.T) {
	svc := newTestService(newMemRepo(), newMemBlobs())
	svc.ConVinculador(newMemVinculador(map[int64]periodos.Estado{7: periodos.EstadoAprobado}))

	_, err := svc.AdjuntarAPeriodo(context.Background(), uploader(), 7, periodos.SlotEvidencia, "captura.png", []byte("x"))
	require.ErrorIs(t, err, ErrPeriodoCerrado)

	_, err = svc.AdjuntarAPeriodo(context.Background(), uploader(), 99, periodos.SlotEvidencia, "captura.png", []byte("x"))
	require.ErrorIs(t, err, periodos.ErrNotFound)
}

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	key, err := store.Put(context.Background(), []byte("contenido"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "sha256:"))

	// Idempotent put.
	key2, err := store.Put(context.Background(), []byte("contenido"))
	require.NoError(t, err)
	assert.Equal(t, key, key2)

	data, err := store.Fetch(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, []byte("contenido"), data)

	require.NoError(t, store.Remove(context.Background(), key))
	_, err = store.Fetch(context.Background(), key)
	require.ErrorIs(t, err, ErrNotFound)
}
