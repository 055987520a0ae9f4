package evidencias

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/reto-gober/regulatoria/internal/periodos"
	"github.com/reto-gober/regulatoria/internal/shared"
)

// ErrArchivoVinculado rejects deleting a file already bound to a submission.
var ErrArchivoVinculado = errors.New("archivo vinculado a un envío")

// ErrPeriodoCerrado rejects attaching files to a period already in a terminal
// state.
var ErrPeriodoCerrado = errors.New("el periodo está cerrado")

// Vinculador binds stored files to a report period. Satisfied by
// periodos.Repository.
type Vinculador interface {
	Get(ctx context.Context, id int64) (*periodos.ReportePeriodo, error)
	VincularArchivos(ctx context.Context, periodoID int64, ids []string) error
}

// Service handles artifact upload, download and deletion. Files are validated
// at upload with the same per-file rules the submission validator applies, so
// a stored file can never fail submission on extension or size.
type Service struct {
	repo     Repository
	blobs    BlobStore
	periodos Vinculador
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, blobs BlobStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, blobs: blobs, logger: logger, now: time.Now}
}

// ConVinculador enables attaching uploads directly to a report period.
func (s *Service) ConVinculador(v Vinculador) *Service {
	s.periodos = v
	return s
}

// Subir validates and stores one file, returning its metadata. The original
// filename is normalized to NFC so macOS uploads compare equal to their
// Windows counterparts in listings and validation.
func (s *Service) Subir(ctx context.Context, actor periodos.Actor, slot periodos.Slot, nombre string, data []byte) (*Archivo, error) {
	nombre = norm.NFC.String(strings.TrimSpace(nombre))
	candidato := periodos.ArchivoCandidato{Nombre: nombre, Tamano: int64(len(data)), Slot: slot}
	if err := periodos.ValidarArchivo(candidato); err != nil {
		return nil, err
	}

	key, err := s.blobs.Put(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("almacenar archivo: %w", err)
	}

	a := Archivo{
		ID:             uuid.NewString(),
		NombreOriginal: nombre,
		MimeType:       mimeDe(nombre),
		TamanoBytes:    int64(len(data)),
		Slot:           slot,
		RutaAlmacen:    key,
		SubidoPor:      actor.ID,
		SubidoEn:       s.now(),
	}
	if err := s.repo.Insert(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("archivo subido",
		slog.String("archivo_id", a.ID),
		slog.String("slot", string(slot)),
		slog.Int64("bytes", a.TamanoBytes))
	return &a, nil
}

// AdjuntarAPeriodo stores one file and binds it to the given period in a
// single operation. Closed periods no longer accept attachments; the file
// becomes immutable once bound.
func (s *Service) AdjuntarAPeriodo(ctx context.Context, actor periodos.Actor, periodoID int64, slot periodos.Slot, nombre string, data []byte) (*Archivo, error) {
	if s.periodos == nil {
		return nil, errors.New("vinculación de periodos no configurada")
	}
	p, err := s.periodos.Get(ctx, periodoID)
	if err != nil {
		return nil, err
	}
	if p.Estado.Terminal() {
		return nil, ErrPeriodoCerrado
	}

	a, err := s.Subir(ctx, actor, slot, nombre, data)
	if err != nil {
		return nil, err
	}
	if err := s.periodos.VincularArchivos(ctx, periodoID, []string{a.ID}); err != nil {
		return nil, fmt.Errorf("vincular archivo %s: %w", a.ID, err)
	}
	a.PeriodoID = &periodoID
	return a, nil
}

// Descargar returns the metadata and bytes of a stored file.
func (s *Service) Descargar(ctx context.Context, id string) (*Archivo, []byte, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.blobs.Fetch(ctx, a.RutaAlmacen)
	if err != nil {
		return nil, nil, err
	}
	return a, data, nil
}

// Eliminar removes an unlinked file. Only the uploader or an admin may delete;
// files already bound to a submission are immutable. Blobs are shared between
// identical uploads, so only the metadata row is removed.
func (s *Service) Eliminar(ctx context.Context, id string, actor periodos.Actor) error {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if actor.Rol != shared.RolAdmin && a.SubidoPor != actor.ID {
		return shared.ErrRolNoAutorizado
	}
	if a.PeriodoID != nil {
		return ErrArchivoVinculado
	}
	return s.repo.Delete(ctx, id)
}

func mimeDe(nombre string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(nombre))); t != "" {
		return t
	}
	return "application/octet-stream"
}
