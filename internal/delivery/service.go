// Package delivery implements the delivery grid: loading the rows of a date
// range and saving an edited row set as a full replacement.
package delivery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sander-remitly/plandash/internal/apperr"
	"github.com/sander-remitly/plandash/internal/models"
	"github.com/sander-remitly/plandash/internal/validate"
	"go.uber.org/zap"
)

const msgReloadFailed = "The deliveries were saved but could not be reloaded."

// Gateway is the subset of the optimization service client the editor needs
type Gateway interface {
	Deliveries(ctx context.Context, start, end string) ([]models.DeliveryRow, error)
	SyncDeliveries(ctx context.Context, rows []models.DeliveryRow) (*models.SyncResponse, error)
}

// Journal records completed syncs
type Journal interface {
	RecordSync(start, end, fingerprint string, rows []models.DeliveryRow, inserted int) (int64, error)
}

// Service loads and saves delivery rows
type Service struct {
	gateway Gateway
	journal Journal
	log     *zap.Logger
}

// NewService creates a delivery editor. journal may be nil.
func NewService(gateway Gateway, journal Journal, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{gateway: gateway, journal: journal, log: log}
}

// Load returns the rows of [start, end] and their fingerprint
func (s *Service) Load(ctx context.Context, start, end string) (*models.DeliverySet, error) {
	if err := validate.DateRange("delivery.Load", start, end); err != nil {
		return nil, err
	}

	rows, err := s.gateway.Deliveries(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.DeliveryRow{}
	}

	return &models.DeliverySet{
		Range:       models.DateRange{Start: start, End: end},
		Rows:        rows,
		Fingerprint: Fingerprint(rows),
	}, nil
}

// Save replaces the rows of the range with req.Rows. Every row must be valid
// and dated inside the range. When req.Baseline is set, the stored rows must
// still match it or the save is refused with a conflict. The response holds
// the rows re-read from the service after the sync.
func (s *Service) Save(ctx context.Context, req models.DeliverySaveRequest) (*models.DeliverySaveResponse, error) {
	const op = "delivery.Save"

	if err := validate.DateRange(op, req.Start, req.End); err != nil {
		return nil, err
	}
	if err := validate.DeliveryRows(op, req.Rows); err != nil {
		return nil, err
	}
	for i, row := range req.Rows {
		if row.Date < req.Start || row.Date > req.End {
			return nil, apperr.Validation(op, fmt.Sprintf("row %d: date %s is outside %s..%s", i+1, row.Date, req.Start, req.End))
		}
	}

	if req.Baseline != "" {
		current, err := s.gateway.Deliveries(ctx, req.Start, req.End)
		if err != nil {
			return nil, err
		}
		if Fingerprint(current) != req.Baseline {
			s.log.Info("Refusing delivery save on stale rows",
				zap.String("start", req.Start),
				zap.String("end", req.End),
			)
			return nil, apperr.Conflict(op, "The deliveries changed since they were loaded. Reload them before saving.")
		}
	}

	rows := req.Rows
	if rows == nil {
		rows = []models.DeliveryRow{}
	}

	synced, err := s.gateway.SyncDeliveries(ctx, rows)
	if err != nil {
		return nil, err
	}

	fingerprint := Fingerprint(rows)
	if s.journal != nil {
		if _, err := s.journal.RecordSync(req.Start, req.End, fingerprint, rows, synced.Inserted); err != nil {
			s.log.Warn("Failed to journal delivery sync", zap.Error(err))
		}
	}

	s.log.Info("Deliveries synced",
		zap.String("start", req.Start),
		zap.String("end", req.End),
		zap.Int("rows", len(rows)),
		zap.Int("inserted", synced.Inserted),
	)

	current, err := s.Load(ctx, req.Start, req.End)
	if err != nil {
		s.log.Warn("Failed to reload deliveries after sync", zap.Error(err))
		kind := apperr.KindOf(err)
		if kind == "" {
			kind = apperr.KindServer
		}
		return nil, &apperr.Error{Kind: kind, Op: op, Message: msgReloadFailed, Err: err}
	}

	return &models.DeliverySaveResponse{
		Inserted: synced.Inserted,
		Message:  synced.Message,
		Current:  *current,
	}, nil
}

// Fingerprint hashes a row set independent of row order
func Fingerprint(rows []models.DeliveryRow) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, row.Date+"|"+row.PulpType+"|"+strconv.FormatFloat(row.Amount, 'g', -1, 64))
	}
	sort.Strings(lines)

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}
