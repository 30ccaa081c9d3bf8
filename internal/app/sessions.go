package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/acircuit-ctrlV/badminton-koun/internal/adapters/sheet"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/types"
	"github.com/acircuit-ctrlV/badminton-koun/internal/render"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/logger"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/metrics"
	"github.com/google/uuid"
)

// NewSession describes a session to create. Zero fields take defaults.
type NewSession struct {
	Label   string         `json:"label,omitempty"`
	Table   model.Table    `json:"table"`
	Tariffs *model.Tariffs `json:"tariffs,omitempty"`
}

// Calculation is the outcome of processing a table.
type Calculation struct {
	Table    model.Table   `json:"table"`
	Summary  types.Summary `json:"summary"`
	Warnings []string      `json:"warnings,omitempty"`
}

// File is a generated download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// CreateSession stores a new session and returns it.
func (s *Service) CreateSession(ctx context.Context, in NewSession) (model.Session, error) {
	st, err := s.sessions()
	if err != nil {
		return model.Session{}, err
	}

	now := s.now()
	sess := model.Session{
		ID:        uuid.NewString(),
		Label:     s.label(in.Label),
		Table:     in.Table,
		Tariffs:   s.defaultTariffs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if sess.Table.Len() == 0 {
		sess.Table = model.NewTable(model.MinRows)
	}
	if in.Tariffs != nil {
		sess.Tariffs = *in.Tariffs
	}

	if err := st.Create(ctx, sess); err != nil {
		return model.Session{}, fmt.Errorf("create session: %w", err)
	}
	metrics.RecordSessionCreated()
	s.logger.Info(ctx, "session created",
		logger.String("session", sess.ID),
		logger.String("label", sess.Label),
		logger.Int("rows", sess.Table.Len()),
	)
	return sess, nil
}

// Session returns the session with the given id.
func (s *Service) Session(ctx context.Context, id string) (model.Session, error) {
	st, err := s.sessions()
	if err != nil {
		return model.Session{}, err
	}
	return st.Get(ctx, id)
}

// DeleteSession removes a session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	st, err := s.sessions()
	if err != nil {
		return err
	}
	if err := st.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "session deleted", logger.String("session", id))
	return nil
}

// ReplaceTable swaps the session table. Stored results are dropped.
func (s *Service) ReplaceTable(ctx context.Context, id string, t model.Table) (model.Session, error) {
	return s.update(ctx, id, func(sess *model.Session) error {
		sess.Table = t.Clone()
		sess.Invalidate()
		return nil
	})
}

// SetTariffs changes the session tariffs. Stored results are dropped.
func (s *Service) SetTariffs(ctx context.Context, id string, t model.Tariffs) (model.Session, error) {
	return s.update(ctx, id, func(sess *model.Session) error {
		sess.Tariffs = t
		sess.Invalidate()
		return nil
	})
}

// SetLabel changes the image label. An empty label resets it to today's date.
func (s *Service) SetLabel(ctx context.Context, id, label string) (model.Session, error) {
	return s.update(ctx, id, func(sess *model.Session) error {
		sess.Label = s.label(label)
		return nil
	})
}

// SetUsage writes one game cell and recalculates the session when it has
// named rows.
func (s *Service) SetUsage(ctx context.Context, id string, row, game, value int) (model.Session, error) {
	return s.update(ctx, id, func(sess *model.Session) error {
		t, err := s.engine.SetUsage(sess.Table, row, game, value)
		if err != nil {
			return err
		}
		sess.Table = t
		s.calculate(ctx, sess)
		return nil
	})
}

// Calculate validates and processes the session table and stores the
// results. A table without names yields ErrNothingToCompute and clears any
// stored results.
func (s *Service) Calculate(ctx context.Context, id string) (Calculation, error) {
	computed := false
	sess, err := s.update(ctx, id, func(sess *model.Session) error {
		computed = s.calculate(ctx, sess)
		return nil
	})
	if err != nil {
		return Calculation{}, err
	}
	if !computed {
		return Calculation{}, ErrNothingToCompute
	}
	return Calculation{Table: sess.Table, Summary: *sess.Summary, Warnings: sess.Warnings}, nil
}

// Image renders the calculated session table with its label.
func (s *Service) Image(ctx context.Context, id string) (File, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return File{}, err
	}
	if sess.Summary == nil {
		return File{}, ErrNotCalculated
	}
	return s.RenderTable(ctx, sess.Table, sess.Label)
}

// Export encodes the session table, and its results when calculated, as a
// sheet file.
func (s *Service) Export(ctx context.Context, id string, format sheet.Format) (File, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return File{}, err
	}
	var buf bytes.Buffer
	if err := sheet.Write(&buf, format, sess.Table, sess.Summary); err != nil {
		metrics.RecordErrorByComponent("sheet", "export")
		return File{}, err
	}
	metrics.RecordSheetExport(string(format))
	return File{
		Name:        fileBase(sess.Label) + "." + string(format),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// Import replaces the session table with the contents of a sheet file. The
// format follows the extension of name.
func (s *Service) Import(ctx context.Context, id, name string, r io.Reader) (model.Session, error) {
	format, err := sheet.FormatOf(name)
	if err != nil {
		return model.Session{}, err
	}
	t, err := sheet.Read(name, r)
	if err != nil {
		metrics.RecordErrorByComponent("sheet", "import")
		return model.Session{}, err
	}
	sess, err := s.ReplaceTable(ctx, id, t)
	if err != nil {
		return model.Session{}, err
	}
	metrics.RecordSheetImport(string(format))
	s.logger.Info(ctx, "sheet imported",
		logger.String("session", id),
		logger.String("format", string(format)),
		logger.Int("rows", t.Len()),
	)
	return sess, nil
}

// Stats describes per-player usage over the session table.
func (s *Service) Stats(ctx context.Context, id string) (types.UsageStats, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return types.UsageStats{}, err
	}
	return s.engine.Describe(sess.Table, sess.Table.ActiveRows())
}

// Tally validates and processes a table without storing anything.
func (s *Service) Tally(ctx context.Context, t model.Table, tariffs model.Tariffs) (Calculation, error) {
	bound := t.ActiveRows()
	if bound == 0 {
		metrics.RecordNothingToCompute()
		return Calculation{}, ErrNothingToCompute
	}
	warnings := s.warnings(t, bound)
	table, summary := s.engine.Process(ctx, t, tariffs, bound)
	return Calculation{Table: table, Summary: summary, Warnings: warnings}, nil
}

// RenderTable draws a table with label as PNG.
func (s *Service) RenderTable(ctx context.Context, t model.Table, label string) (File, error) {
	data, err := s.renderer.Render(ctx, t, label)
	if err != nil {
		return File{}, err
	}
	return File{Name: render.FileName(fileBase(label)), ContentType: render.ContentType, Data: data}, nil
}

// update applies fn to a stored session and saves the result.
func (s *Service) update(ctx context.Context, id string, fn func(*model.Session) error) (model.Session, error) {
	st, err := s.sessions()
	if err != nil {
		return model.Session{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sess, err := st.Get(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	if err := fn(&sess); err != nil {
		return model.Session{}, err
	}
	sess.UpdatedAt = s.now()
	if err := st.Save(ctx, sess); err != nil {
		return model.Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// calculate processes sess in place. It reports false and drops stored
// results when the table has no named rows.
func (s *Service) calculate(ctx context.Context, sess *model.Session) bool {
	bound := sess.Table.ActiveRows()
	if bound == 0 {
		metrics.RecordNothingToCompute()
		sess.Invalidate()
		return false
	}
	warnings := s.warnings(sess.Table, bound)
	table, summary := s.engine.Process(ctx, sess.Table, sess.Tariffs, bound)
	sess.Table = table
	sess.Summary = &summary
	sess.Warnings = warnings
	return true
}

func (s *Service) warnings(t model.Table, bound int) []string {
	w := s.engine.Warnings(t, bound)
	if len(w) > 0 {
		metrics.RecordValidationWarnings(len(w))
	}
	return w
}

func (s *Service) label(l string) string {
	if l = strings.TrimSpace(l); l != "" {
		return l
	}
	return s.now().Format(LabelLayout)
}

// fileBase makes a label safe to use as a file name.
func fileBase(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "koun"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, label)
}
