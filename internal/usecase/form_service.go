package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	"AgentDesk/internal/timeslot"
	applogger "AgentDesk/pkg/logger"
	"AgentDesk/pkg/util"
)

// ScaleInfo describes one prediction scale for the scale picker.
type ScaleInfo struct {
	Scale   timeslot.PredictionScale `json:"scale"`
	Minutes int                      `json:"minutes"`
}

// HierarchyInfo answers the stateless hierarchy lookup.
type HierarchyInfo struct {
	Hierarchy timeslot.Hierarchy                      `json:"hierarchy"`
	Visible   bool                                    `json:"visible"`
	Options   map[timeslot.TimeUnit][]timeslot.Option `json:"options"`
}

// FormService drives agent-creation form sessions. Every mutation loads the
// session under its edit lock, replays it into a timeslot.Form, applies the
// change and stores the new snapshot.
type FormService struct {
	store   domrepo.SessionStore
	metrics domrepo.Metrics
	log     *applogger.Logger
	markets []string
	now     func() time.Time
	newID   func() string
}

func NewFormService(store domrepo.SessionStore, metrics domrepo.Metrics, log *applogger.Logger, markets []string) *FormService {
	return &FormService{
		store:   store,
		metrics: metrics,
		log:     log,
		markets: util.Dedupe(markets),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

func (s *FormService) Scales() []ScaleInfo {
	out := make([]ScaleInfo, 0, 4)
	for _, sc := range timeslot.Scales() {
		out = append(out, ScaleInfo{Scale: sc, Minutes: sc.Minutes()})
	}
	return out
}

func (s *FormService) Frequencies(scale timeslot.PredictionScale) []timeslot.Frequency {
	return timeslot.SelectableFrequencies(scale)
}

// Hierarchy resolves a scale/frequency pair without a session. An invalid pair
// is not an error: it yields an empty, invisible hierarchy.
func (s *FormService) Hierarchy(scale timeslot.PredictionScale, freq timeslot.Frequency) HierarchyInfo {
	h := timeslot.ResolveHierarchy(scale, freq)
	return HierarchyInfo{Hierarchy: nonNilHierarchy(h), Visible: !h.Empty(), Options: timeslot.OptionsFor(h, freq)}
}

func (s *FormService) Options(unit timeslot.TimeUnit, freq timeslot.Frequency) []timeslot.Option {
	return timeslot.GenerateOptions(unit, freq)
}

func (s *FormService) Markets() []string {
	return append([]string{}, s.markets...)
}

// Create starts a session, optionally pre-selecting scale and frequency.
func (s *FormService) Create(ctx context.Context, req *models.CreateSessionRequest) (*models.FormView, error) {
	form := timeslot.NewForm()
	if req.PredictionScale != "" {
		if err := form.SetScale(timeslot.PredictionScale(req.PredictionScale)); err != nil {
			return nil, s.fail("create", err)
		}
	}
	if req.Frequency != "" {
		if err := form.SetFrequency(timeslot.Frequency(req.Frequency)); err != nil {
			return nil, s.fail("create", err)
		}
	}
	now := s.now().UTC()
	sess := &models.FormSession{
		ID:           s.newID(),
		Name:         req.Name,
		TargetMarket: req.TargetMarket,
		Form:         form.Snapshot(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, s.fail("create", err)
	}
	s.metrics.RecordFormEvent("create", "ok")
	s.log.Debug("form session created", applogger.String("session_id", sess.ID))
	return buildView(sess, form, nil), nil
}

func (s *FormService) Get(ctx context.Context, id string) (*models.FormView, error) {
	sess, form, err := s.load(ctx, id)
	if err != nil {
		return nil, toAppError(err)
	}
	return buildView(sess, form, nil), nil
}

func (s *FormService) SetScale(ctx context.Context, id string, scale timeslot.PredictionScale) (*models.FormView, error) {
	return s.mutate(ctx, "scale", id, func(_ *models.FormSession, f *timeslot.Form) ([]timeslot.Field, error) {
		return nil, f.SetScale(scale)
	})
}

func (s *FormService) SetFrequency(ctx context.Context, id string, freq timeslot.Frequency) (*models.FormView, error) {
	return s.mutate(ctx, "frequency", id, func(_ *models.FormSession, f *timeslot.Form) ([]timeslot.Field, error) {
		return nil, f.SetFrequency(freq)
	})
}

// UpdateFields applies a batch of edits in order. A failing change aborts the
// batch and nothing is stored.
func (s *FormService) UpdateFields(ctx context.Context, req *models.UpdateFieldsRequest) (*models.FormView, error) {
	return s.mutate(ctx, "fields", req.ID, func(sess *models.FormSession, f *timeslot.Form) ([]timeslot.Field, error) {
		if req.Name != nil {
			sess.Name = *req.Name
		}
		if req.TargetMarket != nil {
			sess.TargetMarket = *req.TargetMarket
		}
		if req.Features != nil {
			sess.Features = req.Features
		}
		var cleared []timeslot.Field
		for _, ch := range req.Fields {
			if ch.Value == nil {
				cleared = append(cleared, f.Clear(ch.Boundary, ch.Unit)...)
				continue
			}
			c, err := f.Select(ch.Boundary, ch.Unit, *ch.Value)
			if err != nil {
				return nil, err
			}
			cleared = append(cleared, c...)
		}
		return cleared, nil
	})
}

// Slots collapses the session's boundaries. It fails until the form is
// complete and chronological.
func (s *FormService) Slots(ctx context.Context, id string) (timeslot.Slots, error) {
	_, form, err := s.load(ctx, id)
	if err != nil {
		return timeslot.Slots{}, toAppError(err)
	}
	slots, err := form.Slots()
	if err != nil {
		return timeslot.Slots{}, toAppError(err)
	}
	return slots, nil
}

func (s *FormService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return toAppError(err)
	}
	return toAppError(s.store.Delete(ctx, id))
}

// Load returns a session and its replayed form. Used by submission.
func (s *FormService) Load(ctx context.Context, id string) (*models.FormSession, *timeslot.Form, error) {
	sess, form, err := s.load(ctx, id)
	return sess, form, toAppError(err)
}

func (s *FormService) load(ctx context.Context, id string) (*models.FormSession, *timeslot.Form, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	form, err := timeslot.Restore(sess.Form)
	if err != nil {
		s.log.Warn("stored form no longer replays",
			applogger.String("session_id", id), applogger.Error(err))
		return nil, nil, err
	}
	return sess, form, nil
}

func (s *FormService) mutate(ctx context.Context, event, id string, fn func(*models.FormSession, *timeslot.Form) ([]timeslot.Field, error)) (*models.FormView, error) {
	unlock, err := s.store.Lock(ctx, id)
	if err != nil {
		return nil, s.fail(event, err)
	}
	defer unlock()

	sess, form, err := s.load(ctx, id)
	if err != nil {
		return nil, s.fail(event, err)
	}
	cleared, err := fn(sess, form)
	if err != nil {
		return nil, s.fail(event, err)
	}
	sess.Form = form.Snapshot()
	sess.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, s.fail(event, err)
	}
	s.metrics.RecordFormEvent(event, "ok")
	return buildView(sess, form, cleared), nil
}

func (s *FormService) fail(event string, err error) error {
	err = toAppError(err)
	s.metrics.RecordFormEvent(event, result(err))
	return err
}

func buildView(sess *models.FormSession, f *timeslot.Form, cleared []timeslot.Field) *models.FormView {
	h := f.Hierarchy()
	v := &models.FormView{
		ID:              sess.ID,
		Name:            sess.Name,
		TargetMarket:    sess.TargetMarket,
		PredictionScale: f.Scale(),
		Frequency:       f.Frequency(),
		Frequencies:     timeslot.SelectableFrequencies(f.Scale()),
		Hierarchy:       nonNilHierarchy(h),
		Visible:         f.Visible(),
		Fields:          make([]models.BoundaryView, 0, 4),
		Features:        sess.Features,
		Cleared:         cleared,
		UpdatedAt:       sess.UpdatedAt,
	}
	for _, kind := range timeslot.BoundaryKinds() {
		b := f.Boundary(kind)
		row := models.BoundaryView{Boundary: kind, Units: make([]models.UnitView, 0, len(h))}
		for _, u := range h {
			uv := models.UnitView{Unit: u, Candidates: f.Candidates(kind, u)}
			if val, ok := b.Get(u); ok {
				val := val
				uv.Value = &val
			}
			row.Units = append(row.Units, uv)
		}
		v.Fields = append(v.Fields, row)
	}
	return v
}

func nonNilHierarchy(h timeslot.Hierarchy) timeslot.Hierarchy {
	if h == nil {
		return timeslot.Hierarchy{}
	}
	return h
}
