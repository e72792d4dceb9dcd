// Package complaint owns the set of complaints of a process and every change
// made to them.
package complaint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"sulabh/backend/internal/analysis"
	"sulabh/backend/internal/apperrors"
	"sulabh/backend/internal/config"
	"sulabh/backend/internal/models"
	"sulabh/backend/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithMissingPolicy(p MissingPolicy) Option {
	return func(s *Store) { s.policy = p }
}

// Store keeps complaints in submission order and writes every change through
// to the backing storage before it becomes visible.
type Store struct {
	backing   storage.Storage
	now       func() time.Time
	logger    *slog.Logger
	notifier  Notifier
	policy    MissingPolicy
	validator *validator.Validate
	sanitize  *sanitizer

	// writeMu serialises mutations across persist and commit.
	writeMu    sync.Mutex
	mu         sync.RWMutex
	order      []string
	complaints map[string]*models.Complaint

	loading atomic.Int32
}

func NewStore(backing storage.Storage, opts ...Option) *Store {
	s := &Store{
		backing:    backing,
		now:        time.Now,
		logger:     slog.Default(),
		policy:     IgnoreMissing,
		validator:  newValidator(),
		sanitize:   newSanitizer(),
		complaints: make(map[string]*models.Complaint),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Loading reports whether an asynchronous or mutating operation is in flight.
func (s *Store) Loading() bool {
	return s.loading.Load() > 0
}

func (s *Store) begin() func() {
	s.loading.Add(1)
	return func() { s.loading.Add(-1) }
}

// Load replaces the in-memory set with the contents of the backing storage.
func (s *Store) Load(ctx context.Context) error {
	defer s.begin()()

	list, err := s.backing.ListComplaints(ctx)
	if err != nil {
		return apperrors.NewTrackingError("Failed to load complaints", err)
	}

	order := make([]string, 0, len(list))
	complaints := make(map[string]*models.Complaint, len(list))
	for i := range list {
		c := list[i]
		order = append(order, c.ID)
		complaints[c.ID] = &c
	}

	s.mu.Lock()
	s.order = order
	s.complaints = complaints
	s.mu.Unlock()

	s.logger.Info("complaints loaded", "count", len(order))
	return nil
}

// Submit files a new complaint for userID and returns its id.
func (s *Store) Submit(ctx context.Context, userID string, req SubmitRequest) (string, error) {
	defer s.begin()()

	if err := s.validate(&req); err != nil {
		return "", err
	}
	subject := s.sanitize.text(req.Subject)
	description := s.sanitize.text(req.Description)
	location := s.sanitize.text(req.Location)
	if subject == "" || description == "" || location == "" {
		return "", apperrors.NewValidationError("subject, description and location must contain text", nil)
	}
	status := req.Status
	if status == "" {
		status = models.StatusPending
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.stamp(time.Time{})
	build := func(id string) *models.Complaint {
		c := &models.Complaint{
			ID:          id,
			UserID:      userID,
			Category:    req.Category,
			Subject:     subject,
			Description: description,
			Location:    location,
			Priority:    req.Priority,
			Attachments: s.sanitize.list(req.Attachments),
			SubmittedAt: now,
			UpdatedAt:   now,
			Updates: []models.ComplaintUpdate{{
				ID:          newUpdateID(),
				ComplaintID: id,
				Position:    0,
				Message:     config.SubmittedMessage,
				Status:      status,
				UpdatedBy:   config.SystemActor,
				UpdatedAt:   now,
			}},
		}
		setStatus(c, status, now)
		return c
	}

	// the backing storage may already hold ids this process never loaded
	var c *models.Complaint
	for attempt := 1; ; attempt++ {
		c = build(s.newComplaintID())
		err := s.backing.CreateComplaint(ctx, c.Clone())
		if err == nil {
			break
		}
		if errors.Is(err, storage.ErrDuplicateID) && attempt < maxIDAttempts {
			s.logger.Warn("complaint id already taken, retrying", "complaint_id", c.ID, "attempt", attempt)
			continue
		}
		s.logger.Error("failed to persist complaint", "complaint_id", c.ID, "user_id", userID, "error", err)
		return "", apperrors.NewSubmissionError("Failed to submit complaint", err)
	}
	id := c.ID

	s.cache(c, true)

	s.logger.Info("complaint submitted", "complaint_id", id, "user_id", userID, "category", c.Category, "priority", c.Priority)
	s.notify(ctx, models.EventSubmitted, c, config.SubmittedMessage, config.SystemActor)
	return id, nil
}

// Update merges patch into the complaint with the given id and always advances
// its UpdatedAt. An unknown id is handled according to the store's MissingPolicy.
func (s *Store) Update(ctx context.Context, id string, patch Patch) error {
	defer s.begin()()

	if err := s.validate(&patch); err != nil {
		return err
	}

	updated, err := s.mutate(ctx, id, func(c *models.Complaint, now time.Time) error {
		return s.applyPatch(c, patch, now)
	})
	if err != nil {
		if apperrors.IsNotFound(err) && s.policy == IgnoreMissing {
			s.logger.Debug("ignoring update of unknown complaint", "complaint_id", id)
			return nil
		}
		return err
	}

	event := models.EventUpdated
	if patch.Status != nil {
		event = models.EventStatus
	}
	s.notify(ctx, event, updated, "", "")
	return nil
}

// AddStatusUpdate appends an entry to the complaint's timeline and moves the
// complaint to the entry's status.
func (s *Store) AddStatusUpdate(ctx context.Context, id string, update StatusUpdate) (*models.ComplaintUpdate, error) {
	defer s.begin()()

	if err := s.validate(&update); err != nil {
		return nil, err
	}
	message := s.sanitize.text(update.Message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required", nil)
	}
	actor := update.UpdatedBy
	if actor == "" {
		actor = config.SystemActor
	}

	updated, err := s.mutate(ctx, id, func(c *models.Complaint, now time.Time) error {
		appendUpdate(c, update.Status, message, actor, s.sanitize.list(update.Attachments), now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, models.EventStatus, updated, message, actor)
	entry := *updated.LastUpdate()
	return &entry, nil
}

// SubmitFeedback records the owner's rating of a resolved complaint. Only one
// feedback per complaint is accepted.
func (s *Store) SubmitFeedback(ctx context.Context, id, userID string, rating int, comment string) error {
	defer s.begin()()

	if rating < config.FeedbackMinRating || rating > config.FeedbackMaxRating {
		return apperrors.NewValidationError(
			fmt.Sprintf("rating must be between %d and %d", config.FeedbackMinRating, config.FeedbackMaxRating), nil)
	}
	comment = s.sanitize.text(comment)

	updated, err := s.mutate(ctx, id, func(c *models.Complaint, now time.Time) error {
		if c.UserID != userID {
			return apperrors.NewForbiddenError("Only the complainant can leave feedback")
		}
		return setFeedback(c, &models.ComplaintFeedback{Rating: rating, Comment: comment}, now)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, models.EventFeedback, updated, comment, userID)
	return nil
}

// EscalateOverdue escalates every open complaint that has outlived the
// resolution window of its priority and returns how many were escalated.
func (s *Store) EscalateOverdue(ctx context.Context) (int, error) {
	defer s.begin()()

	now := s.now()
	s.mu.RLock()
	var overdue []string
	for _, id := range s.order {
		if analysis.IsOverdue(s.complaints[id], now) {
			overdue = append(overdue, id)
		}
	}
	s.mu.RUnlock()

	var errs []error
	escalated := 0
	for _, id := range overdue {
		updated, err := s.mutate(ctx, id, func(c *models.Complaint, now time.Time) error {
			// re-checked under the write lock; another writer may have acted first
			if !c.Status.IsOpen() {
				return errAlreadyHandled
			}
			appendUpdate(c, models.StatusEscalated, config.EscalatedMessage, config.SystemActor, nil, now)
			return nil
		})
		if errors.Is(err, errAlreadyHandled) {
			continue
		}
		if err != nil {
			s.logger.Error("failed to escalate complaint", "complaint_id", id, "error", err)
			errs = append(errs, err)
			continue
		}
		escalated++
		s.logger.Warn("complaint escalated", "complaint_id", id, "priority", updated.Priority)
		s.notify(ctx, models.EventStatus, updated, config.EscalatedMessage, config.SystemActor)
	}
	return escalated, errors.Join(errs...)
}

var errAlreadyHandled = errors.New("complaint no longer open")

// Get returns a copy of the complaint, or nil when absent.
func (s *Store) Get(id string) *models.Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.complaints[id].Clone()
}

// ListByUser returns copies of the user's complaints in store order.
func (s *Store) ListByUser(userID string) []models.Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Complaint, 0)
	for _, id := range s.order {
		if c := s.complaints[id]; c.UserID == userID {
			out = append(out, *c.Clone())
		}
	}
	return out
}

// List returns copies of every complaint in store order.
func (s *Store) List() []models.Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Complaint, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.complaints[id].Clone())
	}
	return out
}

// Len returns the number of complaints held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Statistics summarises every complaint held.
func (s *Store) Statistics() analysis.Statistics {
	return analysis.Summarize(s.List(), s.now())
}

// Track looks the complaint up in the backing storage and refreshes the
// in-memory copy. It returns nil when the id is unknown.
func (s *Store) Track(ctx context.Context, id string) (*models.Complaint, error) {
	defer s.begin()()

	fresh, err := s.backing.GetComplaint(ctx, id)
	if err != nil {
		return nil, apperrors.NewTrackingError("Failed to track complaint", err)
	}
	if fresh == nil {
		return nil, nil
	}

	s.cache(fresh.Clone(), false)
	return fresh, nil
}

// Observe brings the cached copy up to date after a change announced by
// another process. Events older than the cached copy are ignored.
func (s *Store) Observe(ctx context.Context, event models.ComplaintEvent) {
	s.mu.RLock()
	cached := s.complaints[event.ComplaintID]
	s.mu.RUnlock()

	switch {
	case cached == nil && event.Type != models.EventSubmitted:
		return
	case cached != nil && !cached.UpdatedAt.Before(event.UpdatedAt):
		return
	}
	if _, err := s.Track(ctx, event.ComplaintID); err != nil {
		s.logger.Warn("failed to refresh complaint", "complaint_id", event.ComplaintID, "error", err)
	}
}

// cache stores c unless the cached copy is newer. force skips the age check.
func (s *Store) cache(c *models.Complaint, force bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached, ok := s.complaints[c.ID]
	switch {
	case !ok:
		s.order = append(s.order, c.ID)
	case !force && c.UpdatedAt.Before(cached.UpdatedAt):
		return
	}
	s.complaints[c.ID] = c
}

// mutate applies fn to the record as currently persisted, writes the result
// back and only then makes it visible. It returns a copy of the committed
// record. The record is read from the backing storage because other processes
// share it.
func (s *Store) mutate(ctx context.Context, id string, fn func(c *models.Complaint, now time.Time) error) (*models.Complaint, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.backing.GetComplaint(ctx, id)
	if err != nil {
		s.logger.Error("failed to read complaint before update", "complaint_id", id, "error", err)
		return nil, apperrors.NewUpdateError("Failed to update complaint", err)
	}
	if current == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("Complaint %s not found", id))
	}

	prev := current.UpdatedAt
	s.mu.RLock()
	if cached := s.complaints[id]; cached != nil && cached.UpdatedAt.After(prev) {
		prev = cached.UpdatedAt
	}
	s.mu.RUnlock()

	next := current.Clone()
	now := s.stamp(prev)
	if err := fn(next, now); err != nil {
		return nil, err
	}
	next.UpdatedAt = now

	if err := s.backing.UpdateComplaint(ctx, next.Clone()); err != nil {
		s.logger.Error("failed to persist complaint update", "complaint_id", id, "error", err)
		return nil, apperrors.NewUpdateError("Failed to update complaint", err)
	}

	s.cache(next, true)
	return next.Clone(), nil
}

// stamp returns the current time at storage precision, strictly after prev.
func (s *Store) stamp(prev time.Time) time.Time {
	now := s.now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func (s *Store) applyPatch(c *models.Complaint, p Patch, now time.Time) error {
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Subject != nil {
		if c.Subject = s.sanitize.text(*p.Subject); c.Subject == "" {
			return apperrors.NewValidationError("subject is required", nil)
		}
	}
	if p.Description != nil {
		if c.Description = s.sanitize.text(*p.Description); c.Description == "" {
			return apperrors.NewValidationError("description is required", nil)
		}
	}
	if p.Location != nil {
		if c.Location = s.sanitize.text(*p.Location); c.Location == "" {
			return apperrors.NewValidationError("location is required", nil)
		}
	}
	if p.Priority != nil {
		c.Priority = *p.Priority
	}
	if p.Attachments != nil {
		c.Attachments = s.sanitize.list(*p.Attachments)
	}
	if p.AssignedTo != nil {
		c.AssignedTo = strings.TrimSpace(*p.AssignedTo)
	}
	if p.AssignedDepartment != nil {
		c.AssignedDepartment = strings.TrimSpace(*p.AssignedDepartment)
	}
	if p.Status != nil {
		setStatus(c, *p.Status, now)
	}
	if p.Feedback != nil {
		fb := *p.Feedback
		fb.Comment = s.sanitize.text(fb.Comment)
		return setFeedback(c, &fb, now)
	}
	return nil
}

// setStatus moves c to status, stamping ResolvedAt on entry into resolved and
// clearing it when the complaint leaves resolved.
func setStatus(c *models.Complaint, status models.Status, now time.Time) {
	switch {
	case status == models.StatusResolved && (c.Status != models.StatusResolved || c.ResolvedAt == nil):
		t := now
		c.ResolvedAt = &t
	case status != models.StatusResolved:
		c.ResolvedAt = nil
	}
	c.Status = status
}

// setFeedback attaches fb to a resolved complaint that has not been rated yet.
func setFeedback(c *models.Complaint, fb *models.ComplaintFeedback, now time.Time) error {
	if c.Feedback != nil {
		return apperrors.NewValidationError("Feedback has already been submitted", nil)
	}
	if c.Status != models.StatusResolved {
		return apperrors.NewValidationError("Feedback can only be given on resolved complaints", nil)
	}
	if fb.Rating < config.FeedbackMinRating || fb.Rating > config.FeedbackMaxRating {
		return apperrors.NewValidationError(
			fmt.Sprintf("rating must be between %d and %d", config.FeedbackMinRating, config.FeedbackMaxRating), nil)
	}
	fb.ComplaintID = c.ID
	if fb.SubmittedAt.IsZero() {
		fb.SubmittedAt = now
	}
	c.Feedback = fb
	return nil
}

func appendUpdate(c *models.Complaint, status models.Status, message, actor string, attachments []string, now time.Time) {
	c.Updates = append(c.Updates, models.ComplaintUpdate{
		ID:          newUpdateID(),
		ComplaintID: c.ID,
		Position:    len(c.Updates),
		Message:     message,
		Status:      status,
		UpdatedBy:   actor,
		UpdatedAt:   now,
		Attachments: attachments,
	})
	setStatus(c, status, now)
}

func (s *Store) notify(ctx context.Context, typ models.EventType, c *models.Complaint, message, actor string) {
	if s.notifier == nil {
		return
	}
	event := models.ComplaintEvent{
		Type:        typ,
		ComplaintID: c.ID,
		Status:      c.Status,
		Message:     message,
		UpdatedBy:   actor,
		UpdatedAt:   c.UpdatedAt,
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish complaint event", "complaint_id", c.ID, "type", typ, "error", err)
	}
}

// maxIDAttempts bounds how often Submit draws a new id after the backing
// storage reports a collision.
const maxIDAttempts = 5

// newComplaintID returns an id not held by the store. Callers hold writeMu.
func (s *Store) newComplaintID() string {
	for {
		u := uuid.New()
		id := config.ComplaintIDPrefix + strings.ToUpper(hex.EncodeToString(u[:4]))
		s.mu.RLock()
		_, taken := s.complaints[id]
		s.mu.RUnlock()
		if !taken {
			return id
		}
	}
}

func newUpdateID() string {
	u := uuid.New()
	return config.UpdateIDPrefix + strings.ToUpper(hex.EncodeToString(u[:6]))
}
