package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/interfaces"
	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
)

// DefaultScoreBase is the baseline every (user, period) score starts
// from before counting incidences are subtracted.
const DefaultScoreBase = 100.0

// Memory implements Repository with in-memory storage. It stands in for
// the external API's persistence and scoring service: scores are a
// projection computed on read from counting incidences, never stored.
type Memory struct {
	mu               sync.RWMutex
	periods          map[types.PeriodID]*model.Period
	severities       map[types.SeverityID]*model.Severity
	templates        map[types.CommonIncidenceID]*model.CommonIncidence
	incidences       map[types.IncidenceID]*model.Incidence
	users            map[types.UserID]*model.User
	passwords        map[types.UserID]string
	scoreBase        float64
	periodCounter    types.PeriodID
	severityCounter  types.SeverityID
	templateCounter  types.CommonIncidenceID
	incidenceCounter types.IncidenceID
	userCounter      types.UserID
}

// MemoryOption configures the memory repository
type MemoryOption func(*Memory)

// WithScoreBase overrides the score baseline
func WithScoreBase(base float64) MemoryOption {
	return func(m *Memory) {
		m.scoreBase = base
	}
}

// NewMemory creates a new memory repository
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		periods:    make(map[types.PeriodID]*model.Period),
		severities: make(map[types.SeverityID]*model.Severity),
		templates:  make(map[types.CommonIncidenceID]*model.CommonIncidence),
		incidences: make(map[types.IncidenceID]*model.Incidence),
		users:      make(map[types.UserID]*model.User),
		passwords:  make(map[types.UserID]string),
		scoreBase:  DefaultScoreBase,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ interfaces.Repository = (*Memory)(nil)

// ListPeriods lists all periods, oldest first
func (m *Memory) ListPeriods(ctx context.Context) ([]*model.Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	periods := make([]*model.Period, 0, len(m.periods))
	for _, p := range m.periods {
		pCopy := *p
		periods = append(periods, &pCopy)
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].ID < periods[j].ID
	})
	return periods, nil
}

// GetPeriod retrieves a period by ID
func (m *Memory) GetPeriod(ctx context.Context, id types.PeriodID) (*model.Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, exists := m.periods[id]
	if !exists {
		return nil, goerr.Wrap(model.ErrPeriodNotFound, "period not in registry",
			goerr.V("periodID", id))
	}
	pCopy := *p
	return &pCopy, nil
}

// CreatePeriod opens a new period starting now. There is at most one
// open period at any time, so creation fails while another is open.
func (m *Memory) CreatePeriod(ctx context.Context) (*model.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.periods {
		if p.IsOpen {
			return nil, goerr.Wrap(model.ErrPeriodAlreadyOpen, "close the current period first",
				goerr.V("openPeriodID", p.ID))
		}
	}

	m.periodCounter++
	period, err := model.NewPeriod(m.periodCounter)
	if err != nil {
		return nil, err
	}

	m.periods[period.ID] = period
	pCopy := *period
	return &pCopy, nil
}

// ClosePeriod stamps the end date and clears the open flag
func (m *Memory) ClosePeriod(ctx context.Context, id types.PeriodID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, exists := m.periods[id]
	if !exists {
		return goerr.Wrap(model.ErrPeriodNotFound, "period not in registry",
			goerr.V("periodID", id))
	}
	return p.Close(time.Now())
}

// ListSeverities lists the severity catalog
func (m *Memory) ListSeverities(ctx context.Context) ([]*model.Severity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	severities := make([]*model.Severity, 0, len(m.severities))
	for _, s := range m.severities {
		sCopy := *s
		severities = append(severities, &sCopy)
	}
	sort.Slice(severities, func(i, j int) bool {
		return severities[i].ID < severities[j].ID
	})
	return severities, nil
}

// CreateSeverity adds a severity to the catalog. Names are unique.
func (m *Memory) CreateSeverity(ctx context.Context, name string, value float64) (*model.Severity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.severities {
		if s.Name == name {
			return nil, goerr.Wrap(model.ErrSeverityExists, "severity names are unique",
				goerr.V("name", name))
		}
	}

	m.severityCounter++
	severity := &model.Severity{
		ID:    m.severityCounter,
		Name:  name,
		Value: value,
	}
	if err := severity.Validate(); err != nil {
		m.severityCounter--
		return nil, err
	}

	m.severities[severity.ID] = severity
	sCopy := *severity
	return &sCopy, nil
}

// ListCommonIncidences lists the template catalog
func (m *Memory) ListCommonIncidences(ctx context.Context) ([]*model.CommonIncidence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	templates := make([]*model.CommonIncidence, 0, len(m.templates))
	for _, t := range m.templates {
		tCopy := *t
		templates = append(templates, &tCopy)
	}
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].ID < templates[j].ID
	})
	return templates, nil
}

// CreateCommonIncidence adds a template to the catalog
func (m *Memory) CreateCommonIncidence(ctx context.Context, incidence string, severity model.Severity) (*model.CommonIncidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.templateCounter++
	template := &model.CommonIncidence{
		ID:        m.templateCounter,
		Incidence: incidence,
		Severity:  severity,
	}
	if err := template.Validate(); err != nil {
		m.templateCounter--
		return nil, err
	}

	m.templates[template.ID] = template
	tCopy := *template
	return &tCopy, nil
}

// UpdateCommonIncidence edits a template. Incidences already created
// from the template keep their severity snapshot and are not touched.
func (m *Memory) UpdateCommonIncidence(ctx context.Context, id types.CommonIncidenceID, incidence string, severity model.Severity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	template, exists := m.templates[id]
	if !exists {
		return goerr.Wrap(model.ErrTemplateNotFound, "template not in catalog",
			goerr.V("templateID", id))
	}

	updated := model.CommonIncidence{
		ID:        template.ID,
		Incidence: incidence,
		Severity:  severity,
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	m.templates[id] = &updated
	return nil
}

// CreateIncidence files a pending-review incidence against the
// currently open period. Creation fails when no period is open.
func (m *Memory) CreateIncidence(ctx context.Context, description string, severity model.Severity, assignedTo, createdBy model.UserRef) (*model.Incidence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current *model.Period
	for _, p := range m.periods {
		if p.IsOpen {
			current = p
			break
		}
	}
	if current == nil {
		return nil, goerr.Wrap(model.ErrNoOpenPeriod, "cannot file incidence without an open period")
	}

	m.incidenceCounter++
	incidence, err := model.NewIncidence(m.incidenceCounter, description, severity, assignedTo, createdBy, *current)
	if err != nil {
		m.incidenceCounter--
		return nil, err
	}

	m.incidences[incidence.ID] = incidence
	return copyIncidence(incidence), nil
}

// GetIncidence retrieves an incidence by ID. The embedded period is
// refreshed from the registry so period gating sees the current open
// flag, not the state at creation time.
func (m *Memory) GetIncidence(ctx context.Context, id types.IncidenceID) (*model.Incidence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	incidence, exists := m.incidences[id]
	if !exists {
		return nil, goerr.Wrap(model.ErrIncidenceNotFound, "incidence not in store",
			goerr.V("incidenceID", id))
	}
	return m.freshIncidence(incidence), nil
}

// ResolveIncidence applies an admin disposition. Only pending-review
// incidences can be resolved; a second resolve fails.
func (m *Memory) ResolveIncidence(ctx context.Context, id types.IncidenceID, valid bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	incidence, exists := m.incidences[id]
	if !exists {
		return goerr.Wrap(model.ErrIncidenceNotFound, "incidence not in store",
			goerr.V("incidenceID", id))
	}

	disposition := types.DispositionConfirm
	if !valid {
		disposition = types.DispositionAnnul
	}
	return incidence.Resolve(disposition)
}

// SetComment sets the one-shot rebuttal comment, gated on the owning
// period still being open
func (m *Memory) SetComment(ctx context.Context, id types.IncidenceID, comment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	incidence, exists := m.incidences[id]
	if !exists {
		return goerr.Wrap(model.ErrIncidenceNotFound, "incidence not in store",
			goerr.V("incidenceID", id))
	}

	// Gate on the registry's current view of the owning period
	if p, ok := m.periods[incidence.Period.ID]; ok {
		incidence.Period = *p
	}
	return incidence.Contest(comment)
}

// DeleteIncidence permanently removes a record. Only counting (valid)
// incidences can be purged.
func (m *Memory) DeleteIncidence(ctx context.Context, id types.IncidenceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	incidence, exists := m.incidences[id]
	if !exists {
		return goerr.Wrap(model.ErrIncidenceNotFound, "incidence not in store",
			goerr.V("incidenceID", id))
	}
	if err := incidence.CanDelete(); err != nil {
		return err
	}

	delete(m.incidences, id)
	return nil
}

// AddIncidenceImage attaches an image record to an incidence
func (m *Memory) AddIncidenceImage(ctx context.Context, id types.IncidenceID, image model.IncidenceImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	incidence, exists := m.incidences[id]
	if !exists {
		return goerr.Wrap(model.ErrIncidenceNotFound, "incidence not in store",
			goerr.V("incidenceID", id))
	}

	incidence.Images = append(incidence.Images, image)
	return nil
}

// ListUserIncidences lists a user's incidences within a period, newest
// first
func (m *Memory) ListUserIncidences(ctx context.Context, userID types.UserID, periodID types.PeriodID) ([]*model.Incidence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var incidences []*model.Incidence
	for _, i := range m.incidences {
		if i.AssignedTo.ID == userID && i.Period.ID == periodID {
			incidences = append(incidences, m.freshIncidence(i))
		}
	}
	sort.Slice(incidences, func(i, j int) bool {
		return incidences[i].CreatedAt.After(incidences[j].CreatedAt)
	})
	return incidences, nil
}

// ListPendingByCreator lists the pending-review queue for the admin who
// filed the incidences
func (m *Memory) ListPendingByCreator(ctx context.Context, adminID types.UserID) ([]*model.Incidence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var incidences []*model.Incidence
	for _, i := range m.incidences {
		if i.CreatedBy.ID == adminID && i.Status {
			incidences = append(incidences, m.freshIncidence(i))
		}
	}
	sort.Slice(incidences, func(i, j int) bool {
		return incidences[i].CreatedAt.Before(incidences[j].CreatedAt)
	})
	return incidences, nil
}

// ListUserScores computes the per-period score projection for a user.
// Every incidence with Valid set subtracts its value, so a record still
// pending review already counts; annulment is the only thing that
// removes it from the projection. A (user, period) pairing only gets a
// record once it has at least one counting incidence, so "no score yet"
// stays distinguishable from an actual score.
func (m *Memory) ListUserScores(ctx context.Context, userID types.UserID) ([]*model.UserScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[userID]
	if !exists {
		return nil, goerr.Wrap(model.ErrUserNotFound, "user not in store",
			goerr.V("userID", userID))
	}

	totals := make(map[types.PeriodID]float64)
	for _, i := range m.incidences {
		if i.AssignedTo.ID != userID || !i.Valid {
			continue
		}
		totals[i.Period.ID] += i.Value
	}

	periodIDs := make([]types.PeriodID, 0, len(totals))
	for id := range totals {
		periodIDs = append(periodIDs, id)
	}
	sort.Slice(periodIDs, func(i, j int) bool { return periodIDs[i] < periodIDs[j] })

	scores := make([]*model.UserScore, 0, len(periodIDs))
	for n, id := range periodIDs {
		period := m.periods[id]
		scores = append(scores, &model.UserScore{
			ID:     n + 1,
			Score:  m.scoreBase - totals[id],
			User:   user.Ref(),
			Period: *period,
		})
	}
	return scores, nil
}

// SaveUser saves a user with its login password
func (m *Memory) SaveUser(ctx context.Context, user *model.User, password string) error {
	if user == nil {
		return goerr.New("user is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID == 0 {
		m.userCounter++
		user.ID = m.userCounter
	} else if user.ID > m.userCounter {
		m.userCounter = user.ID
	}
	if err := user.Validate(); err != nil {
		return err
	}

	userCopy := *user
	m.users[user.ID] = &userCopy
	if password != "" {
		m.passwords[user.ID] = password
	}
	return nil
}

// GetUser retrieves a user by ID
func (m *Memory) GetUser(ctx context.Context, id types.UserID) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, goerr.Wrap(model.ErrUserNotFound, "user not in store",
			goerr.V("userID", id))
	}
	userCopy := *user
	return &userCopy, nil
}

// ListUsers lists all users
func (m *Memory) ListUsers(ctx context.Context) ([]*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		uCopy := *u
		users = append(users, &uCopy)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].ID < users[j].ID
	})
	return users, nil
}

// Authenticate checks login credentials and returns the matching user
func (m *Memory) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, u := range m.users {
		if u.Email == email && m.passwords[id] == password {
			uCopy := *u
			return &uCopy, nil
		}
	}
	return nil, goerr.Wrap(model.ErrInvalidCredentials, "email or password mismatch")
}

// Close closes the repository (no-op for memory)
func (m *Memory) Close() error {
	return nil
}

// freshIncidence copies an incidence with its embedded period refreshed
// from the registry. Callers hold at least the read lock.
func (m *Memory) freshIncidence(incidence *model.Incidence) *model.Incidence {
	iCopy := copyIncidence(incidence)
	if p, ok := m.periods[incidence.Period.ID]; ok {
		iCopy.Period = *p
	}
	return iCopy
}

// copyIncidence deep-copies an incidence to prevent external mutation
func copyIncidence(incidence *model.Incidence) *model.Incidence {
	iCopy := *incidence
	if incidence.Comment != nil {
		comment := *incidence.Comment
		iCopy.Comment = &comment
	}
	if len(incidence.Images) > 0 {
		iCopy.Images = append([]model.IncidenceImage(nil), incidence.Images...)
	}
	return &iCopy
}
