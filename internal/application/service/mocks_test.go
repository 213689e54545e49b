package service

import (
	"context"
	"sync"
	"time"

	"github.com/brushline/paintquote/internal/application/port"
	"github.com/brushline/paintquote/internal/domain/apperr"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/shopspring/decimal"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// mockTxManager runs fn directly
type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

// Mock repositories keep rows in maps; the func fields override behaviour per test.
type mockQuoteRepo struct {
	mu         sync.Mutex
	rows       map[string]entity.Quote
	createFunc func(ctx context.Context, q *entity.Quote) error
	updateFunc func(ctx context.Context, q *entity.Quote, expected entity.QuoteStatus) error
}

func newMockQuoteRepo() *mockQuoteRepo {
	return &mockQuoteRepo{rows: make(map[string]entity.Quote)}
}

func (m *mockQuoteRepo) NextSequence(ctx context.Context, tenantID string, year int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, q := range m.rows {
		if q.TenantID == tenantID && q.Year == year && q.Sequence > max {
			max = q.Sequence
		}
	}
	return max + 1, nil
}

func (m *mockQuoteRepo) Create(ctx context.Context, q *entity.Quote) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, q); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[q.ID] = *q
	return nil
}

func (m *mockQuoteRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.rows[id]
	if !ok || q.TenantID != tenantID {
		return nil, &apperr.NotFoundError{Entity: "quote", ID: id}
	}
	return &q, nil
}

func (m *mockQuoteRepo) GetByNumber(ctx context.Context, tenantID, number string) (*entity.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.rows {
		if q.TenantID == tenantID && q.QuoteNumber == number {
			return &q, nil
		}
	}
	return nil, &apperr.NotFoundError{Entity: "quote", ID: number}
}

func (m *mockQuoteRepo) Update(ctx context.Context, q *entity.Quote, expected entity.QuoteStatus) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, q, expected)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[q.ID]
	if !ok || stored.Status != expected {
		return &apperr.ConcurrentModificationError{Entity: "quote", ID: q.ID}
	}
	m.rows[q.ID] = *q
	return nil
}

func (m *mockQuoteRepo) List(ctx context.Context, tenantID string, filter port.QuoteFilter) ([]*entity.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Quote
	for _, q := range m.rows {
		q := q
		if q.TenantID == tenantID {
			out = append(out, &q)
		}
	}
	return out, nil
}

type mockJobRepo struct {
	mu         sync.Mutex
	rows       map[string]entity.Job
	updateFunc func(ctx context.Context, job *entity.Job) error
}

func newMockJobRepo() *mockJobRepo {
	return &mockJobRepo{rows: make(map[string]entity.Job)}
}

func (m *mockJobRepo) Create(ctx context.Context, job *entity.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.rows {
		if j.QuoteID == job.QuoteID {
			return &apperr.ConcurrentModificationError{Entity: "job", ID: job.QuoteID}
		}
	}
	if job.Version == 0 {
		job.Version = 1
	}
	m.rows[job.ID] = cloneJob(*job)
	return nil
}

func (m *mockJobRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.rows[id]
	if !ok || j.TenantID != tenantID {
		return nil, &apperr.NotFoundError{Entity: "job", ID: id}
	}
	out := cloneJob(j)
	return &out, nil
}

func (m *mockJobRepo) GetByQuoteID(ctx context.Context, tenantID, quoteID string) (*entity.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.rows {
		if j.TenantID == tenantID && j.QuoteID == quoteID {
			out := cloneJob(j)
			return &out, nil
		}
	}
	return nil, &apperr.NotFoundError{Entity: "job", ID: "quote:" + quoteID}
}

func (m *mockJobRepo) Update(ctx context.Context, job *entity.Job) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[job.ID]
	if !ok || stored.Version != job.Version {
		return &apperr.ConcurrentModificationError{Entity: "job", ID: job.ID}
	}
	job.Version++
	m.rows[job.ID] = cloneJob(*job)
	return nil
}

func (m *mockJobRepo) List(ctx context.Context, tenantID string, status entity.JobStatus, limit, offset int) ([]*entity.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Job
	for _, j := range m.rows {
		if j.TenantID == tenantID && (status == "" || j.Status == status) {
			c := cloneJob(j)
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *mockJobRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func cloneJob(j entity.Job) entity.Job {
	progress := make(map[string]entity.AreaProgressStatus, len(j.AreaProgress))
	for k, v := range j.AreaProgress {
		progress[k] = v
	}
	j.AreaProgress = progress
	return j
}

type mockPaymentRepo struct {
	mu   sync.Mutex
	rows map[string]entity.PaymentRecord
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{rows: make(map[string]entity.PaymentRecord)}
}

func (m *mockPaymentRepo) Create(ctx context.Context, p *entity.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.ReferenceID]; ok {
		return &apperr.ConcurrentModificationError{Entity: "payment", ID: p.ReferenceID}
	}
	if p.Version == 0 {
		p.Version = 1
	}
	m.rows[p.ReferenceID] = *p
	return nil
}

func (m *mockPaymentRepo) GetByReference(ctx context.Context, referenceID string) (*entity.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[referenceID]
	if !ok {
		return nil, &apperr.PaymentRecordNotFoundError{ReferenceID: referenceID}
	}
	return &p, nil
}

func (m *mockPaymentRepo) Update(ctx context.Context, p *entity.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[p.ReferenceID]
	if !ok || stored.Version != p.Version {
		return &apperr.ConcurrentModificationError{Entity: "payment", ID: p.ReferenceID}
	}
	p.Version++
	m.rows[p.ReferenceID] = *p
	return nil
}

func (m *mockPaymentRepo) ListByJob(ctx context.Context, tenantID, jobID string) ([]*entity.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.PaymentRecord
	for _, p := range m.rows {
		p := p
		if p.TenantID == tenantID && p.JobID == jobID {
			out = append(out, &p)
		}
	}
	return out, nil
}

type mockAuditRepo struct {
	mu         sync.Mutex
	entries    []*entity.AuditLogEntry
	appendFunc func(ctx context.Context, entry *entity.AuditLogEntry) error
}

func (m *mockAuditRepo) Append(ctx context.Context, entry *entity.AuditLogEntry) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.Seq = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByEntity(ctx context.Context, tenantID string, entityType entity.EntityType, entityID string) ([]*entity.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.AuditLogEntry
	for _, e := range m.entries {
		if e.TenantID == tenantID && e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockAuditRepo) ListAfter(ctx context.Context, afterSeq int64, limit int) ([]*entity.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.AuditLogEntry
	for _, e := range m.entries {
		if e.Seq > afterSeq && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockAuditRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

type mockGateway struct {
	sessionStatusFunc func(ctx context.Context, referenceID string) (*port.GatewaySession, error)
}

func (m *mockGateway) SessionStatus(ctx context.Context, referenceID string) (*port.GatewaySession, error) {
	if m.sessionStatusFunc != nil {
		return m.sessionStatusFunc(ctx, referenceID)
	}
	return &port.GatewaySession{ReferenceID: referenceID, Status: entity.PaymentPaid}, nil
}

type mockMetrics struct {
	mu          sync.Mutex
	transitions []string
	outcomes    []string
}

func (m *mockMetrics) Transition(entityName, from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, entityName+":"+from+"->"+to)
}

func (m *mockMetrics) ReconcileOutcome(kind entity.PaymentKind, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, string(kind)+":"+outcome)
}

// fixture wires the services over the mocks
type fixture struct {
	quotes   *mockQuoteRepo
	jobs     *mockJobRepo
	payments *mockPaymentRepo
	audit    *mockAuditRepo
	metrics  *mockMetrics
	gateway  *mockGateway
	deps     Deps
	policy   Policy
}

var fixedNow = time.Date(2026, 4, 14, 15, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		quotes:   newMockQuoteRepo(),
		jobs:     newMockJobRepo(),
		payments: newMockPaymentRepo(),
		audit:    &mockAuditRepo{},
		metrics:  &mockMetrics{},
		gateway:  &mockGateway{},
		policy:   DefaultPolicy(),
	}
	recorder := NewAuditRecorder(f.audit, nopLogger{})
	recorder.now = func() time.Time { return fixedNow }
	f.deps = Deps{
		Quotes:   f.quotes,
		Jobs:     f.jobs,
		Payments: f.payments,
		Audit:    recorder,
		Tx:       &mockTxManager{},
		Metrics:  f.metrics,
		Logger:   nopLogger{},
		Now:      func() time.Time { return fixedNow },
	}
	return f
}

func (f *fixture) quoteService() QuoteService { return NewQuoteService(f.deps, f.policy) }
func (f *fixture) jobService() JobService     { return NewJobService(f.deps) }
func (f *fixture) paymentService() PaymentService {
	return NewPaymentService(f.deps, f.gateway, f.policy)
}

// putJob stores a job directly in the given status
func (f *fixture) putJob(status entity.JobStatus, total, deposit string) *entity.Job {
	job := &entity.Job{
		ID:               "job-1",
		TenantID:         "tenant-1",
		QuoteID:          "quote-1",
		QuoteNumber:      "Q-2026-001",
		Tier:             entity.TierStandard,
		Status:           status,
		Total:            decimal.RequireFromString(total),
		Currency:         "USD",
		DepositAmount:    decimal.RequireFromString(deposit),
		BalanceRemaining: decimal.RequireFromString(total),
		AreaProgress: map[string]entity.AreaProgressStatus{
			"living":  entity.AreaNotStarted,
			"kitchen": entity.AreaNotStarted,
		},
		Version:   1,
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
	f.jobs.rows[job.ID] = cloneJob(*job)
	return job
}
