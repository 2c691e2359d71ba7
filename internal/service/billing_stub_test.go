package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/lms-billing/internal/billing"
	"github.com/noah-isme/lms-billing/internal/models"
	"github.com/noah-isme/lms-billing/internal/repository"
	appErrors "github.com/noah-isme/lms-billing/pkg/errors"
)

// memLedger is an in-memory BillingQueries whose WithinTx restores a
// snapshot when the callback fails.
type memLedger struct {
	lessons        map[string]models.Lesson
	lessonStudents map[string][]string
	teachers       map[string]models.Teacher
	students       map[string]models.Student
	companies      map[string]models.Company
	types          map[string]models.TransactionType
	txns           []models.Transaction
	seq            int

	failAdjustFor string
	commits       int
	rollbacks     int
}

func newMemLedger() *memLedger {
	return &memLedger{
		lessons:        map[string]models.Lesson{},
		lessonStudents: map[string][]string{},
		teachers:       map[string]models.Teacher{},
		students:       map[string]models.Student{},
		companies:      map[string]models.Company{},
		types:          map[string]models.TransactionType{},
	}
}

func (m *memLedger) snapshot() *memLedger {
	c := newMemLedger()
	for k, v := range m.lessons {
		c.lessons[k] = v
	}
	for k, v := range m.lessonStudents {
		c.lessonStudents[k] = append([]string(nil), v...)
	}
	for k, v := range m.teachers {
		c.teachers[k] = v
	}
	for k, v := range m.students {
		c.students[k] = v
	}
	for k, v := range m.companies {
		c.companies[k] = v
	}
	for k, v := range m.types {
		c.types[k] = v
	}
	c.txns = append([]models.Transaction(nil), m.txns...)
	c.seq = m.seq
	return c
}

func (m *memLedger) restore(s *memLedger) {
	m.lessons, m.lessonStudents, m.teachers = s.lessons, s.lessonStudents, s.teachers
	m.students, m.companies, m.types = s.students, s.companies, s.types
	m.txns, m.seq = s.txns, s.seq
}

func (m *memLedger) WithinTx(ctx context.Context, fn func(repository.BillingQueries) error) error {
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

func (m *memLedger) LockLesson(ctx context.Context, lessonID string) (*models.Lesson, error) {
	lesson, ok := m.lessons[lessonID]
	if !ok {
		return nil, fmt.Errorf("lock lesson %s: %w", lessonID, sql.ErrNoRows)
	}
	return &lesson, nil
}

func (m *memLedger) LockLessonStudents(ctx context.Context, lessonID string) ([]models.Student, error) {
	ids := append([]string(nil), m.lessonStudents[lessonID]...)
	sort.Strings(ids)
	students := make([]models.Student, 0, len(ids))
	for _, id := range ids {
		students = append(students, m.students[id])
	}
	return students, nil
}

func (m *memLedger) GetTeacher(ctx context.Context, teacherID string) (*models.Teacher, error) {
	teacher, ok := m.teachers[teacherID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &teacher, nil
}

func (m *memLedger) LockCompany(ctx context.Context, companyID string) (*models.Company, error) {
	company, ok := m.companies[companyID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &company, nil
}

func (m *memLedger) LockStudent(ctx context.Context, studentID string) (*models.Student, error) {
	student, ok := m.students[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

func (m *memLedger) UpdateLessonBilling(ctx context.Context, lesson *models.Lesson) error {
	stored, ok := m.lessons[lesson.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Status = lesson.Status
	stored.Price = lesson.Price
	stored.CurrencyID = lesson.CurrencyID
	m.lessons[lesson.ID] = stored
	return nil
}

func (m *memLedger) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.LessonID != nil {
		for _, existing := range m.txns {
			if existing.LessonID != nil && *existing.LessonID == *txn.LessonID &&
				existing.OwnerKind == txn.OwnerKind && existing.OwnerID == txn.OwnerID {
				return appErrors.Clone(appErrors.ErrConflict, "duplicate lesson transaction")
			}
		}
	}
	m.seq++
	txn.ID = fmt.Sprintf("txn-%d", m.seq)
	txn.CreatedAt = time.Date(2024, time.March, 2, 16, 0, m.seq, 0, time.UTC)
	m.txns = append(m.txns, *txn)
	return nil
}

func (m *memLedger) AdjustWallet(ctx context.Context, kind models.OwnerKind, ownerID string, delta decimal.Decimal) error {
	if ownerID == m.failAdjustFor {
		return errors.New("connection reset")
	}
	switch kind {
	case models.OwnerStudent:
		student, ok := m.students[ownerID]
		if !ok {
			return sql.ErrNoRows
		}
		student.Wallet = student.Wallet.Add(delta)
		m.students[ownerID] = student
	case models.OwnerCompany:
		company, ok := m.companies[ownerID]
		if !ok {
			return sql.ErrNoRows
		}
		company.Wallet = company.Wallet.Add(delta)
		m.companies[ownerID] = company
	default:
		return appErrors.Clone(appErrors.ErrValidation, "no wallet")
	}
	return nil
}

func (m *memLedger) ListLessonTransactions(ctx context.Context, lessonID string) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, txn := range m.txns {
		if txn.LessonID != nil && *txn.LessonID == lessonID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (m *memLedger) DeleteTransaction(ctx context.Context, transactionID string) error {
	for i, txn := range m.txns {
		if txn.ID == transactionID {
			m.txns = append(m.txns[:i:i], m.txns[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memLedger) GetTransactionType(ctx context.Context, typeID string) (*models.TransactionType, error) {
	txnType, ok := m.types[typeID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &txnType, nil
}

func (m *memLedger) lessonTxns(lessonID string) []models.Transaction {
	txns, _ := m.ListLessonTransactions(context.Background(), lessonID)
	return txns
}

// stubCatalogRepo serves fixed reference data and counts lookups.
type stubCatalogRepo struct {
	currencies []models.Currency
	plans      map[string]models.PricePlan
	types      []models.TransactionType
	planCalls  int
	currCalls  int
}

func (r *stubCatalogRepo) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	r.currCalls++
	return append([]models.Currency(nil), r.currencies...), nil
}

func (r *stubCatalogRepo) ListPlans(ctx context.Context, ids []string) ([]models.PricePlan, error) {
	r.planCalls++
	var out []models.PricePlan
	for _, id := range ids {
		if plan, ok := r.plans[id]; ok {
			out = append(out, plan)
		}
	}
	return out, nil
}

func (r *stubCatalogRepo) ListTransactionTypes(ctx context.Context) ([]models.TransactionType, error) {
	return r.types, nil
}

// memCache is a CacheRepository over a map with glob pattern deletes.
type memCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]string{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return jsonUnmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := jsonMarshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func money(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}

func ptr[T any](v T) *T {
	return &v
}

var testLessonAt = time.Date(2024, time.March, 2, 15, 30, 0, 0, time.UTC)

// billingFixture is a small school: three currencies, two teachers, one
// sponsoring company and a handful of students.
type billingFixture struct {
	ledger  *memLedger
	catalog *stubCatalogRepo
	cache   *memCache
	metrics *MetricsService
	service *LessonBillingService
}

func newBillingFixture() *billingFixture {
	usd := models.Currency{ID: "usd", Code: "USD", Exchange: money("1"), IsDefault: true}
	eur := models.Currency{ID: "eur", Code: "EUR", Exchange: money("0.9")}
	gbp := models.Currency{ID: "gbp", Code: "GBP", Exchange: money("0.8")}

	catalogRepo := &stubCatalogRepo{
		currencies: []models.Currency{usd, eur, gbp},
		plans: map[string]models.PricePlan{
			"student-usd":   {ID: "student-usd", Price: money("100"), CurrencyID: ptr("usd")},
			"student-eur":   {ID: "student-eur", Price: money("100"), CurrencyID: ptr("eur")},
			"teacher-flat":  {ID: "teacher-flat", Price: money("40"), CurrencyID: ptr("usd")},
			"teacher-share": {ID: "teacher-share", Price: money("0"), CurrencyID: ptr("gbp")},
			"company-usd":   {ID: "company-usd", Price: money("100"), CurrencyID: ptr("usd")},
		},
	}

	ledger := newMemLedger()
	ledger.teachers["t1"] = models.Teacher{ID: "t1", FullName: "Tom Flat", Billable: models.Billable{PlanID: ptr("teacher-flat")}}
	ledger.teachers["t2"] = models.Teacher{ID: "t2", FullName: "Tia Share", Billable: models.Billable{PlanID: ptr("teacher-share")}}
	ledger.companies["acme"] = models.Company{ID: "acme", Name: "Acme", Discount: 50, IsActive: true,
		Billable: models.Billable{PlanID: ptr("company-usd"), Wallet: money("1000")}}
	ledger.companies["other"] = models.Company{ID: "other", Name: "Other", Discount: 0, IsActive: true,
		Billable: models.Billable{PlanID: ptr("company-usd"), Wallet: money("0")}}

	addStudent := func(id, name, plan, wallet string, company *string) {
		s := models.Student{ID: id, FullName: name, CompanyID: company, Billable: models.Billable{Wallet: money(wallet)}}
		if plan != "" {
			s.PlanID = ptr(plan)
		}
		ledger.students[id] = s
	}
	addStudent("s1", "Ann Lee", "student-usd", "500", ptr("acme"))
	addStudent("s2", "Bo Kim", "student-usd", "0", ptr("acme"))
	addStudent("s3", "Cy Roe", "student-eur", "50", nil)
	addStudent("s4", "Di Poe", "student-usd", "20", ptr("other"))
	addStudent("s5", "Ed Fox", "student-usd", "300", nil)
	addStudent("s6", "No Plan", "", "0", nil)

	addLesson := func(id, teacher string, minutes int, students ...string) {
		ledger.lessons[id] = models.Lesson{ID: id, TeacherID: ptr(teacher), ScheduledAt: testLessonAt,
			DurationMinutes: minutes, Status: models.LessonStatusPlanned, Price: decimal.Zero}
		ledger.lessonStudents[id] = students
	}
	addLesson("mixed-currency", "t1", 60, "s5", "s3")
	addLesson("company", "t1", 30, "s1", "s2")
	addLesson("mixed-company", "t1", 60, "s1", "s4")
	addLesson("share", "t2", 60, "s5")
	addLesson("no-plan", "t1", 60, "s5", "s6")
	addLesson("empty", "t1", 60)

	cache := newMemCache()
	metrics := NewMetricsService()
	cacheSvc := NewCacheService(cache, metrics, time.Minute, nil, true)
	calc, err := billing.NewCalculator(60, billing.DefaultDiscountSchedule())
	if err != nil {
		panic(err)
	}
	svc := NewLessonBillingService(ledger, NewCatalogService(catalogRepo, cacheSvc, time.Minute, nil), calc, nil, cacheSvc, metrics, nil, nil)

	return &billingFixture{ledger: ledger, catalog: catalogRepo, cache: cache, metrics: metrics, service: svc}
}

func (f *billingFixture) wallet(kind models.OwnerKind, id string) string {
	if kind == models.OwnerCompany {
		return f.ledger.companies[id].Wallet.StringFixed(2)
	}
	return f.ledger.students[id].Wallet.StringFixed(2)
}
