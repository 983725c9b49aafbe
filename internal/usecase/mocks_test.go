package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"immersive-english/internal/domain"
	"immersive-english/internal/domain/model"
	"immersive-english/internal/domain/ports/adapter"
	"immersive-english/internal/domain/ports/repository"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memCodeRepo is a small in-memory implementation used by unit tests. Its
// Reserve/Activate re-check status under the lock, mirroring the conditional
// UPDATE semantics of the real repository.
type memCodeRepo struct {
	mu      sync.Mutex
	store   map[string]*model.AccessCode
	listErr error // used by tests to simulate store failures
	saveErr error
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{store: make(map[string]*model.AccessCode)}
}

func (m *memCodeRepo) put(c *model.AccessCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.Code] = &cp
}

func (m *memCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.AccessCode) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[code.Code]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *code
	m.store[code.Code] = &cp
	return nil
}

func (m *memCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCodeRepo) ListAllocatable(ctx context.Context, tx repository.Tx, limit int) ([]*model.AccessCode, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	out := make([]*model.AccessCode, 0)
	for _, c := range m.store {
		if c.Status == model.CodeStatusUnused && !c.IsExpired(now) {
			cp := *c
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memCodeRepo) Reserve(ctx context.Context, tx repository.Tx, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[code]
	if !ok || c.Status != model.CodeStatusUnused || c.IsExpired(time.Now()) {
		return false, nil
	}
	now := time.Now()
	c.Status = model.CodeStatusReserved
	c.ReservedAt = &now
	return true, nil
}

func (m *memCodeRepo) Activate(ctx context.Context, tx repository.Tx, code, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[code]
	if !ok || c.IsExpired(time.Now()) {
		return false, nil
	}
	if c.Status != model.CodeStatusUnused && c.Status != model.CodeStatusReserved {
		return false, nil
	}
	now := time.Now()
	c.Status = model.CodeStatusActive
	c.ActivatedBy = &userID
	c.ActivatedAt = &now
	return true, nil
}

func (m *memCodeRepo) MarkExpired(ctx context.Context, tx repository.Tx, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[code]
	if !ok || (c.Status != model.CodeStatusUnused && c.Status != model.CodeStatusReserved) {
		return false, nil
	}
	c.Status = model.CodeStatusExpired
	return true, nil
}

func (m *memCodeRepo) ReleaseStale(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.store {
		if c.Status == model.CodeStatusReserved && c.ReservedAt != nil && c.ReservedAt.Before(cutoff) {
			c.Status = model.CodeStatusUnused
			c.ReservedAt = nil
			n++
		}
	}
	return n, nil
}

func (m *memCodeRepo) ExpireOverdue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.store {
		if (c.Status == model.CodeStatusUnused || c.Status == model.CodeStatusReserved) &&
			c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
			c.Status = model.CodeStatusExpired
			n++
		}
	}
	return n, nil
}

func (m *memCodeRepo) List(ctx context.Context, tx repository.Tx, status model.CodeStatus, offset, limit int) ([]*model.AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.AccessCode, 0)
	for _, c := range m.store {
		if status == "" || c.Status == status {
			cp := *c
			out = append(out, &cp)
		}
	}
	if offset > len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memCodeRepo) statusOf(code string) model.CodeStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[code]
	if !ok {
		return ""
	}
	return c.Status
}

// memUserRepo stores accounts keyed by email.
type memUserRepo struct {
	mu      sync.RWMutex
	byEmail map[string]*model.User
	saveErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: make(map[string]*model.User)}
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, user *model.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[user.Email]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *user
	m.byEmail[user.Email] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byEmail), nil
}

func (m *memUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.User, 0, len(m.byEmail))
	for _, u := range m.byEmail {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

// memTxManager runs the callback directly. The mem repos are already atomic
// per call, and rollback is emulated by snapshotting the code store so the
// atomic-finalize tests can assert restoration.
type memTxManager struct {
	codes *memCodeRepo
}

func (m *memTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	var snapshot map[string]*model.AccessCode
	if m.codes != nil {
		m.codes.mu.Lock()
		snapshot = make(map[string]*model.AccessCode, len(m.codes.store))
		for k, v := range m.codes.store {
			cp := *v
			snapshot[k] = &cp
		}
		m.codes.mu.Unlock()
	}
	if err := fn(ctx, nil); err != nil {
		if m.codes != nil {
			m.codes.mu.Lock()
			m.codes.store = snapshot
			m.codes.mu.Unlock()
		}
		return err
	}
	return nil
}

// memVocabRepo keyed by user|word.
type memVocabRepo struct {
	mu    sync.RWMutex
	store map[string]*model.VocabEntry
}

func newMemVocabRepo() *memVocabRepo {
	return &memVocabRepo{store: make(map[string]*model.VocabEntry)}
}

func vocabKey(userID, word string) string { return userID + "|" + word }

func (m *memVocabRepo) Upsert(ctx context.Context, tx repository.Tx, entry *model.VocabEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.store[vocabKey(entry.UserID, entry.Word)] = &cp
	return nil
}

func (m *memVocabRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, status model.VocabStatus) ([]*model.VocabEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.VocabEntry, 0)
	for _, e := range m.store {
		if e.UserID == userID && (status == "" || e.Status == status) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// memClipRepo keyed by id.
type memClipRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Clip
}

func newMemClipRepo() *memClipRepo {
	return &memClipRepo{store: make(map[string]*model.Clip)}
}

func (m *memClipRepo) Save(ctx context.Context, tx repository.Tx, clip *model.Clip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *clip
	m.store[clip.ID] = &cp
	return nil
}

func (m *memClipRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Clip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memClipRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Clip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Clip, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// fakeStream mints predictable upload slots.
type fakeStream struct {
	calls int
	err   error
}

func (f *fakeStream) CreateDirectUpload(ctx context.Context, maxDurationSeconds int) (*adapter.DirectUpload, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls++
	return &adapter.DirectUpload{
		UploadURL: fmt.Sprintf("https://upload.example/%d", f.calls),
		VideoUID:  fmt.Sprintf("vid-%d", f.calls),
	}, nil
}

// plainHasher avoids bcrypt cost in unit tests.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "h:" + plain, nil }
func (plainHasher) Compare(hash, plain string) error {
	if hash != "h:"+plain {
		return domain.ErrInvalidCredentials
	}
	return nil
}
