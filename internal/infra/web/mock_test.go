//go:build !integration

package web

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"immersive-english/internal/domain"
	"immersive-english/internal/domain/model"
	"immersive-english/internal/domain/ports/adapter"
	"immersive-english/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- Mock Repositories (Ports) ---

type mockCodeRepo struct {
	repository.AccessCodeRepository // Embed interface for forward compatibility
	mu                              sync.Mutex
	codes                           map[string]*model.AccessCode
	ListError                       error
}

func newMockCodeRepo() *mockCodeRepo {
	return &mockCodeRepo{codes: map[string]*model.AccessCode{}}
}

func (m *mockCodeRepo) add(code string, status model.CodeStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, _ := model.NewAccessCode(code, model.CodeKindStandard, nil, nil)
	c.Status = status
	m.codes[code] = c
}

func (m *mockCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.AccessCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[code.Code]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *code
	m.codes[code.Code] = &cp
	return nil
}

func (m *mockCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCodeRepo) ListAllocatable(ctx context.Context, tx repository.Tx, limit int) ([]*model.AccessCode, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AccessCode
	for _, c := range m.codes {
		if c.Status == model.CodeStatusUnused && !c.IsExpired(time.Now()) {
			cp := *c
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockCodeRepo) Reserve(ctx context.Context, tx repository.Tx, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok || c.Status != model.CodeStatusUnused || c.IsExpired(time.Now()) {
		return false, nil
	}
	now := time.Now()
	c.Status = model.CodeStatusReserved
	c.ReservedAt = &now
	return true, nil
}

func (m *mockCodeRepo) Activate(ctx context.Context, tx repository.Tx, code, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
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

func (m *mockCodeRepo) MarkExpired(ctx context.Context, tx repository.Tx, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok || (c.Status != model.CodeStatusUnused && c.Status != model.CodeStatusReserved) {
		return false, nil
	}
	c.Status = model.CodeStatusExpired
	return true, nil
}

func (m *mockCodeRepo) List(ctx context.Context, tx repository.Tx, status model.CodeStatus, offset, limit int) ([]*model.AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AccessCode
	for _, c := range m.codes {
		if status == "" || c.Status == status {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockCodeRepo) statusOf(code string) model.CodeStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok {
		return ""
	}
	return c.Status
}

type mockUserRepo struct {
	repository.UserRepository // Embed interface
	mu                        sync.Mutex
	users                     map[string]*model.User
	SaveError                 error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*model.User{}}
}

func (m *mockUserRepo) Save(ctx context.Context, tx repository.Tx, user *model.User) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrAlreadyExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type mockVocabRepo struct {
	repository.VocabRepository // Embed interface
	mu                         sync.Mutex
	entries                    []*model.VocabEntry
}

func (m *mockVocabRepo) Upsert(ctx context.Context, tx repository.Tx, entry *model.VocabEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.UserID == entry.UserID && e.Word == entry.Word {
			m.entries[i] = entry
			return nil
		}
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockVocabRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, status model.VocabStatus) ([]*model.VocabEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.VocabEntry
	for _, e := range m.entries {
		if e.UserID == userID && (status == "" || e.Status == status) {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockClipRepo struct {
	repository.ClipRepository // Embed interface
	mu                        sync.Mutex
	clips                     []*model.Clip
	ListError                 error
}

func (m *mockClipRepo) Save(ctx context.Context, tx repository.Tx, clip *model.Clip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clips = append(m.clips, clip)
	return nil
}

func (m *mockClipRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Clip, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clips, nil
}

// mockTxManager runs the function without a real transaction; the mock repos
// mutate in place, so rollback semantics are not emulated here.
type mockTxManager struct{}

func (mockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

type mockStream struct {
	uploads int
}

func (m *mockStream) CreateDirectUpload(ctx context.Context, maxDurationSeconds int) (*adapter.DirectUpload, error) {
	m.uploads++
	return &adapter.DirectUpload{UploadURL: "https://upload.example/slot", VideoUID: "vid-1"}, nil
}

// plainHasher avoids bcrypt cost in handler tests.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "h:" + plain, nil }

func (plainHasher) Compare(hash, plain string) error {
	if hash != "h:"+plain {
		return domain.ErrInvalidCredentials
	}
	return nil
}
