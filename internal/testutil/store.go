package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/clipforge/internal/domain/entity"
	errs "github.com/amirhossein-jamali/clipforge/internal/domain/error"
	"github.com/amirhossein-jamali/clipforge/internal/domain/port/persistence"
)

type txKey struct{}

type txHandle struct {
	snapshot *state
	done     bool
}

type state struct {
	users        map[uuid.UUID]entity.User
	entries      []entity.CreditEntry
	videos       map[uuid.UUID]entity.Video
	transactions map[uuid.UUID]entity.Transaction
	integrations map[uuid.UUID]entity.Integration
	sessions     map[uuid.UUID]entity.EmbeddedSession
}

func newState() *state {
	return &state{
		users:        map[uuid.UUID]entity.User{},
		videos:       map[uuid.UUID]entity.Video{},
		transactions: map[uuid.UUID]entity.Transaction{},
		integrations: map[uuid.UUID]entity.Integration{},
		sessions:     map[uuid.UUID]entity.EmbeddedSession{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	c.entries = append(c.entries, s.entries...)
	for k, v := range s.videos {
		c.videos[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.integrations {
		c.integrations[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	return c
}

// Store is an in-memory UnitOfWork. A transaction holds the store lock from
// Begin until Commit or Rollback, so writers are serialised the way row
// locks serialise them in Postgres, and Rollback restores the snapshot
// taken at Begin.
type Store struct {
	mu   sync.Mutex
	data *state

	// FailVideoCreate, when set, is returned by the next Videos().Create call
	FailVideoCreate error
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{data: newState()}
}

var _ persistence.UnitOfWork = (*Store)(nil)

func (s *Store) Begin(ctx context.Context) (context.Context, error) {
	s.mu.Lock()
	return context.WithValue(ctx, txKey{}, &txHandle{snapshot: s.data.clone()}), nil
}

func (s *Store) Commit(ctx context.Context) error {
	h, ok := ctx.Value(txKey{}).(*txHandle)
	if !ok || h.done {
		return nil
	}
	h.done = true
	s.mu.Unlock()
	return nil
}

func (s *Store) Rollback(ctx context.Context) error {
	h, ok := ctx.Value(txKey{}).(*txHandle)
	if !ok || h.done {
		return nil
	}
	s.data = h.snapshot
	h.done = true
	s.mu.Unlock()
	return nil
}

// InTransaction reports whether ctx holds an open transaction of this store
func (s *Store) InTransaction(ctx context.Context) bool {
	h, ok := ctx.Value(txKey{}).(*txHandle)
	return ok && !h.done
}

func (s *Store) with(ctx context.Context, fn func(st *state) error) error {
	if s.InTransaction(ctx) {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) Users(context.Context) persistence.UserRepository {
	return userRepo{s}
}

func (s *Store) CreditEntries(context.Context) persistence.CreditEntryRepository {
	return entryRepo{s}
}

func (s *Store) Videos(context.Context) persistence.VideoRepository {
	return videoRepo{s}
}

func (s *Store) Transactions(context.Context) persistence.TransactionRepository {
	return transactionRepo{s}
}

func (s *Store) Integrations(context.Context) persistence.IntegrationRepository {
	return integrationRepo{s}
}

func (s *Store) Sessions(context.Context) persistence.SessionRepository {
	return sessionRepo{s}
}

// SeedUser stores u as is
func (s *Store) SeedUser(u *entity.User) {
	_ = s.with(context.Background(), func(st *state) error {
		st.users[u.ID] = *u
		return nil
	})
}

// Balance returns the stored balance of a user, or -1 when missing
func (s *Store) Balance(id uuid.UUID) int64 {
	var out int64 = -1
	_ = s.with(context.Background(), func(st *state) error {
		if u, ok := st.users[id]; ok {
			out = u.Credits()
		}
		return nil
	})
	return out
}

// Entries returns a user's ledger entries in insertion order
func (s *Store) Entries(id uuid.UUID) []entity.CreditEntry {
	var out []entity.CreditEntry
	_ = s.with(context.Background(), func(st *state) error {
		for _, e := range st.entries {
			if e.UserID == id {
				out = append(out, e)
			}
		}
		return nil
	})
	return out
}

// Video returns a stored job
func (s *Store) Video(id uuid.UUID) (entity.Video, bool) {
	var v entity.Video
	var ok bool
	_ = s.with(context.Background(), func(st *state) error {
		v, ok = st.videos[id]
		return nil
	})
	return v, ok
}

// SeedVideo stores v as is
func (s *Store) SeedVideo(v *entity.Video) {
	_ = s.with(context.Background(), func(st *state) error {
		st.videos[v.ID] = *v
		return nil
	})
}

// User returns a stored user
func (s *Store) User(id uuid.UUID) (entity.User, bool) {
	var u entity.User
	var ok bool
	_ = s.with(context.Background(), func(st *state) error {
		u, ok = st.users[id]
		return nil
	})
	return u, ok
}

// SessionCount returns the number of stored embedded sessions
func (s *Store) SessionCount() int {
	n := 0
	_ = s.with(context.Background(), func(st *state) error {
		n = len(st.sessions)
		return nil
	})
	return n
}

type userRepo struct{ s *Store }

func (r userRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var out *entity.User
	err := r.s.with(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return errs.ErrUserNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r userRepo) GetByLogin(ctx context.Context, login string) (*entity.User, error) {
	var out *entity.User
	login = strings.ToLower(strings.TrimSpace(login))
	err := r.s.with(ctx, func(st *state) error {
		for _, u := range st.users {
			if strings.ToLower(u.Username) == login || u.Email == login {
				u := u
				out = &u
				return nil
			}
		}
		return errs.ErrUserNotFound
	})
	return out, err
}

func (r userRepo) GetByLocationID(ctx context.Context, locationID string) (*entity.User, error) {
	var out *entity.User
	err := r.s.with(ctx, func(st *state) error {
		for _, u := range st.users {
			if u.LocationID != nil && *u.LocationID == locationID {
				u := u
				out = &u
				return nil
			}
		}
		return errs.ErrUserNotFound
	})
	return out, err
}

func (r userRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	found := false
	err := r.s.with(ctx, func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Username, username) || strings.EqualFold(u.Email, email) {
				found = true
			}
		}
		return nil
	})
	return found, err
}

func (r userRepo) List(ctx context.Context) ([]*entity.User, error) {
	var out []*entity.User
	err := r.s.with(ctx, func(st *state) error {
		for _, u := range st.users {
			u := u
			out = append(out, &u)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r userRepo) Create(ctx context.Context, user *entity.User) error {
	return r.s.with(ctx, func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
				return errs.ErrDuplicateUser
			}
			if u.LocationID != nil && user.LocationID != nil && *u.LocationID == *user.LocationID {
				return errs.ErrDuplicateUser
			}
		}
		st.users[user.ID] = *user
		return nil
	})
}

func (r userRepo) UpdateProfile(ctx context.Context, user *entity.User) error {
	return r.s.with(ctx, func(st *state) error {
		cur, ok := st.users[user.ID]
		if !ok {
			return errs.ErrUserNotFound
		}
		for id, u := range st.users {
			if id != user.ID && strings.EqualFold(u.Email, user.Email) {
				return errs.ErrDuplicateUser
			}
		}
		cur.Email = user.Email
		cur.BusinessName = user.BusinessName
		cur.PasswordHash = user.PasswordHash
		cur.UpdatedAt = user.UpdatedAt
		st.users[user.ID] = cur
		return nil
	})
}

func (r userRepo) AdjustCredits(ctx context.Context, userID uuid.UUID, delta int64) (*entity.User, error) {
	var out *entity.User
	err := r.s.with(ctx, func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return errs.ErrUserNotFound
		}
		if u.Credits()+delta < 0 {
			return errs.NewInsufficientCreditsError(userID.String(), -delta)
		}
		u.SetCredits(u.Credits() + delta)
		st.users[userID] = u
		out = &u
		return nil
	})
	return out, err
}

type entryRepo struct{ s *Store }

func (r entryRepo) Append(ctx context.Context, entry *entity.CreditEntry) error {
	return r.s.with(ctx, func(st *state) error {
		if entry.Reference != "" {
			for _, e := range st.entries {
				if e.Reference == entry.Reference {
					return errs.ErrDuplicateLedgerEntry
				}
			}
		}
		st.entries = append(st.entries, *entry)
		return nil
	})
}

func (r entryRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.CreditEntry, error) {
	var out []*entity.CreditEntry
	err := r.s.with(ctx, func(st *state) error {
		for i := len(st.entries) - 1; i >= 0; i-- {
			if st.entries[i].UserID == userID {
				e := st.entries[i]
				out = append(out, &e)
				if limit > 0 && len(out) == limit {
					break
				}
			}
		}
		return nil
	})
	return out, err
}

func (r entryRepo) SumByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var sum int64
	err := r.s.with(ctx, func(st *state) error {
		for _, e := range st.entries {
			if e.UserID == userID {
				sum += e.Amount
			}
		}
		return nil
	})
	return sum, err
}

type videoRepo struct{ s *Store }

func (r videoRepo) Create(ctx context.Context, video *entity.Video) error {
	return r.s.with(ctx, func(st *state) error {
		if err := r.s.FailVideoCreate; err != nil {
			r.s.FailVideoCreate = nil
			return err
		}
		st.videos[video.ID] = *video
		return nil
	})
}

func (r videoRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Video, error) {
	var out *entity.Video
	err := r.s.with(ctx, func(st *state) error {
		v, ok := st.videos[id]
		if !ok {
			return errs.ErrVideoNotFound
		}
		out = &v
		return nil
	})
	return out, err
}

func (r videoRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Video, error) {
	return r.GetByIDForUpdate(ctx, id)
}

func (r videoRepo) GetForOwner(ctx context.Context, id, userID uuid.UUID) (*entity.Video, error) {
	var out *entity.Video
	err := r.s.with(ctx, func(st *state) error {
		v, ok := st.videos[id]
		if !ok || v.UserID != userID {
			return errs.ErrVideoNotFound
		}
		out = &v
		return nil
	})
	return out, err
}

func (r videoRepo) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*entity.Video, error) {
	var out []*entity.Video
	err := r.s.with(ctx, func(st *state) error {
		for _, v := range st.videos {
			if v.UserID == userID {
				v := v
				out = append(out, &v)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r videoRepo) Update(ctx context.Context, video *entity.Video) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.videos[video.ID]; !ok {
			return errs.ErrVideoNotFound
		}
		st.videos[video.ID] = *video
		return nil
	})
}

func (r videoRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return r.s.with(ctx, func(st *state) error {
		v, ok := st.videos[id]
		if !ok || v.UserID != userID {
			return errs.ErrVideoNotFound
		}
		delete(st.videos, id)
		return nil
	})
}

type transactionRepo struct{ s *Store }

func (r transactionRepo) Create(ctx context.Context, t *entity.Transaction) error {
	return r.s.with(ctx, func(st *state) error {
		st.transactions[t.ID] = *t
		return nil
	})
}

func (r transactionRepo) Update(ctx context.Context, t *entity.Transaction) error {
	return r.s.with(ctx, func(st *state) error {
		if _, ok := st.transactions[t.ID]; !ok {
			return errs.ErrPaymentNotFound
		}
		st.transactions[t.ID] = *t
		return nil
	})
}

func (r transactionRepo) GetBySessionIDForUpdate(ctx context.Context, sessionID string) (*entity.Transaction, error) {
	var out *entity.Transaction
	err := r.s.with(ctx, func(st *state) error {
		for _, t := range st.transactions {
			if t.SessionID != nil && *t.SessionID == sessionID {
				t := t
				out = &t
				return nil
			}
		}
		return errs.ErrPaymentNotFound
	})
	return out, err
}

// Transaction returns a stored payment transaction
func (s *Store) Transaction(id uuid.UUID) (entity.Transaction, bool) {
	var t entity.Transaction
	var ok bool
	_ = s.with(context.Background(), func(st *state) error {
		t, ok = st.transactions[id]
		return nil
	})
	return t, ok
}

type integrationRepo struct{ s *Store }

func (r integrationRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.Integration, error) {
	var out *entity.Integration
	err := r.s.with(ctx, func(st *state) error {
		i, ok := st.integrations[userID]
		if !ok {
			return errs.ErrIntegrationNotFound
		}
		out = &i
		return nil
	})
	return out, err
}

func (r integrationRepo) Upsert(ctx context.Context, integration *entity.Integration) error {
	return r.s.with(ctx, func(st *state) error {
		if cur, ok := st.integrations[integration.UserID]; ok {
			integration.ID = cur.ID
			integration.CreatedAt = cur.CreatedAt
		}
		st.integrations[integration.UserID] = *integration
		return nil
	})
}

func (r integrationRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return r.s.with(ctx, func(st *state) error {
		delete(st.integrations, userID)
		return nil
	})
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) Replace(ctx context.Context, session *entity.EmbeddedSession) error {
	return r.s.with(ctx, func(st *state) error {
		for id, existing := range st.sessions {
			if existing.LocationID == session.LocationID {
				delete(st.sessions, id)
			}
		}
		st.sessions[session.ID] = *session
		return nil
	})
}

func (r sessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*entity.EmbeddedSession, error) {
	var out *entity.EmbeddedSession
	err := r.s.with(ctx, func(st *state) error {
		for _, sess := range st.sessions {
			if sess.TokenHash == tokenHash {
				sess := sess
				out = &sess
				return nil
			}
		}
		return errs.ErrSessionNotFound
	})
	return out, err
}

func (r sessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return r.s.with(ctx, func(st *state) error {
		for id, sess := range st.sessions {
			if sess.TokenHash == tokenHash {
				delete(st.sessions, id)
			}
		}
		return nil
	})
}
