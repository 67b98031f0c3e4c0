package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pet-auction-house/internal/core/domain"
	"pet-auction-house/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// memStore is a shared in-memory database backing all four repos. The
// cross-entity queries (open-bid sums, lot listings with pet and author
// joined in) need a single view of the data, so the repos are thin
// views over one store rather than independent maps.
type memStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*domain.Account
	pets     map[uuid.UUID]*domain.Pet
	lots     map[uuid.UUID]*domain.Lot
	bids     map[uuid.UUID]*domain.Bid
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[uuid.UUID]*domain.Account),
		pets:     make(map[uuid.UUID]*domain.Pet),
		lots:     make(map[uuid.UUID]*domain.Lot),
		bids:     make(map[uuid.UUID]*domain.Bid),
	}
}

// --- Account Repo ---

type inMemoryAccountRepo struct {
	store *memStore
}

func newInMemoryAccountRepo(store *memStore) *inMemoryAccountRepo {
	return &inMemoryAccountRepo{store: store}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.accounts {
		if existing.Username == account.Username {
			return fmt.Errorf("username already exists")
		}
	}
	cp := *account
	r.store.accounts[account.ID] = &cp
	return nil
}

func (r *inMemoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	a, ok := r.store.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, a := range r.store.accounts {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryAccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, balance decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.accounts[accountID]
	if !ok {
		return fmt.Errorf("account not found")
	}
	a.Balance = balance
	return nil
}

func (r *inMemoryAccountRepo) SumOpenBids(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	sum := decimal.Zero
	for _, b := range r.store.bids {
		if b.AuthorID != accountID {
			continue
		}
		lot, ok := r.store.lots[b.LotID]
		if ok && lot.Status == domain.LotStatusOpen {
			sum = sum.Add(b.Price)
		}
	}
	return sum, nil
}

// --- Pet Repo ---

type inMemoryPetRepo struct {
	store *memStore
}

func newInMemoryPetRepo(store *memStore) *inMemoryPetRepo {
	return &inMemoryPetRepo{store: store}
}

func (r *inMemoryPetRepo) Create(ctx context.Context, pet *domain.Pet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *pet
	r.store.pets[pet.ID] = &cp
	return nil
}

func (r *inMemoryPetRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Pet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	p, ok := r.store.pets[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *inMemoryPetRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Pet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var pets []domain.Pet
	for _, p := range r.store.pets {
		if p.OwnerID == ownerID {
			pets = append(pets, *p)
		}
	}
	sort.Slice(pets, func(i, j int) bool { return pets[i].CreatedAt.Before(pets[j].CreatedAt) })
	return pets, nil
}

func (r *inMemoryPetRepo) UpdateOwner(ctx context.Context, tx pgx.Tx, petID, ownerID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.pets[petID]
	if !ok {
		return fmt.Errorf("pet not found")
	}
	p.OwnerID = ownerID
	return nil
}

// --- Lot Repo ---

type inMemoryLotRepo struct {
	store *memStore
}

func newInMemoryLotRepo(store *memStore) *inMemoryLotRepo {
	return &inMemoryLotRepo{store: store}
}

func (r *inMemoryLotRepo) Create(ctx context.Context, lot *domain.Lot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *lot
	r.store.lots[lot.ID] = &cp
	return nil
}

func (r *inMemoryLotRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	l, ok := r.store.lots[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *inMemoryLotRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Lot, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryLotRepo) OpenLotExists(ctx context.Context, petID, authorID uuid.UUID) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, l := range r.store.lots {
		if l.PetID == petID && l.AuthorID == authorID && l.Status == domain.LotStatusOpen {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryLotRepo) ListOpen(ctx context.Context) ([]ports.LotSummary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var summaries []ports.LotSummary
	for _, l := range r.store.lots {
		if l.Status != domain.LotStatusOpen {
			continue
		}
		summaries = append(summaries, r.summarizeLocked(l))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID.String() < summaries[j].ID.String()
	})
	return summaries, nil
}

func (r *inMemoryLotRepo) Close(ctx context.Context, tx pgx.Tx, lotID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	l, ok := r.store.lots[lotID]
	if !ok || l.Status != domain.LotStatusOpen {
		return fmt.Errorf("lot not open")
	}
	l.Status = domain.LotStatusClosed
	return nil
}

// summarizeLocked builds the display projection. Caller holds the lock.
func (r *inMemoryLotRepo) summarizeLocked(l *domain.Lot) ports.LotSummary {
	s := ports.LotSummary{ID: l.ID, Price: l.Price}
	if pet, ok := r.store.pets[l.PetID]; ok {
		s.Pet = *pet
	}
	if author, ok := r.store.accounts[l.AuthorID]; ok {
		s.Author = author.Username
	}
	return s
}

// --- Bid Repo ---

type inMemoryBidRepo struct {
	store   *memStore
	lotRepo *inMemoryLotRepo
}

func newInMemoryBidRepo(store *memStore, lotRepo *inMemoryLotRepo) *inMemoryBidRepo {
	return &inMemoryBidRepo{store: store, lotRepo: lotRepo}
}

func (r *inMemoryBidRepo) Create(ctx context.Context, bid *domain.Bid) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, b := range r.store.bids {
		if b.LotID == bid.LotID && b.AuthorID == bid.AuthorID {
			return fmt.Errorf("bid already exists for lot")
		}
	}
	cp := *bid
	r.store.bids[bid.ID] = &cp
	return nil
}

func (r *inMemoryBidRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bid, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	b, ok := r.store.bids[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *inMemoryBidRepo) ExistsForLot(ctx context.Context, lotID, authorID uuid.UUID) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, b := range r.store.bids {
		if b.LotID == lotID && b.AuthorID == authorID {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryBidRepo) ListActiveByLot(ctx context.Context, lotID uuid.UUID) ([]ports.BidSummary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	lot, ok := r.store.lots[lotID]
	if !ok || lot.Status != domain.LotStatusOpen {
		return nil, nil
	}
	var summaries []ports.BidSummary
	for _, b := range r.store.bids {
		if b.LotID != lotID {
			continue
		}
		s := ports.BidSummary{ID: b.ID, Price: b.Price}
		if author, ok := r.store.accounts[b.AuthorID]; ok {
			s.Author = author.Username
		}
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID.String() < summaries[j].ID.String()
	})
	return summaries, nil
}

func (r *inMemoryBidRepo) ListActive(ctx context.Context) ([]ports.BidDetail, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var details []ports.BidDetail
	for _, b := range r.store.bids {
		lot, ok := r.store.lots[b.LotID]
		if !ok || lot.Status != domain.LotStatusOpen {
			continue
		}
		d := ports.BidDetail{ID: b.ID, Price: b.Price, Lot: r.lotRepo.summarizeLocked(lot)}
		if author, ok := r.store.accounts[b.AuthorID]; ok {
			d.Author = author.Username
		}
		details = append(details, d)
	}
	sort.Slice(details, func(i, j int) bool {
		return details[i].ID.String() < details[j].ID.String()
	})
	return details, nil
}

func (r *inMemoryBidRepo) Delete(ctx context.Context, bidID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.bids[bidID]; !ok {
		return fmt.Errorf("bid not found")
	}
	delete(r.store.bids, bidID)
	return nil
}

// --- Transactor ---

// serialTransactor hands out transactions one at a time: Begin blocks
// until the previous transaction commits or rolls back. This mirrors
// the row-lock serialization the real postgres transactor gets from
// SELECT ... FOR UPDATE, which the concurrency tests depend on.
type serialTransactor struct {
	mu sync.Mutex
}

func newSerialTransactor() *serialTransactor {
	return &serialTransactor{}
}

func (t *serialTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &serialTx{release: &t.mu}, nil
}

// serialTx releases the transactor lock exactly once, on whichever of
// Commit or Rollback runs first.
type serialTx struct {
	release *sync.Mutex
	once    sync.Once
}

func (t *serialTx) done() {
	t.once.Do(t.release.Unlock)
}

func (t *serialTx) Commit(ctx context.Context) error {
	t.done()
	return nil
}

func (t *serialTx) Rollback(ctx context.Context) error {
	t.done()
	return nil
}

func (t *serialTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *serialTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *serialTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *serialTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *serialTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *serialTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *serialTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *serialTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *serialTx) Conn() *pgx.Conn                                               { return nil }
