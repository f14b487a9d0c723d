package client

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"ledgerd/internal/core"
)

// Fallback messages when the server response carries none, one per
// operation, mirroring what users actually see.
const (
	msgFetchIncomesFailed  = "Failed to fetch incomes"
	msgFetchExpensesFailed = "Failed to fetch expenses"
	msgAddIncomeFailed     = "Failed to add income"
	msgAddExpenseFailed    = "Failed to add expense"
	msgDeleteIncomeFailed  = "Failed to delete income"
	msgDeleteExpenseFailed = "Failed to delete expense"
)

// Cache holds the current identity's two collections plus loading/error
// state, and notifies subscribers whenever any of it changes. Aggregates
// are recomputed from the collections on every read, never stored.
//
// Mutations go through the server and re-fetch the affected collection:
// the server-assigned id and createdAt are authoritative, so the cache
// trades a round trip for never holding locally-invented state.
type Cache struct {
	api *Client

	mu       sync.Mutex
	token    string
	incomes  []core.Transaction
	expenses []core.Transaction
	loading  bool
	errMsg   string

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

func NewCache(api *Client) *Cache {
	return &Cache{
		api:  api,
		subs: map[int]func(){},
	}
}

// SetToken switches the cache to a new identity. All state from the
// previous identity is dropped immediately; nothing stale survives a
// login, logout, or user switch.
func (c *Cache) SetToken(token string) {
	c.mu.Lock()
	if c.token == token {
		c.mu.Unlock()
		return
	}
	c.token = token
	c.incomes = nil
	c.expenses = nil
	c.errMsg = ""
	c.loading = false
	c.mu.Unlock()
	c.notify()
}

// Subscribe registers fn to run after every state change and returns an
// unsubscribe function.
func (c *Cache) Subscribe(fn func()) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Cache) notify() {
	c.subMu.Lock()
	fns := make([]func(), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// begin starts an operation: the previous error is cleared and the busy
// flag raised. finish is its unconditional counterpart.
func (c *Cache) begin() {
	c.mu.Lock()
	c.errMsg = ""
	c.loading = true
	c.mu.Unlock()
	c.notify()
}

func (c *Cache) finish() {
	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
	c.notify()
}

func (c *Cache) fail(err error, fallback string) {
	msg := fallback
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
	c.notify()
}

// FetchIncomes replaces the income collection with the server's current
// owned set. On failure the previous collection stays intact.
func (c *Cache) FetchIncomes(ctx context.Context) error {
	c.begin()
	defer c.finish()
	return c.fetch(ctx, c.currentToken(), core.KindIncome)
}

// FetchExpenses is the expense counterpart of FetchIncomes.
func (c *Cache) FetchExpenses(ctx context.Context) error {
	c.begin()
	defer c.finish()
	return c.fetch(ctx, c.currentToken(), core.KindExpense)
}

// FetchAll loads both collections concurrently.
func (c *Cache) FetchAll(ctx context.Context) error {
	c.begin()
	defer c.finish()

	token := c.currentToken()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.fetch(ctx, token, core.KindIncome) })
	g.Go(func() error { return c.fetch(ctx, token, core.KindExpense) })
	return g.Wait()
}

// fetch lists with the token the operation was issued under. If the
// identity changed while the request was in flight, the response belongs
// to the previous identity and is discarded, never installed.
func (c *Cache) fetch(ctx context.Context, token string, kind core.Kind) error {
	txs, err := c.api.List(ctx, token, kind)
	if err != nil {
		if c.stale(token) {
			return nil
		}
		if kind == core.KindIncome {
			c.fail(err, msgFetchIncomesFailed)
		} else {
			c.fail(err, msgFetchExpensesFailed)
		}
		return err
	}

	c.mu.Lock()
	if c.token != token {
		c.mu.Unlock()
		return nil
	}
	if kind == core.KindIncome {
		c.incomes = txs
	} else {
		c.expenses = txs
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

// AddIncome creates an income and re-fetches the collection so the local
// copy reflects server-validated state.
func (c *Cache) AddIncome(ctx context.Context, input TransactionInput) error {
	return c.add(ctx, core.KindIncome, input)
}

// AddExpense is the expense counterpart of AddIncome.
func (c *Cache) AddExpense(ctx context.Context, input TransactionInput) error {
	return c.add(ctx, core.KindExpense, input)
}

func (c *Cache) add(ctx context.Context, kind core.Kind, input TransactionInput) error {
	c.begin()
	defer c.finish()

	token := c.currentToken()
	if err := c.api.Create(ctx, token, kind, input); err != nil {
		if c.stale(token) {
			return err
		}
		if kind == core.KindIncome {
			c.fail(err, msgAddIncomeFailed)
		} else {
			c.fail(err, msgAddExpenseFailed)
		}
		return err
	}
	return c.fetch(ctx, token, kind)
}

// DeleteIncome deletes by id and re-fetches the collection. A failed
// delete leaves the collection as last known.
func (c *Cache) DeleteIncome(ctx context.Context, id string) error {
	return c.delete(ctx, core.KindIncome, id)
}

// DeleteExpense is the expense counterpart of DeleteIncome.
func (c *Cache) DeleteExpense(ctx context.Context, id string) error {
	return c.delete(ctx, core.KindExpense, id)
}

func (c *Cache) delete(ctx context.Context, kind core.Kind, id string) error {
	c.begin()
	defer c.finish()

	token := c.currentToken()
	if err := c.api.Delete(ctx, token, kind, id); err != nil {
		if c.stale(token) {
			return err
		}
		if kind == core.KindIncome {
			c.fail(err, msgDeleteIncomeFailed)
		} else {
			c.fail(err, msgDeleteExpenseFailed)
		}
		return err
	}
	return c.fetch(ctx, token, kind)
}

func (c *Cache) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// stale reports whether the token an operation was issued with is no
// longer the current identity's.
func (c *Cache) stale(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != token
}

// Incomes returns a copy of the income collection.
func (c *Cache) Incomes() []core.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Transaction(nil), c.incomes...)
}

// Expenses returns a copy of the expense collection.
func (c *Cache) Expenses() []core.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Transaction(nil), c.expenses...)
}

// Loading reports whether an operation is in flight.
func (c *Cache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the last operation's error message, empty when the last
// operation succeeded.
func (c *Cache) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// TotalIncome recomputes the income total from the current collection.
func (c *Cache) TotalIncome() core.Money {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.TotalIncome(c.incomes)
}

// TotalExpenses recomputes the expense total from the current collection.
func (c *Cache) TotalExpenses() core.Money {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.TotalExpenses(c.expenses)
}

// TotalBalance is income minus expenses over the current collections.
func (c *Cache) TotalBalance() core.Money {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.TotalBalance(c.incomes, c.expenses)
}

// RecentTransactions returns the n most recent records across both
// collections, ranked by effective date.
func (c *Cache) RecentTransactions(n int) []core.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.RecentTransactions(c.incomes, c.expenses, n)
}
