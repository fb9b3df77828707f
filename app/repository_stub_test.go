package app

import (
	"context"
	"fmt"
	"menuo/domain"
	"menuo/pkg/events"
	"sync"
)

// stubRepository is an in-memory Repository that records every call.
type stubRepository struct {
	mu    sync.Mutex
	calls []string

	categories []domain.Category
	products   map[int64][]domain.Product
	settings   []domain.Settings

	// errs fails the named method ("CreateCategory", "ListProducts", ...).
	errs map[string]error

	listProducts func(ctx context.Context, categoryID int64) ([]domain.Product, error)
	createGate   chan struct{}

	productRequests  []*SubmitProductRequest
	settingsRequests []*SaveSettingsRequest
	settingsEcho     *domain.Settings
	nextID           int64
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		products: map[int64][]domain.Product{},
		errs:     map[string]error{},
		nextID:   100,
	}
}

func (r *stubRepository) record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *stubRepository) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *stubRepository) count(call string) int {
	n := 0
	for _, c := range r.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (r *stubRepository) fail(method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errs[method]
}

func (r *stubRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	r.record("ListCategories")
	if err := r.fail("ListCategories"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Category(nil), r.categories...), nil
}

func (r *stubRepository) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	r.record("CreateCategory(%s)", name)
	if r.createGate != nil {
		<-r.createGate
	}
	if err := r.fail("CreateCategory"); err != nil {
		return domain.Category{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c := domain.Category{ID: r.nextID, Name: name}
	r.categories = append(r.categories, c)
	return c, nil
}

func (r *stubRepository) UpdateCategory(ctx context.Context, id int64, name string) (domain.Category, error) {
	r.record("UpdateCategory(%d)", id)
	if err := r.fail("UpdateCategory"); err != nil {
		return domain.Category{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.categories {
		if r.categories[i].ID == id {
			r.categories[i].Name = name
			return r.categories[i], nil
		}
	}
	return domain.Category{ID: id, Name: name}, nil
}

func (r *stubRepository) DeleteCategory(ctx context.Context, id int64) error {
	r.record("DeleteCategory(%d)", id)
	if err := r.fail("DeleteCategory"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.categories[:0:0]
	for _, c := range r.categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	r.categories = kept
	return nil
}

func (r *stubRepository) ListProducts(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	r.record("ListProducts(%d)", categoryID)
	if r.listProducts != nil {
		return r.listProducts(ctx, categoryID)
	}
	if err := r.fail("ListProducts"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Product(nil), r.products[categoryID]...), nil
}

func (r *stubRepository) CreateProduct(ctx context.Context, req *SubmitProductRequest) (domain.Product, error) {
	r.record("CreateProduct")
	return r.saveProduct(0, req, "CreateProduct")
}

func (r *stubRepository) UpdateProduct(ctx context.Context, id int64, req *SubmitProductRequest) (domain.Product, error) {
	r.record("UpdateProduct(%d)", id)
	return r.saveProduct(id, req, "UpdateProduct")
}

func (r *stubRepository) saveProduct(id int64, req *SubmitProductRequest, method string) (domain.Product, error) {
	if err := r.fail(method); err != nil {
		return domain.Product{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.productRequests = append(r.productRequests, req)
	if id == 0 {
		r.nextID++
		id = r.nextID
	}
	p := domain.Product{ID: id, Name: req.Name, Description: req.Description, Price: req.Price, CategoryID: req.CategoryID}
	r.products[req.CategoryID] = append(r.products[req.CategoryID], p)
	return p, nil
}

func (r *stubRepository) DeleteProduct(ctx context.Context, id int64) error {
	r.record("DeleteProduct(%d)", id)
	return r.fail("DeleteProduct")
}

func (r *stubRepository) ListSettings(ctx context.Context) ([]domain.Settings, error) {
	r.record("ListSettings")
	if err := r.fail("ListSettings"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Settings(nil), r.settings...), nil
}

func (r *stubRepository) SaveSettings(ctx context.Context, req *SaveSettingsRequest) (domain.Settings, error) {
	r.record("SaveSettings")
	if err := r.fail("SaveSettings"); err != nil {
		return domain.Settings{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settingsRequests = append(r.settingsRequests, req)
	if r.settingsEcho != nil {
		return *r.settingsEcho, nil
	}
	return domain.Settings{
		ID:           1,
		SiteName:     req.SiteName,
		PrimaryColor: req.PrimaryColor,
		AccentColor:  req.AccentColor,
		SocialLinks:  req.SocialLinks.Clone(),
	}, nil
}

type archivedAsset struct {
	key  string
	size int
}

type stubArchive struct {
	mu        sync.Mutex
	assets    []archivedAsset
	discarded []string
	err       error
}

func (a *stubArchive) Archive(ctx context.Context, key string, asset *domain.Upload) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.assets = append(a.assets, archivedAsset{key: key, size: len(asset.Content)})
	return a.err
}

func (a *stubArchive) Discard(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.discarded = append(a.discarded, key)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, exchange string, event *events.Event, headers events.Headers) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) routingKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.GetRoutingKey())
	}
	return keys
}
