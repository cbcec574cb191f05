package services

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"storyfront-backend/application/ports"
	"storyfront-backend/domain"
	"storyfront-backend/infrastructure/cache"
	"storyfront-backend/pkg/common"
)

// testEnv bundles the in-memory fakes and a live cache so tests can assert
// both service behavior and cache disposition.
type testEnv struct {
	store       *cache.MemoryStore
	codec       *cache.Codec
	invalidator *cache.Invalidator
	blogs       *fakeBlogRepo
	comments    *fakeCommentRepo
	products    *fakeProductRepo
	users       *fakeUserRepo
	carts       *fakeCartRepo
	orders      *fakeOrderRepo
}

func newTestEnv() *testEnv {
	store := cache.NewMemoryStore()
	logger := zap.NewNop()
	return &testEnv{
		store:       store,
		codec:       cache.NewCodec(store, cache.DefaultTTLPolicy(), logger, nil),
		invalidator: cache.NewInvalidator(store, logger, nil),
		blogs:       newFakeBlogRepo(),
		comments:    newFakeCommentRepo(),
		products:    newFakeProductRepo(),
		users:       newFakeUserRepo(),
		carts:       newFakeCartRepo(),
		orders:      newFakeOrderRepo(),
	}
}

func (e *testEnv) blogService() *BlogService {
	return NewBlogService(e.blogs, e.comments, e.codec, e.invalidator, zap.NewNop())
}

func (e *testEnv) commentService() *CommentService {
	return NewCommentService(e.comments, e.blogs, e.codec, e.invalidator, zap.NewNop())
}

func (e *testEnv) productService() *ProductService {
	return NewProductService(e.products, e.codec, e.invalidator, zap.NewNop())
}

func (e *testEnv) userService() *UserService {
	return NewUserService(e.users, e.codec, e.invalidator, zap.NewNop())
}

func (e *testEnv) cartService() *CartService {
	return NewCartService(e.carts, e.products, zap.NewNop())
}

func (e *testEnv) orderService() *OrderService {
	return NewOrderService(e.orders, e.carts, e.products, e.users, e.invalidator, zap.NewNop())
}

// fakeBlogRepo is an in-memory ports.BlogRepository with read counters so
// tests can prove which requests reached the store.
type fakeBlogRepo struct {
	byID  map[string]*domain.Blog
	Gets  int
	Lists int
}

func newFakeBlogRepo() *fakeBlogRepo {
	return &fakeBlogRepo{byID: make(map[string]*domain.Blog)}
}

func (f *fakeBlogRepo) Create(_ context.Context, blog *domain.Blog) error {
	if _, ok := f.byID[blog.ID]; ok {
		return ports.ErrConflict
	}
	cp := *blog
	f.byID[blog.ID] = &cp
	return nil
}

func (f *fakeBlogRepo) GetByID(_ context.Context, id string) (*domain.Blog, error) {
	f.Gets++
	b, ok := f.byID[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBlogRepo) GetBySlug(_ context.Context, slug string) (*domain.Blog, error) {
	f.Gets++
	for _, b := range f.byID {
		if b.Slug == slug {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (f *fakeBlogRepo) Update(_ context.Context, blog *domain.Blog) error {
	if _, ok := f.byID[blog.ID]; !ok {
		return ports.ErrNotFound
	}
	cp := *blog
	f.byID[blog.ID] = &cp
	return nil
}

func (f *fakeBlogRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return ports.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeBlogRepo) all() []*domain.Blog {
	blogs := make([]*domain.Blog, 0, len(f.byID))
	for _, b := range f.byID {
		cp := *b
		blogs = append(blogs, &cp)
	}
	sort.Slice(blogs, func(i, j int) bool {
		return blogs[i].CreatedAt.After(blogs[j].CreatedAt)
	})
	return blogs
}

func (f *fakeBlogRepo) List(_ context.Context, filter ports.BlogFilter, page common.PaginationParams) ([]*domain.Blog, int, error) {
	f.Lists++
	var out []*domain.Blog
	for _, b := range f.all() {
		if !filter.IncludePrivate && b.Private {
			continue
		}
		if filter.Category != "" && b.Category != filter.Category {
			continue
		}
		if filter.AuthorID != "" && b.Author.ID != filter.AuthorID {
			continue
		}
		out = append(out, b)
	}
	total := len(out)
	offset := page.CalculateOffset()
	if offset > total {
		offset = total
	}
	end := offset + page.PageSize
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

func (f *fakeBlogRepo) ListLatest(_ context.Context, limit int) ([]*domain.Blog, error) {
	f.Lists++
	var out []*domain.Blog
	for _, b := range f.all() {
		if b.Private {
			continue
		}
		out = append(out, b)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeBlogRepo) ListRelated(_ context.Context, blog *domain.Blog, limit int) ([]*domain.Blog, error) {
	f.Lists++
	var out []*domain.Blog
	for _, b := range f.all() {
		if b.ID == blog.ID || b.Private {
			continue
		}
		if b.Category == blog.Category && blog.Category != "" {
			out = append(out, b)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeBlogRepo) Search(_ context.Context, query string, page common.PaginationParams) ([]*domain.Blog, int, error) {
	f.Lists++
	q := strings.ToLower(query)
	var out []*domain.Blog
	for _, b := range f.all() {
		if b.Private {
			continue
		}
		if strings.Contains(strings.ToLower(b.Title), q) {
			out = append(out, b)
		}
	}
	return out, len(out), nil
}

func (f *fakeBlogRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, b := range f.byID {
		if b.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBlogRepo) IncrementViewCount(_ context.Context, id string) error {
	b, ok := f.byID[id]
	if !ok {
		return ports.ErrNotFound
	}
	b.ViewCount++
	return nil
}

func (f *fakeBlogRepo) SetLike(_ context.Context, blogID, userID string, liked bool) error {
	b, ok := f.byID[blogID]
	if !ok {
		return ports.ErrNotFound
	}
	kept := make([]string, 0, len(b.LikedBy))
	for _, uid := range b.LikedBy {
		if uid != userID {
			kept = append(kept, uid)
		}
	}
	if liked {
		kept = append(kept, userID)
	}
	b.LikedBy = kept
	return nil
}

func (f *fakeBlogRepo) AdjustCommentCount(_ context.Context, blogID string, delta int) error {
	b, ok := f.byID[blogID]
	if !ok {
		return ports.ErrNotFound
	}
	b.CommentCount += delta
	return nil
}

// fakeCommentRepo is an in-memory ports.CommentRepository.
type fakeCommentRepo struct {
	byID map[string]*domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{byID: make(map[string]*domain.Comment)}
}

func (f *fakeCommentRepo) Create(_ context.Context, c *domain.Comment) error {
	if _, ok := f.byID[c.ID]; ok {
		return ports.ErrConflict
	}
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCommentRepo) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCommentRepo) Update(_ context.Context, c *domain.Comment) error {
	if _, ok := f.byID[c.ID]; !ok {
		return ports.ErrNotFound
	}
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCommentRepo) ListByBlog(_ context.Context, blogID string) ([]*domain.Comment, error) {
	var out []*domain.Comment
	for _, c := range f.byID {
		if c.BlogID == blogID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeCommentRepo) ListReplies(_ context.Context, blogID, parentID string) ([]*domain.Comment, error) {
	all, _ := f.ListByBlog(context.Background(), blogID)
	var out []*domain.Comment
	for _, c := range all {
		if c.ParentID == parentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCommentRepo) DeleteMany(_ context.Context, _ string, ids []string) error {
	for _, id := range ids {
		delete(f.byID, id)
	}
	return nil
}

// fakeProductRepo is an in-memory ports.ProductRepository with a read
// counter.
type fakeProductRepo struct {
	byID map[string]*domain.Product
	Gets int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{byID: make(map[string]*domain.Product)}
}

func (f *fakeProductRepo) Create(_ context.Context, p *domain.Product) error {
	if _, ok := f.byID[p.ID]; ok {
		return ports.ErrConflict
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	f.Gets++
	p, ok := f.byID[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) GetBySlug(_ context.Context, slug string) (*domain.Product, error) {
	f.Gets++
	for _, p := range f.byID {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (f *fakeProductRepo) Update(_ context.Context, p *domain.Product) error {
	if _, ok := f.byID[p.ID]; !ok {
		return ports.ErrNotFound
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakeProductRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return ports.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeProductRepo) List(_ context.Context, filter ports.ProductFilter, page common.PaginationParams) ([]*domain.Product, int, error) {
	var out []*domain.Product
	for _, p := range f.byID {
		if filter.ActiveOnly && !p.Active {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.MinPriceCent > 0 && p.PriceCents < filter.MinPriceCent {
			continue
		}
		if filter.MaxPriceCent > 0 && p.PriceCents > filter.MaxPriceCent {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, len(out), nil
}

func (f *fakeProductRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, p := range f.byID {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// fakeUserRepo is an in-memory ports.UserRepository.
type fakeUserRepo struct {
	byID      map[string]*domain.User
	addresses map[string]*domain.Address
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:      make(map[string]*domain.User),
		addresses: make(map[string]*domain.Address),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	if _, ok := f.byID[u.ID]; ok {
		return ports.ErrConflict
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := f.byID[u.ID]; !ok {
		return ports.ErrNotFound
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return ports.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUserRepo) List(_ context.Context, page common.PaginationParams) ([]*domain.User, int, error) {
	var out []*domain.User
	for _, u := range f.byID {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeUserRepo) ListAddresses(_ context.Context, userID string) ([]*domain.Address, error) {
	var out []*domain.Address
	for _, a := range f.addresses {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetAddress(_ context.Context, userID, addressID string) (*domain.Address, error) {
	a, ok := f.addresses[addressID]
	if !ok || a.UserID != userID {
		return nil, ports.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeUserRepo) PutAddress(_ context.Context, a *domain.Address) error {
	cp := *a
	f.addresses[a.ID] = &cp
	return nil
}

func (f *fakeUserRepo) DeleteAddress(_ context.Context, userID, addressID string) error {
	a, ok := f.addresses[addressID]
	if !ok || a.UserID != userID {
		return ports.ErrNotFound
	}
	delete(f.addresses, addressID)
	return nil
}

// fakeCartRepo is an in-memory ports.CartRepository.
type fakeCartRepo struct {
	byUser map[string]*domain.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{byUser: make(map[string]*domain.Cart)}
}

func (f *fakeCartRepo) Get(_ context.Context, userID string) (*domain.Cart, error) {
	c, ok := f.byUser[userID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	return &cp, nil
}

func (f *fakeCartRepo) Put(_ context.Context, cart *domain.Cart) error {
	cp := *cart
	cp.Items = append([]domain.CartItem(nil), cart.Items...)
	f.byUser[cart.UserID] = &cp
	return nil
}

func (f *fakeCartRepo) Delete(_ context.Context, userID string) error {
	delete(f.byUser, userID)
	return nil
}

// fakeOrderRepo is an in-memory ports.OrderRepository.
type fakeOrderRepo struct {
	byID map[string]*domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{byID: make(map[string]*domain.Order)}
}

func (f *fakeOrderRepo) Create(_ context.Context, o *domain.Order) error {
	if _, ok := f.byID[o.ID]; ok {
		return ports.ErrConflict
	}
	cp := *o
	f.byID[o.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := f.byID[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) Update(_ context.Context, o *domain.Order) error {
	if _, ok := f.byID[o.ID]; !ok {
		return ports.ErrNotFound
	}
	cp := *o
	f.byID[o.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, userID string, page common.PaginationParams) ([]*domain.Order, int, error) {
	var out []*domain.Order
	for _, o := range f.byID {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, len(out), nil
}
