package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-order-overlay/internal/feed"
	"github.com/ariefcatur/go-order-overlay/internal/ident"
	"github.com/ariefcatur/go-order-overlay/internal/overlay"
)

// Remote is the read-mostly order catalog the overlay sits on.
type Remote interface {
	ListOrders(ctx context.Context) ([]Order, error)
	ListProducts(ctx context.Context) ([]Product, error)
	CreateOrder(ctx context.Context, o Order) error
	ReplaceOrder(ctx context.Context, id ident.ID, o Order) error
	DeleteOrder(ctx context.Context, id ident.ID) error
}

// Mirror runs best-effort remote writes off the caller's path.
type Mirror interface {
	Submit(op string, fn func(ctx context.Context) error) bool
}

type ImageNormalizer interface {
	Validate(contentType string, size int) error
	Normalize(raw []byte) (string, error)
}

type Deps struct {
	Remote Remote
	Store  *overlay.Store
	Mirror Mirror
	Feed   feed.Sink
	Images ImageNormalizer
	Log    *slog.Logger
	Now    func() time.Time
}

type noMirror struct{}

func (noMirror) Submit(string, func(context.Context) error) bool { return false }

// Book is the merged order view: remote orders with the local overlay on top.
// Every operation runs under one mutex; per mutation the overlay write comes
// first, then the in-memory update, then the change event, then the remote
// mirror submission.
type Book struct {
	remote  Remote
	overlay *overlay.Collection[Order]
	mirror  Mirror
	feed    feed.Sink
	images  ImageNormalizer
	log     *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	orders    []Order // ascending by id
	products  []Product
	selected  ident.ID
	remoteIDs ident.Set // ids the remote listed on the last load
}

func NewBook(d Deps) *Book {
	b := &Book{
		remote:  d.Remote,
		overlay: overlay.NewCollection[Order](d.Store, overlay.KeyOrders),
		mirror:  d.Mirror,
		feed:    d.Feed,
		images:  d.Images,
		log:     d.Log,
		now:     d.Now,
	}
	if b.mirror == nil {
		b.mirror = noMirror{}
	}
	if b.feed == nil {
		b.feed = feed.Nop{}
	}
	if b.log == nil {
		b.log = slog.Default()
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// LoadOrders rebuilds the merged view. Overlay entries win over remote ones
// with the same id. The overlay is pruned to the entries that made it into
// the merged view. Never fails: remote and store errors are logged and the
// view degrades to whatever could be read.
func (b *Book) LoadOrders(ctx context.Context) []Order {
	remote, err := b.remote.ListOrders(ctx)
	if err != nil {
		b.log.Warn("remote orders unavailable, using overlay only", "error", err)
		remote = nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	stored, err := b.storedOrders(ctx)
	if err != nil {
		b.log.Error("read order overlay", "error", err)
	}

	remoteIDs := ident.Set{}
	for _, o := range remote {
		remoteIDs.Add(o.ID)
	}

	now := b.now()
	dirty := false
	byID := make(map[ident.ID]Order, len(remote)+len(stored))
	fromOverlay := ident.Set{}
	for i := range stored {
		o := &stored[i]
		if o.ID <= 0 {
			dirty = true
			continue
		}
		if o.Identity == "" {
			if remoteIDs.Has(o.ID) {
				o.Identity = RemoteIdentity(o.ID)
			} else {
				o.Identity = uuid.NewString()
			}
			dirty = true
		}
		if o.Products == nil {
			o.Products = []LineItem{}
		}
		if ensureKeys(o, now) {
			dirty = true
		}
		if fromOverlay.Has(o.ID) {
			// later entry wins
			dirty = true
		}
		byID[o.ID] = *o
		fromOverlay.Add(o.ID)
	}
	for _, o := range remote {
		if o.ID <= 0 || fromOverlay.Has(o.ID) {
			continue
		}
		o.Identity = RemoteIdentity(o.ID)
		if o.Products == nil {
			o.Products = []LineItem{}
		}
		ensureKeys(&o, now)
		byID[o.ID] = o
	}

	merged := make([]Order, 0, len(byID))
	for _, o := range byID {
		merged = append(merged, o)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })

	if dirty {
		keep := make([]Order, 0, len(fromOverlay))
		for _, o := range merged {
			if fromOverlay.Has(o.ID) {
				keep = append(keep, o)
			}
		}
		if err := b.overlay.Put(ctx, keep); err != nil {
			b.log.Error("prune order overlay", "error", err)
		}
	}

	b.orders = merged
	b.remoteIDs = remoteIDs
	if b.selected > 0 && b.indexOf(b.selected) < 0 {
		b.selected = 0
	}
	return cloneOrders(merged)
}

// Orders returns the merged view narrowed by f.
func (b *Book) Orders(f Filter) []Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneOrders(f.Apply(b.orders))
}

func (b *Book) Order(id ident.ID) (Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(id)
	if i < 0 {
		return Order{}, ErrOrderNotFound
	}
	return b.orders[i].Clone(), nil
}

func (b *Book) Select(id ident.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.indexOf(id) < 0 {
		return ErrOrderNotFound
	}
	b.selected = id
	return nil
}

func (b *Book) Selected() (Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(b.selected)
	if b.selected <= 0 || i < 0 {
		return Order{}, false
	}
	return b.orders[i].Clone(), true
}

// InsertOrder allocates an id, fills defaults and makes the new order the
// selected one.
func (b *Book) InsertOrder(ctx context.Context, draft Order) (Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored, err := b.storedOrders(ctx)
	if err != nil {
		return Order{}, err
	}

	now := b.now()
	o := draft.Clone()
	o.ID = NextOrderID(b.orders, stored)
	o.Identity = uuid.NewString()
	if o.Date == "" {
		o.Date = now.UTC().Format(DateLayout)
	}
	if o.Products == nil {
		o.Products = []LineItem{}
	}
	if o.UserID <= 0 {
		o.UserID = 1
	}
	if err := b.normalizeItems(&o, now); err != nil {
		return Order{}, err
	}

	if err := b.overlay.Put(ctx, upsertOrder(stored, o)); err != nil {
		return Order{}, err
	}
	b.setMerged(o)
	b.selected = o.ID

	b.feed.Emit(ctx, EventOrderInserted, o.ID.String(), orderChanged(o))
	snapshot := o.Clone()
	b.mirror.Submit("order.create", func(ctx context.Context) error {
		return b.remote.CreateOrder(ctx, snapshot)
	})
	return o.Clone(), nil
}

// UpdateOrder replaces an existing order. The write is rejected when the id
// is claimed by more than one identity, or when in carries an identity other
// than the one already recorded. Zero date, user and nil products keep the
// current values.
func (b *Book) UpdateOrder(ctx context.Context, in Order) (Order, error) {
	if in.ID <= 0 {
		return Order{}, ErrOrderNotFound
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	stored, err := b.storedOrders(ctx)
	if err != nil {
		return Order{}, err
	}

	var current Order
	found := false
	tokens := map[string]struct{}{}
	if i := b.indexOf(in.ID); i >= 0 {
		current, found = b.orders[i], true
		if current.Identity != "" {
			tokens[current.Identity] = struct{}{}
		}
	}
	for _, s := range stored {
		if s.ID != in.ID {
			continue
		}
		if !found {
			current, found = s, true
		}
		if s.Identity != "" {
			tokens[s.Identity] = struct{}{}
		}
	}
	if !found {
		return Order{}, ErrOrderNotFound
	}
	// the merged view hides a remote record shadowed by the overlay
	if b.remoteIDs.Has(in.ID) {
		tokens[RemoteIdentity(in.ID)] = struct{}{}
	}
	if len(tokens) > 1 {
		return Order{}, fmt.Errorf("%w: order %d is claimed by %d records", ErrDuplicateIdentifier, in.ID, len(tokens))
	}
	token := current.Identity
	for t := range tokens {
		token = t
	}
	if token == "" {
		token = in.Identity
	}
	if token == "" {
		token = uuid.NewString()
	}
	if in.Identity != "" && in.Identity != token {
		return Order{}, fmt.Errorf("%w: order %d belongs to another record", ErrDuplicateIdentifier, in.ID)
	}

	o := in.Clone()
	o.Identity = token
	if o.Date == "" {
		o.Date = current.Date
	}
	if o.UserID <= 0 {
		o.UserID = current.UserID
	}
	if o.Products == nil {
		o.Products = current.Clone().Products
	}
	if o.SchemaVersion == nil {
		o.SchemaVersion = current.SchemaVersion
	}
	if err := b.normalizeItems(&o, b.now()); err != nil {
		return Order{}, err
	}

	if err := b.commit(ctx, stored, o, EventOrderUpdated, orderChanged(o)); err != nil {
		return Order{}, err
	}
	return o.Clone(), nil
}

// DeleteOrder drops the order from the overlay and the merged view. The
// remote may list it again on the next load.
func (b *Book) DeleteOrder(ctx context.Context, id ident.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored, err := b.storedOrders(ctx)
	if err != nil {
		return err
	}
	next := make([]Order, 0, len(stored))
	for _, s := range stored {
		if s.ID != id {
			next = append(next, s)
		}
	}
	idx := b.indexOf(id)
	if idx < 0 && len(next) == len(stored) {
		return ErrOrderNotFound
	}
	if len(next) != len(stored) {
		if err := b.overlay.Put(ctx, next); err != nil {
			return err
		}
	}
	if idx >= 0 {
		b.orders = append(b.orders[:idx:idx], b.orders[idx+1:]...)
	}
	if b.selected == id {
		b.selected = 0
	}

	b.feed.Emit(ctx, EventOrderDeleted, id.String(), OrderDeletedPayload{OrderID: id})
	b.mirror.Submit("order.delete", func(ctx context.Context) error {
		return b.remote.DeleteOrder(ctx, id)
	})
	return nil
}

// RefreshProducts reloads the catalog cache. On failure the previous cache
// is kept.
func (b *Book) RefreshProducts(ctx context.Context) []Product {
	ps, err := b.remote.ListProducts(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.log.Warn("refresh products", "error", err)
	} else {
		b.products = ps
	}
	return append([]Product(nil), b.products...)
}

func (b *Book) Products() []Product {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Product(nil), b.products...)
}

// LineItems returns the rows of an order with the catalog product filled in
// for display. Nothing is persisted.
func (b *Book) LineItems(orderID ident.ID) ([]LineItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(orderID)
	if i < 0 {
		return nil, ErrOrderNotFound
	}
	items := b.orders[i].Clone().Products
	for j := range items {
		if items[j].Product != nil {
			continue
		}
		if p, ok := b.product(items[j].ProductID); ok {
			items[j].Product = &p
		}
	}
	return items, nil
}

// InsertLineItem appends a row. A missing product id is allocated; one that
// is already used in the order is probed upward to the next free id.
func (b *Book) InsertLineItem(ctx context.Context, orderID ident.ID, draft LineItem) (LineItem, error) {
	return b.editOrder(ctx, orderID, EventLineItemInserted, func(o *Order) (LineItem, error) {
		it := draft
		it.Product = nil // resolved from the catalog on read
		if it.ProductID <= 0 {
			it.ProductID = b.nextProductID(*o)
		} else {
			it.ProductID = ident.Probe(it.ProductID, o.productIDs().Has)
		}
		it.Quantity = max(it.Quantity, 1)
		if p, ok := b.product(it.ProductID); ok {
			if it.Title == nil {
				t := p.Title
				it.Title = &t
			}
			if it.Price == nil {
				pr := p.Price
				it.Price = &pr
			}
		}
		it.UniqueKey = newUniqueKey(o.ID, it.ProductID, len(o.Products), b.now(), o.uniqueKeys())
		o.Products = append(o.Products, it)
		return it, nil
	})
}

// UpdateLineItem applies patch to the row with the given unique key. Moving
// the row onto a product another row already holds is rejected and leaves
// the order untouched.
func (b *Book) UpdateLineItem(ctx context.Context, orderID ident.ID, key string, patch LineItemPatch) (LineItem, error) {
	patch = patch.Normalize()
	return b.editOrder(ctx, orderID, EventLineItemUpdated, func(o *Order) (LineItem, error) {
		i := o.itemByKey(key)
		if i < 0 {
			return LineItem{}, ErrLineItemNotFound
		}
		it := o.Products[i]
		if patch.ProductID != nil && *patch.ProductID != it.ProductID {
			for j, other := range o.Products {
				if j != i && other.ProductID == *patch.ProductID {
					return LineItem{}, fmt.Errorf("%w: product %d", ErrDuplicateProductInOrder, *patch.ProductID)
				}
			}
			it.ProductID = *patch.ProductID
			if p, ok := b.product(it.ProductID); ok {
				it.Product = &p
			} else {
				it.Product = nil
			}
		}
		if patch.Quantity != nil {
			it.Quantity = *patch.Quantity
		}
		if patch.Title != nil {
			t := *patch.Title
			it.Title = &t
		}
		if patch.Price != nil {
			p := *patch.Price
			it.Price = &p
		}
		if patch.Image != nil {
			it.Image = *patch.Image
		}
		o.Products[i] = it
		return it, nil
	})
}

// RemoveLineItem removes by unique key, falling back to the product id when
// the key is unknown.
func (b *Book) RemoveLineItem(ctx context.Context, orderID ident.ID, ref LineItemRef) (LineItem, error) {
	return b.editOrder(ctx, orderID, EventLineItemRemoved, func(o *Order) (LineItem, error) {
		i := o.itemByKey(ref.UniqueKey)
		if i < 0 && ref.ProductID > 0 {
			i = o.lastItemByProduct(ref.ProductID)
		}
		if i < 0 {
			return LineItem{}, ErrLineItemNotFound
		}
		it := o.Products[i]
		o.Products = append(o.Products[:i:i], o.Products[i+1:]...)
		return it, nil
	})
}

// AttachImage normalizes raw and stores it on the row ref points at. The row
// is found by unique key, else the newest row with ref's product id, else
// the newest row when ref carries nothing at all. This is a guess by
// construction: the caller may attach before a fresh row has its key.
func (b *Book) AttachImage(ctx context.Context, orderID ident.ID, ref LineItemRef, contentType string, raw []byte) (LineItem, error) {
	if b.images == nil {
		return LineItem{}, errors.New("image normalizer not configured")
	}
	if err := b.images.Validate(contentType, len(raw)); err != nil {
		return LineItem{}, err
	}
	uri, err := b.images.Normalize(raw)
	if err != nil {
		return LineItem{}, err
	}

	return b.editOrder(ctx, orderID, EventImageAttached, func(o *Order) (LineItem, error) {
		i := o.itemByKey(ref.UniqueKey)
		if i < 0 && ref.ProductID > 0 {
			i = o.lastItemByProduct(ref.ProductID)
		}
		if i < 0 && ref.empty() && len(o.Products) > 0 {
			i = len(o.Products) - 1
		}
		if i < 0 {
			return LineItem{}, ErrLineItemNotFound
		}
		it := o.Products[i]
		it.Image = uri
		var p Product
		switch cat, ok := b.product(it.ProductID); {
		case it.Product != nil:
			p = *it.Product
		case ok:
			p = cat
		default:
			p = Product{ID: it.ProductID}
		}
		p.Image = uri
		it.Product = &p
		o.Products[i] = it
		return it, nil
	})
}

// editOrder runs fn on a copy of the order and commits the copy. fn errors
// leave everything untouched.
func (b *Book) editOrder(ctx context.Context, orderID ident.ID, event string, fn func(o *Order) (LineItem, error)) (LineItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.indexOf(orderID)
	if idx < 0 {
		return LineItem{}, ErrOrderNotFound
	}
	stored, err := b.storedOrders(ctx)
	if err != nil {
		return LineItem{}, err
	}
	o := b.orders[idx].Clone()
	it, err := fn(&o)
	if err != nil {
		return LineItem{}, err
	}
	if err := b.commit(ctx, stored, o, event, lineItemChanged(o.ID, it)); err != nil {
		return LineItem{}, err
	}
	return it, nil
}

// commit writes o into the overlay, then the merged view, emits the event
// and queues the remote replace. Caller holds mu.
func (b *Book) commit(ctx context.Context, stored []Order, o Order, event string, payload any) error {
	if err := b.overlay.Put(ctx, upsertOrder(stored, o)); err != nil {
		return err
	}
	b.setMerged(o)
	b.feed.Emit(ctx, event, o.ID.String(), payload)
	snapshot := o.Clone()
	b.mirror.Submit("order.replace", func(ctx context.Context) error {
		return b.remote.ReplaceOrder(ctx, snapshot.ID, snapshot)
	})
	return nil
}

// normalizeItems clamps quantities, allocates missing product ids, rejects
// repeated product ids and gives every row a distinct unique key.
func (b *Book) normalizeItems(o *Order, now time.Time) error {
	seen := ident.Set{}
	for i := range o.Products {
		it := &o.Products[i]
		it.Quantity = max(it.Quantity, 1)
		if it.ProductID <= 0 {
			it.ProductID = ident.Probe(b.nextProductID(*o), seen.Has)
		}
		if seen.Has(it.ProductID) {
			return fmt.Errorf("%w: product %d", ErrDuplicateProductInOrder, it.ProductID)
		}
		seen.Add(it.ProductID)
	}
	ensureKeys(o, now)
	return nil
}

func (b *Book) nextProductID(o Order) ident.ID {
	return ident.Probe(NextProductLineID(b.orders, b.products), o.productIDs().Has)
}

func (b *Book) storedOrders(ctx context.Context) ([]Order, error) {
	stored, _, err := b.overlay.Get(ctx)
	return stored, err
}

func (b *Book) product(id ident.ID) (Product, bool) {
	for _, p := range b.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func (b *Book) indexOf(id ident.ID) int {
	i := sort.Search(len(b.orders), func(i int) bool { return b.orders[i].ID >= id })
	if i < len(b.orders) && b.orders[i].ID == id {
		return i
	}
	return -1
}

func (b *Book) setMerged(o Order) {
	i := sort.Search(len(b.orders), func(i int) bool { return b.orders[i].ID >= o.ID })
	if i < len(b.orders) && b.orders[i].ID == o.ID {
		b.orders[i] = o
		return
	}
	b.orders = append(b.orders, Order{})
	copy(b.orders[i+1:], b.orders[i:])
	b.orders[i] = o
}

// upsertOrder replaces every overlay entry with o's id by o, keeping the
// position of the first one.
func upsertOrder(stored []Order, o Order) []Order {
	out := make([]Order, 0, len(stored)+1)
	placed := false
	for _, s := range stored {
		if s.ID != o.ID {
			out = append(out, s)
			continue
		}
		if !placed {
			out = append(out, o)
			placed = true
		}
	}
	if !placed {
		out = append(out, o)
	}
	return out
}

func cloneOrders(in []Order) []Order {
	out := make([]Order, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}
