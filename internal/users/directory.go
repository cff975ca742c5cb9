package users

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/ariefcatur/go-order-overlay/internal/feed"
	"github.com/ariefcatur/go-order-overlay/internal/ident"
	"github.com/ariefcatur/go-order-overlay/internal/overlay"
)

type Remote interface {
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, u User) error
	ReplaceUser(ctx context.Context, id ident.ID, u User) error
	DeleteUser(ctx context.Context, id ident.ID) error
}

type Mirror interface {
	Submit(op string, fn func(ctx context.Context) error) bool
}

type Deps struct {
	Remote Remote
	Store  *overlay.Store
	Mirror Mirror
	Feed   feed.Sink
	Log    *slog.Logger
}

type noMirror struct{}

func (noMirror) Submit(string, func(context.Context) error) bool { return false }

// Directory is the merged user view: remote users plus overlay users minus
// tombstones. The tombstone set is the durable authority on deletion; the
// remote directory never forgets anyone.
type Directory struct {
	remote     Remote
	users      *overlay.Collection[User]
	tombstones *overlay.Collection[ident.ID]
	mirror     Mirror
	feed       feed.Sink
	log        *slog.Logger

	mu     sync.Mutex
	merged []User // descending by id
}

func NewDirectory(d Deps) *Directory {
	dir := &Directory{
		remote:     d.Remote,
		users:      overlay.NewCollection[User](d.Store, overlay.KeyUsers),
		tombstones: overlay.NewCollection[ident.ID](d.Store, overlay.KeyDeletedUsers),
		mirror:     d.Mirror,
		feed:       d.Feed,
		log:        d.Log,
	}
	if dir.mirror == nil {
		dir.mirror = noMirror{}
	}
	if dir.feed == nil {
		dir.feed = feed.Nop{}
	}
	if dir.log == nil {
		dir.log = slog.Default()
	}
	return dir
}

// LoadUsers rebuilds the merged view. Never fails; see orders.Book.LoadOrders.
func (d *Directory) LoadUsers(ctx context.Context) []User {
	remote, err := d.remote.ListUsers(ctx)
	if err != nil {
		d.log.Warn("remote users unavailable, using overlay only", "error", err)
		remote = nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored, err := d.storedUsers(ctx)
	if err != nil {
		d.log.Error("read user overlay", "error", err)
	}
	dead, err := d.deadSet(ctx)
	if err != nil {
		d.log.Error("read user tombstones", "error", err)
	}

	byID := make(map[ident.ID]User, len(remote)+len(stored))
	for _, u := range stored {
		if u.ID > 0 && !dead.Has(u.ID) {
			byID[u.ID] = u
		}
	}
	for _, u := range remote {
		if _, dup := byID[u.ID]; u.ID <= 0 || dup || dead.Has(u.ID) {
			continue
		}
		byID[u.ID] = u
	}
	merged := make([]User, 0, len(byID))
	for _, u := range byID {
		merged = append(merged, u)
	}
	sortDesc(merged)
	d.merged = merged
	return cloneUsers(merged)
}

func (d *Directory) Users() []User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneUsers(d.merged)
}

func (d *Directory) User(id ident.ID) (User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := d.indexOf(id); i >= 0 {
		return d.merged[i].Clone(), nil
	}
	return User{}, ErrUserNotFound
}

// InsertUser allocates an id that no live, stored or deleted user ever had.
func (d *Directory) InsertUser(ctx context.Context, u User) (User, error) {
	u = u.Clone()
	if err := u.validate(); err != nil {
		return User{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored, err := d.storedUsers(ctx)
	if err != nil {
		return User{}, err
	}
	dead, err := d.deadSet(ctx)
	if err != nil {
		return User{}, err
	}
	live := userIDs(d.merged)
	taken := ident.NewSet(live, userIDs(stored))
	for id := range dead {
		taken.Add(id)
	}
	u.ID = ident.Next(live, taken.Has)

	if err := d.users.Put(ctx, append(stored, u)); err != nil {
		return User{}, err
	}
	d.setMerged(u)

	d.feed.Emit(ctx, EventUserInserted, u.ID.String(), changed(u))
	snapshot := u.Clone()
	d.mirror.Submit("user.create", func(ctx context.Context) error {
		return d.remote.CreateUser(ctx, snapshot)
	})
	return u.Clone(), nil
}

func (d *Directory) UpdateUser(ctx context.Context, u User) (User, error) {
	u = u.Clone()
	if err := u.validate(); err != nil {
		return User{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored, err := d.storedUsers(ctx)
	if err != nil {
		return User{}, err
	}
	if d.indexOf(u.ID) < 0 && indexOf(stored, u.ID) < 0 {
		return User{}, ErrUserNotFound
	}

	next := make([]User, 0, len(stored)+1)
	placed := false
	for _, s := range stored {
		switch {
		case s.ID != u.ID:
			next = append(next, s)
		case !placed:
			next = append(next, u)
			placed = true
		}
	}
	if !placed {
		next = append(next, u)
	}
	if err := d.users.Put(ctx, next); err != nil {
		return User{}, err
	}
	d.setMerged(u)

	d.feed.Emit(ctx, EventUserUpdated, u.ID.String(), changed(u))
	snapshot := u.Clone()
	d.mirror.Submit("user.replace", func(ctx context.Context) error {
		return d.remote.ReplaceUser(ctx, snapshot.ID, snapshot)
	})
	return u.Clone(), nil
}

func (d *Directory) DeleteUser(ctx context.Context, id ident.ID) error {
	_, err := d.DeleteUsers(ctx, []ident.ID{id})
	return err
}

// DeleteUsers tombstones every known id in ids and returns those it
// deleted. Unknown ids are skipped; ErrUserNotFound when none was known.
// The tombstone write is the commit point: a failed overlay cleanup after it
// is only logged.
func (d *Directory) DeleteUsers(ctx context.Context, ids []ident.ID) ([]ident.ID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored, err := d.storedUsers(ctx)
	if err != nil {
		return nil, err
	}
	dead, _, err := d.tombstones.Get(ctx)
	if err != nil {
		return nil, err
	}
	deadSet := ident.NewSet(dead)

	var gone []ident.ID
	for _, id := range ids {
		if deadSet.Has(id) {
			continue
		}
		if d.indexOf(id) < 0 && indexOf(stored, id) < 0 {
			continue
		}
		deadSet.Add(id)
		gone = append(gone, id)
	}
	if len(gone) == 0 {
		return nil, ErrUserNotFound
	}

	if err := d.tombstones.Put(ctx, append(dead, gone...)); err != nil {
		return nil, err
	}

	next := make([]User, 0, len(stored))
	for _, s := range stored {
		if !deadSet.Has(s.ID) {
			next = append(next, s)
		}
	}
	if len(next) != len(stored) {
		if err := d.users.Put(ctx, next); err != nil {
			d.log.Error("drop deleted users from overlay", "error", err)
		}
	}

	kept := d.merged[:0:0]
	for _, u := range d.merged {
		if !deadSet.Has(u.ID) {
			kept = append(kept, u)
		}
	}
	d.merged = kept

	for _, id := range gone {
		d.feed.Emit(ctx, EventUserDeleted, id.String(), UserDeletedPayload{UserID: id})
		d.mirror.Submit("user.delete", func(ctx context.Context) error {
			return d.remote.DeleteUser(ctx, id)
		})
	}
	return gone, nil
}

func (d *Directory) storedUsers(ctx context.Context) ([]User, error) {
	stored, _, err := d.users.Get(ctx)
	return stored, err
}

func (d *Directory) deadSet(ctx context.Context) (ident.Set, error) {
	dead, _, err := d.tombstones.Get(ctx)
	return ident.NewSet(dead), err
}

func (d *Directory) indexOf(id ident.ID) int { return indexOf(d.merged, id) }

func (d *Directory) setMerged(u User) {
	if i := d.indexOf(u.ID); i >= 0 {
		d.merged[i] = u
		return
	}
	d.merged = append(d.merged, u)
	sortDesc(d.merged)
}

func indexOf(list []User, id ident.ID) int {
	for i, u := range list {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func userIDs(list []User) []ident.ID {
	out := make([]ident.ID, len(list))
	for i, u := range list {
		out[i] = u.ID
	}
	return out
}

func sortDesc(list []User) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
}

func cloneUsers(in []User) []User {
	out := make([]User, len(in))
	for i, u := range in {
		out[i] = u.Clone()
	}
	return out
}

func changed(u User) UserChangedPayload {
	return UserChangedPayload{UserID: u.ID, Username: u.Username, Email: u.Email}
}
