package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/coolwednesday/bookstore-go-app/internal/apperr"
	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// In-memory store fakes. They mirror the SQL repositories' contracts: missing
// rows come back as (nil, nil), soft deletes hide rows from every read,
// unique key violations surface as driver errors, and checkout clears cart
// lines atomically.

// duplicateEntry builds the driver error a unique key violation raises.
func duplicateEntry(value, key string) error {
	return &mysql.MySQLError{
		Number:  1062,
		Message: fmt.Sprintf("Duplicate entry '%s' for key '%s'", value, key),
	}
}

type fakeBookStore struct {
	nextID int64
	books  map[int64]*models.Book
	// book id -> category ids
	links map[int64][]int64
}

func newFakeBookStore() *fakeBookStore {
	return &fakeBookStore{books: make(map[int64]*models.Book), links: make(map[int64][]int64)}
}

func (f *fakeBookStore) Insert(_ context.Context, book *models.Book) (int64, error) {
	for _, b := range f.books {
		if book.ISBN != "" && b.ISBN == book.ISBN {
			return 0, duplicateEntry(book.ISBN, "uq_books_isbn")
		}
	}
	f.nextID++
	clone := *book
	clone.ID = f.nextID
	f.books[clone.ID] = &clone
	f.links[clone.ID] = append([]int64(nil), book.CategoryIDs...)
	return clone.ID, nil
}

func (f *fakeBookStore) Update(_ context.Context, book *models.Book) (bool, error) {
	if _, ok := f.books[book.ID]; !ok {
		return false, nil
	}
	clone := *book
	f.books[book.ID] = &clone
	f.links[book.ID] = append([]int64(nil), book.CategoryIDs...)
	return true, nil
}

func (f *fakeBookStore) FindByID(_ context.Context, id int64) (*models.Book, error) {
	book, ok := f.books[id]
	if !ok {
		return nil, nil
	}
	clone := *book
	clone.CategoryIDs = append([]int64(nil), f.links[id]...)
	return &clone, nil
}

func (f *fakeBookStore) SoftDelete(_ context.Context, id int64) (bool, error) {
	if _, ok := f.books[id]; !ok {
		return false, nil
	}
	delete(f.books, id)
	return true, nil
}

func (f *fakeBookStore) List(_ context.Context, limit, offset int) ([]models.Book, error) {
	ids := make([]int64, 0, len(f.books))
	for id := range f.books {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []models.Book
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, *f.books[id])
	}
	return out, nil
}

func (f *fakeBookStore) Search(_ context.Context, params models.BookSearchParams, limit, offset int) ([]models.Book, error) {
	all, err := f.List(context.Background(), len(f.books), 0)
	if err != nil {
		return nil, err
	}
	var out []models.Book
	for _, b := range all {
		if len(params.Authors) > 0 {
			matched := false
			for _, a := range params.Authors {
				if strings.EqualFold(a, b.Author) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if params.MinPrice != nil && b.Price.LessThan(*params.MinPrice) {
			continue
		}
		if params.MaxPrice != nil && b.Price.GreaterThan(*params.MaxPrice) {
			continue
		}
		out = append(out, b)
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeBookStore) ListByCategory(_ context.Context, categoryID int64) ([]models.Book, error) {
	var out []models.Book
	for id, cats := range f.links {
		for _, c := range cats {
			if c == categoryID {
				if b, ok := f.books[id]; ok {
					out = append(out, *b)
				}
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBookStore) AddCategory(_ context.Context, bookID, categoryID int64) error {
	for _, c := range f.links[bookID] {
		if c == categoryID {
			return nil
		}
	}
	f.links[bookID] = append(f.links[bookID], categoryID)
	return nil
}

type fakeCategoryStore struct {
	nextID     int64
	categories map[int64]*models.Category
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{categories: make(map[int64]*models.Category)}
}

func (f *fakeCategoryStore) Insert(_ context.Context, category *models.Category) (int64, error) {
	for _, c := range f.categories {
		if c.Name == category.Name {
			return 0, duplicateEntry(category.Name, "uq_categories_name")
		}
	}
	f.nextID++
	clone := *category
	clone.ID = f.nextID
	f.categories[clone.ID] = &clone
	return clone.ID, nil
}

func (f *fakeCategoryStore) FindByID(_ context.Context, id int64) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

func (f *fakeCategoryStore) Update(_ context.Context, category *models.Category) (bool, error) {
	if _, ok := f.categories[category.ID]; !ok {
		return false, nil
	}
	clone := *category
	f.categories[category.ID] = &clone
	return true, nil
}

func (f *fakeCategoryStore) SoftDelete(_ context.Context, id int64) (bool, error) {
	if _, ok := f.categories[id]; !ok {
		return false, nil
	}
	delete(f.categories, id)
	return true, nil
}

func (f *fakeCategoryStore) List(_ context.Context, limit, offset int) ([]models.Category, error) {
	ids := make([]int64, 0, len(f.categories))
	for id := range f.categories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []models.Category
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, *f.categories[id])
	}
	return out, nil
}

type fakeCartStore struct {
	books      *fakeBookStore
	nextCartID int64
	nextItemID int64
	carts      map[int64]*models.ShoppingCart
	items      map[int64]*models.CartItem
}

func newFakeCartStore(books *fakeBookStore) *fakeCartStore {
	return &fakeCartStore{
		books: books,
		carts: make(map[int64]*models.ShoppingCart),
		items: make(map[int64]*models.CartItem),
	}
}

func (f *fakeCartStore) FindByUser(_ context.Context, userID int64) (*models.ShoppingCart, error) {
	for _, c := range f.carts {
		if c.UserID == userID {
			clone := *c
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeCartStore) FindByID(_ context.Context, id int64) (*models.ShoppingCart, error) {
	c, ok := f.carts[id]
	if !ok {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

func (f *fakeCartStore) Create(_ context.Context, userID int64) (*models.ShoppingCart, error) {
	for _, c := range f.carts {
		if c.UserID == userID {
			return nil, duplicateEntry(fmt.Sprint(userID), "uq_carts_user")
		}
	}
	f.nextCartID++
	cart := &models.ShoppingCart{ID: f.nextCartID, UserID: userID}
	f.carts[cart.ID] = cart
	clone := *cart
	return &clone, nil
}

func (f *fakeCartStore) ListLines(_ context.Context, cartID int64) ([]models.CartLine, error) {
	var out []models.CartLine
	for _, item := range f.items {
		if item.CartID != cartID {
			continue
		}
		book, ok := f.books.books[item.BookID]
		if !ok {
			continue
		}
		out = append(out, models.CartLine{
			ID:        item.ID,
			BookID:    item.BookID,
			BookTitle: book.Title,
			Quantity:  item.Quantity,
			Price:     book.Price,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCartStore) FindItem(_ context.Context, itemID int64) (*models.CartItem, error) {
	item, ok := f.items[itemID]
	if !ok {
		return nil, nil
	}
	clone := *item
	return &clone, nil
}

func (f *fakeCartStore) InsertItem(_ context.Context, cartID, bookID int64, quantity int) (int64, error) {
	f.nextItemID++
	f.items[f.nextItemID] = &models.CartItem{ID: f.nextItemID, CartID: cartID, BookID: bookID, Quantity: quantity}
	return f.nextItemID, nil
}

// UpdateItemQuantity reports true for any matched line, changed or not, the
// way the SQL layer does under clientFoundRows.
func (f *fakeCartStore) UpdateItemQuantity(_ context.Context, itemID int64, quantity int) (bool, error) {
	item, ok := f.items[itemID]
	if !ok {
		return false, nil
	}
	item.Quantity = quantity
	return true, nil
}

func (f *fakeCartStore) SoftDeleteItem(_ context.Context, itemID int64) (bool, error) {
	if _, ok := f.items[itemID]; !ok {
		return false, nil
	}
	delete(f.items, itemID)
	return true, nil
}

func (f *fakeCartStore) CountItems(_ context.Context, cartID int64) (int, error) {
	n := 0
	for _, item := range f.items {
		if item.CartID == cartID {
			n++
		}
	}
	return n, nil
}

type fakeOrderStore struct {
	carts      *fakeCartStore
	nextID     int64
	nextItemID int64
	orders     map[int64]*models.Order
	items      map[int64][]models.OrderItem
}

func newFakeOrderStore(carts *fakeCartStore) *fakeOrderStore {
	return &fakeOrderStore{
		carts:  carts,
		orders: make(map[int64]*models.Order),
		items:  make(map[int64][]models.OrderItem),
	}
}

func (f *fakeOrderStore) Create(_ context.Context, order *models.Order, items []models.OrderItem, cartItemIDs []int64) (*models.Order, error) {
	// same check the SQL layer makes under FOR UPDATE: every named cart line
	// must still be live
	for _, id := range cartItemIDs {
		if _, ok := f.carts.items[id]; !ok {
			return nil, apperr.NotFound("shopping cart for user %d is empty", order.UserID)
		}
	}

	f.nextID++
	clone := *order
	clone.ID = f.nextID

	stored := make([]models.OrderItem, len(items))
	for i, item := range items {
		f.nextItemID++
		item.ID = f.nextItemID
		item.OrderID = clone.ID
		stored[i] = item
	}
	f.items[clone.ID] = stored
	clone.Items = append([]models.OrderItem(nil), stored...)
	f.orders[clone.ID] = &clone

	for _, id := range cartItemIDs {
		delete(f.carts.items, id)
	}

	result := clone
	return &result, nil
}

func (f *fakeOrderStore) FindByIDAndUser(_ context.Context, orderID, userID int64) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, nil
	}
	clone := *o
	clone.Items = nil
	return &clone, nil
}

func (f *fakeOrderStore) FindByID(_ context.Context, orderID int64) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	clone := *o
	clone.Items = nil
	return &clone, nil
}

func (f *fakeOrderStore) ListByUser(_ context.Context, userID int64, limit, offset int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			clone := *o
			clone.Items = nil
			out = append(out, clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeOrderStore) ListItems(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	return append([]models.OrderItem(nil), f.items[orderID]...), nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, orderID int64, status models.OrderStatus) error {
	if o, ok := f.orders[orderID]; ok {
		o.Status = status
	}
	return nil
}

type fakeUserStore struct {
	nextID   int64
	users    map[int64]*models.User
	sessions map[string]models.Session
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*models.User), sessions: make(map[string]models.Session)}
}

func (f *fakeUserStore) Insert(_ context.Context, user *models.User, roleName string) (int64, error) {
	for _, u := range f.users {
		if u.Email == user.Email {
			return 0, duplicateEntry(user.Email, "uq_users_email")
		}
	}
	f.nextID++
	clone := *user
	clone.ID = f.nextID
	clone.Roles = []string{roleName}
	f.users[clone.ID] = &clone
	return clone.ID, nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserStore) CreateSession(_ context.Context, session models.Session) error {
	f.sessions[session.Token] = session
	return nil
}

func (f *fakeUserStore) FindSessionUser(_ context.Context, token string) (*models.User, error) {
	session, ok := f.sessions[token]
	if !ok || session.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	return f.FindByID(context.Background(), session.UserID)
}

// capturingPublisher records every published event for assertions.
type capturingPublisher struct {
	keys     []string
	payloads []any
}

func (p *capturingPublisher) Publish(_ context.Context, routingKey string, v any) error {
	p.keys = append(p.keys, routingKey)
	p.payloads = append(p.payloads, v)
	return nil
}

func (p *capturingPublisher) Close() {}
