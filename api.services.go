package main

import (
	"context"

	"go.uber.org/zap"
)

// BookServiceProvider is the books catalog as seen by the http handlers.
// Every returned error is a *StoreError.
type BookServiceProvider interface {
	Add(ctx context.Context, form BookForm) (Book, error)
	GetOne(ctx context.Context, id string) (Book, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, form BookForm) (Book, error)
	GetPage(ctx context.Context, pageNumber int) (PageDescriptor, error)
	Search(ctx context.Context, predicate SearchPredicate) ([]Book, error)
}

type BookService struct {
	logger  *zap.Logger
	config  *Config
	clock   Clocker
	ids     UIDHandler
	storage BookStorage
	queue   Queuer
}

// NewBookService provides the books service. The queue is optional
// and only set when the backup replication is enabled.
func NewBookService(logger *zap.Logger, config *Config, clock Clocker, ids UIDHandler, storage BookStorage, queue Queuer) BookServiceProvider {
	return &BookService{
		logger:  logger,
		config:  config,
		clock:   clock,
		ids:     ids,
		storage: storage,
		queue:   queue,
	}
}

func (bs *BookService) publish(ctx context.Context, qid string, book Book) {
	if bs.queue == nil {
		return
	}
	if err := bs.queue.Push(ctx, qid, book); err != nil {
		bs.logger.Error("service: failed to push book to queue", zap.String("qid", qid), zap.String("book.id", book.ID), zap.Error(err))
	}
}

// Add validates the submitted fields and stores a new book with a fresh
// identifier. Both timestamps are set to the creation time.
func (bs *BookService) Add(ctx context.Context, form BookForm) (Book, error) {
	book, err := form.Book()
	if err != nil {
		return Book{}, err
	}
	now := bs.clock.Now().UTC()
	book.ID = bs.ids.Generate(BookIDPrefix)
	book.CreatedAt = now
	book.UpdatedAt = now

	if err = bs.storage.Add(ctx, book.ID, book); err != nil {
		return Book{}, NewUnexpectedError("add", err)
	}
	bs.publish(ctx, CreateQueue, book)
	return book, nil
}

// GetOne fetches a book. Malformed identifiers never reach the storage.
func (bs *BookService) GetOne(ctx context.Context, id string) (Book, error) {
	if !bs.ids.IsValid(id, BookIDPrefix) {
		return Book{}, ErrBookNotFound
	}
	book, err := bs.storage.GetOne(ctx, id)
	if err != nil {
		return Book{}, NewUnexpectedError("get", err)
	}
	return book, nil
}

// Delete removes a book.
func (bs *BookService) Delete(ctx context.Context, id string) error {
	if !bs.ids.IsValid(id, BookIDPrefix) {
		return ErrBookNotFound
	}
	if err := bs.storage.Delete(ctx, id); err != nil {
		return NewUnexpectedError("delete", err)
	}
	bs.publish(ctx, DeleteQueue, Book{ID: id})
	return nil
}

// Update validates the submitted fields and replaces the mutable
// fields of the book. Its identifier and creation time are kept.
func (bs *BookService) Update(ctx context.Context, id string, form BookForm) (Book, error) {
	book, err := form.Book()
	if err != nil {
		return Book{}, err
	}
	if !bs.ids.IsValid(id, BookIDPrefix) {
		return Book{}, ErrBookNotFound
	}
	book.ID = id
	book.UpdatedAt = bs.clock.Now().UTC()

	book, err = bs.storage.Update(ctx, id, book)
	if err != nil {
		return Book{}, NewUnexpectedError("update", err)
	}
	bs.publish(ctx, UpdateQueue, book)
	return book, nil
}

// GetPage computes the requested listing page from the live record
// count. Pages out of range come back without books and without error.
func (bs *BookService) GetPage(ctx context.Context, pageNumber int) (PageDescriptor, error) {
	total, err := bs.storage.Count(ctx)
	if err != nil {
		return PageDescriptor{}, NewUnexpectedError("count", err)
	}
	page := NewPageDescriptor(pageNumber, total)
	if !page.InRange() {
		return page, nil
	}
	page.Books, err = bs.storage.GetPage(ctx, page.Offset, page.Size)
	if err != nil {
		return PageDescriptor{}, NewUnexpectedError("page", err)
	}
	return page, nil
}

// Search returns every book matching the predicate, most recent first.
func (bs *BookService) Search(ctx context.Context, predicate SearchPredicate) ([]Book, error) {
	books, err := bs.storage.Filter(ctx, predicate)
	if err != nil {
		return nil, NewUnexpectedError("search", err)
	}
	return books, nil
}
