package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Index sends visitors to the first listing page.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, BooksFirstPagePath, http.StatusSeeOther)
}

// ListBooks renders a page of books, most recent first. Pages out of
// range, including non numeric ones, render the empty listing.
func (api *APIHandler) ListBooks(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	pageNumber := ParsePageNumber(ps.ByName("page"))

	page, err := api.bookService.GetPage(r.Context(), pageNumber)
	if err != nil {
		logger.Error("failed to get books page", zap.Int("page.number", pageNumber), zap.Error(err))
		api.handleFailure(w, r, err, ViewData{})
		return
	}

	data := ViewData{Title: "Books", Mode: ModeBooks, Page: page, Books: page.Books}
	if !page.InRange() || len(page.Books) == 0 {
		data.Mode = ModeNoBooks
	}
	logger.Debug("success to get books page", zap.Int("page.number", pageNumber), zap.Int("page.count", page.Count))
	api.render(w, r, http.StatusOK, ViewIndex, data)
}

// NewBookForm renders the empty creation form.
func (api *APIHandler) NewBookForm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.render(w, r, http.StatusOK, ViewNewBook, ViewData{Title: "New Book"})
}

// CreateBook stores the submitted book. Rejected submissions render the
// creation form again with the submitted values and the field messages.
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	form, err := DecodeBookForm(r)
	if err != nil {
		logger.Error("failed to decode book form", zap.Error(err))
		api.Escalate(w, r, &HTTPError{Status: http.StatusBadRequest, Err: err})
		return
	}

	book, err := api.bookService.Add(r.Context(), form)
	if err != nil {
		if outcome, fields := ResolveFailure(err); outcome == OutcomeFieldValidation {
			logger.Info("book creation rejected", zap.Any("fields", fields))
			api.render(w, r, http.StatusOK, ViewNewBook, ViewData{Title: "New Book", Form: form, Errors: fields})
			return
		}
		logger.Error("failed to create book", zap.Error(err))
		api.handleFailure(w, r, err, ViewData{})
		return
	}

	logger.Info("success to create book", zap.String("book.id", book.ID))
	http.Redirect(w, r, BooksFirstPagePath, http.StatusSeeOther)
}

// EditBook renders the edition form of an existing book.
func (api *APIHandler) EditBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	id := ps.ByName("id")

	book, err := api.bookService.GetOne(r.Context(), id)
	if err != nil {
		logger.Info("failed to get book", zap.String("book.id", id), zap.Error(err))
		api.handleFailure(w, r, err, ViewData{})
		return
	}

	api.render(w, r, http.StatusOK, ViewEditBook, ViewData{
		Title:  "Edit Book",
		BookID: book.ID,
		Form:   NewBookForm(book),
	})
}

// UpdateBook applies the submitted changes to an existing book. Fields left
// out of the submission keep their stored value. Rejected submissions render
// the edition form again with what was submitted.
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	id := ps.ByName("id")

	book, err := api.bookService.GetOne(r.Context(), id)
	if err != nil {
		logger.Info("failed to get book", zap.String("book.id", id), zap.Error(err))
		api.handleFailure(w, r, err, ViewData{})
		return
	}

	form, err := DecodeBookForm(r)
	if err != nil {
		logger.Error("failed to decode book form", zap.String("book.id", id), zap.Error(err))
		api.Escalate(w, r, &HTTPError{Status: http.StatusBadRequest, Err: err})
		return
	}
	form.Merge(book)

	if _, err = api.bookService.Update(r.Context(), id, form); err != nil {
		if outcome, fields := ResolveFailure(err); outcome == OutcomeFieldValidation {
			logger.Info("book update rejected", zap.String("book.id", id), zap.Any("fields", fields))
			api.render(w, r, http.StatusOK, ViewEditBook, ViewData{Title: "Edit Book", BookID: id, Form: form, Errors: fields})
			return
		}
		logger.Error("failed to update book", zap.String("book.id", id), zap.Error(err))
		api.handleFailure(w, r, err, ViewData{})
		return
	}

	logger.Info("success to update book", zap.String("book.id", id))
	http.Redirect(w, r, BooksFirstPagePath, http.StatusSeeOther)
}

// DeleteBook removes an existing book.
func (api *APIHandler) DeleteBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	id := ps.ByName("id")

	if _, err := api.bookService.GetOne(r.Context(), id); err != nil {
		logger.Info("failed to get book", zap.String("book.id", id), zap.Error(err))
		api.handleFailure(w, r, err, ViewData{})
		return
	}

	if err := api.bookService.Delete(r.Context(), id); err != nil {
		logger.Error("failed to delete book", zap.String("book.id", id), zap.Error(err))
		api.handleFailure(w, r, err, ViewData{})
		return
	}

	logger.Info("success to delete book", zap.String("book.id", id))
	http.Redirect(w, r, BooksFirstPagePath, http.StatusSeeOther)
}

// SearchBooks renders every book matching the submitted term. An empty
// term lists the whole catalog.
func (api *APIHandler) SearchBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		logger.Error("failed to decode search form", zap.Error(err))
		api.Escalate(w, r, &HTTPError{Status: http.StatusBadRequest, Err: err})
		return
	}
	term := r.PostForm.Get("search")
	predicate := BuildSearchPredicate(term)

	books, err := api.bookService.Search(r.Context(), predicate)
	if err != nil {
		logger.Error("failed to search books", zap.String("search.term", predicate.Term), zap.Error(err))
		api.handleFailure(w, r, err, ViewData{Term: term})
		return
	}

	if len(books) == 0 {
		api.render(w, r, http.StatusOK, ViewNotFound, ViewData{Title: "No Books Found", Mode: ModeSearch, Term: term})
		return
	}
	api.render(w, r, http.StatusOK, ViewIndex, ViewData{Title: "Search", Mode: ModeSearch, Books: books, Term: term})
}
