package books_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/http_server/handlers/books"
	"bookshelf/internal/lib/logger/handlers/slogdiscard"
	"bookshelf/internal/models"
	"bookshelf/internal/storage"
)

type fakeCatalog struct {
	books map[int64]models.Book
	err   error
}

func (f *fakeCatalog) Books(context.Context) ([]models.Book, error) {
	if f.err != nil {
		return nil, f.err
	}

	res := make([]models.Book, 0, len(f.books))
	for id := int64(1); id <= int64(len(f.books)); id++ {
		res = append(res, f.books[id])
	}

	return res, nil
}

func (f *fakeCatalog) Book(_ context.Context, id int64) (models.Book, error) {
	if f.err != nil {
		return models.Book{}, f.err
	}

	b, ok := f.books[id]
	if !ok {
		return models.Book{}, storage.ErrBookNotFound
	}

	return b, nil
}

func newRouter(catalog books.Catalog) http.Handler {
	log := slogdiscard.NewDiscardLogger()

	r := chi.NewRouter()
	r.Get("/books", books.List(log, catalog))
	r.Get("/books/{id}", books.Get(log, catalog))

	return r
}

var catalog = &fakeCatalog{books: map[int64]models.Book{
	1: {
		ID:           1,
		ISBN13:       "9782266127035",
		Title:        "L'âme du mal",
		ParutionDate: time.Date(2004, 3, 11, 0, 0, 0, 0, time.UTC),
		Pages:        514,
		Publisher:    &models.Publisher{ID: 1, Name: "POCKET"},
		Authors:      []models.Author{{ID: 1, Firstname: "Maxime", Lastname: "Chattam"}},
	},
	2: {ID: 2, ISBN13: "9782840989042", Title: "In Tenebris", Authors: []models.Author{}},
}}

func TestListHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter(catalog).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/books", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Status string        `json:"status"`
		Books  []models.Book `json:"books"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	assert.Equal(t, "OK", body.Status)
	require.Len(t, body.Books, 2)
	assert.Equal(t, "L'âme du mal", body.Books[0].Title)
	assert.Equal(t, "POCKET", body.Books[0].Publisher.Name)
	assert.Empty(t, body.Books[1].Authors)
}

func TestListHandlerFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter(&fakeCatalog{err: errors.New("db is down")}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/books", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"status":"Error","error":"Internal error"}`, rr.Body.String())
}

func TestGetHandler(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantError string
		wantTitle string
	}{
		{name: "existing book", path: "/books/1", wantCode: http.StatusOK, wantTitle: "L'âme du mal"},
		{name: "missing book", path: "/books/404", wantCode: http.StatusNotFound, wantError: "Book not found"},
		{name: "non numeric id", path: "/books/abc", wantCode: http.StatusBadRequest, wantError: "Invalid book id"},
		{name: "negative id", path: "/books/-1", wantCode: http.StatusBadRequest, wantError: "Invalid book id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			newRouter(catalog).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.wantCode, rr.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				return
			}

			assert.Equal(t, "OK", body["status"])
			assert.Equal(t, tt.wantTitle, body["title"])
			assert.Contains(t, body, "authors")
		})
	}
}
