package books

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	resp "bookshelf/internal/lib/api/response"
	sl "bookshelf/internal/lib/logger/sl"
	"bookshelf/internal/models"
	"bookshelf/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ListResponse struct {
	resp.Response
	Books []models.Book `json:"books"`
}

type BookResponse struct {
	resp.Response
	models.Book
}

type Catalog interface {
	Books(ctx context.Context) ([]models.Book, error)
	Book(ctx context.Context, id int64) (models.Book, error)
}

// List returns every book with its authors and publisher.
func List(log *slog.Logger, catalog Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.books.List"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		books, err := catalog.Books(ctx)
		if err != nil {
			log.Error("failed to list books", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Books:    books,
		})
	}
}

// Get returns the book named by the {id} URL parameter.
func Get(log *slog.Logger, catalog Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.books.Get"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id < 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Invalid book id"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		book, err := catalog.Book(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrBookNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Book not found"))

				return
			}

			log.Error("failed to get book", slog.Int64("book_id", id), sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, BookResponse{
			Response: resp.OK(),
			Book:     book,
		})
	}
}
