package postgres

import (
	"context"
	"errors"
	"fmt"

	"bookshelf/internal/models"
	"bookshelf/internal/storage"

	"github.com/jackc/pgx/v5"
)

// Books returns every book with its authors and publisher.
func (r *PostgresRepo) Books(ctx context.Context) ([]models.Book, error) {
	const op = "storage.postgres.Books"

	query := `
		SELECT b.id, b.isbn13, b.title, b.parution_date, b.summary, b.pages, b.cover_filename,
		       p.id, p.name
		FROM books b
		LEFT JOIN publishers p ON p.id = b.publisher_id
		ORDER BY b.id;
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	books := make([]models.Book, 0)
	ids := make([]int64, 0)

	for rows.Next() {
		var (
			b             models.Book
			publisherID   *int64
			publisherName *string
		)

		err := rows.Scan(
			&b.ID, &b.ISBN13, &b.Title, &b.ParutionDate, &b.Summary, &b.Pages, &b.CoverFilename,
			&publisherID, &publisherName,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if publisherID != nil && publisherName != nil {
			b.Publisher = &models.Publisher{ID: *publisherID, Name: *publisherName}
		}

		b.Authors = make([]models.Author, 0)
		books = append(books, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(ids) == 0 {
		return books, nil
	}

	authors, err := r.authorsByBook(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range books {
		if a, ok := authors[books[i].ID]; ok {
			books[i].Authors = a
		}
	}

	return books, nil
}

// Book returns a single book with authors, genre, series and publisher.
func (r *PostgresRepo) Book(ctx context.Context, id int64) (models.Book, error) {
	const op = "storage.postgres.Book"

	query := `
		SELECT b.id, b.isbn13, b.title, b.parution_date, b.summary, b.pages, b.cover_filename,
		       g.id, g.name, p.id, p.name, s.id, s.name
		FROM books b
		LEFT JOIN genres g ON g.id = b.genre_id
		LEFT JOIN publishers p ON p.id = b.publisher_id
		LEFT JOIN series s ON s.id = b.series_id
		WHERE b.id = $1;
	`

	var (
		b                        models.Book
		genreID, pubID, seriesID *int64
		genre, pub, series       *string
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.ISBN13, &b.Title, &b.ParutionDate, &b.Summary, &b.Pages, &b.CoverFilename,
		&genreID, &genre, &pubID, &pub, &seriesID, &series,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, storage.ErrBookNotFound
		}

		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	if genreID != nil && genre != nil {
		b.Genre = &models.Genre{ID: *genreID, Name: *genre}
	}
	if pubID != nil && pub != nil {
		b.Publisher = &models.Publisher{ID: *pubID, Name: *pub}
	}
	if seriesID != nil && series != nil {
		b.Series = &models.Series{ID: *seriesID, Name: *series}
	}

	authors, err := r.authorsByBook(ctx, []int64{b.ID})
	if err != nil {
		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	b.Authors = authors[b.ID]
	if b.Authors == nil {
		b.Authors = make([]models.Author, 0)
	}

	return b, nil
}

func (r *PostgresRepo) authorsByBook(ctx context.Context, bookIDs []int64) (map[int64][]models.Author, error) {
	query := `
		SELECT ab.book_id, a.id, a.firstname, a.lastname, a.description
		FROM author_books ab
		JOIN authors a ON a.id = ab.author_id
		WHERE ab.book_id = ANY($1)
		ORDER BY ab.book_id, a.id;
	`

	rows, err := r.pool.Query(ctx, query, bookIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make(map[int64][]models.Author)

	for rows.Next() {
		var (
			bookID int64
			a      models.Author
		)

		if err := rows.Scan(&bookID, &a.ID, &a.Firstname, &a.Lastname, &a.Description); err != nil {
			return nil, err
		}

		res[bookID] = append(res[bookID], a)
	}

	return res, rows.Err()
}
