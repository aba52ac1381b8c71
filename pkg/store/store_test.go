package store

import (
	"context"
	"errors"
	"testing"

	"github.com/ammar0144/movies4go/pkg/db/dbtest"
	"github.com/ammar0144/movies4go/pkg/models"
)

func int64Ptr(v int64) *int64 { return &v }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(dbtest.New(t, models.All()...), nil)
}

func titles(movies []models.Movie) []string {
	out := make([]string, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.Title)
	}
	return out
}

func TestMovieListFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, m := range []*models.Movie{
		{Title: "M1", GenreID: int64Ptr(3), DirectorID: int64Ptr(5)},
		{Title: "M2", GenreID: int64Ptr(4), DirectorID: int64Ptr(3)},
		{Title: "M3", GenreID: int64Ptr(3), DirectorID: int64Ptr(6)},
		{Title: "M4"},
	} {
		if err := s.Movies.Create(ctx, m); err != nil {
			t.Fatalf("Create %s: %v", m.Title, err)
		}
	}

	tests := []struct {
		name   string
		filter MovieFilter
		want   []string
	}{
		{"no filter", MovieFilter{}, []string{"M1", "M2", "M3", "M4"}},
		{"genre", MovieFilter{GenreID: int64Ptr(3)}, []string{"M1", "M3"}},
		{"director", MovieFilter{DirectorID: int64Ptr(3)}, []string{"M2"}},
		{"genre wins", MovieFilter{GenreID: int64Ptr(4), DirectorID: int64Ptr(5)}, []string{"M2"}},
		{"no match", MovieFilter{GenreID: int64Ptr(99)}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Movies.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			gotTitles := titles(got)
			if len(gotTitles) != len(tt.want) {
				t.Fatalf("got %v, want %v", gotTitles, tt.want)
			}
			for i := range tt.want {
				if gotTitles[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", gotTitles, tt.want)
				}
			}
		})
	}
}

func TestCreateDiscardsID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := &models.Genre{Name: "Drama"}
	if err := s.Genres.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	second := &models.Genre{ID: first.ID, Name: "Comedy"}
	if err := s.Genres.Create(ctx, second); err != nil {
		t.Fatalf("Create with taken id: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("caller-supplied id %d was kept", first.ID)
	}

	got, err := s.Genres.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Drama" {
		t.Fatalf("first genre overwritten: %q", got.Name)
	}
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Directors.Get(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}
	if err := s.Directors.Update(ctx, &models.Director{ID: 1, Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update: expected ErrNotFound, got %v", err)
	}
	if err := s.Directors.Delete(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Movies.Detail(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Detail: expected ErrNotFound, got %v", err)
	}
}

func TestMovieDetail(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	d := &models.Director{Name: "Agnès Varda"}
	g := &models.Genre{Name: "Documentary"}
	if err := s.Directors.Create(ctx, d); err != nil {
		t.Fatalf("Create director: %v", err)
	}
	if err := s.Genres.Create(ctx, g); err != nil {
		t.Fatalf("Create genre: %v", err)
	}
	m := &models.Movie{Title: "The Gleaners and I", Year: 2000, Rating: 7.8, GenreID: &g.ID, DirectorID: &d.ID}
	if err := s.Movies.Create(ctx, m); err != nil {
		t.Fatalf("Create movie: %v", err)
	}

	detail, err := s.Movies.Detail(ctx, m.ID)
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if detail.ID != m.ID || detail.Title != m.Title || detail.Year != 2000 || detail.Rating != 7.8 {
		t.Fatalf("unexpected movie fields: %+v", detail.Movie)
	}
	if detail.DirectorName == nil || *detail.DirectorName != "Agnès Varda" {
		t.Fatalf("unexpected director name: %v", detail.DirectorName)
	}
	if detail.GenreName == nil || *detail.GenreName != "Documentary" {
		t.Fatalf("unexpected genre name: %v", detail.GenreName)
	}

	// Deleting the director leaves the movie pointing at nothing.
	if err := s.Directors.Delete(ctx, d.ID); err != nil {
		t.Fatalf("Delete director: %v", err)
	}
	detail, err = s.Movies.Detail(ctx, m.ID)
	if err != nil {
		t.Fatalf("Detail after delete: %v", err)
	}
	if detail.DirectorID == nil || *detail.DirectorID != d.ID {
		t.Fatalf("director_id should dangle at %d, got %v", d.ID, detail.DirectorID)
	}
	if detail.DirectorName != nil {
		t.Fatalf("expected nil director name, got %q", *detail.DirectorName)
	}
}

func TestUpdateReplacesAllFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m := &models.Movie{Title: "Old", Description: "d", Year: 1990, GenreID: int64Ptr(2)}
	if err := s.Movies.Create(ctx, m); err != nil {
		t.Fatalf("Create: %v", err)
	}

	replacement := &models.Movie{ID: m.ID, Title: "New", Year: 2001}
	if err := s.Movies.Update(ctx, replacement); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.Movies.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "New" || got.Description != "" || got.Year != 2001 || got.GenreID != nil {
		t.Fatalf("update did not replace every field: %+v", got)
	}
}
