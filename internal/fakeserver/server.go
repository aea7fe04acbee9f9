// Package fakeserver is an in-memory stand-in for the PetFriends API used by
// offline tests. It mirrors the live service closely enough for the harness
// scenarios: Flask-style HTML error pages, string ages, and base64 photos.
package fakeserver

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxUploadBytes = 10 << 20

// Pet mirrors the service's JSON pet record.
type Pet struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AnimalType string `json:"animal_type"`
	Age        string `json:"age"`
	PetPhoto   string `json:"pet_photo"`
	UserID     string `json:"user_id"`
	CreatedAt  string `json:"created_at"`
}

// Server is the fake service. The zero value is not usable; call New.
type Server struct {
	email    string
	password string
	userID   string

	mu   sync.Mutex
	keys map[string]struct{}
	pets []Pet

	requests atomic.Int64
	router   chi.Router
}

// New builds a server accepting one account. A few pets owned by other users
// are preloaded so that listing all pets is never empty.
func New(email, password string) *Server {
	s := &Server{
		email:    email,
		password: password,
		userID:   uuid.NewString(),
		keys:     make(map[string]struct{}),
	}
	for i, name := range []string{"Barsik", "Sharik", "Murka"} {
		s.pets = append(s.pets, Pet{
			ID:         uuid.NewString(),
			Name:       name,
			AnimalType: "cat",
			Age:        strconv.Itoa(i + 1),
			UserID:     uuid.NewString(),
			CreatedAt:  createdAt(),
		})
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	s.router.ServeHTTP(w, r)
}

// Requests returns how many requests reached the server.
func (s *Server) Requests() int64 { return s.requests.Load() }

// OwnPets returns a snapshot of the account's pets, newest first.
func (s *Server) OwnPets() []Pet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterLocked(true)
}

// RemoveOwnPets deletes every pet owned by the account.
func (s *Server) RemoveOwnPets() {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.pets[:0]
	for _, p := range s.pets {
		if p.UserID != s.userID {
			kept = append(kept, p)
		}
	}
	s.pets = kept
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/api/key", s.handleKey)
	r.Group(func(r chi.Router) {
		r.Use(s.requireKey)
		r.Get("/api/pets", s.handleList)
		r.Post("/api/pets", s.handleAdd)
		r.Post("/api/create_pet_simple", s.handleCreateSimple)
		r.Put("/api/pets/{id}", s.handleUpdate)
		r.Delete("/api/pets/{id}", s.handleDelete)
		r.Post("/api/pets/set_photo/{id}", s.handleSetPhoto)
	})
	return r
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	email, password := r.Header.Get("email"), r.Header.Get("password")
	if email == "" || password == "" {
		htmlError(w, http.StatusForbidden, "Please provide email and password")
		return
	}
	if email != s.email || password != s.password {
		htmlError(w, http.StatusForbidden, "This user wasn't found in database")
		return
	}
	key := uuid.NewString()
	s.mu.Lock()
	s.keys[key] = struct{}{}
	s.mu.Unlock()
	writeJSON(w, map[string]string{"key": key})
}

func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		_, ok := s.keys[r.Header.Get("auth_key")]
		s.mu.Unlock()
		if !ok {
			htmlError(w, http.StatusForbidden, "Please provide 'auth_key' Header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var own bool
	switch r.URL.Query().Get("filter") {
	case "":
	case "my_pets":
		own = true
	default:
		htmlError(w, http.StatusBadRequest, "Filter value is incorrect")
		return
	}
	s.mu.Lock()
	pets := s.filterLocked(own)
	s.mu.Unlock()
	writeJSON(w, map[string][]Pet{"pets": pets})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		htmlError(w, http.StatusBadRequest, "Multipart form expected")
		return
	}
	pet, ok := s.petFromForm(w, r)
	if !ok {
		return
	}
	photo, ok := readPhoto(w, r)
	if !ok {
		return
	}
	pet.PetPhoto = photo
	writeJSON(w, s.insert(pet))
}

func (s *Server) handleCreateSimple(w http.ResponseWriter, r *http.Request) {
	pet, ok := s.petFromForm(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.insert(pet))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	form, ok := s.petFromForm(w, r)
	if !ok {
		return
	}
	updated, ok := s.mutateOwn(chi.URLParam(r, "id"), func(p *Pet) {
		p.Name, p.AnimalType, p.Age = form.Name, form.AnimalType, form.Age
	})
	if !ok {
		htmlError(w, http.StatusBadRequest, "Pet with this id wasn't found")
		return
	}
	writeJSON(w, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pets {
		if p.ID == id && p.UserID == s.userID {
			s.pets = append(s.pets[:i], s.pets[i+1:]...)
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	htmlError(w, http.StatusNotFound, "Pet with this id wasn't found")
}

func (s *Server) handleSetPhoto(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		htmlError(w, http.StatusBadRequest, "Multipart form expected")
		return
	}
	photo, ok := readPhoto(w, r)
	if !ok {
		return
	}
	updated, ok := s.mutateOwn(chi.URLParam(r, "id"), func(p *Pet) { p.PetPhoto = photo })
	if !ok {
		htmlError(w, http.StatusBadRequest, "Pet with this id wasn't found")
		return
	}
	writeJSON(w, updated)
}

func (s *Server) petFromForm(w http.ResponseWriter, r *http.Request) (Pet, bool) {
	if err := r.ParseForm(); err != nil {
		htmlError(w, http.StatusBadRequest, "Form data expected")
		return Pet{}, false
	}
	pet := Pet{
		Name:       r.FormValue("name"),
		AnimalType: r.FormValue("animal_type"),
		Age:        r.FormValue("age"),
	}
	if pet.Name == "" || pet.AnimalType == "" {
		htmlError(w, http.StatusBadRequest, "Name and animal_type are required")
		return Pet{}, false
	}
	if _, err := strconv.Atoi(pet.Age); err != nil {
		htmlError(w, http.StatusBadRequest, "Age must be a number")
		return Pet{}, false
	}
	return pet, true
}

func (s *Server) insert(p Pet) Pet {
	p.ID = uuid.NewString()
	p.UserID = s.userID
	p.CreatedAt = createdAt()
	s.mu.Lock()
	s.pets = append(s.pets, p)
	s.mu.Unlock()
	return p
}

func (s *Server) mutateOwn(id string, fn func(*Pet)) (Pet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pets {
		if s.pets[i].ID == id && s.pets[i].UserID == s.userID {
			fn(&s.pets[i])
			return s.pets[i], true
		}
	}
	return Pet{}, false
}

// filterLocked returns pets newest first, like the live listing.
func (s *Server) filterLocked(own bool) []Pet {
	out := make([]Pet, 0, len(s.pets))
	for i := len(s.pets) - 1; i >= 0; i-- {
		if !own || s.pets[i].UserID == s.userID {
			out = append(out, s.pets[i])
		}
	}
	return out
}

func readPhoto(w http.ResponseWriter, r *http.Request) (string, bool) {
	f, hdr, err := r.FormFile("pet_photo")
	if err != nil {
		htmlError(w, http.StatusBadRequest, "pet_photo file is required")
		return "", false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil || len(data) == 0 {
		htmlError(w, http.StatusBadRequest, "pet_photo file is empty")
		return "", false
	}
	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), true
}

// htmlError writes the Werkzeug-style error page the live service returns.
func htmlError(w http.ResponseWriter, status int, description string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<!doctype html>\n<html lang=en>\n<title>%d %s</title>\n<h1>%s</h1>\n<p>%s</p>\n",
		status, http.StatusText(status), http.StatusText(status), html.EscapeString(description))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func createdAt() string {
	return strconv.FormatFloat(float64(time.Now().UnixNano())/1e9, 'f', 6, 64)
}
