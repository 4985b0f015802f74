// Package cookbooktest provides an in-memory Nextcloud Cookbook API for tests
// and for the mockbook development server.
package cookbooktest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Route names used by Hits, Fail and Block
const (
	RouteVersion = "version"
	RouteList    = "list"
	RouteRecipe  = "recipe"
	RouteImage   = "image"
	RouteSearch  = "search"
)

// Recipe is one record held by the fake server
type Recipe struct {
	ID           string
	Name         string
	Description  string
	PrepTime     string
	TotalTime    string
	Yield        int
	Keywords     string
	Category     string
	Ingredients  []string
	Instructions []string

	// Image is served as-is. Nil generates a solid PNG; NoImage serves 404.
	Image   []byte
	NoImage bool
}

// Server is a fake cookbook. The zero value is not usable; call New.
type Server struct {
	mu       sync.Mutex
	token    string
	version  any
	recipes  []Recipe
	hits     map[string]int
	requests map[string][]string
	fail     map[string]int
	gates    map[string]chan struct{}
	logging  bool
}

// New returns an empty server that accepts any token and reports version
// "0.10.2"
func New() *Server {
	return &Server{
		version:  "0.10.2",
		hits:     make(map[string]int),
		requests: make(map[string][]string),
		fail:     make(map[string]int),
		gates:    make(map[string]chan struct{}),
	}
}

// RequireToken makes every route answer 401 unless the Basic token matches
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// SetVersion sets the cookbook_version value. Nil omits the field.
func (s *Server) SetVersion(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = v
}

// SetRecipes replaces the recipe list
func (s *Server) SetRecipes(recipes []Recipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes = append([]Recipe(nil), recipes...)
}

// Seed fills the server with n generated recipes with ids "1".."n"
func (s *Server) Seed(n int) {
	recipes := make([]Recipe, n)
	for i := range recipes {
		id := strconv.Itoa(i + 1)
		recipes[i] = Recipe{
			ID:           id,
			Name:         fmt.Sprintf("Recipe %02d", i+1),
			Description:  fmt.Sprintf("Test recipe number %d", i+1),
			PrepTime:     "PT20M",
			TotalTime:    "PT1H5M",
			Yield:        4,
			Keywords:     "dinner,test",
			Category:     "Main",
			Ingredients:  []string{"1 cup flour", "2 eggs"},
			Instructions: []string{"Mix.", "Bake."},
		}
	}
	s.SetRecipes(recipes)
}

// EnableLogging adds chi's request logger to the handler
func (s *Server) EnableLogging() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logging = true
}

// Fail makes route answer with status until cleared with status 0
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.fail, route)
		return
	}
	s.fail[route] = status
}

// Block holds requests to route until the returned release func is called
func (s *Server) Block(route string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[route] = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gates[route] == gate {
				delete(s.gates, route)
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Hits returns how many requests route has received
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Requests returns the request URIs route has received, in order
func (s *Server) Requests(route string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests[route]...)
}

// Handler returns the chi router serving the cookbook API
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.mu.Lock()
	if s.logging {
		r.Use(middleware.Logger)
	}
	s.mu.Unlock()
	r.Use(middleware.Recoverer)
	r.Use(s.authenticate)

	r.Get("/api/version", s.track(RouteVersion, s.handleVersion))
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/recipes", s.track(RouteList, s.handleList))
		r.Get("/recipes/{id}", s.track(RouteRecipe, s.handleRecipe))
		r.Get("/recipes/{id}/image", s.track(RouteImage, s.handleImage))
		r.Get("/search/{query}", s.track(RouteSearch, s.handleSearch))
	})
	return r
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		token := s.token
		s.mu.Unlock()

		if token != "" && r.Header.Get("Authorization") != "Basic "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// track counts the request, applies any configured failure, then waits on
// the route's gate
func (s *Server) track(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[route]++
		s.requests[route] = append(s.requests[route], r.URL.RequestURI())
		status := s.fail[route]
		gate := s.gates[route]
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}

		if status != 0 {
			writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
			return
		}
		h(w, r)
	}
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	version := s.version
	s.mu.Unlock()

	body := map[string]any{
		"api_version": map[string]int{"epoch": 0, "major": 1, "minor": 1},
	}
	if version != nil {
		body["cookbook_version"] = version
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	recipes := append([]Recipe(nil), s.recipes...)
	s.mu.Unlock()

	out := make([]map[string]any, 0, len(recipes))
	for _, rec := range recipes {
		out = append(out, stub(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecipe(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.find(param(r, "id"))
	if !ok {
		// The cookbook answers unknown ids with an empty success body
		writeJSON(w, http.StatusOK, nil)
		return
	}

	body := stub(rec)
	body["@type"] = "Recipe"
	body["recipeCategory"] = rec.Category
	body["recipeIngredient"] = rec.Ingredients
	steps := make([]map[string]string, 0, len(rec.Instructions))
	for _, text := range rec.Instructions {
		steps = append(steps, map[string]string{"@type": "HowToStep", "text": text})
	}
	body["recipeInstructions"] = steps
	body["tool"] = []string{}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.find(param(r, "id"))
	if !ok || rec.NoImage {
		http.NotFound(w, r)
		return
	}

	data := rec.Image
	if data == nil {
		side := 256
		if r.URL.Query().Get("size") == "thumb" {
			side = 32
		}
		data = solidPNG(rec.ID, side)
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(param(r, "query"))

	s.mu.Lock()
	recipes := append([]Recipe(nil), s.recipes...)
	s.mu.Unlock()

	out := make([]map[string]any, 0)
	for _, rec := range recipes {
		if strings.Contains(strings.ToLower(rec.Name), query) ||
			strings.Contains(strings.ToLower(rec.Keywords), query) {
			out = append(out, stub(rec))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) find(id string) (Recipe, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.recipes {
		if rec.ID == id {
			return rec, true
		}
	}
	return Recipe{}, false
}

// param returns a decoded URL parameter. chi routes on the raw path when the
// request carried escapes such as %2F.
func param(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func stub(rec Recipe) map[string]any {
	m := map[string]any{
		"id":           rec.ID,
		"name":         rec.Name,
		"description":  rec.Description,
		"prepTime":     rec.PrepTime,
		"totalTime":    rec.TotalTime,
		"recipeYield":  rec.Yield,
		"keywords":     rec.Keywords,
		"dateModified": "2024-01-01T00:00:00+0000",
	}
	// The index endpoint reports numeric recipe_id values
	if n, err := strconv.Atoi(rec.ID); err == nil {
		m["recipe_id"] = n
	} else {
		m["recipe_id"] = rec.ID
	}
	return m
}

func solidPNG(seed string, side int) []byte {
	h := fnv.New32a()
	h.Write([]byte(seed))
	sum := h.Sum32()
	fill := color.RGBA{R: uint8(sum), G: uint8(sum >> 8), B: uint8(sum >> 16), A: 0xff}

	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.Set(x, y, fill)
		}
	}

	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
