package testutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/bizrec/pkg/client"
)

// NewFakeServer serves f over HTTP with the recommendation service routes. The server is
// closed when the test ends.
func NewFakeServer(t *testing.T, f *FakeService) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Route("/businesses", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			out, err := f.List(req.Context())
			respond(w, out, err)
		})
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var draft client.BusinessDraft
			if err := json.NewDecoder(req.Body).Decode(&draft); err != nil {
				respond(w, nil, Unprocessable(err.Error()))
				return
			}
			out, err := f.Create(req.Context(), draft)
			respond(w, out, err)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, req *http.Request) {
				out, err := f.Get(req.Context(), chi.URLParam(req, "id"))
				respond(w, out, err)
			})
			r.Put("/", func(w http.ResponseWriter, req *http.Request) {
				var draft client.BusinessDraft
				if err := json.NewDecoder(req.Body).Decode(&draft); err != nil {
					respond(w, nil, Unprocessable(err.Error()))
					return
				}
				out, err := f.Update(req.Context(), chi.URLParam(req, "id"), draft)
				respond(w, out, err)
			})
			r.Delete("/", func(w http.ResponseWriter, req *http.Request) {
				err := f.Delete(req.Context(), chi.URLParam(req, "id"))
				respond(w, map[string]string{"status": "deleted"}, err)
			})
			r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
				out, err := f.Status(req.Context(), chi.URLParam(req, "id"))
				respond(w, out, err)
			})
			r.Delete("/data", func(w http.ResponseWriter, req *http.Request) {
				out, err := f.ClearData(req.Context(), chi.URLParam(req, "id"))
				respond(w, out, err)
			})
			r.Get("/items", func(w http.ResponseWriter, req *http.Request) {
				limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
				out, err := f.Items(req.Context(), chi.URLParam(req, "id"), limit)
				respond(w, out, err)
			})
			r.Post("/upload-data", func(w http.ResponseWriter, req *http.Request) {
				file, header, err := req.FormFile("file")
				if err != nil {
					respond(w, nil, Unprocessable("file is required"))
					return
				}
				defer file.Close()
				out, err := f.Upload(req.Context(), chi.URLParam(req, "id"), header.Filename, file)
				respond(w, out, err)
			})
			r.Post("/train", func(w http.ResponseWriter, req *http.Request) {
				var body client.TrainRequest
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
					respond(w, nil, Unprocessable(err.Error()))
					return
				}
				out, err := f.Train(req.Context(), chi.URLParam(req, "id"), body)
				respond(w, out, err)
			})
			r.Get("/recommend/{item}", func(w http.ResponseWriter, req *http.Request) {
				k, _ := strconv.Atoi(req.URL.Query().Get("k"))
				out, err := f.Recommend(req.Context(), chi.URLParam(req, "id"), chi.URLParam(req, "item"), k)
				respond(w, out, err)
			})
			r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
				k, _ := strconv.Atoi(req.URL.Query().Get("k"))
				out, err := f.Metrics().Get(req.Context(), chi.URLParam(req, "id"), k)
				respond(w, out, err)
			})
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// respond writes out as JSON, or err as a FastAPI style {"detail": ...} body
func respond(w http.ResponseWriter, out interface{}, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		status := http.StatusInternalServerError
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": messageOf(err)})
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}

func messageOf(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return err.Error()
}
