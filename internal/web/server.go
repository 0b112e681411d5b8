package web

import (
	"context"
	"encoding/hex"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/yuzeguitarist/qrgen/internal/barcode"
	"github.com/yuzeguitarist/qrgen/internal/config"
	"github.com/yuzeguitarist/qrgen/internal/generator"
	"github.com/yuzeguitarist/qrgen/internal/logger"
)

const (
	prefsSession = "qrgen"

	// maxFormBytes bounds a form post. The code field itself is capped at
	// barcode.MaxContentLen by the encoder.
	maxFormBytes = 64 << 10
)

type Server struct {
	Gen   *generator.Generator
	Store *sessions.CookieStore

	cfg *config.Config
}

// NewServer expects cfg.EnsureKeys to have been called.
func NewServer(cfg *config.Config, gen *generator.Generator) (*Server, error) {
	key, err := hex.DecodeString(cfg.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("session key: %w", err)
	}
	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600 * 24 * 30,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	return &Server{Gen: gen, Store: cs, cfg: cfg}, nil
}

// Router builds the handler tree. Background work started for it, such as
// rate limiter cleanup, stops when ctx is done.
func (s *Server) Router(ctx context.Context) (http.Handler, error) {
	csrfKey, err := hex.DecodeString(s.cfg.CSRFKey)
	if err != nil {
		return nil, fmt.Errorf("csrf key: %w", err)
	}

	r := mux.NewRouter()
	r.Use(requestLogger)
	r.HandleFunc("/healthz", s.healthz).Methods("GET")

	guarded := r.NewRoute().Subrouter()
	if s.cfg.RateLimit.RPS > 0 {
		guarded.Use(RateLimit(ctx, s.cfg.RateLimit.RPS, s.cfg.RateLimit.Burst))
	}
	if s.cfg.Auth.Enabled() {
		guarded.Use(s.requireLogin)
	}
	// JSON clients carry no CSRF cookie.
	guarded.HandleFunc("/api/generate", s.apiGenerate).Methods("POST")

	page := guarded.NewRoute().Subrouter()
	page.Use(
		limitBody(maxFormBytes),
		plaintextHTTP(s.cfg.SecureCookies),
		csrf.Protect(csrfKey, csrf.Secure(s.cfg.SecureCookies), csrf.Path("/")),
	)
	page.HandleFunc("/", s.index).Methods("GET")
	page.HandleFunc("/", s.submit).Methods("POST")
	return r, nil
}

type symbologyOption struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	Code        string
	Kind        string
	Symbology   string
	Symbologies []symbologyOption
	Error       string
	PNG         template.URL
	CSRFField   template.HTML
	Year        int
}

// submission is the parsed form. Unknown values are normalised.
type submission struct {
	Code       string
	Kind       generator.Kind
	Symbology  barcode.Symbology
	Download   bool
	Format     generator.Format
	Resolution generator.Resolution
}

func parseSubmission(r *http.Request) submission {
	sym := barcode.Symbology(strings.TrimSpace(r.PostFormValue("barcode_type")))
	if sym == "" {
		sym = barcode.Code128
	}
	_, download := r.PostForm["download"]
	return submission{
		Code:       r.PostFormValue("code"),
		Kind:       generator.ParseKind(r.PostFormValue("type")),
		Symbology:  sym,
		Download:   download,
		Format:     generator.ParseFormat(r.PostFormValue("format")),
		Resolution: generator.ParseResolution(r.PostFormValue("resolution")),
	}
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	sub := submission{Kind: generator.KindQR, Symbology: barcode.Code128}
	sess, _ := s.Store.Get(r, prefsSession)
	if v, ok := sess.Values["type"].(string); ok {
		sub.Kind = generator.ParseKind(v)
	}
	if v, ok := sess.Values["barcode_type"].(string); ok && v != "" {
		sub.Symbology = barcode.Symbology(v)
	}
	s.render(w, r, sub, generator.Result{})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	sub := parseSubmission(r)
	res := s.Gen.Generate(generator.Request{Text: sub.Code, Kind: sub.Kind, Symbology: sub.Symbology})
	if res.Err != "" {
		logger.Log.Info("generation failed",
			zap.String("kind", string(sub.Kind)),
			zap.String("symbology", string(sub.Symbology)),
			zap.String("error", res.Err),
		)
	}
	s.savePrefs(w, r, sub)

	if sub.Download && res.OK() {
		s.download(w, r, sub, res)
		return
	}
	s.render(w, r, sub, res)
}

func (s *Server) download(w http.ResponseWriter, r *http.Request, sub submission, res generator.Result) {
	if scale := sub.Resolution.Scale(); scale > 1 {
		res = s.Gen.Generate(generator.Request{Text: sub.Code, Kind: sub.Kind, Symbology: sub.Symbology, Scale: scale})
	}
	d, err := generator.PrepareDownload(generator.DownloadRequest{
		Format:     sub.Format,
		Resolution: sub.Resolution,
		Kind:       sub.Kind,
		Source:     res,
	})
	if err != nil {
		logger.Log.Error("prepare download", zap.Error(err))
		s.render(w, r, sub, generator.Result{Err: err.Error()})
		return
	}
	h := w.Header()
	h.Set("Content-Type", d.ContentType)
	h.Set("Content-Transfer-Encoding", "Binary")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Filename))
	h.Set("ETag", fmt.Sprintf(`"%016x"`, xxhash.Sum64(d.Body)))
	_, _ = w.Write(d.Body)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, sub submission, res generator.Result) {
	data := pageData{
		Code:      sub.Code,
		Kind:      string(sub.Kind),
		Symbology: string(sub.Symbology),
		Error:     res.Err,
		CSRFField: csrf.TemplateField(r),
		Year:      time.Now().Year(),
	}
	// An empty QR submission renders a blank form, not the encoder's refusal.
	if sub.Kind == generator.KindQR && sub.Code == "" {
		data.Error = ""
	}
	for _, sym := range barcode.Symbologies {
		data.Symbologies = append(data.Symbologies, symbologyOption{
			Value:    string(sym),
			Label:    sym.Label(),
			Selected: sym == sub.Symbology,
		})
	}
	if sub.Code != "" && res.OK() {
		data.PNG = template.URL(res.PNGDataURI)
	}
	w.Header().Set("content-type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		logger.Log.Error("render page", zap.Error(err))
	}
}

func (s *Server) savePrefs(w http.ResponseWriter, r *http.Request, sub submission) {
	sess, _ := s.Store.Get(r, prefsSession)
	sess.Values["type"] = string(sub.Kind)
	sess.Values["barcode_type"] = string(sub.Symbology)
	if err := sess.Save(r, w); err != nil {
		logger.Log.Warn("save preferences", zap.Error(err))
	}
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("content-type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func clientIP(r *http.Request) string {
	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	if host == "" {
		return r.RemoteAddr
	}
	return host
}
