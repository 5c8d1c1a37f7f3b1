package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	api "github.com/darasahub/darasa/internal/api/http"
	"github.com/darasahub/darasa/internal/academics"
	"github.com/darasahub/darasa/internal/audit"
	auth "github.com/darasahub/darasa/internal/auth/middleware"
	"github.com/darasahub/darasa/internal/config"
	"github.com/darasahub/darasa/internal/db"
	rbac "github.com/darasahub/darasa/internal/rbac"
	"github.com/darasahub/darasa/internal/roster"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := roster.NewSQLStore(dbh, cfg.DBDriver)
	rec := audit.NewRecorder(dbh, cfg.SiteID)

	if err := seedDefaults(ctx, dbh, store, cfg); err != nil {
		log.Fatalf("seed: %v", err)
	}

	defaults := api.Defaults{System: cfg.GradingSystem, SubjectMax: cfg.SubjectMax}

	// --- Auth (local JWT for the school box) ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Local login (enabled in offline mode by default; can be enabled online via env)
	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.Mode == config.ModeOffline))

		// Marks entry (batch, CSV or JSON)
		pr.With(rbac.Require("marks:enter")).
			Post("/marks/bulk", api.BulkUpsertMarksHandler(store, rec))

		// Subjects and grading scales
		pr.With(rbac.Require("subjects:view")).
			Get("/subjects", api.ListSubjectsHandler(store))
		pr.With(rbac.Require("subjects:edit")).
			Post("/subjects", api.PutSubjectHandler(store, rec))
		pr.With(rbac.Require("scales:view")).
			Get("/scales", api.ListScalesHandler(store))
		pr.With(rbac.Require("scales:edit")).
			Put("/scales/{system}", api.PutScaleHandler(store, rec))

		// Results: per student, per class, summaries
		pr.With(rbac.RequireAny("results:view-student", "results:view-all")).
			Get("/results/students/{studentID}", api.StudentResultHandler(store, defaults))
		pr.With(rbac.Require("results:view-class")).
			Get("/results/classes/{grade}/{stream}", api.ClassResultsHandler(store, defaults))
		pr.With(rbac.Require("results:view-class")).
			Get("/results/classes/{grade}/{stream}/summary", api.ClassSummaryHandler(store, defaults))
		pr.With(rbac.Require("results:view-grade")).
			Get("/results/grades/{grade}/summary", api.GradeSummaryHandler(store, defaults))

		// Roster
		pr.With(rbac.Require("students:list")).
			Get("/students", api.ListStudentsHandler(store))
		pr.With(rbac.Require("students:edit")).
			Post("/students/bulk", api.BulkUpsertStudentsHandler(store, rec))

		// Staff accounts
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))

		// Audit trail
		pr.With(rbac.Require("audit:view")).
			Get("/audit/events", api.ListAuditEventsHandler(rec))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s, system=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, cfg.GradingSystem)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// seedDefaults makes a fresh box usable out of the canonical scales plus an
// admin account, without clobbering anything a school has already configured.
func seedDefaults(ctx context.Context, dbh *sql.DB, store roster.Store, cfg config.Config) error {
	existing, err := store.ListScales(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		if err := store.PutScale(ctx, academics.CBCScale()); err != nil {
			return err
		}
		if err := store.PutScale(ctx, academics.LetterScale()); err != nil {
			return err
		}
	}

	var n int
	if err := dbh.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash := cfg.AdminPassHash
	if hash == "" {
		// Dev convenience only; real deployments set ADMIN_PASS_HASH.
		b, err := bcrypt.GenerateFromPassword([]byte("admin"), 12)
		if err != nil {
			return err
		}
		hash = string(b)
		log.Printf("seeded default admin %q with password \"admin\" -- change it", cfg.AdminUser)
	}
	_, err = dbh.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, display_name, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		uuid.NewString(), cfg.AdminUser, hash, "admin", "Administrator", time.Now().Unix())
	return err
}
