package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"foldervault/internal/config"
	"foldervault/internal/database"
	"foldervault/internal/domain/access"
	"foldervault/internal/domain/catalog"
	"foldervault/internal/domain/user"
	"foldervault/internal/pkg/logger"
	"foldervault/internal/server"
	"foldervault/internal/storage"
)

type sampleFolder struct {
	name       string
	sharedWith string // email
	permission access.Capability
	files      map[string]string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	if err := server.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("storage init failed")
	}
	srv := server.New(cfg, db, blobs)

	// ================== USERS ==================
	people := []user.CreateInput{
		{Name: "Administrator", Email: "admin@foldervault.local", Role: string(access.RoleAdmin)},
		{Name: "Client One", Email: "c1@foldervault.local", Role: string(access.RoleClient)},
		{Name: "Client Two", Email: "c2@foldervault.local", Role: string(access.RoleClient)},
	}
	users := make(map[string]*user.User, len(people))
	for _, in := range people {
		u, err := srv.Users.EnsureUser(ctx, in)
		if err != nil {
			log.Fatal().Err(err).Str("email", in.Email).Msg("ensure user failed")
		}
		users[in.Email] = u
	}
	admin := users[people[0].Email]
	caller := access.Caller{UserID: admin.ID, Role: access.RoleAdmin}

	// ================== FOLDERS ==================
	samples := []sampleFolder{
		{
			name:       "Reports",
			sharedWith: "c1@foldervault.local",
			permission: access.Consult,
			files: map[string]string{
				"q1.txt": "Q1 revenue summary\n",
				"q2.txt": "Q2 revenue summary\n",
			},
		},
		{
			name:       "Invoices 2024",
			sharedWith: "c2@foldervault.local",
			permission: access.Download,
			files: map[string]string{
				"invoice-001.txt": "Invoice 001\n",
			},
		},
	}

	existing, err := srv.Catalog.ListFolders(ctx, caller)
	if err != nil {
		log.Fatal().Err(err).Msg("list folders failed")
	}
	names := make(map[string]bool, len(existing))
	for _, f := range existing {
		names[f.Name] = true
	}

	for _, s := range samples {
		if names[s.name] {
			log.Info().Str("folder", s.name).Msg("folder exists, skipping")
			continue
		}
		folder, err := srv.Catalog.CreateFolder(ctx, caller, catalog.CreateFolderInput{
			Name:       s.name,
			SharedWith: users[s.sharedWith].ID,
			Permission: string(s.permission),
		})
		if err != nil {
			log.Fatal().Err(err).Str("folder", s.name).Msg("create folder failed")
		}

		payloads := make([]catalog.Payload, 0, len(s.files))
		for name, body := range s.files {
			body := body
			payloads = append(payloads, catalog.Payload{
				Name:        name,
				ContentType: "text/plain; charset=utf-8",
				Size:        int64(len(body)),
				Open: func() (io.ReadCloser, error) {
					return io.NopCloser(strings.NewReader(body)), nil
				},
			})
		}
		results, err := srv.Catalog.UploadFiles(ctx, caller, folder.ID, payloads)
		if err != nil {
			log.Fatal().Err(err).Str("folder", s.name).Msg("upload failed")
		}
		for _, r := range results {
			if r.Err != nil {
				log.Warn().Err(r.Err).Str("file", r.Name).Msg("sample file rejected")
			}
		}
		log.Info().Str("folder", s.name).Str("id", folder.ID).Msg("folder created")
	}

	// ================== TOKENS ==================
	fmt.Println("Bearer tokens:")
	for _, in := range people {
		u := users[in.Email]
		token, err := srv.JWT.GenerateToken(u.ID, string(u.Role))
		if err != nil {
			log.Fatal().Err(err).Msg("token generation failed")
		}
		fmt.Printf("  %-8s %-26s %s\n", u.Role, u.Email, token)
	}
}
