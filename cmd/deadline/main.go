package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/deadline-tracker/internal/app"
	"github.com/nhle/deadline-tracker/internal/backup"
	"github.com/nhle/deadline-tracker/internal/model"
	"github.com/nhle/deadline-tracker/internal/store"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the config file")
	restorePath := flag.String("restore", "", "restore the database from a backup snapshot before starting")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		log.Fatalf("create data directory: %v", err)
	}

	s, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer s.Close()

	if *restorePath != "" {
		if err := restoreSnapshot(*restorePath, s); err != nil {
			log.Fatalf("restore backup: %v", err)
		}
	}

	p := tea.NewProgram(app.New(s, cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("run: %v", err)
	}
}

func restoreSnapshot(path string, s store.Store) error {
	var key []byte
	if strings.HasSuffix(path, ".sealed") {
		var err error
		key, err = backup.ArchiveKey()
		if err != nil {
			return err
		}
	}
	snap, err := backup.Read(path, key)
	if err != nil {
		return err
	}
	return snap.Restore(context.Background(), s)
}
