package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/sdrao/facemark/internal/app"
	"github.com/sdrao/facemark/internal/config"
	"github.com/sdrao/facemark/internal/embed"
	"github.com/sdrao/facemark/internal/server"
	"github.com/sdrao/facemark/internal/store"
	"github.com/sdrao/facemark/internal/tray"
)

func main() {
	fmt.Println("Facemark - Camera Attendance")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	var embedder embed.Embedder
	if cfg.EmbedScript != "" {
		embedConfig := embed.DefaultConfig()
		embedConfig.ScriptPath = cfg.EmbedScript
		embedder, err = embed.NewDlibEmbedder(embedConfig)
		if err != nil {
			log.Fatalf("Failed to start embedding service: %v", err)
		}
	}

	a, err := app.New(app.Config{
		Store:       st,
		Embedder:    embedder,
		Recognition: cfg.Recognition(),
		CameraID:    cfg.CameraID,
		FPS:         cfg.FPS,
		PhotoDir:    cfg.PhotoDir(),
		QRDir:       cfg.QRDir(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	defer a.Stop()

	// Find web directory
	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       a,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Addr)
		if err := srv.ListenAndServe(cfg.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnDashboard(func() { openBrowser(dashboardURL(cfg.Addr)) })
	t.OnQuit(a.Stop)

	// Mirror marks into the tray menu.
	events, cancel := a.Subscribe()
	defer cancel()
	go func() {
		for ev := range events {
			if ev.Type == app.EventMark && ev.Error == "" {
				t.SetLastMarked(ev.RegNo + " | " + ev.Name)
			}
		}
	}()

	// Blocks until Quit is clicked.
	t.Run()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.facemark/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".facemark", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}

func dashboardURL(addr string) string {
	if addr != "" && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
