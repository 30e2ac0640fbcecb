package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"ai-character-chat/backend/internal/artifact"
	"ai-character-chat/backend/pkg/config"
	"ai-character-chat/backend/pkg/logger"
	"ai-character-chat/backend/shared/redis"
)

func main() {
	sweepPtr := flag.Bool("sweep", false, "Remove orphaned audio files from AUDIO_DIR")
	ttsPtr := flag.String("tts", "", "Synthesize text through a running server and download the audio")
	voicePtr := flag.String("voice", "", "Voice for -tts (server default when empty)")
	serverPtr := flag.String("server", "", "Server base URL for -tts (defaults to PUBLIC_BASE_URL)")
	outPtr := flag.String("out", "./audio_samples", "Directory for downloaded audio")
	helpPtr := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *helpPtr || (!*sweepPtr && *ttsPtr == "") {
		fmt.Println("Audio Tools Usage:")
		fmt.Println("  -sweep              Remove audio files with no live ledger record")
		fmt.Println("  -tts <text>         Call POST /api/tts and download the resulting audio")
		fmt.Println("  -voice <voice>      Voice used with -tts")
		fmt.Println("  -server <url>       Server base URL used with -tts")
		fmt.Println("  -out <dir>          Directory for downloaded audio")
		fmt.Println("  -help               Show this help message")
		os.Exit(0)
	}

	cfg := config.New()

	if *sweepPtr {
		if err := sweep(cfg); err != nil {
			fmt.Printf("Sweep failed: %v\n", err)
			os.Exit(1)
		}
	}

	if *ttsPtr != "" {
		server := *serverPtr
		if server == "" {
			server = cfg.Server.BaseURL
		}
		file, err := synthesize(server, *ttsPtr, *voicePtr, *outPtr)
		if err != nil {
			fmt.Printf("TTS failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Audio saved to %s\n", file)
	}
}

// sweep reconciles AUDIO_DIR against the configured ledger. Without Redis
// every file counts as an orphan, so it should not run next to a live server.
func sweep(cfg *config.Config) error {
	log := logger.New(logger.DefaultConfig())

	var ledger artifact.Ledger = artifact.NewMemoryLedger()
	if cfg.Redis.URL != "" {
		redisLedger, err := redis.NewRedisLedger(cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer redisLedger.Close()
		ledger = redisLedger
	}

	store, err := artifact.NewStore(artifact.Config{
		Dir:       cfg.Audio.Dir,
		URLPrefix: cfg.Server.BaseURL + "/public/audio",
		TTL:       cfg.Audio.TTL,
	}, ledger, log)
	if err != nil {
		return err
	}
	// Pending timers are dropped; the server owns live deletions
	defer store.Close(false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	live, removed, err := store.Sweep(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Sweep finished: %d live, %d removed\n", live, removed)
	return nil
}

func synthesize(server, text, voice, outDir string) (string, error) {
	payload, err := json.Marshal(map[string]string{"text": text, "voice": voice})
	if err != nil {
		return "", err
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Post(server+"/api/tts", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("error response: %s, status: %d", string(bodyBytes), resp.StatusCode)
	}

	var result struct {
		AudioURL string `json:"audioUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}

	audioResp, err := client.Get(result.AudioURL)
	if err != nil {
		return "", fmt.Errorf("error downloading audio: %w", err)
	}
	defer audioResp.Body.Close()

	if audioResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("audio download returned status %d", audioResp.StatusCode)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	file := filepath.Join(outDir, path.Base(result.AudioURL))
	out, err := os.Create(file)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, audioResp.Body); err != nil {
		return "", fmt.Errorf("error writing audio: %w", err)
	}
	return file, nil
}
