package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spacesedan/pulseboard/config"
	"github.com/spacesedan/pulseboard/internal/clients"
	"github.com/spacesedan/pulseboard/internal/logging"
	"github.com/spacesedan/pulseboard/internal/models"
)

const (
	DATE_LAYOUT    = "2006-01-02 15:04:05"
	MAX_TEXT_RUNES = 1000
)

var csvHeader = []string{"title", "date", "upvotes", "url", "text"}

type Config struct {
	Subreddit string
	Limit     int
	OutPath   string
}

func (c Config) Validate() error {
	if c.Subreddit == "" {
		return fmt.Errorf("missing -subreddit")
	}
	if c.Limit <= 0 || c.Limit > clients.REDDIT_MAX_LIMIT {
		return fmt.Errorf("-limit must be between 1 and %d", clients.REDDIT_MAX_LIMIT)
	}
	if c.OutPath == "" {
		return fmt.Errorf("missing -out")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Subreddit: "tmobile",
		Limit:     100,
		OutPath:   "reddit_text.csv",
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.Subreddit, "subreddit", cfg.Subreddit, "Subreddit to read the newest posts from")
	fs.IntVar(&cfg.Limit, "limit", cfg.Limit, "Number of posts to fetch (max 100)")
	fs.StringVar(&cfg.OutPath, "out", cfg.OutPath, "CSV file to write")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nReads REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET from the environment.")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.OutPath = filepath.Clean(cfg.OutPath)
	return cfg, nil
}

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger(config.Load().LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reddit := clients.NewRedditClient(ctx, os.Getenv("REDDIT_CLIENT_ID"), os.Getenv("REDDIT_CLIENT_SECRET"))
	posts, err := reddit.FetchNewPosts(ctx, cfg.Subreddit, cfg.Limit)
	if err != nil {
		slog.Error("[Scraper] Failed to fetch posts", slog.String("error", err.Error()))
		os.Exit(1)
	}

	f, err := os.Create(cfg.OutPath)
	if err != nil {
		slog.Error("[Scraper] Failed to create output", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer f.Close()

	if err := writePosts(f, posts); err != nil {
		slog.Error("[Scraper] Failed to write posts", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("[Scraper] Saved posts",
		slog.Int("count", len(posts)),
		slog.String("file", cfg.OutPath))
}

// writePosts writes posts in the column layout the labeler mapping expects.
func writePosts(w io.Writer, posts []models.RedditPost) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range posts {
		if err := writer.Write([]string{
			p.Title,
			p.CreatedAt.UTC().Format(DATE_LAYOUT),
			strconv.Itoa(p.Upvotes),
			p.URL,
			truncate(p.Text, MAX_TEXT_RUNES),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
