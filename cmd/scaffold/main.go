package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/scaffold/internal/handler"
	appI18n "github.com/pavelanni/scaffold/internal/i18n"
	"github.com/pavelanni/scaffold/internal/llm"
	"github.com/pavelanni/scaffold/internal/model"
	"github.com/pavelanni/scaffold/internal/progress"
	"github.com/pavelanni/scaffold/internal/store"
	"github.com/pavelanni/scaffold/internal/study"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "scaffold",
		Short: "Fill-in-the-blank study sessions from your own notes",
	}

	serve := serveCmd()
	root.AddCommand(serve, studyCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `scaffold --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "scaffold.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP study server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llava", "Vision model used for OCR")
	f.StringP("lang", "l", "en", "Default UI and prompt language (en, ko)")
	f.String("subject", "", "Subject name passed to the OCR prompt and stored with quizzes")
	f.String("default-title", "Untitled notes", "Title used when the OCR result has none")
	f.Int("ocr-pages-limit", 0, "Monthly OCR page allowance (0 = unlimited)")
	f.Int64("max-upload-size", 10<<20, "Maximum image upload size in bytes")
	f.Bool("skip-llm-ping", false, "Do not check the LLM endpoint at startup")
	f.Duration("session-ttl", 2*time.Hour, "Drop study sessions idle this long (0 = keep until finished)")
	addCommonFlags(cmd)
	return cmd
}

func studyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "study <payload.json>",
		Short: "Run a study session in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runStudy,
	}
	f := cmd.Flags()
	f.StringP("lang", "l", "en", "UI language (en, ko)")
	f.String("subject", "", "Subject name stored with the quiz")
	f.String("step", "", "Step to start at, e.g. 2-1 (default 1-1)")
	f.Bool("no-save", false, "Do not save the finished session")
	addCommonFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export saved quizzes and progress as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addCommonFlags(cmd)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("SCAFFOLD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("scaffold")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/scaffold")
	v.AddConfigPath("/etc/scaffold")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.SetPagesLimit(context.Background(), v.GetInt("ocr-pages-limit")); err != nil {
		return fmt.Errorf("set ocr pages limit: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	llmClient, err := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
		lang,
	)
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}
	llmClient.SetSubject(v.GetString("subject"))
	if !v.GetBool("skip-llm-ping") {
		if err := llmClient.Ping(context.Background()); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	}

	cfg := model.StudyConfig{
		Lang:          lang,
		DefaultTitle:  v.GetString("default-title"),
		SubjectName:   v.GetString("subject"),
		OCRPagesLimit: v.GetInt("ocr-pages-limit"),
		MaxUploadSize: v.GetInt64("max-upload-size"),
	}

	sessions := study.NewRegistry(study.WithIdleTTL(v.GetDuration("session-ttl")))
	defer sessions.Close()

	h, err := handler.New(db, llmClient, sessions, progress.NewTracker(db), cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware())
	h.Routes(r)

	addr := v.GetString("addr")
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown", "error", err)
		}
	}()

	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
		"subject", cfg.SubjectName,
		"ocr_pages_limit", cfg.OCRPagesLimit,
		"session_ttl", v.GetDuration("session-ttl"),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runStudy(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	var p model.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parse payload %s: %w", args[0], err)
	}

	var opts []study.Option
	if label := v.GetString("step"); label != "" {
		step, err := study.ParseStep(label)
		if err != nil {
			return err
		}
		opts = append(opts, study.WithInitialStep(step))
	}
	s, err := study.NewSession(p, opts...)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(appI18n.Match(lang)))
	t := &terminal{in: os.Stdin, out: os.Stdout}

	if v.GetBool("no-save") {
		_, err := t.run(ctx, s, nil)
		return err
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	c, err := t.run(ctx, s, store.QuizSaver{Store: db, Subject: v.GetString("subject")})
	if err != nil {
		return err
	}
	if _, err := progress.NewTracker(db).AwardSession(ctx, c.CorrectCount); err != nil {
		slog.Warn("failed to award session xp", "error", err)
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("export quizzes: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}
