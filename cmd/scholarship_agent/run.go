package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamie/scholarship-tailor/internal/config"
	"github.com/jamie/scholarship-tailor/internal/ingest"
	"github.com/jamie/scholarship-tailor/internal/llm"
	"github.com/jamie/scholarship-tailor/internal/logger"
	"github.com/jamie/scholarship-tailor/internal/session"
	"github.com/jamie/scholarship-tailor/internal/types"
)

var (
	runConfigPath      string
	runResumePath      string
	runScholarshipPath string
	runScholarshipURL  string
	runScholarshipName string
	runOrganization    string
	runContact         string
	runWordLimit       int
	runOutreach        bool
	runAPIKey          string
	runVerbose         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one tailoring session from the terminal",
	Long: `Runs the full pipeline against a single scholarship without the
server. If the pipeline decides an interview is worth it, the question is
printed and the answer read from stdin; press enter on an empty line to
skip it.`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "path to JSON config file")
	runCmd.Flags().StringVar(&runResumePath, "resume", "", "path to resume digest JSON (required)")
	runCmd.Flags().StringVar(&runScholarshipPath, "scholarship-file", "", "path to scholarship text")
	runCmd.Flags().StringVar(&runScholarshipURL, "scholarship-url", "", "URL of the scholarship page")
	runCmd.Flags().StringVar(&runScholarshipName, "name", "", "scholarship name")
	runCmd.Flags().StringVar(&runOrganization, "organization", "", "granting organization")
	runCmd.Flags().StringVar(&runContact, "contact", "", "contact name for outreach")
	runCmd.Flags().IntVar(&runWordLimit, "word-limit", 0, "essay word budget")
	runCmd.Flags().BoolVar(&runOutreach, "outreach", false, "also draft a clarifying email to the organization")
	runCmd.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API key")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "debug-level logging")

	runCmd.MarkFlagRequired("resume") //nolint:errcheck

	rootCmd.AddCommand(runCmd)
}

func loadRunConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := &config.Config{}
	if runConfigPath != "" {
		loaded, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	cfg.ApplyEnv()

	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("word-limit") {
		cfg.WordLimit = runWordLimit
	}
	cfg.Verbose = runVerbose

	merged := cfg.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

func loadDigest(path string) (*types.ResumeDigest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume digest: %w", err)
	}
	var digest types.ResumeDigest
	if err := json.Unmarshal(data, &digest); err != nil {
		return nil, fmt.Errorf("failed to parse resume digest: %w", err)
	}
	if err := digest.Validate(); err != nil {
		return nil, err
	}
	return &digest, nil
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logger.New(false, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	digest, err := loadDigest(runResumePath)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var text string
	switch {
	case runScholarshipPath != "":
		data, err := os.ReadFile(runScholarshipPath)
		if err != nil {
			return fmt.Errorf("failed to read scholarship file: %w", err)
		}
		text = string(data)
	case runScholarshipURL != "":
		fetched, err := ingest.FetchScholarship(ctx, runScholarshipURL, nil)
		if err != nil {
			return err
		}
		text = fetched
	default:
		return fmt.Errorf("either --scholarship-file or --scholarship-url is required")
	}

	client, err := llm.NewClient(ctx, nil, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create generation client: %w", err)
	}
	defer client.Close()

	opts := session.DefaultOptions()
	opts.WordLimit = cfg.WordLimit
	opts.MaxRetries = cfg.MaxRetries
	opts.StageTimeout = time.Duration(cfg.StageTimeout) * time.Second

	orch := session.NewOrchestrator(session.NewMemoryStore(), client, opts, log)

	created, err := orch.Create(ctx, session.CreateParams{
		ResumeSessionID: "cli",
		ScholarshipURL:  runScholarshipURL,
		ScholarshipText: text,
		ScholarshipName: runScholarshipName,
		Organization:    runOrganization,
		Contact:         runContact,
		WordLimit:       cfg.WordLimit,
		Digest:          digest,
	})
	if err != nil {
		return err
	}

	sess, err := orch.Advance(ctx, created.ID)
	if err != nil {
		return err
	}

	if sess.Stage == session.StageInterviewing && !sess.InterviewAnswered {
		fmt.Printf("\n%s\n> ", sess.InterviewQuestion)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		sess, err = orch.SubmitAnswer(ctx, sess.ID, strings.TrimSpace(answer))
		if err != nil {
			return err
		}
	}

	if sess.Status == session.StatusFailed {
		if sess.LastError != nil {
			return fmt.Errorf("session failed at %s: %s", sess.LastError.Stage, sess.LastError.Message)
		}
		return fmt.Errorf("session failed")
	}

	if runOutreach {
		sess, err = orch.RequestOutreach(ctx, sess.ID, nil)
		if err != nil {
			return err
		}
	}

	printResult(os.Stdout, sess)
	return nil
}

func printResult(w io.Writer, sess *session.Session) {
	if sess.GapReport != nil {
		fmt.Fprintf(w, "\nMatch score: %.2f\n", sess.GapReport.MatchScore())
		if sess.GapReport.TargetGap != nil {
			fmt.Fprintf(w, "Largest gap: %s\n", *sess.GapReport.TargetGap)
		}
	}

	if len(sess.OptimizedBullets) > 0 {
		fmt.Fprintln(w, "\nOptimized bullets:")
		for _, b := range sess.OptimizedBullets {
			fmt.Fprintf(w, "  - %s\n", b.Optimized)
		}
	}

	if sess.Status == session.StatusCompleted && sess.Essay != nil {
		fmt.Fprintf(w, "\nEssay (%d words):\n\n%s\n", sess.Essay.WordCount, sess.Essay.Text)
	}

	if sess.Outreach != nil {
		fmt.Fprintf(w, "\nOutreach email:\nSubject: %s\n\n%s\n", sess.Outreach.Subject, sess.Outreach.Body)
	}
}
