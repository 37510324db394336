package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/maktabalabs/maktaba/internal/linkcheck"
	"github.com/maktabalabs/maktaba/internal/model"
	"github.com/maktabalabs/maktaba/internal/worker"
	"github.com/spf13/cobra"
)

var (
	verifyFile        string
	verifySuffix      string
	verifyAssumeLive  bool
	verifyConcurrency int
	verifyJSON        bool
	verifyAll         bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [url...]",
	Short: "Probe URLs for liveness",
	Long: `Verify cleans, validates, and probes the given URLs, printing one
outcome per URL. URLs outside the allowed domain suffix are skipped
unless --all is set.

URLs come from arguments or from --file (one per line, # comments
allowed).

Example:
  maktaba verify https://wam.ae/article https://mohap.gov.ae/page
  maktaba verify --file urls.txt --suffix .ae --json`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyFile, "file", "", "file with one URL per line")
	verifyCmd.Flags().StringVar(&verifySuffix, "suffix", ".ae", "allowed domain suffix")
	verifyCmd.Flags().BoolVar(&verifyAssumeLive, "assume-live", true, "treat allowed-suffix URLs as live when probes fail on network errors")
	verifyCmd.Flags().IntVar(&verifyConcurrency, "concurrency", 3, "concurrent probes")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print results as JSON")
	verifyCmd.Flags().BoolVar(&verifyAll, "all", false, "probe every valid URL, ignoring the domain filter")
}

func runVerify(cmd *cobra.Command, args []string) error {
	urls, err := collectURLs(args, verifyFile)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given: pass them as arguments or via --file")
	}

	cfg := model.DefaultConfig()
	cfg.Verify.AllowedSuffix = verifySuffix
	cfg.Verify.AssumeLiveOnFailure = verifyAssumeLive
	cfg.Verify.Concurrency = verifyConcurrency

	candidates := make([]string, 0, len(urls))
	for _, raw := range urls {
		cleaned := linkcheck.Clean(raw)
		if !linkcheck.IsValid(cleaned) {
			fmt.Fprintf(os.Stderr, "skipping invalid URL: %s\n", raw)
			continue
		}
		if !verifyAll && !linkcheck.IsAllowedDomain(cleaned, cfg.Verify.AllowedSuffix) {
			if verbose {
				fmt.Fprintf(os.Stderr, "skipping off-suffix URL: %s\n", cleaned)
			}
			continue
		}
		candidates = append(candidates, cleaned)
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no URLs left after cleaning and filtering")
	}

	prober := linkcheck.NewProber(cfg.Verify, cfg.HTTP)
	batch := worker.NewBatchProber(prober, cfg.Verify.Concurrency)

	results := batch.ProbeURLs(context.Background(), candidates)

	if verifyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	dead := 0
	for _, r := range results {
		switch r.Outcome {
		case linkcheck.OutcomeLive:
			fmt.Printf("live          %d  %s\n", r.StatusCode, r.URL)
		case linkcheck.OutcomeAssumedLive:
			fmt.Printf("assumed-live     %s\n", r.URL)
		default:
			dead++
			if r.Error != "" {
				fmt.Printf("dead             %s (%s)\n", r.URL, r.Error)
			} else {
				fmt.Printf("dead          %d  %s\n", r.StatusCode, r.URL)
			}
		}
	}

	if dead > 0 {
		return fmt.Errorf("%d of %d URLs dead", dead, len(results))
	}
	return nil
}

// collectURLs merges argument URLs with file URLs, preserving order
func collectURLs(args []string, path string) ([]string, error) {
	urls := append([]string{}, args...)

	if path == "" {
		return urls, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open URL file: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read URL file: %w", err)
	}

	return urls, nil
}
