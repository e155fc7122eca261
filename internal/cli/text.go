package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/piicleaner/internal/cleaner"
	"github.com/dshills/piicleaner/internal/config"
	"github.com/dshills/piicleaner/internal/pii"
)

var (
	flagLines     bool
	flagDetectors bool
)

// labeledSpan is a span serialised with its detector name.
type labeledSpan struct {
	pii.Span
	Detector string `json:"detector"`
}

var detectCmd = &cobra.Command{
	Use:   "detect [text]",
	Short: "Print the PII spans found in text",
	Long: "Print the PII spans found in the argument text, or in stdin when no argument is " +
		"given, as a JSON array of {start, end, text} records with byte offsets. With " +
		"--lines each stdin line is scanned separately and one array is printed per line.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := loadCleaner()
		if err != nil {
			return err
		}
		texts, err := readInput(cmd, args)
		if err != nil {
			fail(cmd, "reading input: %v", err)
			return nil
		}
		results, err := c.DetectBatch(cmd.Context(), texts)
		if err != nil {
			fail(cmd, "%v", err)
			return nil
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		found := false
		for _, spans := range results {
			found = found || len(spans) > 0
			if err := enc.Encode(encodeSpans(spans)); err != nil {
				fail(cmd, "writing output: %v", err)
				return nil
			}
		}
		if found && cfg.FailOn == "any" {
			exitCode = ExitFindings
		}
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean [text]",
	Short: "Remove or mask the PII in text",
	Long: "Clean the argument text, or stdin when no argument is given. The redact strategy " +
		"deletes each span; replace substitutes the placeholder.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, c, err := loadCleaner()
		if err != nil {
			return err
		}
		strategy, err := cfg.StrategyValue()
		if err != nil {
			return err
		}
		texts, err := readInput(cmd, args)
		if err != nil {
			fail(cmd, "reading input: %v", err)
			return nil
		}
		cleaned, err := c.CleanBatch(cmd.Context(), texts, strategy)
		if err != nil {
			fail(cmd, "%v", err)
			return nil
		}
		out := cmd.OutOrStdout()
		for _, text := range cleaned {
			if _, err := fmt.Fprintln(out, text); err != nil {
				fail(cmd, "writing output: %v", err)
				return nil
			}
		}
		return nil
	},
}

var cleanersCmd = &cobra.Command{
	Use:   "cleaners",
	Short: "List the available cleaners",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range cleaner.AvailableCleaners() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func loadCleaner() (config.Config, *cleaner.Cleaner, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return config.Config{}, nil, err
	}
	c, err := cfg.NewCleaner()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, c, nil
}

// readInput returns the joined arguments, or stdin as one text or, with
// --lines, one text per line.
func readInput(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 {
		return []string{strings.Join(args, " ")}, nil
	}
	in := cmd.InOrStdin()
	if !flagLines {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, err
		}
		return []string{strings.TrimSuffix(string(data), "\n")}, nil
	}
	var texts []string
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 16<<20)
	for sc.Scan() {
		texts = append(texts, sc.Text())
	}
	return texts, sc.Err()
}

func encodeSpans(spans []pii.Span) any {
	if !flagDetectors {
		if spans == nil {
			return []pii.Span{}
		}
		return spans
	}
	out := make([]labeledSpan, len(spans))
	for i, s := range spans {
		out[i] = labeledSpan{Span: s, Detector: s.Detector}
	}
	return out
}

func init() {
	for _, cmd := range []*cobra.Command{detectCmd, cleanCmd} {
		cmd.Flags().BoolVar(&flagLines, "lines", false, "Treat each stdin line as a separate text")
	}
	detectCmd.Flags().BoolVar(&flagDetectors, "detectors", false, "Include the detector name in each record")
	detectCmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Exit 1 when PII is found (none, any)")
	addStrategyFlag(cleanCmd)
}
