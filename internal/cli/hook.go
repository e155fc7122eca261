package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/piicleaner/internal/cleaner"
	"github.com/dshills/piicleaner/internal/config"
)

// managedBlock is a marker-delimited region of a file that piicleaner owns.
// Everything outside the markers belongs to the user and is left alone.
type managedBlock struct {
	begin, end string
}

var preCommitBlock = managedBlock{
	begin: "# >>> piicleaner pre-commit hook >>>",
	end:   "# <<< piicleaner pre-commit hook <<<",
}

// locate returns the byte range of the block in content, including the
// newline after the end marker. ok is false when there is no block.
func (b managedBlock) locate(content string) (start, stop int, ok bool, err error) {
	start = strings.Index(content, b.begin)
	if start < 0 {
		if strings.Contains(content, b.end) {
			return 0, 0, false, errors.New("hook file has an end marker without a start marker")
		}
		return 0, 0, false, nil
	}
	n := strings.Index(content[start:], b.end)
	if n < 0 {
		return 0, 0, false, errors.New("hook file has a start marker without an end marker")
	}
	stop = start + n + len(b.end)
	if stop < len(content) && content[stop] == '\n' {
		stop++
	}
	return start, stop, true, nil
}

// upsert replaces the block in content with body, or appends it.
func (b managedBlock) upsert(content, body string) (string, error) {
	block := b.begin + "\n" + body + b.end + "\n"
	start, stop, ok, err := b.locate(content)
	if err != nil {
		return "", err
	}
	if !ok {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		return content + block, nil
	}
	return content[:start] + block + content[stop:], nil
}

// remove deletes the block. removed is false when there was none.
func (b managedBlock) remove(content string) (out string, removed bool, err error) {
	start, stop, ok, err := b.locate(content)
	if err != nil || !ok {
		return content, false, err
	}
	return content[:start] + content[stop:], true, nil
}

// body returns the lines between the markers.
func (b managedBlock) body(content string) (string, bool, error) {
	start, stop, ok, err := b.locate(content)
	if err != nil || !ok {
		return "", false, err
	}
	inner := content[start+len(b.begin) : stop]
	inner = strings.TrimSuffix(strings.TrimSuffix(inner, "\n"), b.end)
	return strings.TrimPrefix(inner, "\n"), true, nil
}

// hookSettings is the scan a pre-commit hook runs, resolved from the
// effective configuration at install time.
type hookSettings struct {
	Cleaners    cleaner.Selection
	IgnoreCase  bool
	Placeholder string
	FailOn      string
	Format      string
	MaxFindings int
	// Strict blocks the commit when the scan itself fails.
	Strict bool
}

func hookSettingsFrom(cfg config.Config, strict bool) (hookSettings, error) {
	sel, err := cfg.Selection()
	if err != nil {
		return hookSettings{}, err
	}
	return hookSettings{
		Cleaners:    sel,
		IgnoreCase:  cfg.IgnoreCase,
		Placeholder: cfg.Placeholder,
		FailOn:      cfg.FailOn,
		Format:      cfg.Format,
		MaxFindings: cfg.MaxFindings,
		Strict:      strict,
	}, nil
}

// args is the piicleaner command line the hook runs.
func (h hookSettings) args() []string {
	args := []string{"piicleaner", "scan", "staged", "--cleaners", h.Cleaners.String()}
	if h.IgnoreCase {
		args = append(args, "--ignore-case")
	}
	if h.Placeholder != "" {
		args = append(args, "--placeholder", h.Placeholder)
	}
	return append(args,
		"--fail-on", h.FailOn,
		"--format", h.Format,
		"--max-findings", strconv.Itoa(h.MaxFindings),
	)
}

// script renders the body of the managed block. Exit 1 means PII was found
// and always blocks the commit; any other failure blocks only when Strict.
func (h hookSettings) script() string {
	quoted := make([]string, 0, len(h.args()))
	for _, a := range h.args() {
		quoted = append(quoted, shellQuote(a))
	}

	var b strings.Builder
	b.WriteString(strings.Join(quoted, " ") + "\n")
	b.WriteString("piicleaner_status=$?\n")
	fmt.Fprintf(&b, "if [ \"$piicleaner_status\" -eq %d ]; then\n", ExitFindings)
	b.WriteString("  echo \"piicleaner: PII found in staged changes, commit blocked\" >&2\n")
	fmt.Fprintf(&b, "  exit %d\n", ExitFindings)
	b.WriteString("elif [ \"$piicleaner_status\" -ne 0 ]; then\n")
	if h.Strict {
		b.WriteString("  echo \"piicleaner: scan failed (exit $piicleaner_status), commit blocked\" >&2\n")
		b.WriteString("  exit \"$piicleaner_status\"\n")
	} else {
		b.WriteString("  echo \"piicleaner: scan failed (exit $piicleaner_status), commit allowed\" >&2\n")
	}
	b.WriteString("fi\n")
	return b.String()
}

// shellQuote single-quotes s unless it is made only of characters sh
// treats literally. Placeholders such as "[REDACTED]" would otherwise glob.
func shellQuote(s string) string {
	if s != "" && strings.Trim(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-,./:=") == "" {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

var (
	hookFailOn      string
	hookFormat      string
	hookMaxFindings int
	hookStrict      bool
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install a pre-commit hook that blocks commits adding PII",
	Long: "Install a pre-commit hook that scans staged changes. The cleaner selection, " +
		"ignore-case and placeholder settings in effect now are written into the hook.",
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := buildOverrides()
		overrides["failOn"] = hookFailOn
		if hookFormat != "" {
			overrides["format"] = hookFormat
		}
		if hookMaxFindings > 0 {
			overrides["maxFindings"] = strconv.Itoa(hookMaxFindings)
		}
		cfg, err := config.Load(overrides)
		if err != nil {
			return err
		}
		// reject unknown cleaner names now rather than on every commit
		if _, err := cfg.NewCleaner(); err != nil {
			return err
		}
		settings, err := hookSettingsFrom(cfg, hookStrict)
		if err != nil {
			return err
		}

		hookPath, err := preCommitPath()
		if err != nil {
			fail(cmd, "%v", err)
			return nil
		}
		existing, err := os.ReadFile(hookPath)
		if err != nil && !os.IsNotExist(err) {
			fail(cmd, "reading hook file: %v", err)
			return nil
		}
		content := string(existing)
		if strings.TrimSpace(content) == "" {
			content = "#!/bin/sh\n"
		}
		content, err = preCommitBlock.upsert(content, settings.script())
		if err != nil {
			fail(cmd, "%s: %v", hookPath, err)
			return nil
		}
		if err := writeHook(hookPath, content); err != nil {
			fail(cmd, "%v", err)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Installed pre-commit hook at %s\n", hookPath)
		fmt.Fprintf(cmd.OutOrStdout(), "  runs: %s\n", strings.Join(settings.args(), " "))
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the piicleaner pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := preCommitPath()
		if err != nil {
			fail(cmd, "%v", err)
			return nil
		}
		existing, err := os.ReadFile(hookPath)
		if os.IsNotExist(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "No pre-commit hook found.")
			return nil
		}
		if err != nil {
			fail(cmd, "reading hook file: %v", err)
			return nil
		}

		content, removed, err := preCommitBlock.remove(string(existing))
		if err != nil {
			fail(cmd, "%s: %v", hookPath, err)
			return nil
		}
		if !removed {
			fmt.Fprintf(cmd.OutOrStdout(), "No piicleaner section in %s\n", hookPath)
			return nil
		}

		if onlyShebang(content) {
			if err := os.Remove(hookPath); err != nil {
				fail(cmd, "removing hook file: %v", err)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed pre-commit hook at %s\n", hookPath)
			return nil
		}
		if err := writeHook(hookPath, content); err != nil {
			fail(cmd, "%v", err)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed piicleaner section from %s\n", hookPath)
		return nil
	},
}

var hookStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the scan the installed pre-commit hook runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := preCommitPath()
		if err != nil {
			fail(cmd, "%v", err)
			return nil
		}
		existing, err := os.ReadFile(hookPath)
		if err != nil && !os.IsNotExist(err) {
			fail(cmd, "reading hook file: %v", err)
			return nil
		}
		body, ok, err := preCommitBlock.body(string(existing))
		if err != nil {
			fail(cmd, "%s: %v", hookPath, err)
			return nil
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "piicleaner pre-commit hook not installed")
			return nil
		}
		line, _, _ := strings.Cut(body, "\n")
		fmt.Fprintf(cmd.OutOrStdout(), "Installed at %s\n  runs: %s\n", hookPath, line)
		return nil
	},
}

func preCommitPath() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--git-path", "hooks").Output()
	if err != nil {
		return "", errors.New("not a git repository (git rev-parse failed)")
	}
	return filepath.Join(strings.TrimSpace(string(out)), "pre-commit"), nil
}

func writeHook(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating hooks directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return fmt.Errorf("writing hook file: %w", err)
	}
	return nil
}

func onlyShebang(content string) bool {
	trimmed := strings.TrimSpace(content)
	return trimmed == "" || (strings.HasPrefix(trimmed, "#!") && !strings.Contains(trimmed, "\n"))
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookCmd.AddCommand(hookStatusCmd)
	hookInstallCmd.Flags().StringVar(&hookFailOn, "fail-on", "any", "Block the commit when PII is found (none, any)")
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "", "Output format (text, json, markdown, sarif)")
	hookInstallCmd.Flags().IntVar(&hookMaxFindings, "max-findings", 0, "Maximum number of findings listed")
	hookInstallCmd.Flags().BoolVar(&hookStrict, "strict", false, "Also block the commit when the scan fails")
}
