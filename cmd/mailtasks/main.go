package main

import (
	"os"
	"strings"

	"mailtasks-cli/internal/cli"
)

func isTaskID(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func rewriteDirectTaskLookupArgs(argv []string) []string {
	// Convenience: `mailtasks <task-id>` works like `mailtasks tasks show <task-id>`.
	//
	// Cobra treats the first non-flag token as a subcommand, so argv is rewritten
	// before parsing. Persistent flags may come first (`mailtasks --pretty 42`),
	// so this looks for the first positional token, not argv[1].
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without consuming a value so the id is never
	// mistaken for one.
	valueFlags := map[string]bool{
		"--api-url": true,
		"--format":  true,
		"--locale":  true,
	}
	boolFlags := map[string]bool{
		"--pretty":  true,
		"--verbose": true,
		"-v":        true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isTaskID(argv[i+1]) {
				out := make([]string, 0, len(argv)+2)
				out = append(out, argv[:i]...)
				out = append(out, "tasks", "show", "--")
				out = append(out, argv[i+1:]...)
				return out
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") {
				continue
			}
			if boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
				continue
			}
			continue
		}

		if isTaskID(a) {
			out := make([]string, 0, len(argv)+2)
			out = append(out, argv[:i]...)
			out = append(out, "tasks", "show")
			out = append(out, argv[i:]...)
			return out
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteDirectTaskLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
