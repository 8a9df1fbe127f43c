package genome

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// DirsEnv names the environment variable holding a colon-separated list of
// directories with installed genomes.
const DirsEnv = "GENOMES_DIR"

// DefaultDirs returns the directories searched for installed genomes: the
// entries of $GENOMES_DIR, or ~/.local/share/genomes when it is unset.
func DefaultDirs() []string {
	if v := os.Getenv(DirsEnv); v != "" {
		return SplitDirs(v)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".local", "share", "genomes")}
}

// SplitDirs splits a colon-separated directory list, dropping empty entries.
func SplitDirs(list string) []string {
	var dirs []string
	for _, d := range strings.Split(list, string(os.PathListSeparator)) {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Resolve maps a genome argument to a file that ReadSizes understands.  An
// existing file is returned as is.  Otherwise the argument is taken as the
// name of an installed genome and each dir is searched for
// <dir>/<name>/<name>.fa.sizes, <name>.fa.fai and <name>.fa, in that order.
//
// Resolution failure is not an error: the raw argument is returned with
// ok=false, and reading it later fails with a proper message if it is not a
// sizes file after all.
func Resolve(ctx context.Context, genome string, dirs []string) (path string, ok bool) {
	if exists(ctx, genome) {
		return genome, true
	}
	name := filepath.Base(genome)
	for _, dir := range dirs {
		for _, suffix := range []string{".fa.sizes", ".fa.fai", ".fa"} {
			candidate := filepath.Join(dir, name, name+suffix)
			if exists(ctx, candidate) {
				log.Debug.Printf("genome %s resolved to %s", genome, candidate)
				return candidate, true
			}
		}
	}
	log.Printf("genome %s not found in %v, using it as a sizes file path", genome, dirs)
	return genome, false
}

// Load resolves genome with Resolve and reads its chromosome sizes.
func Load(ctx context.Context, genome string, dirs []string) (*Sizes, error) {
	path, _ := Resolve(ctx, genome, dirs)
	return ReadSizes(ctx, path)
}

func exists(ctx context.Context, path string) bool {
	if path == "" {
		return false
	}
	if st, err := os.Stat(path); err == nil {
		return !st.IsDir()
	}
	_, err := file.Stat(ctx, path)
	return err == nil
}
