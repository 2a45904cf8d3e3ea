package cli

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/seedbloom/internal/codec"
	"github.com/raphaelgruber/seedbloom/internal/parser"
	"github.com/raphaelgruber/seedbloom/internal/resonance"
)

var (
	storeFile  string
	storeAttrs []string
)

var storeCmd = persisting(&cobra.Command{
	Use:   "store [text]",
	Short: "Compress content into a new seed",
	Long: `Compress text, a file, or key=value attributes into a new seed.

Files may start with YAML frontmatter; its keys become seed attributes and
the rest of the file is the text. Use "-" to read from stdin.

Examples:
  seedbloom store "the orchard is in bloom"
  seedbloom store --file notes/apples.md
  seedbloom store --attr name=apple --attr color=red
  cat note.md | seedbloom store --file -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStore,
})

func init() {
	storeCmd.Flags().StringVarP(&storeFile, "file", "f", "", "read content from file (- for stdin)")
	storeCmd.Flags().StringArrayVarP(&storeAttrs, "attr", "a", nil, "attribute as key=value (repeatable)")
}

func runStore(cmd *cobra.Command, args []string) error {
	content, err := storeContent(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	id, err := mem.Store(content)
	if errors.Is(err, resonance.ErrEvictedOnInsert) {
		fmt.Fprintf(w, "Seed %s not kept: memory is full and every stored seed outweighs it\n",
			defaultTheme.idStyle().Render(id))
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	seed, err := mem.Get(id)
	if err != nil {
		return fmt.Errorf("read back seed: %w", err)
	}

	fmt.Fprintf(w, "Stored seed %s %s\n",
		defaultTheme.idStyle().Render(seed.ID),
		defaultTheme.tagStyle().Render(seed.Tag))
	if verbose {
		fmt.Fprintf(w, "  %d bytes -> %d bytes (ratio %.2f)\n",
			content.Size(), codec.EncodedSize(cfg.Memory.Dimensions),
			codec.CompressionRatio(content, cfg.Memory.Dimensions))
	}
	return nil
}

// storeContent builds the content to encode from the text argument or
// --file, plus any --attr pairs. Flag attributes override frontmatter.
func storeContent(stdin io.Reader, args []string) (codec.Content, error) {
	var content codec.Content

	switch {
	case storeFile != "" && len(args) > 0:
		return content, errors.New("give text or --file, not both")
	case storeFile != "":
		raw, err := readInput(stdin, storeFile)
		if err != nil {
			return content, err
		}
		doc, err := parser.ParseContent(raw)
		if err != nil {
			return content, fmt.Errorf("parse %s: %w", storeFile, err)
		}
		content.Text = doc.Body
		content.Attributes = doc.Attributes
	case len(args) > 0:
		content.Text = args[0]
	case len(storeAttrs) == 0:
		return content, errors.New("nothing to store: give text, --file or --attr")
	}

	attrs, err := parser.ParseAttributePairs(storeAttrs)
	if err != nil {
		return content, err
	}
	if len(attrs) > 0 {
		if content.Attributes == nil {
			content.Attributes = make(map[string]any, len(attrs))
		}
		maps.Copy(content.Attributes, attrs)
	}
	return content, nil
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}
