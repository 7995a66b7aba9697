package markdown

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"biotriage/domain/pair"
)

// RationaleWriter emits per-pair rationale documents for the rows a curator
// should look at: quarantined rows and anything below Green. Each document
// is written as Markdown and as rendered HTML.
type RationaleWriter struct {
	destination string
	renderHTML  bool
}

// NewRationaleWriter creates a writer targeting the destination directory
func NewRationaleWriter(destination string, renderHTML bool) *RationaleWriter {
	return &RationaleWriter{destination: destination, renderHTML: renderHTML}
}

// WriteFlagged writes rationale documents for flagged rows and returns the
// number of documents written.
func (w *RationaleWriter) WriteFlagged(results []pair.RowResult) (int, error) {
	if err := os.MkdirAll(w.destination, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create rationale directory: %w", err)
	}

	timestamp := time.Now().UTC().Format("20060102T150405Z")
	written := 0
	for _, res := range results {
		if !flagged(res) {
			continue
		}
		doc := w.renderDocument(res)
		name := fmt.Sprintf("%s_%s", timestamp, sanitizeName(res.Record.PairID))

		mdPath := filepath.Join(w.destination, name+".md")
		if err := os.WriteFile(mdPath, []byte(doc), 0o644); err != nil {
			return written, fmt.Errorf("failed to write rationale %s: %w", mdPath, err)
		}
		written++

		if w.renderHTML {
			htmlPath := filepath.Join(w.destination, name+".html")
			if err := os.WriteFile(htmlPath, renderHTML(doc), 0o644); err != nil {
				return written, fmt.Errorf("failed to write rationale %s: %w", htmlPath, err)
			}
		}
	}
	log.Printf("[RationaleWriter] Wrote %d flagged rationale documents to %s", written, w.destination)
	return written, nil
}

// flagged selects quarantined rows and scored rows below Green
func flagged(res pair.RowResult) bool {
	if res.Quarantined() {
		return true
	}
	return res.Scores != nil && res.Scores.Tier != pair.TierGreen
}

func (w *RationaleWriter) renderDocument(res pair.RowResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Gene Pair %s\n\n", res.Record.PairID)

	if res.Quarantined() {
		b.WriteString("**Status: quarantined**\n\n")
		for _, reason := range res.Outcome.Reasons {
			fmt.Fprintf(&b, "- `%s`\n", reason)
		}
		b.WriteString("\n")
	}

	if res.Rationale != nil {
		b.WriteString(res.Rationale.Narrative)
		b.WriteString("\n\n## Contributing factors\n\n")
		for _, f := range res.Rationale.Factors {
			state := "FAIL"
			if f.Passed {
				state = "PASS"
			}
			fmt.Fprintf(&b, "- **%s** [%s]: %s\n", f.Name, state, f.Detail)
		}
		meta := map[string]string{
			"tier":          string(res.Rationale.Tier),
			"fallback_mode": fmt.Sprintf("%t", res.Rationale.FallbackMode),
		}
		metaJSON, _ := json.MarshalIndent(meta, "", "  ")
		b.WriteString("\n---\n```json\n")
		b.Write(metaJSON)
		b.WriteString("\n```\n")
	}
	return b.String()
}

func renderHTML(doc string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(doc), p, renderer)
}

func sanitizeName(pairID string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	name := replacer.Replace(pairID)
	if name == "" {
		name = "unnamed"
	}
	return name
}
