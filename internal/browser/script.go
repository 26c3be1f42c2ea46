package browser

import (
	_ "embed"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/nao1215/quizsolve/internal/config"
	"github.com/nao1215/quizsolve/internal/page"
)

//go:embed replay.js
var replayJS string

type scriptSelectors struct {
	Block   string `json:"block"`
	Heading string `json:"heading"`
	Row     string `json:"row"`
	Control string `json:"control"`
}

// Script returns a JavaScript expression that performs muts on the live
// page and evaluates to the number of mutations applied.
func Script(muts []page.Mutation, sel config.Selectors) (string, error) {
	if muts == nil {
		muts = []page.Mutation{}
	}
	selJSON, err := json.Marshal(scriptSelectors{
		Block:   sel.Block,
		Heading: sel.Heading,
		Row:     sel.Row,
		Control: sel.Control,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode selectors: %w", err)
	}
	mutJSON, err := json.Marshal(muts)
	if err != nil {
		return "", fmt.Errorf("failed to encode mutations: %w", err)
	}
	return fmt.Sprintf("%s(%s, %s)", replayJS, selJSON, mutJSON), nil
}
