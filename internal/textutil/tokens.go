package textutil

import (
	"os"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenizerEnv selects the token estimator. "heuristic" skips loading the
// BPE ranks, which otherwise may be fetched over the network on first use.
const TokenizerEnv = "COGENGINE_TOKENIZER"

var (
	encoding     *tiktoken.Tiktoken
	encodingOnce sync.Once
)

func tokenizer() *tiktoken.Tiktoken {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})
	return encoding
}

// EstimateTokens approximates the number of model tokens in text using the
// cl100k_base encoding, falling back to one token per four characters when the
// encoding is unavailable.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	if strings.EqualFold(os.Getenv(TokenizerEnv), "heuristic") {
		return HeuristicTokens(text)
	}
	if enc := tokenizer(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return HeuristicTokens(text)
}

// HeuristicTokens estimates tokens as characters / 4.
func HeuristicTokens(text string) int {
	return len(text) / 4
}
