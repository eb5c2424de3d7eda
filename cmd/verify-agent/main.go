// verify-agent sends one sample customer message to the order-intake assistant
// and prints the suggestion it returns. Use it to check OPENAI_API_KEY and the
// configured model without signing in.
//
// Usage: go run ./cmd/verify-agent ["<order message>"]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"retail-erp/internal/ai"
	"retail-erp/internal/core"
	"retail-erp/internal/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var sampleLists = &core.ReferenceLists{
	Locations:  []core.RefItem{{ID: "1", Name: "Phnom Penh"}},
	Categories: []core.RefItem{{ID: "1", Name: "Shoes"}, {ID: "2", Name: "Bags"}},
	Colors:     []core.RefItem{{ID: "1", Name: "Red"}, {ID: "2", Name: "Black"}},
	Sizes:      []core.RefItem{{ID: "1", Name: "40"}, {ID: "2", Name: "42"}},
}

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.DefaultConfig())
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}
	agent := ai.NewAgent(apiKey, os.Getenv("OPENAI_MODEL"))

	text := "Sok Dara, 012 345 678, wants 2 pairs of red shoes size 42 at $15.50 and one black bag for $8."
	if len(os.Args) > 1 {
		text = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Printf("INTERPRETING: %s\n", text)
	suggestion, err := agent.SuggestDraft(ctx, text, sampleLists)
	if err != nil {
		log.Fatal("assistant failed", zap.Error(err))
	}

	if suggestion.IsClarificationRequest {
		fmt.Printf("\nClarification: %s\n", suggestion.Clarification)
		return
	}

	d := core.NewOrderDraft(sampleLists.DefaultCategory())
	d.Reset(core.NewOrderHeader(core.Today(time.Now()), sampleLists.DefaultLocation()), 0)
	notes := suggestion.Apply(d, sampleLists)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		log.Fatal("encode draft", zap.Error(err))
	}
	for _, n := range notes {
		fmt.Printf("note: %s\n", n)
	}
	fmt.Printf("Total: %s\n", core.To2(d.Total()))
}
