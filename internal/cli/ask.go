package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docqa/internal/domain/module"
)

var (
	askModule string
	askJSON   bool
)

type askOutput struct {
	Answer string  `json:"answer"`
	Page   int     `json:"page"`
	Seq    int     `json:"seq"`
	Score  float64 `json:"score"`
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from a module's documents",
	Long: `Embeds the module's chunks and the question, picks the closest chunk
and asks the generation model to answer from it.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askModule, "module", "m", module.Default, "module to query")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	ans, err := svc.Answer.Answer(context.Background(), askModule, args[0])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(askOutput{
			Answer: ans.Text,
			Page:   ans.Source.Page(),
			Seq:    ans.Source.Seq(),
			Score:  ans.Score,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(ans.Text)
	cmd.Printf("\n(source: page %d, chunk %d, score %.3f)\n", ans.Source.Page()+1, ans.Source.Seq(), ans.Score)
	return nil
}
