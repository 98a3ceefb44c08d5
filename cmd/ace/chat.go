package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apeiro/ace/internal/extract"
)

var chatCmd = &cobra.Command{
	Use:   "chat <record.json>",
	Short: "Ask questions about an extracted metadata record",
	Long: `Chat opens an interactive question loop over one saved metadata record.
The record is sent as context with every question, so answers stay grounded
in the extracted data. End the session with an empty line or Ctrl-D.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().String("model", "", "model identifier (default "+defaultModel+")")
	chatCmd.Flags().String("api-key", "", "model API key (default: secrets file or ACE_GEMINI_API_KEY)")

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	meta, err := loadRecord(args[0])
	if err != nil {
		return err
	}
	recordJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	keyFlag, _ := cmd.Flags().GetString("api-key")
	key := apiKey(keyFlag)
	if key == "" {
		return fmt.Errorf("no model API key configured")
	}
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = defaultModel
	}

	backend := &extract.GeminiBackend{
		APIKey: key,
		Model:  model,
		Client: &http.Client{Timeout: defaultTimeout},
	}

	fmt.Printf("Chatting about %s. Empty line to quit.\n", meta.PaperID)
	var turns []extract.ChatTurn
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			break
		}

		answer, err := backend.Chat(cmd.Context(), extract.ChatRequest{
			History:  turns,
			Context:  string(recordJSON),
			Question: question,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "chat failed: %v\n", err)
			continue
		}
		fmt.Println(answer)
		turns = append(turns, extract.ChatTurn{Role: "user", Text: question})
		turns = append(turns, extract.ChatTurn{Role: "model", Text: answer})
	}
	return scanner.Err()
}
