package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"drivesearch/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var serverURL, token string
	var topK int
	flag.StringVar(&serverURL, "server", "http://localhost:5000", "Base URL of the drivesearch server")
	flag.StringVar(&token, "token", "", "Bearer token from login (defaults to DRIVESEARCH_TOKEN)")
	flag.IntVar(&topK, "top-k", 5, "Number of matches per query")
	flag.Parse()

	if token == "" {
		token = os.Getenv("DRIVESEARCH_TOKEN")
	}
	if token == "" {
		fmt.Println("A bearer token is required. Log in via the server's /auth/google flow,")
		fmt.Println("then pass it with --token or set DRIVESEARCH_TOKEN.")
		os.Exit(1)
	}

	client := tui.NewClient(serverURL, token)
	m := tui.New(client, topK)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
