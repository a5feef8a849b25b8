package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func lobbyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lobby",
		Short: "List exams available to you",
		RunE:  runLobby,
	}
}

func runLobby(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.requireSession(); err != nil {
		return err
	}

	exams, err := a.client.GetLobby(cmd.Context())
	if err != nil {
		return err
	}
	if len(exams) == 0 {
		fmt.Println("No exams available right now.")
		return nil
	}

	for _, e := range exams {
		line := fmt.Sprintf("%-36s  %-12s  %3d min  %s", e.ID, e.LobbyStatus, e.DurationMinutes, e.Title)
		if e.FinalScore != nil {
			line += fmt.Sprintf("  (score %.1f)", *e.FinalScore)
		}
		fmt.Println(line)
	}
	return nil
}
