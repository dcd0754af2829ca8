/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/jjudge-oj/grader/config"
	"github.com/jjudge-oj/grader/internal/db"
	"github.com/jjudge-oj/grader/internal/services"
	"github.com/jjudge-oj/grader/internal/store"
	"github.com/spf13/cobra"
)

// leaderboardCmd prints contest standings straight from the database.
var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard <contestID>",
	Short: "Print the standings of a contest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contestID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || contestID < 1 {
			return fmt.Errorf("invalid contest id %q", args[0])
		}

		cfg := config.LoadConfig()
		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		svc := services.NewLeaderboardService(
			store.NewContestRepository(dbConn),
			store.NewSubmissionRepository(dbConn),
			store.NewUserRepository(dbConn),
			nil,
			nil,
		)
		entries, err := svc.Build(cmd.Context(), contestID)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tUSER\tSCORE\tSOLVED\tTIME(ms)\tLAST SUBMISSION")
		for _, e := range entries {
			name := e.Username
			if name == "" {
				name = "#" + strconv.Itoa(e.UserID)
			}
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n", e.Rank, name, e.TotalScore, e.ProblemsSolved, e.TotalTime, e.LastSubmission.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(leaderboardCmd)
}
