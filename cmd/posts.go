package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/instaloom-cli/internal/analysis"
	"github.com/KaramelBytes/instaloom-cli/internal/store"
	"github.com/KaramelBytes/instaloom-cli/internal/utils"
)

var (
	postsLimit int
	postsJSON  bool
	clearYes   bool
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Inspect or clear the stored posts",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored posts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		opt, err := c.ParseOptions()
		if err != nil {
			return err
		}
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		posts, err := st.ListPosts(cmd.Context(), store.ListOptions{Locale: opt.Locale, Location: opt.Location, Limit: postsLimit})
		if err != nil {
			return err
		}
		if postsJSON {
			return printJSON(posts)
		}
		if len(posts) == 0 {
			fmt.Println("(no posts)")
			return nil
		}
		for _, p := range posts {
			fmt.Printf("- %s  %s  %-14s views=%d reach=%d likes=%d eng=%.2f%%\n",
				p.PublishedAt.Format("2006-01-02 15:04"), p.ID, analysis.DisplayType(p.PostType),
				p.Views, p.Reach, p.Likes, p.EngagementRate)
		}
		return nil
	},
}

var postsShowCmd = &cobra.Command{
	Use:   "show <post-id>",
	Short: "Show one stored post with its derived metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		opt, err := c.ParseOptions()
		if err != nil {
			return err
		}
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		p, err := st.GetPost(cmd.Context(), args[0], store.ListOptions{Locale: opt.Locale, Location: opt.Location})
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("post %s not found", args[0])
		}
		if err != nil {
			return err
		}
		return printJSON(p)
	},
}

var postsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored post (import history is kept)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return fmt.Errorf("refusing to clear without --yes")
		}
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		n, err := st.Clear(cmd.Context())
		if err != nil {
			return err
		}
		log.Info("cleared posts", "count", n, "db", st.Path())
		fmt.Printf("✓ Removed %d posts\n", n)
		return nil
	},
}

var postsImportsCmd = &cobra.Command{
	Use:   "imports",
	Short: "Show the import history",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		recs, err := st.ListImports(cmd.Context(), postsLimit)
		if err != nil {
			return err
		}
		if postsJSON {
			return printJSON(recs)
		}
		if len(recs) == 0 {
			fmt.Println("(no imports)")
			return nil
		}
		for _, r := range recs {
			fmt.Printf("- %s  %s  %s  rows=%d parsed=%d dropped=%d stored=%d  %s\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.BatchID, r.Strategy,
				r.RowsRead, r.Parsed, r.Dropped, r.Stored, r.Source)
		}
		return nil
	},
}

func printJSON(v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(b, '\n'))
	return err
}

func init() {
	rootCmd.AddCommand(postsCmd)
	postsCmd.AddCommand(postsListCmd)
	postsCmd.AddCommand(postsShowCmd)
	postsCmd.AddCommand(postsClearCmd)
	postsCmd.AddCommand(postsImportsCmd)

	postsCmd.PersistentFlags().IntVar(&postsLimit, "limit", 0, "maximum entries to show (0 = all)")
	postsCmd.PersistentFlags().BoolVar(&postsJSON, "json", false, "print as JSON")
	postsClearCmd.Flags().BoolVar(&clearYes, "yes", false, "confirm deletion")
}
