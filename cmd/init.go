package cmd

import "github.com/spf13/cobra"

var (
	configPath string

	site    string
	limit   string
	page    int
	random  bool
	retries int

	jsonOutput bool

	downloadDirectory string
	naming            string
	archive           string
)

func initRootFlags() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		"",
		"specifies the path to your config file",
	)
}

// initQueryFlags registers the flags search and download share.
func initQueryFlags() {
	for _, c := range []*cobra.Command{searchCmd, downloadCmd} {
		c.Flags().StringVarP(
			&site,
			"site",
			"s",
			"",
			"specifies the site to search, a domain or an alias",
		)
		c.Flags().StringVarP(
			&limit,
			"limit",
			"l",
			"1",
			"specifies how many posts to return",
		)
		c.Flags().IntVarP(
			&page,
			"page",
			"p",
			0,
			"specifies the page of results, starting at 0",
		)
		c.Flags().BoolVarP(
			&random,
			"random",
			"r",
			false,
			"return posts in random order",
		)
		c.Flags().IntVar(
			&retries,
			"retries",
			0,
			"specifies how often a failed request is retried",
		)

		_ = c.MarkFlagRequired("site")
	}
}

func initSearchFlags() {
	initQueryFlags()

	searchCmd.Flags().BoolVar(
		&jsonOutput,
		"json",
		false,
		"print the posts as json",
	)
}

func initDownloadFlags() {
	downloadCmd.Flags().StringVarP(
		&downloadDirectory,
		"downloadDirectory",
		"d",
		"",
		"specifies the directory where you want to save your downloads to, defaults to downloadLocation from the config",
	)
	downloadCmd.Flags().StringVarP(
		&naming,
		"naming",
		"n",
		"",
		"specifies the naming template, defaults to namingTemplate from the config",
	)
	downloadCmd.Flags().StringVarP(
		&archive,
		"archive",
		"a",
		"",
		"also pack the downloaded files into a zip archive with this name",
	)
}
