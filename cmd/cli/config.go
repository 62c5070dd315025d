package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/yourusername/manga-dl-go/internal/app"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		config := loadConfigOnly()
		keys, values := app.ConfigKeys(config)

		t := newTable()
		t.AppendHeader(table.Row{"Key", "Value"})
		for _, key := range keys {
			t.AppendRow(table.Row{key, maskSecret(key, values[key])})
		}
		t.Render()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set one key and save the config file",
	Long: `Set one key and save the config file, e.g.

  manga-dl config set api.cookie <SESSDATA>
  manga-dl config set download.dir ~/manga`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		config := loadConfigOnly()
		if err := app.SetConfigValue(config, args[0], args[1]); err != nil {
			fail(err)
		}

		path := configFile
		if path == "" {
			path = app.DefaultConfigPath
		}
		if err := app.SaveConfig(config, path); err != nil {
			fail(err)
		}
		fmt.Printf("Saved %s to %s\n", strings.ToLower(args[0]), path)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// maskSecret hides credentials in config output
func maskSecret(key string, value interface{}) interface{} {
	s, ok := value.(string)
	if !ok || s == "" {
		return value
	}
	switch key {
	case "api.cookie", "storage.s3.secret_key", "storage.s3.access_key":
		if len(s) <= 4 {
			return "****"
		}
		return s[:4] + strings.Repeat("*", 8)
	}
	return s
}
