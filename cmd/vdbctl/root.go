package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const Version = "0.1.0"

var RootCmd = &cobra.Command{
	Use:   "vdbctl",
	Short: "versioned document store command line client",
	Long: fmt.Sprintf(`vdbctl (v%s)

A command line client for a document-oriented storage façade with a
revision-tree document model atop a pluggable ordered key-value engine.`, Version),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of vdbctl",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vdbctl v%s\n", Version)
	},
}

// Wrap is the number of characters help text is wrapped at.
const Wrap = 60

func wrapString(text string) string {
	var lines []string
	var line strings.Builder
	width := 0
	for _, word := range strings.Fields(text) {
		if width > 0 && width+1+len(word) > Wrap {
			lines = append(lines, line.String())
			line.Reset()
			width = 0
		}
		if width > 0 {
			line.WriteString(" ")
			width++
		}
		line.WriteString(word)
		width += len(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().String("path", "vdb.data", wrapString("path to the database directory or file"))
	RootCmd.PersistentFlags().String("engine", "pebble", wrapString("storage engine to use (pebble, memory)"))
	RootCmd.PersistentFlags().Bool("readonly", false, wrapString("open the database read-only"))

	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(putCmd)
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(enumerateCmd)
	RootCmd.AddCommand(expirePurgeCmd)
	RootCmd.AddCommand(statsCmd)
}

// initConfig loads .env files and wires viper to VDB_-prefixed environment
// variables, mirroring the teacher's cmd/util.InitClientConfig.
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("vdb")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func bindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called by main.main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
