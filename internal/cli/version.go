package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sdejongh/modclash/pkg/config"
	"github.com/sdejongh/modclash/pkg/walker"
)

// Build information, set by main from ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

type versionInfo struct {
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	BuildDate  string `json:"build_date"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	Workers    int    `json:"default_workers"`
	ConfigPath string `json:"config_path,omitempty"`
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	var short, asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the version, build details, default walk concurrency and config file location.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				fmt.Println(Version)
				return nil
			}

			info := versionInfo{
				Version:   Version,
				Commit:    Commit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
				Workers:   walker.DefaultWorkers(),
			}
			if path, err := config.DefaultConfigPath(); err == nil {
				info.ConfigPath = path
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			fmt.Printf("modclash %s\n", info.Version)
			fmt.Printf("  Commit:     %s\n", info.Commit)
			fmt.Printf("  Built:      %s\n", info.BuildDate)
			fmt.Printf("  Go version: %s\n", info.GoVersion)
			fmt.Printf("  OS/Arch:    %s\n", info.Platform)
			fmt.Printf("  Workers:    %d\n", info.Workers)
			if info.ConfigPath != "" {
				fmt.Printf("  Config:     %s\n", info.ConfigPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}
