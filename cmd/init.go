package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/axisframe/axis/internal/config"
)

var initCmd = &cobra.Command{
	Use:     "init [directory]",
	Aliases: []string{"i"},
	Short:   "Initialize a new Axis project",
	Long: `Create the project skeleton: source buckets, a starter component,
an application shell, and a .axis.yml configuration file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "Overwrite existing files")
}

const starterComponent = `import { useState } from "@axis/hooks";

export default function App() {
  const [count, setCount] = useState(0);
  return (
    <main>
      <h1>Hello, Axis</h1>
      <button onClick={() => setCount(count + 1)}>Count: {count}</button>
    </main>
  );
}
`

const starterEntry = `import { mount } from "@axis/client";
import App from "../components/App";

mount(App);
`

const starterShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Axis App</title>
</head>
<body>
<div id="root"></div>
<script type="module" src="/app/main.js"></script>
</body>
</html>
`

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	force, _ := cmd.Flags().GetBool("force")

	for _, bucket := range config.DefaultBuckets {
		if err := os.MkdirAll(filepath.Join(dir, bucket), 0o755); err != nil {
			return err
		}
	}

	cfg := config.Config{
		Server: config.ServerConfig{
			Port: 3000,
			Host: "localhost",
		},
		Project: config.ProjectConfig{
			Root:    ".",
			Buckets: config.DefaultBuckets,
			Exclude: []string{"node_modules", ".git", "dist"},
		},
		Transpile: config.TranspileConfig{
			Mode:         "development",
			Compiler:     "esbuild",
			CacheEntries: 500,
		},
		Development: config.DevelopmentConfig{
			HotReload:    true,
			ErrorOverlay: true,
			DebounceMs:   100,
		},
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	files := map[string][]byte{
		".axis.yml":          data,
		"components/App.tsx": []byte(starterComponent),
		"app/main.tsx":       []byte(starterEntry),
		"index.html":         []byte(starterShell),
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if !force {
			if _, err := os.Stat(path); err == nil {
				fmt.Printf("Skipping %s (exists, use --force to overwrite)\n", name)
				continue
			}
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", name)
	}

	fmt.Println("\nProject ready. Start the dev server with: axis serve")
	return nil
}
