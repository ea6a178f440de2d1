package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/axisframe/axis/internal/cache"
	"github.com/axisframe/axis/internal/config"
	"github.com/axisframe/axis/internal/errors"
	"github.com/axisframe/axis/internal/graph"
	"github.com/axisframe/axis/internal/resolve"
	"github.com/axisframe/axis/internal/transpile"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Write a production build to the output directory",
	Long: `Transpile every discovered source with production rules and write
the results under the output directory, preserving bucket layout with
source extensions lowered to .js. Stylesheets are copied through.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringP("output", "o", "dist", "Output directory")
	viper.BindPFlag("build.output", buildCmd.Flags().Lookup("output"))
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger()
	outDir := viper.GetString("build.output")
	if outDir == "" {
		outDir = "dist"
	}

	root, err := filepath.Abs(cfg.Project.Root)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	g, err := graph.Discover(ctx, root, cfg.Project.Buckets)
	if err != nil {
		return fmt.Errorf("discovery: %w", err)
	}

	collector := errors.NewCollector()
	pipeline := transpile.NewPipeline(
		transpile.NewEsbuildCompiler(cfg.Transpile.Compiler),
		cache.New[transpile.Result](0),
		collector,
		logger,
		transpile.ModeProduction,
	)

	built := 0
	for _, file := range g.Files() {
		abs := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(file, "/")))
		source, err := os.ReadFile(abs)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}

		result, err := pipeline.Transpile(ctx, transpile.Request{
			Path:   file,
			File:   abs,
			Source: source,
			Token:  cache.ContentToken(source),
			Mode:   transpile.ModeProduction,
		})
		if err != nil {
			return err
		}
		if result.Failed() {
			continue
		}

		outPath := filepath.Join(outDir, filepath.FromSlash(strings.TrimPrefix(resolve.InferExtension(file), "/")))
		if err := writeBuildFile(outPath, result.Code); err != nil {
			return err
		}
		built++
	}

	for _, css := range g.Stylesheets() {
		src := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(css, "/")))
		data, err := os.ReadFile(src)
		if err != nil {
			continue
		}
		dst := filepath.Join(outDir, filepath.FromSlash(strings.TrimPrefix(css, "/")))
		if err := writeBuildFile(dst, data); err != nil {
			return err
		}
	}

	if collector.HasErrors() {
		for _, e := range collector.Errors() {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return fmt.Errorf("build finished with %d error(s)", len(collector.Errors()))
	}

	fmt.Printf("Built %d module(s) to %s\n", built, outDir)
	return nil
}

func writeBuildFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
