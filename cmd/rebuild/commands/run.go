package commands

import (
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/rebuild/internal/core/domain"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [build-path]",
		Short: "Rebuild native addons under an installed dependency tree",
		Long: `Walks the installed dependency tree rooted at build-path (default "."),
finds every package containing a native addon reachable through required or
optional dependencies, and rebuilds each one against the requested runtime
version and architecture. Modules already built for that exact target are
skipped unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buildPath := "."
			if len(args) == 1 {
				buildPath = args[0]
			}

			if cfg, _ := cmd.Flags().GetString("config"); cfg != "" {
				if l, ok := c.loader.(interface{ SetFilename(string) }); ok {
					l.SetFilename(cfg)
				}
			}

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			opts, err := c.loader.Load(cwd)
			if err != nil {
				return err
			}

			// Flags override everything the loader resolved.
			if v, _ := cmd.Flags().GetString("runtime-version"); v != "" {
				opts.Target.Version = v
			}
			if a, _ := cmd.Flags().GetString("arch"); a != "" {
				arch, err := domain.ParseArch(a)
				if err != nil {
					return err
				}
				opts.Target.Arch = arch
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				opts.Target.Debug = true
			}
			if compiler, _ := cmd.Flags().GetString("compiler"); compiler != "" {
				opts.Target.Compiler = compiler
			}
			if force, _ := cmd.Flags().GetBool("force"); force {
				opts.Force = true
			}
			if only, _ := cmd.Flags().GetStringSlice("only"); len(only) > 0 {
				opts.OnlyModules = only
			}
			if distURL, _ := cmd.Flags().GetString("dist-url"); distURL != "" {
				opts.DistURL = distURL
			}

			target, err := domain.NewTargetIdentity(
				opts.Target.Version,
				opts.Target.Arch,
				opts.Target.Debug,
				opts.Target.Compiler,
			)
			if err != nil {
				return err
			}
			opts.Target = target

			_, err = c.app.Rebuild(cmd.Context(), buildPath, *opts)
			return err
		},
	}

	cmd.Flags().StringP("runtime-version", "v", "", "Runtime version to build against (e.g. 37.2.3)")
	cmd.Flags().StringP("arch", "a", "", "Target architecture (x64, ia32, arm64, armv7l)")
	cmd.Flags().Bool("debug", false, "Build in Debug configuration instead of Release")
	cmd.Flags().BoolP("force", "f", false, "Rebuild even when the cached target matches")
	cmd.Flags().StringSliceP("only", "o", nil, "Restrict rebuilding to the named modules")
	cmd.Flags().String("compiler", "", "Override the C/C++ compiler used by the toolchain")
	cmd.Flags().String("dist-url", "", "Base URL to download header bundles from")
	cmd.Flags().StringP("config", "c", "", "Path to configuration file (default rebuild.yaml)")

	return cmd
}
