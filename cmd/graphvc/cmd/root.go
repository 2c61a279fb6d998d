package cmd

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/conceptgraph/graphvc/pkg/graphvc"
	"github.com/conceptgraph/graphvc/pkg/graphvc/ref"
	"github.com/conceptgraph/graphvc/pkg/kv"
	"github.com/conceptgraph/graphvc/pkg/kv/kvparams"
	"github.com/conceptgraph/graphvc/pkg/kv/local"
	"github.com/conceptgraph/graphvc/pkg/kv/mem"
	"github.com/conceptgraph/graphvc/pkg/logging"
	"github.com/conceptgraph/graphvc/pkg/validator"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	// logLevel logging level (default is off)
	logLevel string
	// logFormat logging format
	logFormat string
	// logOutputs logging outputs
	logOutputs []string
)

// rootCmd represents the base command when called without any sub-commands
var rootCmd = &cobra.Command{
	Use:   "graphvc",
	Short: "Version control for property graphs",
	Long:  `graphvc tracks a mutable property graph as a history of content-addressed commits, with branches, tags, diff and merge`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetLevel(logLevel)
		logging.SetOutputFormat(logFormat)
		logging.SetOutputs(logOutputs, 0, 0)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		DieErr(err)
	}
}

//nolint:gochecknoinits
func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.graphvc.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "none", "set logging level")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "set logging output format")
	rootCmd.PersistentFlags().StringSliceVar(&logOutputs, "log-output", []string{}, "set logging output(s)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			DieErr(err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".graphvc")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("GRAPHVC")
	viper.AutomaticEnv()

	viper.SetDefault("store.type", local.DriverName)
	viper.SetDefault("store.local.path", "~/.graphvc-data")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			DieFmt("error reading configuration file: %v", err)
		}
	}
}

func kvParamsFromConfig() kvparams.Config {
	storeType := viper.GetString("store.type")
	params := kvparams.Config{Type: storeType}
	switch storeType {
	case local.DriverName:
		params.Local = &kvparams.Local{
			Path:          expandHome(viper.GetString("store.local.path")),
			EnableLogging: viper.GetBool("store.local.enable_logging"),
		}
	case mem.DriverName:
	default:
		DieFmt("unknown store type %q", storeType)
	}
	return params
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}

// getEngine opens the configured store and returns a ready engine over it.
// The caller must invoke the returned closer when done.
func getEngine(ctx context.Context) (*graphvc.Engine, func()) {
	store, err := kv.OpenWithMetrics(ctx, kvParamsFromConfig())
	if err != nil {
		DieErr(fmt.Errorf("open store: %w", err))
	}
	engine := graphvc.NewEngine(ref.NewManager(store))
	if err := engine.Initialize(ctx); err != nil {
		store.Close()
		DieErr(fmt.Errorf("initialize store: %w", err))
	}
	return engine, store.Close
}

func currentAuthor() (id, name string) {
	id = viper.GetString("author.id")
	name = viper.GetString("author.name")
	if id == "" {
		if u, err := user.Current(); err == nil {
			id = u.Username
			if name == "" {
				name = u.Name
			}
		}
	}
	return id, name
}

// resolveCommitID turns a user-supplied reference into a commit id. A full
// commit hash is used as-is, otherwise branch names and tag names are tried
// in that order.
func resolveCommitID(ctx context.Context, engine *graphvc.Engine, refName string) graphvc.CommitID {
	if err := validator.ValidateCommitID(refName); err == nil {
		return graphvc.CommitID(refName)
	}
	if branch, err := engine.GetBranch(ctx, graphvc.BranchID(refName)); err == nil {
		return branch.CommitID
	}
	if tag, err := engine.GetTag(ctx, graphvc.TagID(refName)); err == nil {
		return tag.CommitID
	}
	DieFmt("unknown reference %q: not a commit, branch or tag", refName)
	return ""
}
