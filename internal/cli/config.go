package cli

import (
	"github.com/spf13/cobra"

	"mailtasks-cli/internal/store"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write config.json",
	}
	cmd.AddCommand(newConfigListCmd(app))
	cmd.AddCommand(newConfigGetCmd(app))
	cmd.AddCommand(newConfigSetCmd(app))
	cmd.AddCommand(newConfigUnsetCmd(app))
	return cmd
}

func newConfigListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every key with its effective value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			out := map[string]string{}
			for _, k := range store.ConfigKeys() {
				v, err := cfg.Get(k)
				if err != nil {
					return writeErr(cmd, err)
				}
				out[k] = v
			}
			path, _ := store.ConfigPath()
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{"path": path},
			})
		},
	}
}

func newConfigGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Show one key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			v, err := cfg.Get(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"key": args[0], "value": v},
			})
		},
	}
}

func newConfigSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigKey(cmd, app, args[0], args[1])
		},
	}
}

func newConfigUnsetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Reset one key to its default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigKey(cmd, app, args[0], "")
		},
	}
}

func setConfigKey(cmd *cobra.Command, app *App, key, value string) error {
	cfg, err := store.LoadConfig()
	if err != nil {
		return writeErr(cmd, err)
	}
	if err := cfg.Set(key, value); err != nil {
		return writeErr(cmd, err)
	}
	if err := store.SaveConfig(cfg); err != nil {
		return writeErr(cmd, err)
	}
	v, _ := cfg.Get(key)
	return writeOut(cmd, app, map[string]any{
		"data":   map[string]any{"key": key, "value": v},
		"_hints": []string{"mailtasks config list"},
	})
}
