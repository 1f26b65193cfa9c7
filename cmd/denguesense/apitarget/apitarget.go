// Package apitarget resolves which DengueSense API server a client command
// talks to.
package apitarget

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/denguesense/api/client"
	"github.com/papercomputeco/denguesense/pkg/config"
)

// AddFlag registers --api-target on cmd.
func AddFlag(cmd *cobra.Command, target *string) {
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, target)
}

// Resolve returns the API target for cmd. The --api-target flag wins over
// DENGUESENSE_CLIENT_API_TARGET, which wins over client.api_target in
// config.toml.
func Resolve(cmd *cobra.Command) (string, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return "", fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPITarget})

	return v.GetString(config.Flags[config.FlagAPITarget].ViperKey), nil
}

// NewClient resolves the target and returns a client for it.
func NewClient(cmd *cobra.Command) (*client.Client, error) {
	target, err := Resolve(cmd)
	if err != nil {
		return nil, err
	}
	return client.New(target, nil)
}
