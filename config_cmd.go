package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
)

var configCredentials bool

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the parrot settings file",
	Long:    paragraph(fmt.Sprintf("\n%s the parrot settings file. We’ll use EDITOR to determine which editor to use. If the settings file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("parrot config\nparrot config --credentials\nparrot config --settings-dir path/to/dir"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		// Opening the store writes the default files.
		store, err := openSettings()
		if err != nil {
			return err
		}
		path := store.Path()
		if configCredentials {
			path = store.CredentialsPath()
		}

		c, err := editor.Cmd("Parrot", path)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", path)
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&configCredentials, "credentials", false, "edit the credentials file instead")
}
