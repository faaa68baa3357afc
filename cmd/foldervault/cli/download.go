package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"foldervault/internal/client"
)

func NewDownloadCommand(newClient clientFactory) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a file or a whole folder",
		Long:  `Download needs the download permission on the folder. A folder arrives as one zip archive.`,
	}
	cmd.PersistentFlags().StringVarP(&outDir, "out", "o", ".", "Directory to save into")

	save := func(cmd *cobra.Command, f *client.File) error {
		path, err := f.SaveTo(outDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", path, humanize.Bytes(uint64(len(f.Data))))
		return nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "file <file-id>",
		Short: "Download one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			f, err := c.DownloadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return save(cmd, f)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "folder <folder-id>",
		Short: "Download a folder as a zip archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			f, err := c.DownloadFolder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return save(cmd, f)
		},
	})
	return cmd
}

func NewPreviewCommand(newClient clientFactory) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "preview <file-id>",
		Short: "Fetch the inline preview of an image",
		Long:  `Preview needs the consult permission and only works for images. The preview is saved to --out.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			p, err := c.PreviewFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !p.Available() {
				return fmt.Errorf("preview unavailable: %s", p.Unavailable)
			}
			f := &client.File{Name: p.Name, ContentType: p.ContentType, Data: p.Data}
			path, err := f.SaveTo(outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved preview %s (%s)\n", path, p.ContentType)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to save into")
	return cmd
}
