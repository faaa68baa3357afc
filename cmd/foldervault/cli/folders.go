package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"foldervault/internal/browse"
	"foldervault/internal/domain/catalog"
)

func NewFoldersCommand(newClient clientFactory) *cobra.Command {
	var (
		q         string
		page      int
		expand    []string
		filePage  int
		fileLimit int
	)
	cmd := &cobra.Command{
		Use:   "folders",
		Short: "List visible folders",
		Long: `List the folders visible to the caller. --q keeps folders whose name matches and narrows the others to their matching files.
--expand lists the files of the given folders, --file-page picks which page of them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			result, err := c.ListFolders(cmd.Context(), q, page)
			if err != nil {
				return err
			}

			// The server already searched and paged the folders; the state only
			// decides which of them are expanded and at which file page.
			state := browse.NewState()
			for _, id := range expand {
				state.Toggle(id)
				state.SetFilePage(id, filePage)
			}
			view := state.View(result.Folders, max(len(result.Folders), 1), fileLimit)
			printFolders(cmd.OutOrStdout(), view, result.Pagination)
			return nil
		},
	}
	cmd.Flags().StringVar(&q, "q", "", "Search folder and file names")
	cmd.Flags().IntVar(&page, "page", 1, "Folder page")
	cmd.Flags().StringSliceVar(&expand, "expand", nil, "Folder ids to list files for")
	cmd.Flags().IntVar(&filePage, "file-page", 1, "File page inside expanded folders")
	cmd.Flags().IntVar(&fileLimit, "files-per-page", 6, "Files shown per expanded folder")
	return cmd
}

func NewFilesCommand(newClient clientFactory) *cobra.Command {
	var (
		q    string
		page int
	)
	cmd := &cobra.Command{
		Use:   "files <folder-id>",
		Short: "List the files of a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			result, err := c.ListFiles(cmd.Context(), args[0], q, page)
			if err != nil {
				return err
			}
			printFiles(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&q, "q", "", "Search file names")
	cmd.Flags().IntVar(&page, "page", 1, "File page")
	return cmd
}

func printFolders(out io.Writer, view browse.View, pg catalog.Pagination) {
	if len(view.Folders.Items) == 0 {
		fmt.Fprintln(out, "No folders")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFILES\tSIZE\tACCESS\tCREATED")
	for _, row := range view.Folders.Items {
		f := row.Folder
		acc := string(f.Permission)
		if acc == "" {
			acc = fmt.Sprintf("%d share(s)", len(f.Shares))
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			f.ID, f.Name, f.FileCount, f.SizeHuman, acc, humanize.Time(f.CreatedAt))
		if row.Files == nil {
			continue
		}
		for _, file := range row.Files.Items {
			fmt.Fprintf(w, "  %s\t%s\t\t%s\t%s\t\n",
				file.ID, file.Name, humanize.Bytes(uint64(max(file.Size, 0))), file.ContentType)
		}
		fmt.Fprintf(w, "  \tfiles page %d of %d\t\t\t\t\n", row.Files.Page, max(row.Files.TotalPages, 1))
	}
	_ = w.Flush()
	fmt.Fprintf(out, "\nPage %d of %d (%d folders)\n", pg.Page, max(pg.TotalPages, 1), pg.Total)
}

func printFiles(out io.Writer, p *catalog.FilePage) {
	if len(p.Files) == 0 {
		fmt.Fprintln(out, "No files")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSIZE\tUPLOADED")
	for _, f := range p.Files {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			f.ID, f.Name, f.ContentType, humanize.Bytes(uint64(max(f.Size, 0))), humanize.Time(f.CreatedAt))
	}
	_ = w.Flush()
	fmt.Fprintf(out, "\nPage %d of %d (%d files)\n", p.Pagination.Page, max(p.Pagination.TotalPages, 1), p.Pagination.Total)
}
