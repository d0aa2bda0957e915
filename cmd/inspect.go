package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/comic-packer/internal/comicinfo"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE.cbz",
		Short: "Print the ComicInfo metadata and page list of a CBZ",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := comicinfo.Read(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			w := a.stdout
			if !archive.HasInfo {
				fmt.Fprintf(w, "%s has no %s\n", args[0], comicinfo.FileName)
			} else {
				info := archive.Info
				fmt.Fprintf(w, "Title:       %s\n", info.Title)
				fmt.Fprintf(w, "Series:      %s\n", info.Series)
				fmt.Fprintf(w, "Number:      %s\n", info.Number)
				fmt.Fprintf(w, "Language:    %s\n", info.LanguageISO)
				fmt.Fprintf(w, "Format:      %s\n", info.Format)
				fmt.Fprintf(w, "Manga:       %s\n", info.Manga)
				fmt.Fprintf(w, "AgeRating:   %s\n", info.AgeRating)
				if info.Writer != "" {
					fmt.Fprintf(w, "Writer:      %s\n", info.Writer)
				}
				if info.Notes != "" {
					fmt.Fprintf(w, "Notes:       %s\n", strings.ReplaceAll(info.Notes, "\n", "; "))
				}
			}
			fmt.Fprintf(w, "Pages (%d):  %s\n", len(archive.Pages), strings.Join(archive.Pages, ", "))
			return nil
		},
	}
}
