package main

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <image>",
		Short: "Report basic metadata of an image",
		Long: `The info command opens an image and reports its size, leading magic
bytes, dirty-range alignment and chunk accounting.

Example:
  chunkctl info a.out
  chunkctl info a.out --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

// imageInfo is the JSON shape of the info command.
type imageInfo struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Magic    string `json:"magic"`
	ELF      bool   `json:"elf"`
	PageSize int64  `json:"page_size"`
	Chunks   int64  `json:"chunks"`
}

var elfMagic = []byte("\x7fELF")

func runInfo(args []string) error {
	im, err := openImage(args[0], false)
	if err != nil {
		return err
	}
	defer im.Close()

	data := im.Root().Data()
	magic := data[:min(len(data), len(elfMagic))]
	info := imageInfo{
		Path:     im.Path(),
		Size:     im.Size(),
		Magic:    hex.EncodeToString(magic),
		ELF:      bytes.Equal(magic, elfMagic),
		PageSize: im.Dirty().PageSize(),
		Chunks:   im.Live(),
	}

	if jsonOut {
		return printJSON(info)
	}

	p := message.NewPrinter(language.English)
	st := newStyles(stdout)
	printInfo("\n%s\n", st.heading.Render("Image Information:"))
	printInfo("  %s %s\n", st.label.Render("File:"), info.Path)
	printInfo("  %s %s\n", st.label.Render("Size:"), p.Sprintf("%d bytes", info.Size))
	printInfo("  %s %s\n", st.label.Render("Magic:"), info.Magic)
	printInfo("  %s %s\n", st.label.Render("ELF:"), st.flag(fmt.Sprint(info.ELF), info.ELF))
	printInfo("  %s %s\n", st.label.Render("Page size:"), p.Sprintf("%d", info.PageSize))
	printInfo("  %s %d\n", st.label.Render("Live chunks:"), info.Chunks)
	return nil
}
