package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/elfkit/chunk/image"
	"github.com/joshuapare/elfkit/chunk/printer"
)

var (
	treeChunks    []string
	treeDepth     int
	treeData      bool
	treeDataBytes int
	treeCompact   bool
)

func init() {
	cmd := newTreeCmd()
	cmd.Flags().StringArrayVarP(&treeChunks, "chunk", "c", nil, "Overlay a chunk at offset:size (repeatable)")
	cmd.Flags().IntVar(&treeDepth, "depth", 0, "Maximum depth (0 = unlimited)")
	cmd.Flags().BoolVar(&treeData, "data", false, "Show a preview of each chunk's bytes")
	cmd.Flags().IntVar(&treeDataBytes, "data-bytes", printer.DefaultMaxDataBytes, "Bytes shown per preview")
	cmd.Flags().BoolVar(&treeCompact, "compact", false, "Compact output")
	rootCmd.AddCommand(cmd)
}

func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <image>",
		Short: "Display the chunk tree of an image",
		Long: `The tree command overlays the given chunks on an image and prints the
resulting tree. Each chunk is nested inside the innermost chunk that contains
it; overlapping chunks are rejected.

Example:
  chunkctl tree a.out -c 0:64 -c 0x40:0x38
  chunkctl tree a.out -c 0:64 -c 0:16 --data
  chunkctl tree a.out -c 0:64 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(args)
		},
	}
	return cmd
}

func runTree(args []string) error {
	im, err := openImage(args[0], false)
	if err != nil {
		return err
	}
	defer im.Close()

	if err := overlay(im, treeChunks); err != nil {
		return err
	}

	opts := printer.DefaultOptions()
	opts.MaxDepth = treeDepth
	opts.ShowData = treeData
	opts.MaxDataBytes = treeDataBytes
	if jsonOut {
		opts.Format = printer.FormatJSON
	}
	if treeCompact {
		opts.IndentSize = 1
	}
	return printer.New(stdout, opts).PrintTree(im.Root())
}

// overlay creates and places one chunk per span, in the given order.
func overlay(im *image.Image, specs []string) error {
	for _, s := range specs {
		sp, err := parseSpan(s)
		if err != nil {
			return err
		}
		c, err := im.NewChunk(sp.Offset, sp.Size, nil)
		if err != nil {
			return fmt.Errorf("chunk %s: %w", s, err)
		}
		if err := im.Place(c); err != nil {
			return fmt.Errorf("chunk %s: %w", formatRange(c.Start(), c.End()), err)
		}
		printVerbose("Placed chunk %s\n", formatRange(c.Start(), c.End()))
	}
	return nil
}
