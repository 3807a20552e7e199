package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	patchOut     string
	patchInPlace bool
	patchZero    bool
)

func init() {
	cmd := newPatchCmd()
	cmd.Flags().StringVarP(&patchOut, "out", "o", "", "Write the patched image to this file")
	cmd.Flags().BoolVar(&patchInPlace, "in-place", false, "Patch the image file in place")
	cmd.Flags().BoolVar(&patchZero, "zero", false, "Zero the range instead of writing data")
	cmd.MarkFlagsMutuallyExclusive("out", "in-place")
	cmd.MarkFlagsOneRequired("out", "in-place")
	rootCmd.AddCommand(cmd)
}

func newPatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch <image> <offset> [hex]",
		Short: "Overwrite bytes of an image",
		Long: `The patch command replaces the bytes at offset with the given hex data.
The image size never changes: data running past the end of the file is
rejected. With --zero the range offset:size is cleared instead.

Example:
  chunkctl patch a.out 0x18 "00 10 40 00" -o patched.out
  chunkctl patch a.out 0x40:8 --zero --in-place`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(cmd.Context(), args)
		},
	}
	return cmd
}

func runPatch(ctx context.Context, args []string) error {
	path := args[0]

	var (
		at   int64
		data []byte
		err  error
	)
	if patchZero {
		sp, err := parseSpan(args[1])
		if err != nil {
			return err
		}
		at, data = sp.Offset, make([]byte, sp.Size)
	} else {
		if len(args) != 3 {
			return fmt.Errorf("expected hex data after the offset")
		}
		if at, err = parseOffset(args[1]); err != nil {
			return fmt.Errorf("invalid offset %q: %w", args[1], err)
		}
		if data, err = parseHex(args[2]); err != nil {
			return err
		}
	}

	im, err := openImage(path, patchInPlace)
	if err != nil {
		return err
	}
	defer im.Close()

	end := at + int64(len(data))
	if end > im.Size() {
		return fmt.Errorf("patch %s runs past the end of the image (%d bytes)", formatRange(at, end), im.Size())
	}

	c, err := im.NewChunk(at, int64(len(data)), nil)
	if err != nil {
		return err
	}
	if err := im.Place(c); err != nil {
		return err
	}
	if err := c.SetData(data); err != nil {
		return err
	}

	if patchInPlace {
		if ctx == nil {
			ctx = context.Background()
		}
		if err := im.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit: %w", err)
		}
		printInfo("%s %s in %s\n", newStyles(stdout).success.Render("Patched"), formatRange(at, end), path)
		return nil
	}

	if err := im.SaveFile(patchOut); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	printInfo("%s %s into %s\n", newStyles(stdout).success.Render("Patched"), formatRange(at, end), patchOut)
	return nil
}
