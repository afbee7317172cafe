package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rotatonator/rotatonator-go/pkg/rotatonator"
)

var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Convert between roster slots and position codes",
	Long: `Position codes are what healers put in their cast macro:
slots 1-9 are "111".."999", slots 10-35 are "AAA".."ZZZ".

Examples:
  rotatonator position encode 12   # CCC
  rotatonator position decode 333  # 3`,
}

var positionEncodeCmd = &cobra.Command{
	Use:   "encode SLOT...",
	Short: "Print the position code of each slot",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			slot, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("invalid slot %q: %w", arg, err)
			}
			code, err := rotatonator.EncodeSlot(slot)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), code)
		}
		return nil
	},
}

var positionDecodeCmd = &cobra.Command{
	Use:   "decode CODE...",
	Short: "Print the slot each position code names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			slot, ok := rotatonator.DecodeSlot(arg)
			if !ok {
				return fmt.Errorf("invalid position code %q", arg)
			}
			fmt.Fprintln(cmd.OutOrStdout(), slot)
		}
		return nil
	},
}

func init() {
	positionCmd.AddCommand(positionEncodeCmd)
	positionCmd.AddCommand(positionDecodeCmd)
}
