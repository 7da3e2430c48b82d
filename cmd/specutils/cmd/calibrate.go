package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"specutils/serializers"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate [spectrum-file] [calp-file] [output-file]",
	Short: "Apply an external CALp energy calibration to a spectrum file",
	Args:  cobra.ExactArgs(3),
	RunE:  runCalibrate,
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	specPath, calpPath, outPath := args[0], args[1], args[2]

	sf, err := loadSpecFile(specPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", specPath, err)
	}

	calp, err := os.Open(calpPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", calpPath, err)
	}
	defer calp.Close()

	if err := sf.SetEnergyCalibrationFromCALpFile(calp); err != nil {
		return fmt.Errorf("applying %s: %w", calpPath, err)
	}

	out, err := serializers.WriteN42(sf)
	if err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return os.WriteFile(outPath, out, 0o644)
}
