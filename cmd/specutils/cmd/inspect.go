package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"specutils/parsers"
	"specutils/specfile"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Print summary information about a spectrum file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	sf, err := loadSpecFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("File:              %s\n", path)
	fmt.Printf("UUID:              %s\n", sf.UUID)
	fmt.Printf("Manufacturer:      %s\n", sf.Manufacturer)
	fmt.Printf("Instrument model:  %s\n", sf.InstrumentModel)
	fmt.Printf("Instrument ID:     %s\n", sf.InstrumentID)
	fmt.Printf("Detector guess:    %s\n", sf.DetectorTypeGuess)
	fmt.Printf("Measurements:      %d\n", sf.NumMeasurements())
	fmt.Printf("Sample numbers:    %v\n", sf.SampleNumbers())
	fmt.Printf("Detectors:         %v\n", sf.DetectorNames())
	fmt.Printf("Gamma detectors:   %v\n", sf.GammaDetectorNames())
	fmt.Printf("Neutron detectors: %v\n", sf.NeutronDetectorNames())
	fmt.Printf("Gamma live time:   %.3f s\n", sf.SumGammaLiveTime())
	fmt.Printf("Gamma real time:   %.3f s\n", sf.SumGammaRealTime())
	fmt.Printf("Gamma count sum:   %.0f\n", sf.GammaCountSum())
	fmt.Printf("Neutron count sum: %.0f\n", sf.NeutronCountsSum())
	fmt.Printf("Has GPS info:      %v\n", sf.HasGPSInfo())
	fmt.Printf("Memory size:       %s\n", sf.MemorySize())
	if len(sf.ParseWarnings) > 0 {
		fmt.Println("Parse warnings:")
		for _, w := range sf.ParseWarnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	return nil
}

func loadSpecFile(path string) (*specfile.SpecFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parsers.Dispatch(data, path, loadGuardrails())
}
