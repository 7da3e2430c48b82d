package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"specutils/serializers"
)

var convertOutputFormat string

var convertCmd = &cobra.Command{
	Use:   "convert [input] [output]",
	Short: "Convert a spectrum file to another format",
	Long: `Convert reads the input spectrum file, auto-detecting its format, and
writes it back out in the format named by --to (or inferred from the output
file's extension): n42, chn, spe, or tka. CHN/SPE/TKA carry a single
spectrum per file; converting a multi-record SpecFile to one of these sums
every Measurement first.`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertOutputFormat, "to", "", "output format: n42, chn, spe, tka (default: inferred from output extension)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inPath, outPath := args[0], args[1]
	sf, err := loadSpecFile(inPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}

	format := strings.ToLower(convertOutputFormat)
	if format == "" {
		format = strings.ToLower(strings.TrimPrefix(filepath.Ext(outPath), "."))
	}

	var out []byte
	switch format {
	case "n42", "n42-2012":
		out, err = serializers.WriteN42(sf)
	case "chn":
		out, err = serializers.WriteCHN(sf)
	case "spe":
		out, err = serializers.WriteSPE(sf)
	case "tka":
		out, err = serializers.WriteTKA(sf)
	default:
		return fmt.Errorf("unsupported output format %q (want n42, chn, spe, or tka)", format)
	}
	if err != nil {
		return fmt.Errorf("writing %s as %s: %w", outPath, format, err)
	}

	return os.WriteFile(outPath, out, 0o644)
}
