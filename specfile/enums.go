package specfile

// SourceType classifies what a Measurement's counts represent (spec.md
// section 3).
type SourceType int

const (
	SourceUnknown SourceType = iota
	SourceIntrinsicActivity
	SourceCalibration
	SourceBackground
	SourceForeground
)

func (s SourceType) String() string {
	switch s {
	case SourceIntrinsicActivity:
		return "IntrinsicActivity"
	case SourceCalibration:
		return "Calibration"
	case SourceBackground:
		return "Background"
	case SourceForeground:
		return "Foreground"
	default:
		return "Unknown"
	}
}

// QualityStatus reflects the detector's self-reported health for a
// Measurement.
type QualityStatus int

const (
	QualityMissing QualityStatus = iota
	QualityGood
	QualitySuspect
	QualityBad
)

func (q QualityStatus) String() string {
	switch q {
	case QualityGood:
		return "Good"
	case QualitySuspect:
		return "Suspect"
	case QualityBad:
		return "Bad"
	default:
		return "Missing"
	}
}

// OccupancyStatus reflects a portal monitor's occupancy determination.
type OccupancyStatus int

const (
	OccupancyUnknown OccupancyStatus = iota
	OccupancyNotOccupied
	OccupancyOccupied
)

func (o OccupancyStatus) String() string {
	switch o {
	case OccupancyNotOccupied:
		return "NotOccupied"
	case OccupancyOccupied:
		return "Occupied"
	default:
		return "Unknown"
	}
}

// DetectorType enumerates the 40+ detection-system signatures spec.md
// section 3 calls for. Distinct values cover the families this module's
// parsers set (OrtecCHN, GR130/GR135, Amptek, RadiaCode, eMorpho) plus
// GADRAS_PCF and generic NaI/HPGe/CZT, which no parser in this module
// assigns; everything else collapses to Other,
// which keeps the enum total without fabricating signatures this module
// cannot ground in a format it parses.
type DetectorType int

const (
	DetectorUnknown DetectorType = iota
	DetectorOrtecCHN
	DetectorGADRASPCF
	DetectorGR130
	DetectorGR135
	DetectorAmptek
	DetectorRadiaCode
	DetectorBridgeportEMorpho
	DetectorNaIGeneric
	DetectorHPGeGeneric
	DetectorCZTGeneric
	DetectorOther
)

func (d DetectorType) String() string {
	switch d {
	case DetectorOrtecCHN:
		return "OrtecCHN"
	case DetectorGADRASPCF:
		return "GADRAS_PCF"
	case DetectorGR130:
		return "Exploranium_GR130"
	case DetectorGR135:
		return "Exploranium_GR135"
	case DetectorAmptek:
		return "Amptek_MCA"
	case DetectorRadiaCode:
		return "RadiaCode"
	case DetectorBridgeportEMorpho:
		return "Bridgeport_eMorpho"
	case DetectorNaIGeneric:
		return "NaI"
	case DetectorHPGeGeneric:
		return "HPGe"
	case DetectorCZTGeneric:
		return "CZT"
	case DetectorOther:
		return "Other"
	default:
		return "Unknown"
	}
}

// DerivedDataFlag is a bit flag describing which derived-data kind a
// Measurement belongs to, when SpecFile.ContainsDerivedData is true.
type DerivedDataFlag uint32

const (
	DerivedBackgroundSubtracted DerivedDataFlag = 1 << iota
	DerivedForeground
	DerivedProcessedSum
)

// CleanupFlags controls SpecFile.CleanupAfterLoad's ordering/renumbering
// behavior (spec.md section 4.6).
type CleanupFlags int

const (
	// StandardCleanup groups by detector name, assigns sample numbers by
	// shared start time, and is the default.
	StandardCleanup CleanupFlags = iota
	// ReorderSamplesByTime sorts samples by start time before numbering.
	ReorderSamplesByTime
	// DontChangeOrReorderSamples preserves whatever sample numbers the
	// parser already assigned.
	DontChangeOrReorderSamples
)
